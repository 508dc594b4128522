package service

import (
	"context"

	"github.com/SE-Stuttgart/kib3-moodle-chatbot-backend-sub000/internal/sessionstore"
)

// Service is a unit of dialog logic. It owns handlers and keeps
// session-scoped state in its own namespace of the session store.
type Service interface {
	// Name returns a unique identifier for the service. It doubles as the
	// name of the service's state namespace.
	Name() string

	// Attach hands the service its state namespace. It is called once by the
	// dialog system before Register.
	Attach(ns *sessionstore.Namespace)

	// Register declares the service's handlers.
	Register(r *Registrar) error
}

// DialogStarter is implemented by services that reset derived session state
// when a conversation begins. It may be called more than once per session.
type DialogStarter interface {
	DialogStart(ctx context.Context, userID string) error
}

// DialogEnder is implemented by services that need to clean up when a
// session is ended explicitly.
type DialogEnder interface {
	DialogEnd(ctx context.Context, userID string) error
}

// Base provides Name, Attach and State for services to embed.
type Base struct {
	name  string
	state *sessionstore.Namespace
}

// NewBase returns a Base with the given service name.
func NewBase(name string) Base {
	return Base{name: name}
}

// Name returns the service name.
func (b *Base) Name() string { return b.name }

// Attach stores the state namespace.
func (b *Base) Attach(ns *sessionstore.Namespace) { b.state = ns }

// State returns the namespace handed to Attach, or nil before attachment.
func (b *Base) State() *sessionstore.Namespace { return b.state }
