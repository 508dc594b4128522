package service

import (
	"errors"
	"fmt"
	"slices"
)

var (
	// ErrEmptyHandlerName is returned when a handler is registered without a name.
	ErrEmptyHandlerName = errors.New("handler name cannot be empty")

	// ErrNilHandler is returned when a handler is registered without a function.
	ErrNilHandler = errors.New("handler function cannot be nil")

	// ErrNoConsumedTopics is returned when a handler does not subscribe to anything.
	ErrNoConsumedTopics = errors.New("handler must consume at least one topic")

	// ErrEmptyTopic is returned when a declared topic name is empty.
	ErrEmptyTopic = errors.New("topic name cannot be empty")

	// ErrDuplicateHandler is returned when a service registers the same handler name twice.
	ErrDuplicateHandler = errors.New("handler already registered")
)

// HandleOption configures a handler registration.
type HandleOption func(*Handler)

// Consumes declares the topics a handler needs before it may run.
func Consumes(topics ...string) HandleOption {
	return func(h *Handler) {
		h.Consumes = append(h.Consumes, topics...)
	}
}

// Produces declares the topics a handler may publish.
func Produces(topics ...string) HandleOption {
	return func(h *Handler) {
		h.Produces = append(h.Produces, topics...)
	}
}

// Registrar collects the handlers of one service.
type Registrar struct {
	service  string
	handlers []Handler
}

// NewRegistrar creates a registrar for the named service.
func NewRegistrar(service string) *Registrar {
	return &Registrar{service: service}
}

// Handle registers fn under name with the given topic declarations.
// Duplicate topics in a declaration are collapsed, keeping the first occurrence.
func (r *Registrar) Handle(name string, fn HandlerFunc, opts ...HandleOption) error {
	if name == "" {
		return fmt.Errorf("service %s: %w", r.service, ErrEmptyHandlerName)
	}
	if fn == nil {
		return fmt.Errorf("handler %s.%s: %w", r.service, name, ErrNilHandler)
	}

	h := Handler{Name: name, Service: r.service, Fn: fn}
	for _, opt := range opts {
		opt(&h)
	}

	if len(h.Consumes) == 0 {
		return fmt.Errorf("handler %s: %w", h.QualifiedName(), ErrNoConsumedTopics)
	}
	if slices.Contains(h.Consumes, "") || slices.Contains(h.Produces, "") {
		return fmt.Errorf("handler %s: %w", h.QualifiedName(), ErrEmptyTopic)
	}
	for _, existing := range r.handlers {
		if existing.Name == name {
			return fmt.Errorf("handler %s: %w", h.QualifiedName(), ErrDuplicateHandler)
		}
	}

	h.Consumes = dedupe(h.Consumes)
	h.Produces = dedupe(h.Produces)
	r.handlers = append(r.handlers, h)
	return nil
}

// Handlers returns the registered handlers in registration order.
func (r *Registrar) Handlers() []Handler {
	return slices.Clone(r.handlers)
}

func dedupe(topics []string) []string {
	seen := make(map[string]struct{}, len(topics))
	out := make([]string, 0, len(topics))
	for _, t := range topics {
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}
