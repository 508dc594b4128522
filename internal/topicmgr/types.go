package topicmgr

import (
	"time"
)

// Topic is a catalogued message channel name with its documentation
type Topic interface {
	// Name returns the unique string identifier for this topic
	Name() string

	// Owner returns the service that documents this topic (empty for shared topics)
	Owner() string

	// Description returns human-readable documentation
	Description() string

	// Example returns an example payload
	Example() string

	// Metadata returns additional topic information
	Metadata() map[string]interface{}

	// Scope returns where values for this topic come from or go to
	Scope() TopicScope
}

// TypedTopic is the default Topic implementation
type TypedTopic struct {
	name        string
	owner       string
	description string
	example     string
	metadata    map[string]interface{}
	scope       TopicScope
}

// Compile-time interface compliance check
var _ Topic = (*TypedTopic)(nil)

// TopicConfig holds configuration for creating a new topic
type TopicConfig struct {
	Name        string                 `json:"name"`        // Unique identifier
	Owner       string                 `json:"owner"`       // Documenting service, optional
	Scope       TopicScope             `json:"scope"`       // Seed, internal or terminal
	Description string                 `json:"description"` // Human-readable description
	Example     string                 `json:"example"`     // Example payload
	Metadata    map[string]interface{} `json:"metadata"`    // Additional data
}

// TopicScope classifies a topic relative to the bus
type TopicScope string

const (
	ScopeSeed     TopicScope = "seed"     // Supplied by the caller as turn input
	ScopeInternal TopicScope = "internal" // Produced and consumed by handlers
	ScopeTerminal TopicScope = "terminal" // Consumed outside the bus (transport, logs)
)

// Valid reports whether s is a known scope
func (s TopicScope) Valid() bool {
	switch s {
	case ScopeSeed, ScopeInternal, ScopeTerminal:
		return true
	}
	return false
}

// RegistryEntry represents a topic entry in the registry with metadata
type RegistryEntry struct {
	Topic        Topic     `json:"topic"`
	RegisteredAt time.Time `json:"registered_at"`
}

// TopicError represents structured errors in the topic management system
type TopicError struct {
	Type    ErrorType `json:"type"`
	Topic   string    `json:"topic"`
	Message string    `json:"message"`
	Cause   error     `json:"cause,omitempty"`
}

// ErrorType defines the type of topic management error
type ErrorType string

const (
	ErrorTopicNotFound         ErrorType = "topic_not_found"
	ErrorDuplicateRegistration ErrorType = "duplicate_registration"
	ErrorValidationFailed      ErrorType = "validation_failed"
	ErrorInvalidScope          ErrorType = "invalid_scope"
)

// Error implements the error interface
func (e *TopicError) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

// Unwrap returns the underlying error
func (e *TopicError) Unwrap() error {
	return e.Cause
}

// Name returns the topic's unique identifier
func (t *TypedTopic) Name() string {
	return t.name
}

// Owner returns the documenting service
func (t *TypedTopic) Owner() string {
	return t.owner
}

// Description returns human-readable documentation
func (t *TypedTopic) Description() string {
	return t.description
}

// Example returns a usage example
func (t *TypedTopic) Example() string {
	return t.example
}

// Metadata returns a copy of the additional topic information
func (t *TypedTopic) Metadata() map[string]interface{} {
	result := make(map[string]interface{}, len(t.metadata))
	for k, v := range t.metadata {
		result[k] = v
	}
	return result
}

// Scope returns the topic scope
func (t *TypedTopic) Scope() TopicScope {
	return t.scope
}

// String returns the topic name for easy debugging
func (t *TypedTopic) String() string {
	return t.name
}
