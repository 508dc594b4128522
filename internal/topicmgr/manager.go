package topicmgr

import (
	"fmt"
	"sync"
)

// Manager combines the registry and validator into the topic catalogue of a pipeline
type Manager struct {
	registry  *Registry
	validator *Validator
	mu        sync.RWMutex
}

// NewManager creates a new topic manager with registry and validator
func NewManager() *Manager {
	return &Manager{
		registry:  NewRegistry(),
		validator: NewValidator(),
	}
}

func define(config TopicConfig) Topic {
	return &TypedTopic{
		name:        config.Name,
		owner:       config.Owner,
		description: config.Description,
		example:     config.Example,
		metadata:    config.Metadata,
		scope:       config.Scope,
	}
}

// DefineSeed creates a topic whose values are supplied by the caller at turn start
func DefineSeed(config TopicConfig) Topic {
	config.Scope = ScopeSeed
	return define(config)
}

// DefineInternal creates a topic produced and consumed by handlers
func DefineInternal(config TopicConfig) Topic {
	config.Scope = ScopeInternal
	return define(config)
}

// DefineTerminal creates a topic consumed outside the bus
func DefineTerminal(config TopicConfig) Topic {
	config.Scope = ScopeTerminal
	return define(config)
}

// Register validates a topic and adds it to the registry
func (m *Manager) Register(topic Topic) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.validator.ValidateDefinition(topic); err != nil {
		name := ""
		if topic != nil {
			name = topic.Name()
		}
		return &TopicError{
			Type:    ErrorValidationFailed,
			Topic:   name,
			Message: "topic validation failed",
			Cause:   err,
		}
	}

	return m.registry.Register(topic)
}

// RegisterAll registers topics in order and stops at the first error
func (m *Manager) RegisterAll(topics ...Topic) error {
	for _, topic := range topics {
		if err := m.Register(topic); err != nil {
			return err
		}
	}
	return nil
}

// MustRegister registers a topic and panics on error (for static initialization)
func (m *Manager) MustRegister(topic Topic) {
	if err := m.Register(topic); err != nil {
		panic(fmt.Sprintf("failed to register topic %s: %v", topic.Name(), err))
	}
}

// Get retrieves a topic by name
func (m *Manager) Get(name string) (Topic, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.registry.Get(name)
}

// List returns all registered topics
func (m *Manager) List() []Topic {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.registry.List()
}

// ListByScope returns topics for a specific scope
func (m *Manager) ListByScope(scope TopicScope) []Topic {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.registry.ListByScope(scope)
}

// ScopeOf returns the scope of a registered topic. Unknown topics report
// ScopeInternal and false.
func (m *Manager) ScopeOf(name string) (TopicScope, bool) {
	topic, ok := m.Get(name)
	if !ok {
		return ScopeInternal, false
	}
	return topic.Scope(), true
}

// ValidateTopicName checks if a topic name is valid without creating a topic
func (m *Manager) ValidateTopicName(name string) error {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.validator.ValidateName(name)
}

// Count returns the total number of registered topics
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.registry.Count()
}

// GetStats returns registry statistics
func (m *Manager) GetStats() RegistryStats {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.registry.GetStats()
}
