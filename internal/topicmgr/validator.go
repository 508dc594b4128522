package topicmgr

import (
	"fmt"
	"regexp"
	"strings"
)

// Validator checks topic definitions
type Validator struct {
	// namePattern defines valid topic name patterns
	namePattern *regexp.Regexp
}

// NewValidator creates a new topic validator
func NewValidator() *Validator {
	// snake_case segments, optionally dotted: user_utterance, beliefstate.courses
	namePattern := regexp.MustCompile(`^[a-z][a-z0-9_]*(\.[a-z][a-z0-9_]*)*$`)

	return &Validator{
		namePattern: namePattern,
	}
}

// ValidateDefinition validates a topic definition
func (v *Validator) ValidateDefinition(topic Topic) error {
	if topic == nil {
		return fmt.Errorf("topic cannot be nil")
	}

	if err := v.ValidateName(topic.Name()); err != nil {
		return fmt.Errorf("invalid topic name: %w", err)
	}

	if strings.TrimSpace(topic.Description()) == "" {
		return fmt.Errorf("topic description cannot be empty")
	}

	if !topic.Scope().Valid() {
		return fmt.Errorf("invalid topic scope: %q", topic.Scope())
	}

	return nil
}

// ValidateName checks if a topic name follows the naming convention
func (v *Validator) ValidateName(name string) error {
	if name == "" {
		return fmt.Errorf("name cannot be empty")
	}

	if len(name) > 100 {
		return fmt.Errorf("name too long (max 100 characters)")
	}

	if !v.namePattern.MatchString(name) {
		return fmt.Errorf("name must be lowercase snake_case, optionally dot separated")
	}

	reservedPrefixes := []string{"debug.", "internal."}
	for _, prefix := range reservedPrefixes {
		if strings.HasPrefix(name, prefix) {
			return fmt.Errorf("name cannot start with reserved prefix: %s", prefix)
		}
	}

	return nil
}
