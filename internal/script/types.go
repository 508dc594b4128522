package script

import (
	"time"
)

// ErrorType categorizes different types of script errors
type ErrorType string

const (
	ErrorTypeCompilation   ErrorType = "compilation"
	ErrorTypeExecution     ErrorType = "execution"
	ErrorTypeTimeout       ErrorType = "timeout"
	ErrorTypeConversion    ErrorType = "conversion"
	ErrorTypeInvalidConfig ErrorType = "invalid_config"
	ErrorTypeNotFound      ErrorType = "not_found"
)

// Definition describes a scripted service: one handler whose body is a Tengo script.
//
// Consumed topics are available to the script as globals of the same name
// (dots replaced by underscores). Produced topics are read back from top-level
// script variables of the same name; a variable left undefined is not
// published. The script also sees user_id and a state map that persists per
// session.
type Definition struct {
	Name     string        `yaml:"name" validate:"required"`
	Handler  string        `yaml:"handler"`
	Consumes []string      `yaml:"consumes" validate:"required,min=1,dive,required"`
	Produces []string      `yaml:"produces" validate:"dive,required"`
	Source   string        `yaml:"source" validate:"required"`
	Timeout  time.Duration `yaml:"timeout"`

	// ResetStateOnStart clears the script's state map when a dialog starts.
	ResetStateOnStart bool `yaml:"reset_state_on_start"`
}

// SecurityLimits defines resource constraints for script execution
type SecurityLimits struct {
	MaxExecutionTime time.Duration
	MaxAllocs        int64
	AllowedPackages  []string
}

// ScriptError represents script-related errors with context
type ScriptError struct {
	Type      ErrorType
	Service   string
	Handler   string
	Message   string
	Cause     error
	Timestamp time.Time
}

func (e *ScriptError) Error() string {
	if e.Cause != nil {
		return e.Service + "." + e.Handler + ": " + e.Message + ": " + e.Cause.Error()
	}
	return e.Service + "." + e.Handler + ": " + e.Message
}

func (e *ScriptError) Unwrap() error {
	return e.Cause
}

// NewScriptError creates a new ScriptError with the given parameters
func NewScriptError(errorType ErrorType, service, handler, message string, cause error) *ScriptError {
	return &ScriptError{
		Type:      errorType,
		Service:   service,
		Handler:   handler,
		Message:   message,
		Cause:     cause,
		Timestamp: time.Now(),
	}
}
