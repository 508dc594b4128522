package dialog

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrShutdown is returned by every operation after Shutdown.
	ErrShutdown = errors.New("dialog system is shut down")

	// ErrHopLimitExceeded aborts a turn whose propagation chain grew longer than the hop budget.
	ErrHopLimitExceeded = errors.New("maximum propagation hops exceeded")

	// ErrTurnTimeout aborts a turn that ran past its wall-clock budget.
	ErrTurnTimeout = errors.New("turn timed out")

	// ErrUndeclaredTopic is reported when a handler returns a topic missing from its Produces list.
	ErrUndeclaredTopic = errors.New("handler published undeclared topic")

	// ErrHandlerPanic wraps a recovered handler panic.
	ErrHandlerPanic = errors.New("handler panicked")

	// ErrReservedName is returned when a service uses the system's own namespace name.
	ErrReservedName = errors.New("service name is reserved")
)

// HandlerError is a failure of a single handler invocation or lifecycle hook.
type HandlerError struct {
	UserID  string
	Topic   string
	Handler string
	Err     error
}

func (e *HandlerError) Error() string {
	if e.Topic == "" {
		return fmt.Sprintf("%s failed for user %s: %v", e.Handler, e.UserID, e.Err)
	}
	return fmt.Sprintf("%s failed on topic %s for user %s: %v", e.Handler, e.Topic, e.UserID, e.Err)
}

func (e *HandlerError) Unwrap() error {
	return e.Err
}

// TurnError is returned when a turn was aborted or any handler in it failed.
// State written by handlers that already ran is kept.
type TurnError struct {
	UserID   string
	TurnID   string
	Cause    error
	Failures []*HandlerError
}

func (e *TurnError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "turn %s for user %s failed", e.TurnID, e.UserID)
	if e.Cause != nil {
		fmt.Fprintf(&b, ": %v", e.Cause)
	}
	if len(e.Failures) > 0 {
		msgs := make([]string, 0, len(e.Failures))
		for _, f := range e.Failures {
			msgs = append(msgs, f.Error())
		}
		fmt.Fprintf(&b, " (%d handler error(s): %s)", len(e.Failures), strings.Join(msgs, "; "))
	}
	return b.String()
}

// Unwrap exposes the abort cause and every handler failure to errors.Is and errors.As.
func (e *TurnError) Unwrap() []error {
	errs := make([]error, 0, len(e.Failures)+1)
	if e.Cause != nil {
		errs = append(errs, e.Cause)
	}
	for _, f := range e.Failures {
		errs = append(errs, f)
	}
	return errs
}

// Handlers returns the names of the failed handlers.
func (e *TurnError) Handlers() []string {
	names := make([]string, 0, len(e.Failures))
	for _, f := range e.Failures {
		names = append(names, f.Handler)
	}
	return names
}
