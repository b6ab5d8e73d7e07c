package dispatch

import (
	"errors"
	"fmt"
)

// Argument errors.
// These are raised synchronously at the offending call and are never
// deferred into dispatch. Use errors.Is() to check for them as they may
// be wrapped with additional context.
var (
	// ErrNilSource indicates an event was constructed without a source.
	// Every event must be attributable to the object that caused it.
	ErrNilSource = errors.New("event source is required")

	// ErrNilHandler indicates a registration without a handler.
	ErrNilHandler = errors.New("listener handler is required")

	// ErrEmptyTypes indicates a registration with no accepted event types.
	// Use On(...) or OnAny() to declare the types a listener accepts.
	ErrEmptyTypes = errors.New("listener accepts no event types")

	// ErrDuplicateListener indicates a registration reusing an explicit
	// listener ID that is already present in the registry.
	ErrDuplicateListener = errors.New("duplicate listener id")

	// ErrPublisherClosed indicates a publish attempt after Close.
	ErrPublisherClosed = errors.New("publisher is closed")

	// ErrExecutorClosed indicates a dispatch was submitted to an executor
	// that has already been shut down.
	ErrExecutorClosed = errors.New("executor is closed")
)

// ConditionError indicates a listener's condition predicate itself failed.
// This is distinct from the condition evaluating to false: a false
// evaluation skips the listener silently, a failed evaluation is recorded
// in the DispatchResult so a broken predicate never masquerades as
// "listener should not fire".
type ConditionError struct {
	ListenerID string
	Err        error
}

func (e *ConditionError) Error() string {
	return fmt.Sprintf("condition evaluation failed for listener %q: %v", e.ListenerID, e.Err)
}

func (e *ConditionError) Unwrap() error {
	return e.Err
}

// IsConditionError checks if an error was raised by condition evaluation.
func IsConditionError(err error) bool {
	var condErr *ConditionError
	return errors.As(err, &condErr)
}

// InvocationError indicates a listener handler failed or panicked.
// Captured per listener in the DispatchResult; never thrown out of
// Multicast, since one faulty subscriber must not break publication for
// others or for the publisher.
type InvocationError struct {
	ListenerID string
	Err        error
}

func (e *InvocationError) Error() string {
	return fmt.Sprintf("listener %q failed: %v", e.ListenerID, e.Err)
}

func (e *InvocationError) Unwrap() error {
	return e.Err
}

// IsInvocationError checks if an error was raised by a listener handler.
func IsInvocationError(err error) bool {
	var invErr *InvocationError
	return errors.As(err, &invErr)
}
