// Package apperr defines the error kinds surfaced by the allocation engine and
// the request lifecycle manager. Every rejected operation returns an *Error whose
// Kind is one of the sentinels below, so callers can branch with errors.Is.
package apperr

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when a referenced entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrConflict is returned when a state precondition is violated:
	// already assigned, room full, request already decided.
	ErrConflict = errors.New("conflict")

	// ErrValidation is returned for malformed or missing input.
	ErrValidation = errors.New("validation failed")

	// ErrInconsistency is returned when stored occupancy no longer matches
	// the occupant set after a mutation. The surrounding transaction is aborted.
	ErrInconsistency = errors.New("inconsistent state")

	// ErrForbidden is returned when the actor's role is not allowed to act.
	ErrForbidden = errors.New("forbidden")
)

// Error carries a kind and a human-readable reason.
type Error struct {
	Kind   error
	Reason string
	Err    error // optional underlying cause
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Reason, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Reason)
}

// Unwrap exposes both the kind and the cause to errors.Is / errors.As.
func (e *Error) Unwrap() []error {
	if e.Err != nil {
		return []error{e.Kind, e.Err}
	}
	return []error{e.Kind}
}

func newf(kind error, format string, args ...any) *Error {
	return &Error{Kind: kind, Reason: fmt.Sprintf(format, args...)}
}

// NotFound builds an ErrNotFound error.
func NotFound(format string, args ...any) *Error { return newf(ErrNotFound, format, args...) }

// Conflict builds an ErrConflict error.
func Conflict(format string, args ...any) *Error { return newf(ErrConflict, format, args...) }

// Validation builds an ErrValidation error.
func Validation(format string, args ...any) *Error { return newf(ErrValidation, format, args...) }

// Forbidden builds an ErrForbidden error.
func Forbidden(format string, args ...any) *Error { return newf(ErrForbidden, format, args...) }

// Inconsistency builds an ErrInconsistency error wrapping cause.
func Inconsistency(cause error, format string, args ...any) *Error {
	e := newf(ErrInconsistency, format, args...)
	e.Err = cause
	return e
}

// Reason returns the human-readable reason of err, or err.Error() when err
// is not an *Error.
func Reason(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Reason
	}
	return err.Error()
}

// IsNotFound reports whether err is a NotFound error.
func IsNotFound(err error) bool { return errors.Is(err, ErrNotFound) }

// IsConflict reports whether err is a Conflict error.
func IsConflict(err error) bool { return errors.Is(err, ErrConflict) }

// IsClientError reports whether err was caused by the caller's input or the
// current state rather than by the service itself.
func IsClientError(err error) bool {
	return errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrConflict) ||
		errors.Is(err, ErrValidation) ||
		errors.Is(err, ErrForbidden)
}
