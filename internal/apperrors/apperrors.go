package apperrors

import (
	"errors"
	"fmt"
)

// Kind classifies application errors so the HTTP layer can map them to
// responses without string matching.
type Kind string

const (
	KindUnauthorized         Kind = "unauthorized"
	KindInvalidInput         Kind = "invalid_input"
	KindInferenceUnavailable Kind = "inference_unavailable"
	KindMalformedModelOutput Kind = "malformed_model_output"
	KindUserNotFound         Kind = "user_not_found"
	KindConflict             Kind = "conflict"
	KindPersistenceFailure   Kind = "persistence_failure"
	KindInternal             Kind = "internal"
)

// Error is an application error with a classification and an optional
// wrapped cause.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

// Error implements the error interface
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Unwrap returns the wrapped cause
func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches errors by kind
func (e *Error) Is(target error) bool {
	var t *Error
	if errors.As(target, &t) {
		return e.Kind == t.Kind
	}
	return false
}

// New creates a new classified error
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Newf creates a new classified error with a formatted message
func Newf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap wraps a cause into a classified error
func Wrap(err error, kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// KindOf returns the kind of err, or KindInternal for unclassified errors
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// Message returns the classified error's message without the wrapped
// cause, or the plain error text for unclassified errors.
func Message(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return err.Error()
}

// Detail returns the underlying cause text, or the message when no
// cause was recorded. Only exposed to clients outside production.
func Detail(err error) string {
	var e *Error
	if errors.As(err, &e) {
		if e.Err != nil {
			return e.Err.Error()
		}
		return e.Message
	}
	return err.Error()
}
