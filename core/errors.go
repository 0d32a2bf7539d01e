package core

import "github.com/pkg/errors"

// FieldError is used to indicate an error with a specific struct field.
type FieldError struct {
	Field string
	Error string
}

type ValidationError struct {
	Err    error
	Fields []FieldError
}

func NewValidationError(err error, flds ...FieldError) error {
	return &ValidationError{err, flds}
}

func (err ValidationError) Error() string {
	if err.Err == nil {
		return ""
	}
	return err.Err.Error()
}

// ConflictError indicates a state-invariant violation: duplicate assignment,
// already-completed activity, duplicate achievement grant, rejected answer...
// Reassignable is set when the conflicting row is a soft-unassigned pair that
// the caller may reactivate via the reassign operation instead.
type ConflictError struct {
	Err          error
	Reassignable bool
}

func NewConflictError(err error) error {
	return &ConflictError{Err: err}
}

func NewReassignableConflictError(err error) error {
	return &ConflictError{Err: err, Reassignable: true}
}

func (err ConflictError) Error() string {
	if err.Err == nil {
		return ""
	}
	return err.Err.Error()
}

type shutdown struct {
	message string
}

func NewShutdownError(msg string) error {
	return &shutdown{message: msg}
}

func (s shutdown) Error() string {
	return s.message
}

func IsShutdown(err error) bool {
	_, ok := errors.Cause(err).(*shutdown)
	return ok
}
