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

// ErrPermissionDenied is returned when a user attempts to read or mutate
// a row they do not own.
var ErrPermissionDenied = errors.New("permission denied")

// StoreError wraps a driver-level persistence failure so callers can tell
// an unreachable store from a rejected write. Services do not retry; the
// retry policy, if any, belongs to the caller.
type StoreError struct {
	Op  string
	Err error
}

func NewStoreError(op string, err error) error {
	return &StoreError{Op: op, Err: err}
}

func (e StoreError) Error() string {
	return e.Op + ": " + e.Err.Error()
}

func (e StoreError) Unwrap() error { return e.Err }

func IsStoreUnavailable(err error) bool {
	var serr *StoreError
	return errors.As(err, &serr)
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
