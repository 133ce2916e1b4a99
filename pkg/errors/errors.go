package errors

import (
	goErrors "errors"
)

// New returns a new error with the given message.
func New(msg string) error {
	return goErrors.New(msg)
}

// ContextError annotates an error with a message describing the operation
// that failed. The original error is preserved so that callers can
// inspect the root cause.
type ContextError struct {
	Context string
	Err     error
}

func (err ContextError) Error() string {
	return err.Context + ": " + err.Err.Error()
}

// WithContext wraps err with a message describing the failed operation.
// A nil error is passed through unchanged.
func WithContext(err error, context string) error {
	if err == nil {
		return nil
	}
	return ContextError{Context: context, Err: err}
}

// RootCause unwraps any context annotations and returns the underlying
// error.
func RootCause(err error) error {
	for {
		ctxErr, ok := err.(ContextError)
		if !ok {
			return err
		}
		err = ctxErr.Err
	}
}
