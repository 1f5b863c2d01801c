package core

import "github.com/pkg/errors"

// FieldError reports a problem with a single input field, keyed by its
// JSON name.
type FieldError struct {
	Field string
	Error string
}

// ValidationError is returned when user input is rejected before any write
// happens. Fields carries per-field messages when they exist.
type ValidationError struct {
	Err    error
	Fields []FieldError
}

func NewValidationError(err error, flds ...FieldError) error {
	return &ValidationError{Err: err, Fields: flds}
}

func (err ValidationError) Error() string {
	if err.Err == nil {
		return ""
	}
	return err.Err.Error()
}

// shutdown signals that the app is unhealthy and should be restarted.
type shutdown struct {
	message string
}

func NewShutdownError(msg string) error {
	return &shutdown{message: msg}
}

func (s shutdown) Error() string {
	return s.message
}

// IsShutdown checks whether a shutdown error is contained in the chain.
func IsShutdown(err error) bool {
	_, ok := errors.Cause(err).(*shutdown)
	return ok
}
