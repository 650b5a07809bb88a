package store

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned when a record does not exist or is not owned by
// the requesting user. The two cases are deliberately indistinguishable.
var ErrNotFound = errors.New("not found")

// ErrEmailTaken is returned by CreateUser for a duplicate email.
var ErrEmailTaken = errors.New("email already registered")

// ValidationError reports malformed or out-of-range input. Msg is safe to
// show to the caller.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string {
	return e.Msg
}

func invalid(format string, args ...any) error {
	return &ValidationError{Msg: fmt.Sprintf(format, args...)}
}

// IsValidation reports whether err is a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
