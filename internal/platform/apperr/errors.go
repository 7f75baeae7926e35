// Package apperr holds the error taxonomy shared by the domain packages and
// its mapping onto HTTP responses.
package apperr

import (
	"errors"
	"fmt"
)

var (
	ErrDuplicateIdentity  = errors.New("an account with this email or phone already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUnauthenticated    = errors.New("authentication required")
	ErrForbidden          = errors.New("forbidden")
	ErrNotFound           = errors.New("not found")
)

// ValidationError reports malformed or missing input for a single field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Invalid builds a ValidationError for field.
func Invalid(field, format string, args ...any) error {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// IsValidation reports whether err wraps a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// NotFound wraps ErrNotFound with the missing entity described.
func NotFound(what string) error {
	return fmt.Errorf("%s: %w", what, ErrNotFound)
}
