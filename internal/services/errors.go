package services

import (
	"errors"
	"fmt"
)

var (
	ErrValidation        = errors.New("validation failed")
	ErrNotFound          = errors.New("not found")
	ErrSlugTaken         = errors.New("slug already in use")
	ErrProtectedCategory = errors.New("the uncategorized category cannot be deleted or have its slug changed")
	ErrInvalidLogin      = errors.New("invalid username or password")
)

// ValidationError describes one rejected input field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

func invalid(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}
