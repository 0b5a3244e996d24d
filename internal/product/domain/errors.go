package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrProductNotFound is returned when a referenced product does not exist
	ErrProductNotFound = errors.New("product not found")

	// ErrDuplicateFavorite is returned when a concurrent toggle created the
	// favorite first; callers retry the read-then-decide once
	ErrDuplicateFavorite = errors.New("favorite already exists")
)

// FieldError describes a single failing field in a request payload
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError carries field-level messages for a malformed payload
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, fmt.Sprintf("%s: %s", f.Field, f.Message))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Add appends a field error and returns the receiver for chaining
func (e *ValidationError) Add(field, message string) *ValidationError {
	e.Fields = append(e.Fields, FieldError{Field: field, Message: message})
	return e
}

// HasErrors reports whether any field failed validation
func (e *ValidationError) HasErrors() bool {
	return len(e.Fields) > 0
}
