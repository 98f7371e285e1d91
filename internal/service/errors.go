package service

import (
	"errors"
	"sort"
	"strings"
)

var (
	// ErrNotFound covers unknown ids and slugs as well as inactive catalog items.
	ErrNotFound = errors.New("resource not found")
	// ErrForbidden is returned when the requesting user does not own the transaction.
	ErrForbidden = errors.New("forbidden")
	// ErrOrderIDCollision is returned when the generated order id is already taken.
	ErrOrderIDCollision = errors.New("order id already exists")
)

// ValidationError carries one message per offending input field.
type ValidationError struct {
	Fields map[string]string
}

func newValidationError(field, message string) *ValidationError {
	return &ValidationError{Fields: map[string]string{field: message}}
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func (e *ValidationError) add(field, message string) {
	if e.Fields == nil {
		e.Fields = map[string]string{}
	}
	if _, exists := e.Fields[field]; !exists {
		e.Fields[field] = message
	}
}

func (e *ValidationError) empty() bool {
	return e == nil || len(e.Fields) == 0
}
