package content

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	// ErrNotFound covers both genuinely absent items and items the viewer is
	// not allowed to know exist.
	ErrNotFound = errors.New("content not found")
	// ErrUnauthorized is a policy denial on a mutating action, distinct from
	// ErrNotFound because the caller is known, just not permitted.
	ErrUnauthorized = errors.New("not authorized")
	// ErrSlugTaken is returned by the repository when a slug collides with
	// the storage-layer unique constraint.
	ErrSlugTaken = errors.New("slug already taken")
	// ErrConflictRetryExhausted means the slug-uniqueness race did not
	// resolve within the bounded retry; the caller may retry the whole
	// operation.
	ErrConflictRetryExhausted = errors.New("slug conflict retry exhausted")
)

// ValidationError carries structured per-field messages back to the caller.
type ValidationError struct {
	Fields map[string][]string
}

func (e *ValidationError) Error() string {
	if e == nil || len(e.Fields) == 0 {
		return "validation failed"
	}
	names := make([]string, 0, len(e.Fields))
	for field := range e.Fields {
		names = append(names, field)
	}
	sort.Strings(names)
	parts := make([]string, 0, len(names))
	for _, field := range names {
		parts = append(parts, fmt.Sprintf("%s: %s", field, strings.Join(e.Fields[field], "; ")))
	}
	return "validation failed: " + strings.Join(parts, ", ")
}

func newValidationError(fields map[string][]string) *ValidationError {
	return &ValidationError{Fields: fields}
}
