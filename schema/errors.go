package schema

import (
	"errors"
	"strings"
)

// Sentinel kinds for schema operation failures. Wrap-aware: test with
// errors.Is.
var (
	// ErrColumnNotFound reports a path segment that resolved to no field at
	// some struct level.
	ErrColumnNotFound = errors.New("column not found")

	// ErrNotNestable reports a path with remaining segments that resolved to
	// a node that is neither a struct nor an array of structs.
	ErrNotNestable = errors.New("column is not nestable")

	// ErrInvalidPosition reports a positional index that is negative, out of
	// bounds, or names a non-struct while index segments remain.
	ErrInvalidPosition = errors.New("invalid column position")

	// ErrNullabilityViolation reports a non-nullable field placed beneath a
	// nullable ancestor.
	ErrNullabilityViolation = errors.New("nullability violation")

	// ErrDuplicateColumn reports two field names that collide
	// case-insensitively within the same scope.
	ErrDuplicateColumn = errors.New("duplicate column name")
)

// Error is a schema operation failure: a sentinel kind, the fully-qualified
// column path when one is known, and a human-readable detail that may carry
// a rendered schema snapshot for diagnosis.
type Error struct {
	Kind   error
	Path   []string
	Detail string
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(e.Kind.Error())
	if len(e.Path) > 0 {
		b.WriteString(": ")
		b.WriteString(PathString(e.Path))
	}
	if e.Detail != "" {
		b.WriteString(": ")
		b.WriteString(e.Detail)
	}
	return b.String()
}

func (e *Error) Unwrap() error { return e.Kind }

func newError(kind error, path []string, detail string) *Error {
	var p []string
	if len(path) > 0 {
		p = append(p, path...)
	}
	return &Error{Kind: kind, Path: p, Detail: detail}
}
