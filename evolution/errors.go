// Package evolution decides how table schemas may change over time: strict
// type-change validation, read compatibility across schema versions, and the
// type-widening merge used by the write path to absorb incoming data whose
// schema extends the table's. It also carries the path-driven rewriter used
// to apply many localized column edits in one pass.
//
// Like package schema, every function here is pure: schemas in, a new schema
// or a decision out, inputs never mutated.
package evolution

import (
	"errors"
	"fmt"

	"github.com/posthog/lakeschema/schema"
)

// Sentinel kinds for evolution failures, wrap-aware like the ones in package
// schema.
var (
	// ErrTypeChangeNotAllowed reports a violation found by CanChangeType: a
	// dropped field, an added non-nullable field, a changed leaf type, or
	// tightened nullability.
	ErrTypeChangeNotAllowed = errors.New("type change not allowed")

	// ErrMergeConflict reports irreconcilable types during Merge: mismatched
	// leaves outside the widening lattice, decimal precision/scale
	// mismatches, or a nested merge failure re-wrapped with the offending
	// field's name.
	ErrMergeConflict = errors.New("schema merge conflict")
)

func typeChangeError(path []string, format string, args ...any) error {
	msg := fmt.Sprintf(format, args...)
	if len(path) > 0 {
		return fmt.Errorf("%w: %s: %s", ErrTypeChangeNotAllowed, schema.PathString(path), msg)
	}
	return fmt.Errorf("%w: %s", ErrTypeChangeNotAllowed, msg)
}

func mergeError(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrMergeConflict, fmt.Sprintf(format, args...))
}
