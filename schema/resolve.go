package schema

import (
	"sort"
	"strings"
)

// Resolver decides whether two name strings identify the same column. Every
// function in this module that matches field names takes one explicitly, so
// callers embedding the engine under a different analyzer can supply their
// own.
type Resolver func(a, b string) bool

// CaseInsensitiveResolver is the default resolver. Table formats in this
// family treat column names as case-preserving but case-insensitive.
func CaseInsensitiveResolver(a, b string) bool { return strings.EqualFold(a, b) }

// CaseSensitiveResolver matches names byte for byte.
func CaseSensitiveResolver(a, b string) bool { return a == b }

// CheckColumnNameDuplication fails with ErrDuplicateColumn when any two
// fully-qualified column paths in the schema collide after lower-casing.
// Collisions at any nesting depth count; two sibling fields differing only
// by case are a format violation even if no lookup ever hits them. The
// context string says where the schema came from, e.g. "in the data to
// save".
func CheckColumnNameDuplication(st *StructType, context string) error {
	seen := make(map[string]int)
	for _, p := range FieldPaths(st) {
		seen[strings.ToLower(p)]++
	}

	var dups []string
	for name, n := range seen {
		if n > 1 {
			dups = append(dups, name)
		}
	}
	if len(dups) == 0 {
		return nil
	}
	sort.Strings(dups)
	return newError(ErrDuplicateColumn, nil,
		"found duplicate column(s) "+context+": "+strings.Join(dups, ", "))
}
