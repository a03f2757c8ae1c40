package schema

import (
	"errors"
	"fmt"
)

// Position addresses a field by 0-based indices through successive struct
// levels. Array wrappers around a struct are transparent: an index steps
// from a struct through any array-of-struct wrapper straight into the
// nested struct.
type Position []int

func (p Position) String() string {
	s := "["
	for i, idx := range p {
		if i > 0 {
			s += ","
		}
		s += fmt.Sprintf("%d", idx)
	}
	return s + "]"
}

// FindColumnPosition resolves a dotted column path to a Position. It also
// returns the field count of the struct the path resolves to (0 for leaf
// columns); callers use it to pick an insertion index when appending inside
// that struct. A nil resolver means case-insensitive.
//
// Each path segment is matched against the current struct level with the
// resolver, first match wins. Descending through an array of structs is
// transparent; map interiors are not addressable by name here. Failures are
// re-described with the rendered schema before returning.
func FindColumnPosition(path []string, st *StructType, r Resolver) (Position, int, error) {
	if len(path) == 0 {
		return nil, 0, describeWithSchema(newError(ErrColumnNotFound, nil, "empty column path"), st)
	}
	if r == nil {
		r = CaseInsensitiveResolver
	}
	pos, size, err := findPosition(path, st, nil, r)
	if err != nil {
		return nil, 0, describeWithSchema(err, st)
	}
	return pos, size, nil
}

func findPosition(path []string, st *StructType, stack []string, r Resolver) (Position, int, error) {
	if len(path) == 0 {
		return nil, len(st.Fields), nil
	}
	head, rest := path[0], path[1:]

	idx := st.IndexOf(head, r)
	if idx < 0 {
		return nil, 0, newError(ErrColumnNotFound, append(pathCopy(stack), head), "")
	}
	f := st.Fields[idx]

	var (
		tail Position
		size int
		err  error
	)
	if inner := structBeneath(f.Type); inner != nil {
		tail, size, err = findPosition(rest, inner, append(stack, f.Name), r)
	} else if len(rest) == 0 {
		tail, size = nil, 0
	} else {
		err = newError(ErrNotNestable, append(pathCopy(stack), head),
			fmt.Sprintf("expected a nested data type, but found %s; was looking for %s in a nested field",
				f.Type, PathString(rest)))
	}
	if err != nil {
		return nil, 0, err
	}
	return append(Position{idx}, tail...), size, nil
}

// structBeneath returns the struct reached by unwrapping any array wrappers
// around t, or nil when none is there.
func structBeneath(t DataType) *StructType {
	for {
		switch tt := t.(type) {
		case *StructType:
			return tt
		case *ArrayType:
			t = tt.Elem
		default:
			return nil
		}
	}
}

// rewrapStruct rebuilds t with the struct beneath its array wrappers
// replaced by st. Callers check structBeneath first.
func rewrapStruct(t DataType, st *StructType) DataType {
	switch tt := t.(type) {
	case *ArrayType:
		return &ArrayType{Elem: rewrapStruct(tt.Elem, st), ContainsNull: tt.ContainsNull}
	default:
		return st
	}
}

// describeWithSchema appends a rendered schema snapshot to a schema error so
// the caller sees what the operation ran against.
func describeWithSchema(err error, st *StructType) error {
	var e *Error
	if !errors.As(err, &e) {
		return err
	}
	detail := e.Detail
	if detail != "" {
		detail += "\n"
	}
	return &Error{Kind: e.Kind, Path: e.Path, Detail: detail + "in schema:\n" + TreeString(st)}
}
