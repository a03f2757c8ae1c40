package schema

import (
	"fmt"
)

// AddColumn inserts col at the struct level designated by pos and returns
// the new schema. All indices but the last route through consecutive struct
// levels (array-of-struct wrappers are transparent); the last index is the
// insertion offset within the final struct, where an offset equal to the
// struct's length appends.
//
// Fails with ErrInvalidPosition when an index is negative, exceeds its
// struct's length, or a non-terminal index names a non-struct node, and
// with ErrNullabilityViolation when a non-nullable col would land beneath a
// nullable ancestor field: a null container cannot guarantee a non-null
// leaf. The input schema is never modified.
func AddColumn(st *StructType, col Field, pos Position) (*StructType, error) {
	if len(pos) == 0 {
		return nil, describeWithSchema(newError(ErrInvalidPosition, nil,
			"empty position to add column "+quoteName(col.Name)), st)
	}
	out, err := addColumn(st, col, pos)
	if err != nil {
		return nil, describeWithSchema(err, st)
	}
	return out, nil
}

func addColumn(st *StructType, col Field, pos Position) (*StructType, error) {
	idx := pos[0]
	n := len(st.Fields)
	if idx < 0 {
		return nil, newError(ErrInvalidPosition, nil,
			fmt.Sprintf("index %d to add column %s is lower than 0", idx, quoteName(col.Name)))
	}
	if idx > n {
		return nil, newError(ErrInvalidPosition, nil,
			fmt.Sprintf("index %d to add column %s is larger than struct length %d", idx, quoteName(col.Name), n))
	}

	if len(pos) > 1 {
		if idx == n {
			return nil, newError(ErrInvalidPosition, nil,
				fmt.Sprintf("no struct at position %d to descend into", idx))
		}
		host := st.Fields[idx]
		inner := structBeneath(host.Type)
		if inner == nil {
			return nil, newError(ErrInvalidPosition, nil,
				fmt.Sprintf("cannot add column %s: parent at position %d is %s, not a struct",
					quoteName(col.Name), idx, host.Type))
		}
		if !col.Nullable && host.Nullable {
			return nil, newError(ErrNullabilityViolation, nil,
				fmt.Sprintf("cannot add non-nullable column %s beneath nullable column %s",
					quoteName(col.Name), quoteName(host.Name)))
		}
		newInner, err := addColumn(inner, col, pos[1:])
		if err != nil {
			return nil, err
		}
		fields := append([]Field(nil), st.Fields...)
		fields[idx].Type = rewrapStruct(host.Type, newInner)
		return &StructType{Fields: fields}, nil
	}

	fields := make([]Field, 0, n+1)
	fields = append(fields, st.Fields[:idx]...)
	fields = append(fields, col)
	fields = append(fields, st.Fields[idx:]...)
	return &StructType{Fields: fields}, nil
}

// DropColumn removes the field at pos and returns the new schema together
// with the removed field. Position rules mirror AddColumn, except the
// terminal index must name an existing field (strictly less than the
// struct's length). The input schema is never modified.
func DropColumn(st *StructType, pos Position) (*StructType, Field, error) {
	if len(pos) == 0 {
		return nil, Field{}, describeWithSchema(newError(ErrInvalidPosition, nil,
			"empty position to drop a column"), st)
	}
	out, dropped, err := dropColumn(st, pos)
	if err != nil {
		return nil, Field{}, describeWithSchema(err, st)
	}
	return out, dropped, nil
}

func dropColumn(st *StructType, pos Position) (*StructType, Field, error) {
	idx := pos[0]
	n := len(st.Fields)
	if idx < 0 {
		return nil, Field{}, newError(ErrInvalidPosition, nil,
			fmt.Sprintf("index %d to drop a column is lower than 0", idx))
	}
	if idx >= n {
		return nil, Field{}, newError(ErrInvalidPosition, nil,
			fmt.Sprintf("index %d to drop a column is equal to or larger than struct length %d", idx, n))
	}

	if len(pos) > 1 {
		host := st.Fields[idx]
		inner := structBeneath(host.Type)
		if inner == nil {
			return nil, Field{}, newError(ErrInvalidPosition, nil,
				fmt.Sprintf("cannot drop column at %s: parent at position %d is %s, not a struct",
					Position(pos), idx, host.Type))
		}
		newInner, dropped, err := dropColumn(inner, pos[1:])
		if err != nil {
			return nil, Field{}, err
		}
		fields := append([]Field(nil), st.Fields...)
		fields[idx].Type = rewrapStruct(host.Type, newInner)
		return &StructType{Fields: fields}, dropped, nil
	}

	dropped := st.Fields[idx]
	fields := make([]Field, 0, n-1)
	fields = append(fields, st.Fields[:idx]...)
	fields = append(fields, st.Fields[idx+1:]...)
	return &StructType{Fields: fields}, dropped, nil
}
