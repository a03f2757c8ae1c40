package evolution

import (
	"github.com/posthog/lakeschema/schema"
)

// CanChangeType checks whether a column's type may change from `from` to
// `to` and returns nil when the change is allowed. The walk is lock-step and
// strict: nullability may only loosen (non-nullable to nullable), no field
// of `from` may be dropped, fields new in `to` must be nullable, and leaf
// types must match exactly. No widening happens here; widening belongs to
// Merge.
//
// The first violation found in pre-order wins and is returned wrapped as
// ErrTypeChangeNotAllowed with the fully-qualified path of the offending
// field. A nil resolver means case-insensitive.
func CanChangeType(from, to schema.DataType, r schema.Resolver) error {
	if r == nil {
		r = schema.CaseInsensitiveResolver
	}
	err := canChangeType(from, to, nil, r)
	if err != nil {
		observeRejectedTypeChange()
	}
	return err
}

func canChangeType(from, to schema.DataType, path []string, r schema.Resolver) error {
	switch f := from.(type) {
	case *schema.ArrayType:
		t, ok := to.(*schema.ArrayType)
		if !ok {
			return typeChangeError(path, "cannot change %s to %s", from, to)
		}
		if f.ContainsNull && !t.ContainsNull {
			return typeChangeError(path, "array elements cannot be tightened from nullable to non-nullable")
		}
		return canChangeType(f.Elem, t.Elem, path, r)

	case *schema.MapType:
		t, ok := to.(*schema.MapType)
		if !ok {
			return typeChangeError(path, "cannot change %s to %s", from, to)
		}
		if f.ValueContainsNull && !t.ValueContainsNull {
			return typeChangeError(path, "map values cannot be tightened from nullable to non-nullable")
		}
		if err := canChangeType(f.Key, t.Key, append(path, "key"), r); err != nil {
			return err
		}
		return canChangeType(f.Value, t.Value, append(path, "value"), r)

	case *schema.StructType:
		t, ok := to.(*schema.StructType)
		if !ok {
			return typeChangeError(path, "cannot change %s to %s", from, to)
		}
		return canChangeStruct(f, t, path, r)

	default:
		// Leaves: exact equality only.
		if !schema.TypeEqual(from, to) {
			return typeChangeError(path, "cannot change %s to %s", from, to)
		}
		return nil
	}
}

func canChangeStruct(from, to *schema.StructType, path []string, r schema.Resolver) error {
	matched := make([]bool, len(from.Fields))

	for _, tf := range to.Fields {
		idx := from.IndexOf(tf.Name, r)
		if idx < 0 {
			// New field: must be nullable, nothing to compare against.
			if !tf.Nullable {
				return typeChangeError(append(path, tf.Name), "new field must be nullable")
			}
			continue
		}
		matched[idx] = true
		ff := from.Fields[idx]
		if ff.Nullable && !tf.Nullable {
			return typeChangeError(append(path, tf.Name), "field cannot be tightened from nullable to non-nullable")
		}
		if err := canChangeType(ff.Type, tf.Type, append(path, tf.Name), r); err != nil {
			return err
		}
	}

	// Every field of `from` must survive; dropping is forbidden.
	for i, ok := range matched {
		if !ok {
			return typeChangeError(append(path, from.Fields[i].Name), "field cannot be dropped")
		}
	}
	return nil
}

// ChangeType applies a validated type change: the result adopts `to`'s
// shape. For struct fields present on both sides the comment is `to`'s when
// set, else `from`'s is carried over; fields present only in `to` are taken
// as-is. Call only after CanChangeType returned nil. A nil resolver means
// case-insensitive.
func ChangeType(from, to schema.DataType, r schema.Resolver) schema.DataType {
	if r == nil {
		r = schema.CaseInsensitiveResolver
	}
	return changeType(from, to, r)
}

func changeType(from, to schema.DataType, r schema.Resolver) schema.DataType {
	switch f := from.(type) {
	case *schema.ArrayType:
		t, ok := to.(*schema.ArrayType)
		if !ok {
			return schema.CloneType(to)
		}
		return &schema.ArrayType{Elem: changeType(f.Elem, t.Elem, r), ContainsNull: t.ContainsNull}

	case *schema.MapType:
		t, ok := to.(*schema.MapType)
		if !ok {
			return schema.CloneType(to)
		}
		return &schema.MapType{
			Key:               changeType(f.Key, t.Key, r),
			Value:             changeType(f.Value, t.Value, r),
			ValueContainsNull: t.ValueContainsNull,
		}

	case *schema.StructType:
		t, ok := to.(*schema.StructType)
		if !ok {
			return schema.CloneType(to)
		}
		fields := make([]schema.Field, len(t.Fields))
		for i, tf := range t.Fields {
			nf := tf.Clone()
			if idx := f.IndexOf(tf.Name, r); idx >= 0 {
				ff := f.Fields[idx]
				nf.Type = changeType(ff.Type, tf.Type, r)
				if nf.Comment == "" {
					nf.Comment = ff.Comment
				}
			}
			fields[i] = nf
		}
		return &schema.StructType{Fields: fields}

	default:
		return schema.CloneType(to)
	}
}
