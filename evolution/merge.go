package evolution

import (
	"github.com/posthog/lakeschema/schema"
)

// MergeOptions tunes Merge. The zero value is the default behavior:
// case-insensitive name resolution with integer widening enabled.
type MergeOptions struct {
	// Resolver decides field-name identity; nil means case-insensitive.
	Resolver schema.Resolver

	// DisallowIntWidening turns off the Int8 < Int16 < Int32 widening
	// lattice, so any differing integer leaves conflict.
	DisallowIntWidening bool
}

// Merge widens `target` to absorb `incoming`, for write-path schema
// negotiation. Every field of `target` is retained in order, keeping its
// name spelling, nullability, metadata, and comment; same-named incoming
// fields have their types merged recursively; fields present only in
// `incoming` are appended after `target`'s in their original relative
// order.
//
// Identical leaves merge to themselves. Int8/Int16/Int32 merge to the wider
// kind in either argument order, and the Null marker absorbs into whatever
// the other side is. Decimals must match precision and scale exactly.
// Anything else fails with ErrMergeConflict; a nested failure is re-wrapped
// naming the offending field.
//
// `incoming` must be free of case-insensitive duplicate names; the
// DuplicateColumn error from package schema surfaces otherwise.
func Merge(target, incoming *schema.StructType) (*schema.StructType, error) {
	return MergeWithOptions(target, incoming, MergeOptions{})
}

// MergeWithOptions is Merge with explicit options.
func MergeWithOptions(target, incoming *schema.StructType, opts MergeOptions) (*schema.StructType, error) {
	if opts.Resolver == nil {
		opts.Resolver = schema.CaseInsensitiveResolver
	}
	if err := schema.CheckColumnNameDuplication(incoming, "in the incoming schema"); err != nil {
		observeMerge(false)
		return nil, err
	}
	merged, err := mergeStruct(target, incoming, opts)
	observeMerge(err == nil)
	if err != nil {
		return nil, err
	}
	return merged, nil
}

func mergeStruct(target, incoming *schema.StructType, opts MergeOptions) (*schema.StructType, error) {
	fields := make([]schema.Field, 0, len(target.Fields))
	used := make([]bool, len(incoming.Fields))

	for _, tf := range target.Fields {
		nf := tf.Clone()
		if idx := incoming.IndexOf(tf.Name, opts.Resolver); idx >= 0 {
			used[idx] = true
			mergedType, err := mergeType(tf.Type, incoming.Fields[idx].Type, opts)
			if err != nil {
				return nil, mergeError("failed to merge field %q: %v", tf.Name, err)
			}
			nf.Type = mergedType
		}
		fields = append(fields, nf)
	}

	for i, inf := range incoming.Fields {
		if !used[i] {
			fields = append(fields, inf.Clone())
		}
	}
	return &schema.StructType{Fields: fields}, nil
}

func mergeType(target, incoming schema.DataType, opts MergeOptions) (schema.DataType, error) {
	// The Null marker absorbs into the other side, in either position.
	if isNull(target) {
		return schema.CloneType(incoming), nil
	}
	if isNull(incoming) {
		return schema.CloneType(target), nil
	}

	switch tt := target.(type) {
	case *schema.StructType:
		it, ok := incoming.(*schema.StructType)
		if !ok {
			return nil, mergeError("cannot merge %s and %s", target, incoming)
		}
		return mergeStruct(tt, it, opts)

	case *schema.ArrayType:
		it, ok := incoming.(*schema.ArrayType)
		if !ok {
			return nil, mergeError("cannot merge %s and %s", target, incoming)
		}
		elem, err := mergeType(tt.Elem, it.Elem, opts)
		if err != nil {
			return nil, err
		}
		return &schema.ArrayType{Elem: elem, ContainsNull: tt.ContainsNull}, nil

	case *schema.MapType:
		it, ok := incoming.(*schema.MapType)
		if !ok {
			return nil, mergeError("cannot merge %s and %s", target, incoming)
		}
		key, err := mergeType(tt.Key, it.Key, opts)
		if err != nil {
			return nil, err
		}
		value, err := mergeType(tt.Value, it.Value, opts)
		if err != nil {
			return nil, err
		}
		return &schema.MapType{Key: key, Value: value, ValueContainsNull: tt.ValueContainsNull}, nil

	case schema.DecimalType:
		it, ok := incoming.(schema.DecimalType)
		if !ok {
			return nil, mergeError("cannot merge %s and %s", target, incoming)
		}
		switch {
		case tt.Precision != it.Precision && tt.Scale != it.Scale:
			return nil, mergeError("decimal precision %d and %d as well as scale %d and %d are incompatible",
				tt.Precision, it.Precision, tt.Scale, it.Scale)
		case tt.Precision != it.Precision:
			return nil, mergeError("decimal precision %d and %d are incompatible", tt.Precision, it.Precision)
		case tt.Scale != it.Scale:
			return nil, mergeError("decimal scale %d and %d are incompatible", tt.Scale, it.Scale)
		}
		return tt, nil

	case schema.PrimitiveType:
		it, ok := incoming.(schema.PrimitiveType)
		if !ok {
			return nil, mergeError("cannot merge %s and %s", target, incoming)
		}
		if tt.Kind == it.Kind {
			return tt, nil
		}
		if !opts.DisallowIntWidening {
			if wide, ok := widenInts(tt.Kind, it.Kind); ok {
				observeIntegerWidening()
				return schema.PrimitiveType{Kind: wide}, nil
			}
		}
		return nil, mergeError("cannot merge %s and %s", target, incoming)

	default:
		return nil, mergeError("cannot merge %s and %s", target, incoming)
	}
}

func isNull(t schema.DataType) bool {
	p, ok := t.(schema.PrimitiveType)
	return ok && p.Kind == schema.Null
}

// intRank orders the widening lattice Int8 < Int16 < Int32. Int64 is
// deliberately outside it: widening stops at 32 bits.
var intRank = map[schema.PrimitiveKind]int{
	schema.Int8:  1,
	schema.Int16: 2,
	schema.Int32: 3,
}

// widenInts merges two integer kinds upward along the lattice, commutative
// in its arguments.
func widenInts(a, b schema.PrimitiveKind) (schema.PrimitiveKind, bool) {
	ra, aOK := intRank[a]
	rb, bOK := intRank[b]
	if !aOK || !bOK {
		return 0, false
	}
	if ra >= rb {
		return a, true
	}
	return b, true
}
