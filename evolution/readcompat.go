package evolution

import (
	"github.com/posthog/lakeschema/schema"
)

// IsReadCompatible reports whether readers written against `existing` can
// still be satisfied by `candidate`: every field of `existing`, nested
// included, must exist in `candidate` with nullability that has not
// tightened and a type that matches exactly, except that structs and
// arrays of structs recurse with the same rule, so structural widening is
// allowed only through added nullable fields at deeper levels. Fields
// appearing only in `candidate` are permitted; they are simply not
// projected.
//
// Names compare case-insensitively. A schema carrying two field names equal
// only by case is already malformed and reports false.
func IsReadCompatible(existing, candidate *schema.StructType) bool {
	if schema.CheckColumnNameDuplication(existing, "in the existing schema") != nil {
		return false
	}
	if schema.CheckColumnNameDuplication(candidate, "in the candidate schema") != nil {
		return false
	}
	return readCompatibleStruct(existing, candidate)
}

func readCompatibleStruct(existing, candidate *schema.StructType) bool {
	for _, ef := range existing.Fields {
		idx := candidate.IndexOf(ef.Name, schema.CaseInsensitiveResolver)
		if idx < 0 {
			return false
		}
		cf := candidate.Fields[idx]
		if !ef.Nullable && cf.Nullable {
			return false
		}
		if !readCompatibleType(ef.Type, cf.Type) {
			return false
		}
	}
	return true
}

func readCompatibleType(existing, candidate schema.DataType) bool {
	switch et := existing.(type) {
	case *schema.StructType:
		ct, ok := candidate.(*schema.StructType)
		return ok && readCompatibleStruct(et, ct)
	case *schema.ArrayType:
		ct, ok := candidate.(*schema.ArrayType)
		if !ok {
			return false
		}
		if !et.ContainsNull && ct.ContainsNull {
			return false
		}
		es, eIsStruct := et.Elem.(*schema.StructType)
		cs, cIsStruct := ct.Elem.(*schema.StructType)
		if eIsStruct && cIsStruct {
			return readCompatibleStruct(es, cs)
		}
		return schema.TypeEqual(et.Elem, ct.Elem)
	default:
		return schema.TypeEqual(existing, candidate)
	}
}
