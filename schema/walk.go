package schema

// PathField pairs a field with the path of the struct level that contains
// it. The field's own fully-qualified path is Path plus Field.Name.
type PathField struct {
	Path  []string
	Field Field
}

// WalkFields visits every field in the tree in pre-order: parent before
// child, fields in declared order. fn receives the containing level's path
// (the field's own path is path plus f.Name) and may return false to stop
// the walk. Array wrappers are transparent to paths; map interiors descend
// under the pseudo-segments "key" and "value".
//
// When descendContainers is false only struct nesting is traversed; array
// and map interiors are skipped.
func WalkFields(root *StructType, descendContainers bool, fn func(path []string, f Field) bool) {
	walkStruct(root, nil, descendContainers, fn)
}

func walkStruct(st *StructType, path []string, containers bool, fn func([]string, Field) bool) bool {
	for _, f := range st.Fields {
		if !fn(pathCopy(path), f) {
			return false
		}
		if !walkType(f.Type, append(path, f.Name), containers, fn) {
			return false
		}
	}
	return true
}

func walkType(t DataType, path []string, containers bool, fn func([]string, Field) bool) bool {
	switch tt := t.(type) {
	case *StructType:
		return walkStruct(tt, path, containers, fn)
	case *ArrayType:
		if containers {
			return walkType(tt.Elem, path, containers, fn)
		}
	case *MapType:
		if containers {
			if !walkType(tt.Key, append(path, "key"), containers, fn) {
				return false
			}
			return walkType(tt.Value, append(path, "value"), containers, fn)
		}
	}
	return true
}

func pathCopy(path []string) []string {
	if len(path) == 0 {
		return nil
	}
	c := make([]string, len(path))
	copy(c, path)
	return c
}

// FilterFields collects the (path, field) pairs of every field satisfying
// pred, in walk order. WalkFields is the lazy, early-stopping form.
func FilterFields(root *StructType, descendContainers bool, pred func(Field) bool) []PathField {
	var out []PathField
	WalkFields(root, descendContainers, func(path []string, f Field) bool {
		if pred(f) {
			out = append(out, PathField{Path: path, Field: f})
		}
		return true
	})
	return out
}

// TypeExists reports whether pred holds for t itself or for any type
// reachable through struct, array, or map descent. Stops at the first match.
func TypeExists(t DataType, pred func(DataType) bool) bool {
	if pred(t) {
		return true
	}
	switch tt := t.(type) {
	case *StructType:
		for _, f := range tt.Fields {
			if TypeExists(f.Type, pred) {
				return true
			}
		}
	case *ArrayType:
		return TypeExists(tt.Elem, pred)
	case *MapType:
		return TypeExists(tt.Key, pred) || TypeExists(tt.Value, pred)
	}
	return false
}

// FieldPaths returns the fully-qualified dotted path of every field in the
// tree, pre-order, including fields nested inside array and map interiors.
// Array wrappers contribute no segment; map interiors contribute "key" and
// "value" segments.
func FieldPaths(root *StructType) []string {
	var out []string
	WalkFields(root, true, func(path []string, f Field) bool {
		out = append(out, PathString(append(path, f.Name)))
		return true
	})
	return out
}
