package evolution

import (
	"strings"

	"github.com/posthog/lakeschema/schema"
)

// TransformFunc rewrites one field. parentPath is the path of the struct
// level containing f; the field's own path is parentPath plus its name. The
// returned field replaces f, so renames and retypes take effect in the
// output tree.
type TransformFunc func(parentPath []string, f schema.Field) schema.Field

// TransformColumns rewrites every field of the schema, pre-order and
// top-down, and returns the new tree. Renaming a field re-routes the path
// its children are visited under. Struct fields inside arrays and map
// values are rewritten too; map interiors contribute the "key" and "value"
// path segments. A nil resolver means case-insensitive (the resolver is
// unused by this overload itself but is forwarded in the keyed variant).
func TransformColumns(st *schema.StructType, r schema.Resolver, fn TransformFunc) *schema.StructType {
	return transformStruct(st, nil, fn)
}

func transformStruct(st *schema.StructType, path []string, fn TransformFunc) *schema.StructType {
	fields := make([]schema.Field, len(st.Fields))
	for i, f := range st.Fields {
		nf := fn(copyPath(path), f)
		nf.Type = transformType(nf.Type, append(path, nf.Name), fn)
		fields[i] = nf
	}
	return &schema.StructType{Fields: fields}
}

func transformType(t schema.DataType, path []string, fn TransformFunc) schema.DataType {
	switch tt := t.(type) {
	case *schema.StructType:
		return transformStruct(tt, path, fn)
	case *schema.ArrayType:
		return &schema.ArrayType{
			Elem:         transformType(tt.Elem, path, fn),
			ContainsNull: tt.ContainsNull,
		}
	case *schema.MapType:
		return &schema.MapType{
			Key:               transformType(tt.Key, append(path, "key"), fn),
			Value:             transformType(tt.Value, append(path, "value"), fn),
			ValueContainsNull: tt.ValueContainsNull,
		}
	default:
		return tt
	}
}

func copyPath(path []string) []string {
	if len(path) == 0 {
		return nil
	}
	c := make([]string, len(path))
	copy(c, path)
	return c
}

// PathEntry attaches a payload to a fully-qualified column path; a side
// list of entries drives TransformColumnsKeyed.
type PathEntry struct {
	Path    []string
	Payload any
}

// KeyedTransformFunc rewrites one matched field. matched holds every entry
// whose path identified this field, in the order the entries were given.
type KeyedTransformFunc func(parentPath []string, f schema.Field, matched []PathEntry) schema.Field

// TransformColumnsKeyed rewrites only the fields named by the entries.
// Candidate entries are found by a lower-cased path lookup and then
// re-verified segment by segment with the resolver, so a bucket collision
// the resolver would reject never reaches fn. Unmatched fields pass through
// unchanged. A nil resolver means case-insensitive.
func TransformColumnsKeyed(st *schema.StructType, r schema.Resolver, entries []PathEntry, fn KeyedTransformFunc) *schema.StructType {
	if r == nil {
		r = schema.CaseInsensitiveResolver
	}
	buckets := make(map[string][]PathEntry, len(entries))
	for _, e := range entries {
		key := strings.ToLower(schema.PathString(e.Path))
		buckets[key] = append(buckets[key], e)
	}

	return TransformColumns(st, r, func(parentPath []string, f schema.Field) schema.Field {
		full := append(copyPath(parentPath), f.Name)
		candidates := buckets[strings.ToLower(schema.PathString(full))]
		var matched []PathEntry
		for _, e := range candidates {
			if pathsEqual(e.Path, full, r) {
				matched = append(matched, e)
			}
		}
		if len(matched) == 0 {
			return f
		}
		return fn(parentPath, f, matched)
	})
}

func pathsEqual(a, b []string, r schema.Resolver) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !r(a[i], b[i]) {
			return false
		}
	}
	return true
}

// Alias is a rename the tabular projection engine must perform: the column
// spelled From in the data being read must surface as To.
type Alias struct {
	From string
	To   string
}

// RequiredAliases computes the renames needed to project data written under
// `candidate` for a reader expecting `existing`: every field whose name
// resolves as the same column but is spelled differently yields an alias
// from the candidate spelling to the existing one, fully qualified. The
// core only computes the aliases; the projection engine applies them. A nil
// resolver means case-insensitive.
func RequiredAliases(existing, candidate *schema.StructType, r schema.Resolver) []Alias {
	if r == nil {
		r = schema.CaseInsensitiveResolver
	}
	var out []Alias
	collectAliases(existing, candidate, nil, nil, r, &out)
	return out
}

func collectAliases(existing, candidate *schema.StructType, ePath, cPath []string, r schema.Resolver, out *[]Alias) {
	for _, ef := range existing.Fields {
		idx := candidate.IndexOf(ef.Name, r)
		if idx < 0 {
			continue
		}
		cf := candidate.Fields[idx]
		eFull := append(copyPath(ePath), ef.Name)
		cFull := append(copyPath(cPath), cf.Name)
		if cf.Name != ef.Name {
			*out = append(*out, Alias{From: schema.PathString(cFull), To: schema.PathString(eFull)})
		}
		es := structBeneath(ef.Type)
		cs := structBeneath(cf.Type)
		if es != nil && cs != nil {
			collectAliases(es, cs, eFull, cFull, r, out)
		}
	}
}

// structBeneath unwraps array wrappers down to a struct, mirroring the
// locator's transparency rule for arrays of structs.
func structBeneath(t schema.DataType) *schema.StructType {
	for {
		switch tt := t.(type) {
		case *schema.StructType:
			return tt
		case *schema.ArrayType:
			t = tt.Elem
		default:
			return nil
		}
	}
}
