package schema

import (
	"strings"
)

// quoteName quotes a field name for rendering inside a type string when it
// is not a plain identifier. Embedded double quotes are doubled.
func quoteName(name string) string {
	if isPlainIdent(name) {
		return name
	}
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

func isPlainIdent(name string) bool {
	if name == "" {
		return false
	}
	for i, r := range name {
		switch {
		case r == '_',
			r >= 'a' && r <= 'z',
			r >= 'A' && r <= 'Z':
		case r >= '0' && r <= '9':
			if i == 0 {
				return false
			}
		default:
			return false
		}
	}
	return true
}

// PathString renders a column path as a dotted string. Segments containing a
// dot or a backtick are wrapped in backticks so the rendering stays
// unambiguous.
func PathString(path []string) string {
	parts := make([]string, len(path))
	for i, seg := range path {
		if strings.ContainsAny(seg, ".`") {
			parts[i] = "`" + strings.ReplaceAll(seg, "`", "``") + "`"
		} else {
			parts[i] = seg
		}
	}
	return strings.Join(parts, ".")
}

// TreeString renders a schema as an indented tree, one field per line. Used
// in error details so a failed lookup or edit carries the schema it ran
// against.
func TreeString(st *StructType) string {
	var b strings.Builder
	b.WriteString("root\n")
	treeString(&b, st, 1)
	return b.String()
}

func treeString(b *strings.Builder, st *StructType, depth int) {
	for _, f := range st.Fields {
		writeTreeLine(b, depth, f.Name, f.Type, f.Nullable)
	}
}

func writeTreeLine(b *strings.Builder, depth int, name string, t DataType, nullable bool) {
	for i := 0; i < depth; i++ {
		b.WriteString(" |  ")
	}
	b.WriteString("-- ")
	b.WriteString(name)
	b.WriteString(": ")

	switch tt := t.(type) {
	case *StructType:
		b.WriteString("struct")
		writeNullable(b, nullable)
		treeString(b, tt, depth+1)
	case *ArrayType:
		b.WriteString("array")
		writeNullable(b, nullable)
		writeTreeLine(b, depth+1, "element", tt.Elem, tt.ContainsNull)
	case *MapType:
		b.WriteString("map")
		writeNullable(b, nullable)
		writeTreeLine(b, depth+1, "key", tt.Key, false)
		writeTreeLine(b, depth+1, "value", tt.Value, tt.ValueContainsNull)
	default:
		b.WriteString(tt.String())
		writeNullable(b, nullable)
	}
}

func writeNullable(b *strings.Builder, nullable bool) {
	if nullable {
		b.WriteString(" (nullable = true)\n")
	} else {
		b.WriteString(" (nullable = false)\n")
	}
}
