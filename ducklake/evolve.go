package ducklake

import (
	"fmt"
	"strings"

	"github.com/posthog/lakeschema/evolution"
	"github.com/posthog/lakeschema/schema"
)

// QuoteIdent quotes a SQL identifier to prevent injection.
func QuoteIdent(ident string) string {
	escaped := strings.ReplaceAll(ident, `"`, `""`)
	return `"` + escaped + `"`
}

// QualifyTableName renders catalog.schema.table with each part quoted.
func QualifyTableName(catalog, schemaName, table string) string {
	parts := make([]string, 0, 3)
	if catalog != "" {
		parts = append(parts, QuoteIdent(catalog))
	}
	if schemaName != "" {
		parts = append(parts, QuoteIdent(schemaName))
	}
	parts = append(parts, QuoteIdent(table))
	return strings.Join(parts, ".")
}

// EvolutionStatements renders the ALTER TABLE statements that take a
// physical table from `current` to `merged`, where `merged` was produced by
// merging an incoming schema into `current`: added columns (nested paths
// dotted) and integer widenings. ADD COLUMN carries IF NOT EXISTS so a
// replayed statement stays idempotent. The statements are returned in
// application order and never executed here.
//
// Anything a merge cannot produce (drops, renames, reorders) is out of
// scope and reports an error when detected.
func EvolutionStatements(qualifiedTable string, current, merged *schema.StructType) ([]string, error) {
	if err := schema.CheckColumnNameDuplication(merged, "in the merged schema"); err != nil {
		return nil, err
	}

	var stmts []string
	if err := diffStructs(qualifiedTable, current, merged, nil, &stmts); err != nil {
		return nil, err
	}
	return stmts, nil
}

func diffStructs(table string, current, merged *schema.StructType, path []string, stmts *[]string) error {
	for _, mf := range merged.Fields {
		idx := current.IndexOf(mf.Name, schema.CaseInsensitiveResolver)
		full := append(append([]string(nil), path...), mf.Name)
		if idx < 0 {
			*stmts = append(*stmts, fmt.Sprintf("ALTER TABLE %s ADD COLUMN IF NOT EXISTS %s %s",
				table, quotedPath(full), mf.Type))
			continue
		}
		cf := current.Fields[idx]
		if schema.TypeEqual(cf.Type, mf.Type) {
			continue
		}
		cs, cIsStruct := structBeneath(cf.Type)
		ms, mIsStruct := structBeneath(mf.Type)
		if cIsStruct && mIsStruct {
			if err := diffStructs(table, cs, ms, full, stmts); err != nil {
				return err
			}
			continue
		}
		if isWidening(cf.Type, mf.Type) {
			*stmts = append(*stmts, fmt.Sprintf("ALTER TABLE %s ALTER COLUMN %s SET DATA TYPE %s",
				table, quotedPath(full), mf.Type))
			continue
		}
		return fmt.Errorf("column %s changed from %s to %s, which evolution statements cannot express",
			schema.PathString(full), cf.Type, mf.Type)
	}
	return nil
}

// isWidening reports whether going from `from` to `to` is a sanctioned
// integer widening, i.e. their merge is exactly `to` and not `from`.
func isWidening(from, to schema.DataType) bool {
	target := schema.StructOf(schema.Field{Name: "c", Type: from, Nullable: true})
	incoming := schema.StructOf(schema.Field{Name: "c", Type: to, Nullable: true})
	merged, err := evolution.Merge(target, incoming)
	if err != nil {
		return false
	}
	return schema.TypeEqual(merged.Fields[0].Type, to) && !schema.TypeEqual(from, to)
}

func structBeneath(t schema.DataType) (*schema.StructType, bool) {
	for {
		switch tt := t.(type) {
		case *schema.StructType:
			return tt, true
		case *schema.ArrayType:
			t = tt.Elem
		default:
			return nil, false
		}
	}
}

func quotedPath(path []string) string {
	parts := make([]string, len(path))
	for i, seg := range path {
		parts[i] = QuoteIdent(seg)
	}
	return strings.Join(parts, ".")
}
