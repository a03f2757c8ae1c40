// Package ducklake adapts DuckLake catalog metadata to schema trees: it
// assembles a table's current schema from ducklake_column rows and renders
// the ALTER statements a collaborator must run to evolve the physical
// table. Nothing here executes evolution statements; callers own the
// transaction.
package ducklake

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/posthog/lakeschema/schema"
)

// columnRow is one live row of ducklake_column.
type columnRow struct {
	id           int64
	parent       sql.NullInt64
	order        int64
	name         string
	columnType   string
	nullsAllowed bool
}

// LoadTableSchema reads the live column metadata of a DuckLake table and
// assembles its schema tree. Leaf types are parsed from the column_type
// text; nested types arrive as parent/child rows ("struct", "list", "map"
// parents with element/key/value children) and are rebuilt recursively.
func LoadTableSchema(ctx context.Context, db *sql.DB, catalog, schemaName, table string) (*schema.StructType, error) {
	metadataDb := fmt.Sprintf("__ducklake_metadata_%s", catalog)
	query := fmt.Sprintf(`
		SELECT c.column_id, c.parent_column, c.column_order, c.column_name, c.column_type, c.nulls_allowed
		FROM %s.ducklake_column c
		JOIN %s.ducklake_table t ON t.table_id = c.table_id
		JOIN %s.ducklake_schema s ON s.schema_id = t.schema_id
		WHERE s.schema_name = ? AND t.table_name = ?
		  AND s.end_snapshot IS NULL
		  AND t.end_snapshot IS NULL
		  AND c.end_snapshot IS NULL
		ORDER BY c.column_order
	`, QuoteIdent(metadataDb), QuoteIdent(metadataDb), QuoteIdent(metadataDb))

	rows, err := db.QueryContext(ctx, query, schemaName, table)
	if err != nil {
		return nil, fmt.Errorf("failed to query ducklake_column: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var cols []columnRow
	for rows.Next() {
		var c columnRow
		if err := rows.Scan(&c.id, &c.parent, &c.order, &c.name, &c.columnType, &c.nullsAllowed); err != nil {
			return nil, fmt.Errorf("failed to scan ducklake_column row: %w", err)
		}
		cols = append(cols, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(cols) == 0 {
		return nil, fmt.Errorf("table %s.%s has no live columns in catalog %s", schemaName, table, catalog)
	}

	st, err := assembleTree(cols)
	if err != nil {
		return nil, fmt.Errorf("failed to assemble schema of %s.%s: %w", schemaName, table, err)
	}
	slog.Debug("Loaded table schema from DuckLake catalog.",
		"catalog", catalog, "schema", schemaName, "table", table, "columns", len(cols))
	return st, nil
}

func assembleTree(cols []columnRow) (*schema.StructType, error) {
	children := make(map[int64][]columnRow)
	var roots []columnRow
	for _, c := range cols {
		if c.parent.Valid {
			children[c.parent.Int64] = append(children[c.parent.Int64], c)
		} else {
			roots = append(roots, c)
		}
	}
	for id := range children {
		rows := children[id]
		sort.Slice(rows, func(i, j int) bool { return rows[i].order < rows[j].order })
		children[id] = rows
	}
	sort.Slice(roots, func(i, j int) bool { return roots[i].order < roots[j].order })

	fields := make([]schema.Field, len(roots))
	for i, c := range roots {
		f, err := buildField(c, children)
		if err != nil {
			return nil, err
		}
		fields[i] = f
	}
	return &schema.StructType{Fields: fields}, nil
}

func buildField(c columnRow, children map[int64][]columnRow) (schema.Field, error) {
	t, err := buildType(c, children)
	if err != nil {
		return schema.Field{}, err
	}
	return schema.Field{Name: c.name, Type: t, Nullable: c.nullsAllowed}, nil
}

func buildType(c columnRow, children map[int64][]columnRow) (schema.DataType, error) {
	kids := children[c.id]
	switch strings.ToLower(strings.TrimSpace(c.columnType)) {
	case "struct":
		fields := make([]schema.Field, len(kids))
		for i, k := range kids {
			f, err := buildField(k, children)
			if err != nil {
				return nil, err
			}
			fields[i] = f
		}
		return &schema.StructType{Fields: fields}, nil

	case "list", "array":
		if len(kids) != 1 {
			return nil, fmt.Errorf("list column %q has %d children, expected 1", c.name, len(kids))
		}
		elem, err := buildType(kids[0], children)
		if err != nil {
			return nil, err
		}
		return &schema.ArrayType{Elem: elem, ContainsNull: kids[0].nullsAllowed}, nil

	case "map":
		if len(kids) != 2 {
			return nil, fmt.Errorf("map column %q has %d children, expected 2", c.name, len(kids))
		}
		var key, value *columnRow
		for i := range kids {
			switch kids[i].name {
			case "key":
				key = &kids[i]
			case "value":
				value = &kids[i]
			}
		}
		if key == nil || value == nil {
			return nil, fmt.Errorf("map column %q is missing its key or value child", c.name)
		}
		keyType, err := buildType(*key, children)
		if err != nil {
			return nil, err
		}
		valueType, err := buildType(*value, children)
		if err != nil {
			return nil, err
		}
		return &schema.MapType{Key: keyType, Value: valueType, ValueContainsNull: value.nullsAllowed}, nil

	default:
		if len(kids) > 0 {
			return nil, fmt.Errorf("column %q has children but type %q is not nested", c.name, c.columnType)
		}
		return schema.ParseType(c.columnType)
	}
}
