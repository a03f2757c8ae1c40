// Package ddl adapts ALTER TABLE statements to schema edits: it parses
// PostgreSQL-dialect DDL into typed column operations and applies them to a
// schema tree through the structural editor and the compatibility engine.
// The caller decides what to do with the resulting schema; nothing here
// touches a database.
package ddl

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	pg_query "github.com/pganalyze/pg_query_go/v6"

	"github.com/posthog/lakeschema/evolution"
	"github.com/posthog/lakeschema/schema"
)

// ErrUnsupported reports a DDL form this adapter does not translate, e.g.
// constraints or defaults.
var ErrUnsupported = errors.New("unsupported DDL")

// Op is one column operation extracted from an ALTER TABLE statement.
type Op interface {
	// Apply returns the schema after the operation. The input is never
	// modified. A nil resolver means case-insensitive.
	Apply(st *schema.StructType, r schema.Resolver) (*schema.StructType, error)
}

// Statement is a parsed ALTER TABLE: the table it targets and the column
// operations to run in order.
type Statement struct {
	Table string
	Ops   []Op
}

// Apply runs every operation in order against st and returns the final
// schema.
func (s Statement) Apply(st *schema.StructType, r schema.Resolver) (*schema.StructType, error) {
	out := st
	for _, op := range s.Ops {
		next, err := op.Apply(out, r)
		if err != nil {
			return nil, err
		}
		out = next
	}
	slog.Debug("Applied DDL statement to schema.", "table", s.Table, "ops", len(s.Ops))
	return out, nil
}

// AddColumnOp appends a column. Path names the struct to insert into; empty
// means the top level. With IfNotExists set the op is a no-op when a column
// of that name already resolves.
type AddColumnOp struct {
	Path        []string
	Column      schema.Field
	IfNotExists bool
}

func (op AddColumnOp) Apply(st *schema.StructType, r schema.Resolver) (*schema.StructType, error) {
	if r == nil {
		r = schema.CaseInsensitiveResolver
	}
	if op.IfNotExists {
		if _, _, err := schema.FindColumnPosition(append(op.Path, op.Column.Name), st, r); err == nil {
			return st, nil
		}
	}
	pos := schema.Position{st.Len()}
	if len(op.Path) > 0 {
		parent, size, err := schema.FindColumnPosition(op.Path, st, r)
		if err != nil {
			return nil, err
		}
		pos = append(parent, size)
	}
	return schema.AddColumn(st, op.Column, pos)
}

// DropColumnOp removes the column at a dotted path. With IfExists set a
// missing column is a no-op.
type DropColumnOp struct {
	Path     []string
	IfExists bool
}

func (op DropColumnOp) Apply(st *schema.StructType, r schema.Resolver) (*schema.StructType, error) {
	pos, _, err := schema.FindColumnPosition(op.Path, st, r)
	if err != nil {
		if op.IfExists && errors.Is(err, schema.ErrColumnNotFound) {
			return st, nil
		}
		return nil, err
	}
	out, _, err := schema.DropColumn(st, pos)
	return out, err
}

// RenameColumnOp renames the column at a dotted path, keeping its type,
// nullability, metadata, and comment.
type RenameColumnOp struct {
	Path    []string
	NewName string
}

func (op RenameColumnOp) Apply(st *schema.StructType, r schema.Resolver) (*schema.StructType, error) {
	if _, _, err := schema.FindColumnPosition(op.Path, st, r); err != nil {
		return nil, err
	}
	entries := []evolution.PathEntry{{Path: op.Path}}
	renamed := evolution.TransformColumnsKeyed(st, r, entries, func(parentPath []string, f schema.Field, matched []evolution.PathEntry) schema.Field {
		f.Name = op.NewName
		return f
	})
	if err := schema.CheckColumnNameDuplication(renamed, "after renaming "+schema.PathString(op.Path)); err != nil {
		return nil, err
	}
	return renamed, nil
}

// AlterColumnTypeOp changes a column's type. The change is validated with
// the strict compatibility check before it is applied, so only loosening
// changes go through.
type AlterColumnTypeOp struct {
	Path []string
	Type schema.DataType
}

func (op AlterColumnTypeOp) Apply(st *schema.StructType, r schema.Resolver) (*schema.StructType, error) {
	if _, _, err := schema.FindColumnPosition(op.Path, st, r); err != nil {
		return nil, err
	}
	var applyErr error
	entries := []evolution.PathEntry{{Path: op.Path}}
	out := evolution.TransformColumnsKeyed(st, r, entries, func(parentPath []string, f schema.Field, matched []evolution.PathEntry) schema.Field {
		if err := evolution.CanChangeType(f.Type, op.Type, r); err != nil {
			applyErr = fmt.Errorf("cannot alter column %s: %w", schema.PathString(op.Path), err)
			return f
		}
		f.Type = evolution.ChangeType(f.Type, op.Type, r)
		return f
	})
	if applyErr != nil {
		return nil, applyErr
	}
	return out, nil
}

// DropNotNullOp loosens a column to nullable. The opposite direction is a
// tightening and is rejected at parse time.
type DropNotNullOp struct {
	Path []string
}

func (op DropNotNullOp) Apply(st *schema.StructType, r schema.Resolver) (*schema.StructType, error) {
	if _, _, err := schema.FindColumnPosition(op.Path, st, r); err != nil {
		return nil, err
	}
	entries := []evolution.PathEntry{{Path: op.Path}}
	return evolution.TransformColumnsKeyed(st, r, entries, func(parentPath []string, f schema.Field, matched []evolution.PathEntry) schema.Field {
		f.Nullable = true
		return f
	}), nil
}

// SetCommentOp sets or clears a column's comment.
type SetCommentOp struct {
	Path    []string
	Comment string
}

func (op SetCommentOp) Apply(st *schema.StructType, r schema.Resolver) (*schema.StructType, error) {
	if _, _, err := schema.FindColumnPosition(op.Path, st, r); err != nil {
		return nil, err
	}
	entries := []evolution.PathEntry{{Path: op.Path}}
	return evolution.TransformColumnsKeyed(st, r, entries, func(parentPath []string, f schema.Field, matched []evolution.PathEntry) schema.Field {
		f.Comment = op.Comment
		return f
	}), nil
}

// Parse translates one ALTER TABLE or COMMENT ON COLUMN statement into a
// Statement. Constraint manipulation, defaults, SET NOT NULL, and anything
// else without a schema-tree meaning fails with ErrUnsupported.
func Parse(sql string) (Statement, error) {
	tree, err := pg_query.Parse(sql)
	if err != nil {
		return Statement{}, fmt.Errorf("failed to parse DDL: %w", err)
	}
	if len(tree.Stmts) != 1 {
		return Statement{}, fmt.Errorf("%w: expected exactly one statement, got %d", ErrUnsupported, len(tree.Stmts))
	}
	raw := tree.Stmts[0].Stmt
	if raw == nil {
		return Statement{}, fmt.Errorf("%w: empty statement", ErrUnsupported)
	}

	switch n := raw.Node.(type) {
	case *pg_query.Node_AlterTableStmt:
		return parseAlterTable(n.AlterTableStmt)
	case *pg_query.Node_RenameStmt:
		return parseRename(n.RenameStmt)
	case *pg_query.Node_CommentStmt:
		return parseComment(n.CommentStmt)
	default:
		return Statement{}, fmt.Errorf("%w: not an ALTER TABLE statement", ErrUnsupported)
	}
}

func parseAlterTable(stmt *pg_query.AlterTableStmt) (Statement, error) {
	if stmt.Relation == nil {
		return Statement{}, fmt.Errorf("%w: ALTER TABLE without a relation", ErrUnsupported)
	}
	out := Statement{Table: stmt.Relation.Relname}

	for _, cmd := range stmt.Cmds {
		alterCmd := cmd.GetAlterTableCmd()
		if alterCmd == nil {
			return Statement{}, fmt.Errorf("%w: unexpected ALTER TABLE command node", ErrUnsupported)
		}
		op, err := parseAlterCmd(alterCmd)
		if err != nil {
			return Statement{}, err
		}
		out.Ops = append(out.Ops, op)
	}
	return out, nil
}

func parseAlterCmd(cmd *pg_query.AlterTableCmd) (Op, error) {
	switch cmd.Subtype {
	case pg_query.AlterTableType_AT_AddColumn:
		colDef := cmd.GetDef().GetColumnDef()
		if colDef == nil {
			return nil, fmt.Errorf("%w: ADD COLUMN without a column definition", ErrUnsupported)
		}
		col, err := fieldFromColumnDef(colDef)
		if err != nil {
			return nil, err
		}
		return AddColumnOp{Column: col, IfNotExists: cmd.MissingOk}, nil

	case pg_query.AlterTableType_AT_DropColumn:
		return DropColumnOp{Path: columnPath(cmd.Name), IfExists: cmd.MissingOk}, nil

	case pg_query.AlterTableType_AT_AlterColumnType:
		colDef := cmd.GetDef().GetColumnDef()
		if colDef == nil || colDef.TypeName == nil {
			return nil, fmt.Errorf("%w: ALTER COLUMN TYPE without a type", ErrUnsupported)
		}
		t, err := typeFromTypeName(colDef.TypeName)
		if err != nil {
			return nil, err
		}
		return AlterColumnTypeOp{Path: columnPath(cmd.Name), Type: t}, nil

	case pg_query.AlterTableType_AT_DropNotNull:
		return DropNotNullOp{Path: columnPath(cmd.Name)}, nil

	case pg_query.AlterTableType_AT_SetNotNull:
		return nil, fmt.Errorf("%w: SET NOT NULL tightens nullability", ErrUnsupported)

	default:
		return nil, fmt.Errorf("%w: ALTER TABLE subtype %s", ErrUnsupported, cmd.Subtype)
	}
}

func parseRename(stmt *pg_query.RenameStmt) (Statement, error) {
	if stmt.RenameType != pg_query.ObjectType_OBJECT_COLUMN {
		return Statement{}, fmt.Errorf("%w: RENAME of %s", ErrUnsupported, stmt.RenameType)
	}
	table := ""
	if stmt.Relation != nil {
		table = stmt.Relation.Relname
	}
	return Statement{
		Table: table,
		Ops:   []Op{RenameColumnOp{Path: columnPath(stmt.Subname), NewName: stmt.Newname}},
	}, nil
}

func parseComment(stmt *pg_query.CommentStmt) (Statement, error) {
	if stmt.Objtype != pg_query.ObjectType_OBJECT_COLUMN {
		return Statement{}, fmt.Errorf("%w: COMMENT ON %s", ErrUnsupported, stmt.Objtype)
	}
	// The object is a list of name strings: [schema,] table, column...
	items := stmt.Object.GetList().GetItems()
	if len(items) < 2 {
		return Statement{}, fmt.Errorf("%w: COMMENT ON COLUMN without a qualified name", ErrUnsupported)
	}
	names := make([]string, 0, len(items))
	for _, item := range items {
		if s := item.GetString_(); s != nil {
			names = append(names, s.Sval)
		}
	}
	if len(names) < 2 {
		return Statement{}, fmt.Errorf("%w: COMMENT ON COLUMN without a qualified name", ErrUnsupported)
	}
	// The last segment is the column, the one before it the table; anything
	// earlier is schema qualification.
	return Statement{
		Table: names[len(names)-2],
		Ops:   []Op{SetCommentOp{Path: []string{names[len(names)-1]}, Comment: stmt.Comment}},
	}, nil
}

// columnPath splits a possibly dotted column name into path segments, so
// nested columns can be addressed as parent.child.
func columnPath(name string) []string {
	return strings.Split(name, ".")
}

func fieldFromColumnDef(colDef *pg_query.ColumnDef) (schema.Field, error) {
	if colDef.TypeName == nil {
		return schema.Field{}, fmt.Errorf("%w: column %q has no type", ErrUnsupported, colDef.Colname)
	}
	t, err := typeFromTypeName(colDef.TypeName)
	if err != nil {
		return schema.Field{}, err
	}
	f := schema.Field{Name: colDef.Colname, Type: t, Nullable: true}

	for _, c := range colDef.Constraints {
		constraint := c.GetConstraint()
		if constraint == nil {
			continue
		}
		switch constraint.Contype {
		case pg_query.ConstrType_CONSTR_NOTNULL:
			f.Nullable = false
		case pg_query.ConstrType_CONSTR_NULL:
			f.Nullable = true
		default:
			return schema.Field{}, fmt.Errorf("%w: constraint %s on column %q", ErrUnsupported, constraint.Contype, colDef.Colname)
		}
	}
	return f, nil
}

// typeFromTypeName renders a pg_query TypeName into the catalog type text
// and hands it to the schema type parser, which already knows the SQL
// aliases (int4, float8, bpchar, ...).
func typeFromTypeName(typeName *pg_query.TypeName) (schema.DataType, error) {
	var name string
	for _, n := range typeName.Names {
		s := n.GetString_()
		if s == nil {
			continue
		}
		// Skip the pg_catalog qualification pg_query adds to builtins.
		if strings.EqualFold(s.Sval, "pg_catalog") {
			continue
		}
		name = s.Sval
	}
	if name == "" {
		return nil, fmt.Errorf("%w: type without a name", ErrUnsupported)
	}

	var mods []string
	for _, m := range typeName.Typmods {
		if c := m.GetAConst(); c != nil {
			if iv := c.GetIval(); iv != nil {
				mods = append(mods, fmt.Sprintf("%d", iv.Ival))
			}
		}
	}
	if len(mods) > 0 {
		name = fmt.Sprintf("%s(%s)", name, strings.Join(mods, ","))
	}
	for range typeName.ArrayBounds {
		name += "[]"
	}

	t, err := schema.ParseType(name)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnsupported, err)
	}
	return t, nil
}
