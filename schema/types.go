// Package schema models nested table schemas for DuckLake-style columnar
// tables and provides the tree algorithms the write path, DDL layer, and
// readers need: traversal, name resolution, positional edits, and codecs.
//
// Schema trees are immutable values. No operation in this package or in
// package evolution mutates its input; every edit allocates a new tree, so
// trees can be shared across goroutines without synchronization.
package schema

import (
	"fmt"
	"strings"
)

// DataType is a node in a schema tree. The set of implementations is closed:
// PrimitiveType, DecimalType, StructType, ArrayType, and MapType. Functions
// that recurse over trees switch exhaustively on these five variants.
type DataType interface {
	fmt.Stringer

	// isDataType restricts implementations to this package.
	isDataType()
}

// PrimitiveKind identifies an atomic leaf type.
type PrimitiveKind int

// The zero value is Null, the untyped marker used for columns whose type is
// not yet known (e.g. all-NULL ingest columns). Null merges into any other
// type during schema evolution.
const (
	Null PrimitiveKind = iota
	Bool
	Int8
	Int16
	Int32
	Int64
	Float32
	Float64
	String
	Binary
	Date
	Time
	Timestamp
	TimestampTZ
	Interval
	UUID
)

// kindNames maps each kind to its DuckDB-style rendering and its lowercase
// wire spelling used by the JSON codec.
var kindNames = map[PrimitiveKind]struct {
	render string
	wire   string
}{
	Null:        {"NULL", "null"},
	Bool:        {"BOOLEAN", "boolean"},
	Int8:        {"TINYINT", "tinyint"},
	Int16:       {"SMALLINT", "smallint"},
	Int32:       {"INTEGER", "integer"},
	Int64:       {"BIGINT", "bigint"},
	Float32:     {"FLOAT", "float"},
	Float64:     {"DOUBLE", "double"},
	String:      {"VARCHAR", "string"},
	Binary:      {"BLOB", "binary"},
	Date:        {"DATE", "date"},
	Time:        {"TIME", "time"},
	Timestamp:   {"TIMESTAMP", "timestamp"},
	TimestampTZ: {"TIMESTAMPTZ", "timestamptz"},
	Interval:    {"INTERVAL", "interval"},
	UUID:        {"UUID", "uuid"},
}

func (k PrimitiveKind) String() string {
	if n, ok := kindNames[k]; ok {
		return n.render
	}
	return fmt.Sprintf("PrimitiveKind(%d)", int(k))
}

// PrimitiveType is an atomic leaf. Equality is Kind equality.
type PrimitiveType struct {
	Kind PrimitiveKind
}

func (PrimitiveType) isDataType() {}

func (t PrimitiveType) String() string { return t.Kind.String() }

// Leaf singletons for the common construction paths.
var (
	NullType        = PrimitiveType{Null}
	BoolType        = PrimitiveType{Bool}
	Int8Type        = PrimitiveType{Int8}
	Int16Type       = PrimitiveType{Int16}
	Int32Type       = PrimitiveType{Int32}
	Int64Type       = PrimitiveType{Int64}
	Float32Type     = PrimitiveType{Float32}
	Float64Type     = PrimitiveType{Float64}
	StringType      = PrimitiveType{String}
	BinaryType      = PrimitiveType{Binary}
	DateType        = PrimitiveType{Date}
	TimeType        = PrimitiveType{Time}
	TimestampType   = PrimitiveType{Timestamp}
	TimestampTZType = PrimitiveType{TimestampTZ}
	IntervalType    = PrimitiveType{Interval}
	UUIDType        = PrimitiveType{UUID}
)

// DecimalType is a fixed-precision decimal. Two decimals are equal only when
// both precision and scale match exactly.
type DecimalType struct {
	Precision int32
	Scale     int32
}

func (DecimalType) isDataType() {}

func (t DecimalType) String() string {
	return fmt.Sprintf("DECIMAL(%d,%d)", t.Precision, t.Scale)
}

// Decimal returns the decimal type with the given precision and scale.
func Decimal(precision, scale int32) DecimalType {
	return DecimalType{Precision: precision, Scale: scale}
}

// Field is a named, typed member of a struct node. Metadata is an opaque
// key→value map owned by the caller; Comment is "" when unset.
type Field struct {
	Name     string
	Type     DataType
	Nullable bool
	Metadata map[string]string
	Comment  string
}

// Equal reports full structural equality, including nullability, metadata,
// and comment. Names compare case-sensitively; use a Resolver for
// case-insensitive name matching.
func (f Field) Equal(o Field) bool {
	if f.Name != o.Name || f.Nullable != o.Nullable || f.Comment != o.Comment {
		return false
	}
	if len(f.Metadata) != len(o.Metadata) {
		return false
	}
	for k, v := range f.Metadata {
		if ov, ok := o.Metadata[k]; !ok || ov != v {
			return false
		}
	}
	return TypeEqual(f.Type, o.Type)
}

// Clone returns a deep copy of the field.
func (f Field) Clone() Field {
	c := f
	c.Type = CloneType(f.Type)
	if f.Metadata != nil {
		c.Metadata = make(map[string]string, len(f.Metadata))
		for k, v := range f.Metadata {
			c.Metadata[k] = v
		}
	}
	return c
}

func (f Field) String() string {
	return quoteName(f.Name) + " " + f.Type.String()
}

// StructType is an ordered sequence of fields. Order is semantically
// meaningful: it defines the physical column position. A table schema is the
// root StructType of its tree.
//
// The Fields slice must not be mutated after construction; edits go through
// AddColumn, DropColumn, or the transforms in package evolution, all of
// which return new trees.
type StructType struct {
	Fields []Field
}

// StructOf builds a struct node from the given fields.
func StructOf(fields ...Field) *StructType {
	return &StructType{Fields: fields}
}

func (*StructType) isDataType() {}

func (st *StructType) String() string {
	parts := make([]string, len(st.Fields))
	for i, f := range st.Fields {
		parts[i] = f.String()
	}
	return "STRUCT(" + strings.Join(parts, ", ") + ")"
}

// Len returns the number of fields.
func (st *StructType) Len() int { return len(st.Fields) }

// IndexOf returns the index of the first field whose name matches name under
// the resolver, or -1.
func (st *StructType) IndexOf(name string, r Resolver) int {
	for i, f := range st.Fields {
		if r(f.Name, name) {
			return i
		}
	}
	return -1
}

// Clone returns a deep copy of the struct and everything beneath it.
func (st *StructType) Clone() *StructType {
	fields := make([]Field, len(st.Fields))
	for i, f := range st.Fields {
		fields[i] = f.Clone()
	}
	return &StructType{Fields: fields}
}

// ArrayType wraps an element type. ContainsNull records whether elements may
// be null.
type ArrayType struct {
	Elem         DataType
	ContainsNull bool
}

// ArrayOf builds an array node.
func ArrayOf(elem DataType, containsNull bool) *ArrayType {
	return &ArrayType{Elem: elem, ContainsNull: containsNull}
}

func (*ArrayType) isDataType() {}

func (t *ArrayType) String() string { return t.Elem.String() + "[]" }

// MapType wraps a key and a value type. ValueContainsNull records whether
// map values may be null; keys are never null.
type MapType struct {
	Key               DataType
	Value             DataType
	ValueContainsNull bool
}

// MapOf builds a map node.
func MapOf(key, value DataType, valueContainsNull bool) *MapType {
	return &MapType{Key: key, Value: value, ValueContainsNull: valueContainsNull}
}

func (*MapType) isDataType() {}

func (t *MapType) String() string {
	return "MAP(" + t.Key.String() + ", " + t.Value.String() + ")"
}

// TypeEqual reports strict structural equality of two trees: same variant,
// same leaf kinds, exact decimal precision and scale, identical nullability
// flags, and for structs the same fields in the same order (names compared
// case-sensitively, metadata and comments included).
func TypeEqual(a, b DataType) bool {
	switch at := a.(type) {
	case PrimitiveType:
		bt, ok := b.(PrimitiveType)
		return ok && at.Kind == bt.Kind
	case DecimalType:
		bt, ok := b.(DecimalType)
		return ok && at == bt
	case *StructType:
		bt, ok := b.(*StructType)
		if !ok || len(at.Fields) != len(bt.Fields) {
			return false
		}
		for i := range at.Fields {
			if !at.Fields[i].Equal(bt.Fields[i]) {
				return false
			}
		}
		return true
	case *ArrayType:
		bt, ok := b.(*ArrayType)
		return ok && at.ContainsNull == bt.ContainsNull && TypeEqual(at.Elem, bt.Elem)
	case *MapType:
		bt, ok := b.(*MapType)
		return ok && at.ValueContainsNull == bt.ValueContainsNull &&
			TypeEqual(at.Key, bt.Key) && TypeEqual(at.Value, bt.Value)
	default:
		return false
	}
}

// CloneType returns a deep copy of a tree.
func CloneType(t DataType) DataType {
	switch tt := t.(type) {
	case PrimitiveType, DecimalType:
		return tt
	case *StructType:
		return tt.Clone()
	case *ArrayType:
		return &ArrayType{Elem: CloneType(tt.Elem), ContainsNull: tt.ContainsNull}
	case *MapType:
		return &MapType{
			Key:               CloneType(tt.Key),
			Value:             CloneType(tt.Value),
			ValueContainsNull: tt.ValueContainsNull,
		}
	default:
		return tt
	}
}
