package schema

import (
	"testing"
)

func TestParseTypeLeaves(t *testing.T) {
	tests := []struct {
		in   string
		want DataType
	}{
		{"INTEGER", Int32Type},
		{"int4", Int32Type},
		{"BIGINT", Int64Type},
		{"tinyint", Int8Type},
		{"SMALLINT", Int16Type},
		{"BOOLEAN", BoolType},
		{"DOUBLE PRECISION", Float64Type},
		{"REAL", Float32Type},
		{"VARCHAR", StringType},
		{"VARCHAR(80)", StringType},
		{"TEXT", StringType},
		{"BLOB", BinaryType},
		{"DATE", DateType},
		{"TIMESTAMP WITH TIME ZONE", TimestampTZType},
		{"TIMESTAMPTZ", TimestampTZType},
		{"UUID", UUIDType},
		{"DECIMAL(10,2)", Decimal(10, 2)},
		{"NUMERIC(38, 0)", Decimal(38, 0)},
		{"DECIMAL", Decimal(18, 3)},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseType(tt.in)
			if err != nil {
				t.Fatalf("ParseType(%q) failed: %v", tt.in, err)
			}
			if !TypeEqual(got, tt.want) {
				t.Errorf("ParseType(%q) = %s, expected %s", tt.in, got, tt.want)
			}
		})
	}
}

func TestParseTypeNested(t *testing.T) {
	got, err := ParseType(`STRUCT(a INTEGER, "odd name" VARCHAR, tags VARCHAR[], attrs MAP(VARCHAR, STRUCT(v DOUBLE)))`)
	if err != nil {
		t.Fatalf("ParseType failed: %v", err)
	}
	st, ok := got.(*StructType)
	if !ok {
		t.Fatalf("parsed %T, expected a struct", got)
	}
	if st.Len() != 4 {
		t.Fatalf("parsed %d fields, expected 4", st.Len())
	}
	if st.Fields[1].Name != "odd name" {
		t.Errorf("quoted field name = %q, expected %q", st.Fields[1].Name, "odd name")
	}
	if _, ok := st.Fields[2].Type.(*ArrayType); !ok {
		t.Errorf("tags is %T, expected an array", st.Fields[2].Type)
	}
	m, ok := st.Fields[3].Type.(*MapType)
	if !ok {
		t.Fatalf("attrs is %T, expected a map", st.Fields[3].Type)
	}
	if _, ok := m.Value.(*StructType); !ok {
		t.Errorf("map value is %T, expected a struct", m.Value)
	}
}

func TestParseTypeArrayOfArrays(t *testing.T) {
	got, err := ParseType("INTEGER[][]")
	if err != nil {
		t.Fatalf("ParseType failed: %v", err)
	}
	outer, ok := got.(*ArrayType)
	if !ok {
		t.Fatalf("parsed %T, expected an array", got)
	}
	inner, ok := outer.Elem.(*ArrayType)
	if !ok {
		t.Fatalf("element is %T, expected an array", outer.Elem)
	}
	if !TypeEqual(inner.Elem, Int32Type) {
		t.Errorf("innermost element = %s, expected INTEGER", inner.Elem)
	}
}

func TestParseTypeErrors(t *testing.T) {
	for _, in := range []string{"", "WIBBLE", "STRUCT(a", "DECIMAL(10)", "MAP(VARCHAR)", "INTEGER["} {
		if _, err := ParseType(in); err == nil {
			t.Errorf("ParseType(%q) succeeded, expected an error", in)
		}
	}
}

func TestStringParseRoundTrip(t *testing.T) {
	trees := []DataType{
		Int32Type,
		Decimal(10, 2),
		ArrayOf(StringType, true),
		MapOf(StringType, Float64Type, true),
		StructOf(
			Field{Name: "id", Type: Int64Type, Nullable: true},
			Field{Name: "payload", Type: StructOf(
				Field{Name: "ts", Type: TimestampTZType, Nullable: true},
				Field{Name: "props", Type: MapOf(StringType, StringType, true), Nullable: true},
			), Nullable: true},
			Field{Name: "scores", Type: ArrayOf(Decimal(6, 3), true), Nullable: true},
		),
	}
	for _, tree := range trees {
		rendered := tree.String()
		parsed, err := ParseType(rendered)
		if err != nil {
			t.Fatalf("ParseType(%q) failed: %v", rendered, err)
		}
		if !TypeEqual(parsed, tree) {
			t.Errorf("round trip of %s produced %s", rendered, parsed)
		}
	}
}
