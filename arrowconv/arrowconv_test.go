package arrowconv

import (
	"testing"

	"github.com/apache/arrow-go/v18/arrow"

	"github.com/posthog/lakeschema/schema"
)

func TestToArrowSchema(t *testing.T) {
	st := schema.StructOf(
		schema.Field{Name: "id", Type: schema.Int64Type, Nullable: false, Comment: "key"},
		schema.Field{Name: "amount", Type: schema.Decimal(10, 2), Nullable: true},
		schema.Field{Name: "tags", Type: schema.ArrayOf(schema.StringType, true), Nullable: true},
		schema.Field{Name: "props", Type: schema.MapOf(schema.StringType, schema.Float64Type, true), Nullable: true},
		schema.Field{Name: "created", Type: schema.TimestampTZType, Nullable: true},
	)

	as, err := ToArrowSchema(st)
	if err != nil {
		t.Fatalf("ToArrowSchema failed: %v", err)
	}
	if as.NumFields() != 5 {
		t.Fatalf("arrow schema has %d fields, expected 5", as.NumFields())
	}

	id := as.Field(0)
	if !arrow.TypeEqual(id.Type, arrow.PrimitiveTypes.Int64) || id.Nullable {
		t.Errorf("id = %s nullable=%v, expected non-nullable int64", id.Type, id.Nullable)
	}
	if idx := id.Metadata.FindKey("comment"); idx < 0 || id.Metadata.Values()[idx] != "key" {
		t.Errorf("id metadata = %v, expected the comment carried over", id.Metadata)
	}

	dec, ok := as.Field(1).Type.(*arrow.Decimal128Type)
	if !ok || dec.Precision != 10 || dec.Scale != 2 {
		t.Errorf("amount = %s, expected decimal128(10,2)", as.Field(1).Type)
	}

	list, ok := as.Field(2).Type.(*arrow.ListType)
	if !ok || !arrow.TypeEqual(list.Elem(), arrow.BinaryTypes.String) {
		t.Errorf("tags = %s, expected list<utf8>", as.Field(2).Type)
	}

	if _, ok := as.Field(3).Type.(*arrow.MapType); !ok {
		t.Errorf("props = %s, expected a map", as.Field(3).Type)
	}

	ts, ok := as.Field(4).Type.(*arrow.TimestampType)
	if !ok || ts.TimeZone == "" {
		t.Errorf("created = %s, expected a zoned timestamp", as.Field(4).Type)
	}
}

func TestArrowRoundTrip(t *testing.T) {
	original := schema.StructOf(
		schema.Field{Name: "id", Type: schema.Int64Type, Nullable: false},
		schema.Field{Name: "flag", Type: schema.BoolType, Nullable: true},
		schema.Field{Name: "score", Type: schema.Decimal(6, 3), Nullable: true},
		schema.Field{Name: "day", Type: schema.DateType, Nullable: true},
		schema.Field{Name: "token", Type: schema.UUIDType, Nullable: true},
		schema.Field{Name: "nested", Type: schema.StructOf(
			schema.Field{Name: "values", Type: schema.ArrayOf(schema.Int32Type, false), Nullable: true},
		), Nullable: true, Metadata: map[string]string{"origin": "ingest"}},
	)

	as, err := ToArrowSchema(original)
	if err != nil {
		t.Fatalf("ToArrowSchema failed: %v", err)
	}
	back, err := FromArrowSchema(as)
	if err != nil {
		t.Fatalf("FromArrowSchema failed: %v", err)
	}
	if !schema.TypeEqual(back, original) {
		t.Errorf("round trip produced %s, expected %s", back, original)
	}
}

func TestFromArrowTimestampZoning(t *testing.T) {
	naive, err := FromArrowType(&arrow.TimestampType{Unit: arrow.Microsecond})
	if err != nil {
		t.Fatalf("FromArrowType failed: %v", err)
	}
	if !schema.TypeEqual(naive, schema.TimestampType) {
		t.Errorf("naive timestamp = %s, expected TIMESTAMP", naive)
	}
	zoned, err := FromArrowType(arrow.FixedWidthTypes.Timestamp_us)
	if err != nil {
		t.Fatalf("FromArrowType failed: %v", err)
	}
	if !schema.TypeEqual(zoned, schema.TimestampTZType) {
		t.Errorf("zoned timestamp = %s, expected TIMESTAMPTZ", zoned)
	}
}

func TestFromArrowWideTypesNarrow(t *testing.T) {
	got, err := FromArrowType(arrow.BinaryTypes.LargeString)
	if err != nil {
		t.Fatalf("FromArrowType failed: %v", err)
	}
	if !schema.TypeEqual(got, schema.StringType) {
		t.Errorf("large string = %s, expected VARCHAR", got)
	}
	if _, err := FromArrowType(arrow.PrimitiveTypes.Uint64); err == nil {
		t.Error("expected unsigned integers to be unsupported")
	}
}
