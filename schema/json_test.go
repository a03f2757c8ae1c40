package schema

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestJSONRoundTrip(t *testing.T) {
	original := StructOf(
		Field{Name: "id", Type: Int64Type, Nullable: false, Comment: "primary identifier"},
		Field{Name: "amount", Type: Decimal(10, 2), Nullable: true,
			Metadata: map[string]string{"source": "billing"}},
		Field{Name: "tags", Type: ArrayOf(StringType, true), Nullable: true},
		Field{Name: "props", Type: MapOf(StringType, StructOf(
			Field{Name: "v", Type: Float64Type, Nullable: true},
		), true), Nullable: true},
	)

	data, err := json.Marshal(original)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}

	var decoded StructType
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	if !TypeEqual(&decoded, original) {
		t.Errorf("round trip produced %s, expected %s", &decoded, original)
	}
	if decoded.Fields[0].Comment != "primary identifier" {
		t.Errorf("comment = %q, expected it restored from wire metadata", decoded.Fields[0].Comment)
	}
	if decoded.Fields[1].Metadata["source"] != "billing" {
		t.Errorf("metadata = %v, expected source=billing preserved", decoded.Fields[1].Metadata)
	}
}

func TestJSONWireShape(t *testing.T) {
	st := StructOf(
		Field{Name: "n", Type: Int32Type, Nullable: true, Comment: "count"},
	)
	data, err := json.Marshal(st)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	s := string(data)
	for _, want := range []string{`"type":"struct"`, `"name":"n"`, `"type":"integer"`, `"nullable":true`, `"comment":"count"`} {
		if !strings.Contains(s, want) {
			t.Errorf("wire form %s is missing %s", s, want)
		}
	}
}

func TestJSONDecimalSpelling(t *testing.T) {
	data, err := MarshalTypeJSON(Decimal(38, 6))
	if err != nil {
		t.Fatalf("MarshalTypeJSON failed: %v", err)
	}
	if string(data) != `"decimal(38,6)"` {
		t.Errorf("decimal wire form = %s", data)
	}
	back, err := UnmarshalTypeJSON(data)
	if err != nil {
		t.Fatalf("UnmarshalTypeJSON failed: %v", err)
	}
	if !TypeEqual(back, Decimal(38, 6)) {
		t.Errorf("decoded %s, expected DECIMAL(38,6)", back)
	}
}

func TestJSONUnknownType(t *testing.T) {
	if _, err := UnmarshalTypeJSON([]byte(`"varint"`)); err == nil {
		t.Error("expected an error for an unknown primitive name")
	}
	if _, err := UnmarshalTypeJSON([]byte(`{"type":"union"}`)); err == nil {
		t.Error("expected an error for an unknown container type")
	}
}
