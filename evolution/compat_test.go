package evolution

import (
	"errors"
	"strings"
	"testing"

	"github.com/posthog/lakeschema/schema"
)

func structX() *schema.StructType {
	return schema.StructOf(
		schema.Field{Name: "x", Type: schema.Int32Type, Nullable: true},
	)
}

func TestCanChangeTypeAddedFields(t *testing.T) {
	from := structX()

	nullableAdd := schema.StructOf(
		schema.Field{Name: "x", Type: schema.Int32Type, Nullable: true},
		schema.Field{Name: "y", Type: schema.Int32Type, Nullable: true},
	)
	if err := CanChangeType(from, nullableAdd, nil); err != nil {
		t.Errorf("adding a nullable field reported %v, expected no violation", err)
	}

	requiredAdd := schema.StructOf(
		schema.Field{Name: "x", Type: schema.Int32Type, Nullable: true},
		schema.Field{Name: "y", Type: schema.Int32Type, Nullable: false},
	)
	err := CanChangeType(from, requiredAdd, nil)
	if !errors.Is(err, ErrTypeChangeNotAllowed) {
		t.Fatalf("adding a non-nullable field reported %v, expected ErrTypeChangeNotAllowed", err)
	}
	if !strings.Contains(err.Error(), "y") {
		t.Errorf("violation %q does not name field y", err)
	}
}

func TestCanChangeTypeDroppedField(t *testing.T) {
	from := schema.StructOf(
		schema.Field{Name: "keep", Type: schema.Int32Type, Nullable: true},
		schema.Field{Name: "gone", Type: schema.Int32Type, Nullable: true},
	)
	to := schema.StructOf(
		schema.Field{Name: "keep", Type: schema.Int32Type, Nullable: true},
	)
	err := CanChangeType(from, to, nil)
	if !errors.Is(err, ErrTypeChangeNotAllowed) {
		t.Fatalf("dropping a field reported %v, expected ErrTypeChangeNotAllowed", err)
	}
	if !strings.Contains(err.Error(), "gone") {
		t.Errorf("violation %q does not name the dropped field", err)
	}
}

func TestCanChangeTypeNullabilityAndLeaves(t *testing.T) {
	tests := []struct {
		name    string
		from    schema.DataType
		to      schema.DataType
		allowed bool
	}{
		{
			name: "loosening nullability is fine",
			from: schema.StructOf(schema.Field{Name: "x", Type: schema.Int32Type, Nullable: false}),
			to:      schema.StructOf(schema.Field{Name: "x", Type: schema.Int32Type, Nullable: true}),
			allowed: true,
		},
		{
			name: "tightening nullability is not",
			from: schema.StructOf(schema.Field{Name: "x", Type: schema.Int32Type, Nullable: true}),
			to:   schema.StructOf(schema.Field{Name: "x", Type: schema.Int32Type, Nullable: false}),
		},
		{
			name: "no implicit widening here",
			from: schema.StructOf(schema.Field{Name: "x", Type: schema.Int8Type, Nullable: true}),
			to:   schema.StructOf(schema.Field{Name: "x", Type: schema.Int32Type, Nullable: true}),
		},
		{
			name:    "array element recursion",
			from:    schema.ArrayOf(structX(), false),
			to:      schema.ArrayOf(structX(), true),
			allowed: true,
		},
		{
			name: "array element nullability tightened",
			from: schema.ArrayOf(schema.Int32Type, true),
			to:   schema.ArrayOf(schema.Int32Type, false),
		},
		{
			name: "map value type changed",
			from: schema.MapOf(schema.StringType, schema.Int32Type, true),
			to:   schema.MapOf(schema.StringType, schema.Int64Type, true),
		},
		{
			name: "decimal scale changed",
			from: schema.Decimal(10, 2),
			to:   schema.Decimal(10, 3),
		},
		{
			name:    "case-only rename matches by default",
			from:    schema.StructOf(schema.Field{Name: "x", Type: schema.Int32Type, Nullable: true}),
			to:      schema.StructOf(schema.Field{Name: "X", Type: schema.Int32Type, Nullable: true}),
			allowed: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CanChangeType(tt.from, tt.to, nil)
			if tt.allowed && err != nil {
				t.Errorf("CanChangeType reported %v, expected no violation", err)
			}
			if !tt.allowed && !errors.Is(err, ErrTypeChangeNotAllowed) {
				t.Errorf("CanChangeType reported %v, expected ErrTypeChangeNotAllowed", err)
			}
		})
	}
}

func TestCanChangeTypeViolationCarriesPath(t *testing.T) {
	from := schema.StructOf(
		schema.Field{Name: "outer", Type: schema.StructOf(
			schema.Field{Name: "inner", Type: schema.Int32Type, Nullable: true},
		), Nullable: true},
	)
	to := schema.StructOf(
		schema.Field{Name: "outer", Type: schema.StructOf(
			schema.Field{Name: "inner", Type: schema.StringType, Nullable: true},
		), Nullable: true},
	)
	err := CanChangeType(from, to, nil)
	if err == nil {
		t.Fatal("expected a violation")
	}
	if !strings.Contains(err.Error(), "outer.inner") {
		t.Errorf("violation %q does not carry the path outer.inner", err)
	}
}

func TestChangeType(t *testing.T) {
	from := schema.StructOf(
		schema.Field{Name: "x", Type: schema.Int32Type, Nullable: false, Comment: "from comment"},
	)
	to := schema.StructOf(
		schema.Field{Name: "x", Type: schema.Int32Type, Nullable: true},
		schema.Field{Name: "y", Type: schema.StringType, Nullable: true, Comment: "brand new"},
	)
	if err := CanChangeType(from, to, nil); err != nil {
		t.Fatalf("change should be valid: %v", err)
	}

	got := ChangeType(from, to, nil).(*schema.StructType)
	if got.Len() != 2 {
		t.Fatalf("result has %d fields, expected 2", got.Len())
	}
	if !got.Fields[0].Nullable {
		t.Error("x did not adopt the loosened nullability")
	}
	// to has no comment on x, so from's is carried over.
	if got.Fields[0].Comment != "from comment" {
		t.Errorf("x comment = %q, expected the from side's", got.Fields[0].Comment)
	}
	if got.Fields[1].Comment != "brand new" {
		t.Errorf("y comment = %q, expected %q", got.Fields[1].Comment, "brand new")
	}

	// A to-side comment wins over from's.
	to.Fields[0].Comment = "to comment"
	got = ChangeType(from, to, nil).(*schema.StructType)
	if got.Fields[0].Comment != "to comment" {
		t.Errorf("x comment = %q, expected the to side's", got.Fields[0].Comment)
	}
}
