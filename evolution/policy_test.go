package evolution

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/posthog/lakeschema/schema"
)

func TestLoadPolicy(t *testing.T) {
	path := filepath.Join(t.TempDir(), "policy.yaml")
	content := "case_sensitive: true\ndisallow_int_widening: true\nrequire_read_compat: true\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("Failed to write policy file: %v", err)
	}

	p, err := LoadPolicy(path)
	if err != nil {
		t.Fatalf("LoadPolicy failed: %v", err)
	}
	if !p.CaseSensitive || !p.DisallowIntWidening || !p.RequireReadCompat {
		t.Errorf("loaded policy = %+v, expected all knobs set", p)
	}
	if p.Resolver()("A", "a") {
		t.Error("case-sensitive policy resolver matched a case-only difference")
	}
}

func TestLoadPolicyErrors(t *testing.T) {
	if _, err := LoadPolicy(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected an error for a missing file")
	}
	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("case_sensitive: [oops"), 0o644); err != nil {
		t.Fatalf("Failed to write policy file: %v", err)
	}
	if _, err := LoadPolicy(path); err == nil {
		t.Error("expected a parse error")
	}
}

func TestNegotiateWriteDefaults(t *testing.T) {
	current := schema.StructOf(
		schema.Field{Name: "x", Type: schema.Int8Type, Nullable: true},
	)
	incoming := schema.StructOf(
		schema.Field{Name: "x", Type: schema.Int32Type, Nullable: true},
		schema.Field{Name: "y", Type: schema.StringType, Nullable: true},
	)

	var p Policy
	merged, err := p.NegotiateWrite(current, incoming)
	if err != nil {
		t.Fatalf("NegotiateWrite failed: %v", err)
	}
	if !schema.TypeEqual(merged.Fields[0].Type, schema.Int32Type) {
		t.Errorf("x = %s, expected widened INTEGER", merged.Fields[0].Type)
	}
	if merged.Len() != 2 {
		t.Errorf("merged has %d fields, expected 2", merged.Len())
	}
}

func TestNegotiateWriteCaseSensitive(t *testing.T) {
	current := schema.StructOf(
		schema.Field{Name: "X", Type: schema.Int32Type, Nullable: true},
	)
	incoming := schema.StructOf(
		schema.Field{Name: "x", Type: schema.Int32Type, Nullable: true},
	)
	p := Policy{CaseSensitive: true}
	merged, err := p.NegotiateWrite(current, incoming)
	if err != nil {
		t.Fatalf("NegotiateWrite failed: %v", err)
	}
	// Under exact matching these are different columns, so both survive.
	if merged.Len() != 2 {
		t.Errorf("merged has %d fields, expected 2 under case-sensitive resolution", merged.Len())
	}
}

func TestNegotiateWriteDisallowsWidening(t *testing.T) {
	current := schema.StructOf(schema.Field{Name: "x", Type: schema.Int8Type, Nullable: true})
	incoming := schema.StructOf(schema.Field{Name: "x", Type: schema.Int32Type, Nullable: true})
	p := Policy{DisallowIntWidening: true}
	if _, err := p.NegotiateWrite(current, incoming); !errors.Is(err, ErrMergeConflict) {
		t.Errorf("expected ErrMergeConflict, got %v", err)
	}
}
