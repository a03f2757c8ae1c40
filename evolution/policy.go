package evolution

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/posthog/lakeschema/schema"
)

// Policy holds the write-path evolution knobs. The zero value is the
// default behavior: case-insensitive name resolution, integer widening
// enabled, read compatibility not enforced.
type Policy struct {
	// CaseSensitive switches name resolution to exact matching.
	CaseSensitive bool `yaml:"case_sensitive"`

	// DisallowIntWidening rejects merges that would widen integer leaves.
	DisallowIntWidening bool `yaml:"disallow_int_widening"`

	// RequireReadCompat rejects a negotiated schema that existing readers
	// could not consume.
	RequireReadCompat bool `yaml:"require_read_compat"`
}

// LoadPolicy loads a Policy from a YAML file.
func LoadPolicy(path string) (*Policy, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var p Policy
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("failed to parse policy file: %w", err)
	}
	return &p, nil
}

// Resolver returns the name resolver the policy selects.
func (p Policy) Resolver() schema.Resolver {
	if p.CaseSensitive {
		return schema.CaseSensitiveResolver
	}
	return schema.CaseInsensitiveResolver
}

// NegotiateWrite merges an incoming write's schema into the table's current
// schema under the policy and returns the schema the table should adopt.
// With RequireReadCompat set, a merge result that existing readers could
// not consume is rejected.
func (p Policy) NegotiateWrite(current, incoming *schema.StructType) (*schema.StructType, error) {
	merged, err := MergeWithOptions(current, incoming, MergeOptions{
		Resolver:            p.Resolver(),
		DisallowIntWidening: p.DisallowIntWidening,
	})
	if err != nil {
		return nil, err
	}
	if p.RequireReadCompat && !IsReadCompatible(current, merged) {
		return nil, mergeError("merged schema is not read-compatible with the current schema")
	}
	return merged, nil
}
