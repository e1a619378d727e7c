// internal/types/mapping.go
package types

/*
 * Declarative rule-set types.
 *
 * A Mapping is the data form of a transform: an ordered list of Rules applied
 * to one source document. internal/rules compiles and executes it; these types
 * stay wire-format agnostic so the same struct serves YAML files, JSON in the
 * store, and structpb maps over gRPC.
 *
 * Rule kinds (decided by which fields are set):
 *   - copy:    Source + Target        -> Transform.Apply
 *   - literal: Value + Target         -> Transform.Add
 *   - each:    Source + Target + Each -> Transform.ApplyEach, nested rules
 *              run on a sub-transform per element
 * Coerce may accompany copy and literal rules.
 */

// Rule describes one field remapping.
type Rule struct {
	Source     string `yaml:"source,omitempty" json:"source,omitempty" mapstructure:"source"`
	Target     string `yaml:"target" json:"target" mapstructure:"target"`
	Value      any    `yaml:"value,omitempty" json:"value,omitempty" mapstructure:"value"`
	Coerce     string `yaml:"coerce,omitempty" json:"coerce,omitempty" mapstructure:"coerce"`
	CopySource bool   `yaml:"copy_source,omitempty" json:"copy_source,omitempty" mapstructure:"copy_source"`
	Each       []Rule `yaml:"each,omitempty" json:"each,omitempty" mapstructure:"each"`
}

// HasValue reports whether the rule carries a literal value.
// Decoders yield nil for both "missing" and "null", so rule sets cannot
// write a literal null; Transform.Add with Null() can.
func (r Rule) HasValue() bool {
	return r.Value != nil
}

// Mapping is a named, ordered rule set.
type Mapping struct {
	ID         MappingID `yaml:"id,omitempty" json:"id,omitempty" mapstructure:"mapping_id"`
	Name       string    `yaml:"name" json:"name" mapstructure:"name"`
	CopySource bool      `yaml:"copy_source,omitempty" json:"copy_source,omitempty" mapstructure:"copy_source"`
	Rules      []Rule    `yaml:"rules" json:"rules" mapstructure:"rules"`
}
