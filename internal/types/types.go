// Package types provides the document model shared across keyshift components.
//
// Value is a tagged union over the shapes a decoded JSON or YAML payload can
// take. Callers switch on Kind instead of probing interface types, and every
// "wrong shape" case becomes an explicit branch. Document is an unordered
// mapping from field name to Value; consumers address fields by path, never by
// iteration order.
//
// Mapping and Rule are pure data describing a declarative rule set; they carry
// no behavior until internal/rules compiles and executes them.
package types

// MappingID represents a UUIDv7 mapping identifier.
// String alias enables type safety while maintaining JSON string serialization.
type MappingID string

// Limits enforced on declarative rule sets.
const (
	// MaxPathDepth bounds segment count for paths in compiled rule sets.
	// The engine itself accepts any depth; recursion is bounded by the path.
	MaxPathDepth = 16

	// MaxRulesPerMapping caps a stored mapping so one definition cannot
	// dominate request latency.
	MaxRulesPerMapping = 1024

	// MaxPayloadSize limits documents accepted over the wire.
	MaxPayloadSize = 4 * 1024 * 1024
)
