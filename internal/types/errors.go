package types

import "errors"

// Sentinel errors for keyshift operations.
// The transform engine itself never returns these; they surface from path
// parsing, rule compilation and the service layers around the engine.
var (
	// ErrEmptyPath indicates a path with zero segments.
	ErrEmptyPath = errors.New("path is empty")

	// ErrEmptySegment indicates a path containing an empty segment ("a..b").
	ErrEmptySegment = errors.New("path has an empty segment")

	// ErrPathTooDeep indicates a rule path exceeds MaxPathDepth.
	ErrPathTooDeep = errors.New("path exceeds maximum depth")

	// ErrUnsupportedValue indicates a Go value with no Value representation.
	ErrUnsupportedValue = errors.New("unsupported value type")

	// ErrInvalidJSON indicates a payload that is not well-formed JSON.
	ErrInvalidJSON = errors.New("invalid JSON")

	// ErrNotADocument indicates a payload whose top level is not an object.
	ErrNotADocument = errors.New("top-level value is not a document")

	// ErrMissingTarget indicates a rule without a target path.
	ErrMissingTarget = errors.New("rule target is required")

	// ErrAmbiguousRule indicates a rule with both a source path and a literal value.
	ErrAmbiguousRule = errors.New("rule must set exactly one of source or value")

	// ErrEachWithoutSource indicates element rules on a rule with no source path.
	ErrEachWithoutSource = errors.New("element rules require a source path")

	// ErrEmptyEach indicates an element rule with an empty nested rule list.
	ErrEmptyEach = errors.New("element rules must not be empty")

	// ErrInvalidCoercion indicates an unknown coercion name.
	ErrInvalidCoercion = errors.New("invalid coercion")

	// ErrCoercionFailed indicates type coercion failed.
	ErrCoercionFailed = errors.New("type coercion failed")

	// ErrTooManyRules indicates a mapping exceeds MaxRulesPerMapping.
	ErrTooManyRules = errors.New("mapping has too many rules")

	// ErrMappingNotFound indicates no stored mapping has the requested name.
	ErrMappingNotFound = errors.New("mapping not found")

	// ErrEmptyMappingName indicates a mapping stored without a name.
	ErrEmptyMappingName = errors.New("mapping name is required")
)
