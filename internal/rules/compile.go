// internal/rules/compile.go
package rules

import (
	"fmt"

	"github.com/solatis/keyshift/internal/keypath"
	"github.com/solatis/keyshift/internal/types"
)

/*
 * Rule-set compilation and validation.
 *
 * Compiles types.Mapping to CompiledMapping with parsed paths, converted
 * literals and resolved coercions. All shape errors in a rule set surface
 * here so execution can stay error-free.
 *
 * Validation per rule:
 *   1. Target present and a valid path, depth <= MaxPathDepth
 *   2. Exactly one of source or value
 *   3. Element rules require a source, at least one nested rule and no
 *      coercion
 *   4. Coerce names a known field type; literals must coerce successfully
 *
 * Rule order is preserved exactly. Later rules overwrite earlier ones on the
 * same target, so reordering would change results.
 */

// RuleKind identifies which engine operation a compiled rule maps to.
type RuleKind int

const (
	RuleCopy RuleKind = iota
	RuleLiteral
	RuleEach
)

func (k RuleKind) String() string {
	switch k {
	case RuleCopy:
		return "copy"
	case RuleLiteral:
		return "literal"
	case RuleEach:
		return "each"
	default:
		return "unknown"
	}
}

// CompiledRule is a validated rule ready for execution.
type CompiledRule struct {
	Kind       RuleKind
	Source     keypath.Path
	Target     keypath.Path
	Value      types.Value // literal, already coerced
	Coerce     FieldType
	CopySource bool           // seeds each element's sub-transform
	Each       []CompiledRule // element rules, RuleEach only
}

// CompiledMapping is a validated rule set.
type CompiledMapping struct {
	ID         types.MappingID
	Name       string
	CopySource bool
	Rules      []CompiledRule
}

// Compile validates and pre-processes a mapping for execution.
func Compile(mapping *types.Mapping) (*CompiledMapping, error) {
	if n := countRules(mapping.Rules); n > types.MaxRulesPerMapping {
		return nil, fmt.Errorf("%w: %d > %d", types.ErrTooManyRules, n, types.MaxRulesPerMapping)
	}

	rules, err := compileRules(mapping.Rules, "rule")
	if err != nil {
		return nil, err
	}

	return &CompiledMapping{
		ID:         mapping.ID,
		Name:       mapping.Name,
		CopySource: mapping.CopySource,
		Rules:      rules,
	}, nil
}

// countRules counts rules at every nesting level.
func countRules(rules []types.Rule) int {
	n := len(rules)
	for _, rule := range rules {
		n += countRules(rule.Each)
	}
	return n
}

// compileRules compiles a rule list, labelling errors with the rule position
// ("rule 2: each 0: target: path is empty").
func compileRules(rules []types.Rule, label string) ([]CompiledRule, error) {
	compiled := make([]CompiledRule, 0, len(rules))
	for i, rule := range rules {
		cr, err := compileRule(rule)
		if err != nil {
			return nil, fmt.Errorf("%s %d: %w", label, i, err)
		}
		compiled = append(compiled, cr)
	}
	return compiled, nil
}

func compileRule(rule types.Rule) (CompiledRule, error) {
	if rule.Target == "" {
		return CompiledRule{}, types.ErrMissingTarget
	}
	target, err := parseRulePath(rule.Target)
	if err != nil {
		return CompiledRule{}, fmt.Errorf("target: %w", err)
	}

	fieldType, err := ParseFieldType(rule.Coerce)
	if err != nil {
		return CompiledRule{}, err
	}

	// A present but empty list is still an element rule
	if rule.Each != nil {
		return compileEachRule(rule, target, fieldType)
	}

	hasSource := rule.Source != ""
	if hasSource == rule.HasValue() {
		return CompiledRule{}, types.ErrAmbiguousRule
	}

	if !hasSource {
		literal, err := types.FromAny(rule.Value)
		if err != nil {
			return CompiledRule{}, fmt.Errorf("value: %w", err)
		}
		if fieldType != FieldTypeUnspecified {
			coerced, err := Coerce(literal, fieldType)
			if err != nil {
				return CompiledRule{}, fmt.Errorf("value as %s: %w", fieldType, err)
			}
			literal = coerced.Value
		}
		return CompiledRule{
			Kind:   RuleLiteral,
			Target: target,
			Value:  literal,
			Coerce: fieldType,
		}, nil
	}

	source, err := parseRulePath(rule.Source)
	if err != nil {
		return CompiledRule{}, fmt.Errorf("source: %w", err)
	}
	return CompiledRule{
		Kind:   RuleCopy,
		Source: source,
		Target: target,
		Coerce: fieldType,
	}, nil
}

// compileEachRule validates an element rule and its nested rules.
func compileEachRule(rule types.Rule, target keypath.Path, fieldType FieldType) (CompiledRule, error) {
	if rule.HasValue() {
		return CompiledRule{}, types.ErrAmbiguousRule
	}
	if rule.Source == "" {
		return CompiledRule{}, types.ErrEachWithoutSource
	}
	if fieldType != FieldTypeUnspecified {
		return CompiledRule{}, fmt.Errorf("%w: element rules cannot be coerced", types.ErrInvalidCoercion)
	}
	if len(rule.Each) == 0 {
		return CompiledRule{}, types.ErrEmptyEach
	}
	source, err := parseRulePath(rule.Source)
	if err != nil {
		return CompiledRule{}, fmt.Errorf("source: %w", err)
	}

	each, err := compileRules(rule.Each, "each")
	if err != nil {
		return CompiledRule{}, err
	}

	return CompiledRule{
		Kind:       RuleEach,
		Source:     source,
		Target:     target,
		CopySource: rule.CopySource,
		Each:       each,
	}, nil
}

// parseRulePath parses a rule path and enforces MaxPathDepth.
func parseRulePath(s string) (keypath.Path, error) {
	p, err := keypath.ParsePath(s)
	if err != nil {
		return nil, err
	}
	if p.Depth() > types.MaxPathDepth {
		return nil, fmt.Errorf("%w: %q has %d segments", types.ErrPathTooDeep, s, p.Depth())
	}
	return p, nil
}
