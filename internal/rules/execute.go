// internal/rules/execute.go
package rules

import (
	"github.com/solatis/keyshift/internal/log"
	"github.com/solatis/keyshift/internal/transform"
	"github.com/solatis/keyshift/internal/types"
)

/*
 * Rule-set execution.
 *
 * Runs a CompiledMapping against one source document through a single
 * transform.Transform, in rule order:
 *   - copy:    Apply, or Get -> Coerce -> Add when a coercion is set
 *   - literal: Add
 *   - each:    ApplyEach; every element gets its own sub-transform running
 *              the nested rules, and its Result becomes the mapped element
 *
 * Execution never fails. Missing paths, non-sequence sources and coercion
 * failures skip the rule; the latter two are reported through the logger.
 */

// Execute applies mapping to source and returns the destination document.
func Execute(mapping *CompiledMapping, source types.Document, logger log.Logger) types.Document {
	logger = log.NewLogger(logger).WithFields(log.Fields{"mapping": mapping.Name})
	tr := transform.New(source, transformOptions(mapping.CopySource, logger)...)
	applyRules(tr, mapping.Rules, logger)
	return tr.Result()
}

func transformOptions(copySource bool, logger log.Logger) []transform.Option {
	opts := []transform.Option{transform.WithLogger(logger)}
	if copySource {
		opts = append(opts, transform.WithCopySource())
	}
	return opts
}

func applyRules(tr *transform.Transform, rules []CompiledRule, logger log.Logger) {
	for _, rule := range rules {
		applyRule(tr, rule, logger)
	}
}

func applyRule(tr *transform.Transform, rule CompiledRule, logger log.Logger) {
	target := rule.Target.String()

	switch rule.Kind {
	case RuleLiteral:
		tr.Add(rule.Value, target)

	case RuleCopy:
		source := rule.Source.String()
		if rule.Coerce == FieldTypeUnspecified {
			tr.Apply(source, target)
			return
		}
		val, ok := tr.Get(source)
		if !ok {
			return
		}
		coerced, err := Coerce(val, rule.Coerce)
		if err != nil {
			logger.Warn(err, "coercion failed, rule skipped", log.Fields{
				"source": source,
				"target": target,
				"coerce": rule.Coerce.String(),
				"kind":   val.Kind(),
			})
			return
		}
		tr.Add(coerced.Value, target)

	case RuleEach:
		opts := transformOptions(rule.CopySource, logger)
		tr.ApplyEach(rule.Source.String(), target, func(elem types.Document) types.Document {
			sub := transform.New(elem, opts...)
			applyRules(sub, rule.Each, logger)
			return sub.Result()
		})
	}
}
