package api

import (
	"fmt"
	"time"

	"github.com/mitchellh/mapstructure"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/solatis/keyshift/internal/core/store"
	"github.com/solatis/keyshift/internal/types"
)

// Wire field names.
const (
	fieldSource     = "source"
	fieldSources    = "sources"
	fieldMapping    = "mapping"
	fieldRules      = "rules"
	fieldCopySource = "copy_source"
	fieldName       = "name"
	fieldResult     = "result"
	fieldResults    = "results"
	fieldMappingID  = "mapping_id"
	fieldMappings   = "mappings"
	fieldRuleCount  = "rule_count"
)

// documentToStruct converts a document for the wire. structpb has no
// "absent" value, so absent entries are dropped by ToMap.
func documentToStruct(doc types.Document) (*structpb.Struct, error) {
	s, err := structpb.NewStruct(doc.ToMap())
	if err != nil {
		return nil, fmt.Errorf("failed to encode document: %w", err)
	}
	return s, nil
}

func structToDocument(s *structpb.Struct) (types.Document, error) {
	if s == nil {
		return types.Document{}, nil
	}
	return types.DocumentFromMap(s.AsMap())
}

// decodeMapping decodes a mapping definition from a request map. Unknown
// keys are rejected so misspelled rule fields fail loudly.
func decodeMapping(raw map[string]any) (*types.Mapping, error) {
	var mapping types.Mapping
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:      &mapping,
		ErrorUnused: true,
		TagName:     "mapstructure",
	})
	if err != nil {
		return nil, err
	}
	if err := dec.Decode(raw); err != nil {
		return nil, fmt.Errorf("invalid mapping definition: %w", err)
	}
	return &mapping, nil
}

// ruleToMap renders a rule in wire form, omitting unset fields.
func ruleToMap(r types.Rule) map[string]any {
	m := map[string]any{"target": r.Target}
	if r.Source != "" {
		m["source"] = r.Source
	}
	if r.HasValue() {
		m["value"] = r.Value
	}
	if r.Coerce != "" {
		m["coerce"] = r.Coerce
	}
	if r.CopySource {
		m["copy_source"] = true
	}
	if len(r.Each) > 0 {
		each := make([]any, len(r.Each))
		for i, nested := range r.Each {
			each[i] = ruleToMap(nested)
		}
		m["each"] = each
	}
	return m
}

func mappingToMap(m *store.StoredMapping, withRules bool) map[string]any {
	out := map[string]any{
		fieldMappingID:  string(m.ID),
		fieldName:       m.Name,
		fieldCopySource: m.CopySource,
		fieldRuleCount:  len(m.Rules),
		"created_at":    m.CreatedAt.Format(time.RFC3339),
		"updated_at":    m.UpdatedAt.Format(time.RFC3339),
	}
	if withRules {
		rules := make([]any, len(m.Rules))
		for i, r := range m.Rules {
			rules[i] = ruleToMap(r)
		}
		out[fieldRules] = rules
	}
	return out
}
