package types

import (
	stdjson "encoding/json"
	"fmt"

	"github.com/solatis/keyshift/internal/json"
)

// FromAny converts a decoded JSON or YAML value into a Value.
// Accepts the shapes encoding/json, sonic, yaml.v3 and structpb.AsMap produce,
// plus Value, Document and []Value pass-through. Integer and float widths
// are normalized to float64. Returns ErrUnsupportedValue for anything else.
func FromAny(x any) (Value, error) {
	switch v := x.(type) {
	case nil:
		return Null(), nil
	case Value:
		return v, nil
	case Document:
		return Doc(v), nil
	case []Value:
		return Seq(v...), nil
	case bool:
		return Bool(v), nil
	case string:
		return String(v), nil
	case float64:
		return Number(v), nil
	case float32:
		return Number(float64(v)), nil
	case int:
		return Number(float64(v)), nil
	case int8:
		return Number(float64(v)), nil
	case int16:
		return Number(float64(v)), nil
	case int32:
		return Number(float64(v)), nil
	case int64:
		return Number(float64(v)), nil
	case uint:
		return Number(float64(v)), nil
	case uint8:
		return Number(float64(v)), nil
	case uint16:
		return Number(float64(v)), nil
	case uint32:
		return Number(float64(v)), nil
	case uint64:
		return Number(float64(v)), nil
	case stdjson.Number:
		f, err := v.Float64()
		if err != nil {
			return Value{}, fmt.Errorf("%w: json number %q", ErrUnsupportedValue, v.String())
		}
		return Number(f), nil
	case map[string]any:
		doc, err := DocumentFromMap(v)
		if err != nil {
			return Value{}, err
		}
		return Doc(doc), nil
	case map[any]any:
		doc := make(Document, len(v))
		for k, elem := range v {
			key, ok := k.(string)
			if !ok {
				key = fmt.Sprint(k)
			}
			converted, err := FromAny(elem)
			if err != nil {
				return Value{}, fmt.Errorf("%s: %w", key, err)
			}
			doc[key] = converted
		}
		return Doc(doc), nil
	case []any:
		seq := make([]Value, len(v))
		for i, elem := range v {
			converted, err := FromAny(elem)
			if err != nil {
				return Value{}, fmt.Errorf("[%d]: %w", i, err)
			}
			seq[i] = converted
		}
		return Seq(seq...), nil
	case []map[string]any:
		seq := make([]Value, len(v))
		for i, elem := range v {
			doc, err := DocumentFromMap(elem)
			if err != nil {
				return Value{}, fmt.Errorf("[%d]: %w", i, err)
			}
			seq[i] = Doc(doc)
		}
		return Seq(seq...), nil
	case []string:
		seq := make([]Value, len(v))
		for i, elem := range v {
			seq[i] = String(elem)
		}
		return Seq(seq...), nil
	default:
		return Value{}, fmt.Errorf("%w: %T", ErrUnsupportedValue, x)
	}
}

// MustFromAny is FromAny for literals known to be convertible.
// Panics on unsupported input.
func MustFromAny(x any) Value {
	v, err := FromAny(x)
	if err != nil {
		panic(err)
	}
	return v
}

// DocumentFromMap converts a decoded object into a Document.
func DocumentFromMap(m map[string]any) (Document, error) {
	doc := make(Document, len(m))
	for k, elem := range m {
		converted, err := FromAny(elem)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", k, err)
		}
		doc[k] = converted
	}
	return doc, nil
}

// ToAny converts v back into plain Go values: nil, bool, float64, string,
// map[string]any and []any. Absent and Null both become nil.
func (v Value) ToAny() any {
	switch v.kind {
	case KindBool:
		return v.b
	case KindNumber:
		return v.n
	case KindString:
		return v.s
	case KindDocument:
		return v.doc.ToMap()
	case KindSequence:
		out := make([]any, len(v.seq))
		for i, elem := range v.seq {
			out[i] = elem.ToAny()
		}
		return out
	default:
		return nil
	}
}

// ToMap converts d into a map[string]any tree. Absent entries are dropped.
func (d Document) ToMap() map[string]any {
	if d == nil {
		return nil
	}
	out := make(map[string]any, len(d))
	for k, v := range d {
		if v.IsAbsent() {
			continue
		}
		out[k] = v.ToAny()
	}
	return out
}

// ParseDocument decodes a JSON object into a Document.
// Returns ErrInvalidJSON for malformed input and ErrNotADocument when the
// top-level value is not an object.
func ParseDocument(data []byte) (Document, error) {
	if !json.Valid(data) {
		return nil, ErrInvalidJSON
	}
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidJSON, err)
	}
	m, ok := raw.(map[string]any)
	if !ok {
		return nil, ErrNotADocument
	}
	return DocumentFromMap(m)
}
