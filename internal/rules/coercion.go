// internal/rules/coercion.go
package rules

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/solatis/keyshift/internal/json"
	"github.com/solatis/keyshift/internal/types"
)

/*
 * Type coercion for rule values.
 *
 * Implements a 5-type system (NUMERIC, TEXT, BOOLEAN, ANY, UNSPECIFIED) with
 * strict and lenient modes. A rule's coerce field selects one; copy rules
 * coerce the resolved source value before writing it, literal rules are
 * coerced once at compile time.
 *
 * Null passes through every mode unchanged (IsNull). Coercion failure skips
 * the rule at execution time and fails compilation for literals.
 *
 * Type modes:
 *   - NUMERIC: Strict - strings parse to numbers, booleans rejected
 *   - TEXT: Lenient - everything renders to a string, structures as JSON
 *   - BOOLEAN: Strict - booleans only
 *   - ANY: Lenient - original value preserved
 */

// FieldType selects the coercion applied by a rule.
type FieldType int

const (
	FieldTypeUnspecified FieldType = iota
	FieldTypeNumeric
	FieldTypeText
	FieldTypeBoolean
	FieldTypeAny
)

func (ft FieldType) String() string {
	switch ft {
	case FieldTypeNumeric:
		return "numeric"
	case FieldTypeText:
		return "text"
	case FieldTypeBoolean:
		return "boolean"
	case FieldTypeAny:
		return "any"
	default:
		return ""
	}
}

// ParseFieldType maps a rule's coerce name to a FieldType.
// The empty string is FieldTypeUnspecified (no coercion).
func ParseFieldType(s string) (FieldType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "":
		return FieldTypeUnspecified, nil
	case "numeric", "number":
		return FieldTypeNumeric, nil
	case "text", "string":
		return FieldTypeText, nil
	case "boolean", "bool":
		return FieldTypeBoolean, nil
	case "any":
		return FieldTypeAny, nil
	default:
		return FieldTypeUnspecified, fmt.Errorf("%w: %q", types.ErrInvalidCoercion, s)
	}
}

// CoercionResult holds the coerced value or indicates null.
type CoercionResult struct {
	Value  types.Value // coerced value; Null() when IsNull
	IsNull bool        // true if input was null
}

// Coerce attempts to convert value to the expected field type.
// Returns CoercionResult with IsNull=true for null input.
// Returns ErrCoercionFailed for impossible coercions and absent input.
func Coerce(value types.Value, fieldType FieldType) (CoercionResult, error) {
	switch value.Kind() {
	case types.KindAbsent:
		return CoercionResult{}, types.ErrCoercionFailed
	case types.KindNull:
		return CoercionResult{Value: types.Null(), IsNull: true}, nil
	}

	switch fieldType {
	case FieldTypeNumeric:
		return coerceNumeric(value)
	case FieldTypeText:
		return coerceText(value)
	case FieldTypeBoolean:
		return coerceBoolean(value)
	case FieldTypeAny, FieldTypeUnspecified:
		return CoercionResult{Value: value}, nil
	default:
		return CoercionResult{}, types.ErrCoercionFailed
	}
}

// coerceNumeric accepts numbers and numeric strings. Whitespace-only strings
// and booleans fail.
func coerceNumeric(value types.Value) (CoercionResult, error) {
	switch value.Kind() {
	case types.KindNumber:
		return CoercionResult{Value: value}, nil
	case types.KindString:
		s, _ := value.AsString()
		s = strings.TrimSpace(s)
		if s == "" {
			return CoercionResult{}, types.ErrCoercionFailed
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return CoercionResult{}, types.ErrCoercionFailed
		}
		return CoercionResult{Value: types.Number(f)}, nil
	default:
		return CoercionResult{}, types.ErrCoercionFailed
	}
}

// coerceText renders any value as a string.
func coerceText(value types.Value) (CoercionResult, error) {
	switch value.Kind() {
	case types.KindString:
		return CoercionResult{Value: value}, nil
	case types.KindNumber:
		n, _ := value.AsNumber()
		return CoercionResult{Value: types.String(strconv.FormatFloat(n, 'f', -1, 64))}, nil
	case types.KindBool:
		b, _ := value.AsBool()
		return CoercionResult{Value: types.String(strconv.FormatBool(b))}, nil
	default:
		encoded, err := json.Marshal(value.ToAny())
		if err != nil {
			return CoercionResult{}, types.ErrCoercionFailed
		}
		return CoercionResult{Value: types.String(string(encoded))}, nil
	}
}

// coerceBoolean rejects strings and numbers to avoid "true" vs 1 ambiguity.
func coerceBoolean(value types.Value) (CoercionResult, error) {
	if value.Kind() == types.KindBool {
		return CoercionResult{Value: value}, nil
	}
	return CoercionResult{}, types.ErrCoercionFailed
}
