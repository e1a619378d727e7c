// internal/types/value.go
package types

import (
	"github.com/solatis/keyshift/internal/json"
)

/*
 * Tagged-union document values.
 *
 * The zero Value is Absent: "no value supplied". It is distinct from Null,
 * which is a present JSON null. Absent is never stored inside a Document or a
 * sequence; readers use it to report a miss and writers skip it.
 *
 * Numbers are float64, matching what JSON decoders produce. Integers supplied
 * through Int or FromAny are converted on entry.
 *
 * Document and sequence payloads are shared on copy (Value is a small struct
 * holding a map or slice header). Use Clone before handing a value to code
 * that may mutate it.
 */

// Kind discriminates the variants of Value.
type Kind uint8

const (
	KindAbsent Kind = iota
	KindNull
	KindBool
	KindNumber
	KindString
	KindDocument
	KindSequence
)

func (k Kind) String() string {
	switch k {
	case KindAbsent:
		return "absent"
	case KindNull:
		return "null"
	case KindBool:
		return "bool"
	case KindNumber:
		return "number"
	case KindString:
		return "string"
	case KindDocument:
		return "document"
	case KindSequence:
		return "sequence"
	default:
		return "unknown"
	}
}

// Value is one node of a document tree.
type Value struct {
	kind Kind
	b    bool
	n    float64
	s    string
	doc  Document
	seq  []Value
}

// Document maps field names to values.
type Document map[string]Value

// Null returns a present null value.
func Null() Value { return Value{kind: KindNull} }

// Bool returns a boolean value.
func Bool(b bool) Value { return Value{kind: KindBool, b: b} }

// Number returns a numeric value.
func Number(n float64) Value { return Value{kind: KindNumber, n: n} }

// Int returns a numeric value from an int.
func Int(i int) Value { return Value{kind: KindNumber, n: float64(i)} }

// String returns a string value.
func String(s string) Value { return Value{kind: KindString, s: s} }

// Doc wraps a Document. A nil Document becomes an empty one so writers can
// always assign into it.
func Doc(d Document) Value {
	if d == nil {
		d = Document{}
	}
	return Value{kind: KindDocument, doc: d}
}

// Seq wraps a sequence. No arguments yields an empty, non-nil sequence.
func Seq(vs ...Value) Value {
	if vs == nil {
		vs = []Value{}
	}
	return Value{kind: KindSequence, seq: vs}
}

func (v Value) Kind() Kind { return v.kind }

// IsAbsent reports whether v is the "no value supplied" sentinel.
func (v Value) IsAbsent() bool { return v.kind == KindAbsent }

// IsScalar reports whether v is null, a bool, a number or a string.
func (v Value) IsScalar() bool {
	switch v.kind {
	case KindNull, KindBool, KindNumber, KindString:
		return true
	default:
		return false
	}
}

func (v Value) AsBool() (bool, bool) {
	return v.b, v.kind == KindBool
}

func (v Value) AsNumber() (float64, bool) {
	return v.n, v.kind == KindNumber
}

func (v Value) AsString() (string, bool) {
	return v.s, v.kind == KindString
}

func (v Value) AsDocument() (Document, bool) {
	return v.doc, v.kind == KindDocument
}

func (v Value) AsSequence() ([]Value, bool) {
	return v.seq, v.kind == KindSequence
}

// Clone returns a deep copy of v.
func (v Value) Clone() Value {
	switch v.kind {
	case KindDocument:
		return Doc(v.doc.Clone())
	case KindSequence:
		out := make([]Value, len(v.seq))
		for i, elem := range v.seq {
			out[i] = elem.Clone()
		}
		return Seq(out...)
	default:
		return v
	}
}

// Equal reports deep equality. Absent equals only Absent.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case KindAbsent, KindNull:
		return true
	case KindBool:
		return v.b == o.b
	case KindNumber:
		return v.n == o.n
	case KindString:
		return v.s == o.s
	case KindDocument:
		return v.doc.Equal(o.doc)
	case KindSequence:
		if len(v.seq) != len(o.seq) {
			return false
		}
		for i := range v.seq {
			if !v.seq[i].Equal(o.seq[i]) {
				return false
			}
		}
		return true
	default:
		return false
	}
}

// Clone returns a deep copy of d.
func (d Document) Clone() Document {
	if d == nil {
		return nil
	}
	out := make(Document, len(d))
	for k, v := range d {
		out[k] = v.Clone()
	}
	return out
}

// Equal reports deep equality. A nil Document equals an empty one.
func (d Document) Equal(o Document) bool {
	if len(d) != len(o) {
		return false
	}
	for k, v := range d {
		ov, ok := o[k]
		if !ok || !v.Equal(ov) {
			return false
		}
	}
	return true
}

// MarshalJSON implements json.Marshaler. Absent encodes as null.
func (v Value) MarshalJSON() ([]byte, error) {
	return json.Marshal(v.ToAny())
}

// UnmarshalJSON implements json.Unmarshaler.
func (v *Value) UnmarshalJSON(data []byte) error {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	parsed, err := FromAny(raw)
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}

// MarshalJSON implements json.Marshaler.
func (d Document) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.ToMap())
}

// UnmarshalJSON implements json.Unmarshaler.
// Rejects payloads whose top level is not an object.
func (d *Document) UnmarshalJSON(data []byte) error {
	parsed, err := ParseDocument(data)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}
