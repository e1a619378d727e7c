// Package json centralizes the JSON codec used across keyshift.
package json

import (
	json "github.com/bytedance/sonic"
	"github.com/tidwall/gjson"
)

func Unmarshal(b []byte, v any) error {
	return json.Unmarshal(b, v)
}

// Marshal encodes v with sorted map keys so equal values encode to equal
// bytes.
func Marshal(v any) ([]byte, error) {
	return json.ConfigStd.Marshal(v)
}

func MarshalIndent(v any, prefix, indent string) ([]byte, error) {
	return json.ConfigStd.MarshalIndent(v, prefix, indent)
}

// Valid reports whether b is well-formed JSON without decoding it.
func Valid(b []byte) bool {
	return gjson.ValidBytes(b)
}
