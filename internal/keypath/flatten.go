package keypath

import "github.com/solatis/keyshift/internal/types"

// Flatten removes every level of sequence nesting from seq, preserving
// element order. Documents are kept as elements; sequences stored inside
// them are left alone.
func Flatten(seq []types.Value) []types.Value {
	out := make([]types.Value, 0, len(seq))
	for _, v := range seq {
		if inner, ok := v.AsSequence(); ok {
			out = append(out, Flatten(inner)...)
			continue
		}
		out = append(out, v)
	}
	return out
}
