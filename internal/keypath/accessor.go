// internal/keypath/accessor.go
package keypath

import (
	"github.com/solatis/keyshift/internal/types"
)

/*
 * Path resolution and assignment over nested Documents.
 *
 * Get semantics:
 *   - Missing key at any level: miss
 *   - Non-document value with segments remaining: miss
 *   - Last segment: value as stored, except sequences come back flattened
 *
 * Set semantics (best effort, no correction):
 *   - Last segment: destructive overwrite regardless of the previous kind
 *   - Intermediate segment: descend into an existing Document, otherwise
 *     replace whatever is stored there with a fresh Document
 *
 * Set mutates the Document it is given and returns it. A nil Document is
 * replaced by a new one, so callers must keep the returned value.
 */

// Get resolves path inside doc. The bool is false when the path does not
// resolve or is not a valid path.
func Get(doc types.Document, path string) (types.Value, bool) {
	p, err := ParsePath(path)
	if err != nil {
		return types.Value{}, false
	}
	return GetPath(doc, p)
}

// GetPath resolves a pre-parsed path inside doc.
func GetPath(doc types.Document, path Path) (types.Value, bool) {
	if len(path) == 0 {
		return types.Value{}, false
	}
	return resolve(doc, path)
}

// resolve walks one segment per call.
func resolve(doc types.Document, path Path) (types.Value, bool) {
	val, ok := doc[path[0]]
	if !ok || val.IsAbsent() {
		return types.Value{}, false
	}

	remaining := path[1:]
	if len(remaining) == 0 {
		if seq, ok := val.AsSequence(); ok {
			return types.Seq(Flatten(seq)...), true
		}
		return val, true
	}

	switch val.Kind() {
	case types.KindDocument:
		next, _ := val.AsDocument()
		return resolve(next, remaining)
	default:
		// Scalar or sequence but path continues
		return types.Value{}, false
	}
}

// Set writes val at path inside doc and returns doc.
// Invalid paths and Absent values leave doc unchanged.
func Set(doc types.Document, path string, val types.Value) types.Document {
	p, err := ParsePath(path)
	if err != nil {
		return doc
	}
	return SetPath(doc, p, val)
}

// SetPath writes val at a pre-parsed path inside doc and returns doc.
func SetPath(doc types.Document, path Path, val types.Value) types.Document {
	if len(path) == 0 || val.IsAbsent() {
		return doc
	}
	return assign(doc, path, val)
}

func assign(doc types.Document, path Path, val types.Value) types.Document {
	if doc == nil {
		doc = types.Document{}
	}

	first := path[0]
	if len(path) == 1 {
		doc[first] = val
		return doc
	}

	// Non-document values at first are discarded, not merged
	sub, ok := doc[first].AsDocument()
	if !ok {
		sub = nil
	}
	doc[first] = types.Doc(assign(sub, path[1:], val))
	return doc
}
