// internal/transform/array.go
package transform

import (
	"github.com/solatis/keyshift/internal/keypath"
	"github.com/solatis/keyshift/internal/log"
	"github.com/solatis/keyshift/internal/types"
)

/*
 * Array-aware rules.
 *
 * All three operations read the source path through keypath.Get, so nested
 * sequences arrive flattened and positions refer to the flattened order.
 *
 * ApplyEach is all-or-nothing: the mapped sequence is accumulated in memory
 * and written with a single Set. A path that does not resolve, a value that
 * is not a sequence, or a sequence holding any non-document element leaves
 * the target untouched. A present but empty sequence writes [].
 *
 * Traverse and TraverseEach skip non-document elements one at a time and
 * never write to the destination themselves.
 */

// ElementFunc maps one source element to one destination element.
type ElementFunc func(types.Document) types.Document

// ApplyEach maps every document in the sequence at source through fn and
// writes the results, in source order, at target.
func (t *Transform) ApplyEach(source, target string, fn ElementFunc) {
	elements, ok := t.documents(source)
	if !ok {
		return
	}
	for i, elem := range elements {
		if elem == nil {
			t.logger.Debug("sequence element is not a document, rule skipped",
				log.Fields{"source": source, "target": target, "index": i})
			return
		}
	}

	result := make([]types.Value, 0, len(elements))
	for _, elem := range elements {
		result = append(result, types.Doc(fn(elem.Clone())))
	}
	t.destination = keypath.Set(t.destination, target, types.Seq(result...))
}

// Traverse calls fn once per document in the sequence at source with its
// zero-based position. fn receives a copy; mutating it does not affect the
// source.
func (t *Transform) Traverse(source string, fn func(int, types.Document)) {
	elements, ok := t.documents(source)
	if !ok {
		return
	}
	for i, elem := range elements {
		if elem == nil {
			t.logger.Debug("sequence element is not a document, element skipped",
				log.Fields{"source": source, "index": i})
			continue
		}
		fn(i, elem.Clone())
	}
}

// TraverseEach is Traverse with a fresh Transform scoped to each element.
// The sub-transform shares this instance's logger.
func (t *Transform) TraverseEach(source string, fn func(int, *Transform), opts ...Option) {
	t.Traverse(source, func(i int, elem types.Document) {
		sub := New(elem, append([]Option{t.inheritLogger()}, opts...)...)
		fn(i, sub)
	})
}

// documents resolves source to a flattened sequence. Non-document elements
// are returned as nil entries so callers decide between skipping the element
// and skipping the rule.
func (t *Transform) documents(source string) ([]types.Document, bool) {
	val, ok := keypath.Get(t.source, source)
	if !ok {
		t.logger.Trace("source path not found, rule skipped", log.Fields{"source": source})
		return nil, false
	}

	seq, ok := val.AsSequence()
	if !ok {
		t.logger.Debug("source value is not a sequence, rule skipped",
			log.Fields{"source": source, "kind": val.Kind()})
		return nil, false
	}

	out := make([]types.Document, len(seq))
	for i, elem := range seq {
		doc, ok := elem.AsDocument()
		if !ok {
			continue
		}
		if doc == nil {
			doc = types.Document{}
		}
		out[i] = doc
	}
	return out, true
}

func (t *Transform) inheritLogger() Option {
	logger := t.logger
	return func(sub *Transform) {
		sub.logger = logger
	}
}
