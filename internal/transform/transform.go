// Package transform restructures one document into another.
//
// A Transform holds a read-only source Document and builds a destination
// Document through successive Add, Apply and ApplyEach calls. Missing source
// paths are skipped silently; shape conflicts in the destination are resolved
// by keypath.Set overwriting them. Nothing in this package returns an error:
// the only way to see that a rule did nothing is to inspect Result.
//
// A Transform is single-use and not safe for concurrent mutation. Distinct
// instances, such as the per-element sub-transforms TraverseEach creates,
// are independent.
package transform

import (
	"github.com/solatis/keyshift/internal/keypath"
	"github.com/solatis/keyshift/internal/log"
	"github.com/solatis/keyshift/internal/types"
)

// Transform is one source-to-destination session.
type Transform struct {
	source      types.Document
	destination types.Document
	logger      log.Logger
}

// Option configures a Transform.
type Option func(*Transform)

// WithCopySource seeds the destination with every top-level scalar field
// of the source before any rule runs. Nested documents and sequences are
// not copied.
func WithCopySource() Option {
	return func(t *Transform) {
		for key, val := range t.source {
			if val.IsScalar() {
				t.destination[key] = val
			}
		}
	}
}

// WithLogger routes diagnostic notices about skipped rules to l.
func WithLogger(l log.Logger) Option {
	return func(t *Transform) {
		t.logger = log.NewLogger(l).WithFields(log.Fields{log.ModuleField: "transform"})
	}
}

// New creates a Transform over source. The source is never modified.
func New(source types.Document, opts ...Option) *Transform {
	t := &Transform{
		source:      source,
		destination: types.Document{},
		logger:      log.NewNoopLogger(),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Create builds a Transform and runs setup against it.
func Create(source types.Document, setup func(*Transform), opts ...Option) *Transform {
	t := New(source, opts...)
	if setup != nil {
		setup(t)
	}
	return t
}

// Get reads path from the source. Sequences come back flattened.
func (t *Transform) Get(path string) (types.Value, bool) {
	return keypath.Get(t.source, path)
}

// Add writes a copy of value at target unconditionally. Only the Absent
// sentinel is skipped; null, zero, false and empty strings are written.
// Values read through Get may be passed straight back in.
func (t *Transform) Add(value types.Value, target string) {
	if value.IsAbsent() {
		return
	}
	t.destination = keypath.Set(t.destination, target, value.Clone())
}

// Apply copies the value at source into the destination at target.
// A source path that does not resolve leaves the destination unchanged.
func (t *Transform) Apply(source, target string) {
	val, ok := keypath.Get(t.source, source)
	if !ok {
		t.logger.Trace("source path not found, rule skipped", log.Fields{"source": source, "target": target})
		return
	}
	// Clone so later writes below target never reach the source
	t.destination = keypath.Set(t.destination, target, val.Clone())
}

// Result returns the destination built so far. Calling it again returns the
// same Document; it does not reset state.
func (t *Transform) Result() types.Document {
	return t.destination
}
