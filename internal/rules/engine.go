package rules

import (
	"github.com/solatis/keyshift/internal/log"
	"github.com/solatis/keyshift/internal/types"
)

// Engine compiles and runs mappings for the service and CLI layers.
// Holds no per-request state; safe for concurrent use.
type Engine struct {
	logger log.Logger
}

// NewEngine creates a rules engine. A nil logger disables diagnostics.
func NewEngine(logger log.Logger) *Engine {
	return &Engine{
		logger: log.NewLogger(logger).WithFields(log.Fields{log.ModuleField: "rules"}),
	}
}

// Run compiles mapping and applies it to source.
// Only compilation can fail; execution always yields a document.
func (e *Engine) Run(mapping *types.Mapping, source types.Document) (types.Document, error) {
	compiled, err := Compile(mapping)
	if err != nil {
		return nil, err
	}
	return e.Execute(compiled, source), nil
}

// Execute applies an already compiled mapping to source.
func (e *Engine) Execute(mapping *CompiledMapping, source types.Document) types.Document {
	return Execute(mapping, source, e.logger)
}
