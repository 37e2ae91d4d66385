// Package backend provides an interface for different execution backends.
package backend

import (
	"github.com/funvibe/tlua/internal/evaluator"
	"github.com/funvibe/tlua/internal/pipeline"
)

// Backend is the interface for execution backends
type Backend interface {
	// Run executes the program from pipeline context and returns the values
	// of a top-level return statement.
	Run(ctx *pipeline.PipelineContext) ([]evaluator.Object, error)

	// Name returns the backend name for display
	Name() string
}
