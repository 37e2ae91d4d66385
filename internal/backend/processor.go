package backend

import (
	"errors"
	"strconv"

	"github.com/funvibe/tlua/internal/diagnostics"
	"github.com/funvibe/tlua/internal/evaluator"
	"github.com/funvibe/tlua/internal/pipeline"
	"github.com/funvibe/tlua/internal/token"
)

// ExecutionProcessor is the pipeline stage that runs a Backend.
type ExecutionProcessor struct {
	Backend Backend
	// Results holds the values of a top-level return after a successful run.
	Results []evaluator.Object
}

// NewExecutionProcessor creates a new pipeline step for the given backend
func NewExecutionProcessor(b Backend) *ExecutionProcessor {
	return &ExecutionProcessor{Backend: b}
}

func (p *ExecutionProcessor) Process(ctx *pipeline.PipelineContext) *pipeline.PipelineContext {
	// If previous steps failed, don't run execution
	if ctx.AstRoot == nil || len(ctx.Errors) > 0 {
		return ctx
	}

	results, err := p.Backend.Run(ctx)
	if err != nil {
		var evalErr *evaluator.Error
		if errors.As(err, &evalErr) {
			p.handleEvaluatorError(ctx, evalErr)
		} else {
			ctx.AddError(diagnostics.NewError(diagnostics.ErrR001, token.Token{}, err.Error()))
		}
		return ctx
	}
	p.Results = results
	return ctx
}

func (p *ExecutionProcessor) handleEvaluatorError(ctx *pipeline.PipelineContext, err *evaluator.Error) {
	tok := token.Token{Line: err.Line, Column: err.Column}
	errMsg := err.Error()

	// Innermost call first.
	if len(err.StackTrace) > 0 {
		errMsg += "\nStack trace:"
		for _, frame := range err.StackTrace {
			file := frame.File
			if file == "" {
				file = ctx.FilePath
			}
			errMsg += "\n  at " + file + ":" + strconv.Itoa(frame.Line) + " (called " + frame.Name + ")"
		}
	}

	ctx.AddError(diagnostics.NewError(diagnostics.ErrR001, tok, errMsg))
}
