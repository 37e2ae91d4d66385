package instrument

import (
	"github.com/funvibe/tlua/internal/diagnostics"
	"github.com/funvibe/tlua/internal/pipeline"
	"github.com/funvibe/tlua/internal/token"
)

// InstrumentProcessor runs the pass on ctx.AstRoot using the checks flag the
// parser settled on. Units with parse errors are left alone.
type InstrumentProcessor struct{}

func (ip *InstrumentProcessor) Process(ctx *pipeline.PipelineContext) *pipeline.PipelineContext {
	if ctx.AstRoot == nil || ctx.HasErrors() {
		return ctx
	}

	pass := New(Options{
		Enabled:    ctx.ChecksEnabled,
		Registry:   ctx.Options.Registry,
		TempPrefix: ctx.Options.TempPrefix,
	})
	if err := pass.Run(ctx.AstRoot); err != nil {
		ctx.AddError(diagnostics.AsDiagnostic(err, diagnostics.ErrI001, token.Token{}))
	}
	return ctx
}
