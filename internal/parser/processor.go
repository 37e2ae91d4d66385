package parser

import (
	"github.com/funvibe/tlua/internal/diagnostics"
	"github.com/funvibe/tlua/internal/pipeline"
	"github.com/funvibe/tlua/internal/token"
)

type ParserProcessor struct{}

func (pp *ParserProcessor) Process(ctx *pipeline.PipelineContext) *pipeline.PipelineContext {
	if ctx.TokenStream == nil {
		ctx.AddError(diagnostics.NewError(diagnostics.ErrP001, token.Token{}, "parser: token stream is nil"))
		return ctx
	}

	parser := New(ctx.TokenStream, ctx)
	ctx.AstRoot = parser.ParseProgram()
	ctx.AstRoot.File = ctx.FilePath

	// Errors are already added to the context by the parser instance.
	return ctx
}
