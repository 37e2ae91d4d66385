package lexer

import "github.com/funvibe/tlua/internal/pipeline"

// LexerProcessor attaches a token stream over the unit's source to the context.
type LexerProcessor struct{}

func (lp *LexerProcessor) Process(ctx *pipeline.PipelineContext) *pipeline.PipelineContext {
	ctx.TokenStream = NewTokenStream(New(ctx.SourceCode))
	return ctx
}
