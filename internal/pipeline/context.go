package pipeline

import (
	"github.com/funvibe/tlua/internal/ast"
	"github.com/funvibe/tlua/internal/config"
	"github.com/funvibe/tlua/internal/diagnostics"
	"github.com/funvibe/tlua/internal/token"
)

// TokenStream is the token source the parser reads from.
type TokenStream interface {
	NextToken() token.Token
	// Peek returns the token n positions ahead without consuming it.
	Peek(n int) token.Token
}

// Options are the per-unit settings resolved from flags and the project file.
type Options struct {
	Registry   string // registry table name, e.g. "types"
	TempPrefix string // prefix for generated temporaries
	Checks     bool   // default for ChecksEnabled before pragmas are applied
}

// PipelineContext carries one compilation unit through the stages.
type PipelineContext struct {
	SourceCode  string
	FilePath    string
	TokenStream TokenStream
	AstRoot     *ast.Program
	Errors      []*diagnostics.DiagnosticError

	// ChecksEnabled is the instrumentation flag in effect when parsing finished.
	ChecksEnabled bool
	Options       Options

	// Output holds the printed instrumented source once a printer stage ran.
	Output string
}

// DefaultOptions returns options with the built-in registry and prefix.
func DefaultOptions() Options {
	return Options{Registry: config.RegistryName, TempPrefix: config.TempPrefix, Checks: true}
}

func NewPipelineContext(source string) *PipelineContext {
	return NewPipelineContextWithOptions(source, DefaultOptions())
}

func NewPipelineContextWithOptions(source string, opts Options) *PipelineContext {
	return &PipelineContext{
		SourceCode:    source,
		Options:       opts,
		ChecksEnabled: opts.Checks,
	}
}

// AddError records err, filling in the unit's file path.
func (ctx *PipelineContext) AddError(err *diagnostics.DiagnosticError) {
	if err.File == "" {
		err.File = ctx.FilePath
	}
	ctx.Errors = append(ctx.Errors, err)
}

func (ctx *PipelineContext) HasErrors() bool {
	return len(ctx.Errors) > 0
}
