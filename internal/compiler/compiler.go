// Package compiler runs the front end, the instrumentation pass and the
// printer over one unit, consulting the output cache when one is configured.
package compiler

import (
	"context"

	"github.com/funvibe/tlua/internal/cache"
	"github.com/funvibe/tlua/internal/diagnostics"
	"github.com/funvibe/tlua/internal/instrument"
	"github.com/funvibe/tlua/internal/lexer"
	"github.com/funvibe/tlua/internal/parser"
	"github.com/funvibe/tlua/internal/pipeline"
	"github.com/funvibe/tlua/internal/prettyprinter"
)

// Compiler compiles units with fixed options.
type Compiler struct {
	Options pipeline.Options
	Width   int
	// Cache is optional.
	Cache *cache.Cache
}

// Result of compiling one unit.
type Result struct {
	UnitID      string
	Output      string
	Diagnostics []*diagnostics.DiagnosticError
	// Cached is set when Output came from the cache.
	Cached bool
	// CacheErr is a failed cache read or write; the output is still valid.
	CacheErr error
}

func (r *Result) OK() bool { return len(r.Diagnostics) == 0 }

// New returns a compiler with the default options and no cache.
func New() *Compiler {
	return &Compiler{Options: pipeline.DefaultOptions()}
}

// Frontend returns the stages that turn source into an instrumented tree.
func Frontend() []pipeline.Processor {
	return []pipeline.Processor{
		&lexer.LexerProcessor{},
		&parser.ParserProcessor{},
		&instrument.InstrumentProcessor{},
	}
}

// Parse runs the front end and returns the pipeline context with the
// instrumented tree in AstRoot.
func (c *Compiler) Parse(name, source string) *pipeline.PipelineContext {
	pctx := pipeline.NewPipelineContextWithOptions(source, c.Options)
	pctx.FilePath = name
	return pipeline.New(Frontend()...).Run(pctx)
}

// Compile instruments source and prints it. Only units without
// diagnostics are stored in the cache.
func (c *Compiler) Compile(ctx context.Context, name, source string) *Result {
	key := cache.ComputeKey([]byte(source), c.Options, c.Width)
	res := &Result{UnitID: key.UnitID()}

	if c.Cache != nil {
		entry, ok, err := c.Cache.Get(ctx, key)
		if err != nil {
			res.CacheErr = err
		} else if ok {
			res.Output = entry.Output
			res.Cached = true
			return res
		}
	}

	pctx := pipeline.NewPipelineContextWithOptions(source, c.Options)
	pctx.FilePath = name
	pctx = pipeline.New(Frontend()...).
		Then(&prettyprinter.PrinterProcessor{Width: c.Width}).
		Run(pctx)
	if pctx.HasErrors() {
		res.Diagnostics = pctx.Errors
		return res
	}
	res.Output = pctx.Output

	if c.Cache != nil {
		if _, err := c.Cache.Put(ctx, key, name, res.Output); err != nil {
			res.CacheErr = err
		}
	}
	return res
}
