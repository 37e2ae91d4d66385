package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/davecgh/go-spew/spew"

	"github.com/funvibe/tlua/internal/diagnostics"
	"github.com/funvibe/tlua/internal/lexer"
	"github.com/funvibe/tlua/internal/parser"
	"github.com/funvibe/tlua/internal/pipeline"
	"github.com/funvibe/tlua/internal/service"
	"github.com/funvibe/tlua/internal/token"
)

// handleCompile: tlua compile [-o out] [--remote addr] [common flags] <file|->
func (a *app) handleCompile() bool {
	if a.command() != "compile" {
		return false
	}

	fs := a.newFlagSet("compile")
	cf := addCommonFlags(fs)
	output := fs.String("o", "", "write the output to this file instead of stdout")
	remote := fs.String("remote", "", "compile on a tlua serve instance at this address")
	if err := fs.Parse(a.args[1:]); err != nil {
		return a.usageError(nil)
	}
	if fs.NArg() != 1 {
		return a.usageError(fmt.Errorf("compile expects exactly one file"))
	}
	path := fs.Arg(0)

	source, err := a.readSource(path)
	if err != nil {
		return a.fail("%v", err)
	}

	sess, err := a.openSession(cf, sourceDir(path))
	if err != nil {
		return a.fail("%v", err)
	}
	defer sess.Close()

	var out string
	if *remote != "" {
		var ok bool
		if out, ok = a.compileRemote(*remote, unitName(path), source, !sess.compiler.Options.Checks, sess.color); !ok {
			return true
		}
	} else {
		res := sess.compiler.Compile(a.ctx, unitName(path), source)
		if res.CacheErr != nil {
			fmt.Fprintf(a.stderr, "Warning: cache: %v\n", res.CacheErr)
		}
		if !res.OK() {
			a.printDiagnostics(res.Diagnostics, sess.color)
			a.code = exitFailure
			return true
		}
		out = res.Output
	}

	if *output == "" {
		fmt.Fprint(a.stdout, out)
		return true
	}
	if dir := filepath.Dir(*output); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return a.fail("%v", err)
		}
	}
	if err := os.WriteFile(*output, []byte(out), 0o644); err != nil {
		return a.fail("writing %s: %v", *output, err)
	}
	return true
}

func (a *app) compileRemote(addr, name, source string, noChecks, color bool) (string, bool) {
	client, conn, err := service.Dial(addr)
	if err != nil {
		a.fail("%v", err)
		return "", false
	}
	defer conn.Close()

	resp, err := client.Instrument(a.ctx, &service.Request{Name: name, Source: source, DisableChecks: noChecks})
	if err != nil {
		a.fail("remote compile: %v", err)
		return "", false
	}
	if len(resp.Diagnostics) > 0 {
		errs := make([]*diagnostics.DiagnosticError, len(resp.Diagnostics))
		for i, d := range resp.Diagnostics {
			errs[i] = &diagnostics.DiagnosticError{
				Code:    diagnostics.ErrorCode(d.Code),
				Token:   token.Token{Line: d.Line, Column: d.Column},
				File:    name,
				Message: d.Message,
			}
		}
		a.printDiagnostics(errs, color)
		a.code = exitFailure
		return "", false
	}
	return resp.Output, true
}

// handleDump: tlua dump [--raw] [common flags] <file|->
// Prints the tree after instrumentation, or straight from the parser with --raw.
func (a *app) handleDump() bool {
	if a.command() != "dump" {
		return false
	}

	fs := a.newFlagSet("dump")
	cf := addCommonFlags(fs)
	raw := fs.Bool("raw", false, "dump the parsed tree without instrumenting it")
	if err := fs.Parse(a.args[1:]); err != nil {
		return a.usageError(nil)
	}
	if fs.NArg() != 1 {
		return a.usageError(fmt.Errorf("dump expects exactly one file"))
	}
	path := fs.Arg(0)
	cf.noCache = true

	source, err := a.readSource(path)
	if err != nil {
		return a.fail("%v", err)
	}
	sess, err := a.openSession(cf, sourceDir(path))
	if err != nil {
		return a.fail("%v", err)
	}
	defer sess.Close()

	var pctx *pipeline.PipelineContext
	if *raw {
		pctx = pipeline.NewPipelineContextWithOptions(source, sess.compiler.Options)
		pctx.FilePath = unitName(path)
		pctx = pipeline.New(&lexer.LexerProcessor{}, &parser.ParserProcessor{}).Run(pctx)
	} else {
		pctx = sess.compiler.Parse(unitName(path), source)
	}
	if pctx.HasErrors() {
		a.printDiagnostics(pctx.Errors, sess.color)
		a.code = exitFailure
		return true
	}

	dumper := spew.ConfigState{
		Indent:                  "  ",
		DisablePointerAddresses: true,
		DisableCapacities:       true,
		SortKeys:                true,
	}
	dumper.Fdump(a.stdout, pctx.AstRoot)
	return true
}
