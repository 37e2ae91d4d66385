package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/peterh/liner"

	"github.com/funvibe/tlua/internal/backend"
	"github.com/funvibe/tlua/internal/compiler"
	"github.com/funvibe/tlua/internal/config"
	"github.com/funvibe/tlua/internal/evaluator"
	"github.com/funvibe/tlua/internal/pipeline"
	"github.com/funvibe/tlua/internal/token"
)

const (
	historyFile = ".tlua_history"
	promptMain  = "> "
	promptCont  = ">> "
	replUnit    = "<repl>"
)

// handleRepl: tlua repl [common flags]
func (a *app) handleRepl() bool {
	if a.command() != "repl" {
		return false
	}

	fs := a.newFlagSet("repl")
	cf := addCommonFlags(fs)
	if err := fs.Parse(a.args[1:]); err != nil {
		return a.usageError(nil)
	}
	cf.noCache = true
	sess, err := a.openSession(cf, ".")
	if err != nil {
		return a.fail("%v", err)
	}
	defer sess.Close()

	fmt.Fprintf(a.stdout, "tlua %s  (:quit to exit, :globals to list, :reset to clear)\n", config.Version)
	r := newRepl(a.ctx, sess.compiler, a.stdout)

	home, _ := os.UserHomeDir()
	histPath := filepath.Join(home, historyFile)

	ln := liner.NewLiner()
	defer ln.Close()
	ln.SetCtrlCAborts(true)
	if f, err := os.Open(histPath); err == nil {
		_, _ = ln.ReadHistory(f)
		_ = f.Close()
	}

	var buf strings.Builder
loop:
	for {
		prompt := promptMain
		if buf.Len() > 0 {
			prompt = promptCont
		}
		line, err := ln.Prompt(prompt)
		if errors.Is(err, io.EOF) {
			fmt.Fprintln(a.stdout)
			break
		}
		if err != nil {
			// Ctrl+C drops the pending input.
			buf.Reset()
			continue
		}

		if buf.Len() == 0 {
			switch strings.TrimSpace(line) {
			case ":quit", ":q":
				break loop
			case ":reset":
				r.reset()
				continue
			case ":globals":
				r.listGlobals()
				continue
			case "":
				continue
			}
		} else {
			buf.WriteByte('\n')
		}
		buf.WriteString(line)

		if r.eval(buf.String()) {
			continue
		}
		ln.AppendHistory(strings.ReplaceAll(buf.String(), "\n", " "))
		buf.Reset()
	}

	if f, err := os.Create(histPath); err == nil {
		_, _ = ln.WriteHistory(f)
		_ = f.Close()
	}
	return true
}

// repl evaluates inputs against one persistent global environment.
type repl struct {
	ctx      context.Context
	compiler *compiler.Compiler
	out      io.Writer
	env      *evaluator.Environment
	// checks is the instrumentation default restored by reset. Pragmas
	// entered at the prompt change r.compiler.Options.Checks for later inputs.
	checks bool
	// builtin holds the names bound before any input ran.
	builtin map[string]bool
}

func newRepl(ctx context.Context, c *compiler.Compiler, out io.Writer) *repl {
	r := &repl{ctx: ctx, compiler: c, out: out, checks: c.Options.Checks}
	r.reset()
	return r
}

func (r *repl) reset() {
	r.env = backend.NewEnvironment(r.compiler.Options.Registry)
	r.compiler.Options.Checks = r.checks
	r.builtin = make(map[string]bool)
	for _, name := range r.env.Names() {
		r.builtin[name] = true
	}
}

// listGlobals prints the globals defined since the last reset with their types.
func (r *repl) listGlobals() {
	var names []string
	for _, name := range r.env.Names() {
		if !r.builtin[name] {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	for _, name := range names {
		v, _ := r.env.Get(name)
		fmt.Fprintf(r.out, "%s\t%s\n", name, evaluator.TypeName(v))
	}
}

// eval runs one input and prints its values or errors. It reports true when
// the input is incomplete and more lines should be read.
func (r *repl) eval(code string) (incomplete bool) {
	// An expression is printed, so try it as a return first.
	pctx := r.compiler.Parse(replUnit, "return "+code)
	if pctx.HasErrors() {
		pctx = r.compiler.Parse(replUnit, code)
	}
	if pctx.HasErrors() {
		if atEOF(pctx) {
			return true
		}
		for _, err := range pctx.Errors {
			fmt.Fprintln(r.out, err.Error())
		}
		return false
	}
	r.compiler.Options.Checks = pctx.ChecksEnabled

	b := &backend.TreeWalkBackend{Context: r.ctx, Out: r.out, Env: r.env}
	values, err := b.Run(pctx)
	if err != nil {
		var evalErr *evaluator.Error
		if errors.As(err, &evalErr) {
			fmt.Fprintln(r.out, evalErr.Inspect())
		} else {
			fmt.Fprintln(r.out, err)
		}
		return false
	}
	if len(values) > 0 {
		parts := make([]string, len(values))
		for i, v := range values {
			parts[i] = evaluator.ToString(v)
		}
		fmt.Fprintln(r.out, strings.Join(parts, "\t"))
	}
	return false
}

// atEOF reports whether parsing failed only because the input ended early.
func atEOF(pctx *pipeline.PipelineContext) bool {
	for _, err := range pctx.Errors {
		if err.Token.Type == token.EOF {
			return true
		}
	}
	return false
}
