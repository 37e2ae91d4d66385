package cli

import (
	"fmt"

	"github.com/funvibe/tlua/internal/backend"
)

// handleRun: tlua run [common flags] <file|->
func (a *app) handleRun() bool {
	if a.command() != "run" {
		return false
	}

	fs := a.newFlagSet("run")
	cf := addCommonFlags(fs)
	if err := fs.Parse(a.args[1:]); err != nil {
		return a.usageError(nil)
	}
	if fs.NArg() != 1 {
		return a.usageError(fmt.Errorf("run expects exactly one file"))
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

	pctx := sess.compiler.Parse(unitName(path), source)
	exec := backend.NewExecutionProcessor(&backend.TreeWalkBackend{
		Context: a.ctx,
		Out:     a.stdout,
	})
	pctx = exec.Process(pctx)

	if pctx.HasErrors() {
		a.printDiagnostics(pctx.Errors, sess.color)
		a.code = exitFailure
	}
	return true
}
