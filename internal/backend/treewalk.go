package backend

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/funvibe/tlua/internal/evaluator"
	"github.com/funvibe/tlua/internal/pipeline"
	"github.com/funvibe/tlua/internal/typelib"
)

// TreeWalkBackend runs instrumented trees with the tree-walk interpreter.
type TreeWalkBackend struct {
	// Context for cancellation; nil means context.Background().
	Context context.Context
	Out     io.Writer
	// Env, when set, is reused across runs (the REPL keeps its globals this way).
	Env *evaluator.Environment
}

// NewTreeWalk creates a new tree-walk backend
func NewTreeWalk() *TreeWalkBackend {
	return &TreeWalkBackend{Out: os.Stdout}
}

// NewEnvironment returns a global environment with the builtins and the
// type registry installed under registry.
func NewEnvironment(registry string) *evaluator.Environment {
	env := evaluator.NewEnvironment()
	evaluator.RegisterBuiltins(env)
	typelib.Install(env, registry)
	return env
}

// Run executes the program using tree-walk interpretation
func (b *TreeWalkBackend) Run(ctx *pipeline.PipelineContext) ([]evaluator.Object, error) {
	if ctx.AstRoot == nil {
		return nil, fmt.Errorf("no AST to execute")
	}
	if len(ctx.Errors) > 0 {
		return nil, ctx.Errors[0]
	}

	eval := evaluator.New()
	if b.Context != nil {
		eval.Context = b.Context
	}
	if b.Out != nil {
		eval.Out = b.Out
	}
	if ctx.FilePath != "" {
		eval.CurrentFile = ctx.FilePath
	}

	env := b.Env
	if env == nil {
		env = NewEnvironment(ctx.Options.Registry)
	}

	values, err := eval.Run(ctx.AstRoot, env)
	if err != nil {
		return nil, err
	}
	return values, nil
}

// Name returns the backend name
func (b *TreeWalkBackend) Name() string {
	return "tree-walk"
}
