package instrument

import (
	"github.com/funvibe/tlua/internal/ast"
	"github.com/funvibe/tlua/internal/config"
	"github.com/funvibe/tlua/internal/diagnostics"
	"github.com/funvibe/tlua/internal/gensym"
	"github.com/funvibe/tlua/internal/token"
	"github.com/funvibe/tlua/internal/typeexpr"
)

// Options configure one run of the pass.
type Options struct {
	// Enabled turns instrumentation on. When false the pass only strips
	// annotation metadata.
	Enabled bool
	// Registry is the global table holding predicates. Defaults to "types".
	Registry string
	// TempPrefix prefixes generated temporaries. Defaults to "__tlua_".
	TempPrefix string
	// Generator supplies temporaries. When nil, a counter is created per
	// run with every name in the program reserved.
	Generator gensym.Generator
}

// Pass rewrites annotated declarations, assignments, returns and function
// entries into checked code. A Pass may be reused, but not concurrently.
type Pass struct {
	opts     Options
	compiler *typeexpr.Compiler
	builder  *Builder

	scopes  scopeStack
	returns returnStack
	err     error
}

func New(opts Options) *Pass {
	if opts.Registry == "" {
		opts.Registry = config.RegistryName
	}
	if opts.TempPrefix == "" {
		opts.TempPrefix = config.TempPrefix
	}
	return &Pass{
		opts:     opts,
		compiler: typeexpr.New(opts.Registry),
	}
}

// Run rewrites prog in place. The only errors are malformed annotations
// (T001) and broken walker invariants (I001); either leaves prog partially
// rewritten.
func (p *Pass) Run(prog *ast.Program) error {
	if prog == nil || prog.Body == nil {
		return nil
	}
	if !p.opts.Enabled {
		Strip(prog)
		return nil
	}

	gen := p.opts.Generator
	if gen == nil {
		gen = gensym.ForProgram(p.opts.TempPrefix, prog)
	}
	p.builder = &Builder{Gen: gen}
	p.scopes = nil
	p.returns = nil
	p.err = nil

	ast.Apply(prog, p.pre, p.post)

	if p.err != nil {
		return p.err
	}
	if len(p.scopes) != 0 || len(p.returns) != 0 {
		return diagnostics.Errorf(diagnostics.ErrI001, token.Token{},
			"unbalanced walk: %d scopes and %d return types left open", len(p.scopes), len(p.returns))
	}
	return nil
}

func (p *Pass) pre(c *ast.Cursor) bool {
	if p.err != nil {
		return false
	}

	switch n := c.Node().(type) {
	case *ast.Block:
		sc := scope{}
		// Loop variables are untyped and hide outer typed names.
		switch parent := c.Parent().(type) {
		case *ast.NumericForStatement:
			sc[parent.Var.Value] = nil
		case *ast.GenericForStatement:
			for _, name := range parent.Names {
				sc[name.Value] = nil
			}
		}
		p.scopes.push(sc)

	case *ast.FunctionLiteral:
		params := scope{}
		for _, param := range n.Parameters {
			pred, err := p.compiler.Compile(n.ParamTypes[param.Value])
			if err != nil {
				p.err = err
				return false
			}
			params[param.Value] = pred
		}
		ret, err := p.compiler.Compile(n.ReturnType)
		if err != nil {
			p.err = err
			return false
		}
		p.scopes.push(params)
		p.returns.push(ret)

	case *ast.LocalFunctionStatement:
		// The function's own name is visible in its body.
		p.scopes.top()[n.Name.Value] = nil
	}
	return true
}

func (p *Pass) post(c *ast.Cursor) bool {
	if p.err != nil {
		return false
	}

	switch n := c.Node().(type) {
	case *ast.Block:
		// The until condition still sees the repeat body's locals.
		if _, ok := c.Parent().(*ast.RepeatStatement); !ok {
			p.scopes.pop()
		}

	case *ast.RepeatStatement:
		if n.Body != nil {
			p.scopes.pop()
		}

	case *ast.FunctionLiteral:
		params := p.scopes.top()
		p.scopes.pop()
		p.returns.pop()
		p.prependParamChecks(n, params)
		n.ParamTypes = nil
		n.ReturnType = nil

	case *ast.LocalStatement:
		if err := p.rewriteLocal(n); err != nil {
			p.err = err
			return false
		}

	case *ast.AssignStatement:
		p.rewriteAssign(n)

	case *ast.ReturnStatement:
		p.rewriteReturn(n)
	}
	return true
}

// prependParamChecks puts one check per typed parameter at the start of the
// body, in parameter order.
func (p *Pass) prependParamChecks(fn *ast.FunctionLiteral, params scope) {
	if fn.Body == nil {
		return
	}
	var checks []ast.Statement
	seen := make(map[string]bool, len(fn.Parameters))
	for _, param := range fn.Parameters {
		pred := params[param.Value]
		if pred == nil || seen[param.Value] {
			continue
		}
		seen[param.Value] = true
		checks = append(checks, p.builder.Statement(pred, ast.NewIdent(param.Value, param.Token)))
	}
	if len(checks) > 0 {
		fn.Body.Statements = append(checks, fn.Body.Statements...)
	}
}

// rewriteLocal declares the statement's names in the innermost scope, then
// checks each initializer whose name is typed. Initializers were already
// walked in the enclosing scope.
func (p *Pass) rewriteLocal(n *ast.LocalStatement) error {
	compiled := make(map[string]ast.Expression, len(n.Annotations))
	for _, name := range n.Names {
		typ, ok := n.Annotations[name.Value]
		if !ok || compiled[name.Value] != nil {
			continue
		}
		pred, err := p.compiler.Compile(typ)
		if err != nil {
			return err
		}
		compiled[name.Value] = pred
	}
	n.Annotations = nil

	top := p.scopes.top()
	for _, name := range n.Names {
		top[name.Value] = compiled[name.Value]
	}

	for i, name := range n.Names {
		if i >= len(n.Values) {
			break
		}
		if pred := top[name.Value]; pred != nil {
			n.Values[i] = p.builder.Expression(pred, n.Values[i])
		}
	}
	return nil
}

// rewriteAssign checks values assigned to typed locals in any enclosing
// scope. A typed target without a value is checked against nil.
func (p *Pass) rewriteAssign(n *ast.AssignStatement) {
	for i, target := range n.Targets {
		ident, ok := target.(*ast.Identifier)
		if !ok {
			continue
		}
		pred := p.scopes.lookup(ident.Value)
		if pred == nil {
			continue
		}
		if i < len(n.Values) {
			n.Values[i] = p.builder.Expression(pred, n.Values[i])
			continue
		}
		for len(n.Values) < i {
			n.Values = append(n.Values, ast.NewNil(ident.Token))
		}
		n.Values = append(n.Values, p.builder.Expression(pred, ast.NewNil(ident.Token)))
	}
}

// rewriteReturn checks the first returned value against the innermost
// function's return type. A bare return is checked as nil.
func (p *Pass) rewriteReturn(n *ast.ReturnStatement) {
	pred := p.returns.top()
	if pred == nil {
		return
	}
	if len(n.Values) == 0 {
		n.Values = []ast.Expression{p.builder.Expression(pred, ast.NewNil(n.Token))}
		return
	}
	n.Values[0] = p.builder.Expression(pred, n.Values[0])
}

// Strip removes annotation metadata without instrumenting, leaving the
// tree the parser would build from the unannotated source.
func Strip(node ast.Node) {
	ast.Inspect(node, func(n ast.Node) bool {
		switch n := n.(type) {
		case *ast.LocalStatement:
			n.Annotations = nil
		case *ast.FunctionLiteral:
			n.ParamTypes = nil
			n.ReturnType = nil
		}
		return true
	})
}
