// Package typeexpr compiles type annotations into expressions that evaluate
// to runtime predicates held in the type registry.
package typeexpr

import (
	"github.com/funvibe/tlua/internal/ast"
	"github.com/funvibe/tlua/internal/config"
	"github.com/funvibe/tlua/internal/diagnostics"
	"github.com/funvibe/tlua/internal/token"
)

// Compiler turns a type expression into a predicate expression.
//
//	number          -> types.number
//	"red"           -> types.__string("red")
//	{ x = number }  -> types.__table({ x = types.number })
//	T or U          -> types.__or(T', U')
//	(T) -> R        -> types.__function({ T' }, R')
//	list(number)    -> types.list(types.number)
//
// Qualified names (mod.T) and parenthesized expressions are returned as written.
type Compiler struct {
	Registry string
	bound    map[string]bool
}

func New(registry string) *Compiler {
	if registry == "" {
		registry = config.RegistryName
	}
	return &Compiler{Registry: registry}
}

// WithBound returns a compiler that leaves the given names as plain
// identifiers. Used for the parameters of a parametric newtype.
func (c *Compiler) WithBound(names ...string) *Compiler {
	bound := make(map[string]bool, len(c.bound)+len(names))
	for name := range c.bound {
		bound[name] = true
	}
	for _, name := range names {
		bound[name] = true
	}
	return &Compiler{Registry: c.Registry, bound: bound}
}

// Compile returns the predicate expression for expr. The only error is
// a function type without exactly one return type (T001).
func (c *Compiler) Compile(expr ast.Expression) (ast.Expression, error) {
	if expr == nil {
		return nil, nil
	}

	switch e := expr.(type) {
	case *ast.IndexExpression, *ast.ParenExpression:
		return e, nil

	case *ast.Identifier:
		if c.bound[e.Value] {
			return ast.CloneExpression(e), nil
		}
		return ast.NewField(c.registry(e.Token), e.Value, e.Token), nil

	case *ast.StringLiteral:
		return c.helperCall(config.StringHelper, e.Token, ast.CloneExpression(e)), nil

	case *ast.TableLiteral:
		shape := &ast.TableLiteral{Token: e.Token, Fields: make([]*ast.TableField, 0, len(e.Fields))}
		for _, f := range e.Fields {
			field := &ast.TableField{Kind: f.Kind}
			var err error
			switch f.Kind {
			case ast.FieldKeyed:
				if field.Key, err = c.Compile(f.Key); err != nil {
					return nil, err
				}
			case ast.FieldNamed:
				field.Key = ast.CloneExpression(f.Key)
			}
			if field.Value, err = c.Compile(f.Value); err != nil {
				return nil, err
			}
			shape.Fields = append(shape.Fields, field)
		}
		return c.helperCall(config.TableHelper, e.Token, shape), nil

	case *ast.InfixExpression:
		left, err := c.Compile(e.Left)
		if err != nil {
			return nil, err
		}
		right, err := c.Compile(e.Right)
		if err != nil {
			return nil, err
		}
		return c.helperCall(config.OperatorHelperPrefix+e.Operator, e.Token, left, right), nil

	case *ast.PrefixExpression:
		right, err := c.Compile(e.Right)
		if err != nil {
			return nil, err
		}
		return c.helperCall(config.OperatorHelperPrefix+e.Operator, e.Token, right), nil

	case *ast.FunctionType:
		if len(e.Returns) != 1 {
			return nil, diagnostics.Errorf(diagnostics.ErrT001, e.Token,
				"malformed function type: expected 1 return type, got %d", len(e.Returns))
		}
		params := &ast.TableLiteral{Token: e.Token}
		for _, p := range e.Parameters {
			compiled, err := c.Compile(p)
			if err != nil {
				return nil, err
			}
			params.Fields = append(params.Fields, &ast.TableField{Kind: ast.FieldPositional, Value: compiled})
		}
		ret, err := c.Compile(e.Returns[0])
		if err != nil {
			return nil, err
		}
		return c.helperCall(config.FunctionHelper, e.Token, params, ret), nil

	case *ast.CallExpression:
		fn, err := c.Compile(e.Function)
		if err != nil {
			return nil, err
		}
		args, err := c.compileList(e.Arguments)
		if err != nil {
			return nil, err
		}
		return &ast.CallExpression{Token: e.Token, Function: fn, Arguments: args}, nil

	case *ast.MethodCallExpression:
		obj, err := c.Compile(e.Object)
		if err != nil {
			return nil, err
		}
		args, err := c.compileList(e.Arguments)
		if err != nil {
			return nil, err
		}
		return &ast.MethodCallExpression{Token: e.Token, Object: obj, Method: e.Method, Arguments: args}, nil
	}

	// Literals, vararg, function literals and statement expressions carry
	// no type syntax.
	return ast.CloneExpression(expr), nil
}

func (c *Compiler) compileList(list []ast.Expression) ([]ast.Expression, error) {
	out := make([]ast.Expression, 0, len(list))
	for _, e := range list {
		compiled, err := c.Compile(e)
		if err != nil {
			return nil, err
		}
		out = append(out, compiled)
	}
	return out, nil
}

func (c *Compiler) registry(at token.Token) ast.Expression {
	return ast.NewIdent(c.Registry, at)
}

// helperCall builds registry.name(args...).
func (c *Compiler) helperCall(name string, at token.Token, args ...ast.Expression) ast.Expression {
	return ast.NewCall(ast.NewField(c.registry(at), name, at), at, args...)
}
