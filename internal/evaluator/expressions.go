package evaluator

import (
	"github.com/funvibe/tlua/internal/ast"
	"github.com/funvibe/tlua/internal/token"
)

// evalExpression evaluates expr to a single value (or an *Error).
func (e *Evaluator) evalExpression(expr ast.Expression, env *Environment) Object {
	res := e.evalMulti(expr, env)
	if isError(res) {
		return res
	}
	return First(res)
}

// evalMulti evaluates expr keeping every result of calls and `...`.
func (e *Evaluator) evalMulti(expr ast.Expression, env *Environment) Object {
	switch n := expr.(type) {
	case *ast.Identifier:
		if v, ok := env.Get(n.Value); ok {
			return v
		}
		return NIL
	case *ast.NilLiteral:
		return NIL
	case *ast.BooleanLiteral:
		return NativeBool(n.Value)
	case *ast.NumberLiteral:
		return &Number{Value: n.Value}
	case *ast.StringLiteral:
		return &String{Value: n.Value}
	case *ast.VarargLiteral:
		if v, ok := env.Get(varargName); ok && v != nil {
			return v
		}
		return e.errorAt(n.Token, "cannot use '...' outside a vararg function")
	case *ast.TableLiteral:
		return e.evalTable(n, env)
	case *ast.PrefixExpression:
		return e.evalPrefix(n, env)
	case *ast.InfixExpression:
		return e.evalInfix(n, env)
	case *ast.IndexExpression:
		obj := e.evalExpression(n.Object, env)
		if isError(obj) {
			return obj
		}
		key := e.evalExpression(n.Index, env)
		if isError(key) {
			return key
		}
		v, err := e.index(obj, key)
		if err != nil {
			return at(err, n.Token)
		}
		return v
	case *ast.CallExpression:
		return e.evalCall(n, env)
	case *ast.MethodCallExpression:
		return e.evalMethodCall(n, env)
	case *ast.ParenExpression:
		return e.evalExpression(n.Expression, env)
	case *ast.FunctionLiteral:
		return &Function{Literal: n, Env: env}
	case *ast.StatementExpression:
		return e.evalStatementExpression(n, env)
	}
	return e.errorAt(expr.GetToken(), "cannot evaluate %T", expr)
}

// evalExpressions evaluates an expression list into a *Tuple; the last
// expression contributes all of its results.
func (e *Evaluator) evalExpressions(exprs []ast.Expression, env *Environment) Object {
	values := make([]Object, 0, len(exprs))
	for i, expr := range exprs {
		if i == len(exprs)-1 {
			res := e.evalMulti(expr, env)
			if isError(res) {
				return res
			}
			values = append(values, Values(res)...)
			break
		}
		v := e.evalExpression(expr, env)
		if isError(v) {
			return v
		}
		values = append(values, v)
	}
	return &Tuple{Values: values}
}

func (e *Evaluator) evalTable(n *ast.TableLiteral, env *Environment) Object {
	t := NewTable()
	next := 1
	for i, f := range n.Fields {
		switch f.Kind {
		case ast.FieldPositional:
			if i == len(n.Fields)-1 {
				res := e.evalMulti(f.Value, env)
				if isError(res) {
					return res
				}
				for _, v := range Values(res) {
					_ = t.Set(&Number{Value: float64(next)}, v)
					next++
				}
				continue
			}
			v := e.evalExpression(f.Value, env)
			if isError(v) {
				return v
			}
			_ = t.Set(&Number{Value: float64(next)}, v)
			next++
		default:
			key := e.evalExpression(f.Key, env)
			if isError(key) {
				return key
			}
			v := e.evalExpression(f.Value, env)
			if isError(v) {
				return v
			}
			if err := t.Set(key, v); err != nil {
				return at(err.(*Error), f.Key.GetToken())
			}
		}
	}
	return t
}

func (e *Evaluator) evalStatementExpression(n *ast.StatementExpression, env *Environment) Object {
	res, inner := e.evalStatements(n.Body.Statements, NewEnclosedEnvironment(env))
	switch res.(type) {
	case nil:
	case *Error:
		return res
	default:
		return e.errorAt(n.Token, "'%s' is not allowed inside a statement expression", res.Inspect())
	}
	return e.evalExpression(n.Result, inner)
}

func (e *Evaluator) evalCall(n *ast.CallExpression, env *Environment) Object {
	fn := e.evalExpression(n.Function, env)
	if isError(fn) {
		return fn
	}
	args := e.evalExpressions(n.Arguments, env)
	if isError(args) {
		return args
	}
	if !IsCallable(fn) {
		return e.errorAt(n.Token, "attempt to call a %s value%s", TypeName(fn), describeCallee(n.Function))
	}
	return e.callFunction(fn, Values(args), n.Token)
}

func (e *Evaluator) evalMethodCall(n *ast.MethodCallExpression, env *Environment) Object {
	obj := e.evalExpression(n.Object, env)
	if isError(obj) {
		return obj
	}
	fn, err := e.index(obj, &String{Value: n.Method.Value})
	if err != nil {
		return at(err, n.Token)
	}
	args := e.evalExpressions(n.Arguments, env)
	if isError(args) {
		return args
	}
	if !IsCallable(fn) {
		return e.errorAt(n.Token, "attempt to call a %s value (method '%s')", TypeName(fn), n.Method.Value)
	}
	return e.callFunction(fn, append([]Object{obj}, Values(args)...), n.Token)
}

func describeCallee(fn ast.Expression) string {
	switch f := fn.(type) {
	case *ast.Identifier:
		return " (variable '" + f.Value + "')"
	case *ast.IndexExpression:
		if s, ok := f.Index.(*ast.StringLiteral); ok {
			return " (field '" + s.Value + "')"
		}
	}
	return ""
}

// callFunction calls fn and returns a *Tuple of its results or an *Error.
func (e *Evaluator) callFunction(fn Object, args []Object, tok token.Token) Object {
	if len(e.CallStack) >= MaxCallDepth {
		return e.errorAt(tok, "stack overflow")
	}

	switch fn := fn.(type) {
	case *Builtin:
		res := fn.Fn(e, args...)
		if err, ok := res.(*Error); ok {
			return at(err, tok)
		}
		if t, ok := res.(*Tuple); ok {
			return t
		}
		if res == nil {
			return &Tuple{}
		}
		return &Tuple{Values: []Object{res}}

	case *Function:
		lit := fn.Literal
		env := NewEnclosedEnvironment(fn.Env)
		for i, param := range lit.Parameters {
			env.Set(param.Value, Arg(args, i))
		}
		if lit.IsVariadic {
			var extra []Object
			if len(args) > len(lit.Parameters) {
				extra = append(extra, args[len(lit.Parameters):]...)
			}
			env.Set(varargName, &Tuple{Values: extra})
		} else {
			// `...` does not leak in from an enclosing vararg function.
			env.Set(varargName, nil)
		}

		e.PushCall(fn.Name(), e.CurrentFile, tok.Line, tok.Column)
		res, _ := e.evalStatements(lit.Body.Statements, env)
		e.PopCall()

		switch res := res.(type) {
		case *ReturnValue:
			return &Tuple{Values: res.Values}
		case *Error:
			at(res, lit.Token)
			res.StackTrace = append(res.StackTrace, StackFrame{
				Name: fn.Name(), File: e.CurrentFile, Line: tok.Line, Column: tok.Column,
			})
			return res
		case *BreakSignal:
			return e.errorAt(lit.Token, "break outside a loop")
		}
		return &Tuple{}
	}
	return e.errorAt(tok, "attempt to call a %s value", TypeName(fn))
}

func (e *Evaluator) index(obj, key Object) (Object, *Error) {
	t, ok := obj.(*Table)
	if !ok {
		return nil, NewRuntimeError("attempt to index a %s value", TypeName(obj))
	}
	return t.Get(key), nil
}

func (e *Evaluator) setIndex(obj, key, v Object) *Error {
	t, ok := obj.(*Table)
	if !ok {
		return NewRuntimeError("attempt to index a %s value", TypeName(obj))
	}
	if err := t.Set(key, v); err != nil {
		return err.(*Error)
	}
	return nil
}
