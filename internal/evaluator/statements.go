package evaluator

import (
	"github.com/funvibe/tlua/internal/ast"
)

func (e *Evaluator) evalBlock(block *ast.Block, env *Environment) Object {
	if block == nil {
		return nil
	}
	res, _ := e.evalStatements(block.Statements, NewEnclosedEnvironment(env))
	return res
}

// evalStatements runs stmts in env and returns the control signal that
// stopped it (return, break or error), plus the innermost scope reached so a
// repeat-until condition can see the body's locals.
func (e *Evaluator) evalStatements(stmts []ast.Statement, env *Environment) (Object, *Environment) {
	for _, stmt := range stmts {
		if err := e.cancelled(); err != nil {
			return at(err, stmt.GetToken()), env
		}
		var res Object
		res, env = e.evalStatement(stmt, env)
		if res != nil {
			return res, env
		}
	}
	return nil, env
}

// evalStatement returns a control signal (or nil) and the scope for the
// following statements. A local redeclaring a name opens a new scope so
// closures over the earlier binding keep it.
func (e *Evaluator) evalStatement(stmt ast.Statement, env *Environment) (Object, *Environment) {
	switch s := stmt.(type) {
	case *ast.LocalStatement:
		vals := e.evalExpressions(s.Values, env)
		if err, ok := vals.(*Error); ok {
			return err, env
		}
		values := Values(vals)
		for _, name := range s.Names {
			if env.Has(name.Value) {
				env = NewEnclosedEnvironment(env)
				break
			}
		}
		for i, name := range s.Names {
			env.Set(name.Value, Arg(values, i))
		}
		return nil, env

	case *ast.LocalFunctionStatement:
		if env.Has(s.Name.Value) {
			env = NewEnclosedEnvironment(env)
		}
		env.Set(s.Name.Value, NIL)
		env.Set(s.Name.Value, &Function{Literal: s.Function, Env: env})
		return nil, env

	case *ast.AssignStatement:
		return e.evalAssign(s, env), env

	case *ast.ExpressionStatement:
		if res := e.evalMulti(s.Expression, env); isError(res) {
			return res, env
		}
		return nil, env

	case *ast.ReturnStatement:
		vals := e.evalExpressions(s.Values, env)
		if isError(vals) {
			return vals, env
		}
		return &ReturnValue{Values: Values(vals)}, env

	case *ast.BreakStatement:
		return &BreakSignal{}, env

	case *ast.DoStatement:
		return e.evalBlock(s.Body, env), env

	case *ast.IfStatement:
		return e.evalIf(s, env), env

	case *ast.WhileStatement:
		return e.evalWhile(s, env), env

	case *ast.RepeatStatement:
		return e.evalRepeat(s, env), env

	case *ast.NumericForStatement:
		return e.evalNumericFor(s, env), env

	case *ast.GenericForStatement:
		return e.evalGenericFor(s, env), env
	}
	return e.errorAt(stmt.GetToken(), "unsupported statement %T", stmt), env
}

func (e *Evaluator) evalAssign(s *ast.AssignStatement, env *Environment) Object {
	// Targets' objects and keys are evaluated before the values, as in Lua.
	type slot struct {
		name  string
		table Object
		key   Object
	}
	slots := make([]slot, len(s.Targets))
	for i, target := range s.Targets {
		switch t := target.(type) {
		case *ast.Identifier:
			slots[i].name = t.Value
		case *ast.IndexExpression:
			obj := e.evalExpression(t.Object, env)
			if isError(obj) {
				return obj
			}
			key := e.evalExpression(t.Index, env)
			if isError(key) {
				return key
			}
			slots[i].table, slots[i].key = obj, key
		default:
			return e.errorAt(s.Token, "cannot assign to %T", target)
		}
	}

	vals := e.evalExpressions(s.Values, env)
	if isError(vals) {
		return vals
	}
	values := Values(vals)

	for i, sl := range slots {
		v := Arg(values, i)
		if sl.table == nil {
			if !env.Update(sl.name, v) {
				env.Global().Set(sl.name, v)
			}
			continue
		}
		if err := e.setIndex(sl.table, sl.key, v); err != nil {
			return at(err, s.Targets[i].GetToken())
		}
	}
	return nil
}

func (e *Evaluator) evalIf(s *ast.IfStatement, env *Environment) Object {
	for _, clause := range s.Clauses {
		cond := e.evalExpression(clause.Condition, env)
		if isError(cond) {
			return cond
		}
		if IsTruthy(cond) {
			return e.evalBlock(clause.Body, env)
		}
	}
	if s.Else != nil {
		return e.evalBlock(s.Else, env)
	}
	return nil
}

// loopResult turns a body's signal into the loop's: break ends the loop
// quietly, return and errors propagate. done reports whether to stop.
func loopResult(res Object) (Object, bool) {
	switch res.(type) {
	case nil:
		return nil, false
	case *BreakSignal:
		return nil, true
	default:
		return res, true
	}
}

func (e *Evaluator) evalWhile(s *ast.WhileStatement, env *Environment) Object {
	for {
		if err := e.cancelled(); err != nil {
			return at(err, s.Token)
		}
		cond := e.evalExpression(s.Condition, env)
		if isError(cond) {
			return cond
		}
		if !IsTruthy(cond) {
			return nil
		}
		if res, done := loopResult(e.evalBlock(s.Body, env)); done {
			return res
		}
	}
}

func (e *Evaluator) evalRepeat(s *ast.RepeatStatement, env *Environment) Object {
	for {
		if err := e.cancelled(); err != nil {
			return at(err, s.Token)
		}
		res, inner := e.evalStatements(s.Body.Statements, NewEnclosedEnvironment(env))
		if res, done := loopResult(res); done {
			return res
		}
		cond := e.evalExpression(s.Condition, inner)
		if isError(cond) {
			return cond
		}
		if IsTruthy(cond) {
			return nil
		}
	}
}

func (e *Evaluator) evalNumericFor(s *ast.NumericForStatement, env *Environment) Object {
	bound := func(expr ast.Expression, what string) (float64, Object) {
		v := e.evalExpression(expr, env)
		if isError(v) {
			return 0, v
		}
		n, ok := ToNumber(v)
		if !ok {
			return 0, e.errorAt(expr.GetToken(), "'for' %s must be a number", what)
		}
		return n, nil
	}

	start, err := bound(s.Start, "initial value")
	if err != nil {
		return err
	}
	stop, err := bound(s.Stop, "limit")
	if err != nil {
		return err
	}
	step := 1.0
	if s.Step != nil {
		if step, err = bound(s.Step, "step"); err != nil {
			return err
		}
		if step == 0 {
			return e.errorAt(s.Step.GetToken(), "'for' step is zero")
		}
	}

	for i := start; (step > 0 && i <= stop) || (step < 0 && i >= stop); i += step {
		if err := e.cancelled(); err != nil {
			return at(err, s.Token)
		}
		iter := NewEnclosedEnvironment(env)
		iter.Set(s.Var.Value, &Number{Value: i})
		if res, done := loopResult(e.evalBlock(s.Body, iter)); done {
			return res
		}
	}
	return nil
}

func (e *Evaluator) evalGenericFor(s *ast.GenericForStatement, env *Environment) Object {
	init := e.evalExpressions(s.Exprs, env)
	if isError(init) {
		return init
	}
	vals := Values(init)
	fn, state, control := Arg(vals, 0), Arg(vals, 1), Arg(vals, 2)

	for {
		if err := e.cancelled(); err != nil {
			return at(err, s.Token)
		}
		res := e.callFunction(fn, []Object{state, control}, s.Token)
		if isError(res) {
			return res
		}
		results := Values(res)
		control = Arg(results, 0)
		if isNil(control) {
			return nil
		}
		iter := NewEnclosedEnvironment(env)
		for i, name := range s.Names {
			iter.Set(name.Value, Arg(results, i))
		}
		if res, done := loopResult(e.evalBlock(s.Body, iter)); done {
			return res
		}
	}
}
