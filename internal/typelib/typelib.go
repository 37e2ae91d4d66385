// Package typelib is the runtime side of instrumentation: the registry table
// whose predicates the compiled type expressions call.
//
// A predicate is any callable taking one value. It returns normally when the
// value conforms and raises a TypeMismatch error otherwise.
package typelib

import (
	"math"
	"strconv"
	"strings"

	"github.com/funvibe/tlua/internal/config"
	"github.com/funvibe/tlua/internal/evaluator"
)

// Registry builds a fresh registry table. Programs may add their own types to
// it (newtype declarations do), so every run gets its own.
func Registry() *evaluator.Table {
	reg := evaluator.NewTable()
	for name, pred := range primitives {
		reg.SetString(name, pred)
	}
	reg.SetString(config.StringHelper, builtin(config.StringHelper, stringLiteral))
	reg.SetString(config.TableHelper, builtin(config.TableHelper, tableShape))
	reg.SetString(config.FunctionHelper, builtin(config.FunctionHelper, functionType))
	reg.SetString(config.OperatorHelperPrefix+"or", builtin("or", union))
	reg.SetString(config.OperatorHelperPrefix+"and", builtin("and", intersection))
	reg.SetString(config.OperatorHelperPrefix+"not", builtin("not", negation))
	reg.SetString("optional", builtin("optional", optional))
	reg.SetString("predicate", builtin("predicate", fromBoolean))
	return reg
}

// Install binds a fresh registry to the global name in env.
func Install(env *evaluator.Environment, name string) *evaluator.Table {
	if name == "" {
		name = config.RegistryName
	}
	reg := Registry()
	env.Set(name, reg)
	return reg
}

func builtin(name string, fn evaluator.BuiltinFunction) *evaluator.Builtin {
	return &evaluator.Builtin{Name: name, Fn: fn}
}

// newPredicate builds a predicate described by desc that accepts values
// for which ok returns true.
func newPredicate(desc string, ok func(evaluator.Object) bool) *evaluator.Builtin {
	return builtin(desc, func(e *evaluator.Evaluator, args ...evaluator.Object) evaluator.Object {
		v := evaluator.Arg(args, 0)
		if !ok(v) {
			return evaluator.NewTypeMismatch(desc, v)
		}
		return nil
	})
}

func hasType(name string) func(evaluator.Object) bool {
	return func(v evaluator.Object) bool { return evaluator.TypeName(v) == name }
}

var primitives = map[string]*evaluator.Builtin{
	"any":                      newPredicate("any", func(evaluator.Object) bool { return true }),
	evaluator.TypeNameNil:      newPredicate(evaluator.TypeNameNil, hasType(evaluator.TypeNameNil)),
	evaluator.TypeNameBoolean:  newPredicate(evaluator.TypeNameBoolean, hasType(evaluator.TypeNameBoolean)),
	evaluator.TypeNameNumber:   newPredicate(evaluator.TypeNameNumber, hasType(evaluator.TypeNameNumber)),
	evaluator.TypeNameString:   newPredicate(evaluator.TypeNameString, hasType(evaluator.TypeNameString)),
	evaluator.TypeNameTable:    newPredicate(evaluator.TypeNameTable, hasType(evaluator.TypeNameTable)),
	evaluator.TypeNameFunction: newPredicate(evaluator.TypeNameFunction, hasType(evaluator.TypeNameFunction)),
	"integer":                  newPredicate("integer", isInteger),
}

func isInteger(v evaluator.Object) bool {
	n, ok := v.(*evaluator.Number)
	return ok && n.Value == math.Trunc(n.Value) && !math.IsInf(n.Value, 0)
}

// Describe names a predicate for error messages.
func Describe(pred evaluator.Object) string {
	switch p := pred.(type) {
	case *evaluator.Builtin:
		return p.Name
	case *evaluator.Function:
		if p.Literal.Name != "" {
			return p.Literal.Name
		}
	}
	return "<predicate>"
}

// check applies pred to v. It returns nil when v conforms, the TypeMismatch
// raised by pred otherwise, or any other error pred raised.
func check(e *evaluator.Evaluator, pred, v evaluator.Object) *evaluator.Error {
	if !evaluator.IsCallable(pred) {
		return evaluator.NewRuntimeError("type predicate is a %s value, not a function", evaluator.TypeName(pred))
	}
	if err, ok := e.Call(pred, v).(*evaluator.Error); ok {
		return err
	}
	return nil
}

func isMismatch(err *evaluator.Error) bool {
	return err != nil && err.Kind == config.TypeMismatchKind
}

func checkPredicateArgs(name string, args []evaluator.Object, n int) *evaluator.Error {
	for i := 0; i < n; i++ {
		if a := evaluator.Arg(args, i); !evaluator.IsCallable(a) {
			return evaluator.NewRuntimeError("bad argument #%d to '%s' (predicate expected, got %s)",
				i+1, name, evaluator.TypeName(a))
		}
	}
	return nil
}

// stringLiteral: __string(s) accepts exactly the string s.
func stringLiteral(e *evaluator.Evaluator, args ...evaluator.Object) evaluator.Object {
	s, ok := evaluator.Arg(args, 0).(*evaluator.String)
	if !ok {
		return evaluator.NewRuntimeError("bad argument #1 to '%s' (string expected)", config.StringHelper)
	}
	return newPredicate(strconv.Quote(s.Value), func(v evaluator.Object) bool {
		vs, ok := v.(*evaluator.String)
		return ok && vs.Value == s.Value
	})
}

// union: __or(A, B) accepts values accepted by either.
func union(e *evaluator.Evaluator, args ...evaluator.Object) evaluator.Object {
	if err := checkPredicateArgs("__or", args, 2); err != nil {
		return err
	}
	a, b := args[0], args[1]
	desc := Describe(a) + " or " + Describe(b)
	return builtin(desc, func(e *evaluator.Evaluator, args ...evaluator.Object) evaluator.Object {
		v := evaluator.Arg(args, 0)
		err := check(e, a, v)
		if !isMismatch(err) {
			return errOrNil(err)
		}
		err = check(e, b, v)
		if isMismatch(err) {
			return evaluator.NewTypeMismatch(desc, v)
		}
		return errOrNil(err)
	})
}

// intersection: __and(A, B) accepts values accepted by both.
func intersection(e *evaluator.Evaluator, args ...evaluator.Object) evaluator.Object {
	if err := checkPredicateArgs("__and", args, 2); err != nil {
		return err
	}
	a, b := args[0], args[1]
	desc := Describe(a) + " and " + Describe(b)
	return builtin(desc, func(e *evaluator.Evaluator, args ...evaluator.Object) evaluator.Object {
		v := evaluator.Arg(args, 0)
		for _, p := range []evaluator.Object{a, b} {
			if err := check(e, p, v); err != nil {
				if isMismatch(err) {
					return evaluator.NewTypeMismatch(desc, v)
				}
				return err
			}
		}
		return nil
	})
}

// negation: __not(A) accepts values A rejects.
func negation(e *evaluator.Evaluator, args ...evaluator.Object) evaluator.Object {
	if err := checkPredicateArgs("__not", args, 1); err != nil {
		return err
	}
	a := args[0]
	desc := "not " + Describe(a)
	return builtin(desc, func(e *evaluator.Evaluator, args ...evaluator.Object) evaluator.Object {
		v := evaluator.Arg(args, 0)
		err := check(e, a, v)
		switch {
		case err == nil:
			return evaluator.NewTypeMismatch(desc, v)
		case isMismatch(err):
			return nil
		}
		return err
	})
}

// optional(A) accepts nil or values A accepts.
func optional(e *evaluator.Evaluator, args ...evaluator.Object) evaluator.Object {
	if err := checkPredicateArgs("optional", args, 1); err != nil {
		return err
	}
	a := args[0]
	desc := Describe(a) + "?"
	return builtin(desc, func(e *evaluator.Evaluator, args ...evaluator.Object) evaluator.Object {
		v := evaluator.Arg(args, 0)
		if evaluator.TypeName(v) == evaluator.TypeNameNil {
			return nil
		}
		if err := check(e, a, v); err != nil {
			if isMismatch(err) {
				return evaluator.NewTypeMismatch(desc, v)
			}
			return err
		}
		return nil
	})
}

// fromBoolean: predicate(fn[, desc]) turns a function returning a truth value
// into a predicate that raises.
func fromBoolean(e *evaluator.Evaluator, args ...evaluator.Object) evaluator.Object {
	if err := checkPredicateArgs("predicate", args, 1); err != nil {
		return err
	}
	fn := args[0]
	desc := Describe(fn)
	if s, ok := evaluator.Arg(args, 1).(*evaluator.String); ok {
		desc = s.Value
	}
	return builtin(desc, func(e *evaluator.Evaluator, args ...evaluator.Object) evaluator.Object {
		v := evaluator.Arg(args, 0)
		res := e.Call(fn, v)
		if err, ok := res.(*evaluator.Error); ok {
			return err
		}
		if !evaluator.IsTruthy(evaluator.First(res)) {
			return evaluator.NewTypeMismatch(desc, v)
		}
		return nil
	})
}

// functionType: __function(params, ret) accepts any callable. Signatures
// are not checked at the boundary; they document intent.
func functionType(e *evaluator.Evaluator, args ...evaluator.Object) evaluator.Object {
	params, _ := evaluator.Arg(args, 0).(*evaluator.Table)
	var names []string
	if params != nil {
		for i := 1; i <= params.Len(); i++ {
			names = append(names, Describe(params.Get(&evaluator.Number{Value: float64(i)})))
		}
	}
	desc := "(" + strings.Join(names, ", ") + ") -> " + Describe(evaluator.Arg(args, 1))
	return newPredicate(desc, evaluator.IsCallable)
}

func errOrNil(err *evaluator.Error) evaluator.Object {
	if err == nil {
		return nil
	}
	return err
}
