package evaluator

import (
	"fmt"
	"strings"

	"github.com/funvibe/tlua/internal/config"
)

// Builtins is the global function library.
var Builtins = map[string]*Builtin{
	config.PrintFuncName:    {Name: config.PrintFuncName, Fn: builtinPrint},
	config.TypeFuncName:     {Name: config.TypeFuncName, Fn: builtinType},
	config.ToStringFuncName: {Name: config.ToStringFuncName, Fn: builtinToString},
	config.ToNumberFuncName: {Name: config.ToNumberFuncName, Fn: builtinToNumber},
	config.ErrorFuncName:    {Name: config.ErrorFuncName, Fn: builtinError},
	config.AssertFuncName:   {Name: config.AssertFuncName, Fn: builtinAssert},
	config.PcallFuncName:    {Name: config.PcallFuncName, Fn: builtinPcall},
	config.SelectFuncName:   {Name: config.SelectFuncName, Fn: builtinSelect},
	config.PairsFuncName:    {Name: config.PairsFuncName, Fn: builtinPairs},
	config.IpairsFuncName:   {Name: config.IpairsFuncName, Fn: builtinIpairs},
	config.NextFuncName:     nextBuiltin,
	config.RawGetFuncName:   {Name: config.RawGetFuncName, Fn: builtinRawGet},
	config.RawSetFuncName:   {Name: config.RawSetFuncName, Fn: builtinRawSet},
}

var nextBuiltin = &Builtin{Name: config.NextFuncName, Fn: builtinNext}

// RegisterBuiltins installs the global functions into env.
func RegisterBuiltins(env *Environment) {
	for name, builtin := range Builtins {
		env.Set(name, builtin)
	}
}

func argError(i int, fname, format string, a ...interface{}) *Error {
	return NewRuntimeError("bad argument #%d to '%s' (%s)", i+1, fname, fmt.Sprintf(format, a...))
}

func checkTable(args []Object, i int, fname string) (*Table, *Error) {
	t, ok := Arg(args, i).(*Table)
	if !ok {
		return nil, argError(i, fname, "table expected, got %s", noValue(args, i))
	}
	return t, nil
}

func noValue(args []Object, i int) string {
	if i >= len(args) {
		return "no value"
	}
	return TypeName(args[i])
}

func builtinPrint(e *Evaluator, args ...Object) Object {
	parts := make([]string, len(args))
	for i, a := range args {
		parts[i] = ToString(a)
	}
	fmt.Fprintln(e.Out, strings.Join(parts, "\t"))
	return nil
}

func builtinType(e *Evaluator, args ...Object) Object {
	if len(args) == 0 {
		return argError(0, config.TypeFuncName, "value expected")
	}
	return &String{Value: TypeName(args[0])}
}

func builtinToString(e *Evaluator, args ...Object) Object {
	return &String{Value: ToString(Arg(args, 0))}
}

func builtinToNumber(e *Evaluator, args ...Object) Object {
	v := Arg(args, 0)
	if len(args) > 1 && !isNil(args[1]) {
		base, ok := ToNumber(args[1])
		if !ok || base < 2 || base > 36 {
			return argError(1, config.ToNumberFuncName, "base out of range")
		}
		s, ok := v.(*String)
		if !ok {
			if n, isNum := v.(*Number); isNum {
				s = &String{Value: FormatNumber(n.Value)}
			} else {
				return argError(0, config.ToNumberFuncName, "string expected, got %s", TypeName(v))
			}
		}
		if n, ok := ParseNumberBase(s.Value, int(base)); ok {
			return &Number{Value: n}
		}
		return NIL
	}
	if n, ok := ToNumber(v); ok {
		return &Number{Value: n}
	}
	return NIL
}

func builtinError(e *Evaluator, args ...Object) Object {
	v := Arg(args, 0)
	return &Error{Kind: config.RuntimeErrorKind, Message: ToString(v), Value: v}
}

func builtinAssert(e *Evaluator, args ...Object) Object {
	if len(args) == 0 {
		return argError(0, config.AssertFuncName, "value expected")
	}
	if IsTruthy(args[0]) {
		return &Tuple{Values: args}
	}
	if len(args) > 1 {
		return &Error{Kind: config.RuntimeErrorKind, Message: ToString(args[1]), Value: args[1]}
	}
	return NewRuntimeError("assertion failed!")
}

func builtinPcall(e *Evaluator, args ...Object) Object {
	if len(args) == 0 {
		return argError(0, config.PcallFuncName, "value expected")
	}
	depth := len(e.CallStack)
	res := e.Call(args[0], args[1:]...)
	if err, ok := res.(*Error); ok {
		e.CallStack = e.CallStack[:depth]
		return &Tuple{Values: []Object{FALSE, err.ErrorValue()}}
	}
	return &Tuple{Values: append([]Object{TRUE}, Values(res)...)}
}

func builtinSelect(e *Evaluator, args ...Object) Object {
	if s, ok := Arg(args, 0).(*String); ok && s.Value == "#" {
		return &Number{Value: float64(len(args) - 1)}
	}
	n, ok := ToNumber(Arg(args, 0))
	if !ok {
		return argError(0, config.SelectFuncName, "number expected, got %s", noValue(args, 0))
	}
	i := int(n)
	switch {
	case i < 0:
		i = len(args) + i
		if i < 1 {
			return argError(0, config.SelectFuncName, "index out of range")
		}
	case i == 0:
		return argError(0, config.SelectFuncName, "index out of range")
	}
	if i >= len(args) {
		return &Tuple{}
	}
	return &Tuple{Values: args[i:]}
}

func builtinNext(e *Evaluator, args ...Object) Object {
	t, err := checkTable(args, 0, config.NextFuncName)
	if err != nil {
		return err
	}
	k, v, ok, nerr := t.Next(Arg(args, 1))
	if nerr != nil {
		return nerr.(*Error)
	}
	if !ok {
		return NIL
	}
	return &Tuple{Values: []Object{k, v}}
}

func builtinPairs(e *Evaluator, args ...Object) Object {
	t, err := checkTable(args, 0, config.PairsFuncName)
	if err != nil {
		return err
	}
	return &Tuple{Values: []Object{nextBuiltin, t, NIL}}
}

var ipairsIterator = &Builtin{Name: "ipairs_iterator", Fn: func(e *Evaluator, args ...Object) Object {
	t, err := checkTable(args, 0, config.IpairsFuncName)
	if err != nil {
		return err
	}
	n, _ := ToNumber(Arg(args, 1))
	key := &Number{Value: n + 1}
	v := t.Get(key)
	if isNil(v) {
		return NIL
	}
	return &Tuple{Values: []Object{key, v}}
}}

func builtinIpairs(e *Evaluator, args ...Object) Object {
	t, err := checkTable(args, 0, config.IpairsFuncName)
	if err != nil {
		return err
	}
	return &Tuple{Values: []Object{ipairsIterator, t, &Number{Value: 0}}}
}

func builtinRawGet(e *Evaluator, args ...Object) Object {
	t, err := checkTable(args, 0, config.RawGetFuncName)
	if err != nil {
		return err
	}
	return t.Get(Arg(args, 1))
}

func builtinRawSet(e *Evaluator, args ...Object) Object {
	t, err := checkTable(args, 0, config.RawSetFuncName)
	if err != nil {
		return err
	}
	if serr := t.Set(Arg(args, 1), Arg(args, 2)); serr != nil {
		return serr.(*Error)
	}
	return t
}
