package evaluator

import (
	"fmt"
	"strings"

	"github.com/funvibe/tlua/internal/ast"
	"github.com/funvibe/tlua/internal/config"
)

type ObjectType string

const (
	NIL_OBJ      = "NIL"
	BOOLEAN_OBJ  = "BOOLEAN"
	NUMBER_OBJ   = "NUMBER"
	STRING_OBJ   = "STRING"
	TABLE_OBJ    = "TABLE"
	FUNCTION_OBJ = "FUNCTION"
	BUILTIN_OBJ  = "BUILTIN"
	TUPLE_OBJ    = "TUPLE" // multiple results of a call or vararg

	ERROR_OBJ        = "ERROR"
	RETURN_VALUE_OBJ = "RETURN_VALUE"
	BREAK_SIGNAL_OBJ = "BREAK_SIGNAL"
)

// Lua type names as reported by type() and in TypeMismatch messages.
const (
	TypeNameNil      = "nil"
	TypeNameBoolean  = "boolean"
	TypeNameNumber   = "number"
	TypeNameString   = "string"
	TypeNameTable    = "table"
	TypeNameFunction = "function"
)

type Object interface {
	Type() ObjectType
	Inspect() string
}

var (
	NIL   = &Nil{}
	TRUE  = &Boolean{Value: true}
	FALSE = &Boolean{Value: false}
)

type Nil struct{}

func (n *Nil) Type() ObjectType { return NIL_OBJ }
func (n *Nil) Inspect() string  { return "nil" }

type Boolean struct {
	Value bool
}

func (b *Boolean) Type() ObjectType { return BOOLEAN_OBJ }
func (b *Boolean) Inspect() string {
	if b.Value {
		return "true"
	}
	return "false"
}

func NativeBool(v bool) *Boolean {
	if v {
		return TRUE
	}
	return FALSE
}

type Number struct {
	Value float64
}

func (n *Number) Type() ObjectType { return NUMBER_OBJ }
func (n *Number) Inspect() string  { return FormatNumber(n.Value) }

type String struct {
	Value string
}

func (s *String) Type() ObjectType { return STRING_OBJ }
func (s *String) Inspect() string  { return s.Value }

// Tuple carries multiple values. It never appears as the value of a
// variable or table slot; single-value contexts take its first element.
type Tuple struct {
	Values []Object
}

func (t *Tuple) Type() ObjectType { return TUPLE_OBJ }
func (t *Tuple) Inspect() string {
	parts := make([]string, len(t.Values))
	for i, v := range t.Values {
		parts[i] = v.Inspect()
	}
	return strings.Join(parts, "\t")
}

// Function is a closure over the environment it was created in.
type Function struct {
	Literal *ast.FunctionLiteral
	Env     *Environment
}

func (f *Function) Type() ObjectType { return FUNCTION_OBJ }
func (f *Function) Inspect() string  { return fmt.Sprintf("function: %p", f) }

// Name is the declared name, or "?" for anonymous functions.
func (f *Function) Name() string {
	if f.Literal.Name != "" {
		return f.Literal.Name
	}
	return "?"
}

// BuiltinFunction receives the running evaluator so it can call back into
// user functions. It returns a value, a *Tuple or an *Error.
type BuiltinFunction func(e *Evaluator, args ...Object) Object

type Builtin struct {
	Name string
	Fn   BuiltinFunction
}

func (b *Builtin) Type() ObjectType { return BUILTIN_OBJ }
func (b *Builtin) Inspect() string  { return "builtin: " + b.Name }

type ReturnValue struct {
	Values []Object
}

func (rv *ReturnValue) Type() ObjectType { return RETURN_VALUE_OBJ }
func (rv *ReturnValue) Inspect() string  { return (&Tuple{Values: rv.Values}).Inspect() }

type BreakSignal struct{}

func (bs *BreakSignal) Type() ObjectType { return BREAK_SIGNAL_OBJ }
func (bs *BreakSignal) Inspect() string  { return "break" }

// Error is a raised error unwinding the evaluation.
type Error struct {
	// Kind is config.RuntimeErrorKind or config.TypeMismatchKind.
	Kind    string
	Message string
	// Value is the object passed to error(); nil for errors raised by the runtime.
	Value      Object
	Line       int
	Column     int
	StackTrace []StackFrame
}

// StackFrame for error stack traces
type StackFrame struct {
	Name   string
	File   string
	Line   int
	Column int
}

func (e *Error) Type() ObjectType { return ERROR_OBJ }

// Error renders the kind and message, the form pcall hands to Lua code.
func (e *Error) Error() string {
	if e.Kind == "" || e.Kind == config.RuntimeErrorKind && e.Value != nil {
		return e.Message
	}
	return e.Kind + ": " + e.Message
}

func (e *Error) Inspect() string {
	var result string
	if e.Line > 0 {
		result = fmt.Sprintf("ERROR at %d:%d: %s", e.Line, e.Column, e.Error())
	} else {
		result = "ERROR: " + e.Error()
	}

	// Frames are appended while unwinding, innermost first.
	for _, frame := range e.StackTrace {
		result += fmt.Sprintf("\n  at %s:%d (called %s)", frame.File, frame.Line, frame.Name)
	}
	return result
}

// ErrorValue is what pcall returns as the error object.
func (e *Error) ErrorValue() Object {
	if e.Value != nil {
		return e.Value
	}
	return &String{Value: e.Error()}
}

func newError(kind string, format string, a ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, a...)}
}

// NewRuntimeError creates a RuntimeError without a position; the evaluator
// fills it in from the call site.
func NewRuntimeError(format string, a ...interface{}) *Error {
	return newError(config.RuntimeErrorKind, format, a...)
}

// NewTypeMismatch creates the error raised by failed type predicates.
func NewTypeMismatch(expected string, got Object) *Error {
	return newError(config.TypeMismatchKind, "expected %s, got %s", expected, TypeName(got))
}

func isError(obj Object) bool {
	return obj != nil && obj.Type() == ERROR_OBJ
}

// TypeName returns the Lua type name of obj.
func TypeName(obj Object) string {
	switch obj.(type) {
	case nil, *Nil:
		return TypeNameNil
	case *Boolean:
		return TypeNameBoolean
	case *Number:
		return TypeNameNumber
	case *String:
		return TypeNameString
	case *Table:
		return TypeNameTable
	case *Function, *Builtin:
		return TypeNameFunction
	default:
		return strings.ToLower(string(obj.Type()))
	}
}

// IsTruthy: only nil and false are false.
func IsTruthy(obj Object) bool {
	switch o := obj.(type) {
	case nil, *Nil:
		return false
	case *Boolean:
		return o.Value
	default:
		return true
	}
}

// IsCallable reports whether obj can be called.
func IsCallable(obj Object) bool {
	switch obj.(type) {
	case *Function, *Builtin:
		return true
	}
	return false
}

// First truncates a value list to its first element.
func First(obj Object) Object {
	if t, ok := obj.(*Tuple); ok {
		if len(t.Values) == 0 {
			return NIL
		}
		return t.Values[0]
	}
	if obj == nil {
		return NIL
	}
	return obj
}

// Values expands obj into a value list.
func Values(obj Object) []Object {
	if t, ok := obj.(*Tuple); ok {
		return t.Values
	}
	if obj == nil {
		return nil
	}
	return []Object{obj}
}

// Arg returns args[i], or nil when it is absent.
func Arg(args []Object, i int) Object {
	if i < len(args) && args[i] != nil {
		return args[i]
	}
	return NIL
}

// RawEquals compares without metamethods: by value for primitives,
// by identity for tables and functions.
func RawEquals(a, b Object) bool {
	switch x := a.(type) {
	case *Nil:
		_, ok := b.(*Nil)
		return ok
	case *Boolean:
		y, ok := b.(*Boolean)
		return ok && x.Value == y.Value
	case *Number:
		y, ok := b.(*Number)
		return ok && x.Value == y.Value
	case *String:
		y, ok := b.(*String)
		return ok && x.Value == y.Value
	default:
		return a == b
	}
}
