package evaluator

import (
	"context"
	"io"
	"os"

	"github.com/funvibe/tlua/internal/ast"
	"github.com/funvibe/tlua/internal/token"
)

// MaxCallDepth bounds nested calls; deeper recursion raises "stack overflow".
const MaxCallDepth = 200

// CallFrame represents a single frame in the call stack
type CallFrame struct {
	Name   string // Function name
	File   string // Source file
	Line   int    // Line of the call site
	Column int
}

type Evaluator struct {
	// Context for cancellation, checked between statements.
	Context context.Context

	Out io.Writer

	// CallStack for stack traces on errors
	CallStack []CallFrame
	// CurrentFile being evaluated
	CurrentFile string
}

func New() *Evaluator {
	return &Evaluator{
		Context:     context.Background(),
		Out:         os.Stdout,
		CurrentFile: "<stdin>",
	}
}

// Run executes a program in env and returns the values of a top-level
// return statement, if any.
func (e *Evaluator) Run(program *ast.Program, env *Environment) ([]Object, *Error) {
	result := e.Eval(program, env)
	if err, ok := result.(*Error); ok {
		return nil, err
	}
	return Values(result), nil
}

// Eval evaluates a program, statement or expression.
// Statements yield nil unless they return, break or fail.
func (e *Evaluator) Eval(node ast.Node, env *Environment) Object {
	switch node := node.(type) {
	case *ast.Program:
		if node.File != "" {
			e.CurrentFile = node.File
		}
		if node.Body == nil {
			return &Tuple{}
		}
		res, _ := e.evalStatements(node.Body.Statements, NewEnclosedEnvironment(env))
		switch res := res.(type) {
		case *ReturnValue:
			return &Tuple{Values: res.Values}
		case *BreakSignal:
			return NewRuntimeError("break outside a loop")
		case *Error:
			return res
		}
		return &Tuple{}
	case *ast.Block:
		return e.evalBlock(node, env)
	case ast.Statement:
		res, _ := e.evalStatement(node, env)
		return res
	case ast.Expression:
		return e.evalExpression(node, env)
	}
	return nil
}

// Call invokes fn with args and returns its results as a *Tuple, or an *Error.
func (e *Evaluator) Call(fn Object, args ...Object) Object {
	return e.callFunction(fn, args, token.Token{})
}

// PushCall adds a frame to the call stack
func (e *Evaluator) PushCall(name, file string, line, column int) {
	e.CallStack = append(e.CallStack, CallFrame{Name: name, File: file, Line: line, Column: column})
}

// PopCall removes the top frame from the call stack
func (e *Evaluator) PopCall() {
	if len(e.CallStack) > 0 {
		e.CallStack = e.CallStack[:len(e.CallStack)-1]
	}
}

func (e *Evaluator) cancelled() *Error {
	if e.Context == nil {
		return nil
	}
	if err := e.Context.Err(); err != nil {
		return NewRuntimeError("execution cancelled: %v", err)
	}
	return nil
}

// at positions err at tok unless it already carries a position.
func at(err *Error, tok token.Token) *Error {
	if err.Line == 0 && tok.Line > 0 {
		err.Line = tok.Line
		err.Column = tok.Column
	}
	return err
}

func (e *Evaluator) errorAt(tok token.Token, format string, a ...interface{}) *Error {
	return at(NewRuntimeError(format, a...), tok)
}
