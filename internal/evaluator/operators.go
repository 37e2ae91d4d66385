package evaluator

import (
	"math"

	"github.com/funvibe/tlua/internal/ast"
)

func (e *Evaluator) evalPrefix(n *ast.PrefixExpression, env *Environment) Object {
	right := e.evalExpression(n.Right, env)
	if isError(right) {
		return right
	}
	switch n.Operator {
	case "not":
		return NativeBool(!IsTruthy(right))
	case "-":
		x, ok := ToNumber(right)
		if !ok {
			return e.errorAt(n.Token, "attempt to perform arithmetic on a %s value", TypeName(right))
		}
		return &Number{Value: -x}
	case "#":
		switch r := right.(type) {
		case *String:
			return &Number{Value: float64(len(r.Value))}
		case *Table:
			return &Number{Value: float64(r.Len())}
		}
		return e.errorAt(n.Token, "attempt to get length of a %s value", TypeName(right))
	}
	return e.errorAt(n.Token, "unknown operator: %s", n.Operator)
}

func (e *Evaluator) evalInfix(n *ast.InfixExpression, env *Environment) Object {
	left := e.evalExpression(n.Left, env)
	if isError(left) {
		return left
	}
	switch n.Operator {
	case "and":
		if !IsTruthy(left) {
			return left
		}
		return e.evalExpression(n.Right, env)
	case "or":
		if IsTruthy(left) {
			return left
		}
		return e.evalExpression(n.Right, env)
	}

	right := e.evalExpression(n.Right, env)
	if isError(right) {
		return right
	}

	switch n.Operator {
	case "==":
		return NativeBool(RawEquals(left, right))
	case "~=":
		return NativeBool(!RawEquals(left, right))
	case "<", "<=", ">", ">=":
		return e.compare(n, left, right)
	case "..":
		ls, lok := concatOperand(left)
		rs, rok := concatOperand(right)
		if !lok || !rok {
			bad := left
			if lok {
				bad = right
			}
			return e.errorAt(n.Token, "attempt to concatenate a %s value", TypeName(bad))
		}
		return &String{Value: ls + rs}
	}

	x, xok := ToNumber(left)
	y, yok := ToNumber(right)
	if !xok || !yok {
		bad := left
		if xok {
			bad = right
		}
		return e.errorAt(n.Token, "attempt to perform arithmetic on a %s value", TypeName(bad))
	}
	switch n.Operator {
	case "+":
		return &Number{Value: x + y}
	case "-":
		return &Number{Value: x - y}
	case "*":
		return &Number{Value: x * y}
	case "/":
		return &Number{Value: x / y}
	case "%":
		return &Number{Value: x - math.Floor(x/y)*y}
	case "^":
		return &Number{Value: math.Pow(x, y)}
	}
	return e.errorAt(n.Token, "unknown operator: %s", n.Operator)
}

func (e *Evaluator) compare(n *ast.InfixExpression, left, right Object) Object {
	var less, equal bool
	switch l := left.(type) {
	case *Number:
		r, ok := right.(*Number)
		if !ok {
			return e.compareError(n, left, right)
		}
		less, equal = l.Value < r.Value, l.Value == r.Value
	case *String:
		r, ok := right.(*String)
		if !ok {
			return e.compareError(n, left, right)
		}
		less, equal = l.Value < r.Value, l.Value == r.Value
	default:
		return e.compareError(n, left, right)
	}
	switch n.Operator {
	case "<":
		return NativeBool(less)
	case "<=":
		return NativeBool(less || equal)
	case ">":
		return NativeBool(!less && !equal && !isNaNPair(left, right))
	default:
		return NativeBool(!less && !isNaNPair(left, right))
	}
}

func isNaNPair(a, b Object) bool {
	x, xok := a.(*Number)
	y, yok := b.(*Number)
	return xok && yok && (math.IsNaN(x.Value) || math.IsNaN(y.Value))
}

func (e *Evaluator) compareError(n *ast.InfixExpression, left, right Object) Object {
	lt, rt := TypeName(left), TypeName(right)
	if lt == rt {
		return e.errorAt(n.Token, "attempt to compare two %s values", lt)
	}
	return e.errorAt(n.Token, "attempt to compare %s with %s", lt, rt)
}

func concatOperand(obj Object) (string, bool) {
	switch o := obj.(type) {
	case *String:
		return o.Value, true
	case *Number:
		return FormatNumber(o.Value), true
	}
	return "", false
}
