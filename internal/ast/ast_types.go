package ast

import (
	"github.com/funvibe/tlua/internal/token"
)

// --- Type annotation nodes ---

// Type expressions are ordinary expressions (names, strings, tables, operators, calls)
// plus FunctionType, which only appears inside annotations.

// FunctionType represents a function signature in an annotation,
// e.g. (number, string) -> boolean
type FunctionType struct {
	Token      token.Token // The '->' token
	Parameters []Expression
	Returns    []Expression // exactly one in a well-formed signature
}

func (ft *FunctionType) Accept(v Visitor)     { v.VisitFunctionType(ft) }
func (ft *FunctionType) expressionNode()      {}
func (ft *FunctionType) TokenLiteral() string { return ft.Token.Lexeme }
func (ft *FunctionType) GetToken() token.Token {
	if ft == nil {
		return token.Token{}
	}
	return ft.Token
}

// Visitor is implemented by consumers that need a callback per node kind.
type Visitor interface {
	VisitProgram(node *Program)
	VisitBlock(node *Block)

	VisitLocalStatement(node *LocalStatement)
	VisitAssignStatement(node *AssignStatement)
	VisitLocalFunctionStatement(node *LocalFunctionStatement)
	VisitReturnStatement(node *ReturnStatement)
	VisitBreakStatement(node *BreakStatement)
	VisitExpressionStatement(node *ExpressionStatement)
	VisitDoStatement(node *DoStatement)
	VisitWhileStatement(node *WhileStatement)
	VisitRepeatStatement(node *RepeatStatement)
	VisitIfStatement(node *IfStatement)
	VisitNumericForStatement(node *NumericForStatement)
	VisitGenericForStatement(node *GenericForStatement)

	VisitIdentifier(node *Identifier)
	VisitNilLiteral(node *NilLiteral)
	VisitBooleanLiteral(node *BooleanLiteral)
	VisitNumberLiteral(node *NumberLiteral)
	VisitStringLiteral(node *StringLiteral)
	VisitVarargLiteral(node *VarargLiteral)
	VisitTableLiteral(node *TableLiteral)
	VisitPrefixExpression(node *PrefixExpression)
	VisitInfixExpression(node *InfixExpression)
	VisitIndexExpression(node *IndexExpression)
	VisitCallExpression(node *CallExpression)
	VisitMethodCallExpression(node *MethodCallExpression)
	VisitParenExpression(node *ParenExpression)
	VisitFunctionLiteral(node *FunctionLiteral)
	VisitStatementExpression(node *StatementExpression)
	VisitFunctionType(node *FunctionType)
}
