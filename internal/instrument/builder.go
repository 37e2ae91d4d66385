// Package instrument rewrites annotated programs so every typed binding
// is checked at run time.
package instrument

import (
	"fmt"

	"github.com/funvibe/tlua/internal/ast"
	"github.com/funvibe/tlua/internal/gensym"
	"github.com/funvibe/tlua/internal/token"
)

// Context says where a check is placed.
type Context int

const (
	// ExpressionPosition yields the checked value.
	ExpressionPosition Context = iota
	// StatementPosition only runs the check.
	StatementPosition
)

func (c Context) String() string {
	switch c {
	case ExpressionPosition:
		return "expression"
	case StatementPosition:
		return "statement"
	}
	return fmt.Sprintf("Context(%d)", int(c))
}

// Builder synthesizes check nodes. Each check evaluates the checked term once.
type Builder struct {
	Gen gensym.Generator
}

// Build returns pred(term) wrapped for ctx:
//
//	StatementPosition:            pred(term)
//	ExpressionPosition, trivial:  (do pred(term) in term end)
//	ExpressionPosition, other:    (do local tmp = term; pred(tmp) in tmp end)
//
// pred is cloned, so one compiled predicate can be used for many checks.
// Build returns an *ast.ExpressionStatement or an *ast.StatementExpression.
func (b *Builder) Build(pred, term ast.Expression, ctx Context) ast.Node {
	at := term.GetToken()

	if ctx == StatementPosition {
		return &ast.ExpressionStatement{Token: at, Expression: b.check(pred, term, at)}
	}

	if isTrivial(term) {
		return &ast.StatementExpression{
			Token:  doToken(at),
			Body:   &ast.Block{Token: at, Statements: []ast.Statement{b.checkStatement(pred, ast.CloneExpression(term), at)}},
			Result: term,
		}
	}

	tmp := b.Gen.Fresh()
	return &ast.StatementExpression{
		Token: doToken(at),
		Body: &ast.Block{Token: at, Statements: []ast.Statement{
			&ast.LocalStatement{
				Token:  token.Token{Type: token.LOCAL, Lexeme: "local", Line: at.Line, Column: at.Column},
				Names:  []*ast.Identifier{ast.NewIdent(tmp, at)},
				Values: []ast.Expression{term},
			},
			b.checkStatement(pred, ast.NewIdent(tmp, at), at),
		}},
		Result: ast.NewIdent(tmp, at),
	}
}

// Expression is Build in ExpressionPosition.
func (b *Builder) Expression(pred, term ast.Expression) ast.Expression {
	return b.Build(pred, term, ExpressionPosition).(ast.Expression)
}

// Statement is Build in StatementPosition.
func (b *Builder) Statement(pred, term ast.Expression) ast.Statement {
	return b.Build(pred, term, StatementPosition).(ast.Statement)
}

func (b *Builder) check(pred, arg ast.Expression, at token.Token) ast.Expression {
	return ast.NewCall(ast.CloneExpression(pred), at, arg)
}

func (b *Builder) checkStatement(pred, arg ast.Expression, at token.Token) ast.Statement {
	return &ast.ExpressionStatement{Token: at, Expression: b.check(pred, arg, at)}
}

// isTrivial reports whether evaluating e twice is the same as evaluating it once.
func isTrivial(e ast.Expression) bool {
	switch e.(type) {
	case *ast.Identifier, *ast.NilLiteral, *ast.BooleanLiteral, *ast.NumberLiteral, *ast.StringLiteral:
		return true
	}
	return false
}

func doToken(at token.Token) token.Token {
	return token.Token{Type: token.DO, Lexeme: "do", Line: at.Line, Column: at.Column}
}
