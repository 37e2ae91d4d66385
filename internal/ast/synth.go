package ast

import (
	"unicode"

	"github.com/funvibe/tlua/internal/token"
)

// Constructors for synthesized nodes. Synthesized nodes reuse the position
// of the source node they were derived from so diagnostics still point somewhere useful.

func NewIdent(name string, at token.Token) *Identifier {
	return &Identifier{
		Token: token.Token{Type: token.IDENT, Lexeme: name, Literal: name, Line: at.Line, Column: at.Column},
		Value: name,
	}
}

func NewString(s string, at token.Token) *StringLiteral {
	return &StringLiteral{
		Token: token.Token{Type: token.STRING, Lexeme: s, Literal: s, Line: at.Line, Column: at.Column},
		Value: s,
	}
}

func NewNil(at token.Token) *NilLiteral {
	return &NilLiteral{Token: token.Token{Type: token.NIL, Lexeme: "nil", Line: at.Line, Column: at.Column}}
}

// NewField builds obj.name; name need not be a valid identifier (it prints as obj["name"]).
func NewField(obj Expression, name string, at token.Token) *IndexExpression {
	return &IndexExpression{
		Token:  token.Token{Type: token.DOT, Lexeme: ".", Line: at.Line, Column: at.Column},
		Object: obj,
		Index:  NewString(name, at),
		Dot:    IsName(name),
	}
}

func NewCall(fn Expression, at token.Token, args ...Expression) *CallExpression {
	return &CallExpression{
		Token:     token.Token{Type: token.LPAREN, Lexeme: "(", Line: at.Line, Column: at.Column},
		Function:  fn,
		Arguments: args,
	}
}

// IsName reports whether s can be written as a bare identifier.
func IsName(s string) bool {
	if s == "" || token.IsKeyword(s) {
		return false
	}
	for i, r := range s {
		switch {
		case r == '_', unicode.IsLetter(r):
		case i > 0 && unicode.IsDigit(r):
		default:
			return false
		}
	}
	return true
}
