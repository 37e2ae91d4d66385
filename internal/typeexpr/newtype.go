package typeexpr

import (
	"github.com/funvibe/tlua/internal/ast"
	"github.com/funvibe/tlua/internal/diagnostics"
	"github.com/funvibe/tlua/internal/token"
)

// NewTypeBinding desugars a newtype declaration into a registry assignment:
//
//	newtype Name = T        -> types.Name = T'
//	newtype Name(a, b) = T  -> types.Name = function(a, b) return T' end
//
// In the parametric form a and b stay plain names inside T'.
// Any other left-hand side is a T002 error.
func (c *Compiler) NewTypeBinding(tok token.Token, lhs, rhs ast.Expression) (ast.Statement, error) {
	switch l := lhs.(type) {
	case *ast.Identifier:
		value, err := c.Compile(rhs)
		if err != nil {
			return nil, err
		}
		return c.bind(tok, l, value), nil

	case *ast.CallExpression:
		name, ok := l.Function.(*ast.Identifier)
		if !ok {
			break
		}
		params := make([]*ast.Identifier, 0, len(l.Arguments))
		names := make([]string, 0, len(l.Arguments))
		for _, arg := range l.Arguments {
			param, ok := arg.(*ast.Identifier)
			if !ok {
				return nil, diagnostics.Errorf(diagnostics.ErrT002, arg.GetToken(),
					"malformed newtype declaration: type parameter must be a name")
			}
			params = append(params, &ast.Identifier{Token: param.Token, Value: param.Value})
			names = append(names, param.Value)
		}

		body, err := c.WithBound(names...).Compile(rhs)
		if err != nil {
			return nil, err
		}
		fnToken := token.Token{Type: token.FUNCTION, Lexeme: "function", Line: tok.Line, Column: tok.Column}
		fn := &ast.FunctionLiteral{
			Token:      fnToken,
			Name:       name.Value,
			Parameters: params,
			Body: &ast.Block{
				Token: fnToken,
				Statements: []ast.Statement{
					&ast.ReturnStatement{
						Token:  token.Token{Type: token.RETURN, Lexeme: "return", Line: tok.Line, Column: tok.Column},
						Values: []ast.Expression{body},
					},
				},
			},
		}
		return c.bind(tok, name, fn), nil
	}

	return nil, diagnostics.Errorf(diagnostics.ErrT002, lhs.GetToken(),
		"malformed newtype declaration: expected Name or Name(params)")
}

func (c *Compiler) bind(tok token.Token, name *ast.Identifier, value ast.Expression) ast.Statement {
	return &ast.AssignStatement{
		Token:   token.Token{Type: token.ASSIGN, Lexeme: "=", Line: tok.Line, Column: tok.Column},
		Targets: []ast.Expression{ast.NewField(c.registry(name.Token), name.Value, name.Token)},
		Values:  []ast.Expression{value},
	}
}
