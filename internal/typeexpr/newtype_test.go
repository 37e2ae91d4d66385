package typeexpr_test

import (
	"errors"
	"testing"

	"github.com/funvibe/tlua/internal/ast"
	"github.com/funvibe/tlua/internal/diagnostics"
	"github.com/funvibe/tlua/internal/prettyprinter"
	"github.com/funvibe/tlua/internal/typeexpr"
)

func renderStatement(s ast.Statement) string {
	return prettyprinter.Print(&ast.Program{Body: &ast.Block{Statements: []ast.Statement{s}}})
}

func TestNewTypeBinding(t *testing.T) {
	tests := []struct {
		name string
		lhs  ast.Expression
		rhs  ast.Expression
		want string
	}{
		{
			"alias",
			ident("Positive"),
			ident("number"),
			"types.Positive = types.number\n",
		},
		{
			"parametric",
			&ast.CallExpression{Function: ident("Pair"), Arguments: []ast.Expression{ident("a"), ident("b")}},
			&ast.TableLiteral{Fields: []*ast.TableField{
				{Kind: ast.FieldNamed, Key: str("first"), Value: ident("a")},
				{Kind: ast.FieldNamed, Key: str("second"), Value: ident("b")},
				{Kind: ast.FieldNamed, Key: str("tag"), Value: ident("string")},
			}},
			"types.Pair = function(a, b)\n    return types.__table({ first = a, second = b, tag = types.string })\nend\n",
		},
		{
			"no parameters",
			&ast.CallExpression{Function: ident("Unit")},
			ident("nil"),
			"types.Unit = function()\n    return types[\"nil\"]\nend\n",
		},
	}

	c := typeexpr.New("types")
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stmt, err := c.NewTypeBinding(at, tt.lhs, tt.rhs)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got := renderStatement(stmt); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestNewTypeBindingMalformed(t *testing.T) {
	tests := []struct {
		name string
		lhs  ast.Expression
	}{
		{"string", str("T")},
		{"qualified", ast.NewField(ident("m"), "T", at)},
		{"non-name parameter", &ast.CallExpression{Function: ident("T"), Arguments: []ast.Expression{str("a")}}},
		{"qualified constructor", &ast.CallExpression{Function: ast.NewField(ident("m"), "T", at)}},
	}

	c := typeexpr.New("types")
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := c.NewTypeBinding(at, tt.lhs, ident("number"))
			var de *diagnostics.DiagnosticError
			if !errors.As(err, &de) {
				t.Fatalf("got %v, want a diagnostic", err)
			}
			if de.Code != diagnostics.ErrT002 {
				t.Errorf("got code %s, want %s", de.Code, diagnostics.ErrT002)
			}
		})
	}
}

func TestNewTypeBindingPropagatesT001(t *testing.T) {
	c := typeexpr.New("types")
	_, err := c.NewTypeBinding(at, ident("F"), &ast.FunctionType{Token: at})
	var de *diagnostics.DiagnosticError
	if !errors.As(err, &de) || de.Code != diagnostics.ErrT001 {
		t.Errorf("got %v, want T001", err)
	}
}
