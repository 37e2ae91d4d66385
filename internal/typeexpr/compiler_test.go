package typeexpr_test

import (
	"errors"
	"testing"

	"github.com/davecgh/go-spew/spew"

	"github.com/funvibe/tlua/internal/ast"
	"github.com/funvibe/tlua/internal/diagnostics"
	"github.com/funvibe/tlua/internal/prettyprinter"
	"github.com/funvibe/tlua/internal/token"
	"github.com/funvibe/tlua/internal/typeexpr"
)

var at = token.Token{Line: 1, Column: 1}

func ident(name string) *ast.Identifier { return ast.NewIdent(name, at) }

func str(s string) *ast.StringLiteral { return ast.NewString(s, at) }

func render(e ast.Expression) string {
	p := prettyprinter.NewCodePrinter()
	e.Accept(p)
	return p.String()
}

func TestCompile(t *testing.T) {
	tests := []struct {
		name  string
		input ast.Expression
		want  string
	}{
		{"name", ident("number"), "types.number"},
		{"keyword name", ident("nil"), `types["nil"]`},
		{"string", str("red"), `types.__string("red")`},
		{
			"union",
			&ast.InfixExpression{Operator: "or", Left: ident("number"), Right: ident("string")},
			"types.__or(types.number, types.string)",
		},
		{
			"negation",
			&ast.PrefixExpression{Operator: "not", Right: ident("nil")},
			`types.__not(types["nil"])`,
		},
		{
			"table shape",
			&ast.TableLiteral{Fields: []*ast.TableField{
				{Kind: ast.FieldNamed, Key: str("x"), Value: ident("number")},
				{Kind: ast.FieldKeyed, Key: ident("string"), Value: ident("boolean")},
				{Kind: ast.FieldPositional, Value: ident("any")},
			}},
			"types.__table({ x = types.number, [types.string] = types.boolean, types.any })",
		},
		{
			"function type",
			&ast.FunctionType{
				Parameters: []ast.Expression{ident("number"), str("k")},
				Returns:    []ast.Expression{ident("boolean")},
			},
			`types.__function({ types.number, types.__string("k") }, types.boolean)`,
		},
		{
			"parametric application",
			&ast.CallExpression{Function: ident("list"), Arguments: []ast.Expression{ident("number")}},
			"types.list(types.number)",
		},
		{
			"number argument",
			&ast.CallExpression{Function: ident("range"), Arguments: []ast.Expression{&ast.NumberLiteral{Value: 1}, &ast.NumberLiteral{Value: 10}}},
			"types.range(1, 10)",
		},
		{
			"qualified name",
			ast.NewField(ident("geo"), "Point", at),
			"geo.Point",
		},
		{
			"parenthesized predicate",
			&ast.ParenExpression{Expression: ident("is_even")},
			"(is_even)",
		},
	}

	c := typeexpr.New("types")
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := c.Compile(tt.input)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if s := render(got); s != tt.want {
				t.Errorf("got %s, want %s\n%s", s, tt.want, spew.Sdump(got))
			}
		})
	}
}

func TestCompileIdempotentOnQualifiedAndParen(t *testing.T) {
	c := typeexpr.New("types")
	for _, e := range []ast.Expression{
		ast.NewField(ident("types"), "number", at),
		&ast.ParenExpression{Expression: &ast.InfixExpression{Operator: "or", Left: ident("a"), Right: ident("b")}},
	} {
		once, err := c.Compile(e)
		if err != nil {
			t.Fatal(err)
		}
		twice, err := c.Compile(once)
		if err != nil {
			t.Fatal(err)
		}
		if once != e || twice != e {
			t.Errorf("Compile changed %s", render(e))
		}
	}
}

func TestCompileNameIsIdempotent(t *testing.T) {
	c := typeexpr.New("types")
	once, _ := c.Compile(ident("number"))
	twice, _ := c.Compile(once)
	if render(once) != render(twice) {
		t.Errorf("got %s then %s", render(once), render(twice))
	}
}

func TestCompileMalformedFunctionType(t *testing.T) {
	c := typeexpr.New("types")
	for _, returns := range [][]ast.Expression{
		nil,
		{ident("a"), ident("b")},
	} {
		ft := &ast.FunctionType{Token: at, Parameters: []ast.Expression{ident("number")}, Returns: returns}
		// Nested inside a union, the error still surfaces.
		_, err := c.Compile(&ast.InfixExpression{Operator: "or", Left: ident("nil"), Right: ft})

		var de *diagnostics.DiagnosticError
		if !errors.As(err, &de) {
			t.Fatalf("got %v, want a diagnostic", err)
		}
		if de.Code != diagnostics.ErrT001 {
			t.Errorf("got code %s, want %s", de.Code, diagnostics.ErrT001)
		}
	}
}

func TestCompileRegistryName(t *testing.T) {
	got, err := typeexpr.New("T").Compile(str("x"))
	if err != nil {
		t.Fatal(err)
	}
	if s := render(got); s != `T.__string("x")` {
		t.Errorf("got %s", s)
	}
	if typeexpr.New("").Registry != "types" {
		t.Error("empty registry should default to types")
	}
}

func TestCompileBound(t *testing.T) {
	c := typeexpr.New("types").WithBound("a")
	got, err := c.Compile(&ast.InfixExpression{Operator: "or", Left: ident("a"), Right: ident("b")})
	if err != nil {
		t.Fatal(err)
	}
	if s := render(got); s != "types.__or(a, types.b)" {
		t.Errorf("got %s", s)
	}
}

func TestCompileDoesNotAliasInput(t *testing.T) {
	c := typeexpr.New("types")
	input := str("x")
	got, _ := c.Compile(input)
	call := got.(*ast.CallExpression)
	if call.Arguments[0] == ast.Expression(input) {
		t.Error("compiled string literal shares the input node")
	}
}
