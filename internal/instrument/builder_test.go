package instrument_test

import (
	"testing"

	"github.com/funvibe/tlua/internal/ast"
	"github.com/funvibe/tlua/internal/gensym"
	"github.com/funvibe/tlua/internal/instrument"
	"github.com/funvibe/tlua/internal/prettyprinter"
	"github.com/funvibe/tlua/internal/token"
)

func TestBuild(t *testing.T) {
	at := token.Token{Line: 1, Column: 1}
	pred := func() ast.Expression { return ast.NewField(ast.NewIdent("types", at), "number", at) }

	tests := []struct {
		name string
		term ast.Expression
		ctx  instrument.Context
		want string
	}{
		{
			name: "statement",
			term: ast.NewIdent("x", at),
			ctx:  instrument.StatementPosition,
			want: "types.number(x)\n",
		},
		{
			name: "identifier",
			term: ast.NewIdent("x", at),
			ctx:  instrument.ExpressionPosition,
			want: "return (do types.number(x) in x end)\n",
		},
		{
			name: "nil",
			term: ast.NewNil(at),
			ctx:  instrument.ExpressionPosition,
			want: "return (do types.number(nil) in nil end)\n",
		},
		{
			name: "string",
			term: ast.NewString("s", at),
			ctx:  instrument.ExpressionPosition,
			want: "return (do types.number(\"s\") in \"s\" end)\n",
		},
		{
			name: "call",
			term: ast.NewCall(ast.NewIdent("f", at), at),
			ctx:  instrument.ExpressionPosition,
			want: "return (do local tmp1 = f(); types.number(tmp1) in tmp1 end)\n",
		},
		{
			name: "field",
			term: ast.NewField(ast.NewIdent("t", at), "x", at),
			ctx:  instrument.ExpressionPosition,
			want: "return (do local tmp1 = t.x; types.number(tmp1) in tmp1 end)\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := &instrument.Builder{Gen: gensym.NewCounter("tmp")}
			node := b.Build(pred(), tt.term, tt.ctx)

			var stmt ast.Statement
			switch n := node.(type) {
			case ast.Statement:
				stmt = n
			case ast.Expression:
				stmt = &ast.ReturnStatement{Values: []ast.Expression{n}}
			default:
				t.Fatalf("Build returned %T", node)
			}
			prog := &ast.Program{Body: &ast.Block{Statements: []ast.Statement{stmt}}}
			if got := prettyprinter.Print(prog); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestBuildKeepsTermNode(t *testing.T) {
	at := token.Token{Line: 3, Column: 7}
	term := ast.NewCall(ast.NewIdent("f", at), at)
	b := &instrument.Builder{Gen: gensym.NewCounter("t")}

	se := b.Expression(ast.NewIdent("pred", at), term).(*ast.StatementExpression)
	local := se.Body.Statements[0].(*ast.LocalStatement)
	if local.Values[0] != term {
		t.Error("the original term should be evaluated once, in the temporary's initializer")
	}
	if se.Token.Line != 3 || se.Token.Column != 7 {
		t.Errorf("check positioned at %d:%d, want 3:7", se.Token.Line, se.Token.Column)
	}
}

func TestContextString(t *testing.T) {
	if got := instrument.ExpressionPosition.String(); got != "expression" {
		t.Errorf("got %q", got)
	}
	if got := instrument.StatementPosition.String(); got != "statement" {
		t.Errorf("got %q", got)
	}
}
