package gensym_test

import (
	"testing"

	"github.com/funvibe/tlua/internal/ast"
	"github.com/funvibe/tlua/internal/gensym"
	"github.com/funvibe/tlua/internal/token"
)

func TestCounterSequence(t *testing.T) {
	c := gensym.NewCounter("__t")
	for _, want := range []string{"__t1", "__t2", "__t3"} {
		if got := c.Fresh(); got != want {
			t.Errorf("Fresh() = %q, want %q", got, want)
		}
	}
}

func TestCounterSkipsReserved(t *testing.T) {
	c := gensym.NewCounter("tmp")
	c.Reserve("tmp1", "tmp3")
	got := []string{c.Fresh(), c.Fresh(), c.Fresh()}
	want := []string{"tmp2", "tmp4", "tmp5"}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Fresh() #%d = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestForProgramReservesIdentifiers(t *testing.T) {
	at := token.Token{Line: 1, Column: 1}
	prog := &ast.Program{Body: &ast.Block{Statements: []ast.Statement{
		&ast.LocalStatement{
			Token:  at,
			Names:  []*ast.Identifier{ast.NewIdent("__tlua_1", at)},
			Values: []ast.Expression{ast.NewCall(ast.NewIdent("__tlua_2", at), at)},
		},
	}}}

	c := gensym.ForProgram("__tlua_", prog)
	if got := c.Fresh(); got != "__tlua_3" {
		t.Errorf("Fresh() = %q, want %q", got, "__tlua_3")
	}
}

func TestCounterIsDeterministic(t *testing.T) {
	a, b := gensym.NewCounter("x"), gensym.NewCounter("x")
	for i := 0; i < 10; i++ {
		if x, y := a.Fresh(), b.Fresh(); x != y {
			t.Fatalf("counters diverged at step %d: %q vs %q", i, x, y)
		}
	}
}
