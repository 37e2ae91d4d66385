package instrument

import "github.com/funvibe/tlua/internal/ast"

// scope maps names declared in one block to their compiled predicate.
// A nil predicate records an untyped declaration that hides outer types.
type scope map[string]ast.Expression

type scopeStack []scope

func (s *scopeStack) push(sc scope) {
	if sc == nil {
		sc = scope{}
	}
	*s = append(*s, sc)
}

func (s *scopeStack) pop() {
	if len(*s) == 0 {
		panic("instrument: scope stack underflow")
	}
	*s = (*s)[:len(*s)-1]
}

func (s scopeStack) top() scope {
	if len(s) == 0 {
		panic("instrument: no open scope")
	}
	return s[len(s)-1]
}

// lookup returns the predicate for name from the innermost scope declaring it.
func (s scopeStack) lookup(name string) ast.Expression {
	for i := len(s) - 1; i >= 0; i-- {
		if pred, ok := s[i][name]; ok {
			return pred
		}
	}
	return nil
}

// returnStack holds the compiled return type of each enclosing function;
// nil marks a function without one.
type returnStack []ast.Expression

func (r *returnStack) push(pred ast.Expression) {
	*r = append(*r, pred)
}

func (r *returnStack) pop() {
	if len(*r) == 0 {
		panic("instrument: return stack underflow")
	}
	*r = (*r)[:len(*r)-1]
}

// top returns the innermost return type, or nil outside any function.
func (r returnStack) top() ast.Expression {
	if len(r) == 0 {
		return nil
	}
	return r[len(r)-1]
}
