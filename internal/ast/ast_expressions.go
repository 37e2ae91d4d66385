package ast

import (
	"github.com/funvibe/tlua/internal/token"
)

// Identifier represents a name, e.g. a local variable or a global.
type Identifier struct {
	Token token.Token // the token.IDENT token
	Value string
}

func (i *Identifier) Accept(v Visitor)     { v.VisitIdentifier(i) }
func (i *Identifier) expressionNode()      {}
func (i *Identifier) TokenLiteral() string { return i.Token.Lexeme }
func (i *Identifier) GetToken() token.Token {
	if i == nil {
		return token.Token{}
	}
	return i.Token
}

// NilLiteral represents nil.
type NilLiteral struct {
	Token token.Token
}

func (n *NilLiteral) Accept(v Visitor)     { v.VisitNilLiteral(n) }
func (n *NilLiteral) expressionNode()      {}
func (n *NilLiteral) TokenLiteral() string { return n.Token.Lexeme }
func (n *NilLiteral) GetToken() token.Token {
	if n == nil {
		return token.Token{}
	}
	return n.Token
}

// BooleanLiteral represents boolean literals true/false.
type BooleanLiteral struct {
	Token token.Token
	Value bool
}

func (b *BooleanLiteral) Accept(v Visitor)     { v.VisitBooleanLiteral(b) }
func (b *BooleanLiteral) expressionNode()      {}
func (b *BooleanLiteral) TokenLiteral() string { return b.Token.Lexeme }
func (b *BooleanLiteral) GetToken() token.Token {
	if b == nil {
		return token.Token{}
	}
	return b.Token
}

// NumberLiteral represents a numeric literal. All numbers are float64.
type NumberLiteral struct {
	Token token.Token
	Value float64
}

func (nl *NumberLiteral) Accept(v Visitor)     { v.VisitNumberLiteral(nl) }
func (nl *NumberLiteral) expressionNode()      {}
func (nl *NumberLiteral) TokenLiteral() string { return nl.Token.Lexeme }
func (nl *NumberLiteral) GetToken() token.Token {
	if nl == nil {
		return token.Token{}
	}
	return nl.Token
}

// StringLiteral represents a string, e.g. "hello"
type StringLiteral struct {
	Token token.Token
	Value string
}

func (sl *StringLiteral) Accept(v Visitor)     { v.VisitStringLiteral(sl) }
func (sl *StringLiteral) expressionNode()      {}
func (sl *StringLiteral) TokenLiteral() string { return sl.Token.Lexeme }
func (sl *StringLiteral) GetToken() token.Token {
	if sl == nil {
		return token.Token{}
	}
	return sl.Token
}

// VarargLiteral is the `...` expression.
type VarargLiteral struct {
	Token token.Token
}

func (va *VarargLiteral) Accept(v Visitor)     { v.VisitVarargLiteral(va) }
func (va *VarargLiteral) expressionNode()      {}
func (va *VarargLiteral) TokenLiteral() string { return va.Token.Lexeme }
func (va *VarargLiteral) GetToken() token.Token {
	if va == nil {
		return token.Token{}
	}
	return va.Token
}

type FieldKind int

const (
	FieldPositional FieldKind = iota // { v }
	FieldNamed                       // { k = v }, Key is a *StringLiteral
	FieldKeyed                       // { [k] = v }
)

// TableField is one entry of a table constructor.
type TableField struct {
	Kind  FieldKind
	Key   Expression // nil for positional fields
	Value Expression
}

// TableLiteral represents a table constructor, e.g. { 1, x = 2, [k] = 3 }
type TableLiteral struct {
	Token  token.Token // The '{' token
	Fields []*TableField
}

func (tl *TableLiteral) Accept(v Visitor)     { v.VisitTableLiteral(tl) }
func (tl *TableLiteral) expressionNode()      {}
func (tl *TableLiteral) TokenLiteral() string { return tl.Token.Lexeme }
func (tl *TableLiteral) GetToken() token.Token {
	if tl == nil {
		return token.Token{}
	}
	return tl.Token
}

// PrefixExpression: -x, not x, #x
type PrefixExpression struct {
	Token    token.Token
	Operator string
	Right    Expression
}

func (pe *PrefixExpression) Accept(v Visitor)     { v.VisitPrefixExpression(pe) }
func (pe *PrefixExpression) expressionNode()      {}
func (pe *PrefixExpression) TokenLiteral() string { return pe.Token.Lexeme }
func (pe *PrefixExpression) GetToken() token.Token {
	if pe == nil {
		return token.Token{}
	}
	return pe.Token
}

// InfixExpression: a + b, a or b, a .. b
type InfixExpression struct {
	Token    token.Token
	Left     Expression
	Operator string
	Right    Expression
}

func (ie *InfixExpression) Accept(v Visitor)     { v.VisitInfixExpression(ie) }
func (ie *InfixExpression) expressionNode()      {}
func (ie *InfixExpression) TokenLiteral() string { return ie.Token.Lexeme }
func (ie *InfixExpression) GetToken() token.Token {
	if ie == nil {
		return token.Token{}
	}
	return ie.Token
}

// IndexExpression: t[k] or t.name (Dot is set and Index is a *StringLiteral).
type IndexExpression struct {
	Token  token.Token
	Object Expression
	Index  Expression
	Dot    bool
}

func (ie *IndexExpression) Accept(v Visitor)     { v.VisitIndexExpression(ie) }
func (ie *IndexExpression) expressionNode()      {}
func (ie *IndexExpression) TokenLiteral() string { return ie.Token.Lexeme }
func (ie *IndexExpression) GetToken() token.Token {
	if ie == nil {
		return token.Token{}
	}
	return ie.Token
}

// CallExpression: f(a, b), f "s", f { ... }
type CallExpression struct {
	Token     token.Token // The '(' token
	Function  Expression
	Arguments []Expression
}

func (ce *CallExpression) Accept(v Visitor)     { v.VisitCallExpression(ce) }
func (ce *CallExpression) expressionNode()      {}
func (ce *CallExpression) TokenLiteral() string { return ce.Token.Lexeme }
func (ce *CallExpression) GetToken() token.Token {
	if ce == nil {
		return token.Token{}
	}
	return ce.Token
}

// MethodCallExpression: obj:name(args)
type MethodCallExpression struct {
	Token     token.Token // The ':' token
	Object    Expression
	Method    *Identifier
	Arguments []Expression
}

func (mc *MethodCallExpression) Accept(v Visitor)     { v.VisitMethodCallExpression(mc) }
func (mc *MethodCallExpression) expressionNode()      {}
func (mc *MethodCallExpression) TokenLiteral() string { return mc.Token.Lexeme }
func (mc *MethodCallExpression) GetToken() token.Token {
	if mc == nil {
		return token.Token{}
	}
	return mc.Token
}

// ParenExpression: (e). Truncates multiple results to one.
type ParenExpression struct {
	Token      token.Token // The '(' token
	Expression Expression
}

func (pe *ParenExpression) Accept(v Visitor)     { v.VisitParenExpression(pe) }
func (pe *ParenExpression) expressionNode()      {}
func (pe *ParenExpression) TokenLiteral() string { return pe.Token.Lexeme }
func (pe *ParenExpression) GetToken() token.Token {
	if pe == nil {
		return token.Token{}
	}
	return pe.Token
}

// FunctionLiteral: function(a, b, ...) body end
type FunctionLiteral struct {
	Token      token.Token // The 'function' token
	Name       string      // Informational, set for named declarations
	Parameters []*Identifier
	IsVariadic bool
	Body       *Block

	// ParamTypes maps parameter names to raw type expressions.
	// ReturnType is the raw return type expression, nil when unannotated.
	// Both are consumed by the instrumentation pass.
	ParamTypes map[string]Expression
	ReturnType Expression
}

func (fl *FunctionLiteral) Accept(v Visitor)     { v.VisitFunctionLiteral(fl) }
func (fl *FunctionLiteral) expressionNode()      {}
func (fl *FunctionLiteral) TokenLiteral() string { return fl.Token.Lexeme }
func (fl *FunctionLiteral) GetToken() token.Token {
	if fl == nil {
		return token.Token{}
	}
	return fl.Token
}

// StatementExpression runs Body in its own scope, then yields Result.
// (do local t = f() types.number(t) in t end)
type StatementExpression struct {
	Token  token.Token
	Body   *Block
	Result Expression
}

func (se *StatementExpression) Accept(v Visitor)     { v.VisitStatementExpression(se) }
func (se *StatementExpression) expressionNode()      {}
func (se *StatementExpression) TokenLiteral() string { return se.Token.Lexeme }
func (se *StatementExpression) GetToken() token.Token {
	if se == nil {
		return token.Token{}
	}
	return se.Token
}
