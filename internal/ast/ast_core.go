package ast

import (
	"github.com/funvibe/tlua/internal/token"
)

// TokenProvider is an interface for any AST node that can provide its primary token.
// This is useful for error reporting.
type TokenProvider interface {
	GetToken() token.Token
}

// Node is the base interface for all AST nodes.
type Node interface {
	TokenLiteral() string
	Accept(v Visitor)
}

// Statement is a Node that represents a statement.
// The set of statements is closed: only types in this package implement it.
type Statement interface {
	Node
	statementNode()
	GetToken() token.Token
}

// Expression is a Node that represents an expression.
// The set of expressions is closed: only types in this package implement it.
type Expression interface {
	Node
	expressionNode()
	GetToken() token.Token
}

// Program is the root node of every AST our parser produces.
type Program struct {
	File string // Source file path
	Body *Block
}

func (p *Program) Accept(v Visitor) { v.VisitProgram(p) }
func (p *Program) TokenLiteral() string {
	if p.Body != nil && len(p.Body.Statements) > 0 {
		return p.Body.Statements[0].TokenLiteral()
	}
	return ""
}

// Block is a sequence of statements forming one lexical scope.
type Block struct {
	Token      token.Token // First token of the block (or the opening keyword)
	Statements []Statement
}

func (b *Block) Accept(v Visitor)     { v.VisitBlock(b) }
func (b *Block) TokenLiteral() string { return b.Token.Lexeme }
func (b *Block) GetToken() token.Token {
	if b == nil {
		return token.Token{}
	}
	return b.Token
}

// LocalStatement binds names to values positionally.
// local a :: number, b = 1, f()
type LocalStatement struct {
	Token  token.Token // The 'local' token
	Names  []*Identifier
	Values []Expression
	// Annotations maps a declared name to its raw type expression.
	// Only annotated names appear; a repeated name keeps its rightmost annotation.
	// Consumed by the instrumentation pass.
	Annotations map[string]Expression
}

func (ls *LocalStatement) Accept(v Visitor)     { v.VisitLocalStatement(ls) }
func (ls *LocalStatement) statementNode()       {}
func (ls *LocalStatement) TokenLiteral() string { return ls.Token.Lexeme }
func (ls *LocalStatement) GetToken() token.Token {
	if ls == nil {
		return token.Token{}
	}
	return ls.Token
}

// AssignStatement assigns values to targets positionally.
// a, t.x = 1, 2
type AssignStatement struct {
	Token   token.Token // The '=' token
	Targets []Expression
	Values  []Expression
}

func (as *AssignStatement) Accept(v Visitor)     { v.VisitAssignStatement(as) }
func (as *AssignStatement) statementNode()       {}
func (as *AssignStatement) TokenLiteral() string { return as.Token.Lexeme }
func (as *AssignStatement) GetToken() token.Token {
	if as == nil {
		return token.Token{}
	}
	return as.Token
}

// LocalFunctionStatement declares a local recursive function.
// local function f(x) ... end
type LocalFunctionStatement struct {
	Token    token.Token // The 'local' token
	Name     *Identifier
	Function *FunctionLiteral
}

func (lf *LocalFunctionStatement) Accept(v Visitor)     { v.VisitLocalFunctionStatement(lf) }
func (lf *LocalFunctionStatement) statementNode()       {}
func (lf *LocalFunctionStatement) TokenLiteral() string { return lf.Token.Lexeme }
func (lf *LocalFunctionStatement) GetToken() token.Token {
	if lf == nil {
		return token.Token{}
	}
	return lf.Token
}

// ReturnStatement returns zero or more values from the enclosing function.
type ReturnStatement struct {
	Token  token.Token // The 'return' token
	Values []Expression
}

func (rs *ReturnStatement) Accept(v Visitor)     { v.VisitReturnStatement(rs) }
func (rs *ReturnStatement) statementNode()       {}
func (rs *ReturnStatement) TokenLiteral() string { return rs.Token.Lexeme }
func (rs *ReturnStatement) GetToken() token.Token {
	if rs == nil {
		return token.Token{}
	}
	return rs.Token
}

// BreakStatement leaves the innermost loop.
type BreakStatement struct {
	Token token.Token
}

func (bs *BreakStatement) Accept(v Visitor)     { v.VisitBreakStatement(bs) }
func (bs *BreakStatement) statementNode()       {}
func (bs *BreakStatement) TokenLiteral() string { return bs.Token.Lexeme }
func (bs *BreakStatement) GetToken() token.Token {
	if bs == nil {
		return token.Token{}
	}
	return bs.Token
}

// ExpressionStatement is a call used as a statement.
type ExpressionStatement struct {
	Token      token.Token
	Expression Expression
}

func (es *ExpressionStatement) Accept(v Visitor)     { v.VisitExpressionStatement(es) }
func (es *ExpressionStatement) statementNode()       {}
func (es *ExpressionStatement) TokenLiteral() string { return es.Token.Lexeme }
func (es *ExpressionStatement) GetToken() token.Token {
	if es == nil {
		return token.Token{}
	}
	return es.Token
}

// DoStatement is an explicit nested block.
type DoStatement struct {
	Token token.Token // The 'do' token
	Body  *Block
}

func (ds *DoStatement) Accept(v Visitor)     { v.VisitDoStatement(ds) }
func (ds *DoStatement) statementNode()       {}
func (ds *DoStatement) TokenLiteral() string { return ds.Token.Lexeme }
func (ds *DoStatement) GetToken() token.Token {
	if ds == nil {
		return token.Token{}
	}
	return ds.Token
}

// WhileStatement: while cond do ... end
type WhileStatement struct {
	Token     token.Token
	Condition Expression
	Body      *Block
}

func (ws *WhileStatement) Accept(v Visitor)     { v.VisitWhileStatement(ws) }
func (ws *WhileStatement) statementNode()       {}
func (ws *WhileStatement) TokenLiteral() string { return ws.Token.Lexeme }
func (ws *WhileStatement) GetToken() token.Token {
	if ws == nil {
		return token.Token{}
	}
	return ws.Token
}

// RepeatStatement: repeat ... until cond
// The condition sees the body's locals.
type RepeatStatement struct {
	Token     token.Token
	Body      *Block
	Condition Expression
}

func (rs *RepeatStatement) Accept(v Visitor)     { v.VisitRepeatStatement(rs) }
func (rs *RepeatStatement) statementNode()       {}
func (rs *RepeatStatement) TokenLiteral() string { return rs.Token.Lexeme }
func (rs *RepeatStatement) GetToken() token.Token {
	if rs == nil {
		return token.Token{}
	}
	return rs.Token
}

// IfClause is one `if`/`elseif` arm.
type IfClause struct {
	Token     token.Token
	Condition Expression
	Body      *Block
}

// IfStatement: if c then ... elseif c then ... else ... end
type IfStatement struct {
	Token   token.Token
	Clauses []*IfClause
	Else    *Block // nil when absent
}

func (is *IfStatement) Accept(v Visitor)     { v.VisitIfStatement(is) }
func (is *IfStatement) statementNode()       {}
func (is *IfStatement) TokenLiteral() string { return is.Token.Lexeme }
func (is *IfStatement) GetToken() token.Token {
	if is == nil {
		return token.Token{}
	}
	return is.Token
}

// NumericForStatement: for i = start, stop[, step] do ... end
type NumericForStatement struct {
	Token token.Token
	Var   *Identifier
	Start Expression
	Stop  Expression
	Step  Expression // nil means 1
	Body  *Block
}

func (nf *NumericForStatement) Accept(v Visitor)     { v.VisitNumericForStatement(nf) }
func (nf *NumericForStatement) statementNode()       {}
func (nf *NumericForStatement) TokenLiteral() string { return nf.Token.Lexeme }
func (nf *NumericForStatement) GetToken() token.Token {
	if nf == nil {
		return token.Token{}
	}
	return nf.Token
}

// GenericForStatement: for k, v in explist do ... end
type GenericForStatement struct {
	Token token.Token
	Names []*Identifier
	Exprs []Expression
	Body  *Block
}

func (gf *GenericForStatement) Accept(v Visitor)     { v.VisitGenericForStatement(gf) }
func (gf *GenericForStatement) statementNode()       {}
func (gf *GenericForStatement) TokenLiteral() string { return gf.Token.Lexeme }
func (gf *GenericForStatement) GetToken() token.Token {
	if gf == nil {
		return token.Token{}
	}
	return gf.Token
}
