package parser

import (
	"fmt"
	"strings"

	"github.com/funvibe/tlua/internal/ast"
	"github.com/funvibe/tlua/internal/config"
	"github.com/funvibe/tlua/internal/diagnostics"
	"github.com/funvibe/tlua/internal/pipeline"
	"github.com/funvibe/tlua/internal/token"
)

// MaxRecursionDepth bounds nested expressions and blocks.
const MaxRecursionDepth = 200

// Operator precedence, lowest first.
const (
	_ int = iota
	LOWEST
	OR      // or
	AND     // and
	COMPARE // < > <= >= ~= ==
	CONCAT  // .. (right associative)
	SUM     // + -
	PRODUCT // * / %
	PREFIX  // not # -
	POWER   // ^ (right associative)
)

var precedences = map[token.TokenType]int{
	token.OR:       OR,
	token.AND:      AND,
	token.EQ:       COMPARE,
	token.NOT_EQ:   COMPARE,
	token.LT:       COMPARE,
	token.LTE:      COMPARE,
	token.GT:       COMPARE,
	token.GTE:      COMPARE,
	token.CONCAT:   CONCAT,
	token.PLUS:     SUM,
	token.MINUS:    SUM,
	token.ASTERISK: PRODUCT,
	token.SLASH:    PRODUCT,
	token.PERCENT:  PRODUCT,
	token.CARET:    POWER,
}

type (
	prefixParseFn func() ast.Expression
	infixParseFn  func(ast.Expression) ast.Expression
)

type Parser struct {
	stream pipeline.TokenStream
	ctx    *pipeline.PipelineContext

	curToken  token.Token
	peekToken token.Token

	prefixParseFns map[token.TokenType]prefixParseFn
	infixParseFns  map[token.TokenType]infixParseFn

	depth   int
	tooDeep bool
}

func New(stream pipeline.TokenStream, ctx *pipeline.PipelineContext) *Parser {
	p := &Parser{stream: stream, ctx: ctx}

	p.prefixParseFns = make(map[token.TokenType]prefixParseFn)
	p.registerPrefix(token.IDENT, p.parseNameExpression)
	p.registerPrefix(token.NUMBER, p.parseNumberLiteral)
	p.registerPrefix(token.STRING, p.parseStringLiteral)
	p.registerPrefix(token.NIL, p.parseNilLiteral)
	p.registerPrefix(token.TRUE, p.parseBooleanLiteral)
	p.registerPrefix(token.FALSE, p.parseBooleanLiteral)
	p.registerPrefix(token.ELLIPSIS, p.parseVarargLiteral)
	p.registerPrefix(token.FUNCTION, p.parseFunctionLiteral)
	p.registerPrefix(token.LBRACE, p.parseTableLiteral)
	p.registerPrefix(token.LPAREN, p.parseGroupedExpression)
	p.registerPrefix(token.MINUS, p.parsePrefixExpression)
	p.registerPrefix(token.NOT, p.parsePrefixExpression)
	p.registerPrefix(token.HASH, p.parsePrefixExpression)

	p.infixParseFns = make(map[token.TokenType]infixParseFn)
	for tt := range precedences {
		p.registerInfix(tt, p.parseInfixExpression)
	}
	p.registerInfix(token.CONCAT, p.parseRightAssocInfixExpression)
	p.registerInfix(token.CARET, p.parseRightAssocInfixExpression)

	// Read two tokens, so curToken and peekToken are both set
	p.nextToken()
	p.nextToken()

	return p
}

func (p *Parser) registerPrefix(tokenType token.TokenType, fn prefixParseFn) {
	p.prefixParseFns[tokenType] = fn
}

func (p *Parser) registerInfix(tokenType token.TokenType, fn infixParseFn) {
	p.infixParseFns[tokenType] = fn
}

// nextToken advances by one token. Pragma comments are applied here and never
// reach the grammar; illegal tokens are reported once as lexer errors.
func (p *Parser) nextToken() {
	p.curToken = p.peekToken
	for {
		tok := p.stream.NextToken()
		if tok.Type == token.PRAGMA {
			p.applyPragma(tok)
			continue
		}
		if tok.Type == token.ILLEGAL {
			msg, _ := tok.Literal.(string)
			p.addError(diagnostics.NewError(diagnostics.ErrL001, tok, msg))
		}
		p.peekToken = tok
		return
	}
}

// applyPragma handles --@typecheck on|off. Unknown pragmas are ignored.
func (p *Parser) applyPragma(tok token.Token) {
	body, _ := tok.Literal.(string)
	fields := strings.Fields(body)
	if len(fields) == 0 || fields[0] != config.TypecheckPragma {
		return
	}
	if len(fields) != 2 {
		p.addError(diagnostics.Errorf(diagnostics.ErrP007, tok, "pragma %s expects one argument: on or off", config.TypecheckPragma))
		return
	}
	switch fields[1] {
	case "on":
		p.ctx.ChecksEnabled = true
	case "off":
		p.ctx.ChecksEnabled = false
	default:
		p.addError(diagnostics.Errorf(diagnostics.ErrP007, tok, "pragma %s expects on or off, got %q", config.TypecheckPragma, fields[1]))
	}
}

// ParseProgram parses a whole compilation unit.
func (p *Parser) ParseProgram() *ast.Program {
	program := &ast.Program{File: p.ctx.FilePath}
	program.Body = p.parseBlock()
	if !p.curTokenIs(token.EOF) {
		p.addError(diagnostics.Errorf(diagnostics.ErrP001, p.curToken, "'<eof>' expected near %s", describe(p.curToken)))
	}
	return program
}

func (p *Parser) curTokenIs(t token.TokenType) bool {
	return p.curToken.Type == t
}

func (p *Parser) peekTokenIs(t token.TokenType) bool {
	return p.peekToken.Type == t
}

func (p *Parser) expectPeek(t token.TokenType) bool {
	if p.peekTokenIs(t) {
		p.nextToken()
		return true
	}
	p.peekError(t)
	return false
}

func (p *Parser) peekError(t token.TokenType) {
	if p.peekToken.Type == token.ILLEGAL {
		return
	}
	p.addError(diagnostics.Errorf(diagnostics.ErrP005, p.peekToken,
		"'%s' expected near %s", t, describe(p.peekToken)))
}

func (p *Parser) noPrefixParseFnError(tok token.Token) {
	if tok.Type == token.ILLEGAL {
		return
	}
	p.addError(diagnostics.Errorf(diagnostics.ErrP002, tok, "unexpected symbol near %s", describe(tok)))
}

func (p *Parser) peekPrecedence() int {
	if prec, ok := precedences[p.peekToken.Type]; ok {
		return prec
	}
	return LOWEST
}

func (p *Parser) curPrecedence() int {
	if prec, ok := precedences[p.curToken.Type]; ok {
		return prec
	}
	return LOWEST
}

func (p *Parser) addError(err *diagnostics.DiagnosticError) {
	p.ctx.AddError(err)
}

// enter guards recursion depth. It always counts a level, so callers
// defer p.leave() before calling it.
func (p *Parser) enter() bool {
	p.depth++
	if p.depth > MaxRecursionDepth {
		if !p.tooDeep {
			p.addError(diagnostics.NewError(diagnostics.ErrP006, p.curToken, "chunk has too many syntax levels"))
			p.tooDeep = true
		}
		return false
	}
	return true
}

func (p *Parser) leave() { p.depth-- }

func describe(tok token.Token) string {
	switch tok.Type {
	case token.EOF:
		return "<eof>"
	case token.STRING, token.NUMBER, token.IDENT:
		return fmt.Sprintf("'%s'", tok.Lexeme)
	}
	return fmt.Sprintf("'%s'", tok.Type)
}
