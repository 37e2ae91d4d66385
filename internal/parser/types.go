package parser

import (
	"github.com/funvibe/tlua/internal/ast"
	"github.com/funvibe/tlua/internal/diagnostics"
	"github.com/funvibe/tlua/internal/token"
)

// Type annotations reuse the expression node set:
//
//	number                 identifier
//	mod.Type               qualified (left as written by the compiler)
//	list(number)           parametric application
//	"red"                  string singleton
//	{ x = number, string } table shape
//	not T, T or U, T and U operators
//	(pred)                 any expression, left uncompiled
//	(T, U) -> R            function type
//
// The keywords nil and function are accepted as type names.

var typePrecedences = map[token.TokenType]int{
	token.OR:  OR,
	token.AND: AND,
}

// parseType parses a type expression starting at curToken and leaves
// curToken on its last token.
func (p *Parser) parseType(precedence int) ast.Expression {
	defer p.leave()
	if !p.enter() {
		return nil
	}

	left := p.parseTypePrefix()
	if left == nil {
		return nil
	}

	for {
		prec, ok := typePrecedences[p.peekToken.Type]
		if !ok || precedence >= prec {
			return left
		}
		p.nextToken()
		infix := &ast.InfixExpression{Token: p.curToken, Operator: p.curToken.Lexeme, Left: left}
		p.nextToken()
		infix.Right = p.parseType(prec)
		if infix.Right == nil {
			return nil
		}
		left = infix
	}
}

func (p *Parser) parseTypePrefix() ast.Expression {
	switch p.curToken.Type {
	case token.IDENT, token.NIL, token.FUNCTION:
		name := &ast.Identifier{Token: p.curToken, Value: p.curToken.Lexeme}
		return p.parseTypeSuffixes(name)
	case token.STRING:
		return p.parseStringLiteral()
	case token.LBRACE:
		return p.parseTableType()
	case token.NOT:
		prefix := &ast.PrefixExpression{Token: p.curToken, Operator: p.curToken.Lexeme}
		p.nextToken()
		prefix.Right = p.parseType(PREFIX)
		if prefix.Right == nil {
			return nil
		}
		return prefix
	case token.LPAREN:
		return p.parseParenType()
	}
	p.addError(diagnostics.Errorf(diagnostics.ErrP004, p.curToken, "type expected near %s", describe(p.curToken)))
	return nil
}

// parseTypeSuffixes parses .name qualification and (T, ...) application.
func (p *Parser) parseTypeSuffixes(expr ast.Expression) ast.Expression {
	for {
		switch p.peekToken.Type {
		case token.DOT:
			p.nextToken()
			dot := p.curToken
			if !p.expectPeek(token.IDENT) {
				return nil
			}
			expr = &ast.IndexExpression{
				Token:  dot,
				Object: expr,
				Index:  &ast.StringLiteral{Token: p.curToken, Value: p.curToken.Lexeme},
				Dot:    true,
			}
		case token.LPAREN:
			p.nextToken()
			call := &ast.CallExpression{Token: p.curToken, Function: expr}
			args, ok := p.parseTypeList(token.RPAREN)
			if !ok {
				return nil
			}
			call.Arguments = args
			expr = call
		default:
			return expr
		}
	}
}

// parseParenType parses either a function type (T, ...) -> R or a
// parenthesized predicate expression (e), which is left uncompiled.
func (p *Parser) parseParenType() ast.Expression {
	open := p.curToken

	if !p.isFunctionType() {
		p.nextToken()
		exp := p.parseExpression(LOWEST)
		if exp == nil || !p.expectPeek(token.RPAREN) {
			return nil
		}
		return &ast.ParenExpression{Token: open, Expression: exp}
	}

	params, ok := p.parseTypeList(token.RPAREN)
	if !ok {
		return nil
	}
	return p.parseFunctionType(params)
}

// isFunctionType reports whether the group opened by curToken is followed by '->'.
func (p *Parser) isFunctionType() bool {
	next := p.lookahead()
	depth := 1
	for {
		switch next().Type {
		case token.LPAREN:
			depth++
		case token.RPAREN:
			depth--
			if depth == 0 {
				return next().Type == token.ARROW
			}
		case token.EOF:
			return false
		}
	}
}

// lookahead returns an iterator over the tokens after curToken, without consuming them.
func (p *Parser) lookahead() func() token.Token {
	i := -1
	return func() token.Token {
		for {
			var tok token.Token
			if i < 0 {
				tok = p.peekToken
			} else {
				tok = p.stream.Peek(i)
			}
			i++
			if tok.Type != token.PRAGMA {
				return tok
			}
		}
	}
}

// parseFunctionType parses '-> R' or '-> (R1, ...)' after a parameter list.
func (p *Parser) parseFunctionType(params []ast.Expression) ast.Expression {
	p.nextToken() // ->
	ft := &ast.FunctionType{Token: p.curToken, Parameters: params}
	p.nextToken()

	if p.curTokenIs(token.LPAREN) {
		if p.peekTokenIs(token.RPAREN) {
			p.nextToken()
			ft.Returns = []ast.Expression{}
			return ft
		}
		returns, ok := p.parseTypeList(token.RPAREN)
		if !ok {
			return nil
		}
		// (T) -> (U) -> V: a parenthesized single return followed by an arrow
		// is itself a function type.
		if p.peekTokenIs(token.ARROW) {
			inner := p.parseFunctionType(returns)
			if inner == nil {
				return nil
			}
			ft.Returns = []ast.Expression{inner}
			return ft
		}
		ft.Returns = returns
		return ft
	}

	ret := p.parseType(LOWEST)
	if ret == nil {
		return nil
	}
	ft.Returns = []ast.Expression{ret}
	return ft
}

// parseTypeList parses T, U, ... up to the closing token, starting with
// curToken on the opening token and leaving it on the closing one.
func (p *Parser) parseTypeList(closing token.TokenType) ([]ast.Expression, bool) {
	var list []ast.Expression
	if p.peekTokenIs(closing) {
		p.nextToken()
		return list, true
	}
	for {
		p.nextToken()
		typ := p.parseType(LOWEST)
		if typ == nil {
			return nil, false
		}
		list = append(list, typ)
		if !p.peekTokenIs(token.COMMA) {
			break
		}
		p.nextToken()
	}
	if !p.expectPeek(closing) {
		return nil, false
	}
	return list, true
}

// parseTableType parses { name = T, [K] = V, T }.
func (p *Parser) parseTableType() ast.Expression {
	table := &ast.TableLiteral{Token: p.curToken}

	for !p.peekTokenIs(token.RBRACE) {
		p.nextToken()
		var field *ast.TableField

		switch {
		case p.curTokenIs(token.LBRACKET):
			p.nextToken()
			key := p.parseType(LOWEST)
			if key == nil || !p.expectPeek(token.RBRACKET) || !p.expectPeek(token.ASSIGN) {
				return nil
			}
			p.nextToken()
			value := p.parseType(LOWEST)
			if value == nil {
				return nil
			}
			field = &ast.TableField{Kind: ast.FieldKeyed, Key: key, Value: value}
		case p.curTokenIs(token.IDENT) && p.peekTokenIs(token.ASSIGN):
			key := &ast.StringLiteral{Token: p.curToken, Value: p.curToken.Lexeme}
			p.nextToken()
			p.nextToken()
			value := p.parseType(LOWEST)
			if value == nil {
				return nil
			}
			field = &ast.TableField{Kind: ast.FieldNamed, Key: key, Value: value}
		default:
			value := p.parseType(LOWEST)
			if value == nil {
				return nil
			}
			field = &ast.TableField{Kind: ast.FieldPositional, Value: value}
		}
		table.Fields = append(table.Fields, field)

		if p.peekTokenIs(token.COMMA) || p.peekTokenIs(token.SEMICOLON) {
			p.nextToken()
			continue
		}
		break
	}

	if !p.expectPeek(token.RBRACE) {
		return nil
	}
	return table
}
