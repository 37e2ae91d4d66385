package parser

import (
	"github.com/funvibe/tlua/internal/ast"
	"github.com/funvibe/tlua/internal/diagnostics"
	"github.com/funvibe/tlua/internal/token"
)

func (p *Parser) parseExpression(precedence int) ast.Expression {
	defer p.leave()
	if !p.enter() {
		return nil
	}

	prefix := p.prefixParseFns[p.curToken.Type]
	if prefix == nil {
		p.noPrefixParseFnError(p.curToken)
		return nil
	}
	leftExp := prefix()
	if leftExp == nil {
		return nil
	}

	for precedence < p.peekPrecedence() {
		infix := p.infixParseFns[p.peekToken.Type]
		if infix == nil {
			return leftExp
		}
		p.nextToken()
		leftExp = infix(leftExp)
		if leftExp == nil {
			return nil
		}
	}

	return leftExp
}

// parseExpressionList parses e1, e2, ... and returns nil on error.
func (p *Parser) parseExpressionList() []ast.Expression {
	var list []ast.Expression
	for {
		expr := p.parseExpression(LOWEST)
		if expr == nil {
			return nil
		}
		list = append(list, expr)
		if !p.peekTokenIs(token.COMMA) {
			return list
		}
		p.nextToken()
		p.nextToken()
	}
}

func (p *Parser) parseIdentifier() ast.Expression {
	return &ast.Identifier{Token: p.curToken, Value: p.curToken.Lexeme}
}

// parseNameExpression parses a name followed by any index, call or method suffixes.
func (p *Parser) parseNameExpression() ast.Expression {
	return p.parseSuffixes(p.parseIdentifier())
}

func (p *Parser) parseNumberLiteral() ast.Expression {
	val, _ := p.curToken.Literal.(float64)
	return &ast.NumberLiteral{Token: p.curToken, Value: val}
}

func (p *Parser) parseStringLiteral() ast.Expression {
	val, _ := p.curToken.Literal.(string)
	return &ast.StringLiteral{Token: p.curToken, Value: val}
}

func (p *Parser) parseNilLiteral() ast.Expression {
	return &ast.NilLiteral{Token: p.curToken}
}

func (p *Parser) parseBooleanLiteral() ast.Expression {
	return &ast.BooleanLiteral{Token: p.curToken, Value: p.curTokenIs(token.TRUE)}
}

func (p *Parser) parseVarargLiteral() ast.Expression {
	return &ast.VarargLiteral{Token: p.curToken}
}

func (p *Parser) parsePrefixExpression() ast.Expression {
	expression := &ast.PrefixExpression{
		Token:    p.curToken,
		Operator: p.curToken.Lexeme,
	}
	p.nextToken()
	expression.Right = p.parseExpression(PREFIX)
	if expression.Right == nil {
		return nil
	}
	return expression
}

func (p *Parser) parseInfixExpression(left ast.Expression) ast.Expression {
	expression := &ast.InfixExpression{
		Token:    p.curToken,
		Operator: p.curToken.Lexeme,
		Left:     left,
	}

	precedence := p.curPrecedence()
	p.nextToken()
	expression.Right = p.parseExpression(precedence)
	if expression.Right == nil {
		return nil
	}
	return expression
}

// parseRightAssocInfixExpression parses right-associative operators:
// a .. b .. c is a .. (b .. c), and 2 ^ 3 ^ 2 is 2 ^ (3 ^ 2).
func (p *Parser) parseRightAssocInfixExpression(left ast.Expression) ast.Expression {
	expression := &ast.InfixExpression{
		Token:    p.curToken,
		Operator: p.curToken.Lexeme,
		Left:     left,
	}

	precedence := p.curPrecedence()
	p.nextToken()
	// Use precedence - 1 to make it right-associative
	expression.Right = p.parseExpression(precedence - 1)
	if expression.Right == nil {
		return nil
	}
	return expression
}

// parseGroupedExpression parses (e), or the statement expression
// (do <stmts> in <expr> end) that instrumented code prints as.
func (p *Parser) parseGroupedExpression() ast.Expression {
	startToken := p.curToken

	if p.peekTokenIs(token.DO) {
		expr := p.parseStatementExpression()
		if expr == nil {
			return nil
		}
		return p.parseSuffixes(expr)
	}

	p.nextToken()
	exp := p.parseExpression(LOWEST)
	if exp == nil || !p.expectPeek(token.RPAREN) {
		return nil
	}
	return p.parseSuffixes(&ast.ParenExpression{Token: startToken, Expression: exp})
}

func (p *Parser) parseStatementExpression() ast.Expression {
	p.nextToken() // do
	expr := &ast.StatementExpression{Token: p.curToken}
	p.nextToken()
	expr.Body = p.parseBlock()
	if !p.expectCur(token.IN) {
		return nil
	}
	p.nextToken()
	expr.Result = p.parseExpression(LOWEST)
	if expr.Result == nil || !p.expectPeek(token.END) || !p.expectPeek(token.RPAREN) {
		return nil
	}
	return expr
}

// parseSuffixes parses .name, [key], :method(args) and call suffixes after a prefix expression.
func (p *Parser) parseSuffixes(expr ast.Expression) ast.Expression {
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
		case token.LBRACKET:
			p.nextToken()
			bracket := p.curToken
			p.nextToken()
			index := p.parseExpression(LOWEST)
			if index == nil || !p.expectPeek(token.RBRACKET) {
				return nil
			}
			expr = &ast.IndexExpression{Token: bracket, Object: expr, Index: index}
		case token.COLON:
			p.nextToken()
			colon := p.curToken
			if !p.expectPeek(token.IDENT) {
				return nil
			}
			method := p.parseIdentifier().(*ast.Identifier)
			p.nextToken()
			args, ok := p.parseCallArguments()
			if !ok {
				return nil
			}
			expr = &ast.MethodCallExpression{Token: colon, Object: expr, Method: method, Arguments: args}
		case token.LPAREN, token.STRING, token.LBRACE:
			p.nextToken()
			callToken := p.curToken
			args, ok := p.parseCallArguments()
			if !ok {
				return nil
			}
			expr = &ast.CallExpression{Token: callToken, Function: expr, Arguments: args}
		default:
			return expr
		}
	}
}

// parseCallArguments parses (args), "string" or {table} starting at curToken.
func (p *Parser) parseCallArguments() ([]ast.Expression, bool) {
	switch p.curToken.Type {
	case token.STRING:
		return []ast.Expression{p.parseStringLiteral()}, true
	case token.LBRACE:
		table := p.parseTableLiteral()
		if table == nil {
			return nil, false
		}
		return []ast.Expression{table}, true
	case token.LPAREN:
		if p.peekTokenIs(token.RPAREN) {
			p.nextToken()
			return nil, true
		}
		p.nextToken()
		args := p.parseExpressionList()
		if args == nil || !p.expectPeek(token.RPAREN) {
			return nil, false
		}
		return args, true
	}
	p.addError(diagnostics.Errorf(diagnostics.ErrP001, p.curToken, "function arguments expected near %s", describe(p.curToken)))
	return nil, false
}

// { [k] = v, name = v, v; ... }
func (p *Parser) parseTableLiteral() ast.Expression {
	table := &ast.TableLiteral{Token: p.curToken}

	for !p.peekTokenIs(token.RBRACE) {
		p.nextToken()
		field := p.parseTableField()
		if field == nil {
			return nil
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

func (p *Parser) parseTableField() *ast.TableField {
	switch {
	case p.curTokenIs(token.LBRACKET):
		p.nextToken()
		key := p.parseExpression(LOWEST)
		if key == nil || !p.expectPeek(token.RBRACKET) || !p.expectPeek(token.ASSIGN) {
			return nil
		}
		p.nextToken()
		value := p.parseExpression(LOWEST)
		if value == nil {
			return nil
		}
		return &ast.TableField{Kind: ast.FieldKeyed, Key: key, Value: value}

	case p.curTokenIs(token.IDENT) && p.peekTokenIs(token.ASSIGN):
		key := &ast.StringLiteral{Token: p.curToken, Value: p.curToken.Lexeme}
		p.nextToken()
		p.nextToken()
		value := p.parseExpression(LOWEST)
		if value == nil {
			return nil
		}
		return &ast.TableField{Kind: ast.FieldNamed, Key: key, Value: value}

	default:
		value := p.parseExpression(LOWEST)
		if value == nil {
			return nil
		}
		return &ast.TableField{Kind: ast.FieldPositional, Value: value}
	}
}

func (p *Parser) parseFunctionLiteral() ast.Expression {
	fnToken := p.curToken
	if !p.expectPeek(token.LPAREN) {
		return nil
	}
	fn := p.parseFunctionBody(fnToken, false)
	if fn == nil {
		return nil
	}
	return fn
}

// parseFunctionBody parses (params) [:: T] block end, starting at '('.
// Methods get an implicit leading self parameter.
func (p *Parser) parseFunctionBody(fnToken token.Token, isMethod bool) *ast.FunctionLiteral {
	fn := &ast.FunctionLiteral{Token: fnToken}
	if isMethod {
		fn.Parameters = append(fn.Parameters, &ast.Identifier{
			Token: token.Token{Type: token.IDENT, Lexeme: "self", Literal: "self", Line: fnToken.Line, Column: fnToken.Column},
			Value: "self",
		})
	}

	if !p.parseParameters(fn) {
		return nil
	}

	if p.peekTokenIs(token.DOUBLE_COLON) {
		p.nextToken()
		p.nextToken()
		fn.ReturnType = p.parseType(LOWEST)
		if fn.ReturnType == nil {
			return nil
		}
	}

	p.nextToken()
	fn.Body = p.parseBlock()
	if !p.expectCur(token.END) {
		return nil
	}
	return fn
}

// parseParameters parses a parameter list with optional annotations,
// leaving curToken on ')'.
func (p *Parser) parseParameters(fn *ast.FunctionLiteral) bool {
	if p.peekTokenIs(token.RPAREN) {
		p.nextToken()
		return true
	}

	for {
		p.nextToken()
		switch p.curToken.Type {
		case token.ELLIPSIS:
			fn.IsVariadic = true
			return p.expectPeek(token.RPAREN)
		case token.IDENT:
			param := p.parseIdentifier().(*ast.Identifier)
			fn.Parameters = append(fn.Parameters, param)
			if p.peekTokenIs(token.DOUBLE_COLON) {
				p.nextToken()
				p.nextToken()
				typ := p.parseType(LOWEST)
				if typ == nil {
					return false
				}
				if fn.ParamTypes == nil {
					fn.ParamTypes = make(map[string]ast.Expression)
				}
				fn.ParamTypes[param.Value] = typ
			}
		default:
			p.addError(diagnostics.Errorf(diagnostics.ErrP001, p.curToken, "<name> expected near %s", describe(p.curToken)))
			return false
		}

		if !p.peekTokenIs(token.COMMA) {
			return p.expectPeek(token.RPAREN)
		}
		p.nextToken()
	}
}
