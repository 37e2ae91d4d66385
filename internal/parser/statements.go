package parser

import (
	"github.com/funvibe/tlua/internal/ast"
	"github.com/funvibe/tlua/internal/diagnostics"
	"github.com/funvibe/tlua/internal/token"
	"github.com/funvibe/tlua/internal/typeexpr"
)

// blockEnd reports whether curToken closes the current block.
func (p *Parser) blockEnd() bool {
	switch p.curToken.Type {
	case token.END, token.ELSE, token.ELSEIF, token.UNTIL, token.IN, token.EOF:
		return true
	}
	return false
}

// parseBlock parses statements starting at curToken. It returns with curToken
// on the token that ended the block (end, else, elseif, until, in or EOF).
func (p *Parser) parseBlock() *ast.Block {
	block := &ast.Block{Token: p.curToken}

	defer p.leave()
	if !p.enter() {
		p.skipToBlockEnd()
		return block
	}

	for !p.blockEnd() {
		if p.curTokenIs(token.SEMICOLON) {
			p.nextToken()
			continue
		}

		errCount := len(p.ctx.Errors)
		stmt := p.parseStatement()
		if stmt != nil {
			block.Statements = append(block.Statements, stmt)
		}
		if len(p.ctx.Errors) > errCount {
			p.synchronize()
		}
		p.nextToken()

		if _, ok := stmt.(*ast.ReturnStatement); ok {
			if p.curTokenIs(token.SEMICOLON) {
				p.nextToken()
			}
			if !p.blockEnd() {
				p.addError(diagnostics.Errorf(diagnostics.ErrP001, p.curToken, "'end' expected near %s", describe(p.curToken)))
				p.skipToBlockEnd()
			}
			break
		}
	}

	return block
}

// synchronize skips tokens until peekToken can start a statement or end a block.
func (p *Parser) synchronize() {
	for {
		switch p.peekToken.Type {
		case token.EOF, token.LOCAL, token.FUNCTION, token.IF, token.WHILE, token.FOR,
			token.REPEAT, token.RETURN, token.DO, token.NEWTYPE, token.BREAK,
			token.END, token.ELSE, token.ELSEIF, token.UNTIL:
			return
		}
		p.nextToken()
	}
}

func (p *Parser) skipToBlockEnd() {
	for !p.curTokenIs(token.EOF) && !p.curTokenIs(token.END) {
		p.nextToken()
	}
}

// parseStatement parses one statement starting at curToken and leaves
// curToken on its last token.
func (p *Parser) parseStatement() ast.Statement {
	switch p.curToken.Type {
	case token.LOCAL:
		if p.peekTokenIs(token.FUNCTION) {
			return p.parseLocalFunctionStatement()
		}
		return p.parseLocalStatement()
	case token.FUNCTION:
		return p.parseFunctionStatement()
	case token.RETURN:
		return p.parseReturnStatement()
	case token.BREAK:
		return &ast.BreakStatement{Token: p.curToken}
	case token.DO:
		return p.parseDoStatement()
	case token.WHILE:
		return p.parseWhileStatement()
	case token.REPEAT:
		return p.parseRepeatStatement()
	case token.IF:
		return p.parseIfStatement()
	case token.FOR:
		return p.parseForStatement()
	case token.NEWTYPE:
		return p.parseNewTypeStatement()
	default:
		return p.parseExpressionOrAssignment()
	}
}

// local a :: T, b = e1, e2
func (p *Parser) parseLocalStatement() ast.Statement {
	stmt := &ast.LocalStatement{Token: p.curToken}

	for {
		if !p.expectPeek(token.IDENT) {
			return nil
		}
		name := p.parseIdentifier().(*ast.Identifier)
		stmt.Names = append(stmt.Names, name)

		if p.peekTokenIs(token.DOUBLE_COLON) {
			p.nextToken()
			p.nextToken()
			typ := p.parseType(LOWEST)
			if typ == nil {
				return nil
			}
			if stmt.Annotations == nil {
				stmt.Annotations = make(map[string]ast.Expression)
			}
			// A repeated name keeps its rightmost annotation.
			stmt.Annotations[name.Value] = typ
		}

		if !p.peekTokenIs(token.COMMA) {
			break
		}
		p.nextToken()
	}

	if p.peekTokenIs(token.ASSIGN) {
		p.nextToken()
		p.nextToken()
		stmt.Values = p.parseExpressionList()
		if stmt.Values == nil {
			return nil
		}
	}
	return stmt
}

// local function f(...) ... end
func (p *Parser) parseLocalFunctionStatement() ast.Statement {
	stmt := &ast.LocalFunctionStatement{Token: p.curToken}
	p.nextToken() // function
	fnToken := p.curToken
	if !p.expectPeek(token.IDENT) {
		return nil
	}
	stmt.Name = p.parseIdentifier().(*ast.Identifier)
	if !p.expectPeek(token.LPAREN) {
		return nil
	}
	fn := p.parseFunctionBody(fnToken, false)
	if fn == nil {
		return nil
	}
	fn.Name = stmt.Name.Value
	stmt.Function = fn
	return stmt
}

// function a.b.c:m(...) ... end is sugar for a.b.c.m = function(self, ...) ... end.
func (p *Parser) parseFunctionStatement() ast.Statement {
	fnToken := p.curToken
	if !p.expectPeek(token.IDENT) {
		return nil
	}
	var target ast.Expression = p.parseIdentifier()
	name := p.curToken.Lexeme
	isMethod := false

	for p.peekTokenIs(token.DOT) || p.peekTokenIs(token.COLON) {
		p.nextToken()
		sep := p.curToken
		if !p.expectPeek(token.IDENT) {
			return nil
		}
		target = &ast.IndexExpression{
			Token:  sep,
			Object: target,
			Index:  &ast.StringLiteral{Token: p.curToken, Value: p.curToken.Lexeme},
			Dot:    true,
		}
		name += sep.Lexeme + p.curToken.Lexeme
		if sep.Type == token.COLON {
			isMethod = true
			break
		}
	}

	if !p.expectPeek(token.LPAREN) {
		return nil
	}
	fn := p.parseFunctionBody(fnToken, isMethod)
	if fn == nil {
		return nil
	}
	fn.Name = name

	return &ast.AssignStatement{
		Token:   fnToken,
		Targets: []ast.Expression{target},
		Values:  []ast.Expression{fn},
	}
}

func (p *Parser) parseReturnStatement() ast.Statement {
	stmt := &ast.ReturnStatement{Token: p.curToken}

	switch p.peekToken.Type {
	case token.SEMICOLON, token.END, token.ELSE, token.ELSEIF, token.UNTIL, token.EOF:
		return stmt
	}

	p.nextToken()
	stmt.Values = p.parseExpressionList()
	if stmt.Values == nil {
		return nil
	}
	return stmt
}

func (p *Parser) parseDoStatement() ast.Statement {
	stmt := &ast.DoStatement{Token: p.curToken}
	p.nextToken()
	stmt.Body = p.parseBlock()
	if !p.expectCur(token.END) {
		return nil
	}
	return stmt
}

func (p *Parser) parseWhileStatement() ast.Statement {
	stmt := &ast.WhileStatement{Token: p.curToken}
	p.nextToken()
	stmt.Condition = p.parseExpression(LOWEST)
	if stmt.Condition == nil || !p.expectPeek(token.DO) {
		return nil
	}
	p.nextToken()
	stmt.Body = p.parseBlock()
	if !p.expectCur(token.END) {
		return nil
	}
	return stmt
}

func (p *Parser) parseRepeatStatement() ast.Statement {
	stmt := &ast.RepeatStatement{Token: p.curToken}
	p.nextToken()
	stmt.Body = p.parseBlock()
	if !p.expectCur(token.UNTIL) {
		return nil
	}
	p.nextToken()
	stmt.Condition = p.parseExpression(LOWEST)
	if stmt.Condition == nil {
		return nil
	}
	return stmt
}

func (p *Parser) parseIfStatement() ast.Statement {
	stmt := &ast.IfStatement{Token: p.curToken}

	for {
		clause := &ast.IfClause{Token: p.curToken}
		p.nextToken()
		clause.Condition = p.parseExpression(LOWEST)
		if clause.Condition == nil || !p.expectPeek(token.THEN) {
			return nil
		}
		p.nextToken()
		clause.Body = p.parseBlock()
		stmt.Clauses = append(stmt.Clauses, clause)

		if !p.curTokenIs(token.ELSEIF) {
			break
		}
	}

	if p.curTokenIs(token.ELSE) {
		p.nextToken()
		stmt.Else = p.parseBlock()
	}
	if !p.expectCur(token.END) {
		return nil
	}
	return stmt
}

func (p *Parser) parseForStatement() ast.Statement {
	forToken := p.curToken
	if !p.expectPeek(token.IDENT) {
		return nil
	}
	first := p.parseIdentifier().(*ast.Identifier)

	if p.peekTokenIs(token.ASSIGN) {
		stmt := &ast.NumericForStatement{Token: forToken, Var: first}
		p.nextToken()
		p.nextToken()
		stmt.Start = p.parseExpression(LOWEST)
		if stmt.Start == nil || !p.expectPeek(token.COMMA) {
			return nil
		}
		p.nextToken()
		stmt.Stop = p.parseExpression(LOWEST)
		if stmt.Stop == nil {
			return nil
		}
		if p.peekTokenIs(token.COMMA) {
			p.nextToken()
			p.nextToken()
			stmt.Step = p.parseExpression(LOWEST)
			if stmt.Step == nil {
				return nil
			}
		}
		if !p.expectPeek(token.DO) {
			return nil
		}
		p.nextToken()
		stmt.Body = p.parseBlock()
		if !p.expectCur(token.END) {
			return nil
		}
		return stmt
	}

	stmt := &ast.GenericForStatement{Token: forToken, Names: []*ast.Identifier{first}}
	for p.peekTokenIs(token.COMMA) {
		p.nextToken()
		if !p.expectPeek(token.IDENT) {
			return nil
		}
		stmt.Names = append(stmt.Names, p.parseIdentifier().(*ast.Identifier))
	}
	if !p.expectPeek(token.IN) {
		return nil
	}
	p.nextToken()
	stmt.Exprs = p.parseExpressionList()
	if stmt.Exprs == nil || !p.expectPeek(token.DO) {
		return nil
	}
	p.nextToken()
	stmt.Body = p.parseBlock()
	if !p.expectCur(token.END) {
		return nil
	}
	return stmt
}

// newtype Name = T
// newtype Name(a, b) = T
func (p *Parser) parseNewTypeStatement() ast.Statement {
	tok := p.curToken
	p.nextToken()
	lhs := p.parseExpression(LOWEST)
	if lhs == nil || !p.expectPeek(token.ASSIGN) {
		return nil
	}
	p.nextToken()
	rhs := p.parseType(LOWEST)
	if rhs == nil {
		return nil
	}

	compiler := typeexpr.New(p.ctx.Options.Registry)
	stmt, err := compiler.NewTypeBinding(tok, lhs, rhs)
	if err != nil {
		p.addError(diagnostics.AsDiagnostic(err, diagnostics.ErrT002, tok))
		return nil
	}
	return stmt
}

// parseExpressionOrAssignment handles call statements and assignments.
func (p *Parser) parseExpressionOrAssignment() ast.Statement {
	startToken := p.curToken
	expr := p.parseExpression(LOWEST)
	if expr == nil {
		return nil
	}

	if !p.peekTokenIs(token.ASSIGN) && !p.peekTokenIs(token.COMMA) {
		switch expr.(type) {
		case *ast.CallExpression, *ast.MethodCallExpression:
			return &ast.ExpressionStatement{Token: startToken, Expression: expr}
		}
		p.addError(diagnostics.Errorf(diagnostics.ErrP001, p.peekToken, "syntax error near %s", describe(p.peekToken)))
		return nil
	}

	targets := []ast.Expression{expr}
	for p.peekTokenIs(token.COMMA) {
		p.nextToken()
		p.nextToken()
		target := p.parseExpression(LOWEST)
		if target == nil {
			return nil
		}
		targets = append(targets, target)
	}
	for _, target := range targets {
		switch target.(type) {
		case *ast.Identifier, *ast.IndexExpression:
		default:
			p.addError(diagnostics.NewError(diagnostics.ErrP003, target.GetToken(), "cannot assign to this expression"))
			return nil
		}
	}

	if !p.expectPeek(token.ASSIGN) {
		return nil
	}
	stmt := &ast.AssignStatement{Token: p.curToken, Targets: targets}
	p.nextToken()
	stmt.Values = p.parseExpressionList()
	if stmt.Values == nil {
		return nil
	}
	return stmt
}

// expectCur reports an error unless curToken has type t.
func (p *Parser) expectCur(t token.TokenType) bool {
	if p.curTokenIs(t) {
		return true
	}
	if p.curToken.Type != token.ILLEGAL {
		p.addError(diagnostics.Errorf(diagnostics.ErrP005, p.curToken, "'%s' expected near %s", t, describe(p.curToken)))
	}
	return false
}
