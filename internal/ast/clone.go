package ast

// CloneExpression returns a deep copy of e. Annotation metadata is copied too.
func CloneExpression(e Expression) Expression {
	if e == nil {
		return nil
	}
	switch e := e.(type) {
	case *Identifier:
		c := *e
		return &c
	case *NilLiteral:
		c := *e
		return &c
	case *BooleanLiteral:
		c := *e
		return &c
	case *NumberLiteral:
		c := *e
		return &c
	case *StringLiteral:
		c := *e
		return &c
	case *VarargLiteral:
		c := *e
		return &c
	case *TableLiteral:
		fields := make([]*TableField, len(e.Fields))
		for i, f := range e.Fields {
			fields[i] = &TableField{Kind: f.Kind, Key: CloneExpression(f.Key), Value: CloneExpression(f.Value)}
		}
		return &TableLiteral{Token: e.Token, Fields: fields}
	case *PrefixExpression:
		return &PrefixExpression{Token: e.Token, Operator: e.Operator, Right: CloneExpression(e.Right)}
	case *InfixExpression:
		return &InfixExpression{Token: e.Token, Left: CloneExpression(e.Left), Operator: e.Operator, Right: CloneExpression(e.Right)}
	case *IndexExpression:
		return &IndexExpression{Token: e.Token, Object: CloneExpression(e.Object), Index: CloneExpression(e.Index), Dot: e.Dot}
	case *CallExpression:
		return &CallExpression{Token: e.Token, Function: CloneExpression(e.Function), Arguments: cloneExpressions(e.Arguments)}
	case *MethodCallExpression:
		return &MethodCallExpression{
			Token:     e.Token,
			Object:    CloneExpression(e.Object),
			Method:    cloneIdent(e.Method),
			Arguments: cloneExpressions(e.Arguments),
		}
	case *ParenExpression:
		return &ParenExpression{Token: e.Token, Expression: CloneExpression(e.Expression)}
	case *FunctionLiteral:
		return cloneFunction(e)
	case *StatementExpression:
		return &StatementExpression{Token: e.Token, Body: CloneBlock(e.Body), Result: CloneExpression(e.Result)}
	case *FunctionType:
		return &FunctionType{Token: e.Token, Parameters: cloneExpressions(e.Parameters), Returns: cloneExpressions(e.Returns)}
	}
	panic("ast: unexpected expression type in CloneExpression")
}

// CloneBlock returns a deep copy of b.
func CloneBlock(b *Block) *Block {
	if b == nil {
		return nil
	}
	stmts := make([]Statement, len(b.Statements))
	for i, s := range b.Statements {
		stmts[i] = CloneStatement(s)
	}
	return &Block{Token: b.Token, Statements: stmts}
}

// CloneStatement returns a deep copy of s.
func CloneStatement(s Statement) Statement {
	switch s := s.(type) {
	case *LocalStatement:
		return &LocalStatement{
			Token:       s.Token,
			Names:       cloneIdents(s.Names),
			Values:      cloneExpressions(s.Values),
			Annotations: cloneTypeMap(s.Annotations),
		}
	case *AssignStatement:
		return &AssignStatement{Token: s.Token, Targets: cloneExpressions(s.Targets), Values: cloneExpressions(s.Values)}
	case *LocalFunctionStatement:
		return &LocalFunctionStatement{Token: s.Token, Name: cloneIdent(s.Name), Function: cloneFunction(s.Function)}
	case *ReturnStatement:
		return &ReturnStatement{Token: s.Token, Values: cloneExpressions(s.Values)}
	case *BreakStatement:
		c := *s
		return &c
	case *ExpressionStatement:
		return &ExpressionStatement{Token: s.Token, Expression: CloneExpression(s.Expression)}
	case *DoStatement:
		return &DoStatement{Token: s.Token, Body: CloneBlock(s.Body)}
	case *WhileStatement:
		return &WhileStatement{Token: s.Token, Condition: CloneExpression(s.Condition), Body: CloneBlock(s.Body)}
	case *RepeatStatement:
		return &RepeatStatement{Token: s.Token, Body: CloneBlock(s.Body), Condition: CloneExpression(s.Condition)}
	case *IfStatement:
		clauses := make([]*IfClause, len(s.Clauses))
		for i, c := range s.Clauses {
			clauses[i] = &IfClause{Token: c.Token, Condition: CloneExpression(c.Condition), Body: CloneBlock(c.Body)}
		}
		return &IfStatement{Token: s.Token, Clauses: clauses, Else: CloneBlock(s.Else)}
	case *NumericForStatement:
		return &NumericForStatement{
			Token: s.Token,
			Var:   cloneIdent(s.Var),
			Start: CloneExpression(s.Start),
			Stop:  CloneExpression(s.Stop),
			Step:  CloneExpression(s.Step),
			Body:  CloneBlock(s.Body),
		}
	case *GenericForStatement:
		return &GenericForStatement{Token: s.Token, Names: cloneIdents(s.Names), Exprs: cloneExpressions(s.Exprs), Body: CloneBlock(s.Body)}
	}
	panic("ast: unexpected statement type in CloneStatement")
}

func cloneFunction(f *FunctionLiteral) *FunctionLiteral {
	if f == nil {
		return nil
	}
	return &FunctionLiteral{
		Token:      f.Token,
		Name:       f.Name,
		Parameters: cloneIdents(f.Parameters),
		IsVariadic: f.IsVariadic,
		Body:       CloneBlock(f.Body),
		ParamTypes: cloneTypeMap(f.ParamTypes),
		ReturnType: CloneExpression(f.ReturnType),
	}
}

func cloneIdent(i *Identifier) *Identifier {
	if i == nil {
		return nil
	}
	c := *i
	return &c
}

func cloneIdents(list []*Identifier) []*Identifier {
	if list == nil {
		return nil
	}
	out := make([]*Identifier, len(list))
	for i, id := range list {
		out[i] = cloneIdent(id)
	}
	return out
}

func cloneExpressions(list []Expression) []Expression {
	if list == nil {
		return nil
	}
	out := make([]Expression, len(list))
	for i, e := range list {
		out[i] = CloneExpression(e)
	}
	return out
}

func cloneTypeMap(m map[string]Expression) map[string]Expression {
	if m == nil {
		return nil
	}
	out := make(map[string]Expression, len(m))
	for k, v := range m {
		out[k] = CloneExpression(v)
	}
	return out
}
