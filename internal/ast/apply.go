package ast

// An ApplyFunc is invoked by Apply for each non-nil node n,
// before and/or after the node's children, using a Cursor describing
// the current node and providing operations on it.
//
// The return value of ApplyFunc controls the syntax tree traversal.
// See Apply for details.
type ApplyFunc func(*Cursor) bool

// A Cursor describes a node encountered during Apply.
type Cursor struct {
	parent Node
	node   Node
	set    func(Node)
}

// Node returns the current Node.
func (c *Cursor) Node() Node { return c.node }

// Parent returns the parent of the current Node.
func (c *Cursor) Parent() Node { return c.parent }

// Replace replaces the current Node with n.
// A replacement made in post is not walked; one made in pre has its children walked.
// Replacing a Statement slot with an Expression (or the reverse) panics.
func (c *Cursor) Replace(n Node) {
	if c.set == nil {
		panic("ast: Cursor.Replace called on root")
	}
	c.set(n)
	c.node = n
}

// Apply traverses a syntax tree recursively, starting with root,
// and calling pre and post for each node:
//
//   - If pre is not nil, it is called for each node before the node's
//     children are traversed (pre-order). If pre returns false, no
//     children are traversed, and post is not called for that node.
//   - If post is not nil, and a prior call of pre didn't return false,
//     post is called for each node after its children are traversed
//     (post-order). If post returns false, traversal is terminated and
//     Apply returns immediately.
//
// Only fields that hold executable code are traversed; annotation metadata
// (LocalStatement.Annotations, FunctionLiteral.ParamTypes/ReturnType) is not.
// Apply returns the root, which may have been replaced.
func Apply(root Node, pre, post ApplyFunc) (result Node) {
	a := &application{pre: pre, post: post}
	result = root
	a.apply(nil, root, func(n Node) { result = n })
	return result
}

// Inspect traverses the tree in depth-first order calling f for each node
// before its children. If f returns false, the children are skipped.
func Inspect(node Node, f func(Node) bool) {
	Apply(node, func(c *Cursor) bool { return f(c.Node()) }, nil)
}

type application struct {
	pre, post ApplyFunc
	cursor    Cursor
	aborted   bool
}

func (a *application) apply(parent, n Node, set func(Node)) {
	if a.aborted || isNil(n) {
		return
	}

	saved := a.cursor
	a.cursor = Cursor{parent: parent, node: n, set: set}
	defer func() { a.cursor = saved }()

	if a.pre != nil && !a.pre(&a.cursor) {
		return
	}
	if a.aborted {
		return
	}

	a.children(a.cursor.node)

	if a.aborted {
		return
	}
	if a.post != nil && !a.post(&a.cursor) {
		a.aborted = true
	}
}

func (a *application) block(parent Node, b *Block, set func(*Block)) {
	if b == nil {
		return
	}
	a.apply(parent, b, func(n Node) { set(n.(*Block)) })
}

func (a *application) expr(parent Node, e Expression, set func(Expression)) {
	a.apply(parent, e, func(n Node) { set(n.(Expression)) })
}

func (a *application) exprList(parent Node, list []Expression) {
	for i := 0; i < len(list); i++ {
		i := i
		a.expr(parent, list[i], func(e Expression) { list[i] = e })
	}
}

func (a *application) identList(parent Node, list []*Identifier) {
	for i := 0; i < len(list); i++ {
		i := i
		a.apply(parent, list[i], func(n Node) { list[i] = n.(*Identifier) })
	}
}

func (a *application) children(n Node) {
	switch n := n.(type) {
	case *Program:
		a.block(n, n.Body, func(b *Block) { n.Body = b })
	case *Block:
		for i := 0; i < len(n.Statements); i++ {
			i := i
			a.apply(n, n.Statements[i], func(x Node) { n.Statements[i] = x.(Statement) })
		}

	// Statements
	case *LocalStatement:
		a.identList(n, n.Names)
		a.exprList(n, n.Values)
	case *AssignStatement:
		a.exprList(n, n.Targets)
		a.exprList(n, n.Values)
	case *LocalFunctionStatement:
		a.apply(n, n.Name, func(x Node) { n.Name = x.(*Identifier) })
		a.apply(n, n.Function, func(x Node) { n.Function = x.(*FunctionLiteral) })
	case *ReturnStatement:
		a.exprList(n, n.Values)
	case *BreakStatement:
	case *ExpressionStatement:
		a.expr(n, n.Expression, func(e Expression) { n.Expression = e })
	case *DoStatement:
		a.block(n, n.Body, func(b *Block) { n.Body = b })
	case *WhileStatement:
		a.expr(n, n.Condition, func(e Expression) { n.Condition = e })
		a.block(n, n.Body, func(b *Block) { n.Body = b })
	case *RepeatStatement:
		a.block(n, n.Body, func(b *Block) { n.Body = b })
		a.expr(n, n.Condition, func(e Expression) { n.Condition = e })
	case *IfStatement:
		for _, clause := range n.Clauses {
			clause := clause
			a.expr(n, clause.Condition, func(e Expression) { clause.Condition = e })
			a.block(n, clause.Body, func(b *Block) { clause.Body = b })
		}
		a.block(n, n.Else, func(b *Block) { n.Else = b })
	case *NumericForStatement:
		a.expr(n, n.Start, func(e Expression) { n.Start = e })
		a.expr(n, n.Stop, func(e Expression) { n.Stop = e })
		a.expr(n, n.Step, func(e Expression) { n.Step = e })
		a.apply(n, n.Var, func(x Node) { n.Var = x.(*Identifier) })
		a.block(n, n.Body, func(b *Block) { n.Body = b })
	case *GenericForStatement:
		a.exprList(n, n.Exprs)
		a.identList(n, n.Names)
		a.block(n, n.Body, func(b *Block) { n.Body = b })

	// Expressions
	case *Identifier, *NilLiteral, *BooleanLiteral, *NumberLiteral, *StringLiteral, *VarargLiteral:
	case *TableLiteral:
		for _, f := range n.Fields {
			f := f
			if f.Kind == FieldKeyed {
				a.expr(n, f.Key, func(e Expression) { f.Key = e })
			}
			a.expr(n, f.Value, func(e Expression) { f.Value = e })
		}
	case *PrefixExpression:
		a.expr(n, n.Right, func(e Expression) { n.Right = e })
	case *InfixExpression:
		a.expr(n, n.Left, func(e Expression) { n.Left = e })
		a.expr(n, n.Right, func(e Expression) { n.Right = e })
	case *IndexExpression:
		a.expr(n, n.Object, func(e Expression) { n.Object = e })
		a.expr(n, n.Index, func(e Expression) { n.Index = e })
	case *CallExpression:
		a.expr(n, n.Function, func(e Expression) { n.Function = e })
		a.exprList(n, n.Arguments)
	case *MethodCallExpression:
		a.expr(n, n.Object, func(e Expression) { n.Object = e })
		a.exprList(n, n.Arguments)
	case *ParenExpression:
		a.expr(n, n.Expression, func(e Expression) { n.Expression = e })
	case *FunctionLiteral:
		a.identList(n, n.Parameters)
		a.block(n, n.Body, func(b *Block) { n.Body = b })
	case *StatementExpression:
		a.block(n, n.Body, func(b *Block) { n.Body = b })
		a.expr(n, n.Result, func(e Expression) { n.Result = e })
	case *FunctionType:
		a.exprList(n, n.Parameters)
		a.exprList(n, n.Returns)
	default:
		panic("ast: unexpected node type in Apply")
	}
}

// isNil reports whether n is nil or a typed nil pointer.
func isNil(n Node) bool {
	if n == nil {
		return true
	}
	switch n := n.(type) {
	case *Block:
		return n == nil
	case *Identifier:
		return n == nil
	case *FunctionLiteral:
		return n == nil
	}
	return false
}
