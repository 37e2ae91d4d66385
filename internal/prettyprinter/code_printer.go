package prettyprinter

import (
	"bytes"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/funvibe/tlua/internal/ast"
)

// --- Code Printer (Output is source the parser accepts) ---

// Operator precedence (higher = binds tighter), matching the parser.
var operatorPrecedence = map[string]int{
	"or":  1,
	"and": 2,
	"<":   3,
	">":   3,
	"<=":  3,
	">=":  3,
	"~=":  3,
	"==":  3,
	"..":  4, // right-assoc
	"+":   5,
	"-":   5,
	"*":   6,
	"/":   6,
	"%":   6,
	"^":   8, // right-assoc, binds tighter than unary operators
}

const unaryPrecedence = 7

func getPrecedence(op string) int {
	if p, ok := operatorPrecedence[op]; ok {
		return p
	}
	return 0
}

// Right-associative operators
var rightAssoc = map[string]bool{
	"..": true,
	"^":  true,
}

type CodePrinter struct {
	buf       bytes.Buffer
	indent    int
	lineWidth int // max line width for table constructors (0 = unlimited)
	column    int // current column position
	inline    int // >0 while printing inside a statement expression
}

func NewCodePrinter() *CodePrinter {
	return &CodePrinter{lineWidth: 100}
}

func NewCodePrinterWithWidth(width int) *CodePrinter {
	return &CodePrinter{lineWidth: width}
}

func (p *CodePrinter) String() string {
	return p.buf.String()
}

// Print renders node with a fresh printer of the default width.
func Print(node ast.Node) string {
	p := NewCodePrinter()
	node.Accept(p)
	return p.String()
}

func (p *CodePrinter) write(s string) {
	p.buf.WriteString(s)
	// Track column position
	if idx := strings.LastIndex(s, "\n"); idx != -1 {
		p.column = len(s) - idx - 1
	} else {
		p.column += len(s)
	}
}

func (p *CodePrinter) writeln() {
	p.buf.WriteString("\n")
	p.column = 0
}

func (p *CodePrinter) writeIndent() {
	for i := 0; i < p.indent; i++ {
		p.buf.WriteString("    ")
	}
	p.column = p.indent * 4
}

// printExpr prints an expression, adding parentheses only if needed
func (p *CodePrinter) printExpr(expr ast.Expression, parentPrec int, isRight bool) {
	if expr == nil {
		p.write("nil")
		return
	}
	switch e := expr.(type) {
	case *ast.InfixExpression:
		prec := getPrecedence(e.Operator)
		needParens := prec < parentPrec
		// For same precedence, check associativity
		if prec == parentPrec {
			if isRight && !rightAssoc[e.Operator] {
				needParens = true
			} else if !isRight && rightAssoc[e.Operator] {
				needParens = true
			}
		}
		if needParens {
			p.write("(")
		}
		p.printExpr(e.Left, prec, false)
		p.write(" " + e.Operator + " ")
		p.printExpr(e.Right, prec, true)
		if needParens {
			p.write(")")
		}
	case *ast.PrefixExpression:
		needParens := unaryPrecedence < parentPrec
		if needParens {
			p.write("(")
		}
		p.write(e.Operator)
		if r, ok := e.Right.(*ast.PrefixExpression); e.Operator == "not" || ok && r.Operator == "-" {
			// "- -x", never "--x"
			p.write(" ")
		}
		p.printExpr(e.Right, unaryPrecedence, true)
		if needParens {
			p.write(")")
		}
	default:
		expr.Accept(p)
	}
}

// printPrefixExpr prints the object of an index, call or method call,
// wrapping it when the grammar would not accept it bare.
func (p *CodePrinter) printPrefixExpr(expr ast.Expression) {
	switch expr.(type) {
	case *ast.Identifier, *ast.IndexExpression, *ast.CallExpression,
		*ast.MethodCallExpression, *ast.ParenExpression, *ast.StatementExpression:
		expr.Accept(p)
	default:
		p.write("(")
		p.printExpr(expr, 0, false)
		p.write(")")
	}
}

func (p *CodePrinter) printExprList(list []ast.Expression) {
	for i, e := range list {
		if i > 0 {
			p.write(", ")
		}
		p.printExpr(e, 0, false)
	}
}

// printBlock prints the statements of b. Inside a statement expression
// everything stays on one line.
func (p *CodePrinter) printBlock(b *ast.Block) {
	if b == nil {
		return
	}
	if p.inline > 0 {
		for i, stmt := range b.Statements {
			if i > 0 {
				p.write(";")
			}
			p.write(" ")
			stmt.Accept(p)
		}
		p.write(" ")
		return
	}
	p.indent++
	for i, stmt := range b.Statements {
		p.writeln()
		p.writeIndent()
		p.printStatement(stmt, i > 0)
	}
	p.indent--
	p.writeln()
	p.writeIndent()
}

// printStatement prints stmt on its own line. After another statement a
// leading '(' is guarded with ';'.
func (p *CodePrinter) printStatement(stmt ast.Statement, afterStatement bool) {
	if stmt == nil {
		return
	}
	if afterStatement && startsWithParen(stmt) {
		p.write(";")
	}
	stmt.Accept(p)
}

// startsWithParen reports whether stmt prints with a leading '(' that the
// parser could read as a call on the previous statement.
func startsWithParen(stmt ast.Statement) bool {
	var first ast.Expression
	switch s := stmt.(type) {
	case *ast.ExpressionStatement:
		first = s.Expression
	case *ast.AssignStatement:
		if len(s.Targets) > 0 {
			first = s.Targets[0]
		}
	}
	for first != nil {
		switch e := first.(type) {
		case *ast.CallExpression:
			first = e.Function
		case *ast.MethodCallExpression:
			first = e.Object
		case *ast.IndexExpression:
			first = e.Object
		case *ast.Identifier:
			return false
		default:
			return true
		}
	}
	return false
}

func (p *CodePrinter) VisitProgram(n *ast.Program) {
	if n.Body == nil {
		return
	}
	for i, stmt := range n.Body.Statements {
		p.printStatement(stmt, i > 0)
		p.writeln()
	}
}

func (p *CodePrinter) VisitBlock(n *ast.Block) {
	p.printBlock(n)
}

func (p *CodePrinter) VisitLocalStatement(n *ast.LocalStatement) {
	p.write("local ")
	for i, name := range n.Names {
		if i > 0 {
			p.write(", ")
		}
		p.write(name.Value)
		// A repeated name carries its annotation once, on the last occurrence.
		if typ, ok := n.Annotations[name.Value]; ok && lastIndexOf(n.Names, name.Value) == i {
			p.write(" :: ")
			p.printType(typ)
		}
	}
	if len(n.Values) > 0 {
		p.write(" = ")
		p.printExprList(n.Values)
	}
}

func lastIndexOf(names []*ast.Identifier, name string) int {
	for i := len(names) - 1; i >= 0; i-- {
		if names[i].Value == name {
			return i
		}
	}
	return -1
}

func (p *CodePrinter) VisitAssignStatement(n *ast.AssignStatement) {
	p.printExprList(n.Targets)
	p.write(" = ")
	p.printExprList(n.Values)
}

func (p *CodePrinter) VisitLocalFunctionStatement(n *ast.LocalFunctionStatement) {
	p.write("local function ")
	p.write(n.Name.Value)
	p.printFunctionBody(n.Function)
}

func (p *CodePrinter) VisitReturnStatement(n *ast.ReturnStatement) {
	p.write("return")
	if len(n.Values) > 0 {
		p.write(" ")
		p.printExprList(n.Values)
	}
}

func (p *CodePrinter) VisitBreakStatement(n *ast.BreakStatement) {
	p.write("break")
}

func (p *CodePrinter) VisitExpressionStatement(n *ast.ExpressionStatement) {
	p.printExpr(n.Expression, 0, false)
}

func (p *CodePrinter) VisitDoStatement(n *ast.DoStatement) {
	p.write("do")
	p.printBlock(n.Body)
	p.write("end")
}

func (p *CodePrinter) VisitWhileStatement(n *ast.WhileStatement) {
	p.write("while ")
	p.printExpr(n.Condition, 0, false)
	p.write(" do")
	p.printBlock(n.Body)
	p.write("end")
}

func (p *CodePrinter) VisitRepeatStatement(n *ast.RepeatStatement) {
	p.write("repeat")
	p.printBlock(n.Body)
	p.write("until ")
	p.printExpr(n.Condition, 0, false)
}

func (p *CodePrinter) VisitIfStatement(n *ast.IfStatement) {
	for i, clause := range n.Clauses {
		if i == 0 {
			p.write("if ")
		} else {
			p.write("elseif ")
		}
		p.printExpr(clause.Condition, 0, false)
		p.write(" then")
		p.printBlock(clause.Body)
	}
	if n.Else != nil {
		p.write("else")
		p.printBlock(n.Else)
	}
	p.write("end")
}

func (p *CodePrinter) VisitNumericForStatement(n *ast.NumericForStatement) {
	p.write("for ")
	p.write(n.Var.Value)
	p.write(" = ")
	p.printExpr(n.Start, 0, false)
	p.write(", ")
	p.printExpr(n.Stop, 0, false)
	if n.Step != nil {
		p.write(", ")
		p.printExpr(n.Step, 0, false)
	}
	p.write(" do")
	p.printBlock(n.Body)
	p.write("end")
}

func (p *CodePrinter) VisitGenericForStatement(n *ast.GenericForStatement) {
	p.write("for ")
	for i, name := range n.Names {
		if i > 0 {
			p.write(", ")
		}
		p.write(name.Value)
	}
	p.write(" in ")
	p.printExprList(n.Exprs)
	p.write(" do")
	p.printBlock(n.Body)
	p.write("end")
}

// --- Expressions ---

func (p *CodePrinter) VisitIdentifier(n *ast.Identifier) {
	p.write(n.Value)
}

func (p *CodePrinter) VisitNilLiteral(n *ast.NilLiteral) {
	p.write("nil")
}

func (p *CodePrinter) VisitBooleanLiteral(n *ast.BooleanLiteral) {
	if n.Value {
		p.write("true")
	} else {
		p.write("false")
	}
}

func (p *CodePrinter) VisitNumberLiteral(n *ast.NumberLiteral) {
	p.write(FormatNumber(n.Value))
}

// FormatNumber renders a number the way tostring does.
func FormatNumber(v float64) string {
	switch {
	case math.IsNaN(v):
		return "(0/0)"
	case math.IsInf(v, 1):
		return "1e999"
	case math.IsInf(v, -1):
		return "-1e999"
	case v == math.Trunc(v) && math.Abs(v) < 1e15:
		return strconv.FormatInt(int64(v), 10)
	}
	return strconv.FormatFloat(v, 'g', 14, 64)
}

func (p *CodePrinter) VisitStringLiteral(n *ast.StringLiteral) {
	p.write(Quote(n.Value))
}

// Quote returns s as a double-quoted string literal with Lua escapes.
// Bytes >= 0x80 are written through unchanged.
func Quote(s string) string {
	var sb strings.Builder
	sb.WriteByte('"')
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch c {
		case '"':
			sb.WriteString(`\"`)
		case '\\':
			sb.WriteString(`\\`)
		case '\n':
			sb.WriteString(`\n`)
		case '\r':
			sb.WriteString(`\r`)
		case '\t':
			sb.WriteString(`\t`)
		case '\a':
			sb.WriteString(`\a`)
		case '\b':
			sb.WriteString(`\b`)
		case '\f':
			sb.WriteString(`\f`)
		case '\v':
			sb.WriteString(`\v`)
		default:
			if c < 0x20 || c == 0x7f {
				fmt.Fprintf(&sb, `\%03d`, c)
			} else {
				sb.WriteByte(c)
			}
		}
	}
	sb.WriteByte('"')
	return sb.String()
}

func (p *CodePrinter) VisitVarargLiteral(n *ast.VarargLiteral) {
	p.write("...")
}

func (p *CodePrinter) VisitTableLiteral(n *ast.TableLiteral) {
	if len(n.Fields) == 0 {
		p.write("{}")
		return
	}

	// Measure the one-line form first.
	flat := &CodePrinter{lineWidth: 0, inline: p.inline}
	flat.printTableFields(n, false)
	if p.lineWidth <= 0 || p.inline > 0 || p.column+flat.buf.Len() <= p.lineWidth {
		p.write(flat.String())
		return
	}
	p.printTableFields(n, true)
}

func (p *CodePrinter) printTableFields(n *ast.TableLiteral, multiline bool) {
	p.write("{")
	if multiline {
		p.indent++
	}
	for i, f := range n.Fields {
		if multiline {
			p.writeln()
			p.writeIndent()
		} else if i == 0 {
			p.write(" ")
		} else {
			p.write(", ")
		}
		switch f.Kind {
		case ast.FieldNamed:
			key := ""
			if s, ok := f.Key.(*ast.StringLiteral); ok {
				key = s.Value
			}
			if ast.IsName(key) {
				p.write(key)
			} else {
				p.write("[" + Quote(key) + "]")
			}
			p.write(" = ")
		case ast.FieldKeyed:
			p.write("[")
			p.printExpr(f.Key, 0, false)
			p.write("] = ")
		}
		p.printExpr(f.Value, 0, false)
		if multiline {
			p.write(",")
		}
	}
	if multiline {
		p.indent--
		p.writeln()
		p.writeIndent()
		p.write("}")
		return
	}
	p.write(" }")
}

func (p *CodePrinter) VisitPrefixExpression(n *ast.PrefixExpression) {
	p.printExpr(n, 0, false)
}

func (p *CodePrinter) VisitInfixExpression(n *ast.InfixExpression) {
	p.printExpr(n, 0, false)
}

func (p *CodePrinter) VisitIndexExpression(n *ast.IndexExpression) {
	p.printPrefixExpr(n.Object)
	if s, ok := n.Index.(*ast.StringLiteral); ok && n.Dot && ast.IsName(s.Value) {
		p.write(".")
		p.write(s.Value)
		return
	}
	p.write("[")
	p.printExpr(n.Index, 0, false)
	p.write("]")
}

func (p *CodePrinter) VisitCallExpression(n *ast.CallExpression) {
	p.printPrefixExpr(n.Function)
	p.write("(")
	p.printExprList(n.Arguments)
	p.write(")")
}

func (p *CodePrinter) VisitMethodCallExpression(n *ast.MethodCallExpression) {
	p.printPrefixExpr(n.Object)
	p.write(":")
	p.write(n.Method.Value)
	p.write("(")
	p.printExprList(n.Arguments)
	p.write(")")
}

func (p *CodePrinter) VisitParenExpression(n *ast.ParenExpression) {
	p.write("(")
	p.printExpr(n.Expression, 0, false)
	p.write(")")
}

func (p *CodePrinter) VisitFunctionLiteral(n *ast.FunctionLiteral) {
	p.write("function")
	p.printFunctionBody(n)
}

// printFunctionBody prints (params) [:: R] body end, with any annotations
// still attached to the literal.
func (p *CodePrinter) printFunctionBody(n *ast.FunctionLiteral) {
	p.write("(")
	for i, param := range n.Parameters {
		if i > 0 {
			p.write(", ")
		}
		p.write(param.Value)
		if typ, ok := n.ParamTypes[param.Value]; ok {
			p.write(" :: ")
			p.printType(typ)
		}
	}
	if n.IsVariadic {
		if len(n.Parameters) > 0 {
			p.write(", ")
		}
		p.write("...")
	}
	p.write(")")
	if n.ReturnType != nil {
		p.write(" :: ")
		p.printType(n.ReturnType)
	}
	p.printBlock(n.Body)
	p.write("end")
}

func (p *CodePrinter) VisitStatementExpression(n *ast.StatementExpression) {
	p.inline++
	p.write("(do")
	p.printBlock(n.Body)
	p.write("in ")
	p.printExpr(n.Result, 0, false)
	p.write(" end)")
	p.inline--
}

func (p *CodePrinter) VisitFunctionType(n *ast.FunctionType) {
	p.printType(n)
}

// printType prints an annotation. Function types are the only node that
// differs from expression syntax.
func (p *CodePrinter) printType(typ ast.Expression) {
	ft, ok := typ.(*ast.FunctionType)
	if !ok {
		p.printExpr(typ, 0, false)
		return
	}
	p.write("(")
	for i, param := range ft.Parameters {
		if i > 0 {
			p.write(", ")
		}
		p.printType(param)
	}
	p.write(") -> ")
	if len(ft.Returns) == 1 {
		if _, nested := ft.Returns[0].(*ast.FunctionType); !nested {
			p.printType(ft.Returns[0])
			return
		}
	}
	p.write("(")
	for i, ret := range ft.Returns {
		if i > 0 {
			p.write(", ")
		}
		p.printType(ret)
	}
	p.write(")")
}
