package parser_test

import (
	"fmt"
	"strings"
	"testing"

	"github.com/davecgh/go-spew/spew"

	"github.com/funvibe/tlua/internal/ast"
	"github.com/funvibe/tlua/internal/diagnostics"
	"github.com/funvibe/tlua/internal/lexer"
	"github.com/funvibe/tlua/internal/parser"
	"github.com/funvibe/tlua/internal/pipeline"
	"github.com/funvibe/tlua/internal/prettyprinter"
)

func run(src string, opts pipeline.Options) *pipeline.PipelineContext {
	ctx := pipeline.NewPipelineContextWithOptions(src, opts)
	ctx.FilePath = "test.tlua"
	return pipeline.New(&lexer.LexerProcessor{}, &parser.ParserProcessor{}).Run(ctx)
}

func parseOK(t *testing.T, src string) *ast.Program {
	t.Helper()
	ctx := run(src, pipeline.DefaultOptions())
	if len(ctx.Errors) > 0 {
		var errorMessages []string
		for _, err := range ctx.Errors {
			errorMessages = append(errorMessages, err.Error())
		}
		t.Fatalf("parsing failed with errors:\n%s", strings.Join(errorMessages, "\n"))
	}
	return ctx.AstRoot
}

func TestParsePrint(t *testing.T) {
	testCases := []struct {
		name  string
		input string
		want  string // empty means same as input
	}{
		{"local", "local x = 1\n", ""},
		{"local multi", "local a, b, c = 1, \"two\", nil\n", ""},
		{"local annotated", "local x :: number = 1\n", ""},
		{"local repeated name", "local a :: number, a :: string = 1, 2\n", "local a, a :: string = 1, 2\n"},
		{"function annotated", "local function f(a :: string, ...) :: number\n    return 1\nend\n", ""},
		{"function type", "local cb :: (number) -> (string) = nil\n", "local cb :: (number) -> string = nil\n"},
		{"function type nested", "local cb :: (number) -> (string) -> boolean = nil\n", "local cb :: (number) -> ((string) -> boolean) = nil\n"},
		{"function type multi", "local cb :: (number, string) -> (boolean, nil) = nil\n", ""},
		{"table type", "local t :: { x = number, [string] = any, boolean } = {}\n", ""},
		{"type operators", "local u :: \"a\" or \"b\" and not c = \"a\"\n", ""},
		{"parametric type", "local l :: list(number) = {}\n", ""},
		{"qualified type", "local p :: geo.Point = nil\n", ""},
		{"paren type", "local e :: (is_even or is_odd) = 2\n", ""},
		{"power binds tighter than minus", "x = -2 ^ 2\n", ""},
		{"grouping kept", "x = (1 + 2) * 3\n", ""},
		{"concat right assoc", "x = a .. b .. c\n", ""},
		{"concat grouped left", "x = (a .. b) .. c\n", ""},
		{"escapes", "local s = \"a\\nb\\t\\\"q\\\"\"\n", ""},
		{"long string", "local s = [[long]]\n", "local s = \"long\"\n"},
		{"numbers", "local x, y, z = 0x10, 1.5e3, .5\n", "local x, y, z = 16, 1500, 0.5\n"},
		{"indexing", "t.x, t[\"y z\"], t[1] = 1, 2, 3\n", ""},
		{"method call", "obj:method(\"a\", 1)\n", ""},
		{"string call", "f \"str\"\n", "f(\"str\")\n"},
		{"table call", "f { 1, k = 2 }\n", "f({ 1, k = 2 })\n"},
		{"statement expression", "local v = (do local t = f(); print(t) in t end)\n", ""},
		{"if", "if a then\n    b()\nelseif c then\n    d()\nelse\n    e()\nend\n", ""},
		{"numeric for", "for i = 1, 10, 2 do\n    print(i)\nend\n", ""},
		{"generic for", "for k, v in pairs(t) do\n    print(k, v)\nend\n", ""},
		{"while", "while true do\n    break\nend\n", ""},
		{"repeat", "repeat\n    x = x + 1\nuntil x > 10\n", ""},
		{"do", "do\n    local x = 1\nend\n", ""},
		{"method function", "function a.b.c:m(x)\nend\n", "a.b.c.m = function(self, x)\nend\n"},
		{"global function", "function f(x :: number) :: number\n    return x\nend\n", "f = function(x :: number) :: number\n    return x\nend\n"},
		{"length", "local n = #t + 1\n", ""},
		{"double not", "local b = not not x\n", ""},
		{"double minus", "local m = - -x\n", ""},
		{"semicolons", "a = 1; b = 2;\n", "a = 1\nb = 2\n"},
		{"paren statement", "f()\n;(g or h)()\n", ""},
		{"newtype", "newtype Positive = number\n", "types.Positive = types.number\n"},
		{"newtype parametric", "newtype Box(t) = { value = t }\n", "types.Box = function(t)\n    return types.__table({ value = t })\nend\n"},
		{"shebang", "#!/usr/bin/env tlua\nprint(1)\n", "print(1)\n"},
		{"comments", "-- line\n--[[ block\n]] print(1) -- trailing\n", "print(1)\n"},
		{"return last", "local function f()\n    return\nend\n", ""},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			prog := parseOK(t, tc.input)
			want := tc.want
			if want == "" {
				want = tc.input
			}
			if got := prettyprinter.Print(prog); got != want {
				t.Errorf("got:\n%s\nwant:\n%s\nAST:\n%s", got, want, spew.Sdump(prog.Body))
			}
		})
	}
}

// sexpr renders an expression fully parenthesized.
func sexpr(e ast.Expression) string {
	switch e := e.(type) {
	case *ast.InfixExpression:
		return fmt.Sprintf("(%s %s %s)", sexpr(e.Left), e.Operator, sexpr(e.Right))
	case *ast.PrefixExpression:
		return fmt.Sprintf("(%s %s)", e.Operator, sexpr(e.Right))
	case *ast.ParenExpression:
		return sexpr(e.Expression)
	default:
		p := prettyprinter.NewCodePrinter()
		e.Accept(p)
		return p.String()
	}
}

func TestOperatorPrecedence(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"1 + 2 * 3", "(1 + (2 * 3))"},
		{"1 * 2 + 3", "((1 * 2) + 3)"},
		{"1 - 2 - 3", "((1 - 2) - 3)"},
		{"2 ^ 3 ^ 2", "(2 ^ (3 ^ 2))"},
		{"-2 ^ 2", "(- (2 ^ 2))"},
		{"not a == b", "((not a) == b)"},
		{"a or b and c", "(a or (b and c))"},
		{"a and b or c", "((a and b) or c)"},
		{"a .. b .. c", "(a .. (b .. c))"},
		{"a .. b == c", "((a .. b) == c)"},
		{"1 + 2 .. 3", "((1 + 2) .. 3)"},
		{"#t * 2", "((# t) * 2)"},
		{"a < b and b <= c", "((a < b) and (b <= c))"},
		{"a ~= b or a >= c", "((a ~= b) or (a >= c))"},
		{"x % 2 == 0", "((x % 2) == 0)"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			prog := parseOK(t, "return "+tt.input)
			ret := prog.Body.Statements[0].(*ast.ReturnStatement)
			if got := sexpr(ret.Values[0]); got != tt.want {
				t.Errorf("got %s, want %s", got, tt.want)
			}
		})
	}
}

func TestAnnotations(t *testing.T) {
	prog := parseOK(t, `local a :: number, b, a :: string = 1
local f = function(x :: list(number), y, ...) :: T
end`)

	local := prog.Body.Statements[0].(*ast.LocalStatement)
	if len(local.Names) != 3 {
		t.Fatalf("got %d names, want 3", len(local.Names))
	}
	if len(local.Annotations) != 1 {
		t.Fatalf("got %d annotations, want 1: %s", len(local.Annotations), spew.Sdump(local.Annotations))
	}
	if id, ok := local.Annotations["a"].(*ast.Identifier); !ok || id.Value != "string" {
		t.Errorf("annotation of a = %s, want the rightmost (string)", spew.Sdump(local.Annotations["a"]))
	}

	fn := prog.Body.Statements[1].(*ast.LocalStatement).Values[0].(*ast.FunctionLiteral)
	if !fn.IsVariadic {
		t.Error("function should be variadic")
	}
	if len(fn.ParamTypes) != 1 {
		t.Fatalf("got %d parameter types, want 1", len(fn.ParamTypes))
	}
	if _, ok := fn.ParamTypes["x"].(*ast.CallExpression); !ok {
		t.Errorf("type of x = %T, want *ast.CallExpression", fn.ParamTypes["x"])
	}
	if id, ok := fn.ReturnType.(*ast.Identifier); !ok || id.Value != "T" {
		t.Errorf("return type = %s", spew.Sdump(fn.ReturnType))
	}
}

func TestPragma(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		initial bool
		want    bool
	}{
		{"default on", "local x = 1", true, true},
		{"default off", "local x = 1", false, false},
		{"off", "--@typecheck off\nlocal x = 1", true, false},
		{"on", "--@typecheck on\nlocal x = 1", false, true},
		{"last wins", "--@typecheck off\nlocal x = 1\n--@typecheck on\n", true, true},
		{"at end of file", "local x = 1\n--@typecheck off", true, false},
		{"inside a function", "local function f()\n--@typecheck off\nend", true, false},
		{"unknown pragma", "--@inline always\nlocal x = 1", true, true},
		{"plain comment", "-- @typecheck off\nlocal x = 1", true, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := pipeline.DefaultOptions()
			opts.Checks = tt.initial
			ctx := run(tt.input, opts)
			if ctx.HasErrors() {
				t.Fatalf("unexpected errors: %v", ctx.Errors)
			}
			if ctx.ChecksEnabled != tt.want {
				t.Errorf("ChecksEnabled = %v, want %v", ctx.ChecksEnabled, tt.want)
			}
		})
	}
}

func TestNewTypeUsesConfiguredRegistry(t *testing.T) {
	opts := pipeline.DefaultOptions()
	opts.Registry = "T"
	ctx := run("newtype Id = number or string", opts)
	if ctx.HasErrors() {
		t.Fatalf("unexpected errors: %v", ctx.Errors)
	}
	if got, want := prettyprinter.Print(ctx.AstRoot), "T.Id = T.__or(T.number, T.string)\n"; got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
		code  diagnostics.ErrorCode
	}{
		{"missing value", "x = ", diagnostics.ErrP002},
		{"call target", "f() = 1", diagnostics.ErrP003},
		{"bare expression", "x", diagnostics.ErrP001},
		{"missing type", "local x :: = 1", diagnostics.ErrP004},
		{"statement after return", "return 1\nx = 2", diagnostics.ErrP001},
		{"missing end", "if x then y()", diagnostics.ErrP005},
		{"missing then", "if x y() end", diagnostics.ErrP005},
		{"bad parameter", "local f = function(1) end", diagnostics.ErrP001},
		{"unterminated string", "local s = 'abc", diagnostics.ErrL001},
		{"illegal character", "local s = 1 ~ 2", diagnostics.ErrL001},
		{"newtype string", "newtype 'T' = number", diagnostics.ErrT002},
		{"newtype parameter", "newtype T(1) = number", diagnostics.ErrT002},
		{"pragma argument", "--@typecheck maybe\nlocal x = 1", diagnostics.ErrP007},
		{"pragma arity", "--@typecheck\nlocal x = 1", diagnostics.ErrP007},
		{"too deep", "x = " + strings.Repeat("(", 300) + "1" + strings.Repeat(")", 300), diagnostics.ErrP006},
		{"eof expected", "local x = 1 end", diagnostics.ErrP001},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := run(tt.input, pipeline.DefaultOptions())
			if len(ctx.Errors) == 0 {
				t.Fatalf("expected an error, got none:\n%s", prettyprinter.Print(ctx.AstRoot))
			}
			if got := ctx.Errors[0].Code; got != tt.code {
				t.Errorf("got %s (%s), want %s", got, ctx.Errors[0].Message, tt.code)
			}
			if ctx.Errors[0].File != "test.tlua" {
				t.Errorf("error file = %q, want test.tlua", ctx.Errors[0].File)
			}
		})
	}
}

func TestRecoveryReportsLaterErrors(t *testing.T) {
	ctx := run("local = 1\nlocal y = 2\nf() = 3", pipeline.DefaultOptions())
	if len(ctx.Errors) != 2 {
		t.Fatalf("got %d errors, want 2: %v", len(ctx.Errors), ctx.Errors)
	}
	if ctx.Errors[1].Code != diagnostics.ErrP003 {
		t.Errorf("second error = %s, want %s", ctx.Errors[1].Code, diagnostics.ErrP003)
	}
	// The good statement in between survives.
	found := false
	for _, stmt := range ctx.AstRoot.Body.Statements {
		if l, ok := stmt.(*ast.LocalStatement); ok && l.Names[0].Value == "y" {
			found = true
		}
	}
	if !found {
		t.Error("local y was dropped during recovery")
	}
}
