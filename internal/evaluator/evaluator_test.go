package evaluator_test

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/funvibe/tlua/internal/config"
	"github.com/funvibe/tlua/internal/evaluator"
	"github.com/funvibe/tlua/internal/instrument"
	"github.com/funvibe/tlua/internal/lexer"
	"github.com/funvibe/tlua/internal/parser"
	"github.com/funvibe/tlua/internal/pipeline"
	"github.com/funvibe/tlua/internal/typelib"
)

// run compiles src through the instrumenting front end and executes it,
// returning what it printed.
func run(t *testing.T, src string) (string, *evaluator.Error) {
	t.Helper()
	return runWithContext(t, context.Background(), src)
}

func runWithContext(t *testing.T, ctx context.Context, src string) (string, *evaluator.Error) {
	t.Helper()
	pctx := pipeline.NewPipelineContext(src)
	pctx.FilePath = "test.tlua"
	pctx = pipeline.New(
		&lexer.LexerProcessor{},
		&parser.ParserProcessor{},
		&instrument.InstrumentProcessor{},
	).Run(pctx)
	if pctx.HasErrors() {
		var msgs []string
		for _, err := range pctx.Errors {
			msgs = append(msgs, err.Error())
		}
		t.Fatalf("compile errors:\n%s", strings.Join(msgs, "\n"))
	}

	var out bytes.Buffer
	e := evaluator.New()
	e.Context = ctx
	e.Out = &out
	env := evaluator.NewEnvironment()
	evaluator.RegisterBuiltins(env)
	typelib.Install(env, config.RegistryName)

	_, err := e.Run(pctx.AstRoot, env)
	return out.String(), err
}

func TestEval(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string
	}{
		{
			"arithmetic",
			`print(1 + 2, 10 / 4, 7 % 3, -7 % 3, 2 ^ 10)`,
			"3\t2.5\t1\t2\t1024\n",
		},
		{
			"strings",
			`print("a" .. 1 .. "b", #"hello", "10" + 1)`,
			"a1b\t5\t11\n",
		},
		{
			"number formatting",
			`print(1e15, 0.1, 10 / 2, tostring(nil), tonumber("0x10"), tonumber("z", 36), tonumber("abc"))`,
			"1e+15\t0.1\t5\tnil\t16\t35\tnil\n",
		},
		{
			"comparison",
			`print("a" < "b", 1 <= 1, 2 > 3, not nil, 1 == "1", nil or "d", false and 1)`,
			"true\ttrue\tfalse\ttrue\tfalse\td\tfalse\n",
		},
		{
			"closures",
			`local function counter()
    local n = 0
    return function()
        n = n + 1
        return n
    end
end
local c = counter()
c()
print(c(), c())`,
			"2\t3\n",
		},
		{
			"redeclared local keeps closure binding",
			`local x = 1
local function get() return x end
local x = 2
print(get(), x)`,
			"1\t2\n",
		},
		{
			"varargs",
			`local function f(...)
    return select("#", ...), select(2, ...)
end
print(f(1, nil, 3))`,
			"3\tnil\t3\n",
		},
		{
			"truncation",
			`local function two() return 1, 2 end
print((two()), two())
local t = { two(), two() }
print(#t)`,
			"1\t1\t2\n3\n",
		},
		{
			"pairs keeps insertion order",
			`local t = { 10, 20, x = 1, y = 2 }
for k, v in pairs(t) do print(k, v) end`,
			"1\t10\n2\t20\nx\t1\ny\t2\n",
		},
		{
			"ipairs stops at nil",
			`for i, v in ipairs({ 1, 2, nil, 4 }) do print(i, v) end`,
			"1\t1\n2\t2\n",
		},
		{
			"clearing fields during traversal",
			`local t = { a = 1, b = 2, c = 3 }
for k in pairs(t) do t[k] = nil end
print(next(t))`,
			"nil\n",
		},
		{
			"numeric for",
			`for i = 10, 1, -3 do print(i) end`,
			"10\n7\n4\n1\n",
		},
		{
			"repeat sees body locals",
			`local i = 0
repeat
    local j = i
    i = i + 1
until j >= 2
print(i)`,
			"3\n",
		},
		{
			"while and break",
			`local n = 0
while true do
    n = n + 1
    if n == 5 then break end
end
print(n)`,
			"5\n",
		},
		{
			"methods",
			`local acc = { total = 0 }
function acc:add(n)
    self.total = self.total + n
    return self
end
acc:add(2):add(3)
print(acc.total)`,
			"5\n",
		},
		{
			"multiple assignment",
			`local a, b = 1, 2
a, b = b, a
print(a, b)`,
			"2\t1\n",
		},
		{
			"length and append",
			`local t = {}
t[#t + 1] = "a"
t[#t + 1] = "b"
print(#t, t[2], rawget(t, 1))`,
			"2\tb\ta\n",
		},
		{
			"statement expression",
			`local v = (do local t = 40; t = t + 2 in t end)
print(v)`,
			"42\n",
		},
		{
			"pcall",
			`print(pcall(error, "boom"))
local ok, e = pcall(error, { code = 7 })
print(ok, e.code)
print(pcall(function(a, b) return a + b end, 1, 2))`,
			"false\tboom\nfalse\t7\ntrue\t3\n",
		},
		{
			"pcall reports runtime errors",
			`local ok, msg = pcall(function() local x = nil; return x.y end)
print(ok, msg)`,
			"false\tRuntimeError: attempt to index a nil value\n",
		},
		{
			"globals",
			`function greet(name) return "hi " .. name end
g = greet("x")
print(g, type(greet), type(nil))`,
			"hi x\tfunction\tnil\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := run(t, tt.src)
			if err != nil {
				t.Fatalf("unexpected error: %s", err.Inspect())
			}
			if got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestRuntimeErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		kind string
		msg  string
		line int
	}{
		{"arithmetic on nil", "local a = 1\nlocal x = nil + a", config.RuntimeErrorKind, "attempt to perform arithmetic on a nil value", 2},
		{"call nil", "undefined()", config.RuntimeErrorKind, "attempt to call a nil value (variable 'undefined')", 1},
		{"nil index", "local t = {}\nt[nil] = 1", config.RuntimeErrorKind, "table index is nil", 2},
		{"compare", "local b = 1 < \"x\"", config.RuntimeErrorKind, "attempt to compare number with string", 1},
		{"error", `error("custom")`, config.RuntimeErrorKind, "custom", 1},
		{"assert", `assert(false, "nope")`, config.RuntimeErrorKind, "nope", 1},
		{"stack overflow", "local function f() return f() end\nf()", config.RuntimeErrorKind, "stack overflow", 1},
		{"bad for", `for i = "a", 2 do end`, config.RuntimeErrorKind, "'for' initial value must be a number", 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := run(t, tt.src)
			if err == nil {
				t.Fatal("expected an error")
			}
			if err.Kind != tt.kind {
				t.Errorf("got kind %s, want %s", err.Kind, tt.kind)
			}
			if err.Message != tt.msg {
				t.Errorf("got message %q, want %q", err.Message, tt.msg)
			}
			if err.Line != tt.line {
				t.Errorf("got line %d, want %d", err.Line, tt.line)
			}
		})
	}
}

func TestStackTrace(t *testing.T) {
	_, err := run(t, `local function inner() error("deep") end
local function outer() inner() end
outer()`)
	if err == nil {
		t.Fatal("expected an error")
	}
	var names []string
	for _, f := range err.StackTrace {
		names = append(names, f.Name)
	}
	if got := strings.Join(names, ","); got != "inner,outer" {
		t.Errorf("got frames %s, want inner,outer", got)
	}
	if !strings.Contains(err.Inspect(), "at test.tlua:3 (called outer)") {
		t.Errorf("unexpected rendering:\n%s", err.Inspect())
	}
}

func TestCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := runWithContext(t, ctx, `while true do end`)
	if err == nil {
		t.Fatal("expected cancellation")
	}
	if !strings.Contains(err.Message, "execution cancelled") {
		t.Errorf("got %q", err.Message)
	}
}
