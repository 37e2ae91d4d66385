package cli

import (
	"bytes"
	"context"
	"net"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/funvibe/tlua/internal/cache"
	"github.com/funvibe/tlua/internal/compiler"
	"github.com/funvibe/tlua/internal/service"
)

type result struct {
	code   int
	stdout string
	stderr string
}

func runMain(t *testing.T, stdin string, args ...string) result {
	t.Helper()
	var stdout, stderr bytes.Buffer
	code := Main(context.Background(), args, strings.NewReader(stdin), &stdout, &stderr)
	return result{code: code, stdout: stdout.String(), stderr: stderr.String()}
}

// writeFiles creates files (path -> content) under a fresh directory.
func writeFiles(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		path := filepath.Join(dir, name)
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return dir
}

func TestUsage(t *testing.T) {
	tests := []struct {
		name string
		args []string
		code int
	}{
		{"no arguments", nil, exitUsage},
		{"unknown command", []string{"frobnicate"}, exitUsage},
		{"compile without a file", []string{"compile"}, exitUsage},
		{"bad flag", []string{"run", "--nope", "x.tlua"}, exitUsage},
		{"help", []string{"help"}, exitOK},
		{"version", []string{"--version"}, exitOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := runMain(t, "", tt.args...)
			if res.code != tt.code {
				t.Errorf("got exit code %d, want %d\nstderr: %s", res.code, tt.code, res.stderr)
			}
		})
	}
}

func TestCompile(t *testing.T) {
	dir := writeFiles(t, map[string]string{
		"a.tlua": "local n :: number = f()\n",
	})
	path := filepath.Join(dir, "a.tlua")

	res := runMain(t, "", "compile", path)
	if res.code != exitOK {
		t.Fatalf("exit %d: %s", res.code, res.stderr)
	}
	want := "local n = (do local __tlua_1 = f(); types.number(__tlua_1) in __tlua_1 end)\n"
	if res.stdout != want {
		t.Errorf("got:\n%s\nwant:\n%s", res.stdout, want)
	}

	res = runMain(t, "", "compile", "--no-checks", path)
	if res.stdout != "local n = f()\n" {
		t.Errorf("--no-checks: got %q", res.stdout)
	}

	out := filepath.Join(dir, "build", "a.lua")
	res = runMain(t, "", "compile", "-o", out, path)
	if res.code != exitOK || res.stdout != "" {
		t.Fatalf("-o: exit %d, stdout %q, stderr %s", res.code, res.stdout, res.stderr)
	}
	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != want {
		t.Errorf("file holds %q", data)
	}
}

func TestCompileStdin(t *testing.T) {
	res := runMain(t, "local s :: string = \"x\"\n", "compile", "-")
	if res.code != exitOK {
		t.Fatalf("exit %d: %s", res.code, res.stderr)
	}
	if !strings.Contains(res.stdout, `types.string("x")`) {
		t.Errorf("got %q", res.stdout)
	}
}

func TestCompileDiagnostics(t *testing.T) {
	dir := writeFiles(t, map[string]string{"bad.tlua": "local x = \n"})
	res := runMain(t, "", "compile", filepath.Join(dir, "bad.tlua"))
	if res.code != exitFailure {
		t.Fatalf("got exit %d", res.code)
	}
	if !strings.HasPrefix(res.stderr, "Processing failed with errors:\n- ") {
		t.Errorf("unexpected report:\n%s", res.stderr)
	}
	if !strings.Contains(res.stderr, "bad.tlua:") || !strings.Contains(res.stderr, "error [P") {
		t.Errorf("diagnostic lacks position or code:\n%s", res.stderr)
	}
	if res.stdout != "" {
		t.Errorf("printed output for a failed unit: %q", res.stdout)
	}
}

func TestRun(t *testing.T) {
	tests := []struct {
		name   string
		src    string
		stdout string
		stderr string // substring; empty means success
	}{
		{
			"initializer called once",
			`local calls = 0
local function f()
    calls = calls + 1
    return 1
end
local n :: number = f()
print(n, calls)`,
			"1\t1\n",
			"",
		},
		{
			"parameter checked before the body",
			`local function g(x :: string) :: number
    print("body")
    return 1
end
g(1)`,
			"",
			"TypeMismatch: expected string, got number",
		},
		{
			"return checked at the return point",
			`local function g(x :: string) :: number
    print("body")
    return x
end
g("s")`,
			"body\n",
			"TypeMismatch: expected number, got string",
		},
		{
			"newtype through the registry",
			`newtype Positive = number
local p :: Positive = 5
print(p)`,
			"5\n",
			"",
		},
		{
			"newtype mismatch",
			`newtype Positive = number
local p :: Positive = "five"`,
			"",
			"TypeMismatch: expected number, got string",
		},
		{
			"stack trace",
			`local function inner(x :: number) return x end
local function outer() return inner("a") end
outer()`,
			"",
			"Stack trace:",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := writeFiles(t, map[string]string{"main.tlua": tt.src})
			res := runMain(t, "", "run", filepath.Join(dir, "main.tlua"))
			if res.stdout != tt.stdout {
				t.Errorf("stdout %q, want %q", res.stdout, tt.stdout)
			}
			if tt.stderr == "" {
				if res.code != exitOK {
					t.Errorf("exit %d: %s", res.code, res.stderr)
				}
				return
			}
			if res.code != exitFailure {
				t.Errorf("got exit %d, want %d", res.code, exitFailure)
			}
			if !strings.Contains(res.stderr, tt.stderr) {
				t.Errorf("stderr lacks %q:\n%s", tt.stderr, res.stderr)
			}
		})
	}
}

func TestBareFileRuns(t *testing.T) {
	dir := writeFiles(t, map[string]string{"hello.tlua": `print("hi")`})
	res := runMain(t, "", filepath.Join(dir, "hello.tlua"))
	if res.code != exitOK || res.stdout != "hi\n" {
		t.Errorf("exit %d, stdout %q, stderr %s", res.code, res.stdout, res.stderr)
	}
}

func TestProjectFile(t *testing.T) {
	dir := writeFiles(t, map[string]string{
		"tlua.yaml":     "registry: T\ntemp_prefix: _t\n",
		"src/main.tlua": "local n :: number = f()\n",
		"src/run.tlua":  "local n :: number = 2\nprint(n * 2)\n",
	})

	res := runMain(t, "", "compile", filepath.Join(dir, "src", "main.tlua"))
	if res.code != exitOK {
		t.Fatalf("exit %d: %s", res.code, res.stderr)
	}
	if !strings.Contains(res.stdout, "T.number(_t1)") {
		t.Errorf("project settings not applied:\n%s", res.stdout)
	}

	res = runMain(t, "", "run", filepath.Join(dir, "src", "run.tlua"))
	if res.code != exitOK || res.stdout != "4\n" {
		t.Errorf("run under a custom registry: exit %d, stdout %q, stderr %s", res.code, res.stdout, res.stderr)
	}
}

func TestProjectFileJSONC(t *testing.T) {
	dir := writeFiles(t, map[string]string{
		"tlua.jsonc": "{\n  // instrumentation off for this tree\n  \"checks\": false,\n}\n",
		"a.tlua":     "local n :: number = 1\n",
	})
	res := runMain(t, "", "compile", filepath.Join(dir, "a.tlua"))
	if res.code != exitOK {
		t.Fatalf("exit %d: %s", res.code, res.stderr)
	}
	if res.stdout != "local n = 1\n" {
		t.Errorf("got %q", res.stdout)
	}
}

func TestBadProjectFile(t *testing.T) {
	dir := writeFiles(t, map[string]string{
		"tlua.yaml": "color: sometimes\n",
		"a.tlua":    "print(1)\n",
	})
	res := runMain(t, "", "compile", filepath.Join(dir, "a.tlua"))
	if res.code != exitFailure || !strings.Contains(res.stderr, "color") {
		t.Errorf("exit %d, stderr %s", res.code, res.stderr)
	}
}

func TestCompileCache(t *testing.T) {
	dir := writeFiles(t, map[string]string{"a.tlua": "local n :: number = 1\n"})
	dbPath := filepath.Join(dir, ".tlua", "cache.db")

	for i := 0; i < 2; i++ {
		res := runMain(t, "", "compile", "--cache", dbPath, filepath.Join(dir, "a.tlua"))
		if res.code != exitOK {
			t.Fatalf("run %d: exit %d: %s", i, res.code, res.stderr)
		}
	}

	store, err := cache.Open(dbPath)
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()
	if n, _ := store.Len(context.Background()); n != 1 {
		t.Errorf("got %d cached units, want 1", n)
	}
}

func TestDump(t *testing.T) {
	dir := writeFiles(t, map[string]string{"a.tlua": "local n :: number = 1\n"})
	path := filepath.Join(dir, "a.tlua")

	res := runMain(t, "", "dump", path)
	if res.code != exitOK {
		t.Fatalf("exit %d: %s", res.code, res.stderr)
	}
	for _, want := range []string{"ast.Program", "ast.LocalStatement", "ast.StatementExpression"} {
		if !strings.Contains(res.stdout, want) {
			t.Errorf("dump lacks %s", want)
		}
	}

	res = runMain(t, "", "dump", "--raw", path)
	if strings.Contains(res.stdout, "ast.StatementExpression") {
		t.Error("--raw dump was instrumented")
	}
}

func TestRepl(t *testing.T) {
	var out bytes.Buffer
	r := newRepl(context.Background(), compiler.New(), &out)

	steps := []struct {
		input      string
		incomplete bool
		want       string
	}{
		{"x = 40", false, ""},
		{"x + 2", false, "42\n"},
		{"local function f()", true, ""},
		{"local function f()\n  return 7\nend\nprint(f())", false, "7\n"},
		{"local n :: number = 'a'", false, "TypeMismatch: expected number, got string"},
	}
	for _, step := range steps {
		out.Reset()
		if got := r.eval(step.input); got != step.incomplete {
			t.Errorf("%q: incomplete = %t", step.input, got)
		}
		if !strings.Contains(out.String(), step.want) {
			t.Errorf("%q: printed %q, want %q", step.input, out.String(), step.want)
		}
	}

	out.Reset()
	r.eval("s = 'hi'")
	r.listGlobals()
	if out.String() != "s\tstring\nx\tnumber\n" {
		t.Errorf("globals listed as %q", out.String())
	}

	r.reset()
	out.Reset()
	r.listGlobals()
	if out.String() != "" {
		t.Errorf("globals after reset: %q", out.String())
	}
	r.eval("x")
	if out.String() != "nil\n" {
		t.Errorf("globals survived reset: %q", out.String())
	}
}

func TestReplPragmaPersists(t *testing.T) {
	var out bytes.Buffer
	r := newRepl(context.Background(), compiler.New(), &out)

	steps := []struct {
		input string
		want  string
	}{
		{"--@typecheck off", ""},
		{"local n :: number = 'a'", ""},
		{"local s :: string = 1", ""},
		{"--@typecheck on", ""},
		{"local n :: number = 'a'", "TypeMismatch: expected number, got string"},
		{"--@typecheck off", ""},
	}
	for _, step := range steps {
		out.Reset()
		r.eval(step.input)
		if step.want == "" && out.Len() != 0 || !strings.Contains(out.String(), step.want) {
			t.Errorf("%q: printed %q, want %q", step.input, out.String(), step.want)
		}
	}

	r.reset()
	out.Reset()
	r.eval("local n :: number = 'a'")
	if !strings.Contains(out.String(), "TypeMismatch") {
		t.Errorf("reset kept checks off: %q", out.String())
	}
}

func TestWatchOnce(t *testing.T) {
	dir := writeFiles(t, map[string]string{
		"src/a.tlua":     "local n :: number = 1\n",
		"src/sub/b.tlua": "local s :: string = \"b\"\n",
		"src/notes.txt":  "ignored",
	})
	src := filepath.Join(dir, "src")
	out := filepath.Join(dir, "out")

	res := runMain(t, "", "watch", "--once", "-o", out, src)
	if res.code != exitOK {
		t.Fatalf("exit %d: %s", res.code, res.stderr)
	}
	for _, name := range []string{"a.lua", filepath.Join("sub", "b.lua")} {
		data, err := os.ReadFile(filepath.Join(out, name))
		if err != nil {
			t.Errorf("missing output %s: %v", name, err)
			continue
		}
		if !strings.Contains(string(data), "types.") {
			t.Errorf("%s not instrumented:\n%s", name, data)
		}
	}
	if _, err := os.Stat(filepath.Join(out, "notes.lua")); err == nil {
		t.Error("non-source file was compiled")
	}

	if err := os.WriteFile(filepath.Join(src, "bad.tlua"), []byte("local = 1"), 0o644); err != nil {
		t.Fatal(err)
	}
	res = runMain(t, "", "watch", "--once", "-o", out, src)
	if res.code != exitFailure {
		t.Errorf("got exit %d with a broken unit", res.code)
	}
}

func TestCompileRemote(t *testing.T) {
	lis, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Skipf("cannot listen: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- service.Serve(ctx, lis, &service.Server{Compiler: compiler.New()}) }()
	defer func() {
		cancel()
		<-done
	}()

	dir := writeFiles(t, map[string]string{"a.tlua": "local n :: number = f()\n"})
	res := runMain(t, "", "compile", "--remote", lis.Addr().String(), filepath.Join(dir, "a.tlua"))
	if res.code != exitOK {
		t.Fatalf("exit %d: %s", res.code, res.stderr)
	}
	if !strings.Contains(res.stdout, "types.number(__tlua_1)") {
		t.Errorf("got %q", res.stdout)
	}

	res = runMain(t, "", "compile", "--remote", lis.Addr().String(), "-", "extra")
	if res.code != exitUsage {
		t.Errorf("got exit %d for extra arguments", res.code)
	}
}
