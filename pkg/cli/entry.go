// Package cli implements the tlua command.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/funvibe/tlua/internal/config"
)

// Exit codes.
const (
	exitOK      = 0
	exitFailure = 1 // diagnostics, runtime errors, I/O failures
	exitUsage   = 2
)

const usage = `Usage: tlua <command> [flags] [file]

Commands:
  compile   instrument a unit and print the plain source
  run       instrument and execute a unit
  dump      print the instrumented tree
  repl      interactive session
  watch     recompile .tlua files under a directory on change
  serve     serve the Instrumenter gRPC API
  version   print the version
  help      show this message

tlua <file> is short for tlua run <file>.
Run 'tlua <command> -h' for the command's flags.
`

// app holds one invocation's arguments and streams.
type app struct {
	ctx    context.Context
	args   []string // without the program name
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer
	code   int
}

// Run is the entry point used by cmd/tlua.
func Run() {
	// Catch panics and show user-friendly error
	defer func() {
		if r := recover(); r != nil {
			if os.Getenv("DEBUG") == "1" {
				panic(r)
			}
			fmt.Fprintf(os.Stderr, "Internal error: %v\n", r)
			fmt.Fprintln(os.Stderr, "This is a bug. Please report it.")
			os.Exit(exitFailure)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	code := Main(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

// Main runs the command in args and returns the exit code.
func Main(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	a := &app{ctx: ctx, args: args, stdin: stdin, stdout: stdout, stderr: stderr}

	handlers := []func() bool{
		a.handleHelp,
		a.handleVersion,
		a.handleCompile,
		a.handleRun,
		a.handleDump,
		a.handleRepl,
		a.handleWatch,
		a.handleServe,
		a.handleFile,
	}
	for _, handle := range handlers {
		if handle() {
			return a.code
		}
	}

	if len(args) == 0 {
		fmt.Fprint(stderr, usage)
	} else {
		fmt.Fprintf(stderr, "Unknown command: %s\n\n%s", args[0], usage)
	}
	return exitUsage
}

func (a *app) command() string {
	if len(a.args) == 0 {
		return ""
	}
	return a.args[0]
}

func (a *app) handleHelp() bool {
	switch a.command() {
	case "help", "-h", "-help", "--help":
		fmt.Fprint(a.stdout, usage)
		return true
	}
	return false
}

func (a *app) handleVersion() bool {
	switch a.command() {
	case "version", "-v", "-version", "--version":
		fmt.Fprintln(a.stdout, "tlua "+config.Version)
		return true
	}
	return false
}

// handleFile treats a bare source path as `run <path>`.
func (a *app) handleFile() bool {
	if len(a.args) == 0 || !isSourceFile(a.args[0]) {
		return false
	}
	a.args = append([]string{"run"}, a.args...)
	return a.handleRun()
}

// isSourceFile checks if a file has a recognized source extension
func isSourceFile(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, e := range config.SourceFileExtensions {
		if ext == e {
			return true
		}
	}
	return false
}

// fail prints a one-line error and sets the failure exit code.
func (a *app) fail(format string, args ...interface{}) bool {
	fmt.Fprintf(a.stderr, "Error: "+format+"\n", args...)
	a.code = exitFailure
	return true
}

func (a *app) usageError(err error) bool {
	if err != nil {
		fmt.Fprintf(a.stderr, "Error: %v\n", err)
	}
	a.code = exitUsage
	return true
}
