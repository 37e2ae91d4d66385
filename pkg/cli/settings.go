package cli

import (
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/mattn/go-isatty"

	"github.com/funvibe/tlua/internal/cache"
	"github.com/funvibe/tlua/internal/compiler"
	"github.com/funvibe/tlua/internal/config"
	"github.com/funvibe/tlua/internal/diagnostics"
	"github.com/funvibe/tlua/internal/pipeline"
)

// commonFlags are accepted by every command that compiles.
type commonFlags struct {
	configPath string
	noChecks   bool
	cachePath  string
	noCache    bool
	width      int
	color      string
}

func (a *app) newFlagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet("tlua "+name, flag.ContinueOnError)
	fs.SetOutput(a.stderr)
	return fs
}

func addCommonFlags(fs *flag.FlagSet) *commonFlags {
	cf := &commonFlags{}
	fs.StringVar(&cf.configPath, "config", "", "project file (default: nearest tlua.yaml or tlua.jsonc)")
	fs.BoolVar(&cf.noChecks, "no-checks", false, "start units with checks off")
	fs.StringVar(&cf.cachePath, "cache", "", "sqlite output cache (overrides the project setting)")
	fs.BoolVar(&cf.noCache, "no-cache", false, "ignore the configured cache")
	fs.IntVar(&cf.width, "width", 0, "printer line width (overrides the project setting)")
	fs.StringVar(&cf.color, "color", "", "auto, always or never (overrides the project setting)")
	return cf
}

// session is the resolved configuration for one command.
type session struct {
	project  *config.Project
	compiler *compiler.Compiler
	color    bool
}

func (s *session) Close() error {
	if s.compiler.Cache != nil {
		return s.compiler.Cache.Close()
	}
	return nil
}

// openSession resolves the project file above dir, applies cf on top of it
// and opens the cache when one is configured.
func (a *app) openSession(cf *commonFlags, dir string) (*session, error) {
	var project *config.Project
	var err error
	if cf.configPath != "" {
		project, err = config.LoadProject(cf.configPath)
	} else {
		project, err = config.ResolveProject(dir)
	}
	if err != nil {
		return nil, err
	}

	c := compiler.New()
	c.Options = pipeline.Options{
		Registry:   project.Registry,
		TempPrefix: project.TempPrefix,
		Checks:     project.ChecksEnabled() && !cf.noChecks,
	}
	c.Width = project.Width
	if cf.width > 0 {
		c.Width = cf.width
	}

	cachePath := project.CachePath()
	if cf.cachePath != "" {
		cachePath = cf.cachePath
	}
	if cachePath != "" && !cf.noCache {
		store, err := cache.Open(cachePath)
		if err != nil {
			return nil, err
		}
		c.Cache = store
	}

	mode := project.Color
	if cf.color != "" {
		mode = cf.color
	}
	return &session{project: project, compiler: c, color: useColor(mode, a.stderr)}, nil
}

// useColor decides whether w gets ANSI colour for the given mode.
func useColor(mode string, w io.Writer) bool {
	switch mode {
	case "always":
		return true
	case "never":
		return false
	}
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	if os.Getenv("NO_COLOR") != "" || os.Getenv("TERM") == "dumb" {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

const (
	ansiRed   = "\x1b[31m"
	ansiReset = "\x1b[0m"
)

func paint(on bool, color, s string) string {
	if !on {
		return s
	}
	return color + s + ansiReset
}

// printDiagnostics reports errs the way every command does.
func (a *app) printDiagnostics(errs []*diagnostics.DiagnosticError, color bool) {
	fmt.Fprintln(a.stderr, "Processing failed with errors:")
	for _, err := range errs {
		msg := err.Error()
		if color {
			msg = strings.Replace(msg, "error [", paint(true, ansiRed, "error")+" [", 1)
		}
		fmt.Fprintf(a.stderr, "- %s\n", msg)
	}
}

// readSource reads path, or standard input for "-".
func (a *app) readSource(path string) (string, error) {
	if path == "-" {
		data, err := io.ReadAll(a.stdin)
		if err != nil {
			return "", fmt.Errorf("reading standard input: %w", err)
		}
		return string(data), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// sourceDir is where the project file search starts for path.
func sourceDir(path string) string {
	if path == "-" {
		return "."
	}
	return filepath.Dir(path)
}

// unitName is the name used in diagnostics for path.
func unitName(path string) string {
	if path == "-" {
		return "<stdin>"
	}
	return path
}
