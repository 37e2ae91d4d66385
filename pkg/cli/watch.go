package cli

import (
	"context"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/syncthing/notify"

	"github.com/funvibe/tlua/internal/compiler"
	"github.com/funvibe/tlua/internal/config"
)

// debounce batches bursts of file events into one rebuild.
const debounce = 100 * time.Millisecond

// handleWatch: tlua watch [-o outdir] [common flags] <dir>
func (a *app) handleWatch() bool {
	if a.command() != "watch" {
		return false
	}

	fset := a.newFlagSet("watch")
	cf := addCommonFlags(fset)
	outDir := fset.String("o", "", "write outputs under this directory instead of next to the sources")
	once := fset.Bool("once", false, "compile everything once and exit")
	if err := fset.Parse(a.args[1:]); err != nil {
		return a.usageError(nil)
	}
	if fset.NArg() != 1 {
		return a.usageError(fmt.Errorf("watch expects exactly one directory"))
	}
	root := fset.Arg(0)

	sess, err := a.openSession(cf, root)
	if err != nil {
		return a.fail("%v", err)
	}
	defer sess.Close()

	w := &watcher{
		root:     root,
		outDir:   *outDir,
		compiler: sess.compiler,
		logger:   log.New(a.stderr, "", 0),
	}

	files, err := w.sources()
	if err != nil {
		return a.fail("%v", err)
	}
	failed := w.build(a.ctx, files)
	if *once {
		if failed > 0 {
			a.code = exitFailure
		}
		return true
	}

	if err := w.watch(a.ctx); err != nil {
		return a.fail("%v", err)
	}
	return true
}

// watcher recompiles .tlua files under root.
type watcher struct {
	root     string
	outDir   string
	compiler *compiler.Compiler
	logger   *log.Logger
}

// sources lists the .tlua files under root in a stable order.
func (w *watcher) sources() ([]string, error) {
	var files []string
	err := filepath.WalkDir(w.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.EqualFold(filepath.Ext(path), config.SourceFileExt) {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scanning %s: %w", w.root, err)
	}
	sort.Strings(files)
	return files, nil
}

// outputPath maps a source file to its .lua output.
func (w *watcher) outputPath(src string) string {
	out := strings.TrimSuffix(src, filepath.Ext(src)) + ".lua"
	if w.outDir == "" {
		return out
	}
	rel, err := filepath.Rel(w.root, out)
	if err != nil {
		return out
	}
	return filepath.Join(w.outDir, rel)
}

// build compiles files and returns how many failed.
func (w *watcher) build(ctx context.Context, files []string) int {
	failed := 0
	for _, path := range files {
		if err := w.compileFile(ctx, path); err != nil {
			w.logger.Printf("%v", err)
			failed++
		}
	}
	return failed
}

func (w *watcher) compileFile(ctx context.Context, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	res := w.compiler.Compile(ctx, path, string(data))
	if res.CacheErr != nil {
		w.logger.Printf("cache: %v", res.CacheErr)
	}
	if !res.OK() {
		msgs := make([]string, len(res.Diagnostics))
		for i, d := range res.Diagnostics {
			msgs[i] = d.Error()
		}
		return fmt.Errorf("%s", strings.Join(msgs, "\n"))
	}

	out := w.outputPath(path)
	if err := os.MkdirAll(filepath.Dir(out), 0o755); err != nil {
		return err
	}
	if err := os.WriteFile(out, []byte(res.Output), 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", out, err)
	}
	w.logger.Printf("compiled %s -> %s", path, out)
	return nil
}

// watch rebuilds changed sources until ctx is done.
func (w *watcher) watch(ctx context.Context) error {
	// Buffered so no event is dropped while a build runs.
	c := make(chan notify.EventInfo, 16)
	if err := notify.Watch(filepath.Join(w.root, "..."), c, notify.Write, notify.Create, notify.Rename); err != nil {
		return fmt.Errorf("watching %s: %w", w.root, err)
	}
	defer notify.Stop(c)
	w.logger.Printf("watching %s for changes...", w.root)

	pending := map[string]bool{}
	var timer *time.Timer
	timeout := func() <-chan time.Time {
		if timer != nil {
			return timer.C
		}
		return nil
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev := <-c:
			if !strings.EqualFold(filepath.Ext(ev.Path()), config.SourceFileExt) {
				continue
			}
			pending[ev.Path()] = true
			if timer != nil {
				timer.Stop()
			}
			timer = time.NewTimer(debounce)
		case <-timeout():
			timer = nil
			var files []string
			for path := range pending {
				if _, err := os.Stat(path); err == nil {
					files = append(files, path)
				}
			}
			pending = map[string]bool{}
			sort.Strings(files)
			w.build(ctx, files)
		}
	}
}
