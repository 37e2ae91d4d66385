package cli

import (
	"flag"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"golang.org/x/tools/txtar"
)

var update = flag.Bool("update", false, "update the want sections of functional tests")

// errorPrefix drops the "file:line:col: " location before "error [...]",
// which depends on the temporary directory.
var errorPrefix = regexp.MustCompile(`(- )(.*?: )(error)`)

// TestFunctional runs each testdata/functional archive through `tlua run`
// and compares stdout followed by stderr with its want section. Every other
// section is written to a temporary directory first.
func TestFunctional(t *testing.T) {
	files, err := filepath.Glob(filepath.Join("testdata", "functional", "*.txtar"))
	if err != nil {
		t.Fatal(err)
	}
	if len(files) == 0 {
		t.Fatal("no functional tests found")
	}

	for _, file := range files {
		name := strings.TrimSuffix(filepath.Base(file), ".txtar")
		t.Run(name, func(t *testing.T) {
			ar, err := txtar.ParseFile(file)
			if err != nil {
				t.Fatal(err)
			}

			dir := t.TempDir()
			wantIdx := -1
			for i, f := range ar.Files {
				if f.Name == "want" {
					wantIdx = i
					continue
				}
				path := filepath.Join(dir, f.Name)
				if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
					t.Fatal(err)
				}
				if err := os.WriteFile(path, f.Data, 0o644); err != nil {
					t.Fatal(err)
				}
			}

			res := runMain(t, "", "run", filepath.Join(dir, "main.tlua"))

			stderr := strings.ReplaceAll(res.stderr, dir+string(filepath.Separator), "")
			stderr = errorPrefix.ReplaceAllString(stderr, "$1$3")
			got := strings.TrimSpace(res.stdout + stderr)

			if *update {
				if wantIdx < 0 {
					ar.Files = append(ar.Files, txtar.File{Name: "want"})
					wantIdx = len(ar.Files) - 1
				}
				ar.Files[wantIdx].Data = []byte(got + "\n")
				if err := os.WriteFile(file, txtar.Format(ar), 0o644); err != nil {
					t.Fatal(err)
				}
				return
			}
			if wantIdx < 0 {
				t.Fatal("missing want section (run with -update)")
			}

			want := strings.TrimSpace(string(ar.Files[wantIdx].Data))
			if got != want {
				t.Errorf("output mismatch:\n--- want ---\n%s\n--- got ---\n%s", want, got)
			}
		})
	}
}
