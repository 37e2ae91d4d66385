package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/tailscale/hujson"
	"gopkg.in/yaml.v3"
)

// Project represents a tlua.yaml (or tlua.jsonc) project file.
type Project struct {
	// Checks enables instrumentation. A unit can still switch it with
	// the --@typecheck pragma; the value in effect at the end of the unit wins.
	Checks *bool `yaml:"checks,omitempty" json:"checks,omitempty"`

	// Registry is the global table that holds the type predicates.
	Registry string `yaml:"registry,omitempty" json:"registry,omitempty"`

	// TempPrefix prefixes generated temporaries, e.g. "__tlua_" -> __tlua_1.
	TempPrefix string `yaml:"temp_prefix,omitempty" json:"temp_prefix,omitempty"`

	// Cache is a path to the sqlite output cache, relative to the project file.
	// Empty disables caching.
	Cache string `yaml:"cache,omitempty" json:"cache,omitempty"`

	// Width is the printer's preferred line width. 0 means the default.
	Width int `yaml:"width,omitempty" json:"width,omitempty"`

	// Color is one of "auto", "always", "never".
	Color string `yaml:"color,omitempty" json:"color,omitempty"`

	// Dir is the directory of the project file (not serialized).
	Dir string `yaml:"-" json:"-"`
}

// DefaultProject returns the settings used when no project file is found.
func DefaultProject() *Project {
	p := &Project{Dir: "."}
	p.setDefaults()
	return p
}

// ChecksEnabled reports the configured default for instrumentation.
func (p *Project) ChecksEnabled() bool {
	return p.Checks == nil || *p.Checks
}

// CachePath resolves Cache against the project directory.
func (p *Project) CachePath() string {
	if p.Cache == "" || filepath.IsAbs(p.Cache) {
		return p.Cache
	}
	return filepath.Join(p.Dir, p.Cache)
}

// LoadProject reads and parses a project file.
func LoadProject(path string) (*Project, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}
	return ParseProject(data, path)
}

// ParseProject parses project file content from bytes.
// JSON files may contain comments and trailing commas.
// The path argument selects the format and is used in error messages.
func ParseProject(data []byte, path string) (*Project, error) {
	if ext := strings.ToLower(filepath.Ext(path)); ext == ".json" || ext == ".jsonc" {
		std, err := hujson.Standardize(data)
		if err != nil {
			return nil, fmt.Errorf("parsing %s: %w", path, err)
		}
		// Standard JSON is valid YAML, so one decoder serves both formats.
		data = std
	}

	var p Project
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	if err := p.validate(path); err != nil {
		return nil, err
	}
	p.Dir = filepath.Dir(path)
	p.setDefaults()
	return &p, nil
}

// FindProject searches for a project file starting from dir and walking up
// to parent directories. Returns "" and a nil error when none exists.
func FindProject(dir string) (string, error) {
	dir, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("resolving directory: %w", err)
	}

	for {
		for _, name := range ProjectFileNames {
			candidate := filepath.Join(dir, name)
			if _, err := os.Stat(candidate); err == nil {
				return candidate, nil
			}
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", nil
		}
		dir = parent
	}
}

// ResolveProject loads the nearest project file above dir, or the defaults.
func ResolveProject(dir string) (*Project, error) {
	path, err := FindProject(dir)
	if err != nil {
		return nil, err
	}
	if path == "" {
		return DefaultProject(), nil
	}
	return LoadProject(path)
}

func (p *Project) validate(path string) error {
	if p.Registry != "" && !isIdentifier(p.Registry) {
		return fmt.Errorf("%s: registry %q is not a valid identifier", path, p.Registry)
	}
	if p.TempPrefix != "" && !isIdentifier(p.TempPrefix) {
		return fmt.Errorf("%s: temp_prefix %q is not a valid identifier", path, p.TempPrefix)
	}
	if p.Width < 0 {
		return fmt.Errorf("%s: width must not be negative", path)
	}
	switch p.Color {
	case "", "auto", "always", "never":
	default:
		return fmt.Errorf("%s: color must be auto, always or never, got %q", path, p.Color)
	}
	return nil
}

func (p *Project) setDefaults() {
	if p.Registry == "" {
		p.Registry = RegistryName
	}
	if p.TempPrefix == "" {
		p.TempPrefix = TempPrefix
	}
	if p.Color == "" {
		p.Color = "auto"
	}
	if p.Width == 0 {
		p.Width = 100
	}
}

func isIdentifier(s string) bool {
	for i, r := range s {
		if r == '_' || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (i > 0 && r >= '0' && r <= '9') {
			continue
		}
		return false
	}
	return s != ""
}
