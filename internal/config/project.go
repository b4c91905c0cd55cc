package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Project is the content of a nickel.yaml file.
type Project struct {
	// ImportPaths are searched, in order, for imports that are not found
	// next to the importing file. Relative entries are resolved against the
	// directory of the project file.
	ImportPaths []string `yaml:"import_paths,omitempty"`

	// MaxDepth bounds the nesting of strict evaluations.
	MaxDepth int `yaml:"max_depth,omitempty"`

	// MaxSteps bounds the number of reduction steps. Zero means unlimited.
	MaxSteps int `yaml:"max_steps,omitempty"`

	// Stdlib can be set to false to evaluate without the standard library.
	Stdlib *bool `yaml:"stdlib,omitempty"`

	// Color is one of auto, always or never.
	Color string `yaml:"color,omitempty"`

	// LogLevel is a zap level name (debug, info, warn, error).
	LogLevel string `yaml:"log_level,omitempty"`

	// Dir is the directory holding the project file. Not read from YAML.
	Dir string `yaml:"-"`
}

// DefaultProject returns the settings used when no project file exists.
func DefaultProject() *Project {
	p := &Project{}
	p.setDefaults()
	return p
}

// LoadProject reads and parses a nickel.yaml file.
func LoadProject(path string) (*Project, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}
	return ParseProject(data, path)
}

// ParseProject parses nickel.yaml content from bytes.
// The path argument is used for error messages and to resolve import paths.
func ParseProject(data []byte, path string) (*Project, error) {
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

// FindConfig searches for nickel.yaml starting from dir and walking up
// to parent directories.
// Returns the path to the config file, or an empty string if none was found.
func FindConfig(dir string) (string, error) {
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

// UseStdlib reports whether the standard library is loaded.
func (p *Project) UseStdlib() bool {
	return p.Stdlib == nil || *p.Stdlib
}

// ResolvedImportPaths returns the import paths made absolute against Dir.
func (p *Project) ResolvedImportPaths() []string {
	out := make([]string, 0, len(p.ImportPaths))
	for _, ip := range p.ImportPaths {
		if !filepath.IsAbs(ip) && p.Dir != "" {
			ip = filepath.Join(p.Dir, ip)
		}
		out = append(out, filepath.Clean(ip))
	}
	return out
}

func (p *Project) validate(path string) error {
	if p.MaxDepth < 0 {
		return fmt.Errorf("%s: max_depth must not be negative", path)
	}
	if p.MaxSteps < 0 {
		return fmt.Errorf("%s: max_steps must not be negative", path)
	}
	switch p.Color {
	case "", ColorAuto, ColorAlways, ColorNever:
	default:
		return fmt.Errorf("%s: color must be one of %s, %s, %s, got %q", path, ColorAuto, ColorAlways, ColorNever, p.Color)
	}
	switch p.LogLevel {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("%s: unknown log_level %q", path, p.LogLevel)
	}
	for i, ip := range p.ImportPaths {
		if ip == "" {
			return fmt.Errorf("%s: import_paths[%d] is empty", path, i)
		}
	}
	return nil
}

func (p *Project) setDefaults() {
	if p.MaxDepth == 0 {
		p.MaxDepth = DefaultMaxDepth
	}
	if p.MaxSteps == 0 {
		p.MaxSteps = DefaultMaxSteps
	}
	if p.Color == "" {
		p.Color = ColorAuto
	}
	if p.LogLevel == "" {
		p.LogLevel = "warn"
	}
}
