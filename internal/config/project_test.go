package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestParseProject_Valid(t *testing.T) {
	yaml := `
import_paths:
  - lib
  - /opt/nickel
max_depth: 500
max_steps: 100000
stdlib: false
color: never
log_level: debug
`
	p, err := ParseProject([]byte(yaml), "/work/nickel.yaml")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.MaxDepth != 500 || p.MaxSteps != 100000 {
		t.Errorf("limits = %d/%d, want 500/100000", p.MaxDepth, p.MaxSteps)
	}
	if p.UseStdlib() {
		t.Error("expected stdlib to be disabled")
	}
	if p.Color != ColorNever {
		t.Errorf("color = %q, want never", p.Color)
	}
	paths := p.ResolvedImportPaths()
	want := []string{filepath.Clean("/work/lib"), "/opt/nickel"}
	if len(paths) != 2 || paths[0] != want[0] || paths[1] != want[1] {
		t.Errorf("import paths = %v, want %v", paths, want)
	}
}

func TestParseProject_Defaults(t *testing.T) {
	p, err := ParseProject([]byte("{}"), "nickel.yaml")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.MaxDepth != DefaultMaxDepth {
		t.Errorf("max_depth = %d, want %d", p.MaxDepth, DefaultMaxDepth)
	}
	if !p.UseStdlib() {
		t.Error("stdlib should be enabled by default")
	}
	if p.Color != ColorAuto || p.LogLevel != "warn" {
		t.Errorf("unexpected defaults color=%q log_level=%q", p.Color, p.LogLevel)
	}
}

func TestParseProject_Invalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"negative depth", "max_depth: -1"},
		{"negative steps", "max_steps: -5"},
		{"bad color", "color: sometimes"},
		{"bad level", "log_level: loud"},
		{"empty import path", "import_paths: ['']"},
		{"not yaml", "import_paths: [unclosed"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ParseProject([]byte(tt.yaml), "nickel.yaml"); err == nil {
				t.Error("expected an error")
			}
		})
	}
}

func TestFindConfig(t *testing.T) {
	root := t.TempDir()
	nested := filepath.Join(root, "a", "b")
	if err := os.MkdirAll(nested, 0o755); err != nil {
		t.Fatal(err)
	}
	cfgPath := filepath.Join(root, "nickel.yaml")
	if err := os.WriteFile(cfgPath, []byte("max_steps: 10\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	found, err := FindConfig(nested)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if found != cfgPath {
		t.Errorf("found %q, want %q", found, cfgPath)
	}

	p, err := LoadProject(found)
	if err != nil {
		t.Fatal(err)
	}
	if p.MaxSteps != 10 || p.Dir != root {
		t.Errorf("unexpected project %+v", p)
	}
}
