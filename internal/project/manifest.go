// Package project reads the smartcast.toml manifest and enumerates the unit
// descriptions of a project.
package project

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/BurntSushi/toml"

	"smartcast/internal/unit"
)

// Manifest is a loaded smartcast.toml.
type Manifest struct {
	Path   string
	Root   string
	Config Config
}

type Config struct {
	Project ProjectConfig `toml:"project"`
	Markers MarkerConfig  `toml:"markers"`
	Check   CheckConfig   `toml:"check"`
}

type ProjectConfig struct {
	Name  string `toml:"name"`
	Units string `toml:"units"` // directory with unit descriptions, relative to the root
}

type MarkerConfig struct {
	Annotations          []string `toml:"annotations"`
	RequiredSupertypes   []string `toml:"required_supertypes"`
	DeprecatedSupertypes []string `toml:"deprecated_supertypes"`
}

// Names converts the marker section for unit.Unit.MarkerOptions.
func (m MarkerConfig) Names() unit.MarkerNames {
	return unit.MarkerNames{
		Annotations:          m.Annotations,
		RequiredSupertypes:   m.RequiredSupertypes,
		DeprecatedSupertypes: m.DeprecatedSupertypes,
	}
}

type CheckConfig struct {
	MaxDiagnostics int `toml:"max_diagnostics"`
	Jobs           int `toml:"jobs"`
}

// Load finds the manifest governing from, a directory or unit
// description. ok is false when there is none.
func Load(from string) (*Manifest, bool, error) {
	path, ok, err := FindManifest(from)
	if err != nil || !ok {
		return nil, ok, err
	}
	cfg, err := LoadConfig(path)
	if err != nil {
		return nil, true, err
	}
	return &Manifest{Path: path, Root: filepath.Dir(path), Config: cfg}, true, nil
}

// LoadConfig parses and validates one manifest file.
func LoadConfig(path string) (Config, error) {
	var cfg Config
	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return Config{}, fmt.Errorf("%s: failed to parse TOML: %w", path, err)
	}
	if !meta.IsDefined("project") {
		return Config{}, fmt.Errorf("%s: missing [project]", path)
	}
	if !meta.IsDefined("project", "name") || strings.TrimSpace(cfg.Project.Name) == "" {
		return Config{}, fmt.Errorf("%s: missing [project].name", path)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return Config{}, fmt.Errorf("%s: unknown key %q", path, undecoded[0].String())
	}
	if cfg.Check.MaxDiagnostics < 0 || cfg.Check.Jobs < 0 {
		return Config{}, fmt.Errorf("%s: [check] values must not be negative", path)
	}
	if cfg.Project.Units == "" {
		cfg.Project.Units = "units"
	}
	return cfg, nil
}

// UnitsDir returns the absolute directory holding unit descriptions.
func (m *Manifest) UnitsDir() string {
	return filepath.Join(m.Root, filepath.FromSlash(m.Config.Project.Units))
}

// ListUnits returns the unit descriptions under dir, sorted. Manifests are
// skipped.
func ListUnits(dir string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && unit.IsUnitFile(path) && d.Name() != ManifestName {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	slices.Sort(files)
	return files, nil
}

// Template renders a starter manifest.
func Template(name string) string {
	return fmt.Sprintf(`[project]
name = %q
units = "units"

[markers]
annotations = []
required_supertypes = []
deprecated_supertypes = []

[check]
max_diagnostics = 100
jobs = 0
`, name)
}

// WriteTemplate creates dir/smartcast.toml and the units directory. It
// refuses to overwrite an existing manifest.
func WriteTemplate(dir, name string) (string, error) {
	path := filepath.Join(dir, ManifestName)
	if _, err := os.Stat(path); err == nil {
		return "", fmt.Errorf("%s already exists", path)
	}
	if err := os.MkdirAll(filepath.Join(dir, "units"), 0o755); err != nil {
		return "", fmt.Errorf("failed to create units directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(Template(name)), 0o644); err != nil {
		return "", fmt.Errorf("failed to write manifest: %w", err)
	}
	return path, nil
}
