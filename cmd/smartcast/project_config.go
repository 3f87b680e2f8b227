package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"smartcast/internal/project"
	"smartcast/internal/unit"
)

// runConfig merges smartcast.toml with command-line flags. Flags win when
// they were set explicitly.
type runConfig struct {
	manifest       *project.Manifest // nil outside a project
	markers        unit.MarkerNames
	maxDiagnostics int
	jobs           int
}

func loadRunConfig(cmd *cobra.Command, startDir string) (runConfig, error) {
	var cfg runConfig
	m, ok, err := project.Load(startDir)
	if err != nil {
		return cfg, fmt.Errorf("failed to load %s: %w", project.ManifestName, err)
	}
	if ok {
		cfg.manifest = m
		cfg.markers = m.Config.Markers.Names()
		cfg.maxDiagnostics = m.Config.Check.MaxDiagnostics
		cfg.jobs = m.Config.Check.Jobs
	}

	maxFlag := cmd.Root().PersistentFlags().Lookup("max-diagnostics")
	if maxFlag != nil && (maxFlag.Changed || !ok) {
		if cfg.maxDiagnostics, err = cmd.Root().PersistentFlags().GetInt("max-diagnostics"); err != nil {
			return cfg, fmt.Errorf("failed to get max-diagnostics flag: %w", err)
		}
	}

	for _, f := range []struct {
		name string
		dst  *[]string
	}{
		{"marker", &cfg.markers.Annotations},
		{"required", &cfg.markers.RequiredSupertypes},
		{"deprecated", &cfg.markers.DeprecatedSupertypes},
	} {
		if fl := cmd.Flags().Lookup(f.name); fl == nil || !fl.Changed {
			continue
		}
		v, err := cmd.Flags().GetStringSlice(f.name)
		if err != nil {
			return cfg, fmt.Errorf("failed to get %s flag: %w", f.name, err)
		}
		*f.dst = v
	}
	return cfg, nil
}

// configStart picks where the manifest search begins: the target unit or
// directory when one is given, the working directory otherwise.
func configStart(target, wd string) string {
	if target == "" {
		return wd
	}
	if filepath.IsAbs(target) {
		return target
	}
	return filepath.Join(wd, target)
}

// resolveUnits expands target into unit description paths. An empty target
// means the units directory of the enclosing project.
func resolveUnits(target string, cfg runConfig) ([]string, error) {
	if target == "" {
		if cfg.manifest == nil {
			return nil, fmt.Errorf("no unit given and no %s found", project.ManifestName)
		}
		target = cfg.manifest.UnitsDir()
	}
	st, err := os.Stat(target)
	if err != nil {
		return nil, err
	}
	if st.IsDir() {
		units, err := project.ListUnits(target)
		if err != nil {
			return nil, fmt.Errorf("failed to list units in %s: %w", target, err)
		}
		if len(units) == 0 {
			return nil, fmt.Errorf("no unit descriptions in %s", target)
		}
		return units, nil
	}
	if !unit.IsUnitFile(target) {
		return nil, fmt.Errorf("%s is not a unit description (.toml, .yaml, .yml or .msgpack)", target)
	}
	return []string{target}, nil
}
