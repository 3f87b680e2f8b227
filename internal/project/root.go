package project

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// ManifestName is the file that marks a project root.
const ManifestName = "smartcast.toml"

// FindManifest looks for smartcast.toml in from and its parents. from may
// be a unit description; the search then starts in the unit's directory so
// a unit picks up the markers of the project it lives in, not of the
// working directory.
func FindManifest(from string) (path string, ok bool, err error) {
	dir, err := searchStart(from)
	if err != nil {
		return "", false, err
	}
	for {
		candidate := filepath.Join(dir, ManifestName)
		st, err := os.Stat(candidate)
		switch {
		case err == nil && !st.IsDir():
			return candidate, true, nil
		case err != nil && !errors.Is(err, os.ErrNotExist):
			return "", false, fmt.Errorf("failed to stat %q: %w", candidate, err)
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", false, nil
		}
		dir = parent
	}
}

func searchStart(from string) (string, error) {
	if from == "" {
		from = "."
	}
	abs, err := filepath.Abs(from)
	if err != nil {
		return "", fmt.Errorf("failed to resolve %q: %w", from, err)
	}
	st, err := os.Stat(abs)
	switch {
	case err == nil && st.IsDir():
		return abs, nil
	case err == nil, errors.Is(err, os.ErrNotExist):
		// unit file, or a target that resolveUnits will reject later
		return filepath.Dir(abs), nil
	default:
		return "", fmt.Errorf("failed to stat %q: %w", abs, err)
	}
}
