package project

import (
	"fmt"
	"os"
	"path/filepath"
)

// ManifestName is the file that marks a shader project root.
const ManifestName = "shadersmith.toml"

// FindManifest returns the nearest shadersmith.toml in startDir or one of
// its ancestors. ok is false when the walk reaches the filesystem root
// without finding one; a directory with the manifest's name is skipped.
func FindManifest(startDir string) (path string, ok bool, err error) {
	if startDir == "" {
		startDir = "."
	}
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", false, fmt.Errorf("resolve %q: %w", startDir, err)
	}
	for prev := ""; dir != prev; prev, dir = dir, filepath.Dir(dir) {
		candidate := filepath.Join(dir, ManifestName)
		info, err := os.Stat(candidate)
		switch {
		case err == nil && !info.IsDir():
			return candidate, true, nil
		case err != nil && !os.IsNotExist(err):
			return "", false, fmt.Errorf("stat %q: %w", candidate, err)
		}
	}
	return "", false, nil
}
