package manifest

import (
	"fmt"
	"io/fs"
	"path/filepath"

	"github.com/jakoblorz/go-nodedist/internal/filesystem"
)

// FindRoot returns the nearest directory at or above startDir that holds a
// package.json, the way npm locates the package it runs scripts for.
func FindRoot(fsys filesystem.FileSystem, startDir string) (string, error) {
	dir := filepath.Clean(startDir)

	for {
		if fsys.Exists(filepath.Join(dir, FileName)) {
			return dir, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", fmt.Errorf("no %s found at or above %s: %w", FileName, startDir, fs.ErrNotExist)
		}
		dir = parent
	}
}
