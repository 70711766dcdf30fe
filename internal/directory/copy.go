package directory

import (
	"fmt"
	"io/fs"
	"path/filepath"

	"github.com/jakoblorz/go-nodedist/internal/logging"
)

// SkipFunc decides whether an entry below the copy source is left out.
// rel is slash separated and relative to the source root.
type SkipFunc func(rel string, isDir bool) bool

// Copy copies a file or a directory tree to name, replacing whatever occupies it
func (d *Directory) Copy(source, name string) error {
	return d.CopyFiltered(source, name, nil)
}

// CopyFiltered copies like Copy but leaves out every entry skip reports.
// Skipping a directory skips its whole subtree. Symlinked directories inside
// the tree are not followed.
func (d *Directory) CopyFiltered(source, name string, skip SkipFunc) error {
	src, err := absPath(d.fs, source)
	if err != nil {
		return err
	}
	dst := d.Join(name)

	info, err := d.fs.Stat(src)
	if err != nil {
		return fmt.Errorf("failed to stat %s: %w", src, err)
	}

	if !info.IsDir() {
		data, err := d.fs.ReadFile(src)
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", src, err)
		}
		if err := d.replace(name, func(tmp string) error {
			return d.fs.WriteFile(tmp, data, info.Mode().Perm())
		}); err != nil {
			return err
		}
		return d.fs.Chmod(dst, info.Mode().Perm())
	}

	if err := d.fs.RemoveAll(dst); err != nil {
		return fmt.Errorf("failed to remove existing %s: %w", dst, err)
	}

	logger := logging.GetLogger("directory")
	copied := 0
	err = d.fs.WalkDir(src, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		target := filepath.Join(dst, rel)

		if rel != "." && skip != nil && skip(filepath.ToSlash(rel), entry.IsDir()) {
			if entry.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		if entry.IsDir() {
			return d.fs.MkdirAll(target, 0755)
		}

		info, err := d.fs.Stat(path)
		if err != nil {
			return err
		}
		if info.IsDir() {
			logger.Debug().Str("path", path).Msg("Skipping symlinked directory")
			return nil
		}

		data, err := d.fs.ReadFile(path)
		if err != nil {
			return err
		}
		if err := d.fs.WriteFile(target, data, info.Mode().Perm()); err != nil {
			return err
		}
		copied++
		return d.fs.Chmod(target, info.Mode().Perm())
	})
	if err != nil {
		return fmt.Errorf("failed to copy %s to %s: %w", src, dst, err)
	}

	logger.Debug().Str("source", src).Str("destination", dst).Int("files", copied).Msg("Copied tree")
	return nil
}
