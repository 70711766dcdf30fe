// Package directory provides a handle bound to an existing directory on disk.
//
// Every relative name passed to a Directory resolves against the directory's
// own path. Mutating operations touch the filesystem immediately; there is no
// staging. Writes and symlinks replace whatever occupies the target name, be it
// a file, a symlink or a whole directory tree.
package directory

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/jakoblorz/go-nodedist/internal/filesystem"
	"github.com/jakoblorz/go-nodedist/internal/shell"
	gonanoid "github.com/matoous/go-nanoid/v2"
)

// ErrNotFound is returned when a Directory is constructed for a missing path
var ErrNotFound = errors.New("directory not found")

const tempAlphabet = "0123456789abcdefghijklmnopqrstuvwxyz"

// Directory is a handle to an existing directory
type Directory struct {
	fs     filesystem.FileSystem
	runner shell.Runner
	path   string
}

// New resolves segments to an absolute path and verifies that a directory exists there.
// Relative paths resolve against the filesystem's working directory; no segments means
// the working directory itself.
func New(fs filesystem.FileSystem, segments ...string) (*Directory, error) {
	path, err := absPath(fs, filepath.Join(segments...))
	if err != nil {
		return nil, err
	}

	info, err := fs.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrNotFound, path, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s is not a directory", ErrNotFound, path)
	}

	return &Directory{
		fs:     fs,
		runner: shell.NewOSRunner(),
		path:   path,
	}, nil
}

// WithRunner returns a copy of the handle that executes commands with runner.
// Child handles inherit it.
func (d *Directory) WithRunner(runner shell.Runner) *Directory {
	return &Directory{fs: d.fs, runner: runner, path: d.path}
}

// Path returns the absolute path of the directory
func (d *Directory) Path() string {
	return d.path
}

// FileSystem returns the filesystem the handle operates on
func (d *Directory) FileSystem() filesystem.FileSystem {
	return d.fs
}

// Join resolves a child name against the directory. Absolute names are returned cleaned.
func (d *Directory) Join(parts ...string) string {
	joined := filepath.Join(parts...)
	if filepath.IsAbs(joined) {
		return filepath.Clean(joined)
	}
	return filepath.Join(append([]string{d.path}, parts...)...)
}

// Exists reports whether anything occupies the child name
func (d *Directory) Exists(name string) bool {
	return d.fs.Exists(d.Join(name))
}

// Child returns a handle for an existing child directory
func (d *Directory) Child(name string) (*Directory, error) {
	child, err := New(d.fs, d.Join(name))
	if err != nil {
		return nil, err
	}
	child.runner = d.runner
	return child, nil
}

// CreateChildDirectory creates the child directory if it is missing and returns a handle to it.
// An already existing child is not an error.
func (d *Directory) CreateChildDirectory(name string) (*Directory, error) {
	if err := d.fs.MkdirAll(d.Join(name), 0755); err != nil && !errors.Is(err, fs.ErrExist) {
		return nil, fmt.Errorf("failed to create directory %s: %w", d.Join(name), err)
	}
	return d.Child(name)
}

// ReadText returns the contents of a child file as a string
func (d *Directory) ReadText(name string) (string, error) {
	data, err := d.fs.ReadFile(d.Join(name))
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", d.Join(name), err)
	}
	return string(data), nil
}

// ReadJSON decodes a child file into v
func (d *Directory) ReadJSON(name string, v any) error {
	data, err := d.fs.ReadFile(d.Join(name))
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", d.Join(name), err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("failed to parse %s: %w", d.Join(name), err)
	}
	return nil
}

// ReadFile returns the decoded value for .json files and the text for anything else
func (d *Directory) ReadFile(name string) (any, error) {
	if !isStructured(name) {
		return d.ReadText(name)
	}
	var value any
	if err := d.ReadJSON(name, &value); err != nil {
		return nil, err
	}
	return value, nil
}

// WriteFile replaces whatever occupies name with a regular file.
// For .json names any non-text value is encoded as indented JSON.
func (d *Directory) WriteFile(name string, contents any) error {
	data, err := encode(name, contents)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", d.Join(name), err)
	}
	return d.replace(name, func(tmp string) error {
		return d.fs.WriteFile(tmp, data, 0644)
	})
}

// WriteJSON writes v as indented JSON whatever the name's extension
func (d *Directory) WriteJSON(name string, v any) error {
	data, err := encodeJSON(v)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", d.Join(name), err)
	}
	return d.replace(name, func(tmp string) error {
		return d.fs.WriteFile(tmp, data, 0644)
	})
}

// CreateSymlink replaces whatever occupies name with a symlink to target.
// Relative targets are resolved against the working directory first.
func (d *Directory) CreateSymlink(target, name string) error {
	absTarget, err := absPath(d.fs, target)
	if err != nil {
		return err
	}
	return d.replace(name, func(tmp string) error {
		return d.fs.Symlink(absTarget, tmp)
	})
}

// replace creates the new entry under a temporary sibling name, removes the old
// entry and renames the new one into place.
func (d *Directory) replace(name string, create func(tmp string) error) error {
	target := d.Join(name)
	if err := d.fs.MkdirAll(filepath.Dir(target), 0755); err != nil {
		return fmt.Errorf("failed to create parent of %s: %w", target, err)
	}

	id, err := gonanoid.Generate(tempAlphabet, 8)
	if err != nil {
		return fmt.Errorf("failed to generate temporary name: %w", err)
	}
	tmp := filepath.Join(filepath.Dir(target), fmt.Sprintf(".%s.%s.tmp", filepath.Base(target), id))

	if err := create(tmp); err != nil {
		return fmt.Errorf("failed to create %s: %w", target, err)
	}
	if err := d.fs.RemoveAll(target); err != nil {
		_ = d.fs.RemoveAll(tmp)
		return fmt.Errorf("failed to remove existing %s: %w", target, err)
	}
	if err := d.fs.Rename(tmp, target); err != nil {
		_ = d.fs.RemoveAll(tmp)
		return fmt.Errorf("failed to move %s into place: %w", target, err)
	}
	return nil
}

// SetExecutable marks a child file as executable (0755)
func (d *Directory) SetExecutable(name string) error {
	if err := d.fs.Chmod(d.Join(name), 0755); err != nil {
		return fmt.Errorf("failed to chmod %s: %w", d.Join(name), err)
	}
	return nil
}

// List returns the names of the immediate children, sorted
func (d *Directory) List() ([]string, error) {
	entries, err := d.fs.ReadDir(d.path)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", d.path, err)
	}
	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		names = append(names, entry.Name())
	}
	return names, nil
}

// Remove deletes the named children recursively, or the directory itself when no
// name is given. Missing entries are ignored.
func (d *Directory) Remove(names ...string) error {
	if len(names) == 0 {
		names = []string{d.path}
	}
	for _, name := range names {
		if err := d.fs.RemoveAll(d.Join(name)); err != nil {
			return fmt.Errorf("failed to remove %s: %w", d.Join(name), err)
		}
	}
	return nil
}

// RunShellCommand runs command with the directory as working directory
func (d *Directory) RunShellCommand(ctx context.Context, command string) (string, error) {
	return d.runner.Run(ctx, d.path, command)
}

// RunScriptInline evaluates a Node snippet with the directory as working directory
func (d *Directory) RunScriptInline(ctx context.Context, code string) (string, error) {
	command, err := shell.Join("node", "-e", code)
	if err != nil {
		return "", err
	}
	return d.RunShellCommand(ctx, command)
}

func absPath(fs filesystem.FileSystem, path string) (string, error) {
	if filepath.IsAbs(path) {
		return filepath.Clean(path), nil
	}
	cwd, err := fs.Getwd()
	if err != nil {
		return "", fmt.Errorf("failed to get working directory: %w", err)
	}
	return filepath.Join(cwd, path), nil
}

func isStructured(name string) bool {
	return strings.EqualFold(filepath.Ext(name), ".json")
}

func encode(name string, contents any) ([]byte, error) {
	switch v := contents.(type) {
	case nil:
		if isStructured(name) {
			break
		}
		return []byte{}, nil
	case string:
		return []byte(v), nil
	case []byte:
		return v, nil
	}

	if !isStructured(name) {
		return []byte(fmt.Sprint(contents)), nil
	}

	return encodeJSON(contents)
}

func encodeJSON(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
