package compiler

import (
	"context"
	"io/fs"
	"path/filepath"
	"strings"
	"sync"

	"github.com/jakoblorz/go-nodedist/internal/filesystem"
)

// MockCompiler implements Compiler for testing. Transform copies .js files
// verbatim (every file when CopyFiles is set).
type MockCompiler struct {
	mu      sync.Mutex
	fs      filesystem.FileSystem
	version string
	err     error
	calls   []Request
}

func NewMockCompiler(fs filesystem.FileSystem) *MockCompiler {
	return &MockCompiler{fs: fs, version: "6.26.0"}
}

// SetVersion sets the version reported by Version
func (m *MockCompiler) SetVersion(version string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.version = version
}

// Fail makes Transform return err
func (m *MockCompiler) Fail(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

func (m *MockCompiler) Transform(ctx context.Context, req Request) (string, error) {
	m.mu.Lock()
	m.calls = append(m.calls, req)
	err := m.err
	m.mu.Unlock()

	if err != nil {
		return "", err
	}

	walkErr := m.fs.WalkDir(req.SourceDir, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(req.SourceDir, path)
		if err != nil {
			return err
		}
		target := filepath.Join(req.OutDir, rel)

		if entry.IsDir() {
			return m.fs.MkdirAll(target, 0755)
		}
		if !req.CopyFiles && !strings.HasSuffix(path, ".js") {
			return nil
		}
		data, err := m.fs.ReadFile(path)
		if err != nil {
			return err
		}
		return m.fs.WriteFile(target, data, 0644)
	})
	if walkErr != nil {
		return "", walkErr
	}
	return "", nil
}

func (m *MockCompiler) Version(ctx context.Context, workDir string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.version, nil
}

// Calls returns the recorded Transform requests
func (m *MockCompiler) Calls() []Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Request(nil), m.calls...)
}
