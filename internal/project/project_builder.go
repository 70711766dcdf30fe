package project

import (
	"path/filepath"

	"github.com/jakoblorz/go-nodedist/internal/filesystem"
)

// ProjectBuilder helps create test projects on a mock filesystem
type ProjectBuilder struct {
	fs   *filesystem.MockFileSystem
	root string
}

// NewProjectBuilder creates a builder for a project rooted at root, which
// also becomes the working directory.
func NewProjectBuilder(root string) *ProjectBuilder {
	fs := filesystem.NewMockFileSystem()
	fs.AddDir(root)
	fs.SetCurrentDir(root)

	return &ProjectBuilder{
		fs:   fs,
		root: root,
	}
}

// WithManifest writes the project's package.json
func (pb *ProjectBuilder) WithManifest(doc string) *ProjectBuilder {
	pb.fs.AddFile(filepath.Join(pb.root, "package.json"), []byte(doc))
	return pb
}

// AddFile adds a file relative to the project root
func (pb *ProjectBuilder) AddFile(rel, content string) *ProjectBuilder {
	pb.fs.AddFile(filepath.Join(pb.root, rel), []byte(content))
	return pb
}

// AddPackage adds another package with its package.json at an absolute path
func (pb *ProjectBuilder) AddPackage(path, doc string) *ProjectBuilder {
	pb.fs.AddFile(filepath.Join(path, "package.json"), []byte(doc))
	return pb
}

// AddPackageFile adds a file below another package
func (pb *ProjectBuilder) AddPackageFile(path, rel, content string) *ProjectBuilder {
	pb.fs.AddFile(filepath.Join(path, rel), []byte(content))
	return pb
}

// Build returns the mock filesystem
func (pb *ProjectBuilder) Build() *filesystem.MockFileSystem {
	return pb.fs
}
