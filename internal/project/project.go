// Package project drives the link, compile and publish pipelines for one
// Node package rooted at a directory.
package project

import (
	"context"
	"fmt"
	"sync"

	"github.com/jakoblorz/go-nodedist/internal/adapter"
	"github.com/jakoblorz/go-nodedist/internal/compiler"
	"github.com/jakoblorz/go-nodedist/internal/config"
	"github.com/jakoblorz/go-nodedist/internal/directory"
	"github.com/jakoblorz/go-nodedist/internal/manifest"
	"github.com/jakoblorz/go-nodedist/internal/npm"
	"github.com/jakoblorz/go-nodedist/internal/shell"
)

// NodeModules is the dependency directory links and adapters are written to
const NodeModules = "node_modules"

// Project coordinates the pipelines for the package at Dir.
//
// The manifest is read once per Project and cached; edits made to package.json
// after the first read are not observed.
type Project struct {
	dir       *directory.Directory
	cfg       *config.Config
	runner    shell.Runner
	installer npm.Installer
	compiler  compiler.Compiler
	adapters  *adapter.Generator

	mu       sync.Mutex
	manifest *manifest.Manifest
}

// Option configures a Project
type Option func(*Project)

// WithConfig replaces the default configuration
func WithConfig(cfg *config.Config) Option {
	return func(p *Project) {
		p.cfg = cfg
	}
}

// WithRunner sets the shell runner used by the default installer and compiler
func WithRunner(runner shell.Runner) Option {
	return func(p *Project) {
		p.runner = runner
	}
}

// WithInstaller replaces the npm CLI installer
func WithInstaller(installer npm.Installer) Option {
	return func(p *Project) {
		p.installer = installer
	}
}

// WithCompiler replaces the babel CLI compiler
func WithCompiler(c compiler.Compiler) Option {
	return func(p *Project) {
		p.compiler = c
	}
}

// WithGenerator replaces the adapter generator
func WithGenerator(g *adapter.Generator) Option {
	return func(p *Project) {
		p.adapters = g
	}
}

// New creates a Project for dir. Collaborators not set through options are
// built from the configuration.
func New(dir *directory.Directory, options ...Option) *Project {
	p := &Project{dir: dir}

	for _, option := range options {
		option(p)
	}

	if p.cfg == nil {
		p.cfg = config.Default()
	}
	if p.runner == nil {
		p.runner = shell.NewOSRunner()
	}
	if p.installer == nil {
		p.installer = npm.NewShellInstaller(p.runner, p.cfg.Installer.Command)
	}
	if p.compiler == nil {
		p.compiler = compiler.NewBabel(p.runner, compiler.Options{
			Command: p.cfg.Compiler.Command,
			Presets: p.cfg.Compiler.Presets,
			Plugins: p.cfg.Compiler.Plugins,
		})
	}
	if p.adapters == nil {
		p.adapters = adapter.NewGenerator(adapter.Options{
			Register: p.cfg.Transform.Register,
			Core:     p.cfg.Transform.Core,
			Presets:  p.cfg.Compiler.Presets,
			Plugins:  p.cfg.Compiler.Plugins,
		})
	}

	return p
}

// Dir returns the project root
func (p *Project) Dir() *directory.Directory {
	return p.dir
}

// Config returns the effective configuration
func (p *Project) Config() *config.Config {
	return p.cfg
}

// ReadManifest returns the project's package.json, reading it on first use
func (p *Project) ReadManifest() (*manifest.Manifest, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.manifest != nil {
		return p.manifest, nil
	}

	m, err := manifest.Read(p.dir.FileSystem(), p.dir.Path())
	if err != nil {
		return nil, fmt.Errorf("failed to read project manifest: %w", err)
	}
	p.manifest = m
	return m, nil
}

// RuntimeDependency returns the runtime-support package compiled output is pinned to.
// Without a configured version the compiler's own version is used.
func (p *Project) RuntimeDependency(ctx context.Context) (manifest.RuntimeDependency, error) {
	version := p.cfg.Runtime.Version
	if version == "" {
		v, err := p.compiler.Version(ctx, p.dir.Path())
		if err != nil {
			return manifest.RuntimeDependency{}, err
		}
		version = v
	}
	return manifest.RuntimeDependency{Name: p.cfg.Runtime.Package, Version: version}, nil
}
