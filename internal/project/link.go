package project

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"

	"github.com/jakoblorz/go-nodedist/internal/adapter"
	"github.com/jakoblorz/go-nodedist/internal/directory"
	"github.com/jakoblorz/go-nodedist/internal/logging"
	"github.com/jakoblorz/go-nodedist/internal/manifest"
	"github.com/jakoblorz/go-nodedist/internal/npm"
	"golang.org/x/sync/errgroup"
)

// LinkResult describes one linked package
type LinkResult struct {
	Name        string
	Target      string
	Executables []string
	Installed   []string
}

// LinkAll links the project into its own node_modules and then every
// linkDependencies entry, in name order. Relative paths resolve against the
// project root.
func (p *Project) LinkAll(ctx context.Context) ([]LinkResult, error) {
	m, err := p.ReadManifest()
	if err != nil {
		return nil, err
	}

	self, err := p.LinkPackage(ctx, p.dir.Path(), "")
	if err != nil {
		return nil, err
	}
	results := []LinkResult{*self}

	links := m.LinkDependencies()
	names := make([]string, 0, len(links))
	for name := range links {
		names = append(names, name)
	}
	sort.Strings(names)

	logger := logging.GetLogger("project")
	for _, name := range names {
		result, err := p.LinkPackage(ctx, p.dir.Join(links[name]), "")
		if err != nil {
			return nil, fmt.Errorf("failed to link %s: %w", name, err)
		}
		if result.Name != name {
			logger.Warn().
				Str("key", name).
				Str("package", result.Name).
				Msg("linkDependencies key differs from the package name, linked under the package name")
		}
		results = append(results, *result)
	}

	return results, nil
}

// LinkPackage symlinks node_modules/<name> to packagePath/sourceRoot and writes
// adapters for the package's executables into node_modules/.bin. For packages
// other than the project itself, missing dependencies are installed into the
// package when the link.installDependencies policy is on.
func (p *Project) LinkPackage(ctx context.Context, packagePath, sourceRoot string) (*LinkResult, error) {
	logger := logging.GetLogger("project")

	pkgDir, err := directory.New(p.dir.FileSystem(), p.dir.Join(packagePath))
	if err != nil {
		return nil, err
	}

	isSelf := pkgDir.Path() == p.dir.Path()
	var m *manifest.Manifest
	if isSelf {
		m, err = p.ReadManifest()
	} else {
		m, err = manifest.Read(pkgDir.FileSystem(), pkgDir.Path())
	}
	if err != nil {
		return nil, err
	}

	nodeModules, err := p.dir.CreateChildDirectory(NodeModules)
	if err != nil {
		return nil, err
	}

	target := pkgDir.Join(sourceRoot)
	if err := nodeModules.CreateSymlink(target, filepath.FromSlash(m.Name())); err != nil {
		return nil, fmt.Errorf("failed to link %s: %w", m.Name(), err)
	}
	logger.Debug().Str("package", m.Name()).Str("target", target).Msg("Linked package")

	executables, err := p.writeAdapters(ctx, m, pkgDir.Path(), sourceRoot)
	if err != nil {
		return nil, err
	}

	result := &LinkResult{Name: m.Name(), Target: target, Executables: executables}

	if !isSelf && p.cfg.Link.InstallDependencies {
		missing := npm.MissingDependencies(pkgDir.FileSystem(), pkgDir.Path(), m.Dependencies())
		if len(missing) > 0 {
			if _, err := p.installer.Install(ctx, pkgDir.Path(), missing...); err != nil {
				return nil, err
			}
			result.Installed = missing
		}
	}

	return result, nil
}

// LinkExecutables writes adapters for the project's own executables
func (p *Project) LinkExecutables(ctx context.Context) ([]string, error) {
	m, err := p.ReadManifest()
	if err != nil {
		return nil, err
	}
	return p.writeAdapters(ctx, m, p.dir.Path(), "")
}

// writeAdapters renders one adapter per bin entry of m. The registry maps the
// package name to packageRoot/sourceRoot so the executables can require their
// own package by name.
func (p *Project) writeAdapters(ctx context.Context, m *manifest.Manifest, packageRoot, sourceRoot string) ([]string, error) {
	bins := m.Bins()
	if len(bins) == 0 {
		return nil, nil
	}

	moved := m.MoveTo(sourceRoot)
	root := filepath.Join(packageRoot, sourceRoot)
	registry := selfRegistry(moved, root)

	binDir, err := p.dir.CreateChildDirectory(filepath.Join(NodeModules, ".bin"))
	if err != nil {
		return nil, err
	}

	logger := logging.GetLogger("project")
	logger.Debug().Strs("bins", bins).Strs("overrides", registry.Names()).Msg("Writing adapters")
	g, _ := errgroup.WithContext(ctx)
	for _, name := range bins {
		binPath, _ := moved.Bin(name)
		target := filepath.Join(root, filepath.FromSlash(binPath))

		g.Go(func() error {
			selfManaged := false
			if content, err := p.dir.FileSystem().ReadFile(target); err == nil {
				selfManaged = adapter.HasShebang(content)
			} else {
				logger.Debug().Str("bin", name).Str("target", target).Msg("Executable not readable, using transform hook")
			}

			script, err := p.adapters.Generate(adapter.Input{
				Registry:    registry,
				Target:      target,
				SelfManaged: selfManaged,
			})
			if err != nil {
				return err
			}
			if err := binDir.WriteFile(name, script); err != nil {
				return err
			}
			return binDir.SetExecutable(name)
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("failed to write executables for %s: %w", m.Name(), err)
	}

	return bins, nil
}

// selfRegistry lets code below root require its own package by name
func selfRegistry(m *manifest.Manifest, root string) *adapter.Registry {
	main, _ := m.Main()
	registry := adapter.NewRegistry()
	registry.Register(m.Name(), adapter.Entry{Root: root, Main: main})
	return registry
}
