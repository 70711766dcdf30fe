package project

import (
	"context"
	"fmt"
	"path"
	"strings"

	"github.com/jakoblorz/go-nodedist/internal/adapter"
	"github.com/jakoblorz/go-nodedist/internal/compiler"
	"github.com/jakoblorz/go-nodedist/internal/directory"
	"github.com/jakoblorz/go-nodedist/internal/logging"
	"github.com/jakoblorz/go-nodedist/internal/manifest"
	"golang.org/x/sync/errgroup"
)

// Compile rebuilds the distribution directory from scratch:
//
//  1. remove and recreate dist
//  2. write the production manifest
//  3. copy whitelisted entries that live outside src
//  4. compile src into dist, copying non-code files
//  5. give every production executable a shebang and mode 0755
//
// Steps 2 to 4 run concurrently. Any failure aborts the compile; running it
// again is always safe because step 1 starts from an empty directory.
func (p *Project) Compile(ctx context.Context) (*directory.Directory, error) {
	logger := logging.GetLogger("project")
	done := logging.LogOperationStart(logger, "compile")
	defer done()

	m, err := p.ReadManifest()
	if err != nil {
		return nil, err
	}

	runtime, err := p.RuntimeDependency(ctx)
	if err != nil {
		return nil, err
	}
	prod, err := m.MoveTo(p.cfg.Src).ToProduction().WithRuntimeDependency(runtime)
	if err != nil {
		return nil, err
	}

	if err := checkExecutables(prod); err != nil {
		return nil, err
	}

	src, err := p.dir.Child(p.cfg.Src)
	if err != nil {
		return nil, fmt.Errorf("failed to open source directory: %w", err)
	}

	if err := p.dir.Remove(p.cfg.Dist); err != nil {
		return nil, err
	}
	dist, err := p.dir.CreateChildDirectory(p.cfg.Dist)
	if err != nil {
		return nil, err
	}
	logger.Debug().Str("dist", dist.Path()).Msg("Cleared distribution directory")

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := dist.WriteFile(manifest.FileName, prod); err != nil {
			return fmt.Errorf("failed to write production manifest: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		return p.copyWhitelist(m, dist)
	})
	g.Go(func() error {
		output, err := p.compiler.Transform(gctx, compiler.Request{
			WorkDir:   p.dir.Path(),
			SourceDir: src.Path(),
			OutDir:    dist.Path(),
			CopyFiles: true,
		})
		if err != nil {
			return err
		}
		logger.Debug().Str("output", output).Msg("Compiler finished")
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if err := p.patchExecutables(ctx, prod, dist); err != nil {
		return nil, err
	}

	return dist, nil
}

// checkExecutables rejects production bin paths that point outside dist
func checkExecutables(prod *manifest.Manifest) error {
	for _, name := range prod.Bins() {
		binPath, _ := prod.Bin(name)
		clean := path.Clean(binPath)
		if binPath == "" || path.IsAbs(clean) || clean == ".." || strings.HasPrefix(clean, "../") {
			return fmt.Errorf("executable %s (%s) is not inside the source directory", name, binPath)
		}
	}
	return nil
}

func (p *Project) patchExecutables(ctx context.Context, prod *manifest.Manifest, dist *directory.Directory) error {
	g, _ := errgroup.WithContext(ctx)
	for _, name := range prod.Bins() {
		binPath, _ := prod.Bin(name)
		g.Go(func() error {
			if binPath == "" || !dist.Exists(binPath) {
				return fmt.Errorf("executable %s (%s) was not produced in %s", name, binPath, dist.Path())
			}
			content, err := dist.ReadText(binPath)
			if err != nil {
				return err
			}
			if patched := adapter.EnsureShebang([]byte(content)); len(patched) != len(content) {
				if err := dist.WriteFile(binPath, patched); err != nil {
					return err
				}
			}
			return dist.SetExecutable(binPath)
		})
	}
	return g.Wait()
}

// Publish compiles the project and publishes the distribution directory.
// It returns the installer's output.
func (p *Project) Publish(ctx context.Context) (string, error) {
	dist, err := p.Compile(ctx)
	if err != nil {
		return "", err
	}
	return p.installer.Publish(ctx, dist.Path())
}
