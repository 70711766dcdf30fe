package project

import (
	"context"
	"fmt"
	"strings"

	"github.com/jakoblorz/go-nodedist/internal/adapter"
	"github.com/jakoblorz/go-nodedist/internal/logging"
)

// RunFile executes a source file through the transform hook with the project
// registered under its own name, and returns the trimmed stdout.
// Relative paths resolve against the project root.
func (p *Project) RunFile(ctx context.Context, file string) (string, error) {
	logger := logging.GetLogger("project")

	m, err := p.ReadManifest()
	if err != nil {
		return "", err
	}

	target := p.dir.Join(file)
	content, err := p.dir.FileSystem().ReadFile(target)
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", target, err)
	}

	registry := selfRegistry(m, p.dir.Path())
	script, err := p.adapters.Generate(adapter.Input{
		Registry:    registry,
		Target:      target,
		SelfManaged: adapter.HasShebang(content),
	})
	if err != nil {
		return "", err
	}

	logger.Debug().Str("file", target).Strs("overrides", registry.Names()).Msg("Running file through transform hook")
	return p.dir.WithRunner(p.runner).RunScriptInline(ctx, strings.TrimPrefix(script, adapter.Shebang+"\n"))
}

// RunSource compiles code with the transform hook's compiler and evaluates it
// from the project root, as RunFile does for a file. Code read from stdin
// goes through here.
func (p *Project) RunSource(ctx context.Context, code string) (string, error) {
	logger := logging.GetLogger("project")

	if strings.TrimSpace(code) == "" {
		return "", fmt.Errorf("no source code to run")
	}

	m, err := p.ReadManifest()
	if err != nil {
		return "", err
	}

	registry := selfRegistry(m, p.dir.Path())
	script, err := p.adapters.Generate(adapter.Input{
		Registry: registry,
		Source:   code,
		Filename: p.dir.Join(adapter.DefaultFilename),
	})
	if err != nil {
		return "", err
	}

	logger.Debug().Int("bytes", len(code)).Strs("overrides", registry.Names()).Msg("Running inline source through transform hook")
	return p.dir.WithRunner(p.runner).RunScriptInline(ctx, strings.TrimPrefix(script, adapter.Shebang+"\n"))
}
