package compiler

import (
	"context"
	"fmt"
	"strings"

	"github.com/Masterminds/semver/v3"
	"github.com/jakoblorz/go-nodedist/internal/logging"
	"github.com/jakoblorz/go-nodedist/internal/shell"
)

// DefaultCommand is the transformer executable
const DefaultCommand = "babel"

// Options configure the babel command line
type Options struct {
	Command string
	Presets []string
	Plugins []string
}

// Babel implements Compiler with the babel CLI
type Babel struct {
	runner shell.Runner
	opts   Options
}

// NewBabel creates a Babel compiler; an empty command means babel
func NewBabel(runner shell.Runner, opts Options) *Babel {
	if strings.TrimSpace(opts.Command) == "" {
		opts.Command = DefaultCommand
	}
	return &Babel{runner: runner, opts: opts}
}

// CommandLine returns the shell command Transform runs for req
func (b *Babel) CommandLine(req Request) (string, error) {
	words := []string{req.SourceDir, "--out-dir", req.OutDir}
	if req.CopyFiles {
		words = append(words, "--copy-files")
	}
	if len(b.opts.Presets) > 0 {
		words = append(words, "--presets", strings.Join(b.opts.Presets, ","))
	}
	if len(b.opts.Plugins) > 0 {
		words = append(words, "--plugins", strings.Join(b.opts.Plugins, ","))
	}

	args, err := shell.Join(words...)
	if err != nil {
		return "", err
	}
	return b.opts.Command + " " + args, nil
}

func (b *Babel) Transform(ctx context.Context, req Request) (string, error) {
	logger := logging.GetLogger("compiler")
	done := logging.LogOperationStart(logger, "transform")
	defer done()

	command, err := b.CommandLine(req)
	if err != nil {
		return "", err
	}
	output, err := b.runner.Run(ctx, req.WorkDir, command)
	if err != nil {
		return "", fmt.Errorf("failed to compile %s: %w", req.SourceDir, err)
	}
	return output, nil
}

// Version parses the first word of `babel --version`, e.g. "6.26.0 (babel-core 6.26.3)"
func (b *Babel) Version(ctx context.Context, workDir string) (string, error) {
	output, err := b.runner.Run(ctx, workDir, b.opts.Command+" --version")
	if err != nil {
		return "", fmt.Errorf("failed to get compiler version: %w", err)
	}
	return ParseVersion(output)
}

// ParseVersion extracts a semantic version from version command output
func ParseVersion(output string) (string, error) {
	fields := strings.Fields(output)
	if len(fields) == 0 {
		return "", fmt.Errorf("empty compiler version output")
	}
	v, err := semver.NewVersion(strings.TrimPrefix(fields[0], "v"))
	if err != nil {
		return "", fmt.Errorf("invalid compiler version %q: %w", fields[0], err)
	}
	return v.String(), nil
}
