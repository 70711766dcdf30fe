package npm

import (
	"context"
	"fmt"
	"strings"

	"github.com/jakoblorz/go-nodedist/internal/logging"
	"github.com/jakoblorz/go-nodedist/internal/shell"
)

// DefaultCommand is the registry client executable
const DefaultCommand = "npm"

// ShellInstaller implements Installer by running the npm CLI
type ShellInstaller struct {
	runner  shell.Runner
	command string
}

// NewShellInstaller creates an installer; an empty command means npm
func NewShellInstaller(runner shell.Runner, command string) *ShellInstaller {
	if strings.TrimSpace(command) == "" {
		command = DefaultCommand
	}
	return &ShellInstaller{runner: runner, command: command}
}

func (i *ShellInstaller) Install(ctx context.Context, dir string, specs ...string) (string, error) {
	logger := logging.GetLogger("npm")
	logger.Info().Str("dir", dir).Strs("packages", specs).Msg("Installing dependencies")

	command := i.command + " install"
	if len(specs) > 0 {
		quoted, err := shell.Join(specs...)
		if err != nil {
			return "", err
		}
		command += " " + quoted
	}

	output, err := i.runner.Run(ctx, dir, command)
	if err != nil {
		return "", fmt.Errorf("failed to install dependencies in %s: %w", dir, err)
	}
	return output, nil
}

func (i *ShellInstaller) Publish(ctx context.Context, dir string) (string, error) {
	logger := logging.GetLogger("npm")
	logger.Info().Str("dir", dir).Msg("Publishing package")

	output, err := i.runner.Run(ctx, dir, i.command+" publish")
	if err != nil {
		return "", fmt.Errorf("failed to publish %s: %w", dir, err)
	}
	return output, nil
}
