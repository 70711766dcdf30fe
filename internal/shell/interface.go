package shell

import (
	"context"
	"fmt"
	"strings"
)

// Runner executes shell command lines for the collaborators that shell out
// (compiler, installer, inline scripts).
//
// Commands run with dir as the working directory and the parent environment
// inherited. The returned string is the trimmed standard output.
type Runner interface {
	Run(ctx context.Context, dir, command string) (string, error)
}

// CommandError is returned when a command exits with a non-zero status.
type CommandError struct {
	Command  string
	Dir      string
	ExitCode int
	Stdout   string
	Stderr   string
}

func (e *CommandError) Error() string {
	output := strings.TrimSpace(e.Stderr)
	if output == "" {
		output = strings.TrimSpace(e.Stdout)
	}
	if output == "" {
		return fmt.Sprintf("command %q failed with exit code %d", e.Command, e.ExitCode)
	}
	return fmt.Sprintf("command %q failed with exit code %d: %s", e.Command, e.ExitCode, output)
}
