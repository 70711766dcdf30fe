package shell

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/jakoblorz/go-nodedist/internal/logging"
	"mvdan.cc/sh/v3/expand"
	"mvdan.cc/sh/v3/interp"
	"mvdan.cc/sh/v3/syntax"
)

// OSRunner implements Runner with an in-process POSIX shell interpreter.
// External programs are started through the interpreter's default exec handler.
type OSRunner struct {
	env func() []string
}

// NewOSRunner creates a new OSRunner inheriting the current process environment
func NewOSRunner() *OSRunner {
	return &OSRunner{env: os.Environ}
}

// Run parses and executes command in dir
func (r *OSRunner) Run(ctx context.Context, dir, command string) (string, error) {
	logger := logging.GetLogger("shell")
	logger.Debug().Str("dir", dir).Str("command", command).Msg("Executing command")

	prog, err := syntax.NewParser(syntax.Variant(syntax.LangBash)).Parse(strings.NewReader(command), "command")
	if err != nil {
		return "", fmt.Errorf("failed to parse command %q: %w", command, err)
	}

	var stdout, stderr bytes.Buffer
	runner, err := interp.New(
		interp.Dir(dir),
		interp.Env(expand.ListEnviron(r.env()...)),
		interp.StdIO(nil, &stdout, &stderr),
	)
	if err != nil {
		return "", fmt.Errorf("failed to create interpreter: %w", err)
	}

	if err := runner.Run(ctx, prog); err != nil {
		var exitStatus interp.ExitStatus
		if errors.As(err, &exitStatus) {
			logger.Debug().Str("command", command).Int("exitCode", int(exitStatus)).Msg("Command failed")
			return "", &CommandError{
				Command:  command,
				Dir:      dir,
				ExitCode: int(exitStatus),
				Stdout:   stdout.String(),
				Stderr:   stderr.String(),
			}
		}
		return "", fmt.Errorf("failed to run command %q: %w", command, err)
	}

	return strings.TrimSpace(stdout.String()), nil
}

// Quote quotes s as a single word in the bash dialect Run parses, so newlines
// and tabs survive as $'...' escapes. Strings containing NUL cannot be quoted.
func Quote(s string) (string, error) {
	quoted, err := syntax.Quote(s, syntax.LangBash)
	if err != nil {
		return "", fmt.Errorf("failed to quote %q: %w", s, err)
	}
	return quoted, nil
}

// Join quotes each word and joins them into a single command line
func Join(words ...string) (string, error) {
	quoted := make([]string, len(words))
	for i, word := range words {
		q, err := Quote(word)
		if err != nil {
			return "", err
		}
		quoted[i] = q
	}
	return strings.Join(quoted, " "), nil
}
