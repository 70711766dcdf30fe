package cli

import (
	"fmt"
	"io"
	"path/filepath"

	"github.com/spf13/cobra"
)

// RunCommand handles the run command
type RunCommand struct {
	env *Environment
}

// NewRunCommand creates a new run command
func NewRunCommand(env *Environment) *cobra.Command {
	cmd := &RunCommand{env: env}

	return &cobra.Command{
		Use:   "run [file|-]",
		Short: "Run a source file through the transform hook",
		Long:  "Run a source file through the transform hook. Without a file, or with -, the source is read from stdin.",
		Args:  cobra.MaximumNArgs(1),
		RunE:  cmd.Run,
	}
}

// Run executes the run command
func (c *RunCommand) Run(cmd *cobra.Command, args []string) error {
	proj, err := c.env.openProject(cmd)
	if err != nil {
		return err
	}

	var output string
	if len(args) == 0 || args[0] == "-" {
		code, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return fmt.Errorf("failed to read stdin: %w", err)
		}
		output, err = proj.RunSource(cmd.Context(), string(code))
		if err != nil {
			return err
		}
	} else {
		file := args[0]
		if !filepath.IsAbs(file) {
			cwd, err := c.env.FS.Getwd()
			if err != nil {
				return fmt.Errorf("failed to get working directory: %w", err)
			}
			file = filepath.Join(cwd, file)
		}

		output, err = proj.RunFile(cmd.Context(), file)
		if err != nil {
			return err
		}
	}

	if output != "" {
		fmt.Fprintln(cmd.OutOrStdout(), output)
	}
	return nil
}
