package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// CompileCommand handles the compile command
type CompileCommand struct {
	env *Environment
}

// NewCompileCommand creates a new compile command
func NewCompileCommand(env *Environment) *cobra.Command {
	cmd := &CompileCommand{env: env}

	return &cobra.Command{
		Use:   "compile",
		Short: "Rebuild the distribution directory",
		Long: `Clears the distribution directory, writes the production package.json,
copies whitelisted files and compiles the source directory into it.`,
		Args: cobra.NoArgs,
		RunE: cmd.Run,
	}
}

// Run executes the compile command
func (c *CompileCommand) Run(cmd *cobra.Command, args []string) error {
	proj, err := c.env.openProject(cmd)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, headerStyle.Render("📦 Compiling "+proj.Config().Src))

	dist, err := proj.Compile(cmd.Context())
	if err != nil {
		return err
	}

	fmt.Fprintln(out, successStyle.Render("✅ Compiled into ")+subtleStyle.Render(dist.Path()))
	return nil
}
