package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

// LinkCommand handles the link command
type LinkCommand struct {
	env *Environment
}

// NewLinkCommand creates a new link command
func NewLinkCommand(env *Environment) *cobra.Command {
	cmd := &LinkCommand{env: env}

	return &cobra.Command{
		Use:   "link",
		Short: "Link the package and its linkDependencies into node_modules",
		Long: `Symlinks the package and every linkDependencies entry into node_modules and
writes adapters for their executables to node_modules/.bin. Missing
dependencies of linked packages are installed unless link.installDependencies
is off.`,
		Args: cobra.NoArgs,
		RunE: cmd.Run,
	}
}

// Run executes the link command
func (c *LinkCommand) Run(cmd *cobra.Command, args []string) error {
	proj, err := c.env.openProject(cmd)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, headerStyle.Render("🔗 Linking packages"))

	results, err := proj.LinkAll(cmd.Context())
	if err != nil {
		return err
	}

	for _, result := range results {
		fmt.Fprintf(out, "  %s %s\n", result.Name, subtleStyle.Render("-> "+result.Target))
		if len(result.Executables) > 0 {
			fmt.Fprintf(out, "    bin: %s\n", strings.Join(result.Executables, ", "))
		}
		if len(result.Installed) > 0 {
			fmt.Fprintf(out, "    installed: %s\n", strings.Join(result.Installed, ", "))
		}
	}

	fmt.Fprintf(out, "\n%s\n", successStyle.Render(fmt.Sprintf("✅ Linked %d package(s)", len(results))))
	return nil
}
