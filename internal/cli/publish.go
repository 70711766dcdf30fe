package cli

import (
	"fmt"

	"github.com/jakoblorz/go-nodedist/internal/lifecycle"
	"github.com/jakoblorz/go-nodedist/internal/logging"
	"github.com/spf13/cobra"
)

// PublishCommand handles the publish command
type PublishCommand struct {
	env *Environment
}

// NewPublishCommand creates a new publish command
func NewPublishCommand(env *Environment) *cobra.Command {
	cmd := &PublishCommand{env: env}

	return &cobra.Command{
		Use:   "publish",
		Short: "Compile and publish the distribution directory",
		Long: `Compiles the package and publishes the distribution directory instead of the
package root. When started by npm publish, the npm process is stopped afterwards
so the root is not published as well (see publish.killParent).`,
		Args: cobra.NoArgs,
		RunE: cmd.Run,
	}
}

// Run executes the publish command
func (c *PublishCommand) Run(cmd *cobra.Command, args []string) error {
	proj, err := c.env.openProject(cmd)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, headerStyle.Render("🚀 Publishing "+proj.Config().Dist))

	output, err := proj.Publish(cmd.Context())
	if err != nil {
		return err
	}
	if output != "" {
		fmt.Fprintln(out, output)
	}
	fmt.Fprintln(out, successStyle.Render("🎉 Published"))

	if !proj.Config().Publish.KillParent {
		return nil
	}
	// Only npm publish itself must be stopped; a shell running nodedist directly is left alone.
	if lifecycle.Command(c.env.Getenv) != "publish" {
		return nil
	}

	logger := logging.GetLogger("cli")
	logger.Debug().Msg("Stopping parent npm process")
	if err := c.env.KillParent(); err != nil {
		fmt.Fprintln(cmd.ErrOrStderr(), warningStyle.Render(fmt.Sprintf("⚠️  Warning: failed to stop npm: %v", err)))
	}
	return nil
}
