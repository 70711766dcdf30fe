package cli

import (
	"fmt"
	"os"

	"github.com/jakoblorz/go-nodedist/internal/compiler"
	"github.com/jakoblorz/go-nodedist/internal/config"
	"github.com/jakoblorz/go-nodedist/internal/directory"
	"github.com/jakoblorz/go-nodedist/internal/filesystem"
	"github.com/jakoblorz/go-nodedist/internal/lifecycle"
	"github.com/jakoblorz/go-nodedist/internal/logging"
	"github.com/jakoblorz/go-nodedist/internal/manifest"
	"github.com/jakoblorz/go-nodedist/internal/npm"
	"github.com/jakoblorz/go-nodedist/internal/project"
	"github.com/jakoblorz/go-nodedist/internal/shell"
	"github.com/spf13/cobra"
)

// Environment holds the collaborators every command runs with
type Environment struct {
	FS     filesystem.FileSystem
	Runner shell.Runner

	// Installer and Compiler default to the npm and babel CLIs over Runner
	Installer npm.Installer
	Compiler  compiler.Compiler

	Getenv     func(string) string
	KillParent func() error
}

// NewOSEnvironment returns the environment of the running process
func NewOSEnvironment() *Environment {
	return &Environment{
		FS:         filesystem.NewOSFileSystem(),
		Runner:     shell.NewOSRunner(),
		Getenv:     os.Getenv,
		KillParent: lifecycle.KillParent,
	}
}

// openProject loads the configuration and opens the package that contains the
// working directory
func (e *Environment) openProject(cmd *cobra.Command) (*project.Project, error) {
	cwd, err := e.FS.Getwd()
	if err != nil {
		return nil, fmt.Errorf("failed to get working directory: %w", err)
	}
	root, err := manifest.FindRoot(e.FS, cwd)
	if err != nil {
		return nil, err
	}
	dir, err := directory.New(e.FS, root)
	if err != nil {
		return nil, err
	}
	dir = dir.WithRunner(e.Runner)

	cfg, err := config.Load(e.FS, dir.Path(), cmd.Flags())
	if err != nil {
		return nil, err
	}

	options := []project.Option{
		project.WithConfig(cfg),
		project.WithRunner(e.Runner),
	}
	if e.Installer != nil {
		options = append(options, project.WithInstaller(e.Installer))
	}
	if e.Compiler != nil {
		options = append(options, project.WithCompiler(e.Compiler))
	}
	return project.New(dir, options...), nil
}

// NewRootCommand creates the root command
func NewRootCommand(env *Environment) *cobra.Command {
	var verbosity int

	rootCmd := &cobra.Command{
		Use:   "nodedist",
		Short: "Link, compile and publish Node packages",
		Long: `A packaging tool for Node packages with transpiled sources.

Without a subcommand the pipeline is picked from the npm lifecycle that started
nodedist: publish compiles and publishes, pack compiles, everything else links.`,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logging.SetupLogger(verbosity)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			mode := lifecycle.Detect(env.Getenv)
			logger := logging.GetLogger("cli")
			logger.Debug().Str("mode", string(mode)).Str("npm", lifecycle.Command(env.Getenv)).Msg("Detected invocation mode")

			switch mode {
			case lifecycle.ModePublish:
				return (&PublishCommand{env: env}).Run(cmd, args)
			case lifecycle.ModeCompile:
				return (&CompileCommand{env: env}).Run(cmd, args)
			default:
				return (&LinkCommand{env: env}).Run(cmd, args)
			}
		},
	}

	rootCmd.PersistentFlags().String("src", "src", "Source directory, relative to the package root")
	rootCmd.PersistentFlags().String("dist", "dist", "Distribution directory, relative to the package root")
	rootCmd.PersistentFlags().CountVarP(&verbosity, "verbose", "v", "Increase log verbosity (-v info, -vv debug, -vvv trace)")

	rootCmd.AddCommand(NewLinkCommand(env))
	rootCmd.AddCommand(NewCompileCommand(env))
	rootCmd.AddCommand(NewPublishCommand(env))
	rootCmd.AddCommand(NewRunCommand(env))

	return rootCmd
}

// Execute runs the root command
func Execute() error {
	rootCmd := NewRootCommand(NewOSEnvironment())

	if err := rootCmd.Execute(); err != nil {
		return fmt.Errorf("command failed: %w", err)
	}

	return nil
}
