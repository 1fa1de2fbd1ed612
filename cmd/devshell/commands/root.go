// Package commands implements the CLI commands for devshell.
package commands

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"go.trai.ch/devshell/internal/build"
	"go.trai.ch/devshell/internal/core/domain"
	"go.trai.ch/devshell/internal/core/ports"
)

// CLI represents the command line interface for devshell.
type CLI struct {
	app      Application
	rootCmd  *cobra.Command
	jsonLogs func(bool)
}

// Application represents the application logic interface.
type Application interface {
	UseSettings(path string)
	Check(ctx context.Context, paths []string) error
	Flatten(ctx context.Context, paths []string) (domain.RequirementSet, error)
	Expr(ctx context.Context, path string) (string, error)
	Env(ctx context.Context, path string) (*domain.Environment, error)
	Run(ctx context.Context, path string, cmd ports.Command) error
	Verify(ctx context.Context, path string) ([]domain.VerifyResult, error)
	Clean(ctx context.Context) error
}

// New creates a new CLI instance with the given app.
func New(a Application) *CLI {
	rootCmd := &cobra.Command{
		Use:           "devshell",
		Short:         "Resolve environment manifests into reproducible development shells",
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       build.Version,
	}

	rootCmd.SetVersionTemplate(fmt.Sprintf(
		"{{.Name}} version {{.Version}} (commit: %s, date: %s)\n",
		build.Commit,
		build.Date,
	))
	rootCmd.InitDefaultVersionFlag()
	rootCmd.Flags().Lookup("version").Usage = "Print the application version"

	rootCmd.InitDefaultHelpFlag()
	rootCmd.Flags().Lookup("help").Usage = "Show help for command"

	rootCmd.PersistentFlags().StringP("config", "c", "",
		"Path to the settings file (default: $"+domain.SettingsEnvVar+" or the user config directory)")
	rootCmd.PersistentFlags().Bool("json-logs", false, "Write logs as JSON")

	c := &CLI{
		app:     a,
		rootCmd: rootCmd,
	}

	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, _ []string) error {
		configPath, _ := cmd.Flags().GetString("config")
		jsonLogs, _ := cmd.Flags().GetBool("json-logs")

		c.app.UseSettings(configPath)
		if c.jsonLogs != nil {
			c.jsonLogs(jsonLogs)
		}
		return nil
	}

	rootCmd.AddCommand(c.newCheckCmd())
	rootCmd.AddCommand(c.newFlattenCmd())
	rootCmd.AddCommand(c.newExprCmd())
	rootCmd.AddCommand(c.newEnvCmd())
	rootCmd.AddCommand(c.newRunCmd())
	rootCmd.AddCommand(c.newVerifyCmd())
	rootCmd.AddCommand(c.newCleanCmd())
	rootCmd.AddCommand(c.newVersionCmd())

	return c
}

// Execute runs the root command with the given context.
func (c *CLI) Execute(ctx context.Context) error {
	c.rootCmd.SetContext(ctx)
	return c.rootCmd.Execute()
}

// SetArgs sets the arguments for the root command. Used for testing.
func (c *CLI) SetArgs(args []string) {
	c.rootCmd.SetArgs(args)
}

// SetOutput sets the output and error streams for the root command. Used for testing.
func (c *CLI) SetOutput(out, err io.Writer) {
	c.rootCmd.SetOut(out)
	c.rootCmd.SetErr(err)
}

// SetInput sets the input stream handed to commands run inside an environment.
func (c *CLI) SetInput(in io.Reader) {
	c.rootCmd.SetIn(in)
}

// OnJSONLogs registers fn to be called with the value of --json-logs before any command runs.
func (c *CLI) OnJSONLogs(fn func(bool)) {
	c.jsonLogs = fn
}

// singleManifest returns the manifest path of a command taking at most one; empty means discovery.
func singleManifest(args []string) (string, error) {
	switch len(args) {
	case 0:
		return "", nil
	case 1:
		return args[0], nil
	default:
		return "", domain.ErrTooManyManifests
	}
}
