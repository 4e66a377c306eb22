package app

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	"github.com/agentstation/achievesync/internal/config"
	"github.com/agentstation/achievesync/internal/cmd/output"
	"github.com/agentstation/achievesync/pkg/logging"
)

// Execute runs the achievesync CLI application with the given arguments.
// This is the main entry point called from main.go.
func (a *App) Execute(ctx context.Context, args []string) error {
	rootCmd := a.createRootCommand()
	rootCmd.SetArgs(args)
	return rootCmd.ExecuteContext(ctx)
}

// createRootCommand creates the root cobra command with all subcommands.
func (a *App) createRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:     "achievesync",
		Short:   "Achievement tracker sync CLI",
		Version: a.version,
		Long: `achievesync keeps a local copy of your achievement progress per category and
delivers newly confirmed entries to the achievement tracker.

Import files dropped into the imports directory are reconciled against the
local store. Entries that are confirmed but not yet delivered are submitted
in batches and marked as added once the tracker accepts them.`,
		PersistentPreRunE: a.setupCommand,
		SilenceUsage:      true,
		SilenceErrors:     true,
	}

	rootCmd.AddGroup(&cobra.Group{
		ID:    "core",
		Title: "Core Commands:",
	})

	rootCmd.AddGroup(&cobra.Group{
		ID:    "management",
		Title: "Management Commands:",
	})

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&a.config.ConfigFile, "config", "", "config file (default is ./config.json or $HOME/.achievesync.yaml)")
	flags.BoolVarP(&a.config.Verbose, "verbose", "v", false, "verbose output (shortcut for --log-level=debug)")
	flags.BoolVarP(&a.config.Quiet, "quiet", "q", false, "minimal output (shortcut for --log-level=warn)")
	flags.BoolVar(&a.config.NoColor, "no-color", false, "disable colored output")
	flags.StringVarP(&a.config.Format, "format", "o", "", "output format: table, json, yaml, wide")
	flags.StringVar(&a.config.LogLevel, "log-level", "", "log level: trace, debug, info, warn, error (overrides -v/-q)")
	flags.String("character", "", "character id (overrides character_id)")
	flags.String("data-dir", "", "store directory (overrides data_dir)")

	rootCmd.SetVersionTemplate("achievesync {{.Version}}\n")

	a.registerCommands(rootCmd)

	return rootCmd
}

// setupCommand is called before any command runs.
func (a *App) setupCommand(cmd *cobra.Command, _ []string) error {
	// These flags are defined as persistent flags in createRootCommand, so errors indicate programming errors
	verbose := mustGetBool(cmd, "verbose")
	quiet := mustGetBool(cmd, "quiet")
	noColor := mustGetBool(cmd, "no-color")
	format := mustGetString(cmd, "format")
	logLevel := mustGetString(cmd, "log-level")

	if _, err := output.ParseFormat(format); err != nil {
		return err
	}

	if file := mustGetString(cmd, "config"); file != "" {
		cfg, err := LoadConfig(file)
		if err != nil {
			return err
		}
		a.config = cfg
	}

	a.config.UpdateFromFlags(verbose, quiet, noColor, format, logLevel)
	if err := a.config.Override(map[string]any{
		config.KeyCharacterID: mustGetString(cmd, "character"),
		config.KeyDataDir:     mustGetString(cmd, "data-dir"),
	}); err != nil {
		return err
	}

	// Reinitialize logger with updated config
	logger := NewLogger(a.config)
	a.logger = &logger
	logging.SetDefault(logger)

	return nil
}

// ExitOnError is a helper that prints an error and exits with status 1.
// This is meant to be used in main.go for top-level error handling.
func ExitOnError(err error) {
	if err != nil {
		//nolint:errcheck // Ignoring write error since we're exiting anyway
		_, _ = os.Stderr.WriteString(err.Error() + "\n")
		os.Exit(1)
	}
}

// mustGetBool retrieves a boolean flag value or panics if the flag doesn't exist.
// This should only be used for flags defined in this package.
func mustGetBool(cmd *cobra.Command, name string) bool {
	val, err := cmd.Flags().GetBool(name)
	if err != nil {
		panic("programming error: failed to get flag " + name + ": " + err.Error())
	}
	return val
}

// mustGetString retrieves a string flag value or panics if the flag doesn't exist.
// This should only be used for flags defined in this package.
func mustGetString(cmd *cobra.Command, name string) string {
	val, err := cmd.Flags().GetString(name)
	if err != nil {
		panic("programming error: failed to get flag " + name + ": " + err.Error())
	}
	return val
}
