package app

import (
	"runtime"

	"github.com/spf13/cobra"

	"github.com/agentstation/achievesync/cmd/achievesync/cmd/categories"
	"github.com/agentstation/achievesync/cmd/achievesync/cmd/initialize"
	"github.com/agentstation/achievesync/cmd/achievesync/cmd/status"
	"github.com/agentstation/achievesync/cmd/achievesync/cmd/sync"
	"github.com/agentstation/achievesync/internal/cmd/output"
)

// registerCommands registers all subcommands with the root command.
func (a *App) registerCommands(rootCmd *cobra.Command) {
	// Core commands
	rootCmd.AddCommand(sync.NewCommand(a))
	rootCmd.AddCommand(status.NewCommand(a))

	// Management commands
	rootCmd.AddCommand(initialize.NewCommand(a))
	rootCmd.AddCommand(categories.NewCommand(a))

	// Utility commands
	rootCmd.AddCommand(a.NewVersionCommand())
}

// versionInfo is the structured form of the version command output.
type versionInfo struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	Date      string `json:"date"`
	BuiltBy   string `json:"built_by"`
	GoVersion string `json:"go_version"`
	Platform  string `json:"platform"`
}

// NewVersionCommand creates the version command.
func (a *App) NewVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		RunE: func(cmd *cobra.Command, _ []string) error {
			format := output.Format(a.config.Format)
			if format == output.FormatJSON || format == output.FormatYAML {
				return output.NewFormatter(format).Format(cmd.OutOrStdout(), versionInfo{
					Version:   a.version,
					Commit:    a.commit,
					Date:      a.date,
					BuiltBy:   a.builtBy,
					GoVersion: runtime.Version(),
					Platform:  runtime.GOOS + "/" + runtime.GOARCH,
				})
			}

			cmd.Printf("achievesync %s\n", a.version)
			if a.config.Verbose {
				cmd.Printf("  commit:   %s\n", a.commit)
				cmd.Printf("  built:    %s\n", a.date)
				cmd.Printf("  built by: %s\n", a.builtBy)
				cmd.Printf("  go:       %s %s/%s\n", runtime.Version(), runtime.GOOS, runtime.GOARCH)
			}
			return nil
		},
	}
}
