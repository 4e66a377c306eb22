// Package initialize provides the init command implementation.
package initialize

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/agentstation/achievesync/internal/appcontext"
	"github.com/agentstation/achievesync/internal/cmd/output"
)

// NewCommand creates the init command using app context.
func NewCommand(app appcontext.Interface) *cobra.Command {
	return &cobra.Command{
		Use:     "init",
		GroupID: "management",
		Short:   "Create store files from the category catalog",
		Long: `Init creates a store file for every catalog category the configured
character does not have yet. Existing store files are never touched.

Sync runs the same step automatically, so init is only needed to inspect
the store before the first sync.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return ExecuteInit(cmd.Context(), app, cmd.OutOrStdout())
		},
	}
}

// ExecuteInit initializes the store and lists the created categories.
func ExecuteInit(ctx context.Context, app appcontext.Interface, w io.Writer) error {
	client, err := app.Client()
	if err != nil {
		return err
	}

	created, err := client.Initialize(ctx)
	if err != nil {
		return err
	}
	if created == nil {
		created = []string{}
	}

	format := output.Format(app.OutputFormat())
	if format.IsTable() {
		if len(created) == 0 {
			_, err := fmt.Fprintln(w, "All categories are already initialized.")
			return err
		}
		return output.Write(w, format, output.ListToTableData("Initialized", created), nil)
	}
	return output.Write(w, format, output.Data{}, map[string][]string{"initialized": created})
}
