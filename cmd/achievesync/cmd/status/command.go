// Package status provides the status command implementation.
package status

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/agentstation/achievesync/internal/appcontext"
	"github.com/agentstation/achievesync/internal/cmd/output"
)

// NewCommand creates the status command using app context.
func NewCommand(app appcontext.Interface) *cobra.Command {
	return &cobra.Command{
		Use:     "status",
		GroupID: "core",
		Short:   "Show delivery progress per category",
		Long: `Status reads the local store of the configured character and shows, per
category, how many entries exist and how many were delivered to the tracker.
It never contacts the tracker.`,
		Example: `  achievesync status
  achievesync status -o yaml`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return ExecuteStatus(cmd.Context(), app, cmd.OutOrStdout())
		},
	}
}

// ExecuteStatus renders the status of every stored category.
func ExecuteStatus(ctx context.Context, app appcontext.Interface, w io.Writer) error {
	client, err := app.Client()
	if err != nil {
		return err
	}

	statuses, err := client.Status(ctx)
	if err != nil {
		return err
	}

	format := output.Format(app.OutputFormat())
	if len(statuses) == 0 && format.IsTable() {
		_, err := fmt.Fprintf(w, "No categories stored for %s yet; run 'achievesync init' or 'achievesync sync'.\n", client.Owner())
		return err
	}
	return output.Write(w, format, output.StatusToTableData(statuses), statuses)
}
