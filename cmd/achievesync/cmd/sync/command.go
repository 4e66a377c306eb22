// Package sync provides the sync command implementation.
package sync

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/agentstation/achievesync"
	"github.com/agentstation/achievesync/internal/appcontext"
	"github.com/agentstation/achievesync/internal/cmd/output"
	"github.com/agentstation/achievesync/pkg/errors"
	achsync "github.com/agentstation/achievesync/pkg/sync"
)

// NewCommand creates the sync command using app context.
func NewCommand(app appcontext.Interface) *cobra.Command {
	var flags *Flags

	cmd := &cobra.Command{
		Use:     "sync [category...]",
		GroupID: "core",
		Short:   "Reconcile imports and deliver pending entries",
		Long: `Sync reconciles every file in the imports directory against the local store
and delivers confirmed entries that the tracker does not have yet.

The command will:
• Create store files for catalog categories that have none
• Match each imported entry to a stored entry by id or name
• Report imports that match nothing (and offer to list them on a terminal)
• Submit pending entries in batches, retrying failed batches
• Mark delivered entries as added and save after every batch

A rejected bearer token stops the run. A batch that keeps failing is
skipped and stays pending for the next run.`,
		Example: `  achievesync sync                          # Sync every import file
  achievesync sync mounts minions           # Sync selected categories
  achievesync sync --dry-run                # Show what would be delivered
  achievesync sync --retry-delay 10s        # Wait longer between requests
  achievesync sync -o json > result.json    # Machine readable result`,
		RunE: func(cmd *cobra.Command, args []string) error {
			flags.Categories = append(flags.Categories, args...)
			return ExecuteSync(cmd.Context(), app, flags, cmd.OutOrStdout(), cmd.ErrOrStderr())
		},
	}

	flags = addSyncFlags(cmd)

	return cmd
}

// ExecuteSync runs one sync and renders the result.
func ExecuteSync(ctx context.Context, app appcontext.Interface, flags *Flags, stdout, stderr io.Writer) error {
	if !flags.DryRun {
		if err := app.Settings().RequireToken(); err != nil {
			return err
		}
	}

	reviewer := NewReviewer(os.Stdin, stderr, flags.interactive(app), app.Logger())
	client, err := app.Client(achievesync.WithReviewer(reviewer))
	if err != nil {
		return err
	}

	if !app.Quiet() {
		client.OnBatchFailed(func(category string, ids []string, err error) {
			fmt.Fprintf(stderr, "Batch of %d %s entries failed: %v\n", len(ids), category, err)
		})
	}

	result, err := client.Sync(ctx, flags.Options()...)
	if result != nil {
		format := output.Format(app.OutputFormat())
		if renderErr := output.Write(stdout, format,
			output.SyncResultToTableData(result, format == output.FormatWide), result); renderErr != nil && err == nil {
			err = renderErr
		}
		if format.IsTable() && !app.Quiet() {
			printNotes(stderr, result)
		}
	}
	if errors.IsCanceled(err) && !app.Quiet() {
		fmt.Fprintln(stderr, "Sync canceled; entries of confirmed batches are saved.")
	}
	return err
}

// printNotes prints the summary and the import files that were not used.
func printNotes(w io.Writer, result *achsync.Result) {
	if len(result.Initialized) > 0 {
		fmt.Fprintf(w, "Initialized: %s\n", strings.Join(result.Initialized, ", "))
	}
	if len(result.Unsupported) > 0 {
		fmt.Fprintf(w, "Unsupported imports: %s\n", strings.Join(result.Unsupported, ", "))
	}
	if len(result.Invalid) > 0 {
		fmt.Fprintf(w, "Unreadable imports: %s\n", strings.Join(result.Invalid, ", "))
	}
	fmt.Fprintln(w, result.Summary())
	if result.HasFailures() {
		fmt.Fprintln(w, "Failed entries stay pending and will be retried on the next sync.")
	}
}
