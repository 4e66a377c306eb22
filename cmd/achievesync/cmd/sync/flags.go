package sync

import (
	"os"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/agentstation/achievesync/internal/appcontext"
	achsync "github.com/agentstation/achievesync/pkg/sync"
)

// Flags holds the sync command flags.
type Flags struct {
	DryRun     bool
	Categories []string
	BatchSize  int
	MaxRetries int
	RetryDelay time.Duration
	Timeout    time.Duration
	NoReview   bool

	// set records which numeric flags were given explicitly, so the
	// configured values apply otherwise.
	set map[string]bool

	cmd *cobra.Command
}

// addSyncFlags registers the sync flags on cmd.
func addSyncFlags(cmd *cobra.Command) *Flags {
	flags := &Flags{cmd: cmd}

	cmd.Flags().BoolVar(&flags.DryRun, "dry-run", false, "reconcile and report without contacting the tracker or saving")
	cmd.Flags().StringSliceVarP(&flags.Categories, "category", "c", nil, "only sync these categories (repeatable)")
	cmd.Flags().IntVar(&flags.BatchSize, "batch-size", 0, "entries per request (1-50, default from config)")
	cmd.Flags().IntVar(&flags.MaxRetries, "retries", 0, "retries per failed batch (default from config)")
	cmd.Flags().DurationVar(&flags.RetryDelay, "retry-delay", 0, "wait between requests (default from config)")
	cmd.Flags().DurationVar(&flags.Timeout, "timeout", 0, "abort the run after this long (0 means no limit)")
	cmd.Flags().BoolVar(&flags.NoReview, "no-review", false, "never prompt about imports that match nothing")

	return flags
}

// changed reports whether name was given on the command line.
func (f *Flags) changed(name string) bool {
	if f.set != nil {
		return f.set[name]
	}
	return f.cmd != nil && f.cmd.Flags().Changed(name)
}

// Options converts the flags into sync options.
func (f *Flags) Options() []achsync.Option {
	var opts []achsync.Option

	if f.DryRun {
		opts = append(opts, achsync.WithDryRun(true))
	}
	if len(f.Categories) > 0 {
		opts = append(opts, achsync.WithCategories(f.Categories...))
	}
	if f.changed("batch-size") {
		opts = append(opts, achsync.WithBatchSize(f.BatchSize))
	}
	if f.changed("retries") {
		opts = append(opts, achsync.WithMaxRetries(f.MaxRetries))
	}
	if f.changed("retry-delay") {
		opts = append(opts, achsync.WithRetryDelay(f.RetryDelay))
	}
	if f.Timeout > 0 {
		opts = append(opts, achsync.WithTimeout(f.Timeout))
	}

	return opts
}

// interactive reports whether unmatched imports should be offered for review
// on the terminal.
func (f *Flags) interactive(app appcontext.Interface) bool {
	if f.NoReview || app.Quiet() {
		return false
	}
	return isatty.IsTerminal(os.Stdin.Fd()) || isatty.IsCygwinTerminal(os.Stdin.Fd())
}
