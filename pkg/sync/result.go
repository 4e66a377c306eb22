package sync

import (
	"fmt"
	"strings"
	"time"

	"github.com/agentstation/utc"
)

// Result represents the complete result of a sync run.
type Result struct {
	RunID  string // Identifies the run in logs
	Owner  string // The character that was synced
	DryRun bool   // Whether this was a dry run

	// Initialized lists the categories created from the catalog during the run.
	Initialized []string

	// Categories holds one result per processed import batch, in processing order.
	Categories []*CategoryResult

	// Unsupported lists import files or mass-import keys naming no known category.
	Unsupported []string

	// Invalid lists import files that could not be parsed.
	Invalid []string

	StartTime utc.Time
	Duration  time.Duration
}

// CategoryResult represents reconciliation and delivery of one import batch.
type CategoryResult struct {
	Category string // The category the entries belong to
	Source   string // Import file the entries came from

	// Reconciliation counts
	Imported     int // Import records considered
	AlreadyAdded int // Imports matching an entry already delivered
	Duplicates   int // Imports matching an entry already pending
	NotFound     int // Imports matching no stored entry

	// Delivery counts
	Pending   int // Entries handed to the uploader
	Delivered int // Entries confirmed by the tracker and marked added
	Failed    int // Entries in batches abandoned after all retries
	Skipped   int // Entries without an id, which cannot be submitted
	Batches   int // Batches formed
	Attempts  int // Requests sent, retries included
}

// HasFailures returns true if any batch was abandoned.
func (cr *CategoryResult) HasFailures() bool {
	return cr.Failed > 0
}

// Summary returns a human-readable summary of the category result.
func (cr *CategoryResult) Summary() string {
	if cr.Pending == 0 {
		return fmt.Sprintf("%s: nothing pending (%d already added, %d not found)",
			cr.Category, cr.AlreadyAdded, cr.NotFound)
	}
	return fmt.Sprintf("%s: %d/%d delivered, %d failed, %d skipped",
		cr.Category, cr.Delivered, cr.Pending, cr.Failed, cr.Skipped)
}

// Totals sums the counts of all categories.
func (r *Result) Totals() CategoryResult {
	total := CategoryResult{Category: "total"}
	for _, cr := range r.Categories {
		total.Imported += cr.Imported
		total.AlreadyAdded += cr.AlreadyAdded
		total.Duplicates += cr.Duplicates
		total.NotFound += cr.NotFound
		total.Pending += cr.Pending
		total.Delivered += cr.Delivered
		total.Failed += cr.Failed
		total.Skipped += cr.Skipped
		total.Batches += cr.Batches
		total.Attempts += cr.Attempts
	}
	return total
}

// HasFailures returns true if any category lost a batch.
func (r *Result) HasFailures() bool {
	for _, cr := range r.Categories {
		if cr.HasFailures() {
			return true
		}
	}
	return false
}

// Summary returns a human-readable summary of the sync result.
func (r *Result) Summary() string {
	total := r.Totals()
	if total.Pending == 0 {
		return "Nothing to deliver"
	}

	summary := fmt.Sprintf("%d of %d pending entries delivered across %d categories",
		total.Delivered, total.Pending, len(r.Categories))

	var parts []string
	if total.Failed > 0 {
		parts = append(parts, fmt.Sprintf("%d failed", total.Failed))
	}
	if r.DryRun {
		parts = append(parts, "(Dry run)")
	}
	if len(parts) > 0 {
		summary += " " + strings.Join(parts, " ")
	}
	return summary
}

// Status is the delivery state of one stored category.
type Status struct {
	Category  string
	Total     int
	Added     int
	Remaining int
}

// Progress returns the share of added entries as a percentage.
func (s Status) Progress() float64 {
	if s.Total == 0 {
		return 0
	}
	return float64(s.Added) * 100 / float64(s.Total)
}
