package reconcile

import (
	"fmt"

	"github.com/agentstation/achievesync/pkg/entries"
)

// Result is the outcome of reconciling one category.
//
// The counters are exact: every non-nil import lands in exactly one bucket,
// so Imported == len(Pending) + AlreadyAdded + Duplicates + Unmatched.
type Result struct {
	Category string

	// Pending are stored entries that matched an import and are not added yet.
	Pending entries.Entries

	// Discarded are the unmatched imports, without structural duplicates.
	Discarded entries.Entries

	// Imported is the number of import records considered.
	Imported int

	// Stored is the number of stored entries matched against.
	Stored int

	// AlreadyAdded counts imports that matched an entry already delivered.
	AlreadyAdded int

	// Duplicates counts imports that matched an entry already pending.
	Duplicates int

	// Unmatched counts discarded imports before deduplication.
	Unmatched int
}

// HasPending reports whether anything needs delivery.
func (r *Result) HasPending() bool {
	return len(r.Pending) > 0
}

// Summary returns a human-readable summary of the result.
func (r *Result) Summary() string {
	return fmt.Sprintf("%s: %d pending, %d already added, %d duplicates, %d not found",
		r.Category, len(r.Pending), r.AlreadyAdded, r.Duplicates, r.Unmatched)
}

func (r *Result) discard(e *entries.Entry) {
	for _, d := range r.Discarded {
		if d.Equal(e) {
			return
		}
	}
	r.Discarded = append(r.Discarded, e)
}
