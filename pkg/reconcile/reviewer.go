package reconcile

import (
	"context"

	"github.com/agentstation/achievesync/pkg/entries"
)

// Reviewer is shown the imports of a category that could not be matched.
// It is only called when there is at least one discarded entry. Returning an
// error aborts the reconciliation of that category.
type Reviewer interface {
	Review(ctx context.Context, category string, discarded entries.Entries) error
}

// ReviewerFunc adapts a function to the Reviewer interface.
type ReviewerFunc func(ctx context.Context, category string, discarded entries.Entries) error

// Review implements Reviewer.
func (f ReviewerFunc) Review(ctx context.Context, category string, discarded entries.Entries) error {
	return f(ctx, category, discarded)
}
