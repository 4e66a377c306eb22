// Package reconcile maps freshly imported entries onto the stored entries of
// a category and decides which stored entries still need delivery.
//
// An import is matched by id, by case-insensitive name, or by both. When an
// import carries both, the two lookups must resolve to the same stored entry
// or the import is discarded. An id or name of the wrong type matches nothing.
// Unmatched imports are discarded and handed to an
// optional Reviewer; they are never pending.
package reconcile

import (
	"context"

	"golang.org/x/text/cases"

	"github.com/agentstation/achievesync/pkg/entries"
	"github.com/agentstation/achievesync/pkg/errors"
	"github.com/agentstation/achievesync/pkg/logging"
)

// Reconciler computes pending entries for a category.
type Reconciler interface {
	// Reconcile matches imported against stored. Pending entries in the result
	// are the stored pointers themselves, so marking them mutates stored.
	Reconcile(ctx context.Context, category string, imported, stored entries.Entries) (*Result, error)
}

// reconciler is the default implementation of Reconciler.
type reconciler struct {
	reviewer Reviewer
	folder   cases.Caser
}

// Option configures a Reconciler.
type Option func(*reconciler) error

// WithReviewer sets the collaborator that is shown discarded imports.
func WithReviewer(reviewer Reviewer) Option {
	return func(r *reconciler) error {
		r.reviewer = reviewer
		return nil
	}
}

// New creates a Reconciler.
func New(opts ...Option) (Reconciler, error) {
	r := &reconciler{
		folder: cases.Fold(),
	}
	for _, opt := range opts {
		if err := opt(r); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Reconcile implements Reconciler.
func (r *reconciler) Reconcile(ctx context.Context, category string, imported, stored entries.Entries) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	idx := r.index(stored)
	result := &Result{
		Category: category,
		Imported: len(imported),
		Stored:   len(stored),
		Pending:  entries.Entries{},
	}
	pending := make(map[*entries.Entry]struct{})

	for _, e := range imported {
		if e == nil {
			result.Imported--
			continue
		}

		match := idx.lookup(e)
		if match == nil {
			result.Unmatched++
			result.discard(e)
			continue
		}

		switch _, dup := pending[match]; {
		case match.Added:
			result.AlreadyAdded++
		case dup:
			result.Duplicates++
		default:
			pending[match] = struct{}{}
			result.Pending = append(result.Pending, match)
		}
	}

	logger := logging.FromContext(ctx)
	logger.Debug().
		Str("category", category).
		Int("imported", result.Imported).
		Int("pending", len(result.Pending)).
		Int("already_added", result.AlreadyAdded).
		Int("duplicates", result.Duplicates).
		Int("unmatched", result.Unmatched).
		Msg("Reconciled imports")

	if len(result.Discarded) > 0 {
		logger.Warn().
			Str("category", category).
			Int("count", len(result.Discarded)).
			Msg("Entries not found in category")

		if r.reviewer != nil {
			if err := r.reviewer.Review(ctx, category, result.Discarded); err != nil {
				return result, errors.WrapResource("review", "category", category, err)
			}
		}
	}

	return result, nil
}

// index holds the id and folded-name lookups over all stored entries.
// On collisions the later stored entry wins.
type index struct {
	byID   map[int64]*entries.Entry
	byName map[string]*entries.Entry
	folder cases.Caser
}

func (r *reconciler) index(stored entries.Entries) *index {
	idx := &index{
		byID:   make(map[int64]*entries.Entry, len(stored)),
		byName: make(map[string]*entries.Entry, len(stored)),
		folder: r.folder,
	}
	for _, e := range stored {
		if e.HasID() {
			idx.byID[*e.ID] = e
		}
		if e.HasName() {
			idx.byName[idx.fold(*e.Name)] = e
		}
	}
	return idx
}

func (idx *index) fold(name string) string {
	return idx.folder.String(name)
}

// lookup returns the stored entry an import refers to, or nil.
func (idx *index) lookup(e *entries.Entry) *entries.Entry {
	switch {
	case e.Malformed():
		return nil
	case e.HasID() && e.HasName():
		byID := idx.byID[*e.ID]
		byName := idx.byName[idx.fold(*e.Name)]
		if byID != nil && byID == byName {
			return byID
		}
		return nil
	case e.HasID():
		return idx.byID[*e.ID]
	case e.HasName():
		return idx.byName[idx.fold(*e.Name)]
	default:
		return nil
	}
}
