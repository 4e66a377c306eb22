// Package sync delivers pending entries to the tracker in bounded batches and
// defines the options and results of a sync run.
package sync

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/agentstation/achievesync/pkg/constants"
	"github.com/agentstation/achievesync/pkg/entries"
	"github.com/agentstation/achievesync/pkg/errors"
)

// Options controls batching, retry and the scope of a sync run.
type Options struct {
	// Upload control
	BatchSize  int           // Entries per request, at most constants.MaxBatchSize
	MaxRetries int           // Retries per batch after the first attempt
	RetryDelay time.Duration // Wait after every attempt and before every retry
	DryRun     bool          // Log batches without submitting or marking anything

	// Run control
	Categories []string      // Only sync these categories (empty means all)
	Timeout    time.Duration // Timeout for the entire run (0 means none)

	// Callbacks
	OnDelivered   func(category string, e *entries.Entry)
	OnBatchFailed func(category string, ids []string, err error)

	sleeper Sleeper
}

// Sleeper waits for d or until ctx is done.
type Sleeper func(ctx context.Context, d time.Duration) error

// Defaults returns the default sync options.
func Defaults() *Options {
	return &Options{
		BatchSize:  constants.DefaultBatchSize,
		MaxRetries: constants.DefaultMaxRetries,
		RetryDelay: constants.DefaultRetryDelay,
		DryRun:     false,
		Categories: nil,
		Timeout:    0,
	}
}

// Apply applies the given options to the sync options.
func (s *Options) Apply(opts ...Option) *Options {
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Option is a function that configures sync Options.
type Option func(*Options)

// Validate checks if the sync options are valid.
func (s *Options) Validate() error {
	if s.BatchSize < 1 || s.BatchSize > constants.MaxBatchSize {
		return &errors.ValidationError{
			Field:   "BatchSize",
			Value:   s.BatchSize,
			Message: fmt.Sprintf("batch size must be between 1 and %d", constants.MaxBatchSize),
		}
	}

	if s.MaxRetries < 0 {
		return &errors.ValidationError{
			Field:   "MaxRetries",
			Value:   s.MaxRetries,
			Message: "max retries must be non-negative",
		}
	}

	if s.RetryDelay < 0 {
		return &errors.ValidationError{
			Field:   "RetryDelay",
			Value:   s.RetryDelay,
			Message: "retry delay must be non-negative",
		}
	}

	if s.Timeout < 0 {
		return &errors.ValidationError{
			Field:   "Timeout",
			Value:   s.Timeout,
			Message: "timeout must be non-negative",
		}
	}

	return nil
}

// Wants reports whether category is within the category filter.
func (s *Options) Wants(category string) bool {
	return len(s.Categories) == 0 || slices.Contains(s.Categories, category)
}

// WithBatchSize configures the number of entries per request.
func WithBatchSize(size int) Option {
	return func(opts *Options) {
		opts.BatchSize = size
	}
}

// WithMaxRetries configures the retries per batch.
func WithMaxRetries(retries int) Option {
	return func(opts *Options) {
		opts.MaxRetries = retries
	}
}

// WithRetryDelay configures the courtesy and retry delay.
func WithRetryDelay(delay time.Duration) Option {
	return func(opts *Options) {
		opts.RetryDelay = delay
	}
}

// WithDryRun configures dry run mode.
func WithDryRun(dryRun bool) Option {
	return func(opts *Options) {
		opts.DryRun = dryRun
	}
}

// WithCategories restricts the run to the given categories.
func WithCategories(categories ...string) Option {
	return func(opts *Options) {
		opts.Categories = categories
	}
}

// WithTimeout configures the timeout of the whole run.
func WithTimeout(timeout time.Duration) Option {
	return func(opts *Options) {
		opts.Timeout = timeout
	}
}

// WithOnDelivered registers a callback for every entry confirmed by the tracker.
func WithOnDelivered(fn func(category string, e *entries.Entry)) Option {
	return func(opts *Options) {
		opts.OnDelivered = fn
	}
}

// WithOnBatchFailed registers a callback for every batch abandoned after its retries.
func WithOnBatchFailed(fn func(category string, ids []string, err error)) Option {
	return func(opts *Options) {
		opts.OnBatchFailed = fn
	}
}

// WithSleeper replaces the wait used between attempts.
func WithSleeper(sleeper Sleeper) Option {
	return func(opts *Options) {
		opts.sleeper = sleeper
	}
}
