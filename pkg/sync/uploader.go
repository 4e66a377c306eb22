package sync

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/agentstation/achievesync/pkg/constants"
	"github.com/agentstation/achievesync/pkg/entries"
	"github.com/agentstation/achievesync/pkg/errors"
	"github.com/agentstation/achievesync/pkg/logging"
)

// Remote submits a batch of entry ids for an owner's category.
// A rejected credential must be reported as *errors.AuthenticationError.
type Remote interface {
	Submit(ctx context.Context, owner, category string, ids []string) error
}

// Saver persists entries with merge-by-id semantics.
type Saver interface {
	Save(category, owner string, list entries.Entries) error
}

// Uploader delivers pending entries in batches with bounded retry.
//
// Entries are only marked added after the tracker confirmed the batch that
// carries them. After every confirmation the whole pending list is saved, so
// marks from earlier batches of the same run are persisted too.
type Uploader struct {
	remote Remote
	saver  Saver
	opts   *Options
}

// NewUploader creates an Uploader.
func NewUploader(remote Remote, saver Saver, opts ...Option) (*Uploader, error) {
	if remote == nil {
		return nil, &errors.ConfigError{Component: "uploader", Message: "remote is required"}
	}
	if saver == nil {
		return nil, &errors.ConfigError{Component: "uploader", Message: "saver is required"}
	}

	options := Defaults().Apply(opts...)
	if err := options.Validate(); err != nil {
		return nil, err
	}
	if options.sleeper == nil {
		options.sleeper = sleep
	}

	return &Uploader{remote: remote, saver: saver, opts: options}, nil
}

// Options returns the effective options.
func (u *Uploader) Options() Options {
	return *u.opts
}

// Upload delivers pending entries of one category. Abandoned batches are
// counted in the result and do not produce an error. An authentication
// failure, a save failure or a done context stop the upload and are returned.
func (u *Uploader) Upload(ctx context.Context, owner, category string, pending entries.Entries) (*CategoryResult, error) {
	result := &CategoryResult{Category: category, Pending: len(pending)}
	logger := logging.FromContext(ctx).With().
		Str("owner", owner).
		Str("category", category).
		Logger()

	keyed := make(entries.Entries, 0, len(pending))
	for _, e := range pending {
		if !e.HasID() {
			result.Skipped++
			logger.Warn().Str("entry", e.Label()).Msg("Entry has no id, skipping")
			continue
		}
		keyed = append(keyed, e)
	}

	for _, batch := range Partition(keyed, u.opts.BatchSize) {
		result.Batches++

		if u.opts.DryRun {
			logger.Info().
				Int("size", len(batch)).
				Str("ids", batch.Join()).
				Msg("Dry run, batch not submitted")
			continue
		}

		if err := u.deliver(ctx, &logger, owner, category, batch, pending, result); err != nil {
			return result, err
		}
	}

	return result, nil
}

// deliver submits one batch until it succeeds or its retries are used up.
func (u *Uploader) deliver(ctx context.Context, logger *zerolog.Logger, owner, category string,
	batch, pending entries.Entries, result *CategoryResult) error {
	ids := batch.Keys()

	for remaining := u.opts.MaxRetries; ; remaining-- {
		result.Attempts++
		err := u.remote.Submit(ctx, owner, category, ids)

		if err == nil {
			for _, e := range batch {
				e.Added = true
			}
			if err := u.saver.Save(category, owner, pending); err != nil {
				return errors.NewSyncError(category, ids, err)
			}

			result.Delivered += len(batch)
			if u.opts.OnDelivered != nil {
				for _, e := range batch {
					u.opts.OnDelivered(category, e)
				}
			}
			logger.Info().Int("count", len(batch)).Msg("Successfully posted entries")
			return u.wait(ctx)
		}

		if errors.IsAuthenticationError(err) {
			logger.Error().Err(err).Msg(constants.ErrMsgInvalidToken)
			return err
		}
		if ctx.Err() != nil {
			return contextError(ctx)
		}

		logger.Warn().Err(err).Int("retries_left", remaining).Msg("Failed to post entries")
		if err := u.wait(ctx); err != nil {
			return err
		}

		if remaining <= 0 {
			result.Failed += len(batch)
			if u.opts.OnBatchFailed != nil {
				u.opts.OnBatchFailed(category, ids, err)
			}
			logger.Error().Err(err).Str("ids", batch.Join()).Msg("No more retries left, batch abandoned")
			return nil
		}

		logger.Info().Dur("delay", u.opts.RetryDelay).Msg("Retrying batch")
		if err := u.wait(ctx); err != nil {
			return err
		}
	}
}

func (u *Uploader) wait(ctx context.Context) error {
	if err := u.opts.sleeper(ctx, u.opts.RetryDelay); err != nil {
		if ctxErr := contextError(ctx); ctxErr != nil {
			return ctxErr
		}
		return err
	}
	return nil
}

// Partition splits list into contiguous batches of at most size entries.
func Partition(list entries.Entries, size int) []entries.Entries {
	if size < 1 {
		size = 1
	}
	batches := make([]entries.Entries, 0, (len(list)+size-1)/size)
	for start := 0; start < len(list); start += size {
		end := min(start+size, len(list))
		batches = append(batches, list[start:end])
	}
	return batches
}

// sleep waits for d unless ctx is done first.
func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func contextError(ctx context.Context) error {
	err := ctx.Err()
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return errors.NewTimeoutError("upload", "", err.Error())
	}
	return fmt.Errorf("%w: %w", errors.ErrCanceled, err)
}
