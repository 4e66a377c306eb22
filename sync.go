package achievesync

import (
	"context"
	"time"

	"github.com/agentstation/utc"

	"github.com/agentstation/achievesync/internal/imports"
	"github.com/agentstation/achievesync/pkg/entries"
	"github.com/agentstation/achievesync/pkg/errors"
	"github.com/agentstation/achievesync/pkg/logging"
	"github.com/agentstation/achievesync/pkg/sync"
)

// Sync implements Client.
//
// Missing categories are initialized from the catalog first. Each import
// batch is then reconciled against the stored category and its pending
// entries are uploaded. A failed batch only loses that batch; an
// authentication or storage failure aborts the run and is returned together
// with the partial result.
func (c *client) Sync(ctx context.Context, opts ...sync.Option) (*sync.Result, error) {
	// Step 0: Set context
	if ctx == nil {
		ctx = context.Background()
	}

	// Step 1: Parse and validate options
	options := sync.Defaults().Apply(c.options.syncOptions...).Apply(opts...)
	if err := options.Validate(); err != nil {
		return nil, err
	}

	// Step 2: Setup context with timeout and run logger
	var cancel context.CancelFunc
	if options.Timeout > 0 {
		ctx, cancel = context.WithTimeout(ctx, options.Timeout)
	} else {
		cancel = func() {} // No-op cancel if no timeout
	}
	defer cancel()

	owner := c.options.owner
	ctx = logging.WithOperation(logging.WithOwner(logging.WithRunID(ctx), owner), "sync")
	logger := logging.FromContext(ctx)

	result := &sync.Result{
		RunID:     logging.RunID(ctx),
		Owner:     owner,
		DryRun:    options.DryRun,
		StartTime: utc.Now(),
	}
	defer func() { result.Duration = time.Since(result.StartTime.Time) }()

	// Step 3: Initialize categories that have no store file yet
	categories, err := c.catalog.Categories()
	if err != nil {
		return result, errors.WrapResource("list", "categories", "", err)
	}
	if !options.DryRun {
		if result.Initialized, err = c.store.Initialize(owner, categories, c.catalog); err != nil {
			return result, err
		}
	}

	// Step 4: Read the import directory
	imported, err := c.importer.Load(knownCategories(categories))
	if err != nil {
		return result, errors.WrapResource("load", "imports", "", err)
	}
	result.Unsupported = imported.Unsupported
	result.Invalid = imported.Invalid

	// Step 5: Build the uploader, forwarding delivery events to hooks
	uploader, err := sync.NewUploader(c.remote, c.store, c.uploaderOptions(options, opts)...)
	if err != nil {
		return result, err
	}

	// Step 6: Reconcile and upload every batch in order
	for _, batch := range imported.Batches {
		if !options.Wants(batch.Category) {
			continue
		}

		cr, err := c.syncBatch(ctx, uploader, batch, options.DryRun)
		if cr != nil {
			result.Categories = append(result.Categories, cr)
		}
		if err != nil {
			return result, err
		}
	}

	totals := result.Totals()
	logger.Info().
		Int("categories", len(result.Categories)).
		Int("delivered", totals.Delivered).
		Int("failed", totals.Failed).
		Int("unsupported", len(result.Unsupported)).
		Bool("dry_run", options.DryRun).
		Msg("Sync completed")

	return result, nil
}

// uploaderOptions chains the caller's callbacks with the client hooks.
func (c *client) uploaderOptions(options *sync.Options, opts []sync.Option) []sync.Option {
	onDelivered := options.OnDelivered
	onFailed := options.OnBatchFailed

	all := append([]sync.Option{}, c.options.syncOptions...)
	all = append(all, opts...)
	return append(all,
		sync.WithOnDelivered(func(category string, e *entries.Entry) {
			if onDelivered != nil {
				onDelivered(category, e)
			}
			c.hooks.triggerEntryDelivered(category, e)
		}),
		sync.WithOnBatchFailed(func(category string, ids []string, err error) {
			if onFailed != nil {
				onFailed(category, ids, err)
			}
			c.hooks.triggerBatchFailed(category, ids, err)
		}),
	)
}

// syncBatch reconciles one import batch and uploads its pending entries.
func (c *client) syncBatch(ctx context.Context, uploader *sync.Uploader, batch imports.Batch, dryRun bool) (*sync.CategoryResult, error) {
	owner := c.options.owner
	ctx = logging.WithCategory(ctx, batch.Category)
	logger := logging.FromContext(ctx)

	stored, err := c.loadStored(batch.Category, dryRun)
	if err != nil {
		return nil, err
	}

	rec, err := c.reconciler.Reconcile(ctx, batch.Category, batch.Entries, stored)
	if err != nil {
		return nil, err
	}

	cr, err := uploader.Upload(ctx, owner, batch.Category, rec.Pending)
	if cr != nil {
		cr.Source = batch.Source
		cr.Imported = rec.Imported
		cr.AlreadyAdded = rec.AlreadyAdded
		cr.Duplicates = rec.Duplicates
		cr.NotFound = rec.Unmatched
	}
	if err != nil {
		return cr, err
	}

	logger.Info().
		Str("source", batch.Source).
		Int("imported", cr.Imported).
		Int("pending", cr.Pending).
		Int("delivered", cr.Delivered).
		Int("failed", cr.Failed).
		Int("not_found", cr.NotFound).
		Msg("Category processed")

	return cr, nil
}

// loadStored returns the stored entries of a category. In a dry run nothing
// was initialized, so a category without a file is read from the catalog.
func (c *client) loadStored(category string, dryRun bool) (entries.Entries, error) {
	if dryRun && !c.store.Exists(category, c.options.owner) {
		return c.catalog.Entries(category)
	}
	return c.store.Load(category, c.options.owner)
}
