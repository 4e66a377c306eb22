// Package achievesync reconciles locally cached achievement progress with
// import files and delivers newly confirmed entries to the achievement tracker.
//
// A Client ties together the category store, the catalog of all known
// entries, the import directory, the reconciler and the batch uploader.
//
// Example usage:
//
//	client, err := achievesync.New(
//	    achievesync.WithOwner("12345678"),
//	    achievesync.WithTracker("", os.Getenv("ACHIEVESYNC_BEARER_TOKEN")),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	client.OnEntryDelivered(func(category string, e *entries.Entry) {
//	    log.Printf("%s: delivered %s", category, e.Label())
//	})
//
//	result, err := client.Sync(ctx)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(result.Summary())
package achievesync

import (
	"context"
	"slices"

	"github.com/agentstation/achievesync/internal/imports"
	"github.com/agentstation/achievesync/internal/tracker"
	"github.com/agentstation/achievesync/internal/transport"
	"github.com/agentstation/achievesync/pkg/entries"
	"github.com/agentstation/achievesync/pkg/errors"
	"github.com/agentstation/achievesync/pkg/logging"
	"github.com/agentstation/achievesync/pkg/reconcile"
	"github.com/agentstation/achievesync/pkg/store"
	"github.com/agentstation/achievesync/pkg/sync"
)

// Store persists categories per owner.
type Store interface {
	sync.Saver
	Load(category, owner string) (entries.Entries, error)
	Exists(category, owner string) bool
	Initialize(owner string, categories []string, catalog store.CatalogSource) ([]string, error)
	Categories(owner string) ([]string, error)
}

// Catalog lists the known categories and their full entry lists.
type Catalog interface {
	store.CatalogSource
	Categories() ([]string, error)
}

// Importer reads the import directory.
type Importer interface {
	Load(known func(category string) bool) (*imports.Result, error)
}

// Compile-time interface checks.
var (
	_ Store    = (*store.Store)(nil)
	_ Catalog  = (*imports.Catalog)(nil)
	_ Importer = (*imports.Importer)(nil)
)

// Client reconciles and delivers achievement progress for one owner.
type Client interface {
	// Initialize creates the store files of categories that have none yet
	// and returns the created categories.
	Initialize(ctx context.Context) ([]string, error)

	// Sync reconciles every import file and delivers pending entries.
	Sync(ctx context.Context, opts ...sync.Option) (*sync.Result, error)

	// Status reports delivery progress per stored category.
	Status(ctx context.Context) ([]sync.Status, error)

	// Owner returns the character the client works for.
	Owner() string

	// Hooks provides access to event callback registration
	Hooks
}

// client is the internal implementation of the Client interface.
type client struct {
	options *options

	store      Store
	catalog    Catalog
	importer   Importer
	remote     sync.Remote
	reconciler reconcile.Reconciler

	hooks *hooks
}

// New creates a new Client instance with the given options.
func New(opts ...Option) (Client, error) {
	o, err := defaults().apply(opts...)
	if err != nil {
		return nil, err
	}
	if o.owner == "" {
		return nil, errors.NewConfigError("client", "owner is required", nil)
	}

	c := &client{
		options:    o,
		store:      o.store,
		catalog:    o.catalog,
		importer:   o.importer,
		remote:     o.remote,
		reconciler: o.reconciler,
		hooks:      newHooks(),
	}

	if c.store == nil {
		c.store = store.New(o.dataDir)
	}
	if c.catalog == nil {
		c.catalog = imports.NewCatalog(o.categoriesDir)
	}
	if c.importer == nil {
		c.importer = imports.NewImporter(o.importsDir)
	}
	if c.remote == nil {
		var transportOpts []transport.Option
		if o.httpClient != nil {
			transportOpts = append(transportOpts, transport.WithHTTPClient(o.httpClient))
		}
		c.remote = tracker.New(o.apiURL, o.token, transportOpts...)
	}
	if c.reconciler == nil {
		var recOpts []reconcile.Option
		if o.reviewer != nil {
			recOpts = append(recOpts, reconcile.WithReviewer(o.reviewer))
		}
		if c.reconciler, err = reconcile.New(recOpts...); err != nil {
			return nil, errors.WrapResource("create", "reconciler", "", err)
		}
	}

	logging.Debug().
		Str("owner", o.owner).
		Str("data_dir", o.dataDir).
		Str("categories_dir", o.categoriesDir).
		Str("imports_dir", o.importsDir).
		Msg("Client created")

	return c, nil
}

// Owner implements Client.
func (c *client) Owner() string {
	return c.options.owner
}

// Initialize implements Client.
func (c *client) Initialize(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	ctx = logging.WithFields(ctx, map[string]any{"owner": c.options.owner, "operation": "initialize"})

	categories, err := c.catalog.Categories()
	if err != nil {
		return nil, errors.WrapResource("list", "categories", "", err)
	}
	if len(categories) == 0 {
		logging.FromContext(ctx).Warn().Msg("No category catalogs found")
	}

	created, err := c.store.Initialize(c.options.owner, categories, c.catalog)
	if err != nil {
		return created, err
	}
	if len(created) > 0 {
		logging.FromContext(ctx).Info().
			Str("owner", c.options.owner).
			Strs("categories", created).
			Msg("Initialized categories from catalog")
	}
	return created, nil
}

// Status implements Client.
func (c *client) Status(ctx context.Context) ([]sync.Status, error) {
	ctx = logging.WithOperation(ctx, "status")
	categories, err := c.store.Categories(c.options.owner)
	if err != nil {
		return nil, err
	}

	statuses := make([]sync.Status, 0, len(categories))
	for _, category := range categories {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		list, err := c.store.Load(category, c.options.owner)
		if err != nil {
			return nil, err
		}
		added := list.CountAdded()
		statuses = append(statuses, sync.Status{
			Category:  category,
			Total:     len(list),
			Added:     added,
			Remaining: len(list) - added,
		})
	}
	logging.FromContext(ctx).Debug().Int("categories", len(statuses)).Msg("Status collected")
	return statuses, nil
}

// knownCategories returns a membership test over the catalog categories.
func knownCategories(categories []string) func(string) bool {
	return func(category string) bool {
		return slices.Contains(categories, category)
	}
}
