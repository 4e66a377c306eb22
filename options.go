package achievesync

import (
	"net/http"

	"github.com/agentstation/achievesync/pkg/constants"
	"github.com/agentstation/achievesync/pkg/errors"
	"github.com/agentstation/achievesync/pkg/reconcile"
	"github.com/agentstation/achievesync/pkg/sync"
)

// options holds the configuration of a client.
type options struct {
	owner string

	dataDir       string
	categoriesDir string
	importsDir    string

	apiURL     string
	token      string
	httpClient *http.Client

	store      Store
	catalog    Catalog
	importer   Importer
	remote     sync.Remote
	reviewer   reconcile.Reviewer
	reconciler reconcile.Reconciler

	syncOptions []sync.Option
}

// defaults returns the default client options.
func defaults() *options {
	return &options{
		dataDir:       constants.DefaultDataDir,
		categoriesDir: constants.DefaultCategoriesDir,
		importsDir:    constants.DefaultImportsDir,
		apiURL:        constants.DefaultAPIURL,
	}
}

// apply applies the given options.
func (o *options) apply(opts ...Option) (*options, error) {
	for _, opt := range opts {
		if err := opt(o); err != nil {
			return nil, err
		}
	}
	return o, nil
}

// Option is a function that configures a Client.
type Option func(*options) error

// WithOwner configures the character whose progress is synced.
func WithOwner(owner string) Option {
	return func(o *options) error {
		o.owner = owner
		return nil
	}
}

// WithPaths configures the store, catalog and import directories.
// Empty values keep the defaults.
func WithPaths(dataDir, categoriesDir, importsDir string) Option {
	return func(o *options) error {
		if dataDir != "" {
			o.dataDir = dataDir
		}
		if categoriesDir != "" {
			o.categoriesDir = categoriesDir
		}
		if importsDir != "" {
			o.importsDir = importsDir
		}
		return nil
	}
}

// WithTracker configures the tracker API. An empty url keeps the public tracker.
func WithTracker(apiURL, token string) Option {
	return func(o *options) error {
		if apiURL != "" {
			o.apiURL = apiURL
		}
		o.token = token
		return nil
	}
}

// WithHTTPClient configures the HTTP client used for tracker requests.
func WithHTTPClient(hc *http.Client) Option {
	return func(o *options) error {
		if hc == nil {
			return &errors.ValidationError{Field: "http_client", Message: "http client must not be nil"}
		}
		o.httpClient = hc
		return nil
	}
}

// WithStore configures a custom store.
func WithStore(s Store) Option {
	return func(o *options) error {
		if s == nil {
			return &errors.ValidationError{Field: "store", Message: "store must not be nil"}
		}
		o.store = s
		return nil
	}
}

// WithCatalog configures a custom category catalog.
func WithCatalog(c Catalog) Option {
	return func(o *options) error {
		o.catalog = c
		return nil
	}
}

// WithImporter configures a custom import source.
func WithImporter(im Importer) Option {
	return func(o *options) error {
		o.importer = im
		return nil
	}
}

// WithRemote configures a custom remote, replacing the tracker client.
func WithRemote(r sync.Remote) Option {
	return func(o *options) error {
		o.remote = r
		return nil
	}
}

// WithReviewer configures the collaborator shown unmatched imports.
func WithReviewer(r reconcile.Reviewer) Option {
	return func(o *options) error {
		o.reviewer = r
		return nil
	}
}

// WithReconciler configures a custom reconciler. WithReviewer has no effect
// on a custom reconciler.
func WithReconciler(r reconcile.Reconciler) Option {
	return func(o *options) error {
		o.reconciler = r
		return nil
	}
}

// WithSyncOptions configures default options for every Sync call.
func WithSyncOptions(opts ...sync.Option) Option {
	return func(o *options) error {
		o.syncOptions = append(o.syncOptions, opts...)
		return nil
	}
}
