// Package app provides the application context and dependency management
// for the achievesync CLI. It centralizes configuration, logging and the
// lazily created client.
package app

import (
	"context"
	"net/http"
	"sync"

	"github.com/rs/zerolog"

	"github.com/agentstation/achievesync"
	"github.com/agentstation/achievesync/internal/appcontext"
	"github.com/agentstation/achievesync/internal/config"
	"github.com/agentstation/achievesync/internal/cmd/output"
	"github.com/agentstation/achievesync/pkg/errors"
	"github.com/agentstation/achievesync/pkg/logging"
	achsync "github.com/agentstation/achievesync/pkg/sync"
)

// Ensure App implements appcontext.Interface at compile time.
var _ appcontext.Interface = (*App)(nil)

// App represents the achievesync application with all its dependencies.
type App struct {
	// Version information
	version string
	commit  string
	date    string
	builtBy string

	// Configuration
	config *Config

	// Logger
	logger *zerolog.Logger

	// Client instance (lazy-initialized, singleton)
	mu     sync.RWMutex
	client achievesync.Client
}

// New creates a new App instance with the given version information.
func New(version, commit, date, builtBy string, opts ...Option) (*App, error) {
	app := &App{
		version: version,
		commit:  commit,
		date:    date,
		builtBy: builtBy,
	}

	cfg, err := LoadConfig("")
	if err != nil {
		return nil, errors.WrapResource("load", "config", "", err)
	}
	app.config = cfg

	logger := NewLogger(cfg)
	app.logger = &logger

	for _, opt := range opts {
		if err := opt(app); err != nil {
			return nil, err
		}
	}

	return app, nil
}

// Version returns the version information.
func (a *App) Version() string {
	return a.version
}

// Commit returns the git commit hash.
func (a *App) Commit() string {
	return a.commit
}

// Date returns the build date.
func (a *App) Date() string {
	return a.date
}

// BuiltBy returns the build system identifier.
func (a *App) BuiltBy() string {
	return a.builtBy
}

// Config returns the application configuration.
func (a *App) Config() *Config {
	return a.config
}

// Settings returns the resolved configuration values.
func (a *App) Settings() *config.Settings {
	return a.config.Settings
}

// Logger returns the application logger.
func (a *App) Logger() *zerolog.Logger {
	return a.logger
}

// OutputFormat returns the requested output format, detecting one from the
// terminal when none was given.
func (a *App) OutputFormat() string {
	return string(output.DetectFormat(a.config.Format))
}

// Quiet reports whether -q was given.
func (a *App) Quiet() bool {
	return a.config.Quiet
}

// Client returns a client built from the configuration. Without options the
// same instance is returned on every call; with options a new one is built.
func (a *App) Client(opts ...achievesync.Option) (achievesync.Client, error) {
	if len(opts) > 0 {
		return a.newClient(opts...)
	}

	a.mu.RLock()
	if a.client != nil {
		c := a.client
		a.mu.RUnlock()
		return c, nil
	}
	a.mu.RUnlock()

	a.mu.Lock()
	defer a.mu.Unlock()

	// Double-check after acquiring write lock
	if a.client != nil {
		return a.client, nil
	}

	c, err := a.newClient()
	if err != nil {
		return nil, err
	}
	a.client = c
	return c, nil
}

func (a *App) newClient(extra ...achievesync.Option) (achievesync.Client, error) {
	settings := a.config.Settings
	if err := settings.RequireCharacter(); err != nil {
		return nil, err
	}

	c, err := achievesync.New(append(a.clientOptions(), extra...)...)
	if err != nil {
		return nil, errors.WrapResource("create", "client", settings.CharacterID, err)
	}
	return c, nil
}

// clientOptions constructs client options from the configuration.
func (a *App) clientOptions() []achievesync.Option {
	s := a.config.Settings
	return []achievesync.Option{
		achievesync.WithOwner(s.CharacterID),
		achievesync.WithPaths(s.DataDir, s.CategoriesDir, s.ImportsDir),
		achievesync.WithTracker(s.APIURL, s.BearerToken),
		achievesync.WithHTTPClient(&http.Client{Timeout: s.HTTPTimeout}),
		achievesync.WithSyncOptions(
			achsync.WithBatchSize(s.BatchSize),
			achsync.WithMaxRetries(s.MaxRetries),
			achsync.WithRetryDelay(s.RetryDelay),
		),
	}
}

// Shutdown performs graceful shutdown of the application. Every delivered
// batch is already persisted, so only the logs need flushing.
func (a *App) Shutdown(_ context.Context) error {
	a.mu.RLock()
	c := a.client
	a.mu.RUnlock()

	if c != nil {
		logging.Debug().Str("owner", c.Owner()).Msg("Shutting down")
	}
	return nil
}

// Option is a functional option for configuring the App.
type Option func(*App) error

// WithConfig sets a custom configuration.
func WithConfig(cfg *Config) Option {
	return func(a *App) error {
		a.config = cfg
		return nil
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *zerolog.Logger) Option {
	return func(a *App) error {
		a.logger = logger
		return nil
	}
}

// WithClient sets a custom client instance (useful for testing).
func WithClient(c achievesync.Client) Option {
	return func(a *App) error {
		a.client = c
		return nil
	}
}
