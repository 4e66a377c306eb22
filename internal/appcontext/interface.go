// Package appcontext provides the shared application context interface
// used by all commands. Commands accept this interface rather than the
// concrete App so they can be tested with a mock.
package appcontext

import (
	"github.com/rs/zerolog"

	"github.com/agentstation/achievesync"
	"github.com/agentstation/achievesync/internal/config"
)

// Interface defines the application context interface that commands need.
// The App struct from cmd/achievesync/app implements it.
type Interface interface {
	// Client returns a client configured from the resolved settings.
	// Extra options are applied after the configured ones, which lets a
	// command install a reviewer or replace a collaborator.
	Client(opts ...achievesync.Option) (achievesync.Client, error)

	// Settings returns the resolved configuration.
	Settings() *config.Settings

	// Logger returns the configured logger instance.
	// Commands should use this for all logging operations.
	Logger() *zerolog.Logger

	// OutputFormat returns the configured output format (json, yaml, table, etc).
	OutputFormat() string

	// Quiet reports whether decorative output should be suppressed.
	Quiet() bool

	// Version returns the application version string.
	Version() string

	// Commit returns the git commit hash.
	Commit() string

	// Date returns the build date.
	Date() string

	// BuiltBy returns the build system identifier.
	BuiltBy() string
}
