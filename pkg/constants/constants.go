// Package constants provides shared constants used throughout the achievesync codebase.
// This includes upload limits, timeouts, file permissions, and default paths
// that should be consistent across the application.
package constants

import "time"

// Upload constants define how pending entries are delivered to the tracker
const (
	// MaxBatchSize is the largest batch the tracker accepts in a single request.
	// The tracker maintainers asked clients never to exceed it.
	MaxBatchSize = 50

	// DefaultBatchSize is the default number of entries submitted per request
	DefaultBatchSize = MaxBatchSize

	// DefaultMaxRetries is the number of retries for a failed batch
	DefaultMaxRetries = 3

	// DefaultRetryDelay is the wait between batches and before each retry
	DefaultRetryDelay = 5 * time.Second
)

// Timeout constants define various timeout durations used in the application
const (
	// DefaultHTTPTimeout is the standard timeout for a single tracker request
	DefaultHTTPTimeout = 30 * time.Second

	// SyncTimeout is the timeout for a complete sync run
	SyncTimeout = 2 * time.Hour

	// ShutdownTimeout bounds graceful shutdown after a failed command
	ShutdownTimeout = 5 * time.Second
)

// File permission constants define standard Unix file permissions
const (
	// DirPermissions is the default permission for created directories (rwxr-xr-x)
	DirPermissions = 0755

	// FilePermissions is the default permission for created files (rw-r--r--)
	FilePermissions = 0644
)

// Logging constants
const (
	// LogRotationSize is the maximum size of a log file before rotation, in megabytes
	LogRotationSize = 10

	// LogRotationAge is the maximum age of log files before deletion
	LogRotationAge = 7 * 24 * time.Hour

	// LogRotationBackups is the maximum number of old log files to retain
	LogRotationBackups = 5
)

// Path constants
const (
	// DefaultDataDir holds one directory of store files per owner
	DefaultDataDir = "data"

	// DefaultCategoriesDir holds the category catalog definitions
	DefaultCategoriesDir = "data/categories"

	// DefaultImportsDir holds the files to import
	DefaultImportsDir = "data/imports"

	// StoreFileExtension is appended to the category name for store files
	StoreFileExtension = ".json.gz"
)

// Tracker constants
const (
	// DefaultAPIURL is the base URL of the achievement tracker character API
	DefaultAPIURL = "https://www.lalachievements.com/api/user/char"

	// UserAgent identifies the client to the tracker
	UserAgent = "achievesync"
)

// Error messages
const (
	// ErrMsgInvalidToken is shown when the tracker rejects the bearer token
	ErrMsgInvalidToken = "tracker rejected the bearer token; check bearer_token in your configuration"
)
