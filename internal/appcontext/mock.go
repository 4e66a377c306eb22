package appcontext

import (
	"github.com/rs/zerolog"

	"github.com/agentstation/achievesync"
	"github.com/agentstation/achievesync/internal/config"
)

// Mock provides a mock implementation of Interface for testing.
// Each method can be customized by setting the corresponding function field.
// If a function field is nil, the method returns a default/zero value.
//
// Example Usage:
//
//	mock := &appcontext.Mock{
//	    ClientFunc: func(opts ...achievesync.Option) (achievesync.Client, error) {
//	        return achievesync.New(append(base, opts...)...)
//	    },
//	}
//	cmd := status.NewCommand(mock)
type Mock struct {
	ClientFunc       func(opts ...achievesync.Option) (achievesync.Client, error)
	SettingsFunc     func() *config.Settings
	LoggerFunc       func() *zerolog.Logger
	OutputFormatFunc func() string
	QuietFunc        func() bool
	VersionFunc      func() string
	CommitFunc       func() string
	DateFunc         func() string
	BuiltByFunc      func() string
}

var _ Interface = (*Mock)(nil)

// Client returns a client using the mock function or nil.
func (m *Mock) Client(opts ...achievesync.Option) (achievesync.Client, error) {
	if m.ClientFunc != nil {
		return m.ClientFunc(opts...)
	}
	return nil, nil
}

// Settings returns settings using the mock function or empty settings.
func (m *Mock) Settings() *config.Settings {
	if m.SettingsFunc != nil {
		return m.SettingsFunc()
	}
	return &config.Settings{}
}

// Logger returns a logger using the mock function or a no-op logger.
func (m *Mock) Logger() *zerolog.Logger {
	if m.LoggerFunc != nil {
		return m.LoggerFunc()
	}
	logger := zerolog.Nop()
	return &logger
}

// OutputFormat returns the output format using the mock function or "table".
func (m *Mock) OutputFormat() string {
	if m.OutputFormatFunc != nil {
		return m.OutputFormatFunc()
	}
	return "table"
}

// Quiet returns the quiet flag using the mock function or false.
func (m *Mock) Quiet() bool {
	if m.QuietFunc != nil {
		return m.QuietFunc()
	}
	return false
}

// Version returns version using the mock function or "dev".
func (m *Mock) Version() string {
	if m.VersionFunc != nil {
		return m.VersionFunc()
	}
	return "dev"
}

// Commit returns commit using the mock function or "unknown".
func (m *Mock) Commit() string {
	if m.CommitFunc != nil {
		return m.CommitFunc()
	}
	return "unknown"
}

// Date returns date using the mock function or "unknown".
func (m *Mock) Date() string {
	if m.DateFunc != nil {
		return m.DateFunc()
	}
	return "unknown"
}

// BuiltBy returns builtBy using the mock function or "unknown".
func (m *Mock) BuiltBy() string {
	if m.BuiltByFunc != nil {
		return m.BuiltByFunc()
	}
	return "unknown"
}
