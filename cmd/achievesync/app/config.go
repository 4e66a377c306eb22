package app

import (
	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/agentstation/achievesync/internal/config"
	"github.com/agentstation/achievesync/pkg/errors"
)

// Config holds the application configuration loaded from various sources
// including config files, environment variables, and .env files.
type Config struct {
	// Global flags
	Verbose  bool
	Quiet    bool
	NoColor  bool
	Format   string
	LogLevel string // --log-level; empty defers to the settings

	// ConfigFile is the explicit --config path, if any.
	ConfigFile string

	// Settings are the values resolved by viper.
	Settings *config.Settings

	v *viper.Viper
}

// LoadConfig loads configuration from all sources in order of precedence:
//  1. Command-line flags (applied later through Override)
//  2. ACHIEVESYNC_ environment variables
//  3. .env and .env.local files
//  4. Config file (file, or config.json, or ~/.achievesync.yaml)
//  5. Defaults
func LoadConfig(file string) (*Config, error) {
	loadEnvFiles()

	v := config.New()
	if err := config.ReadFile(v, file); err != nil {
		return nil, err
	}

	settings, err := config.Load(v)
	if err != nil {
		return nil, err
	}

	return &Config{
		ConfigFile: file,
		Settings:   settings,
		v:          v,
	}, nil
}

// UpdateFromFlags updates config values from parsed command flags.
// This should be called after cobra parses flags to ensure flag
// values take precedence over config file and env vars.
func (c *Config) UpdateFromFlags(verbose, quiet, noColor bool, format, logLevel string) {
	c.Verbose = verbose
	c.Quiet = quiet
	c.NoColor = noColor
	if format != "" {
		c.Format = format
	}
	if logLevel != "" {
		c.LogLevel = logLevel
	}
}

// Override sets configuration keys from flags and re-resolves the settings.
// Empty string values are ignored.
func (c *Config) Override(values map[string]any) error {
	if c.v == nil {
		return errors.NewConfigError("app", "configuration was not loaded", nil)
	}

	changed := false
	for key, value := range values {
		if s, ok := value.(string); ok && s == "" {
			continue
		}
		c.v.Set(key, value)
		changed = true
	}
	if !changed {
		return nil
	}

	settings, err := config.Load(c.v)
	if err != nil {
		return err
	}
	c.Settings = settings
	return nil
}

// loadEnvFiles loads environment variables from .env files. godotenv never
// overrides a variable that is already set, so .env.local is read first.
func loadEnvFiles() {
	for _, envFile := range []string{".env.local", ".env"} {
		_ = godotenv.Load(envFile)
	}
}
