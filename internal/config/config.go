// Package config loads achievesync settings with viper. Values come from, in
// order of precedence: explicit Set calls (command-line flags), ACHIEVESYNC_
// environment variables, the config file, and defaults.
//
// Without an explicit file, config.json in the working directory is used when
// present, otherwise ~/.achievesync.yaml.
package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cast"
	"github.com/spf13/viper"

	"github.com/agentstation/achievesync/pkg/constants"
	"github.com/agentstation/achievesync/pkg/errors"
)

// EnvPrefix prefixes every environment variable, e.g. ACHIEVESYNC_BEARER_TOKEN.
const EnvPrefix = "ACHIEVESYNC"

// Configuration keys.
const (
	KeyCharacterID   = "character_id"
	KeyBearerToken   = "bearer_token"
	KeyAPIURL        = "api_url"
	KeyDataDir       = "data_dir"
	KeyCategoriesDir = "categories_dir"
	KeyImportsDir    = "imports_dir"
	KeyBatchSize     = "batch_size"
	KeyMaxRetries    = "max_retries"
	KeyRetryDelay    = "retry_delay"
	KeyHTTPTimeout   = "http_timeout"
	KeyLogLevel      = "log_level"
	KeyLogFormat     = "log_format"
	KeyLogOutput     = "log_output"
)

// Settings are the resolved configuration values.
type Settings struct {
	CharacterID string
	BearerToken string
	APIURL      string

	DataDir       string
	CategoriesDir string
	ImportsDir    string

	BatchSize  int
	MaxRetries int
	RetryDelay time.Duration

	// HTTPTimeout bounds a single tracker request.
	HTTPTimeout time.Duration

	LogLevel  string
	LogFormat string
	LogOutput string

	// ConfigFile is the file values were read from, if any.
	ConfigFile string
}

// New returns a viper instance with defaults and environment binding set up.
func New() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	SetDefaults(v)
	return v
}

// SetDefaults registers the default value of every key.
func SetDefaults(v *viper.Viper) {
	v.SetDefault(KeyAPIURL, constants.DefaultAPIURL)
	v.SetDefault(KeyDataDir, constants.DefaultDataDir)
	v.SetDefault(KeyCategoriesDir, constants.DefaultCategoriesDir)
	v.SetDefault(KeyImportsDir, constants.DefaultImportsDir)
	v.SetDefault(KeyBatchSize, constants.DefaultBatchSize)
	v.SetDefault(KeyMaxRetries, constants.DefaultMaxRetries)
	v.SetDefault(KeyRetryDelay, constants.DefaultRetryDelay)
	v.SetDefault(KeyHTTPTimeout, constants.DefaultHTTPTimeout)
	v.SetDefault(KeyLogLevel, "info")
	v.SetDefault(KeyLogFormat, "auto")
	v.SetDefault(KeyLogOutput, "stderr")
}

// ReadFile reads file into v. With an empty file the default locations are
// searched and a missing file is not an error.
func ReadFile(v *viper.Viper, file string) error {
	if file == "" {
		file = findDefaultFile()
		if file == "" {
			return nil
		}
	}

	v.SetConfigFile(file)
	if err := v.ReadInConfig(); err != nil {
		return errors.NewConfigError("file", "failed to read "+file, err)
	}
	return nil
}

func findDefaultFile() string {
	candidates := []string{"config.json"}
	if home, err := os.UserHomeDir(); err == nil {
		candidates = append(candidates, filepath.Join(home, ".achievesync.yaml"))
	}
	for _, candidate := range candidates {
		if info, err := os.Stat(candidate); err == nil && info.Mode().IsRegular() {
			return candidate
		}
	}
	return ""
}

// Load resolves the settings from v.
func Load(v *viper.Viper) (*Settings, error) {
	delay, err := seconds(v.Get(KeyRetryDelay), constants.DefaultRetryDelay)
	if err != nil {
		return nil, errors.WrapValidation(KeyRetryDelay, err)
	}
	timeout, err := seconds(v.Get(KeyHTTPTimeout), constants.DefaultHTTPTimeout)
	if err != nil {
		return nil, errors.WrapValidation(KeyHTTPTimeout, err)
	}

	return &Settings{
		CharacterID: strings.TrimSpace(v.GetString(KeyCharacterID)),
		BearerToken: strings.TrimSpace(v.GetString(KeyBearerToken)),
		APIURL:      v.GetString(KeyAPIURL),

		DataDir:       v.GetString(KeyDataDir),
		CategoriesDir: v.GetString(KeyCategoriesDir),
		ImportsDir:    v.GetString(KeyImportsDir),

		BatchSize:  v.GetInt(KeyBatchSize),
		MaxRetries: v.GetInt(KeyMaxRetries),
		RetryDelay: delay,

		HTTPTimeout: timeout,

		LogLevel:  v.GetString(KeyLogLevel),
		LogFormat: v.GetString(KeyLogFormat),
		LogOutput: v.GetString(KeyLogOutput),

		ConfigFile: v.ConfigFileUsed(),
	}, nil
}

// seconds reads a duration. Plain numbers are seconds; strings use Go duration
// syntax ("5s", "1m30s") unless they are plain numbers too.
func seconds(value any, fallback time.Duration) (time.Duration, error) {
	switch val := value.(type) {
	case nil:
		return fallback, nil
	case time.Duration:
		return val, nil
	case string:
		if f, err := cast.ToFloat64E(val); err == nil {
			return time.Duration(f * float64(time.Second)), nil
		}
		return time.ParseDuration(val)
	default:
		f, err := cast.ToFloat64E(val)
		if err != nil {
			return 0, err
		}
		return time.Duration(f * float64(time.Second)), nil
	}
}

// RequireCharacter checks that the owner is configured.
func (s *Settings) RequireCharacter() error {
	if s.CharacterID == "" {
		return errors.NewConfigError(KeyCharacterID,
			"character_id is required (set it in config.json, ~/.achievesync.yaml or ACHIEVESYNC_CHARACTER_ID)", nil)
	}
	return nil
}

// RequireToken checks that a bearer token is configured.
func (s *Settings) RequireToken() error {
	if s.BearerToken == "" {
		return errors.NewConfigError(KeyBearerToken,
			"bearer_token is required (set it in config.json, ~/.achievesync.yaml or ACHIEVESYNC_BEARER_TOKEN)",
			errors.ErrTokenRequired)
	}
	return nil
}
