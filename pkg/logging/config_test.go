package logging_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/achievesync/pkg/logging"
)

func TestConfigFunctions(t *testing.T) {
	originalLogger := *logging.Default()
	originalLevel := zerolog.GlobalLevel()
	defer func() {
		logging.SetDefault(originalLogger)
		zerolog.SetGlobalLevel(originalLevel)
	}()

	t.Run("DefaultConfig returns sensible defaults", func(t *testing.T) {
		cfg := logging.DefaultConfig()
		assert.Equal(t, "info", cfg.Level)
		assert.Equal(t, "auto", cfg.Format)
		assert.Equal(t, "stderr", cfg.Output)
		assert.False(t, cfg.AddCaller)
	})

	t.Run("file output is created with parent directories", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "logs", "achievesync.log")

		logger := logging.NewLoggerFromConfig(&logging.Config{
			Level:  "debug",
			Format: "json",
			Output: path,
			Fields: map[string]any{"owner": "12345"},
		})
		logger.Info().Msg("test message")

		content, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Contains(t, string(content), "test message")
		assert.Contains(t, string(content), `"owner":"12345"`)
	})

	t.Run("config logger as default", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "warn.log")

		original := *logging.Default()
		t.Cleanup(func() { logging.SetDefault(original) })
		logging.SetDefault(logging.NewLoggerFromConfig(&logging.Config{
			Level:  "warn",
			Format: "json",
			Output: path,
		}))

		logging.Debug().Msg("debug message")
		logging.Info().Msg("info message")
		logging.Warn().Msg("warn message")
		logging.Error().Msg("error message")

		content, err := os.ReadFile(path)
		require.NoError(t, err)
		output := string(content)
		assert.NotContains(t, output, "debug message")
		assert.NotContains(t, output, "info message")
		assert.Contains(t, output, "warn message")
		assert.Contains(t, output, "error message")
	})

	t.Run("console format", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "console.log")

		logger := logging.NewLoggerFromConfig(&logging.Config{
			Level:   "info",
			Format:  "console",
			Output:  path,
			NoColor: true,
		})
		logger.Info().Str("key", "value").Msg("console test")

		content, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Contains(t, string(content), "console test")
		assert.Contains(t, string(content), "INF")
	})

	t.Run("discard output", func(t *testing.T) {
		logger := logging.NewLoggerFromConfig(&logging.Config{Level: "info", Output: "discard"})
		logger.Info().Msg("dropped")
	})
}

func TestNilConfigUsesDefaults(t *testing.T) {
	originalLevel := zerolog.GlobalLevel()
	defer zerolog.SetGlobalLevel(originalLevel)

	logger := logging.NewLoggerFromConfig(nil)
	assert.Equal(t, zerolog.InfoLevel, logger.GetLevel())
}
