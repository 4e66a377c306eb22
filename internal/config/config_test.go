package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/achievesync/internal/config"
	"github.com/agentstation/achievesync/pkg/errors"
)

func writeConfig(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestDefaults(t *testing.T) {
	settings, err := config.Load(config.New())
	require.NoError(t, err)

	assert.Equal(t, "https://www.lalachievements.com/api/user/char", settings.APIURL)
	assert.Equal(t, "data", settings.DataDir)
	assert.Equal(t, "data/categories", settings.CategoriesDir)
	assert.Equal(t, "data/imports", settings.ImportsDir)
	assert.Equal(t, 50, settings.BatchSize)
	assert.Equal(t, 3, settings.MaxRetries)
	assert.Equal(t, 5*time.Second, settings.RetryDelay)
	assert.Equal(t, 30*time.Second, settings.HTTPTimeout)
	assert.Empty(t, settings.CharacterID)
}

func TestReadJSONFile(t *testing.T) {
	path := writeConfig(t, "config.json", `{"character_id": 12345678, "bearer_token": "abc", "retry_delay": 2, "http_timeout": 10}`)

	v := config.New()
	require.NoError(t, config.ReadFile(v, path))
	settings, err := config.Load(v)
	require.NoError(t, err)

	assert.Equal(t, "12345678", settings.CharacterID)
	assert.Equal(t, "abc", settings.BearerToken)
	assert.Equal(t, 2*time.Second, settings.RetryDelay, "numeric delays are seconds")
	assert.Equal(t, 10*time.Second, settings.HTTPTimeout)
	assert.Equal(t, path, settings.ConfigFile)
}

func TestReadYAMLFile(t *testing.T) {
	path := writeConfig(t, "achievesync.yaml", "character_id: \"42\"\nbatch_size: 25\nretry_delay: 1m30s\n")

	v := config.New()
	require.NoError(t, config.ReadFile(v, path))
	settings, err := config.Load(v)
	require.NoError(t, err)

	assert.Equal(t, "42", settings.CharacterID)
	assert.Equal(t, 25, settings.BatchSize)
	assert.Equal(t, 90*time.Second, settings.RetryDelay)
}

func TestEnvironmentOverridesFile(t *testing.T) {
	path := writeConfig(t, "config.json", `{"character_id": "1", "bearer_token": "from-file"}`)
	t.Setenv("ACHIEVESYNC_BEARER_TOKEN", "from-env")
	t.Setenv("ACHIEVESYNC_MAX_RETRIES", "7")

	v := config.New()
	require.NoError(t, config.ReadFile(v, path))
	settings, err := config.Load(v)
	require.NoError(t, err)

	assert.Equal(t, "1", settings.CharacterID)
	assert.Equal(t, "from-env", settings.BearerToken)
	assert.Equal(t, 7, settings.MaxRetries)
}

func TestReadFileErrors(t *testing.T) {
	err := config.ReadFile(config.New(), filepath.Join(t.TempDir(), "missing.yaml"))
	var cfgErr *errors.ConfigError
	assert.ErrorAs(t, err, &cfgErr)

	bad := writeConfig(t, "config.json", `{"character_id": `)
	assert.Error(t, config.ReadFile(config.New(), bad))
}

func TestInvalidDurations(t *testing.T) {
	for _, key := range []string{config.KeyRetryDelay, config.KeyHTTPTimeout} {
		v := config.New()
		v.Set(key, "soon")

		_, err := config.Load(v)
		assert.True(t, errors.IsValidationError(err), key)
		assert.Contains(t, err.Error(), key)
	}
}

func TestRequirements(t *testing.T) {
	settings := &config.Settings{}
	assert.Error(t, settings.RequireCharacter())
	assert.ErrorIs(t, settings.RequireToken(), errors.ErrTokenRequired)

	settings.CharacterID = "1"
	settings.BearerToken = "t"
	assert.NoError(t, settings.RequireCharacter())
	assert.NoError(t, settings.RequireToken())
}
