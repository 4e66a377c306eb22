package app

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/achievesync"
	"github.com/agentstation/achievesync/pkg/errors"
	achsync "github.com/agentstation/achievesync/pkg/sync"
)

// isolate runs the test in an empty directory with a private home and no
// achievesync environment, so no real configuration leaks in.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })
	t.Setenv("HOME", dir)
	for _, kv := range os.Environ() {
		if name, _, _ := strings.Cut(kv, "="); strings.HasPrefix(name, "ACHIEVESYNC_") {
			t.Setenv(name, "")
		}
	}
	t.Setenv("ACHIEVESYNC_LOG_OUTPUT", "discard")
	return dir
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestAppNew(t *testing.T) {
	isolate(t)

	app, err := New("1.0.0", "abc123", "2024-01-01", "test")
	require.NoError(t, err)

	assert.Equal(t, "1.0.0", app.Version())
	assert.Equal(t, "abc123", app.Commit())
	assert.Equal(t, "2024-01-01", app.Date())
	assert.Equal(t, "test", app.BuiltBy())
	assert.NotNil(t, app.Logger())
	require.NotNil(t, app.Settings())
	assert.Equal(t, 50, app.Settings().BatchSize)
}

func TestAppClientRequiresCharacter(t *testing.T) {
	isolate(t)

	app, err := New("dev", "", "", "")
	require.NoError(t, err)

	_, err = app.Client()
	var cfgErr *errors.ConfigError
	assert.ErrorAs(t, err, &cfgErr)
}

func TestAppClientSingleton(t *testing.T) {
	isolate(t)
	t.Setenv("ACHIEVESYNC_CHARACTER_ID", "12345")

	app, err := New("dev", "", "", "")
	require.NoError(t, err)

	const goroutines = 50
	var wg sync.WaitGroup
	clients := make([]achievesync.Client, goroutines)
	errs := make([]error, goroutines)
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			clients[idx], errs[idx] = app.Client()
		}(i)
	}
	wg.Wait()

	for i := range clients {
		require.NoError(t, errs[i])
		assert.Same(t, clients[0], clients[i])
	}
	assert.Equal(t, "12345", clients[0].Owner())

	// Options always build a fresh client
	other, err := app.Client(achievesync.WithOwner("999"))
	require.NoError(t, err)
	assert.NotSame(t, clients[0], other)
	assert.Equal(t, "999", other.Owner())
}

func TestWithClient(t *testing.T) {
	isolate(t)

	c, err := achievesync.New(achievesync.WithOwner("1"))
	require.NoError(t, err)

	app, err := New("dev", "", "", "", WithClient(c))
	require.NoError(t, err)

	got, err := app.Client()
	require.NoError(t, err)
	assert.Same(t, c, got)
}

func TestExecuteVersion(t *testing.T) {
	isolate(t)

	app, err := New("1.2.3", "abc", "today", "ci")
	require.NoError(t, err)

	var out bytes.Buffer
	root := app.createRootCommand()
	root.SetOut(&out)
	root.SetArgs([]string{"version", "-v"})
	require.NoError(t, root.Execute())

	assert.Contains(t, out.String(), "achievesync 1.2.3")
	assert.Contains(t, out.String(), "commit:   abc")

	out.Reset()
	root = app.createRootCommand()
	root.SetOut(&out)
	root.SetArgs([]string{"version", "-o", "json"})
	require.NoError(t, root.Execute())

	var info map[string]string
	require.NoError(t, json.Unmarshal(out.Bytes(), &info))
	assert.Equal(t, "1.2.3", info["version"])
	assert.Equal(t, "ci", info["built_by"])
}

func TestExecuteRejectsUnknownFormat(t *testing.T) {
	isolate(t)

	app, err := New("dev", "", "", "")
	require.NoError(t, err)

	root := app.createRootCommand()
	root.SetOut(&bytes.Buffer{})
	root.SetArgs([]string{"version", "-o", "xml"})
	assert.Error(t, root.Execute())
}

func TestExecuteSyncDryRun(t *testing.T) {
	dir := isolate(t)
	writeFile(t, filepath.Join(dir, "data", "categories", "quests.json"),
		`[{"id": 1, "name": "A"}, {"id": 2, "name": "B"}, {"id": 3, "name": "C"}]`)
	writeFile(t, filepath.Join(dir, "data", "imports", "quests.json"),
		`[{"id": 1, "name": "A"}, {"id": 3, "name": "C"}, {"id": 42, "name": "Nope"}]`)

	app, err := New("dev", "", "", "")
	require.NoError(t, err)

	var out bytes.Buffer
	root := app.createRootCommand()
	root.SetOut(&out)
	root.SetErr(&bytes.Buffer{})
	root.SetArgs([]string{"sync", "--dry-run", "--no-review", "--character", "12345", "-o", "json"})
	require.NoError(t, root.Execute())

	var result achsync.Result
	require.NoError(t, json.Unmarshal(out.Bytes(), &result))
	assert.True(t, result.DryRun)
	assert.Equal(t, "12345", result.Owner)
	require.Len(t, result.Categories, 1)
	assert.Equal(t, 2, result.Categories[0].Pending)
	assert.Equal(t, 1, result.Categories[0].NotFound)

	// A dry run writes nothing
	assert.NoDirExists(t, filepath.Join(dir, "data", "12345"))
}

func TestExecuteSyncRequiresToken(t *testing.T) {
	isolate(t)

	app, err := New("dev", "", "", "")
	require.NoError(t, err)

	root := app.createRootCommand()
	root.SetOut(&bytes.Buffer{})
	root.SetErr(&bytes.Buffer{})
	root.SetArgs([]string{"sync", "--character", "12345"})
	err = root.Execute()
	assert.True(t, errors.Is(err, errors.ErrTokenRequired))
}

func TestExecuteInitAndStatus(t *testing.T) {
	dir := isolate(t)
	writeFile(t, filepath.Join(dir, "data", "categories", "mounts.json"), `[{"id": 10, "name": "Horse"}]`)

	app, err := New("dev", "", "", "")
	require.NoError(t, err)

	var out bytes.Buffer
	root := app.createRootCommand()
	root.SetOut(&out)
	root.SetArgs([]string{"init", "--character", "7", "-o", "json"})
	require.NoError(t, root.Execute())
	assert.JSONEq(t, `{"initialized": ["mounts"]}`, out.String())
	assert.FileExists(t, filepath.Join(dir, "data", "7", "mounts.json.gz"))

	out.Reset()
	root = app.createRootCommand()
	root.SetOut(&out)
	root.SetArgs([]string{"status", "--character", "7", "-o", "json"})
	require.NoError(t, root.Execute())
	assert.JSONEq(t, `[{"Category": "mounts", "Total": 1, "Added": 0, "Remaining": 1}]`, out.String())
}
