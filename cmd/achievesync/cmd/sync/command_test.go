package sync

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/achievesync"
	"github.com/agentstation/achievesync/internal/appcontext"
	"github.com/agentstation/achievesync/internal/config"
	"github.com/agentstation/achievesync/pkg/errors"
	achsync "github.com/agentstation/achievesync/pkg/sync"
)

type fakeRemote struct {
	calls  [][]string
	err    error
	before func()
}

func (f *fakeRemote) Submit(_ context.Context, _, _ string, ids []string) error {
	f.calls = append(f.calls, ids)
	if f.before != nil {
		f.before()
	}
	return f.err
}

func fixture(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	write := func(rel, content string) {
		path := filepath.Join(dir, rel)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
	write("categories/quests.json", `[{"id": 1, "name": "A"}, {"id": 2, "name": "B"}]`)
	write("imports/quests.json", `[{"id": 2}, {"name": "Unknown"}]`)
	write("imports/notes.json", `[{"id": 5}]`)
	return dir
}

func mockApp(dir string, remote achsync.Remote, format string) *appcontext.Mock {
	return &appcontext.Mock{
		ClientFunc: func(opts ...achievesync.Option) (achievesync.Client, error) {
			base := []achievesync.Option{
				achievesync.WithOwner("12345"),
				achievesync.WithPaths(filepath.Join(dir, "store"), filepath.Join(dir, "categories"), filepath.Join(dir, "imports")),
				achievesync.WithRemote(remote),
				achievesync.WithSyncOptions(achsync.WithRetryDelay(0)),
			}
			return achievesync.New(append(base, opts...)...)
		},
		SettingsFunc: func() *config.Settings {
			return &config.Settings{CharacterID: "12345", BearerToken: "secret"}
		},
		OutputFormatFunc: func() string { return format },
	}
}

func TestExecuteSyncTable(t *testing.T) {
	dir := fixture(t)
	remote := &fakeRemote{}

	var stdout, stderr bytes.Buffer
	err := ExecuteSync(context.Background(), mockApp(dir, remote, "table"), &Flags{NoReview: true}, &stdout, &stderr)
	require.NoError(t, err)

	assert.Equal(t, [][]string{{"2"}}, remote.calls)
	assert.Contains(t, stdout.String(), "quests")
	assert.Contains(t, stderr.String(), "Unsupported imports: notes.json")
	assert.Contains(t, stderr.String(), "1 of 1 pending entries delivered")
}

func TestExecuteSyncJSON(t *testing.T) {
	dir := fixture(t)

	var stdout bytes.Buffer
	err := ExecuteSync(context.Background(), mockApp(dir, &fakeRemote{}, "json"), &Flags{DryRun: true, NoReview: true}, &stdout, &bytes.Buffer{})
	require.NoError(t, err)

	var result achsync.Result
	require.NoError(t, json.Unmarshal(stdout.Bytes(), &result))
	assert.True(t, result.DryRun)
	require.Len(t, result.Categories, 1)
	assert.Equal(t, 1, result.Categories[0].Pending)
	assert.Equal(t, 1, result.Categories[0].NotFound)
}

func TestExecuteSyncReportsFailedBatches(t *testing.T) {
	dir := fixture(t)
	remote := &fakeRemote{err: errors.NewAPIError("quests", 503, "down")}

	var stderr bytes.Buffer
	flags := &Flags{NoReview: true, MaxRetries: 1, set: map[string]bool{"retries": true}}
	err := ExecuteSync(context.Background(), mockApp(dir, remote, "table"), flags, &bytes.Buffer{}, &stderr)
	require.NoError(t, err)

	assert.Len(t, remote.calls, 2)
	assert.Contains(t, stderr.String(), "Batch of 1 quests entries failed")
	assert.Contains(t, stderr.String(), "stay pending")
}

func TestExecuteSyncRequiresToken(t *testing.T) {
	app := mockApp(t.TempDir(), &fakeRemote{}, "table")
	app.SettingsFunc = func() *config.Settings { return &config.Settings{CharacterID: "1"} }

	err := ExecuteSync(context.Background(), app, &Flags{}, &bytes.Buffer{}, &bytes.Buffer{})
	assert.True(t, errors.IsAuthenticationError(err))
}

func TestFlagsOptions(t *testing.T) {
	flags := &Flags{
		DryRun:     true,
		Categories: []string{"mounts"},
		BatchSize:  10,
		MaxRetries: 7,
		RetryDelay: time.Second,
		Timeout:    time.Minute,
		set:        map[string]bool{"batch-size": true, "retry-delay": true},
	}

	opts := achsync.Defaults().Apply(flags.Options()...)

	assert.True(t, opts.DryRun)
	assert.Equal(t, []string{"mounts"}, opts.Categories)
	assert.Equal(t, 10, opts.BatchSize)
	assert.Equal(t, 3, opts.MaxRetries, "retries was not given")
	assert.Equal(t, time.Second, opts.RetryDelay)
	assert.Equal(t, time.Minute, opts.Timeout)
}

func TestNewCommandFlags(t *testing.T) {
	cmd := NewCommand(&appcontext.Mock{})
	for _, name := range []string{"dry-run", "category", "batch-size", "retries", "retry-delay", "timeout", "no-review"} {
		assert.NotNil(t, cmd.Flags().Lookup(name), name)
	}
}

func TestExecuteSyncCanceled(t *testing.T) {
	dir := fixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	remote := &fakeRemote{err: errors.NewAPIError("quests", 503, "down"), before: cancel}

	var stderr bytes.Buffer
	err := ExecuteSync(ctx, mockApp(dir, remote, "table"), &Flags{NoReview: true}, &bytes.Buffer{}, &stderr)
	require.Error(t, err)
	assert.True(t, errors.IsCanceled(err))
	assert.ErrorIs(t, err, context.Canceled)
	assert.Len(t, remote.calls, 1)
	assert.Contains(t, stderr.String(), "Sync canceled")
}
