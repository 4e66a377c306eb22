package initialize

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/achievesync"
	"github.com/agentstation/achievesync/internal/appcontext"
)

func TestExecuteInit(t *testing.T) {
	dir := t.TempDir()
	categories := filepath.Join(dir, "categories")
	require.NoError(t, os.MkdirAll(categories, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(categories, "minions.json"), []byte(`[{"id": 1, "name": "Wind-up Cursor"}]`), 0o644))

	app := &appcontext.Mock{
		ClientFunc: func(...achievesync.Option) (achievesync.Client, error) {
			return achievesync.New(
				achievesync.WithOwner("12345"),
				achievesync.WithPaths(filepath.Join(dir, "data"), categories, filepath.Join(dir, "imports")),
			)
		},
	}

	var out bytes.Buffer
	require.NoError(t, ExecuteInit(context.Background(), app, &out))
	assert.Contains(t, out.String(), "minions")
	assert.FileExists(t, filepath.Join(dir, "data", "12345", "minions.json.gz"))

	out.Reset()
	require.NoError(t, ExecuteInit(context.Background(), app, &out))
	assert.Equal(t, "All categories are already initialized.\n", out.String())
}
