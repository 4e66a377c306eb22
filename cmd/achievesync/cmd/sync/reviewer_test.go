package sync

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/achievesync/pkg/entries"
	"github.com/agentstation/achievesync/pkg/logging"
)

func discarded(t *testing.T) entries.Entries {
	t.Helper()
	list, err := entries.Decode([]byte(`[{"id":42,"name":"Nope","patch":"6.1"},{"name":"Ghost & Co"}]`))
	require.NoError(t, err)
	return list
}

func TestReviewerListsOnYes(t *testing.T) {
	var out bytes.Buffer
	r := NewReviewer(strings.NewReader("y\n"), &out, true, nil)

	require.NoError(t, r.Review(context.Background(), "quests", discarded(t)))
	assert.Contains(t, out.String(), "2 entries not found for category quests")
	assert.Contains(t, out.String(), `  - {"id":42,"name":"Nope","patch":"6.1","added":false}`+"\n")
	assert.Contains(t, out.String(), `  - {"name":"Ghost & Co","id":null,"added":false}`+"\n")
}

func TestReviewerSkipsListing(t *testing.T) {
	for _, answer := range []string{"n\n", "\n", ""} {
		var out bytes.Buffer
		r := NewReviewer(strings.NewReader(answer), &out, true, nil)

		require.NoError(t, r.Review(context.Background(), "quests", discarded(t)))
		assert.NotContains(t, out.String(), `"Nope"`, "answer %q", answer)
	}
}

func TestReviewerNonInteractiveLogs(t *testing.T) {
	tl := logging.NewTestLogger(t)

	var out bytes.Buffer
	r := NewReviewer(strings.NewReader("y\n"), &out, false, tl.Logger)

	require.NoError(t, r.Review(context.Background(), "quests", discarded(t)))
	assert.Empty(t, out.String())
	tl.AssertContains(t, "Imports not found")
}

func TestReviewerCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	r := NewReviewer(strings.NewReader("y\n"), &bytes.Buffer{}, true, nil)
	assert.ErrorIs(t, r.Review(ctx, "quests", discarded(t)), context.Canceled)
}
