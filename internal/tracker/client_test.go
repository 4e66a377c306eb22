package tracker_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/achievesync/internal/tracker"
	"github.com/agentstation/achievesync/internal/transport"
	"github.com/agentstation/achievesync/pkg/errors"
)

func newServer(t *testing.T, status int, body string, seen *[]*http.Request) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if seen != nil {
			*seen = append(*seen, r.Clone(context.Background()))
		}
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestSubmitSuccess(t *testing.T) {
	var seen []*http.Request
	srv := newServer(t, http.StatusOK, `{"ok":true}`, &seen)

	c := tracker.New(srv.URL+"/", "token-123")
	require.NoError(t, c.Submit(context.Background(), "12345", "quests", []string{"1", "2", "30"}))

	require.Len(t, seen, 1)
	assert.Equal(t, http.MethodPost, seen[0].Method)
	assert.Equal(t, "/12345/quests/1,2,30", seen[0].URL.Path)
	assert.Equal(t, "Bearer token-123", seen[0].Header.Get("Authorization"))
}

func TestSubmitUnauthorized(t *testing.T) {
	srv := newServer(t, http.StatusUnauthorized, "invalid token", nil)

	err := tracker.New(srv.URL, "bad").Submit(context.Background(), "12345", "quests", []string{"1"})
	require.Error(t, err)
	assert.True(t, errors.IsAuthenticationError(err))
	assert.ErrorIs(t, err, errors.ErrTokenInvalid)
}

func TestSubmitRetryableFailures(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		check   func(error) bool
		message string
	}{
		{"server error", http.StatusInternalServerError, "boom", errors.IsTrackerUnavailable, "boom"},
		{"rate limited", http.StatusTooManyRequests, "", errors.IsRateLimited, "429 Too Many Requests"},
		{"bad request", http.StatusBadRequest, "unknown id", func(error) bool { return true }, "unknown id"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newServer(t, tt.status, tt.body, nil)

			err := tracker.New(srv.URL, "token").Submit(context.Background(), "12345", "quests", []string{"1"})
			require.Error(t, err)
			assert.False(t, errors.IsAuthenticationError(err))
			assert.True(t, tt.check(err))

			var apiErr *errors.APIError
			require.ErrorAs(t, err, &apiErr)
			assert.Equal(t, tt.status, apiErr.StatusCode)
			assert.Equal(t, "quests", apiErr.Category)
			assert.Equal(t, tt.message, apiErr.Message)
		})
	}
}

func TestSubmitTransportError(t *testing.T) {
	srv := newServer(t, http.StatusOK, "", nil)
	url := srv.URL
	srv.Close()

	err := tracker.New(url, "token").Submit(context.Background(), "12345", "quests", []string{"1"})
	var apiErr *errors.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, 0, apiErr.StatusCode)
}

func TestSubmitTimeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	c := tracker.New(srv.URL, "token", transport.WithTimeout(20*time.Millisecond))
	err := c.Submit(context.Background(), "12345", "quests", []string{"1"})
	var apiErr *errors.APIError
	assert.ErrorAs(t, err, &apiErr)
}

func TestSubmitRequiresToken(t *testing.T) {
	err := tracker.New("http://127.0.0.1:0", "").Submit(context.Background(), "12345", "quests", []string{"1"})
	assert.ErrorIs(t, err, errors.ErrTokenRequired)
}

func TestEndpoint(t *testing.T) {
	c := tracker.New("", "token")
	assert.Equal(t, "https://www.lalachievements.com/api/user/char", c.BaseURL())
	assert.Equal(t,
		"https://www.lalachievements.com/api/user/char/12345/field%20notes/1,2",
		c.Endpoint("12345", "field notes", []string{"1", "2"}))
}
