package transport

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClientPostAppliesHeaders(t *testing.T) {
	var got *http.Request
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Clone(context.Background())
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := NewBearer("secret", WithUserAgent("achievesync-test"))
	resp, err := c.Post(context.Background(), srv.URL+"/x", nil)
	require.NoError(t, err)
	_, err = ReadBody(resp)
	require.NoError(t, err)

	require.NotNil(t, got)
	assert.Equal(t, http.MethodPost, got.Method)
	assert.Equal(t, "Bearer secret", got.Header.Get("Authorization"))
	assert.Equal(t, "application/json", got.Header.Get("Content-Type"))
	assert.Equal(t, "application/json", got.Header.Get("Accept"))
	assert.Equal(t, "achievesync-test", got.Header.Get("User-Agent"))
}

func TestClientHonorsTimeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	c := NewBearer("secret", WithTimeout(20*time.Millisecond))
	_, err := c.Post(context.Background(), srv.URL, nil)
	assert.Error(t, err)
}

func TestReadBodyTruncates(t *testing.T) {
	resp := &http.Response{Body: io.NopCloser(strings.NewReader(strings.Repeat("x", 10000)))}

	body, err := ReadBody(resp)
	require.NoError(t, err)
	assert.Len(t, body, maxErrorBody)
}

func TestHasCredential(t *testing.T) {
	assert.True(t, NewBearer("t").HasCredential())
	assert.False(t, New(nil, "").HasCredential())
}
