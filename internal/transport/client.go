// Package transport provides the authenticated HTTP client used to talk to
// the achievement tracker.
package transport

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/agentstation/achievesync/pkg/constants"
	"github.com/agentstation/achievesync/pkg/errors"
)

// DefaultHTTPTimeout is the default timeout for HTTP requests.
var DefaultHTTPTimeout = constants.DefaultHTTPTimeout

// Client provides HTTP client functionality with authentication.
type Client struct {
	http      *http.Client
	auth      Authenticator
	token     string
	userAgent string
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.http = hc
	}
}

// WithTimeout sets the timeout of a single request.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.http.Timeout = timeout
	}
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(userAgent string) Option {
	return func(c *Client) {
		c.userAgent = userAgent
	}
}

// New creates a new transport client with the specified authenticator and token.
func New(auth Authenticator, token string, opts ...Option) *Client {
	if auth == nil {
		auth = &NoAuth{}
	}
	c := &Client{
		http:      &http.Client{Timeout: DefaultHTTPTimeout},
		auth:      auth,
		token:     token,
		userAgent: constants.UserAgent,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// NewBearer creates a client that sends token as a bearer credential.
func NewBearer(token string, opts ...Option) *Client {
	return New(&BearerAuth{}, token, opts...)
}

// HasCredential reports whether a token is configured.
func (c *Client) HasCredential() bool {
	return c.token != ""
}

// DoWithContext performs an HTTP request with authentication applied and context support.
func (c *Client) DoWithContext(ctx context.Context, req *http.Request) (*http.Response, error) {
	req = req.WithContext(ctx)
	c.auth.Apply(req, c.token)

	// Set common headers
	req.Header.Set("Accept", "application/json")
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
	if req.Method == http.MethodPost || req.Method == http.MethodPut || req.Method == http.MethodPatch {
		req.Header.Set("Content-Type", "application/json")
	}

	return c.http.Do(req)
}

// Post performs a POST request.
func (c *Client) Post(ctx context.Context, url string, body io.Reader) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, body)
	if err != nil {
		return nil, errors.WrapResource("create", "request", "POST "+url, err)
	}
	return c.DoWithContext(ctx, req)
}

