// Package tracker implements the remote achievement tracker API.
//
// Delivering a batch is a POST to
//
//	<base>/<owner>/<category>/<id>,<id>,...
//
// with a bearer token. 200 means the batch was recorded and 401 means the
// token was rejected. Any other answer is a retryable failure.
package tracker

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"github.com/agentstation/achievesync/internal/transport"
	"github.com/agentstation/achievesync/pkg/constants"
	"github.com/agentstation/achievesync/pkg/errors"
	"github.com/agentstation/achievesync/pkg/logging"
	"github.com/agentstation/achievesync/pkg/sync"
)

var _ sync.Remote = (*Client)(nil)

// Client submits delivered entries to the tracker.
type Client struct {
	baseURL   string
	transport *transport.Client
}

// New creates a tracker client. An empty baseURL selects the public tracker.
func New(baseURL, token string, opts ...transport.Option) *Client {
	if baseURL == "" {
		baseURL = constants.DefaultAPIURL
	}
	return &Client{
		baseURL:   strings.TrimRight(baseURL, "/"),
		transport: transport.NewBearer(token, opts...),
	}
}

// BaseURL returns the API base URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Endpoint returns the URL a batch of ids is posted to.
func (c *Client) Endpoint(owner, category string, ids []string) string {
	return c.baseURL + "/" + url.PathEscape(owner) + "/" + url.PathEscape(category) + "/" + strings.Join(ids, ",")
}

// Submit posts one batch of ids.
func (c *Client) Submit(ctx context.Context, owner, category string, ids []string) error {
	if !c.transport.HasCredential() {
		return &errors.AuthenticationError{
			Owner:   owner,
			Method:  "bearer",
			Message: "no bearer token configured",
			Err:     errors.ErrTokenRequired,
		}
	}
	if len(ids) == 0 {
		return errors.NewValidationError("ids", ids, "at least one id is required")
	}

	endpoint := c.Endpoint(owner, category, ids)
	logging.FromContext(ctx).Debug().
		Str("category", category).
		Int("count", len(ids)).
		Str("endpoint", endpoint).
		Msg("Submitting batch")

	resp, err := c.transport.Post(ctx, endpoint, nil)
	if err != nil {
		return errors.WrapAPI(category, 0, err)
	}

	body, err := transport.ReadBody(resp)
	if err != nil && resp.StatusCode == http.StatusOK {
		// The tracker already accepted the batch.
		return nil
	}

	switch resp.StatusCode {
	case http.StatusOK:
		return nil
	case http.StatusUnauthorized:
		return &errors.AuthenticationError{
			Owner:   owner,
			Method:  "bearer",
			Message: constants.ErrMsgInvalidToken,
			Err:     errors.ErrTokenInvalid,
		}
	default:
		message := strings.TrimSpace(string(body))
		if message == "" {
			message = resp.Status
		}
		return &errors.APIError{
			Category:   category,
			StatusCode: resp.StatusCode,
			Message:    message,
			Endpoint:   endpoint,
		}
	}
}
