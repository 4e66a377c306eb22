package transport

import (
	"io"
	"net/http"

	"github.com/agentstation/achievesync/pkg/errors"
	"github.com/agentstation/achievesync/pkg/logging"
)

// maxErrorBody bounds how much of an error response is kept for diagnostics.
const maxErrorBody = 4 << 10

// ReadBody reads and closes the response body. Bodies are truncated to a
// few kilobytes; they are only used in error messages.
func ReadBody(resp *http.Response) ([]byte, error) {
	defer func() {
		if err := resp.Body.Close(); err != nil {
			logging.Warn().Err(err).Msg("Failed to close response body")
		}
	}()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if err != nil {
		return nil, errors.WrapIO("read", "response body", err)
	}
	return body, nil
}
