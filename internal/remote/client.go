// Package remote implements HTTP/JSON clients for the identity provider and
// the profile service. Both are treated as external collaborators: this
// package imposes no timeout or retry policy of its own, the caller's context
// and http.Client govern both.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/gofrs/uuid/v5"
	"go.uber.org/zap"

	"github.com/campusgrid/authstate/internal/errs"
)

// TokenSource supplies the current access token for request authorization.
// An empty string sends the request unauthenticated.
type TokenSource func() string

const maxResponseBody = 1 << 20

// httpCaller carries the plumbing shared by both clients.
type httpCaller struct {
	baseURL string
	httpc   *http.Client
	token   TokenSource
	log     *zap.Logger
}

func newHTTPCaller(baseURL string, httpc *http.Client, token TokenSource, log *zap.Logger) httpCaller {
	if httpc == nil {
		httpc = http.DefaultClient
	}
	if token == nil {
		token = func() string { return "" }
	}
	if log == nil {
		log = zap.NewNop()
	}
	return httpCaller{baseURL: baseURL, httpc: httpc, token: token, log: log}
}

// call issues one JSON request and returns the response body for 2xx
// statuses. 401/403 map to errs.ErrUnauthorized, everything else that fails
// maps to errs.ErrRemoteUnavailable.
func (c *httpCaller) call(ctx context.Context, method, path string, body any) ([]byte, error) {
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		rd = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, rd)
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if tok := c.token(); tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}
	if rid, err := uuid.NewV4(); err == nil {
		req.Header.Set("X-Request-ID", rid.String())
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errs.ErrRemoteUnavailable, err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errs.ErrRemoteUnavailable, err)
	}

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return data, nil
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, fmt.Errorf("%w: %s %s: status %d", errs.ErrUnauthorized, method, path, resp.StatusCode)
	default:
		return nil, fmt.Errorf("%w: %s %s: status %d", errs.ErrRemoteUnavailable, method, path, resp.StatusCode)
	}
}
