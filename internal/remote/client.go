// Package remote talks to the hosted state API that backs the shared document store.
//
// The API keeps one state document per hotel:
//
//	GET  {base}/ping   liveness, any 2xx is fine
//	GET  {base}/state  {"state": {...}} or {"state": null}
//	POST {base}/state  body {"state": {...}}
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime"
	"net/http"
	"strings"
	"time"

	"github.com/dyluth/frontdesk/pkg/desk"
	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"
)

// ErrNotConfigured is returned by every call when no API base URL is set.
var ErrNotConfigured = errors.Base("no remote API configured")

// DefaultTimeout bounds a single request when the caller's HTTP client has none.
const DefaultTimeout = 10 * time.Second

// maxErrorBody caps how much of a failed response body is kept for the error.
const maxErrorBody = 512

// Client is a remote state API client.
type Client struct {
	base string
	http *http.Client
}

// New creates a client for the API rooted at base. A nil httpClient uses one
// with DefaultTimeout. An empty base yields a client whose calls all return
// ErrNotConfigured.
func New(base string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: DefaultTimeout}
	}
	return &Client{
		base: strings.TrimRight(base, "/"),
		http: httpClient,
	}
}

// Base returns the API base URL.
func (c *Client) Base() string {
	return c.base
}

// Configured reports whether the client has a base URL.
func (c *Client) Configured() bool {
	return c != nil && c.base != ""
}

type stateBody struct {
	State *desk.State `json:"state"`
}

// Ping checks the API is reachable. Any 2xx response counts.
func (c *Client) Ping(ctx context.Context) error {
	res, err := c.do(ctx, http.MethodGet, "/ping", nil)
	if err != nil {
		return err
	}
	defer res.Body.Close()
	_, _ = io.Copy(io.Discard, res.Body)
	return nil
}

// LoadState fetches the stored state. Returns (nil, nil) when the API has none.
func (c *Client) LoadState(ctx context.Context) (*desk.State, error) {
	res, err := c.do(ctx, http.MethodGet, "/state", nil)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()

	var body stateBody
	if err := decodeJSON(res, &body); err != nil {
		return nil, errors.Errorf("failed to read state from %s: %w", c.base, err)
	}
	return body.State, nil
}

// SaveState replaces the stored state.
func (c *Client) SaveState(ctx context.Context, s *desk.State) error {
	payload, err := json.Marshal(stateBody{State: s})
	if err != nil {
		return errors.Errorf("failed to marshal state: %w", err)
	}

	res, err := c.do(ctx, http.MethodPost, "/state", payload)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	var ack map[string]any
	if err := decodeJSON(res, &ack); err != nil {
		return errors.Errorf("failed to save state to %s: %w", c.base, err)
	}
	return nil
}

// do sends a request and returns the response for any 2xx status.
// Other statuses are turned into errors carrying the start of the body.
func (c *Client) do(ctx context.Context, method, path string, body []byte) (*http.Response, error) {
	if !c.Configured() {
		return nil, errors.WithStack(ErrNotConfigured)
	}

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.base+path, reader)
	if err != nil {
		return nil, errors.Errorf("failed to build %s %s request: %w", method, path, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	res, err := c.http.Do(req)
	if err != nil {
		return nil, errors.Errorf("%s %s failed: %w", method, path, err)
	}

	if res.StatusCode < 200 || res.StatusCode > 299 {
		defer res.Body.Close()
		snippet, _ := io.ReadAll(io.LimitReader(res.Body, maxErrorBody))
		zerolog.Ctx(ctx).Debug().
			Str("method", method).
			Str("path", path).
			Int("status", res.StatusCode).
			Msg("remote API returned an error status")
		return nil, errors.WithDetails(
			errors.Errorf("%s %s returned %d", method, path, res.StatusCode),
			"body", strings.TrimSpace(string(snippet)),
		)
	}
	return res, nil
}

// decodeJSON rejects non-JSON responses before decoding. Static hosting
// without the API answers /state with an HTML page and a 200.
func decodeJSON(res *http.Response, v any) error {
	mediaType, _, _ := mime.ParseMediaType(res.Header.Get("Content-Type"))
	if mediaType != "application/json" {
		snippet, _ := io.ReadAll(io.LimitReader(res.Body, maxErrorBody))
		return errors.WithDetails(
			errors.Errorf("server returned non-JSON response (%s)", res.Header.Get("Content-Type")),
			"body", strings.TrimSpace(string(snippet)),
		)
	}
	if err := json.NewDecoder(res.Body).Decode(v); err != nil {
		return errors.Errorf("failed to decode response: %w", err)
	}
	return nil
}
