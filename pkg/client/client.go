// Package client talks to the finance-app HTTP API on behalf of a signed-in
// user. It implements reconciler.Source.
package client

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"finance-app-go/pkg/reconciler"
)

type Client struct {
	baseURL string
	token   string
	http    *http.Client
}

type Option func(*Client)

func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) { c.http = httpClient }
}

func New(baseURL, token string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		http:    &http.Client{Timeout: 10 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// CodeSubscriberNotFound is the error code the server uses when no
// subscription row exists.
const CodeSubscriberNotFound = "subscriber_not_found"

// APIError is a non-2xx answer decoded from the server's error envelope.
type APIError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *APIError) Error() string {
	if e.Code == "" {
		return fmt.Sprintf("api: status %d", e.StatusCode)
	}
	return fmt.Sprintf("api: status %d: %s: %s", e.StatusCode, e.Code, e.Message)
}

// FetchStatus reads the stored subscription row. A 404 means no row only when
// the server says so with CodeSubscriberNotFound; any other 404 is an error.
func (c *Client) FetchStatus(ctx context.Context) (*reconciler.Status, error) {
	return c.status(ctx, http.MethodGet, "/api/subscription")
}

// CheckStatus asks the server to re-derive the status from storage,
// bypassing its cache.
func (c *Client) CheckStatus(ctx context.Context) (*reconciler.Status, error) {
	return c.status(ctx, http.MethodPost, "/api/subscription/check")
}

func (c *Client) Cancel(ctx context.Context) (*reconciler.Status, error) {
	return c.status(ctx, http.MethodPost, "/api/subscription/cancel")
}

func (c *Client) status(ctx context.Context, method, path string) (*reconciler.Status, error) {
	var status reconciler.Status
	found, err := c.do(ctx, method, path, &status)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, nil
	}
	return &status, nil
}

func (c *Client) do(ctx context.Context, method, path string, out interface{}) (bool, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, nil)
	if err != nil {
		return false, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return false, fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := decodeError(resp)
		if apiErr.StatusCode == http.StatusNotFound && apiErr.Code == CodeSubscriberNotFound {
			return false, nil
		}
		return false, apiErr
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return false, fmt.Errorf("decode %s: %w", path, err)
	}
	return true, nil
}

func decodeError(resp *http.Response) *APIError {
	apiErr := &APIError{StatusCode: resp.StatusCode}
	var envelope struct {
		Error struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.NewDecoder(io.LimitReader(resp.Body, 64<<10)).Decode(&envelope); err == nil {
		apiErr.Code = envelope.Error.Code
		apiErr.Message = envelope.Error.Message
	}
	return apiErr
}
