// Package apiclient is a stateless client for the Stacks ledger REST API.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/Klingon-tech/walletsim/internal/errs"
	klog "github.com/Klingon-tech/walletsim/internal/log"
)

// DefaultTimeout bounds every call when no timeout is configured.
const DefaultTimeout = 30 * time.Second

// maxBodySize caps how much of a response body is read.
const maxBodySize = 4 << 20

// maxErrorBody caps the body text kept on a NetworkError.
const maxErrorBody = 512

// Client talks to one API base URL.
type Client struct {
	baseURL string
	http    *http.Client
	timeout time.Duration
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

// WithTimeout sets the per-call timeout. Zero disables it.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.timeout = d }
}

// New creates a client for baseURL, e.g. "https://api.testnet.hiro.so".
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{},
		timeout: DefaultTimeout,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// BaseURL returns the API base URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// WithCallTimeout returns a copy of the client using timeout d.
func (c *Client) WithCallTimeout(d time.Duration) *Client {
	cp := *c
	cp.timeout = d
	return &cp
}

// response is a fully read HTTP response.
type response struct {
	status int
	body   []byte
	url    string
}

func (c *Client) do(ctx context.Context, method, path, contentType string, body []byte) (*response, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}
	url := c.baseURL + path

	var rd io.Reader
	if body != nil {
		rd = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, rd)
	if err != nil {
		return nil, &errs.NetworkError{URL: url, Err: err}
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) && c.timeout > 0 {
			err = fmt.Errorf("timed out after %s: %w", c.timeout, err)
		}
		klog.API.Debug().Str("method", method).Str("url", url).Err(err).Msg("request failed")
		return nil, &errs.NetworkError{URL: url, Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, &errs.NetworkError{StatusCode: resp.StatusCode, URL: url, Err: fmt.Errorf("read body: %w", err)}
	}
	klog.API.Debug().
		Str("method", method).
		Str("url", url).
		Int("status", resp.StatusCode).
		Dur("duration", time.Since(start)).
		Msg("request")
	return &response{status: resp.StatusCode, body: data, url: url}, nil
}

func (r *response) ok() bool {
	return r.status >= 200 && r.status < 300
}

func (r *response) networkError() *errs.NetworkError {
	body := strings.TrimSpace(string(r.body))
	if len(body) > maxErrorBody {
		body = body[:maxErrorBody] + "..."
	}
	return &errs.NetworkError{StatusCode: r.status, URL: r.url, Body: body}
}

// getJSON performs a GET and decodes a 2xx JSON body into out.
func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	resp, err := c.do(ctx, http.MethodGet, path, "", nil)
	if err != nil {
		return err
	}
	return resp.decode(out)
}

// postJSON performs a POST with a JSON body and decodes a 2xx reply.
func (c *Client) postJSON(ctx context.Context, path string, in, out any) error {
	body, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}
	resp, err := c.do(ctx, http.MethodPost, path, "application/json", body)
	if err != nil {
		return err
	}
	return resp.decode(out)
}

func (r *response) decode(out any) error {
	if !r.ok() {
		return r.networkError()
	}
	if err := json.Unmarshal(r.body, out); err != nil {
		return &errs.NetworkError{StatusCode: r.status, URL: r.url, Body: string(r.body), Err: fmt.Errorf("decode response: %w", err)}
	}
	return nil
}
