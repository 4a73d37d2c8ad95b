// Package client calls a remote fetchagent server. Whatever goes wrong
// on the way there is reported as a "Network Error" Result, never as an
// error value.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net/http"
	"strings"
	"time"

	"github.com/abdul-hamid-achik/fetchagent/packages/logging"
	"github.com/abdul-hamid-achik/fetchagent/packages/relay"
	"github.com/abdul-hamid-achik/fetchagent/packages/server"
)

// DefaultTimeoutMargin is how long the client waits past the request's own
// deadline before giving up on the server, so the server gets to report a
// Timeout first.
const DefaultTimeoutMargin = 10 * time.Second

type Client struct {
	baseURL    string
	httpClient *http.Client
	margin     time.Duration
	logger     *slog.Logger
}

type Option func(*Client)

// WithHTTPClient replaces the client used to reach the server.
func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) {
		if c != nil {
			cl.httpClient = c
		}
	}
}

// WithTimeoutMargin sets the grace period added to each request's deadline.
func WithTimeoutMargin(d time.Duration) Option {
	return func(cl *Client) {
		if d >= 0 {
			cl.margin = d
		}
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(cl *Client) {
		if logger != nil {
			cl.logger = logger.With("component", "client")
		}
	}
}

func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{},
		margin:     DefaultTimeoutMargin,
		logger:     logging.Discard(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Fetch asks the server to perform desc and returns the server's Result.
func (c *Client) Fetch(ctx context.Context, desc relay.Description) relay.Result {
	res, err := c.post(ctx, desc)
	if err != nil {
		c.logger.Warn("agent call failed", "url", c.baseURL, "error", err)
		return relay.Failure(relay.StatusTextNetworkError, err, 0)
	}
	return res
}

// Execute lets a Client stand in wherever a local relay is accepted.
func (c *Client) Execute(ctx context.Context, desc relay.Description) relay.Result {
	return c.Fetch(ctx, desc)
}

func (c *Client) post(ctx context.Context, desc relay.Description) (relay.Result, error) {
	var res relay.Result

	payload, err := json.Marshal(desc)
	if err != nil {
		return res, fmt.Errorf("encode request: %w", err)
	}

	if timeout, ok := c.callTimeout(desc); ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+server.AgentPath, bytes.NewReader(payload))
	if err != nil {
		return res, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return res, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return res, fmt.Errorf("read reply: %w", err)
	}

	if err := json.Unmarshal(body, &res); err != nil {
		return relay.Result{}, fmt.Errorf("decode reply (status %d): %w", resp.StatusCode, err)
	}
	if res.Headers == nil {
		res.Headers = map[string]string{}
	}

	return res, nil
}

// callTimeout bounds one call to the server by the deadline the server will
// apply to desc plus the margin. Deadlines too long to extend get none.
func (c *Client) callTimeout(desc relay.Description) (time.Duration, bool) {
	ms := int64(relay.DefaultTimeoutMs)
	if desc.TimeoutMs > 0 {
		ms = min(int64(desc.TimeoutMs), relay.MaxTimeoutMs)
	}
	timeout := time.Duration(ms) * time.Millisecond
	if timeout > math.MaxInt64-c.margin {
		return 0, false
	}
	return timeout + c.margin, true
}
