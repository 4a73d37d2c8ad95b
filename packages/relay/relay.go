package relay

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	neturl "net/url"
	"strconv"
	"strings"
	"time"

	"github.com/abdul-hamid-achik/fetchagent/packages/logging"
)

const (
	// DefaultMaxRedirects is the maximum number of redirects to follow
	DefaultMaxRedirects = 10
	// MissingURLMessage is the error reported when a Description has no URL
	MissingURLMessage = "Missing url"
)

var (
	// ErrMissingURL is reported when a Description has no URL
	ErrMissingURL = errors.New(MissingURLMessage)
	// ErrDeadline is the cancellation cause attached to the per-call deadline.
	ErrDeadline = errors.New("relay deadline exceeded")
)

// Transport issues one HTTP request. *http.Client satisfies it. The
// request context carries the deadline and must be honored.
type Transport interface {
	Do(req *http.Request) (*http.Response, error)
}

// TransportFunc adapts a function to the Transport interface.
type TransportFunc func(req *http.Request) (*http.Response, error)

func (f TransportFunc) Do(req *http.Request) (*http.Response, error) {
	return f(req)
}

type Relay struct {
	transport      Transport
	logger         *slog.Logger
	defaultTimeout time.Duration
	maxRedirects   int
	validateSSL    bool
	proxyURL       string
	defaultHeaders map[string]string
}

type Option func(*Relay)

func New(opts ...Option) *Relay {
	r := &Relay{
		logger:         logging.Discard(),
		defaultTimeout: DefaultTimeoutMs * time.Millisecond,
		maxRedirects:   DefaultMaxRedirects,
		validateSSL:    true,
		defaultHeaders: make(map[string]string),
	}

	for _, opt := range opts {
		opt(r)
	}

	if r.transport == nil {
		r.transport = r.newHTTPClient()
	}

	return r
}

// newHTTPClient builds the default transport. Pooling is left to the
// standard library defaults; the only deadline is the per-call context.
func (r *Relay) newHTTPClient() *http.Client {
	transport := http.DefaultTransport.(*http.Transport).Clone()

	if !r.validateSSL {
		transport.TLSClientConfig = &tls.Config{
			InsecureSkipVerify: true,
		}
	}

	if r.proxyURL != "" {
		proxyURL, err := neturl.Parse(r.proxyURL)
		if err == nil {
			transport.Proxy = http.ProxyURL(proxyURL)
		} else {
			r.logger.Warn("ignoring invalid proxy url", "proxy", r.proxyURL, "error", err)
		}
	}

	maxRedirects := r.maxRedirects
	return &http.Client{
		Transport: transport,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) >= maxRedirects {
				return fmt.Errorf("stopped after %d redirects", maxRedirects)
			}
			return nil
		},
	}
}

// WithTransport replaces the network transport.
func WithTransport(t Transport) Option {
	return func(r *Relay) {
		r.transport = t
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(r *Relay) {
		if logger != nil {
			r.logger = logger.With("component", "relay")
		}
	}
}

// WithDefaultTimeout sets the deadline used when a Description has none
func WithDefaultTimeout(d time.Duration) Option {
	return func(r *Relay) {
		if d > 0 {
			r.defaultTimeout = d
		}
	}
}

func WithMaxRedirects(max int) Option {
	return func(r *Relay) {
		if max > 0 {
			r.maxRedirects = max
		}
	}
}

// WithValidateSSL enables or disables certificate validation on the default transport
func WithValidateSSL(validate bool) Option {
	return func(r *Relay) {
		r.validateSSL = validate
	}
}

// WithProxy sets the proxy URL on the default transport
func WithProxy(proxyURL string) Option {
	return func(r *Relay) {
		r.proxyURL = proxyURL
	}
}

// WithDefaultHeaders sets headers sent with every request. Headers in the
// Description take precedence.
func WithDefaultHeaders(headers map[string]string) Option {
	return func(r *Relay) {
		for k, v := range headers {
			r.defaultHeaders[k] = v
		}
	}
}

// Execute issues the described request and reports its outcome. It always
// returns a Result; failures are encoded in it rather than returned.
func (r *Relay) Execute(ctx context.Context, desc Description) (res Result) {
	if desc.URL == "" {
		r.logger.Debug("rejecting request without url")
		return Failure(StatusTextBadRequest, ErrMissingURL, 0)
	}

	if ctx == nil {
		ctx = context.Background()
	}

	method := desc.NormalizedMethod()
	timeout := r.timeoutFor(desc)
	logger := r.logger.With("method", method, "url", desc.URL)

	start := time.Now()
	ctx, cancel := context.WithTimeoutCause(ctx, timeout, ErrDeadline)
	defer cancel()

	defer func() {
		if p := recover(); p != nil {
			logger.Error("relay panicked", "panic", p)
			res = Failure(StatusTextFetchError, fmt.Errorf("relay panic: %v", p), elapsedMs(start))
		}
	}()

	logger.Debug("relaying request", "timeout", timeout)

	resp, body, err := r.roundTrip(ctx, method, desc)
	durationMs := elapsedMs(start)

	if err != nil {
		if errors.Is(context.Cause(ctx), ErrDeadline) {
			logger.Warn("request timed out", "timeout", timeout, "duration_ms", durationMs)
			return Failure(StatusTextTimeout, fmt.Errorf("request timed out after %s: %w", timeout, err), durationMs)
		}
		logger.Warn("request failed", "error", err, "duration_ms", durationMs)
		return Failure(StatusTextFetchError, err, durationMs)
	}

	headers := collectHeaders(resp.Header)
	kind := ClassifyContentType(resp.Header.Get("Content-Type"))
	data, text := decodeBody(kind, body)

	logger.Debug("request completed", "status", resp.StatusCode, "body_kind", kind.String(), "duration_ms", durationMs)

	return Result{
		OK:         true,
		Status:     resp.StatusCode,
		StatusText: reasonPhrase(resp),
		Headers:    headers,
		Data:       data,
		Text:       text,
		DurationMs: durationMs,
	}
}

// roundTrip sends the request and reads the full body under ctx.
func (r *Relay) roundTrip(ctx context.Context, method string, desc Description) (*http.Response, []byte, error) {
	var body io.Reader
	if payload := desc.OutboundBody(); payload != nil {
		body = strings.NewReader(*payload)
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, desc.URL, body)
	if err != nil {
		return nil, nil, err
	}

	for k, v := range r.defaultHeaders {
		httpReq.Header.Set(k, v)
	}
	for k, v := range desc.Headers {
		httpReq.Header.Set(k, v)
	}

	httpResp, err := r.transport.Do(httpReq)
	if err != nil {
		return nil, nil, err
	}
	if httpResp.Body == nil {
		return httpResp, nil, nil
	}
	defer httpResp.Body.Close()

	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, nil, fmt.Errorf("read body: %w", err)
	}

	return httpResp, respBody, nil
}

func (r *Relay) timeoutFor(desc Description) time.Duration {
	if desc.TimeoutMs > 0 {
		return time.Duration(min(int64(desc.TimeoutMs), MaxTimeoutMs)) * time.Millisecond
	}
	return r.defaultTimeout
}

// reasonPhrase strips the status code from resp.Status.
func reasonPhrase(resp *http.Response) string {
	code := strconv.Itoa(resp.StatusCode)
	if phrase := strings.TrimSpace(strings.TrimPrefix(resp.Status, code)); phrase != "" {
		return phrase
	}
	return http.StatusText(resp.StatusCode)
}

func elapsedMs(start time.Time) int64 {
	return time.Since(start).Milliseconds()
}
