package relay

import (
	"math"
	"net/http"
	"strings"
	"time"
)

const (
	// DefaultTimeoutMs is the deadline applied when a Description leaves TimeoutMs unset
	DefaultTimeoutMs = 20000
	// DefaultMethod is used when a Description has no method
	DefaultMethod = http.MethodGet

	// MaxTimeoutMs is the longest deadline a time.Duration can express
	MaxTimeoutMs = min(math.MaxInt64/int64(time.Millisecond), math.MaxInt)
)

// Description is the caller-supplied specification of one outbound request.
type Description struct {
	URL       string            `json:"url" yaml:"url"`
	Method    string            `json:"method,omitempty" yaml:"method,omitempty"`
	Headers   map[string]string `json:"headers,omitempty" yaml:"headers,omitempty"`
	Body      *string           `json:"body,omitempty" yaml:"body,omitempty"`
	TimeoutMs int               `json:"timeoutMs,omitempty" yaml:"timeoutMs,omitempty"`
}

func NewDescription(method, requestURL string) Description {
	return Description{
		Method:  method,
		URL:     requestURL,
		Headers: make(map[string]string),
	}
}

func (d Description) WithHeader(key, value string) Description {
	headers := make(map[string]string, len(d.Headers)+1)
	for k, v := range d.Headers {
		headers[k] = v
	}
	headers[key] = value
	d.Headers = headers
	return d
}

func (d Description) WithBody(body string) Description {
	d.Body = &body
	return d
}

func (d Description) WithTimeout(timeout time.Duration) Description {
	d.TimeoutMs = int(timeout.Milliseconds())
	return d
}

// NormalizedMethod returns the upper-cased method, defaulting to GET.
func (d Description) NormalizedMethod() string {
	if d.Method == "" {
		return DefaultMethod
	}
	return strings.ToUpper(d.Method)
}

// OutboundBody returns the payload to send, or nil when the method
// carries none. GET and HEAD never send a body.
func (d Description) OutboundBody() *string {
	switch d.NormalizedMethod() {
	case http.MethodGet, http.MethodHead:
		return nil
	}
	return d.Body
}

// DescriptionFromPayload coerces a loosely typed payload, such as a decoded
// JSON request body, into a Description. Missing or null fields fall back
// to their defaults; everything else is converted to its string form.
func DescriptionFromPayload(raw map[string]any) Description {
	d := Description{
		URL:     truthyString(raw["url"], ""),
		Method:  strings.ToUpper(truthyString(raw["method"], DefaultMethod)),
		Headers: NormalizeHeaders(raw["headers"]),
	}

	if body, ok := raw["body"]; ok && !isNil(body) {
		s := stringify(body)
		d.Body = &s
	}

	switch t := raw["timeoutMs"].(type) {
	case float64:
		d.TimeoutMs = clampTimeoutMs(t)
	case int:
		d.TimeoutMs = clampTimeoutMs(float64(t))
	case int64:
		d.TimeoutMs = clampTimeoutMs(float64(t))
	case uint64:
		d.TimeoutMs = clampTimeoutMs(float64(t))
	}

	return d
}

// clampTimeoutMs maps NaN and non-positive values to 0 (the default
// deadline) and caps the rest at MaxTimeoutMs.
func clampTimeoutMs(ms float64) int {
	switch {
	case math.IsNaN(ms), ms <= 0:
		return 0
	case ms >= float64(MaxTimeoutMs):
		return int(MaxTimeoutMs)
	}
	return int(ms)
}

// truthyString stringifies v, returning fallback for values that are nil,
// false, zero or empty.
func truthyString(v any, fallback string) string {
	if isNil(v) {
		return fallback
	}
	switch t := v.(type) {
	case string:
		if t == "" {
			return fallback
		}
	case bool:
		if !t {
			return fallback
		}
	case float64:
		if t == 0 {
			return fallback
		}
	case int:
		if t == 0 {
			return fallback
		}
	}
	return stringify(v)
}
