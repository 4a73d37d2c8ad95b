package relay

import (
	"bytes"
	"encoding/json"
	"reflect"
	"strings"
)

// Status texts used when the round trip did not complete
const (
	StatusTextBadRequest = "BadRequest"
	StatusTextTimeout    = "Timeout"
	StatusTextFetchError = "FetchError"
	// StatusTextNetworkError is synthesized by callers across a process
	// boundary when their own call to the relay fails.
	StatusTextNetworkError = "Network Error"
)

// Result is the uniform outcome of one relay call. OK reports whether the
// network exchange completed; it says nothing about the HTTP status.
type Result struct {
	OK         bool              `json:"ok"`
	Status     int               `json:"status"`
	StatusText string            `json:"statusText"`
	Headers    map[string]string `json:"headers"`
	Data       any               `json:"data,omitempty"`
	Text       *string           `json:"text,omitempty"`
	Error      string            `json:"error,omitempty"`
	DurationMs int64             `json:"durationMs"`
}

// Failure builds a Result for an exchange that never completed.
func Failure(statusText string, err error, durationMs int64) Result {
	msg := statusText
	if err != nil {
		msg = err.Error()
	}
	return Result{
		OK:         false,
		Status:     0,
		StatusText: statusText,
		Headers:    map[string]string{},
		Error:      msg,
		DurationMs: durationMs,
	}
}

// UnmarshalJSON keeps a "data": null member as decoded data rather than
// dropping it, so a Result survives an encode/decode round trip.
func (r *Result) UnmarshalJSON(b []byte) error {
	type plain Result
	var wire struct {
		plain
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(b, &wire); err != nil {
		return err
	}

	*r = Result(wire.plain)
	switch {
	case wire.Data == nil:
		r.Data = nil
	case bytes.Equal(bytes.TrimSpace(wire.Data), jsonNull):
		r.Data = jsonNull
	default:
		var data any
		if err := json.Unmarshal(wire.Data, &data); err != nil {
			return err
		}
		r.Data = data
	}
	return nil
}

func (r Result) HasData() bool {
	return r.Data != nil
}

func (r Result) HasText() bool {
	return r.Text != nil
}

// TextString returns the text body, or "" when there is none.
func (r Result) TextString() string {
	if r.Text == nil {
		return ""
	}
	return *r.Text
}

func (r Result) IsSuccess() bool {
	return r.OK && r.Status >= 200 && r.Status < 300
}

func (r Result) IsClientError() bool {
	return r.OK && r.Status >= 400 && r.Status < 500
}

func (r Result) IsServerError() bool {
	return r.OK && r.Status >= 500
}

// Header looks up a response header by name, ignoring case.
func (r Result) Header(key string) string {
	if v, ok := r.Headers[key]; ok {
		return v
	}
	for k, v := range r.Headers {
		if strings.EqualFold(k, key) {
			return v
		}
	}
	return ""
}

// Equivalent reports whether two Results are identical apart from timing.
func (r Result) Equivalent(other Result) bool {
	r.DurationMs = 0
	other.DurationMs = 0
	return reflect.DeepEqual(r, other)
}
