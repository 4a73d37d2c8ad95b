package relay

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func stubResponse(status int, contentType, body string) *http.Response {
	header := http.Header{}
	if contentType != "" {
		header.Set("Content-Type", contentType)
	}
	return &http.Response{
		StatusCode: status,
		Status:     fmt.Sprintf("%d %s", status, http.StatusText(status)),
		Header:     header,
		Body:       io.NopCloser(strings.NewReader(body)),
	}
}

func staticTransport(status int, contentType, body string) TransportFunc {
	return func(req *http.Request) (*http.Response, error) {
		return stubResponse(status, contentType, body), nil
	}
}

func assertStatusInvariant(t *testing.T, res Result) {
	t.Helper()
	assert.Equal(t, res.Status == 0, !res.OK, "status 0 must coincide with ok=false")
	if res.OK {
		assert.True(t, res.HasData() != res.HasText(), "exactly one of data/text when ok")
		assert.Empty(t, res.Error)
	} else {
		assert.False(t, res.HasData())
		assert.False(t, res.HasText())
		assert.NotEmpty(t, res.Error)
	}
	assert.NotNil(t, res.Headers)
}

func TestExecute_MissingURL(t *testing.T) {
	var calls atomic.Int32
	r := New(WithTransport(TransportFunc(func(req *http.Request) (*http.Response, error) {
		calls.Add(1)
		return stubResponse(200, "text/plain", "unexpected"), nil
	})))

	res := r.Execute(context.Background(), Description{Method: "POST"})

	assert.False(t, res.OK)
	assert.Equal(t, 0, res.Status)
	assert.Equal(t, StatusTextBadRequest, res.StatusText)
	assert.Equal(t, "Missing url", res.Error)
	assert.Equal(t, int64(0), res.DurationMs)
	assert.Empty(t, res.Headers)
	assert.Equal(t, int32(0), calls.Load())
	assertStatusInvariant(t, res)
}

func TestExecute_BodyDroppedForGetAndHead(t *testing.T) {
	for _, method := range []string{"GET", "get", "HEAD", "head"} {
		t.Run(method, func(t *testing.T) {
			var gotBody io.ReadCloser
			var gotMethod string
			r := New(WithTransport(TransportFunc(func(req *http.Request) (*http.Response, error) {
				gotBody = req.Body
				gotMethod = req.Method
				return stubResponse(200, "text/plain", ""), nil
			})))

			desc := NewDescription(method, "http://example.test/").WithBody("should not be sent")
			res := r.Execute(context.Background(), desc)

			require.True(t, res.OK)
			assert.Equal(t, strings.ToUpper(method), gotMethod)
			assert.True(t, gotBody == nil || gotBody == http.NoBody, "body must not reach the transport")
		})
	}
}

func TestExecute_PostSendsBodyVerbatim(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "POST", r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		body, _ := io.ReadAll(r.Body)
		assert.Equal(t, `{"name": "test"}`, string(body))
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"id": 123}`))
	}))
	defer server.Close()

	desc := NewDescription("post", server.URL).
		WithHeader("Content-Type", "application/json").
		WithBody(`{"name": "test"}`)

	res := New().Execute(context.Background(), desc)

	require.True(t, res.OK)
	assert.Equal(t, 201, res.Status)
	assert.Equal(t, "Created", res.StatusText)
	assert.Equal(t, map[string]any{"id": float64(123)}, res.Data)
	assert.Nil(t, res.Text)
	assertStatusInvariant(t, res)
}

func TestExecute_DecodesJSON(t *testing.T) {
	r := New(WithTransport(staticTransport(200, "application/json", `{"a":1}`)))

	res := r.Execute(context.Background(), NewDescription("GET", "http://example.test/"))

	require.True(t, res.OK)
	assert.Equal(t, 200, res.Status)
	assert.Equal(t, "OK", res.StatusText)
	assert.Equal(t, map[string]any{"a": float64(1)}, res.Data)
	assert.False(t, res.HasText())
	assertStatusInvariant(t, res)
}

func TestExecute_UnparsableJSONFallsBackToText(t *testing.T) {
	r := New(WithTransport(staticTransport(200, "application/json; charset=utf-8", "not-json")))

	res := r.Execute(context.Background(), NewDescription("GET", "http://example.test/"))

	require.True(t, res.OK)
	assert.Nil(t, res.Data)
	require.NotNil(t, res.Text)
	assert.Equal(t, "not-json", *res.Text)
	assertStatusInvariant(t, res)
}

func TestExecute_TextPlain(t *testing.T) {
	r := New(WithTransport(staticTransport(200, "text/plain", "hello")))

	res := r.Execute(context.Background(), NewDescription("GET", "http://example.test/"))

	require.True(t, res.OK)
	assert.Equal(t, "hello", res.TextString())
	assert.Nil(t, res.Data)
	assertStatusInvariant(t, res)
}

func TestExecute_UnknownContentTypeIsText(t *testing.T) {
	r := New(WithTransport(staticTransport(200, "", `{"looks":"like json"}`)))

	res := r.Execute(context.Background(), NewDescription("GET", "http://example.test/"))

	require.True(t, res.OK)
	assert.Nil(t, res.Data)
	assert.Equal(t, `{"looks":"like json"}`, res.TextString())
}

func TestExecute_JSONNullIsData(t *testing.T) {
	r := New(WithTransport(staticTransport(200, "application/json", "null")))

	res := r.Execute(context.Background(), NewDescription("GET", "http://example.test/"))

	require.True(t, res.OK)
	assert.True(t, res.HasData())
	assert.False(t, res.HasText())

	out, err := json.Marshal(res)
	require.NoError(t, err)
	assert.Contains(t, string(out), `"data":null`)
	assert.NotContains(t, string(out), `"text"`)
}

func TestResult_RoundTripKeepsData(t *testing.T) {
	tests := []struct {
		name        string
		contentType string
		body        string
		want        any
	}{
		{"json null", "application/json", "null", json.RawMessage("null")},
		{"json object", "application/json", `{"a":[1,"x"]}`, map[string]any{"a": []any{float64(1), "x"}}},
		{"json scalar", "application/json", `false`, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := New(WithTransport(staticTransport(200, tt.contentType, tt.body)))
			res := r.Execute(context.Background(), NewDescription("GET", "http://example.test/"))

			out, err := json.Marshal(res)
			require.NoError(t, err)

			var decoded Result
			require.NoError(t, json.Unmarshal(out, &decoded))
			assert.True(t, decoded.HasData())
			assert.False(t, decoded.HasText())
			assert.Equal(t, tt.want, decoded.Data)
			assert.True(t, res.Equivalent(decoded))
		})
	}

	t.Run("text stays text", func(t *testing.T) {
		var decoded Result
		require.NoError(t, json.Unmarshal([]byte(`{"ok":true,"status":200,"statusText":"OK","headers":{},"text":"hi","durationMs":3}`), &decoded))
		assert.False(t, decoded.HasData())
		assert.Equal(t, "hi", decoded.TextString())
		assert.Equal(t, int64(3), decoded.DurationMs)
	})
}

func TestResult_StatusClasses(t *testing.T) {
	tests := []struct {
		res                           Result
		success, clientErr, serverErr bool
	}{
		{Result{OK: true, Status: 204}, true, false, false},
		{Result{OK: true, Status: 302}, false, false, false},
		{Result{OK: true, Status: 404}, false, true, false},
		{Result{OK: true, Status: 503}, false, false, true},
		{Failure(StatusTextTimeout, nil, 0), false, false, false},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("%d %s", tt.res.Status, tt.res.StatusText), func(t *testing.T) {
			assert.Equal(t, tt.success, tt.res.IsSuccess())
			assert.Equal(t, tt.clientErr, tt.res.IsClientError())
			assert.Equal(t, tt.serverErr, tt.res.IsServerError())
		})
	}
}

func TestExecute_HTTPErrorStatusIsStillOK(t *testing.T) {
	for _, status := range []int{404, 500} {
		t.Run(http.StatusText(status), func(t *testing.T) {
			r := New(WithTransport(staticTransport(status, "text/plain", "nope")))

			res := r.Execute(context.Background(), NewDescription("GET", "http://example.test/"))

			assert.True(t, res.OK)
			assert.Equal(t, status, res.Status)
			assert.Equal(t, http.StatusText(status), res.StatusText)
			assert.Equal(t, "nope", res.TextString())
			assertStatusInvariant(t, res)
		})
	}
}

func TestExecute_TimeoutCancelsTransport(t *testing.T) {
	cancelled := make(chan struct{})
	r := New(WithTransport(TransportFunc(func(req *http.Request) (*http.Response, error) {
		<-req.Context().Done()
		close(cancelled)
		return nil, req.Context().Err()
	})))

	desc := NewDescription("GET", "http://example.test/slow").WithTimeout(50 * time.Millisecond)
	res := r.Execute(context.Background(), desc)

	assert.False(t, res.OK)
	assert.Equal(t, 0, res.Status)
	assert.Equal(t, StatusTextTimeout, res.StatusText)
	assert.NotEmpty(t, res.Error)
	assert.GreaterOrEqual(t, res.DurationMs, int64(50))
	assertStatusInvariant(t, res)

	select {
	case <-cancelled:
	default:
		t.Fatal("transport was not cancelled")
	}
}

func TestExecute_TimeoutAgainstSlowServer(t *testing.T) {
	aborted := make(chan struct{}, 1)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
			aborted <- struct{}{}
		case <-time.After(2 * time.Second):
			w.WriteHeader(http.StatusOK)
		}
	}))
	defer server.Close()

	res := New().Execute(context.Background(), Description{URL: server.URL, TimeoutMs: 50})

	assert.False(t, res.OK)
	assert.Equal(t, StatusTextTimeout, res.StatusText)
	assert.Contains(t, res.Error, "timed out after 50ms")

	select {
	case <-aborted:
	case <-time.After(time.Second):
		t.Fatal("server never observed the aborted request")
	}
}

func TestExecute_DefaultTimeoutOption(t *testing.T) {
	r := New(
		WithDefaultTimeout(30*time.Millisecond),
		WithTransport(TransportFunc(func(req *http.Request) (*http.Response, error) {
			<-req.Context().Done()
			return nil, req.Context().Err()
		})),
	)

	res := r.Execute(context.Background(), NewDescription("GET", "http://example.test/"))

	assert.Equal(t, StatusTextTimeout, res.StatusText)
}

func TestExecute_HugeTimeoutDoesNotExpireImmediately(t *testing.T) {
	var deadline time.Time
	r := New(WithTransport(TransportFunc(func(req *http.Request) (*http.Response, error) {
		deadline, _ = req.Context().Deadline()
		return stubResponse(200, "text/plain", "fine"), nil
	})))

	for _, ms := range []int{math.MaxInt, int(MaxTimeoutMs)} {
		res := r.Execute(context.Background(), Description{URL: "http://example.test/", TimeoutMs: ms})

		require.True(t, res.OK, res.Error)
		assert.Equal(t, "fine", res.TextString())
		assert.True(t, deadline.After(time.Now().Add(24*time.Hour)))
	}
}

func TestExecute_CallerCancellationIsFetchError(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	r := New(WithTransport(TransportFunc(func(req *http.Request) (*http.Response, error) {
		cancel()
		<-req.Context().Done()
		return nil, req.Context().Err()
	})))

	res := r.Execute(ctx, NewDescription("GET", "http://example.test/"))

	assert.False(t, res.OK)
	assert.Equal(t, StatusTextFetchError, res.StatusText)
	assertStatusInvariant(t, res)
}

func TestExecute_UnreachableHost(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	res := New().Execute(context.Background(), NewDescription("GET", url))

	assert.False(t, res.OK)
	assert.Equal(t, 0, res.Status)
	assert.Equal(t, StatusTextFetchError, res.StatusText)
	assert.NotEmpty(t, res.Error)
	assert.Empty(t, res.Headers)
	assertStatusInvariant(t, res)
}

func TestExecute_InvalidURL(t *testing.T) {
	res := New().Execute(context.Background(), NewDescription("GET", "://missing-scheme"))

	assert.False(t, res.OK)
	assert.Equal(t, StatusTextFetchError, res.StatusText)
	assert.NotEmpty(t, res.Error)
	assertStatusInvariant(t, res)
}

func TestExecute_TransportError(t *testing.T) {
	r := New(WithTransport(TransportFunc(func(req *http.Request) (*http.Response, error) {
		return nil, errors.New("tls: handshake failure")
	})))

	res := r.Execute(context.Background(), NewDescription("GET", "https://example.test/"))

	assert.Equal(t, StatusTextFetchError, res.StatusText)
	assert.Equal(t, "tls: handshake failure", res.Error)
}

func TestExecute_TransportPanicIsCaptured(t *testing.T) {
	r := New(WithTransport(TransportFunc(func(req *http.Request) (*http.Response, error) {
		panic("boom")
	})))

	var res Result
	require.NotPanics(t, func() {
		res = r.Execute(context.Background(), NewDescription("GET", "http://example.test/"))
	})
	assert.False(t, res.OK)
	assert.Equal(t, StatusTextFetchError, res.StatusText)
	assert.Contains(t, res.Error, "boom")
	assertStatusInvariant(t, res)
}

func TestExecute_FollowsRedirects(t *testing.T) {
	redirectCount := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/final" {
			w.Header().Set("Content-Type", "text/plain")
			_, _ = w.Write([]byte("final"))
			return
		}
		redirectCount++
		http.Redirect(w, r, "/final", http.StatusFound)
	}))
	defer server.Close()

	res := New().Execute(context.Background(), NewDescription("GET", server.URL+"/redirect"))

	require.True(t, res.OK)
	assert.Equal(t, 200, res.Status)
	assert.Equal(t, "final", res.TextString())
	assert.Equal(t, 1, redirectCount)
}

func TestExecute_RedirectLoopIsFetchError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/loop", http.StatusFound)
	}))
	defer server.Close()

	res := New(WithMaxRedirects(3)).Execute(context.Background(), NewDescription("GET", server.URL+"/loop"))

	assert.False(t, res.OK)
	assert.Equal(t, StatusTextFetchError, res.StatusText)
	assert.Contains(t, res.Error, "stopped after 3 redirects")
}

func TestExecute_ResponseHeaders(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		w.Header().Add("X-Multi", "one")
		w.Header().Add("X-Multi", "two")
		_, _ = w.Write([]byte("ok"))
	}))
	defer server.Close()

	res := New().Execute(context.Background(), NewDescription("GET", server.URL))

	require.True(t, res.OK)
	assert.Equal(t, "one, two", res.Headers["x-multi"])
	assert.Equal(t, "text/plain", res.Headers["content-type"])
	assert.Equal(t, "text/plain", res.Header("Content-Type"))
}

func TestExecute_RequestHeaders(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "from-description", r.Header.Get("X-Override"))
		assert.Equal(t, "fetchagent-test", r.Header.Get("User-Agent"))
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	r := New(WithDefaultHeaders(map[string]string{
		"User-Agent": "fetchagent-test",
		"X-Override": "from-default",
	}))
	desc := NewDescription("GET", server.URL).WithHeader("X-Override", "from-description")

	res := r.Execute(context.Background(), desc)

	require.True(t, res.OK)
	assert.Equal(t, 204, res.Status)
	assert.Equal(t, "", res.TextString())
	assertStatusInvariant(t, res)
}

func TestExecute_Idempotent(t *testing.T) {
	r := New(WithTransport(TransportFunc(func(req *http.Request) (*http.Response, error) {
		resp := stubResponse(200, "application/json", `{"items":[1,2,3],"name":"x"}`)
		resp.Header.Set("X-Request", req.URL.Path)
		return resp, nil
	})))
	desc := NewDescription("GET", "http://example.test/things").WithHeader("Accept", "application/json")

	first := r.Execute(context.Background(), desc)
	second := r.Execute(context.Background(), desc)

	assert.True(t, first.Equivalent(second))
	first.DurationMs, second.DurationMs = 0, 0
	assert.Equal(t, first, second)
}

func TestExecute_ConcurrentCalls(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = fmt.Fprintf(w, `{"path":%q}`, r.URL.Path)
	}))
	defer server.Close()

	r := New()
	results := make(chan Result, 20)
	for i := 0; i < 20; i++ {
		go func(i int) {
			results <- r.Execute(context.Background(), NewDescription("GET", fmt.Sprintf("%s/%d", server.URL, i)))
		}(i)
	}

	for i := 0; i < 20; i++ {
		res := <-results
		assert.True(t, res.OK)
		assertStatusInvariant(t, res)
	}
}

func TestResult_JSONShape(t *testing.T) {
	res := Failure(StatusTextTimeout, errors.New("took too long"), 12)

	out, err := json.Marshal(res)
	require.NoError(t, err)
	assert.JSONEq(t, `{"ok":false,"status":0,"statusText":"Timeout","headers":{},"error":"took too long","durationMs":12}`, string(out))
}
