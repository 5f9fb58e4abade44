package httpclient

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/plasma-umass/llm-utils/resilience"
)

func TestClient_Do_POSTJSONWithDefaults(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/v1/chat/completions" {
			t.Errorf("unexpected %s %s", r.Method, r.URL.Path)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("Content-Type = %q", ct)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer sk-test" {
			t.Errorf("Authorization = %q", got)
		}
		if got := r.Header.Get("X-Client"); got != "llm-utils" {
			t.Errorf("default header missing, got %q", got)
		}
		if got := r.URL.Query().Get("api-version"); got != "1" {
			t.Errorf("query = %q", got)
		}
		var body map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body["model"] != "gpt-4" {
			t.Errorf("body = %v", body)
		}
		w.Header().Set("X-Request-Id", "abc")
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	c, err := New(Config{
		BaseURL: srv.URL + "/",
		Headers: map[string]string{"X-Client": "llm-utils"},
		Auth:    BearerAuth("sk-test"),
	})
	if err != nil {
		t.Fatal(err)
	}
	resp, err := c.Do(context.Background(), Request{
		Method: http.MethodPost,
		Path:   "/v1/chat/completions",
		Query:  map[string]string{"api-version": "1"},
		Body:   map[string]any{"model": "gpt-4"},
	})
	if err != nil {
		t.Fatalf("Do: %v", err)
	}
	if !resp.IsSuccess() || string(resp.Body) != `{"ok":true}` {
		t.Errorf("unexpected response %d %s", resp.StatusCode, resp.Body)
	}
	if resp.Headers.Get("X-Request-Id") != "abc" {
		t.Errorf("response headers = %v", resp.Headers)
	}
}

func TestClient_Do_RequestAuthOverride(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "" {
			t.Error("client auth should be overridden")
		}
		if r.Header.Get("X-Api-Key") != "key" {
			t.Errorf("api key header = %q", r.Header.Get("X-Api-Key"))
		}
	}))
	defer srv.Close()

	c, _ := New(Config{BaseURL: srv.URL, Auth: BearerAuth("tok")})
	_, err := c.Do(context.Background(), Request{Method: http.MethodGet, Path: "/", Auth: APIKeyAuth("key", "X-Api-Key")})
	if err != nil {
		t.Fatal(err)
	}
}

func TestClient_Do_SignerSeesReplayableBody(t *testing.T) {
	var attempts atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("X-Signature") != "sig:hello" {
			t.Errorf("signature = %q", r.Header.Get("X-Signature"))
		}
		body, _ := io.ReadAll(r.Body)
		if string(body) != "hello" {
			t.Errorf("body = %q", body)
		}
		if attempts.Add(1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
		}
	}))
	defer srv.Close()

	sign := func(r *http.Request) error {
		rc, err := r.GetBody()
		if err != nil {
			return err
		}
		data, _ := io.ReadAll(rc)
		r.Header.Set("X-Signature", "sig:"+string(data))
		return nil
	}
	retry := DefaultRetryConfig()
	retry.Sleep = func(context.Context, time.Duration) error { return nil }
	c, _ := New(Config{BaseURL: srv.URL, Auth: SignerAuth(sign), Retry: retry})
	if _, err := c.Do(context.Background(), Request{Method: http.MethodPost, Path: "/invoke", Body: []byte("hello")}); err != nil {
		t.Fatalf("Do: %v", err)
	}
	if attempts.Load() != 2 {
		t.Errorf("expected a retried, re-signed request, got %d attempts", attempts.Load())
	}
}

func TestClient_Do_SignerError(t *testing.T) {
	c, _ := New(Config{BaseURL: "http://127.0.0.1:1", Auth: SignerAuth(func(*http.Request) error {
		return errors.New("no credentials")
	})})
	_, err := c.Do(context.Background(), Request{Method: http.MethodGet, Path: "/"})
	var e *Error
	if !errors.As(err, &e) || e.Code != ErrCodeValidation || !strings.Contains(e.Message, "no credentials") {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestClient_Do_ClassifiesStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":{"message":"slow down"}}`))
	}))
	defer srv.Close()

	c, _ := New(Config{BaseURL: srv.URL})
	resp, err := c.Do(context.Background(), Request{Method: http.MethodGet, Path: "/"})
	if !IsRateLimit(err) || !IsRetryable(err) {
		t.Fatalf("expected retryable rate limit, got %v", err)
	}
	if resp == nil || resp.StatusCode != http.StatusTooManyRequests {
		t.Fatal("response should be returned alongside the error")
	}
	if !strings.Contains(err.Error(), "slow down") {
		t.Errorf("error should carry body text: %v", err)
	}
}

func TestClient_Do_NoRetryOnAuth(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	retry := DefaultRetryConfig()
	retry.Sleep = func(context.Context, time.Duration) error { return nil }
	c, _ := New(Config{BaseURL: srv.URL, Retry: retry})
	_, err := c.Do(context.Background(), Request{Method: http.MethodGet, Path: "/"})
	if !IsAuth(err) || calls.Load() != 1 {
		t.Fatalf("expected one auth failure, got %v after %d calls", err, calls.Load())
	}
}

func TestClient_Do_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(time.Second):
		}
	}))
	defer srv.Close()

	c, _ := New(Config{BaseURL: srv.URL, Timeout: 20 * time.Millisecond})
	_, err := c.Do(context.Background(), Request{Method: http.MethodGet, Path: "/"})
	if !IsTimeout(err) {
		t.Fatalf("expected timeout, got %v", err)
	}
}

func TestClient_Do_ConnectionError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	url := srv.URL
	srv.Close()

	c, _ := New(Config{BaseURL: url})
	_, err := c.Do(context.Background(), Request{Method: http.MethodGet, Path: "/"})
	if !IsConnection(err) {
		t.Fatalf("expected connection error, got %v", err)
	}
}

func TestClient_Do_RateLimiterCancelled(t *testing.T) {
	c, _ := New(Config{
		BaseURL:     "http://127.0.0.1:1",
		RateLimiter: &resilience.RateLimiterConfig{Rate: 0.001, Burst: 1},
	})
	c.rl.Allow()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	if _, err := c.Do(ctx, Request{Method: http.MethodGet, Path: "/"}); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected limiter wait to be cancelled, got %v", err)
	}
}

func TestClient_Do_CallerCanceled(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-release:
		}
	}))
	defer srv.Close()
	defer close(release)

	c, _ := New(Config{BaseURL: srv.URL})
	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(20*time.Millisecond, cancel)

	_, err := c.Do(ctx, Request{Method: http.MethodGet, Path: "/slow"})
	if !IsCanceled(err) {
		t.Fatalf("expected canceled error, got %v", err)
	}
	if IsTimeout(err) || IsRetryable(err) {
		t.Errorf("canceled request must not be a retryable timeout: %v", err)
	}
	if !errors.Is(err, context.Canceled) {
		t.Errorf("cause lost: %v", err)
	}
}

func TestClient_Do_DeadlineIsTimeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-release:
		}
	}))
	defer srv.Close()
	defer close(release)

	c, _ := New(Config{BaseURL: srv.URL})
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if _, err := c.Do(ctx, Request{Method: http.MethodGet, Path: "/slow"}); !IsTimeout(err) {
		t.Fatalf("expected timeout error, got %v", err)
	}
}

func TestClient_DoStream_SSE(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		_, _ = w.Write([]byte("data: one\n\ndata: [DONE]\n\n"))
	}))
	defer srv.Close()

	c, _ := New(Config{BaseURL: srv.URL})
	stream, err := c.DoStream(context.Background(), Request{Method: http.MethodPost, Path: "/", Body: map[string]bool{"stream": true}})
	if err != nil {
		t.Fatal(err)
	}
	defer stream.Close()
	if stream.SSE == nil {
		t.Fatal("expected SSE reader")
	}
	ev, err := stream.SSE.Next()
	if err != nil || ev.Data != "one" {
		t.Fatalf("first event = %+v, %v", ev, err)
	}
}

func TestClient_DoStream_RawAndError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/bad" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "application/x-ndjson")
		_, _ = w.Write([]byte("{}\n"))
	}))
	defer srv.Close()

	c, _ := New(Config{BaseURL: srv.URL})
	stream, err := c.DoStream(context.Background(), Request{Method: http.MethodGet, Path: "/raw"})
	if err != nil {
		t.Fatal(err)
	}
	data, _ := io.ReadAll(stream.Body)
	_ = stream.Close()
	if string(data) != "{}\n" {
		t.Errorf("raw body = %q", data)
	}

	if _, err := c.DoStream(context.Background(), Request{Method: http.MethodGet, Path: "/bad"}); err == nil {
		t.Fatal("expected error for 400")
	}
}

func TestConfigValidate(t *testing.T) {
	cfg := Config{Auth: &AuthConfig{Type: AuthSigner}}
	cfg.ApplyDefaults()
	if cfg.Timeout != defaultTimeout {
		t.Errorf("Timeout = %v", cfg.Timeout)
	}
	if err := cfg.Validate(); err == nil {
		t.Error("signer without Sign should be rejected")
	}
	if _, err := New(Config{BaseURL: "http://x", Timeout: -1}); err != nil {
		t.Errorf("negative timeout should be defaulted: %v", err)
	}
}

func TestEncodeBody(t *testing.T) {
	tests := []struct {
		name string
		in   any
		data string
		ct   string
	}{
		{"nil", nil, "", ""},
		{"bytes", []byte("raw"), "raw", ""},
		{"string", "text", "text", "text/plain"},
		{"reader", strings.NewReader("r"), "r", ""},
		{"json", map[string]int{"a": 1}, `{"a":1}`, "application/json"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			data, ct, err := encodeBody(tc.in)
			if err != nil || string(data) != tc.data || ct != tc.ct {
				t.Errorf("got %q %q %v", data, ct, err)
			}
		})
	}
}
