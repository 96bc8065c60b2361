package fetch

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

func testClient(opts ...Option) *Client {
	base := []Option{WithRetryDelay(time.Millisecond), WithTimeouts(time.Second, time.Second)}
	return NewClient(slog.Default(), append(base, opts...)...)
}

func TestGetSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("hello"))
	}))
	defer srv.Close()

	body, err := testClient().Get(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("Get() error: %v", err)
	}
	if string(body) != "hello" {
		t.Errorf("body = %q, want %q", body, "hello")
	}
}

func TestGetRetriesOnServerError(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			http.Error(w, "boom", http.StatusInternalServerError)
			return
		}
		_, _ = w.Write([]byte("recovered"))
	}))
	defer srv.Close()

	body, err := testClient().Get(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("Get() error: %v", err)
	}
	if string(body) != "recovered" {
		t.Errorf("body = %q, want %q", body, "recovered")
	}
	if calls.Load() != 3 {
		t.Errorf("calls = %d, want 3", calls.Load())
	}
}

func TestGetExhaustsRetries(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, "nope", http.StatusBadGateway)
	}))
	defer srv.Close()

	_, err := testClient().Get(context.Background(), srv.URL)
	if err == nil {
		t.Fatal("Get() should fail after exhausting retries")
	}
	if calls.Load() != 3 {
		t.Errorf("calls = %d, want 3", calls.Load())
	}
	if !strings.Contains(err.Error(), "after 3 attempts") {
		t.Errorf("error should mention attempt count, got: %v", err)
	}
	if !strings.Contains(err.Error(), "status 502") {
		t.Errorf("error should surface last status, got: %v", err)
	}
}

func TestMaxAttemptsOption(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, "nope", http.StatusInternalServerError)
	}))
	defer srv.Close()

	_, err := testClient(WithMaxAttempts(1)).Get(context.Background(), srv.URL)
	if err == nil {
		t.Fatal("Get() should fail")
	}
	if calls.Load() != 1 {
		t.Errorf("calls = %d, want 1", calls.Load())
	}
}

func TestPostSendsBody(t *testing.T) {
	var gotBody string
	var gotContentType string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		gotBody = string(b)
		gotContentType = r.Header.Get("Content-Type")
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	_, err := testClient().Post(context.Background(), srv.URL, "text/plain; charset=utf-8", []byte("alert text"))
	if err != nil {
		t.Fatalf("Post() error: %v", err)
	}
	if gotBody != "alert text" {
		t.Errorf("body = %q, want %q", gotBody, "alert text")
	}
	if gotContentType != "text/plain; charset=utf-8" {
		t.Errorf("content type = %q", gotContentType)
	}
}

func TestGetContextCancellation(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusInternalServerError)
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := testClient(WithRetryDelay(time.Minute)).Get(ctx, srv.URL)
	if err == nil {
		t.Fatal("Get() should fail with cancelled context")
	}
}
