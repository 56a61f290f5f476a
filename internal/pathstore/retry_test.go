package pathstore

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"
	"time"
)

func TestIsRetryable(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"canceled", fmt.Errorf("put: %w", context.Canceled), false},
		{"throttled", &StatusError{Code: http.StatusTooManyRequests}, true},
		{"server error", fmt.Errorf("put: %w", &StatusError{Code: http.StatusBadGateway}), true},
		{"bad request", &StatusError{Code: http.StatusBadRequest}, false},
		{"transport", fmt.Errorf("put: %w", &url.Error{Op: "Put", URL: "http://store/kv/a", Err: errors.New("connection reset")}), true},
		{"dial", &net.OpError{Op: "dial", Net: "tcp", Err: errors.New("connection refused")}, true},
		{"canceled transport", &url.Error{Op: "Put", URL: "http://store/kv/a", Err: context.Canceled}, false},
		{"marshal", fmt.Errorf("marshal body: %w", errors.New("unsupported type")), false},
	}
	for _, tt := range tests {
		if got := IsRetryable(tt.err); got != tt.want {
			t.Errorf("%s: IsRetryable() = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestPutNode_RetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) <= 2 {
			http.Error(w, "busy", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "secret")
	c.retryBase = time.Millisecond
	err := c.retry(context.Background(), func() error {
		return c.PutNode(context.Background(), "k", NodeRequest{Value: 1})
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := calls.Load(); got != 3 {
		t.Errorf("expected 3 attempts, got %d", got)
	}
}

func TestRetry_GivesUp(t *testing.T) {
	c := NewClient("http://unused", "secret")
	c.retryBase = time.Millisecond
	attempts := 0
	err := c.retry(context.Background(), func() error {
		attempts++
		return &StatusError{Code: http.StatusInternalServerError}
	})
	if err == nil {
		t.Fatal("expected error")
	}
	if attempts != MaxRetries+1 {
		t.Errorf("expected %d attempts, got %d", MaxRetries+1, attempts)
	}
}

func TestRetry_PermanentErrorNotRetried(t *testing.T) {
	c := NewClient("http://unused", "secret")
	c.retryBase = time.Hour
	attempts := 0
	err := c.retry(context.Background(), func() error {
		attempts++
		return c.PutNode(context.Background(), "k", NodeRequest{Value: func() {}})
	})
	if err == nil {
		t.Fatal("expected marshal error")
	}
	if attempts != 1 {
		t.Errorf("expected 1 attempt, got %d", attempts)
	}
}
