package resilience

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/kirillkom/rationale-rag/internal/core/domain"
)

func TestPostJSON(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer k" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer server.Close()

	var out struct {
		OK bool `json:"ok"`
	}
	err := PostJSON(context.Background(), server.Client(), server.URL, map[string]string{"Authorization": "Bearer k"}, map[string]string{}, &out, "svc", "op")
	if err != nil || !out.OK {
		t.Fatalf("PostJSON() = %v, out=%+v", err, out)
	}

	err = PostJSON(context.Background(), server.Client(), server.URL, nil, map[string]string{}, &out, "svc", "op")
	var statusErr *StatusError
	if !errors.As(err, &statusErr) || statusErr.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401 status error, got %v", err)
	}
}

func TestClassifyHTTPAndWrapTemporary(t *testing.T) {
	retryable := &StatusError{Service: "svc", Operation: "op", StatusCode: http.StatusServiceUnavailable, Status: "503"}
	permanent := &StatusError{Service: "svc", Operation: "op", StatusCode: http.StatusBadRequest, Status: "400"}

	if !ClassifyHTTP(retryable).Retryable {
		t.Fatalf("503 should be retryable")
	}
	if c := ClassifyHTTP(permanent); c.Retryable || c.RecordFailure {
		t.Fatalf("400 should be neither retried nor recorded: %+v", c)
	}
	if c := ClassifyHTTP(context.Canceled); c.Retryable || c.RecordFailure {
		t.Fatalf("cancellation must be ignored: %+v", c)
	}
	if !domain.IsKind(WrapTemporary("op", retryable), domain.ErrTemporary) {
		t.Fatalf("expected retryable error to become temporary")
	}
	if domain.IsKind(WrapTemporary("op", permanent), domain.ErrTemporary) {
		t.Fatalf("permanent error must not become temporary")
	}
}

func TestPostJSONCarriesRetryAfter(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Retry-After", "3")
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	err := PostJSON(context.Background(), server.Client(), server.URL, nil, map[string]string{}, nil, "svc", "op")
	class := ClassifyHTTP(err)
	if !class.Retryable || class.RetryAfter != 3*time.Second {
		t.Fatalf("expected retryable 429 with 3s hint, got %+v", class)
	}
}

func TestParseRetryAfter(t *testing.T) {
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	cases := map[string]time.Duration{
		"":        0,
		"7":       7 * time.Second,
		"-1":      0,
		"soon":    0,
		now.Add(90 * time.Second).Format(http.TimeFormat): 90 * time.Second,
		now.Add(-time.Minute).Format(http.TimeFormat):     0,
	}
	for in, want := range cases {
		if got := ParseRetryAfter(in, now); got != want {
			t.Fatalf("ParseRetryAfter(%q) = %v, want %v", in, got, want)
		}
	}
}
