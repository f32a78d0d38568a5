package util

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func serveWithRequestID(t *testing.T, incoming string) (*httptest.ResponseRecorder, string) {
	t.Helper()
	var seen string
	handler := WithRequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = RequestIDFromRequest(r)
	}))
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	if incoming != "" {
		req.Header.Set("X-Request-Id", incoming)
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec, seen
}

func TestWithRequestIDPropagatesIncomingHeader(t *testing.T) {
	rec, seen := serveWithRequestID(t, "req-incoming-123")
	if seen != "req-incoming-123" {
		t.Fatalf("context id = %q, want the incoming header", seen)
	}
	if got := rec.Header().Get("X-Request-Id"); got != "req-incoming-123" {
		t.Fatalf("response id = %q, want the incoming header", got)
	}
}

func TestWithRequestIDGeneratesWhenMissing(t *testing.T) {
	rec, seen := serveWithRequestID(t, "")
	if seen == "" {
		t.Fatal("expected a generated request id in the context")
	}
	if got := rec.Header().Get("X-Request-Id"); got != seen {
		t.Fatalf("response id %q must match the context id %q", got, seen)
	}
}
