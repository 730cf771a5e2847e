package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestThrottleSpendsAndRefills(t *testing.T) {
	clock := time.Date(2026, 8, 28, 10, 0, 0, 0, time.UTC)
	th := NewThrottle(1, 2)
	th.now = func() time.Time { return clock }

	if !th.Allow("call-1") || !th.Allow("call-1") {
		t.Fatalf("expected burst of 2 to be allowed")
	}
	if th.Allow("call-1") {
		t.Fatalf("expected third request to be rejected")
	}

	clock = clock.Add(time.Second)
	if !th.Allow("call-1") {
		t.Fatalf("expected allowance to refill after a second")
	}
	if th.Allow("call-1") {
		t.Fatalf("expected only one token after one second at rate 1")
	}
}

func TestThrottleKeepsCallersApart(t *testing.T) {
	th := NewThrottle(1, 1)

	if !th.Allow("call-1") {
		t.Fatalf("expected first caller to be allowed")
	}
	if th.Allow("call-1") {
		t.Fatalf("expected first caller to be out of budget")
	}
	if !th.Allow("call-2") {
		t.Fatalf("expected second caller to have its own budget")
	}
}

func TestRateLimitKeysBySessionHeader(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	mw := RateLimit(1, 1)

	send := func(sessionID string) int {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/turn", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		if sessionID != "" {
			req.Header.Set("X-Session-Id", sessionID)
		}
		rec := httptest.NewRecorder()
		mw(handler).ServeHTTP(rec, req)
		return rec.Code
	}

	if got := send("call-1"); got != http.StatusOK {
		t.Fatalf("expected first turn to pass, got %d", got)
	}
	if got := send("call-1"); got != http.StatusTooManyRequests {
		t.Fatalf("expected second turn of same session rejected, got %d", got)
	}
	// Same IP, different session: its own budget.
	if got := send("call-2"); got != http.StatusOK {
		t.Fatalf("expected other session to pass, got %d", got)
	}
}

func TestRateLimitFallsBackToClientIP(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	mw := RateLimit(1, 1)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/turn", nil)
	req.RemoteAddr = "10.0.0.2:1234"
	rec := httptest.NewRecorder()
	mw(handler).ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected first request to pass, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	mw(handler).ServeHTTP(rec, req)
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("expected second request from same IP rejected, got %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Fatalf("expected json error body, got content type %q", ct)
	}
}
