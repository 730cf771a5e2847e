package middleware

import (
	"net/http"
	"sync"
	"time"
)

// callerHeader is set by the voice gateway so turns of the same call are
// throttled together even when they arrive through different proxy IPs.
const callerHeader = "X-Session-Id"

// evictAbove bounds the caller map; pruning runs inline once it is crossed.
const evictAbove = 4096

// Throttle limits how fast one caller can post turns. A caller is a voice
// session when the gateway identifies one, otherwise the client IP. Each
// caller holds an allowance that refills at rate per second up to burst.
type Throttle struct {
	mu      sync.Mutex
	callers map[string]*allowance
	rate    float64
	burst   float64

	now func() time.Time
}

type allowance struct {
	left float64
	seen time.Time
}

// NewThrottle creates a per-caller throttle of rate requests per second with
// the given burst.
func NewThrottle(rate float64, burst int) *Throttle {
	return &Throttle{
		callers: make(map[string]*allowance),
		rate:    rate,
		burst:   float64(burst),
		now:     time.Now,
	}
}

// Allow reports whether the caller is still within its budget and spends one
// request from it when so.
func (t *Throttle) Allow(caller string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.now()
	a, ok := t.callers[caller]
	if !ok {
		if len(t.callers) >= evictAbove {
			t.evictIdle(now)
		}
		a = &allowance{left: t.burst}
		t.callers[caller] = a
	} else {
		a.left += now.Sub(a.seen).Seconds() * t.rate
		if a.left > t.burst {
			a.left = t.burst
		}
	}
	a.seen = now

	if a.left < 1 {
		return false
	}
	a.left--
	return true
}

// evictIdle drops callers idle longer than a full refill would take. Called
// with the lock held.
func (t *Throttle) evictIdle(now time.Time) {
	idle := time.Duration(t.burst/t.rate) * time.Second
	if idle < time.Minute {
		idle = time.Minute
	}
	for caller, a := range t.callers {
		if now.Sub(a.seen) > idle {
			delete(t.callers, caller)
		}
	}
}

func callerKey(r *http.Request) string {
	if id := r.Header.Get(callerHeader); id != "" {
		return id
	}
	// RealIP middleware has already folded X-Real-Ip into RemoteAddr.
	return r.RemoteAddr
}

// RateLimit returns middleware answering 429 once a caller exceeds rate
// requests per second with the given burst.
func RateLimit(rate float64, burst int) func(http.Handler) http.Handler {
	t := NewThrottle(rate, burst)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !t.Allow(callerKey(r)) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusTooManyRequests)
				w.Write([]byte(`{"error":"too many requests"}`))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
