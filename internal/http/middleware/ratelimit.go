package middleware

import (
	"net/http"
	"sync"
	"time"
)

// RateLimit returns a middleware that throttles requests per client IP with
// a token bucket: ratePerSec tokens accrue up to burst, each request spends
// one, and an empty bucket gets 429 Too Many Requests. It fronts the login
// endpoints, where unthrottled retries mean password guessing.
func RateLimit(ratePerSec float64, burst int) func(http.Handler) http.Handler {
	t := newThrottle(ratePerSec, burst)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !t.allow(clientIP(r)) {
				http.Error(w, "rate limit exceeded", http.StatusTooManyRequests)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// clientIP prefers the X-Real-Ip header populated by chi's RealIP middleware
// and falls back to the connection address.
func clientIP(r *http.Request) string {
	if ip := r.Header.Get("X-Real-Ip"); ip != "" {
		return ip
	}
	return r.RemoteAddr
}

type throttle struct {
	mu         sync.Mutex
	perClient  map[string]*tokenBucket
	ratePerSec float64
	burst      float64
}

type tokenBucket struct {
	tokens float64
	seen   time.Time
}

func newThrottle(ratePerSec float64, burst int) *throttle {
	t := &throttle{
		perClient:  make(map[string]*tokenBucket),
		ratePerSec: ratePerSec,
		burst:      float64(burst),
	}
	go t.sweep()
	return t
}

func (t *throttle) allow(ip string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := time.Now()
	b := t.perClient[ip]
	if b == nil {
		b = &tokenBucket{tokens: t.burst, seen: now}
		t.perClient[ip] = b
	} else {
		b.tokens += now.Sub(b.seen).Seconds() * t.ratePerSec
		if b.tokens > t.burst {
			b.tokens = t.burst
		}
		b.seen = now
	}
	if b.tokens < 1 {
		return false
	}
	b.tokens--
	return true
}

// sweep drops buckets idle long enough to have refilled completely, bounding
// the map when client addresses churn.
func (t *throttle) sweep() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()
	for range ticker.C {
		cutoff := time.Now().Add(-10 * time.Minute)
		t.mu.Lock()
		for ip, b := range t.perClient {
			if b.seen.Before(cutoff) {
				delete(t.perClient, ip)
			}
		}
		t.mu.Unlock()
	}
}
