package middleware

import (
	"net"
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const (
	// limiterIdle is how long a client's bucket survives without requests.
	limiterIdle = 5 * time.Minute
	// sweepInterval spaces out the scans that drop idle buckets.
	sweepInterval = time.Minute
)

// RateLimiter is a per-client token bucket.
//
// TOKEN BUCKET:
// Each client gets a bucket holding up to `burst` tokens, refilled at
// perMinute tokens per minute. A request takes one token; an empty bucket
// means 429 Too Many Requests. Bursts of clicks pass, sustained floods don't.
//
// Clients are keyed by r.RemoteAddr, which chi's RealIP middleware has
// already replaced with the X-Forwarded-For / X-Real-IP address.
type RateLimiter struct {
	limit rate.Limit
	burst int
	now   func() time.Time

	mu        sync.Mutex
	clients   map[string]*clientLimiter
	nextSweep time.Time
}

type clientLimiter struct {
	limiter *rate.Limiter
	expires time.Time
}

// NewRateLimiter returns nil when perMinute <= 0. A nil *RateLimiter's
// Middleware passes everything through, so callers need no special case.
func NewRateLimiter(perMinute int) *RateLimiter {
	if perMinute <= 0 {
		return nil
	}
	return &RateLimiter{
		limit:   rate.Every(time.Minute / time.Duration(perMinute)),
		burst:   max(perMinute/2, 1),
		now:     time.Now,
		clients: make(map[string]*clientLimiter),
	}
}

// Middleware applies the limiter to mutating requests only (POST, PUT,
// PATCH, DELETE). Scrolling the feed is never throttled.
func (l *RateLimiter) Middleware(next http.Handler) http.Handler {
	if l == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet, http.MethodHead, http.MethodOptions:
			next.ServeHTTP(w, r)
			return
		}

		if !l.allow(clientKey(r)) {
			w.Header().Set("Content-Type", "application/json")
			w.Header().Set("Retry-After", "60")
			w.WriteHeader(http.StatusTooManyRequests)
			_, _ = w.Write([]byte(`{"message":"Too many requests"}` + "\n"))
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (l *RateLimiter) allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if !now.Before(l.nextSweep) {
		l.sweepLocked(now)
		l.nextSweep = now.Add(sweepInterval)
	}

	c, ok := l.clients[key]
	if !ok {
		c = &clientLimiter{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.clients[key] = c
	}
	c.expires = now.Add(limiterIdle)
	return c.limiter.AllowN(now, 1)
}

// sweepLocked drops idle buckets. It walks the whole map, so allow runs it
// at most once per sweepInterval rather than on every request.
func (l *RateLimiter) sweepLocked(now time.Time) {
	for k, c := range l.clients {
		if now.After(c.expires) {
			delete(l.clients, k)
		}
	}
}

// clientKey strips the port so one client's connections share a bucket.
func clientKey(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
