package server

import (
	"math"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"tpgen-hq/tpgen/pkg/config"
)

const apiPrefix = "/api/v1/"

// tokenBucket allows bursts up to capacity while holding the average rate
// at refill tokens per second.
type tokenBucket struct {
	capacity   float64
	tokens     float64
	refill     float64
	lastRefill time.Time
	lastUsed   time.Time
}

func (b *tokenBucket) take(now time.Time) (bool, time.Duration) {
	b.tokens = math.Min(b.capacity, b.tokens+now.Sub(b.lastRefill).Seconds()*b.refill)
	b.lastRefill = now
	b.lastUsed = now
	if b.tokens >= 1 {
		b.tokens--
		return true, 0
	}
	wait := (1 - b.tokens) / b.refill
	return false, time.Duration(wait * float64(time.Second))
}

// clientLimiter keeps one bucket per client address. Buckets idle for
// longer than idleTTL are dropped on the next sweep.
type clientLimiter struct {
	rate    float64
	burst   float64
	idleTTL time.Duration
	now     func() time.Time

	mu        sync.Mutex
	buckets   map[string]*tokenBucket
	lastSweep time.Time
}

func newClientLimiter(cfg config.RateLimitConfig) *clientLimiter {
	if cfg.RequestsPerSecond <= 0 {
		return nil
	}
	burst := float64(cfg.Burst)
	if burst <= 0 {
		burst = math.Ceil(cfg.RequestsPerSecond)
	}
	return &clientLimiter{
		rate:    cfg.RequestsPerSecond,
		burst:   burst,
		idleTTL: 10 * time.Minute,
		now:     time.Now,
		buckets: make(map[string]*tokenBucket),
	}
}

// allow consumes a token for client and reports how long to wait when
// none is left.
func (l *clientLimiter) allow(client string) (bool, time.Duration) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if now.Sub(l.lastSweep) > l.idleTTL {
		for k, b := range l.buckets {
			if now.Sub(b.lastUsed) > l.idleTTL {
				delete(l.buckets, k)
			}
		}
		l.lastSweep = now
	}

	b, ok := l.buckets[client]
	if !ok {
		b = &tokenBucket{capacity: l.burst, tokens: l.burst, refill: l.rate, lastRefill: now}
		l.buckets[client] = b
	}
	return b.take(now)
}

// rateLimit rejects requests over the per-client budget with 429. The
// operational endpoints are never limited.
func (s *Server) rateLimit(next http.Handler) http.Handler {
	limiter := newClientLimiter(s.config.RateLimit)
	if limiter == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !isAPIPath(r.URL.Path) {
			next.ServeHTTP(w, r)
			return
		}
		ok, wait := limiter.allow(clientAddr(r))
		if !ok {
			w.Header().Set("Retry-After", strconv.Itoa(int(math.Ceil(wait.Seconds()))))
			writeError(w, http.StatusTooManyRequests, "rate_limited", "Too many requests, retry later")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func isAPIPath(p string) bool { return strings.HasPrefix(p, apiPrefix) }

func clientAddr(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
