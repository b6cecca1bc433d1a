package server

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"tpgen-hq/tpgen/pkg/config"
)

func TestClientLimiter(t *testing.T) {
	l := newClientLimiter(config.RateLimitConfig{RequestsPerSecond: 2, Burst: 2})
	clock := time.Date(2024, 3, 9, 12, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return clock }

	for i := 0; i < 2; i++ {
		if ok, _ := l.allow("10.0.0.1"); !ok {
			t.Fatalf("request %d rejected within burst", i+1)
		}
	}
	ok, wait := l.allow("10.0.0.1")
	if ok || wait != 500*time.Millisecond {
		t.Errorf("third request = %v, wait %v", ok, wait)
	}
	if ok, _ := l.allow("10.0.0.2"); !ok {
		t.Error("other client shares the bucket")
	}

	clock = clock.Add(500 * time.Millisecond)
	if ok, _ := l.allow("10.0.0.1"); !ok {
		t.Error("token not refilled")
	}

	clock = clock.Add(time.Hour)
	l.allow("10.0.0.3")
	if len(l.buckets) != 1 {
		t.Errorf("idle buckets kept: %d", len(l.buckets))
	}
}

func TestClientLimiter_Defaults(t *testing.T) {
	if newClientLimiter(config.RateLimitConfig{}) != nil {
		t.Error("zero rate should disable limiting")
	}
	if l := newClientLimiter(config.RateLimitConfig{RequestsPerSecond: 2.5}); l.burst != 3 {
		t.Errorf("burst = %v, want 3", l.burst)
	}
}

func TestRateLimitMiddleware(t *testing.T) {
	srv, _ := newTestServer(t)
	srv.config.RateLimit = config.RateLimitConfig{RequestsPerSecond: 1, Burst: 1}
	h := srv.Handler()

	get := func(path string) *httptest.ResponseRecorder {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		return rec
	}

	if rec := get("/api/v1/catalog/machines"); rec.Code != http.StatusOK {
		t.Fatalf("first request = %d", rec.Code)
	}
	rec := get("/api/v1/catalog/machines")
	if rec.Code != http.StatusTooManyRequests || rec.Header().Get("Retry-After") != "1" {
		t.Errorf("second request = %d, Retry-After %q", rec.Code, rec.Header().Get("Retry-After"))
	}
	if rec := get("/health"); rec.Code != http.StatusOK {
		t.Errorf("health limited: %d", rec.Code)
	}
}
