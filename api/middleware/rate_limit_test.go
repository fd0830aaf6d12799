package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/legacy-capsule/capsule-backend/pkg/logger"
)

type fakeLimiterStore struct {
	counts map[string]int64
	err    error
}

func newFakeLimiterStore() *fakeLimiterStore {
	return &fakeLimiterStore{counts: make(map[string]int64)}
}

func (f *fakeLimiterStore) FixedWindowAllow(_ context.Context, scope string, limit int64, _ time.Duration) (bool, int64, error) {
	if f.err != nil {
		return false, 0, f.err
	}
	f.counts[scope]++
	return f.counts[scope] <= limit, f.counts[scope], nil
}

func rateLimitedHandler(t *testing.T, policy RateLimitPolicy, store *fakeLimiterStore) (http.Handler, *int) {
	t.Helper()
	calls := 0
	next := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls++
		w.WriteHeader(http.StatusCreated)
	})
	logg := logger.New(logger.Options{ServiceName: "test"})
	return RateLimit(policy, store, logg)(next), &calls
}

func TestRateLimitAllowsUnderLimit(t *testing.T) {
	store := newFakeLimiterStore()
	handler, calls := rateLimitedHandler(t, NewRateLimitPolicy("upload", time.Minute, 3), store)

	for i := 0; i < 3; i++ {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/v1/upload", nil)
		req.RemoteAddr = "203.0.113.9:4242"
		handler.ServeHTTP(rec, req)
		if rec.Code != http.StatusCreated {
			t.Fatalf("request %d should pass, got %d", i+1, rec.Code)
		}
	}
	if *calls != 3 {
		t.Fatalf("expected 3 handler calls, got %d", *calls)
	}
}

func TestRateLimitBlocksOverLimit(t *testing.T) {
	store := newFakeLimiterStore()
	handler, calls := rateLimitedHandler(t, NewRateLimitPolicy("upload", time.Minute, 2), store)

	var rec *httptest.ResponseRecorder
	for i := 0; i < 3; i++ {
		rec = httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/v1/upload", nil)
		req.RemoteAddr = "203.0.113.9:4242"
		handler.ServeHTTP(rec, req)
	}
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("third request should be throttled, got %d", rec.Code)
	}
	if *calls != 2 {
		t.Fatalf("expected 2 handler calls, got %d", *calls)
	}

	var envelope struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decode error envelope: %v", err)
	}
	if envelope.Error.Code != "RATE_LIMIT_EXCEEDED" {
		t.Fatalf("unexpected error code %q", envelope.Error.Code)
	}
}

func TestRateLimitCountsPerClientIP(t *testing.T) {
	store := newFakeLimiterStore()
	handler, calls := rateLimitedHandler(t, NewRateLimitPolicy("upload", time.Minute, 1), store)

	for _, ip := range []string{"203.0.113.9", "198.51.100.7"} {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/v1/upload", nil)
		req.Header.Set("X-Forwarded-For", ip)
		handler.ServeHTTP(rec, req)
		if rec.Code != http.StatusCreated {
			t.Fatalf("first request from %s should pass, got %d", ip, rec.Code)
		}
	}
	if *calls != 2 {
		t.Fatalf("distinct clients share no counter, expected 2 calls, got %d", *calls)
	}
}

func TestRateLimitStoreFailureRejects(t *testing.T) {
	store := newFakeLimiterStore()
	store.err = errors.New("redis down")
	handler, calls := rateLimitedHandler(t, NewRateLimitPolicy("upload", time.Minute, 5), store)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/upload", nil)
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("counter failure must reject, got %d", rec.Code)
	}
	if *calls != 0 {
		t.Fatal("handler must not run when the counter is unavailable")
	}
}

func TestRateLimitDisabledPolicyPassesThrough(t *testing.T) {
	handler, calls := rateLimitedHandler(t, NewRateLimitPolicy("upload", 0, 0), nil)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/upload", nil)
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("disabled policy should pass through, got %d", rec.Code)
	}
	if *calls != 1 {
		t.Fatalf("expected 1 handler call, got %d", *calls)
	}
}
