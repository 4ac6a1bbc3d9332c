package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

type memoryCounter struct {
	counts map[string]int64
	err    error
}

func (m *memoryCounter) Incr(_ context.Context, key string) (int64, error) {
	if m.err != nil {
		return 0, m.err
	}
	if m.counts == nil {
		m.counts = map[string]int64{}
	}
	m.counts[key]++
	return m.counts[key], nil
}

func TestRateLimitMiddleware(t *testing.T) {
	counter := &memoryCounter{}
	h := RateLimitMiddleware(NewRateLimiter(counter, 2))(okHandler())

	send := func(ip string) int {
		req := httptest.NewRequest(http.MethodPost, "/api/links", nil)
		req.RemoteAddr = ip + ":4000"
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec.Code
	}

	for i := 0; i < 2; i++ {
		if code := send("203.0.113.5"); code != http.StatusOK {
			t.Fatalf("request %d: got %d, want 200", i, code)
		}
	}
	if code := send("203.0.113.5"); code != http.StatusTooManyRequests {
		t.Fatalf("got %d, want 429", code)
	}
	if code := send("203.0.113.6"); code != http.StatusOK {
		t.Fatalf("other client: got %d, want 200", code)
	}
	if counter.counts["ip:203.0.113.5"] != 3 {
		t.Errorf("unexpected counts %v", counter.counts)
	}
}

func TestRateLimitMiddleware_FailsOpen(t *testing.T) {
	h := RateLimitMiddleware(NewRateLimiter(&memoryCounter{err: errors.New("redis down")}, 1))(okHandler())

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/links", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("got %d, want 200", rec.Code)
	}
}

func TestRateLimitMiddleware_NilLimiter(t *testing.T) {
	h := RateLimitMiddleware(nil)(okHandler())

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("got %d, want 200", rec.Code)
	}
}
