package ratelimit

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func frozen(l *Limiter, at time.Time) *time.Time {
	now := at
	l.now = func() time.Time { return now }
	return &now
}

func TestTake(t *testing.T) {
	l := NewLimiter(Config{RequestsPerMinute: 3})
	defer l.Stop()
	now := frozen(l, time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC))

	tests := []struct {
		name       string
		client     string
		advance    time.Duration
		wantAllow  bool
		wantRemain int
		wantRetry  time.Duration
	}{
		{"first", "a", 0, true, 2, time.Minute},
		{"second", "a", 10 * time.Second, true, 1, 50 * time.Second},
		{"third", "a", 0, true, 0, 50 * time.Second},
		{"over the limit", "a", 5 * time.Second, false, 0, 45 * time.Second},
		{"other client", "b", 0, true, 2, time.Minute},
		{"window reset", "a", 45 * time.Second, true, 2, time.Minute},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			*now = now.Add(tt.advance)
			d := l.Take(tt.client)
			if d.Allowed != tt.wantAllow || d.Remaining != tt.wantRemain || d.RetryAfter != tt.wantRetry {
				t.Errorf("Take(%q) = %+v", tt.client, d)
			}
			if d.Limit != 3 {
				t.Errorf("limit = %d", d.Limit)
			}
		})
	}

	if m := l.GetMetrics(); m.TotalHits != 1 || m.ClientCount != 2 {
		t.Errorf("metrics = %+v", m)
	}
}

func TestSweepForgetsIdleClients(t *testing.T) {
	l := NewLimiter(Config{RequestsPerMinute: 1})
	defer l.Stop()
	now := frozen(l, time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC))

	l.Allow("a")
	*now = now.Add(5 * time.Minute)
	l.Allow("b")
	*now = now.Add(6 * time.Minute)
	l.sweep()
	if got := l.ActiveClients(); got != 1 {
		t.Errorf("active clients = %d, want 1", got)
	}
}

func TestMiddleware(t *testing.T) {
	l := NewLimiter(Config{RequestsPerMinute: 1})
	defer l.Stop()
	frozen(l, time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC))

	h := l.Middleware(func(*http.Request) string { return "ip" }, nil)(
		http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusNoContent) }))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusNoContent {
		t.Fatalf("first request status = %d", rec.Code)
	}
	if rec.Header().Get("X-RateLimit-Limit") != "1" || rec.Header().Get("X-RateLimit-Remaining") != "0" {
		t.Errorf("quota headers = %v", rec.Header())
	}

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusTooManyRequests || rec.Header().Get("Retry-After") != "60" {
		t.Errorf("second request status = %d headers = %v", rec.Code, rec.Header())
	}
}

func TestMiddlewareCustomRejection(t *testing.T) {
	l := NewLimiter(Config{RequestsPerMinute: 1})
	defer l.Stop()

	called := false
	h := l.Middleware(func(*http.Request) string { return "ip" }, func(w http.ResponseWriter, _ *http.Request) {
		called = true
		w.WriteHeader(http.StatusTooManyRequests)
	})(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	if !called {
		t.Error("onLimit not called")
	}
}
