package trace

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	applog "fintrack/internal/log"
)

func TestMiddleware(t *testing.T) {
	var buf bytes.Buffer
	m := NewMiddleware(applog.New(applog.Config{Output: &buf}), func(*http.Request) string { return "1.2.3.4" })

	var seen string
	h := m.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = GetRequestID(r.Context())
		applog.FromContext(r.Context()).InfoContext(r.Context(), "handler ran")
		w.WriteHeader(http.StatusNotFound)
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/goals", nil))

	if !strings.HasPrefix(seen, "req_") || rec.Header().Get(HeaderRequestID) != seen {
		t.Errorf("request id %q, header %q", seen, rec.Header().Get(HeaderRequestID))
	}
	out := buf.String()
	for _, want := range []string{"request_id=" + seen, "status_code=404", "level=WARN", "client_ip=1.2.3.4"} {
		if !strings.Contains(out, want) {
			t.Errorf("log missing %q: %s", want, out)
		}
	}
	if m.GetMetrics().TotalRequests != 1 {
		t.Errorf("metrics = %+v", m.GetMetrics())
	}
}

func TestMiddlewareKeepsIncomingID(t *testing.T) {
	m := NewMiddleware(applog.New(applog.Config{Output: &bytes.Buffer{}}), nil)
	h := m.Middleware(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set(HeaderRequestID, "abc-123")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, r)
	if rec.Header().Get(HeaderRequestID) != "abc-123" {
		t.Errorf("incoming id not kept: %q", rec.Header().Get(HeaderRequestID))
	}
	if GetRequestID(r.Context()) != "" {
		t.Error("original request context must not be modified")
	}
}
