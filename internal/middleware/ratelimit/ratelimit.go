// Package ratelimit caps API requests per client in fixed one-minute
// windows.
package ratelimit

import (
	"math"
	"net/http"
	"strconv"
	"sync"
	"sync/atomic"
	"time"
)

const (
	window  = time.Minute
	idleTTL = 10 * time.Minute
)

// Decision is the outcome of counting one request.
type Decision struct {
	Allowed   bool
	Limit     int
	Remaining int
	// RetryAfter is the time until the client's window resets.
	RetryAfter time.Duration
}

type Limiter struct {
	perMinute int
	sweepEach time.Duration
	now       func() time.Time

	mu      sync.Mutex
	windows map[string]*clientWindow

	rejected atomic.Int64
	stop     chan struct{}
	stopOnce sync.Once
}

type clientWindow struct {
	start    time.Time
	lastSeen time.Time
	count    int
}

type Config struct {
	RequestsPerMinute int
	CleanupInterval   time.Duration
}

func DefaultConfig() Config {
	return Config{
		RequestsPerMinute: 60,
		CleanupInterval:   5 * time.Minute,
	}
}

// NewLimiter starts a background sweep of idle clients; call Stop to end it.
func NewLimiter(config Config) *Limiter {
	def := DefaultConfig()
	if config.RequestsPerMinute <= 0 {
		config.RequestsPerMinute = def.RequestsPerMinute
	}
	if config.CleanupInterval <= 0 {
		config.CleanupInterval = def.CleanupInterval
	}
	l := &Limiter{
		perMinute: config.RequestsPerMinute,
		sweepEach: config.CleanupInterval,
		now:       time.Now,
		windows:   make(map[string]*clientWindow),
		stop:      make(chan struct{}),
	}
	go l.sweepLoop()
	return l
}

// Take counts a request from client.
func (l *Limiter) Take(client string) Decision {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	cw, ok := l.windows[client]
	if !ok || now.Sub(cw.start) >= window {
		cw = &clientWindow{start: now}
		l.windows[client] = cw
	}
	cw.count++
	cw.lastSeen = now

	d := Decision{
		Allowed:    cw.count <= l.perMinute,
		Limit:      l.perMinute,
		Remaining:  max(0, l.perMinute-cw.count),
		RetryAfter: cw.start.Add(window).Sub(now),
	}
	if !d.Allowed {
		l.rejected.Add(1)
	}
	return d
}

// Allow is Take reduced to its verdict.
func (l *Limiter) Allow(client string) bool {
	return l.Take(client).Allowed
}

func (l *Limiter) sweepLoop() {
	ticker := time.NewTicker(l.sweepEach)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			l.sweep()
		case <-l.stop:
			return
		}
	}
}

func (l *Limiter) sweep() {
	l.mu.Lock()
	defer l.mu.Unlock()
	cutoff := l.now().Add(-idleTTL)
	for client, cw := range l.windows {
		if cw.lastSeen.Before(cutoff) {
			delete(l.windows, client)
		}
	}
}

func (l *Limiter) ActiveClients() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.windows)
}

func (l *Limiter) Stop() {
	l.stopOnce.Do(func() { close(l.stop) })
}

type Metrics struct {
	TotalHits   int64
	ClientCount int64
}

func (l *Limiter) GetMetrics() Metrics {
	return Metrics{
		TotalHits:   l.rejected.Load(),
		ClientCount: int64(l.ActiveClients()),
	}
}

// Middleware sets the X-RateLimit headers on every response and hands
// rejected requests to onLimit, or answers a plain 429 when onLimit is nil.
func (l *Limiter) Middleware(clientOf func(*http.Request) string, onLimit func(http.ResponseWriter, *http.Request)) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			d := l.Take(clientOf(r))
			h := w.Header()
			h.Set("X-RateLimit-Limit", strconv.Itoa(d.Limit))
			h.Set("X-RateLimit-Remaining", strconv.Itoa(d.Remaining))
			if d.Allowed {
				next.ServeHTTP(w, r)
				return
			}
			h.Set("Retry-After", strconv.Itoa(int(math.Ceil(d.RetryAfter.Seconds()))))
			if onLimit == nil {
				http.Error(w, "Rate limit exceeded. Please try again later.", http.StatusTooManyRequests)
				return
			}
			onLimit(w, r)
		})
	}
}
