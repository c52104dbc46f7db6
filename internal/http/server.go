package http

import (
	"context"
	"net/http"
	"strings"
	"sync"
	"time"

	"fintrack/internal/auth"
	applog "fintrack/internal/log"
	"fintrack/internal/middleware/authn"
	"fintrack/internal/middleware/ratelimit"
	"fintrack/internal/middleware/security"
	"fintrack/internal/middleware/trace"
	"fintrack/internal/ports"
	"fintrack/internal/services"
)

// Deps are the services the API exposes.
type Deps struct {
	Ledger        *services.LedgerService
	Budgets       *services.BudgetService
	Bills         *services.BillService
	Goals         *services.GoalService
	Settings      *services.SettingsService
	Dashboard     *services.DashboardService
	Notifications ports.NotificationStore
	Auth          auth.Authenticator
	Tokens        *auth.TokenIssuer

	// Checks are run by /readyz, keyed by dependency name.
	Checks map[string]func(context.Context) error
}

type Options struct {
	RateLimitPerMinute int
	AuthEnabled        bool
	TrustedProxies     []string
	Logger             *applog.Logger
}

type Server struct {
	http.Server
	deps Deps

	logger   *applog.Logger
	limiter  *ratelimit.Limiter
	detector *security.Detector
	tracer   *trace.Middleware
	started  time.Time

	shutdownOnce sync.Once
}

// NewServer configures routes and middleware, returning a ready-to-run
// http.Server.
func NewServer(addr string, deps Deps, opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = applog.New(applog.DefaultConfig())
	}
	logger = logger.WithComponent(applog.ComponentHTTP)

	detector := security.NewDetector()
	for _, cidr := range opts.TrustedProxies {
		if err := detector.AddTrustedProxy(cidr); err != nil {
			logger.Warn("Ignoring trusted proxy", applog.FieldError, err, "cidr", cidr)
		}
	}

	s := &Server{
		deps:     deps,
		logger:   logger,
		limiter:  ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: opts.RateLimitPerMinute}),
		detector: detector,
		tracer:   trace.NewMiddleware(logger, detector.ExtractClientIP),
		started:  time.Now(),
	}

	mux := http.NewServeMux()
	s.routes(mux)

	var handler http.Handler = mux
	if opts.AuthEnabled && deps.Tokens != nil {
		handler = authn.Middleware(deps.Tokens, isPublicPath, s.writeUnauthorized)(handler)
	}
	handler = s.limiter.Middleware(detector.ExtractClientIP, s.writeRateLimited)(handler)
	handler = detector.Middleware(handler)
	handler = security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware(handler)
	handler = s.tracer.Middleware(handler)

	s.Server = http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	return s
}

func (s *Server) routes(mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)

	mux.HandleFunc("POST /api/auth/signup", s.handleSignup)
	mux.HandleFunc("POST /api/auth/login", s.handleLogin)

	mux.HandleFunc("GET /api/dashboard", s.handleDashboard)

	mux.HandleFunc("GET /api/transactions", s.handleListTransactions)
	mux.HandleFunc("POST /api/transactions", s.handleCreateTransaction)
	mux.HandleFunc("DELETE /api/transactions", s.handleClearTransactions)

	mux.HandleFunc("GET /api/budgets", s.handleListBudgets)
	mux.HandleFunc("POST /api/budgets", s.handleCreateBudget)
	mux.HandleFunc("GET /api/budgets/summary", s.handleBudgetSummary)
	mux.HandleFunc("POST /api/budgets/template", s.handleApplyTemplate)
	mux.HandleFunc("PUT /api/budgets/notifications", s.handleUpdateBudgetNotifications)
	mux.HandleFunc("PUT /api/budgets/{id}", s.handleUpdateBudget)
	mux.HandleFunc("DELETE /api/budgets/{id}", s.handleDeleteBudget)
	mux.HandleFunc("POST /api/budgets/{id}/toggle", s.handleToggleBudget)

	mux.HandleFunc("GET /api/bills", s.handleListBills)
	mux.HandleFunc("POST /api/bills", s.handleCreateBill)
	mux.HandleFunc("POST /api/bills/{id}/pay", s.handlePayBill)

	mux.HandleFunc("GET /api/goals", s.handleListGoals)
	mux.HandleFunc("POST /api/goals", s.handleCreateGoal)
	mux.HandleFunc("POST /api/goals/{id}/contribute", s.handleContribute)

	mux.HandleFunc("GET /api/settings", s.handleGetSettings)
	mux.HandleFunc("PUT /api/settings", s.handleUpdateSettings)

	mux.HandleFunc("GET /api/notifications", s.handleListNotifications)
}

func isPublicPath(path string) bool {
	return path == "/healthz" || path == "/readyz" || strings.HasPrefix(path, "/api/auth/")
}

func (s *Server) writeUnauthorized(w http.ResponseWriter, r *http.Request) {
	ErrorResponse(http.StatusUnauthorized, "missing or invalid token").
		Header("WWW-Authenticate", "Bearer").
		RequestID(trace.GetRequestID(r.Context())).
		Write(w)
}

func (s *Server) writeRateLimited(w http.ResponseWriter, r *http.Request) {
	applog.FromContext(r.Context()).Warn("Rate limit exceeded",
		applog.FieldClientIP, s.detector.ExtractClientIP(r),
		applog.FieldPath, r.URL.Path)
	ErrorResponse(http.StatusTooManyRequests, "rate limit exceeded, retry later").
		RequestID(trace.GetRequestID(r.Context())).
		Write(w)
}

// Shutdown stops the limiter cleanup and drains the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	s.shutdownOnce.Do(func() {
		s.limiter.Stop()
		err = s.Server.Shutdown(ctx)
	})
	return err
}
