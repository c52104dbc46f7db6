package http

import (
	"context"
	"net/http"
	"time"

	"fintrack/internal/auth"
	"fintrack/internal/core"
	applog "fintrack/internal/log"
)

// handleHealth performs basic liveness check
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"timestamp": time.Now().Format(time.RFC3339),
		"uptime":    time.Since(s.started).Round(time.Second).String(),
	})
}

// handleReady runs every dependency check and reports 503 if any fails.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	status := "ready"
	httpStatus := http.StatusOK
	checks := make(map[string]any, len(s.deps.Checks)+3)
	for name, check := range s.deps.Checks {
		if err := check(ctx); err != nil {
			checks[name] = "failed: " + err.Error()
			status = "not_ready"
			httpStatus = http.StatusServiceUnavailable
			continue
		}
		checks[name] = "ok"
	}

	limits := s.limiter.GetMetrics()
	checks["rate_limiter"] = map[string]any{
		"active_clients": limits.ClientCount,
		"limited_total":  limits.TotalHits,
	}
	traffic := s.tracer.GetMetrics()
	checks["requests"] = map[string]any{
		"total":            traffic.TotalRequests,
		"last_response_ms": traffic.LastResponseTime.Milliseconds(),
	}
	suspicious := s.detector.GetMetrics()
	checks["security"] = map[string]any{
		"suspicious_requests": suspicious.SuspiciousRequests,
	}

	respondJSON(w, httpStatus, map[string]any{
		"status":    status,
		"timestamp": time.Now().Format(time.RFC3339),
		"checks":    checks,
	})
}

type sessionResponse struct {
	User             core.User      `json:"user"`
	Token            string         `json:"token,omitempty"`
	ExpiresAt        *time.Time     `json:"expiresAt,omitempty"`
	PasswordStrength *auth.Strength `json:"passwordStrength,omitempty"`
}

func (s *Server) handleSignup(w http.ResponseWriter, r *http.Request) {
	var in auth.Signup
	if err := decodeJSON(w, r, &in); err != nil {
		s.respondError(w, r, applog.OpCreate, err)
		return
	}
	in.Email = sanitizeInput(in.Email)
	in.DisplayName = sanitizeInput(in.DisplayName)

	u, err := s.deps.Auth.Register(r.Context(), in)
	if err != nil {
		s.respondError(w, r, applog.OpCreate, err)
		return
	}
	applog.FromContext(r.Context()).Info("User registered", applog.FieldUserID, u.ID)
	strength := auth.PasswordStrength(in.Password)
	s.respondSession(w, r, http.StatusCreated, sessionResponse{User: u, PasswordStrength: &strength})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var in auth.Credentials
	if err := decodeJSON(w, r, &in); err != nil {
		s.respondError(w, r, applog.OpRead, err)
		return
	}
	u, err := s.deps.Auth.Authenticate(r.Context(), in)
	if err != nil {
		s.respondError(w, r, applog.OpRead, err)
		return
	}
	s.respondSession(w, r, http.StatusOK, sessionResponse{User: u})
}

func (s *Server) respondSession(w http.ResponseWriter, r *http.Request, status int, resp sessionResponse) {
	if s.deps.Tokens != nil {
		token, expires, err := s.deps.Tokens.Issue(resp.User)
		if err != nil {
			s.respondError(w, r, applog.OpCreate, err)
			return
		}
		resp.Token = token
		resp.ExpiresAt = &expires
	}
	respondJSON(w, status, resp)
}
