package http

import (
	"net/http"

	"fintrack/internal/core"
	applog "fintrack/internal/log"
	"fintrack/internal/services"
)

const defaultNotificationLimit = 50

type dashboardView struct {
	*services.Dashboard
	FormattedBalance string `json:"formattedBalance"`
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	months, err := parseMonths(r.URL.Query())
	if err != nil {
		s.respondError(w, r, applog.OpRead, err)
		return
	}
	d, err := s.deps.Dashboard.Snapshot(r.Context(), months)
	if err != nil {
		s.respondError(w, r, applog.OpRead, err)
		return
	}
	respondJSON(w, http.StatusOK, dashboardView{
		Dashboard:        d,
		FormattedBalance: format(d.Balance, d.Currency),
	})
}

func (s *Server) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	u, err := s.deps.Settings.Get(r.Context())
	if err != nil {
		s.respondError(w, r, applog.OpRead, err)
		return
	}
	respondJSON(w, http.StatusOK, u)
}

type settingsRequest struct {
	DisplayName *string          `json:"displayName"`
	Email       *string          `json:"email"`
	Theme       *core.Theme      `json:"theme"`
	Currency    *core.Currency   `json:"currency"`
	DateFormat  *core.DateFormat `json:"dateFormat"`
	UseDemoData *bool            `json:"useDemoData"`
	Language    *string          `json:"language"`
}

func (s *Server) handleUpdateSettings(w http.ResponseWriter, r *http.Request) {
	var in settingsRequest
	if err := decodeJSON(w, r, &in); err != nil {
		s.respondError(w, r, applog.OpUpdate, err)
		return
	}
	for _, p := range []*string{in.DisplayName, in.Email, in.Language} {
		if p != nil {
			*p = sanitizeInput(*p)
		}
	}
	u, err := s.deps.Settings.Update(r.Context(), services.SettingsPatch(in))
	if err != nil {
		s.respondError(w, r, applog.OpUpdate, err)
		return
	}
	respondJSON(w, http.StatusOK, u)
}

func (s *Server) handleListNotifications(w http.ResponseWriter, r *http.Request) {
	limit, err := parseLimit(r.URL.Query(), defaultNotificationLimit)
	if err != nil {
		s.respondError(w, r, applog.OpList, err)
		return
	}
	list, err := s.deps.Notifications.ListNotifications(r.Context(), limit)
	if err != nil {
		s.respondError(w, r, applog.OpList, err)
		return
	}
	c := s.currency(r.Context())
	type notificationView struct {
		core.Notification
		Message string `json:"message"`
	}
	out := make([]notificationView, 0, len(list))
	for _, n := range list {
		out = append(out, notificationView{Notification: n, Message: n.Message(c)})
	}
	respondJSON(w, http.StatusOK, map[string]any{"notifications": out})
}
