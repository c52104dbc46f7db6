package http

import (
	"net/http"
	"strings"

	"fintrack/internal/core"
	applog "fintrack/internal/log"
	"fintrack/internal/services"
)

type budgetSettingsView struct {
	Budgets          []budgetView          `json:"budgets"`
	NotifyAt75       bool                  `json:"notifyAt75"`
	NotifyAt90       bool                  `json:"notifyAt90"`
	NotifyOverBudget bool                  `json:"notifyOverBudget"`
	NotificationType core.NotificationType `json:"notificationType"`
}

func newBudgetSettingsView(bs core.BudgetSettings, c core.Currency) budgetSettingsView {
	return budgetSettingsView{
		Budgets:          budgetViews(bs.Budgets, c),
		NotifyAt75:       bs.NotifyAt75,
		NotifyAt90:       bs.NotifyAt90,
		NotifyOverBudget: bs.NotifyOverBudget,
		NotificationType: bs.NotificationType,
	}
}

func (s *Server) handleListBudgets(w http.ResponseWriter, r *http.Request) {
	bs, err := s.deps.Budgets.Settings(r.Context())
	if err != nil {
		s.respondError(w, r, applog.OpList, err)
		return
	}
	respondJSON(w, http.StatusOK, newBudgetSettingsView(bs, s.currency(r.Context())))
}

type budgetRequest struct {
	Category string `json:"category"`
	Limit    string `json:"limit"`
}

func (s *Server) handleCreateBudget(w http.ResponseWriter, r *http.Request) {
	var in budgetRequest
	if err := decodeJSON(w, r, &in); err != nil {
		s.respondError(w, r, applog.OpCreate, err)
		return
	}
	limit, err := parseAmount("limit", in.Limit)
	if err != nil {
		s.respondError(w, r, applog.OpCreate, err)
		return
	}
	b, err := s.deps.Budgets.Add(r.Context(), sanitizeInput(in.Category), limit)
	if err != nil {
		s.respondError(w, r, applog.OpCreate, err)
		return
	}
	c := s.currency(r.Context())
	respondJSON(w, http.StatusCreated, budgetView{Budget: b, FormattedLimit: format(b.Limit, c)})
}

func (s *Server) handleBudgetSummary(w http.ResponseWriter, r *http.Request) {
	overview, budgets, err := s.deps.Dashboard.BudgetOverview(r.Context())
	if err != nil {
		s.respondError(w, r, applog.OpRead, err)
		return
	}
	c := s.currency(r.Context())
	respondJSON(w, http.StatusOK, map[string]any{
		"overview": overview,
		"budgets":  budgetSummaryViews(budgets, c),
		"formatted": map[string]string{
			"totalBudget": format(overview.TotalBudget, c),
			"totalSpent":  format(overview.TotalSpent, c),
			"remaining":   format(overview.Remaining, c),
		},
	})
}

func (s *Server) handleUpdateBudget(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Limit string `json:"limit"`
	}
	if err := decodeJSON(w, r, &in); err != nil {
		s.respondError(w, r, applog.OpUpdate, err)
		return
	}
	limit, err := parseAmount("limit", in.Limit)
	if err != nil {
		s.respondError(w, r, applog.OpUpdate, err)
		return
	}
	b, err := s.deps.Budgets.UpdateLimit(r.Context(), r.PathValue("id"), limit)
	if err != nil {
		s.respondError(w, r, applog.OpUpdate, err)
		return
	}
	c := s.currency(r.Context())
	respondJSON(w, http.StatusOK, budgetView{Budget: b, FormattedLimit: format(b.Limit, c)})
}

func (s *Server) handleDeleteBudget(w http.ResponseWriter, r *http.Request) {
	if err := s.deps.Budgets.Remove(r.Context(), r.PathValue("id")); err != nil {
		s.respondError(w, r, applog.OpDelete, err)
		return
	}
	NewResponse().Status(http.StatusNoContent).Write(w)
}

func (s *Server) handleToggleBudget(w http.ResponseWriter, r *http.Request) {
	b, err := s.deps.Budgets.Toggle(r.Context(), r.PathValue("id"))
	if err != nil {
		s.respondError(w, r, applog.OpUpdate, err)
		return
	}
	c := s.currency(r.Context())
	respondJSON(w, http.StatusOK, budgetView{Budget: b, FormattedLimit: format(b.Limit, c)})
}

func (s *Server) handleApplyTemplate(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Template string `json:"template"`
	}
	if err := decodeJSON(w, r, &in); err != nil {
		s.respondError(w, r, applog.OpUpdate, err)
		return
	}
	tmpl := core.BudgetTemplate(strings.ToLower(strings.TrimSpace(in.Template)))
	budgets, err := s.deps.Budgets.ApplyTemplate(r.Context(), tmpl)
	if err != nil {
		s.respondError(w, r, applog.OpUpdate, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"budgets": budgetViews(budgets, s.currency(r.Context()))})
}

type notificationPrefsRequest struct {
	NotifyAt75       bool                  `json:"notifyAt75"`
	NotifyAt90       bool                  `json:"notifyAt90"`
	NotifyOverBudget bool                  `json:"notifyOverBudget"`
	NotificationType core.NotificationType `json:"notificationType"`
}

func (s *Server) handleUpdateBudgetNotifications(w http.ResponseWriter, r *http.Request) {
	var in notificationPrefsRequest
	if err := decodeJSON(w, r, &in); err != nil {
		s.respondError(w, r, applog.OpUpdate, err)
		return
	}
	bs, err := s.deps.Budgets.UpdateNotifications(r.Context(), services.NotificationPrefs(in))
	if err != nil {
		s.respondError(w, r, applog.OpUpdate, err)
		return
	}
	respondJSON(w, http.StatusOK, newBudgetSettingsView(bs, s.currency(r.Context())))
}
