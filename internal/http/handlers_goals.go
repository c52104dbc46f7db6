package http

import (
	"net/http"
	"time"

	applog "fintrack/internal/log"
	"fintrack/internal/services"
)

type goalRequest struct {
	Name                string `json:"name"`
	TargetAmount        string `json:"targetAmount"`
	CurrentAmount       string `json:"currentAmount"`
	MonthlyContribution string `json:"monthlyContribution"`
	TargetDate          string `json:"targetDate"`
	Description         string `json:"description"`
}

func (in goalRequest) toInput() (services.GoalInput, error) {
	target, err := parseAmount("targetAmount", in.TargetAmount)
	if err != nil {
		return services.GoalInput{}, err
	}
	current, err := parseOptionalAmount("currentAmount", in.CurrentAmount)
	if err != nil {
		return services.GoalInput{}, err
	}
	monthly, err := parseOptionalAmount("monthlyContribution", in.MonthlyContribution)
	if err != nil {
		return services.GoalInput{}, err
	}
	date, err := parseDate("targetDate", in.TargetDate, false, time.Now())
	if err != nil {
		return services.GoalInput{}, err
	}
	return services.GoalInput{
		Name:                sanitizeInput(in.Name),
		TargetAmount:        target,
		CurrentAmount:       current,
		MonthlyContribution: monthly,
		TargetDate:          date,
		Description:         sanitizeInput(in.Description),
	}, nil
}

func (s *Server) handleListGoals(w http.ResponseWriter, r *http.Request) {
	goals, err := s.deps.Goals.Goals(r.Context())
	if err != nil {
		s.respondError(w, r, applog.OpList, err)
		return
	}
	c := s.currency(r.Context())
	out := make([]goalView, 0, len(goals))
	for _, g := range goals {
		out = append(out, newGoalView(g, c))
	}
	respondJSON(w, http.StatusOK, map[string]any{"goals": out})
}

func (s *Server) handleCreateGoal(w http.ResponseWriter, r *http.Request) {
	var req goalRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.respondError(w, r, applog.OpCreate, err)
		return
	}
	in, err := req.toInput()
	if err != nil {
		s.respondError(w, r, applog.OpCreate, err)
		return
	}
	g, err := s.deps.Goals.Add(r.Context(), in)
	if err != nil {
		s.respondError(w, r, applog.OpCreate, err)
		return
	}
	c := s.currency(r.Context())
	respondJSON(w, http.StatusCreated, map[string]any{
		"goal":             g,
		"formattedTarget":  format(g.TargetAmount, c),
		"formattedCurrent": format(g.CurrentAmount, c),
	})
}

func (s *Server) handleContribute(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Amount string `json:"amount"`
	}
	if err := decodeJSON(w, r, &in); err != nil {
		s.respondError(w, r, applog.OpUpdate, err)
		return
	}
	amount, err := parseAmount("amount", in.Amount)
	if err != nil {
		s.respondError(w, r, applog.OpUpdate, err)
		return
	}
	g, err := s.deps.Goals.Contribute(r.Context(), r.PathValue("id"), amount)
	if err != nil {
		s.respondError(w, r, applog.OpUpdate, err)
		return
	}
	respondJSON(w, http.StatusOK, newGoalView(g, s.currency(r.Context())))
}
