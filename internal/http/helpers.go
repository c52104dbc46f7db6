package http

import (
	"context"
	"net/http"

	"fintrack/internal/core"
	"fintrack/internal/engine"
	applog "fintrack/internal/log"
	"fintrack/internal/middleware/trace"
	"fintrack/internal/services"
)

// respondError maps err to a status and writes it. Internal errors are
// logged and their details hidden from the client.
func (s *Server) respondError(w http.ResponseWriter, r *http.Request, op string, err error) {
	status := statusFor(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		applog.NewStructuredLogger(applog.FromContext(r.Context())).
			LogError(r.Context(), "Request failed", err, applog.ComponentHTTP, op,
				applog.NewFields().WithRequestID(trace.GetRequestID(r.Context())))
		msg = "internal error"
	}
	ErrorResponse(status, msg).RequestID(trace.GetRequestID(r.Context())).Write(w)
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	NewResponse().Status(status).JSON(v).Write(w)
}

// currency returns the display currency, falling back to the default when
// settings cannot be read.
func (s *Server) currency(ctx context.Context) core.Currency {
	if s.deps.Settings == nil {
		return core.DefaultUserSettings().Currency
	}
	u, err := s.deps.Settings.Get(ctx)
	if err != nil {
		return core.DefaultUserSettings().Currency
	}
	return u.Currency
}

func format(m core.Money, c core.Currency) string {
	s := core.FormatCurrency(m, c)
	if m.Cents < 0 {
		return "-" + s
	}
	return s
}

type transactionView struct {
	core.Transaction
	FormattedAmount string `json:"formattedAmount"`
}

func newTransactionView(t core.Transaction, c core.Currency) transactionView {
	return transactionView{Transaction: t, FormattedAmount: format(t.Signed(), c)}
}

func transactionViews(txs []core.Transaction, c core.Currency) []transactionView {
	out := make([]transactionView, 0, len(txs))
	for _, t := range txs {
		out = append(out, newTransactionView(t, c))
	}
	return out
}

type budgetView struct {
	core.Budget
	FormattedLimit string `json:"formattedLimit"`
}

func budgetViews(budgets []core.Budget, c core.Currency) []budgetView {
	out := make([]budgetView, 0, len(budgets))
	for _, b := range budgets {
		out = append(out, budgetView{Budget: b, FormattedLimit: format(b.Limit, c)})
	}
	return out
}

type budgetSummaryView struct {
	engine.BudgetSummary
	FormattedBudgeted  string `json:"formattedBudgeted"`
	FormattedSpent     string `json:"formattedSpent"`
	FormattedRemaining string `json:"formattedRemaining"`
}

func budgetSummaryViews(sums []engine.BudgetSummary, c core.Currency) []budgetSummaryView {
	out := make([]budgetSummaryView, 0, len(sums))
	for _, b := range sums {
		out = append(out, budgetSummaryView{
			BudgetSummary:      b,
			FormattedBudgeted:  format(b.Budgeted, c),
			FormattedSpent:     format(b.Spent, c),
			FormattedRemaining: format(b.Remaining, c),
		})
	}
	return out
}

type billView struct {
	engine.UpcomingBill
	FormattedAmount string `json:"formattedAmount"`
}

func newBillView(b engine.UpcomingBill, c core.Currency) billView {
	return billView{UpcomingBill: b, FormattedAmount: format(b.Amount, c)}
}

type goalView struct {
	services.GoalView
	FormattedTarget  string `json:"formattedTarget"`
	FormattedCurrent string `json:"formattedCurrent"`
}

func newGoalView(g services.GoalView, c core.Currency) goalView {
	return goalView{
		GoalView:         g,
		FormattedTarget:  format(g.TargetAmount, c),
		FormattedCurrent: format(g.CurrentAmount, c),
	}
}
