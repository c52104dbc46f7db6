package http

import (
	"net/http"
	"strings"
	"time"

	"fintrack/internal/core"
	"fintrack/internal/engine"
	applog "fintrack/internal/log"
	"fintrack/internal/services"
)

type billRequest struct {
	Name      string `json:"name"`
	Amount    string `json:"amount"`
	DueDate   string `json:"dueDate"`
	Frequency string `json:"frequency"`
	Category  string `json:"category"`
}

func (s *Server) handleListBills(w http.ResponseWriter, r *http.Request) {
	bills, err := s.deps.Bills.Bills(r.Context())
	if err != nil {
		s.respondError(w, r, applog.OpList, err)
		return
	}
	c := s.currency(r.Context())
	out := make([]billView, 0, len(bills))
	var due core.Money
	for _, b := range bills {
		out = append(out, newBillView(b, c))
		if b.Status != engine.BillPaid {
			due = due.Add(b.Amount)
		}
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"bills":             out,
		"totalDue":          due,
		"formattedTotalDue": format(due, c),
	})
}

func (s *Server) handleCreateBill(w http.ResponseWriter, r *http.Request) {
	var req billRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.respondError(w, r, applog.OpCreate, err)
		return
	}
	amount, err := parseAmount("amount", req.Amount)
	if err != nil {
		s.respondError(w, r, applog.OpCreate, err)
		return
	}
	due, err := parseDate("dueDate", req.DueDate, false, time.Now())
	if err != nil {
		s.respondError(w, r, applog.OpCreate, err)
		return
	}
	b, err := s.deps.Bills.Add(r.Context(), services.BillInput{
		Name:      sanitizeInput(req.Name),
		Amount:    amount,
		DueDate:   due,
		Frequency: core.BillFrequency(strings.ToLower(strings.TrimSpace(req.Frequency))),
		Category:  sanitizeInput(req.Category),
	})
	if err != nil {
		s.respondError(w, r, applog.OpCreate, err)
		return
	}
	c := s.currency(r.Context())
	respondJSON(w, http.StatusCreated, map[string]any{
		"bill":            b,
		"formattedAmount": format(b.Amount, c),
	})
}

func (s *Server) handlePayBill(w http.ResponseWriter, r *http.Request) {
	b, tx, err := s.deps.Bills.MarkPaid(r.Context(), r.PathValue("id"))
	if err != nil {
		s.respondError(w, r, applog.OpUpdate, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"bill":        b,
		"transaction": newTransactionView(tx, s.currency(r.Context())),
	})
}
