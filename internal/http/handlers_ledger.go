package http

import (
	"net/http"
	"strings"
	"time"

	"fintrack/internal/core"
	applog "fintrack/internal/log"
	"fintrack/internal/services"
)

type transactionRequest struct {
	Type        string `json:"type"`
	Amount      string `json:"amount"`
	Description string `json:"description"`
	Category    string `json:"category"`
	Date        string `json:"date"`
}

func (in transactionRequest) toInput(now time.Time) (services.TransactionInput, error) {
	amount, err := parseAmount("amount", in.Amount)
	if err != nil {
		return services.TransactionInput{}, err
	}
	date, err := parseDate("date", in.Date, true, now)
	if err != nil {
		return services.TransactionInput{}, err
	}
	return services.TransactionInput{
		Type:        core.TransactionType(strings.ToLower(strings.TrimSpace(in.Type))),
		Amount:      amount,
		Description: sanitizeInput(in.Description),
		Category:    sanitizeInput(in.Category),
		Date:        date,
	}, nil
}

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	txs, err := s.deps.Ledger.Transactions(r.Context())
	if err != nil {
		s.respondError(w, r, applog.OpList, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"transactions": transactionViews(txs, s.currency(r.Context())),
	})
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	var req transactionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.respondError(w, r, applog.OpCreate, err)
		return
	}
	in, err := req.toInput(time.Now())
	if err != nil {
		s.respondError(w, r, applog.OpCreate, err)
		return
	}
	tx, err := s.deps.Ledger.AddTransaction(r.Context(), in)
	if err != nil {
		s.respondError(w, r, applog.OpCreate, err)
		return
	}
	respondJSON(w, http.StatusCreated, newTransactionView(tx, s.currency(r.Context())))
}

func (s *Server) handleClearTransactions(w http.ResponseWriter, r *http.Request) {
	if err := s.deps.Ledger.Clear(r.Context()); err != nil {
		s.respondError(w, r, applog.OpDelete, err)
		return
	}
	NewResponse().Status(http.StatusNoContent).Write(w)
}
