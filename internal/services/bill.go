package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"fintrack/internal/core"
	"fintrack/internal/engine"
	"fintrack/internal/ports"
)

type BillInput struct {
	Name      string
	Amount    core.Money
	DueDate   core.Date
	Frequency core.BillFrequency
	Category  string
}

// BillService manages scheduled bills. Paying a bill records the matching
// expense through the ledger.
type BillService struct {
	store  ports.BillStore
	ledger *LedgerService
	cache  Invalidator
	strict bool
	now    func() time.Time
}

func NewBillService(store ports.BillStore, ledger *LedgerService, cache Invalidator, strictCategories bool) *BillService {
	return &BillService{store: store, ledger: ledger, cache: orNop(cache), strict: strictCategories, now: time.Now}
}

func (s *BillService) Add(ctx context.Context, in BillInput) (core.Bill, error) {
	b, err := core.NewBill(in.Name, in.Amount, in.DueDate, in.Frequency, in.Category)
	if err != nil {
		return core.Bill{}, invalid(err)
	}
	if err := checkCategory(s.strict, b.Category); err != nil {
		return core.Bill{}, err
	}
	if err := s.store.SaveBill(ctx, b); err != nil {
		return core.Bill{}, fmt.Errorf("save bill: %w", err)
	}
	s.cache.Invalidate()
	slog.InfoContext(ctx, "Bill added", "id", b.ID, "name", b.Name, "frequency", b.Frequency)
	return b, nil
}

// Bills lists every bill with its status, soonest first.
func (s *BillService) Bills(ctx context.Context) ([]engine.UpcomingBill, error) {
	bills, err := s.store.LoadBills(ctx)
	if err != nil {
		return nil, fmt.Errorf("load bills: %w", err)
	}
	return engine.UpcomingBills(bills, s.now(), 0), nil
}

// MarkPaid records the bill amount as an expense dated today and flags the
// bill paid. Recurring bills are reopened later by the BillProcessor.
func (s *BillService) MarkPaid(ctx context.Context, id string) (core.Bill, core.Transaction, error) {
	b, err := s.store.GetBill(ctx, id)
	if err != nil {
		return core.Bill{}, core.Transaction{}, fmt.Errorf("bill %s: %w", id, err)
	}
	if b.Paid {
		return core.Bill{}, core.Transaction{}, fmt.Errorf("bill %s: %w", id, ErrAlreadyPaid)
	}

	tx, err := s.ledger.AddTransaction(ctx, TransactionInput{
		Type:        core.Expense,
		Amount:      b.Amount.Abs(),
		Description: b.Name,
		Category:    b.Category,
		Date:        core.DateOf(s.now()),
	})
	if err != nil {
		return core.Bill{}, core.Transaction{}, fmt.Errorf("record payment: %w", err)
	}

	b.Paid = true
	if err := s.store.SaveBill(ctx, b); err != nil {
		slog.ErrorContext(ctx, "Payment recorded but bill not marked paid",
			"bill_id", b.ID,
			"transaction_id", tx.ID,
			"error", err)
		return core.Bill{}, tx, fmt.Errorf("save bill: %w", err)
	}
	s.cache.Invalidate()
	slog.InfoContext(ctx, "Bill paid", "id", b.ID, "transaction_id", tx.ID, "amount_cents", b.Amount.Cents)
	return b, tx, nil
}
