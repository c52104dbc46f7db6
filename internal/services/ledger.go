package services

import (
	"cmp"
	"context"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/google/uuid"

	"fintrack/internal/core"
	"fintrack/internal/engine"
	applog "fintrack/internal/log"
	"fintrack/internal/notify"
	"fintrack/internal/ports"
)

// LedgerStore is what the ledger reads and writes.
type LedgerStore interface {
	ports.TransactionStore
	ports.BudgetStore
	ports.SettingsStore
}

type TransactionInput struct {
	Type        core.TransactionType
	Amount      core.Money
	Description string
	Category    string
	Date        core.Date
}

// LedgerService records transactions. After a successful append it
// invalidates derived views, queues the export and raises budget alerts.
// Export and alert failures are logged, never returned: the transaction is
// already stored.
type LedgerService struct {
	store  LedgerStore
	sync   SyncPublisher
	alerts notify.Notifier
	cache  Invalidator
	strict bool
	now    func() time.Time
}

func NewLedgerService(store LedgerStore, sync SyncPublisher, alerts notify.Notifier, cache Invalidator, strictCategories bool) *LedgerService {
	return &LedgerService{
		store:  store,
		sync:   sync,
		alerts: alerts,
		cache:  orNop(cache),
		strict: strictCategories,
		now:    time.Now,
	}
}

func (s *LedgerService) AddTransaction(ctx context.Context, in TransactionInput) (core.Transaction, error) {
	tx, err := core.NewTransaction(in.Type, in.Amount, in.Description, in.Category, in.Date)
	if err != nil {
		return core.Transaction{}, invalid(err)
	}
	if err := checkCategory(s.strict, tx.Category); err != nil {
		return core.Transaction{}, err
	}

	now := s.now()
	crossing, err := s.thresholdCrossing(ctx, tx, now)
	if err != nil {
		slog.WarnContext(ctx, "Could not evaluate budget thresholds", "category", tx.Category, "error", err)
	}

	if err := s.store.AppendTransaction(ctx, tx); err != nil {
		return core.Transaction{}, fmt.Errorf("save transaction: %w", err)
	}
	s.cache.Invalidate()

	applog.NewStructuredLogger(applog.FromContext(ctx)).
		LogTransactionCreated(ctx, tx.ID, string(tx.Type), tx.Category, tx.Amount.Cents)

	if s.sync != nil {
		if err := s.sync.PublishTransactionSync(ctx, tx.ID); err != nil {
			slog.ErrorContext(ctx, "Failed to publish sync message", "id", tx.ID, "error", err)
		}
	}
	s.raiseAlerts(ctx, crossing, now)
	return tx, nil
}

type crossing struct {
	summary    engine.BudgetSummary
	thresholds []core.Threshold
	channel    core.NotificationType
	currency   core.Currency
}

// thresholdCrossing compares the month-to-date spend of tx's budget before
// and after tx. Only current-month expenses against an enabled budget count.
func (s *LedgerService) thresholdCrossing(ctx context.Context, tx core.Transaction, now time.Time) (crossing, error) {
	if tx.Type != core.Expense || s.alerts == nil {
		return crossing{}, nil
	}
	if tx.Date.Year() != now.Year() || tx.Date.Month() != now.Month() {
		return crossing{}, nil
	}

	settings, err := s.store.LoadBudgetSettings(ctx)
	if err != nil {
		return crossing{}, err
	}
	idx := slices.IndexFunc(settings.Budgets, func(b core.Budget) bool {
		return b.Enabled && b.Category == tx.Category
	})
	if idx < 0 {
		return crossing{}, nil
	}
	budget := settings.Budgets[idx]

	txs, err := s.store.LoadTransactions(ctx)
	if err != nil {
		return crossing{}, err
	}
	month := engine.InMonth(txs, now)
	before := engine.SummarizeBudget(budget, month)
	after := engine.SummarizeBudget(budget, append(month, tx))

	crossed := engine.CrossedThresholds(before.Spent, after.Spent, budget.Limit, settings)
	if len(crossed) == 0 {
		return crossing{}, nil
	}
	user, err := s.store.LoadUserSettings(ctx)
	if err != nil {
		return crossing{}, err
	}
	return crossing{
		summary:    after,
		thresholds: crossed,
		channel:    settings.NotificationType,
		currency:   user.Currency,
	}, nil
}

func (s *LedgerService) raiseAlerts(ctx context.Context, c crossing, now time.Time) {
	for _, th := range c.thresholds {
		n := core.Notification{
			ID:         uuid.NewString(),
			Category:   c.summary.Category,
			Threshold:  th,
			Percentage: c.summary.Percentage,
			Spent:      c.summary.Spent,
			Limit:      c.summary.Budgeted,
			Channel:    c.channel,
			CreatedAt:  now.UTC(),
		}
		if err := s.alerts.Notify(ctx, n, c.currency); err != nil {
			slog.ErrorContext(ctx, "Failed to deliver budget alert",
				"category", n.Category,
				"threshold", int(th),
				"error", err)
			continue
		}
		slog.InfoContext(ctx, "Budget alert raised",
			"category", n.Category,
			"threshold", int(th),
			"percentage", n.Percentage)
	}
}

// Transactions lists every transaction, newest first.
func (s *LedgerService) Transactions(ctx context.Context) ([]core.Transaction, error) {
	txs, err := s.store.LoadTransactions(ctx)
	if err != nil {
		return nil, fmt.Errorf("load transactions: %w", err)
	}
	slices.SortStableFunc(txs, func(a, b core.Transaction) int {
		return cmp.Compare(b.Date.Unix(), a.Date.Unix())
	})
	return txs, nil
}

// Clear removes every transaction.
func (s *LedgerService) Clear(ctx context.Context) error {
	if err := s.store.ClearTransactions(ctx); err != nil {
		return fmt.Errorf("clear transactions: %w", err)
	}
	s.cache.Invalidate()
	slog.InfoContext(ctx, "All transactions cleared")
	return nil
}
