package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"fintrack/internal/core"
	"fintrack/internal/ports"
)

// BillProcessor reopens paid recurring bills once their due date has passed,
// moving them to the next occurrence.
type BillProcessor struct {
	store ports.BillStore
	cache Invalidator
}

func NewBillProcessor(store ports.BillStore, cache Invalidator) *BillProcessor {
	return &BillProcessor{store: store, cache: orNop(cache)}
}

// ProcessDueBills advances every eligible bill by one occurrence and returns
// how many were reopened. A bill left more than one period behind shows up
// as overdue rather than being skipped forward.
func (p *BillProcessor) ProcessDueBills(ctx context.Context, now time.Time) (int, error) {
	if p.store == nil {
		return 0, fmt.Errorf("processor not properly initialized")
	}
	bills, err := p.store.LoadBills(ctx)
	if err != nil {
		return 0, fmt.Errorf("load bills: %w", err)
	}
	today := core.DateOf(now)

	slog.InfoContext(ctx, "Processing bills",
		"total", len(bills),
		"processing_date", today.String())

	reopened := 0
	for _, b := range bills {
		if !b.Paid || !b.DueDate.Before(today.Time) {
			continue
		}
		strategy, err := GetScheduleStrategy(b.Frequency)
		if err != nil {
			// one-time bills stay paid
			continue
		}

		prev := b.DueDate
		if b.AnchorDay == 0 {
			b.AnchorDay = prev.Day()
		}
		b.DueDate = strategy.Next(prev, b.AnchorDay)
		b.Paid = false
		if err := p.store.SaveBill(ctx, b); err != nil {
			slog.ErrorContext(ctx, "Failed to reopen bill", "id", b.ID, "error", err)
			continue
		}
		reopened++
		slog.InfoContext(ctx, "Reopened recurring bill",
			"id", b.ID,
			"name", b.Name,
			"previous_due", prev.String(),
			"next_due", b.DueDate.String(),
			"frequency", b.Frequency)
	}

	if reopened > 0 {
		p.cache.Invalidate()
	}
	slog.InfoContext(ctx, "Bill processing complete", "reopened", reopened, "total_checked", len(bills))
	return reopened, nil
}
