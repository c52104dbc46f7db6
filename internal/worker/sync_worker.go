package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"fintrack/internal/amqp"
	"fintrack/internal/core"
	"fintrack/internal/notify"
	"fintrack/internal/ports"
)

// Store is the storage the worker reads transactions from and records
// export state in.
type Store interface {
	GetTransaction(ctx context.Context, id string) (core.Transaction, error)
	ports.SyncTracker
}

// Consumer delivers broker messages to handlers until ctx ends.
type Consumer interface {
	ConsumeTransactionSync(ctx context.Context, handler func(context.Context, *amqp.TransactionSyncMessage) error) error
	ConsumeBudgetAlerts(ctx context.Context, handler func(context.Context, *amqp.BudgetAlertMessage) error) error
}

// Worker exports transactions announced on the sync queue and delivers
// budget alerts from the alert queue.
type Worker struct {
	store     Store
	exporter  ports.TransactionExporter
	notifier  notify.Notifier
	batchSize int
}

func NewWorker(store Store, exporter ports.TransactionExporter, notifier notify.Notifier, batchSize int) *Worker {
	if batchSize <= 0 {
		batchSize = 10
	}
	return &Worker{
		store:     store,
		exporter:  exporter,
		notifier:  notifier,
		batchSize: batchSize,
	}
}

// Run consumes both queues concurrently and returns when either consumer
// stops. A cancelled ctx is a clean shutdown and yields nil.
func (w *Worker) Run(ctx context.Context, c Consumer) error {
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return c.ConsumeTransactionSync(gctx, w.HandleSyncMessage)
	})
	g.Go(func() error {
		return c.ConsumeBudgetAlerts(gctx, w.HandleAlertMessage)
	})
	err := g.Wait()
	if errors.Is(err, context.Canceled) && ctx.Err() != nil {
		return nil
	}
	return err
}

// HandleSyncMessage exports one stored transaction. A transaction that no
// longer exists is acknowledged and skipped.
func (w *Worker) HandleSyncMessage(ctx context.Context, msg *amqp.TransactionSyncMessage) error {
	slog.InfoContext(ctx, "Processing sync message", "id", msg.ID)

	tx, err := w.store.GetTransaction(ctx, msg.ID)
	if errors.Is(err, ports.ErrNotFound) {
		slog.WarnContext(ctx, "Transaction gone, skipping export", "id", msg.ID)
		return nil
	}
	if err != nil {
		return fmt.Errorf("get transaction from storage: %w", err)
	}
	return w.export(ctx, tx)
}

// HandleAlertMessage delivers a budget alert through the notifier.
func (w *Worker) HandleAlertMessage(ctx context.Context, msg *amqp.BudgetAlertMessage) error {
	if w.notifier == nil {
		slog.WarnContext(ctx, "No notifier configured, dropping alert", "category", msg.Category)
		return nil
	}
	if err := w.notifier.Notify(ctx, msg.Notification(), msg.Currency); err != nil {
		return fmt.Errorf("deliver alert: %w", err)
	}
	slog.InfoContext(ctx, "Delivered budget alert",
		"category", msg.Category,
		"threshold", int(msg.Threshold),
		"channel", msg.Channel)
	return nil
}

// StartupSyncCheck exports transactions whose messages were lost while the
// worker was down.
func (w *Worker) StartupSyncCheck(ctx context.Context) (synced, failed int, err error) {
	pending, err := w.store.PendingSync(ctx, w.batchSize*5)
	if err != nil {
		return 0, 0, fmt.Errorf("get pending transactions for startup check: %w", err)
	}
	if len(pending) == 0 {
		slog.InfoContext(ctx, "No pending transactions found on startup")
		return 0, 0, nil
	}

	slog.InfoContext(ctx, "Found pending transactions on startup", "count", len(pending))
	for _, tx := range pending {
		if err := w.export(ctx, tx); err != nil {
			slog.ErrorContext(ctx, "Failed to export during startup", "id", tx.ID, "error", err)
			failed++
			continue
		}
		synced++
	}
	slog.InfoContext(ctx, "Startup sync completed",
		"total", len(pending),
		"synced", synced,
		"errors", failed)
	return synced, failed, nil
}

func (w *Worker) export(ctx context.Context, tx core.Transaction) error {
	ref, err := w.exporter.Export(ctx, tx)
	if err != nil {
		if markErr := w.store.MarkSyncError(ctx, tx.ID); markErr != nil {
			slog.ErrorContext(ctx, "Failed to mark sync error", "id", tx.ID, "error", markErr)
		}
		return fmt.Errorf("export transaction: %w", err)
	}
	if err := w.store.MarkSynced(ctx, tx.ID); err != nil {
		// the row is already in the sheet
		slog.ErrorContext(ctx, "Failed to mark as synced", "id", tx.ID, "error", err)
	}
	slog.InfoContext(ctx, "Exported transaction",
		"id", tx.ID,
		"sheets_ref", ref,
		"type", tx.Type,
		"amount_cents", tx.Amount.Cents)
	return nil
}
