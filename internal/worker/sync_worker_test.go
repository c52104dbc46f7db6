package worker

import (
	"context"
	"errors"
	"testing"

	"fintrack/internal/amqp"
	"fintrack/internal/core"
	"fintrack/internal/notify"
	"fintrack/internal/sheets/memory"
	storemem "fintrack/internal/storage/memory"
)

type failingExporter struct{}

func (failingExporter) Export(context.Context, core.Transaction) (string, error) {
	return "", errors.New("quota exceeded")
}

// scriptedConsumer hands each queued message to the handler once and
// records the handler results.
type scriptedConsumer struct {
	sync    []*amqp.TransactionSyncMessage
	alerts  []*amqp.BudgetAlertMessage
	syncErr []error
	alertEr []error
	block   bool
}

func (c *scriptedConsumer) ConsumeTransactionSync(ctx context.Context, h func(context.Context, *amqp.TransactionSyncMessage) error) error {
	for _, m := range c.sync {
		c.syncErr = append(c.syncErr, h(ctx, m))
	}
	if c.block {
		<-ctx.Done()
		return ctx.Err()
	}
	return nil
}

func (c *scriptedConsumer) ConsumeBudgetAlerts(ctx context.Context, h func(context.Context, *amqp.BudgetAlertMessage) error) error {
	for _, m := range c.alerts {
		c.alertEr = append(c.alertEr, h(ctx, m))
	}
	if c.block {
		<-ctx.Done()
		return ctx.Err()
	}
	return nil
}

func seed(t *testing.T, store *storemem.Store, ids ...string) {
	t.Helper()
	for i, id := range ids {
		tx := core.Transaction{ID: id, Type: core.Expense, Amount: core.Money{Cents: int64(100 * (i + 1))}, Description: "Coffee", Category: "Dining", Date: core.NewDate(2025, 11, i+1)}
		if err := store.AppendTransaction(context.Background(), tx); err != nil {
			t.Fatal(err)
		}
	}
}

func TestRun(t *testing.T) {
	ctx := context.Background()
	store := storemem.New()
	seed(t, store, "t1")
	exporter := memory.New()
	w := NewWorker(store, exporter, notify.NewInAppNotifier(store), 10)

	c := &scriptedConsumer{
		sync: []*amqp.TransactionSyncMessage{
			amqp.NewTransactionSyncMessage("t1"),
			amqp.NewTransactionSyncMessage("deleted"),
		},
		alerts: []*amqp.BudgetAlertMessage{{
			ID: "n1", Category: "Dining", Threshold: core.Threshold90, Percentage: 92,
			SpentCents: 27600, LimitCents: 30000, Channel: core.NotifyInApp, Currency: core.USD,
		}},
	}
	if err := w.Run(ctx, c); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	for i, err := range c.syncErr {
		if err != nil {
			t.Errorf("sync message %d: %v", i, err)
		}
	}
	if len(exporter.Rows()) != 1 {
		t.Errorf("exported rows = %d", len(exporter.Rows()))
	}
	if pending, _ := store.PendingSync(ctx, 0); len(pending) != 0 {
		t.Errorf("t1 should be marked synced")
	}
	list, _ := store.ListNotifications(ctx, 0)
	if len(list) != 1 || list[0].Spent.Cents != 27600 || list[0].Threshold != core.Threshold90 {
		t.Errorf("notifications = %+v", list)
	}
}

func TestRunStopsCleanlyOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	w := NewWorker(storemem.New(), memory.New(), nil, 0)
	if err := w.Run(ctx, &scriptedConsumer{block: true}); err != nil {
		t.Errorf("Run() after cancel = %v, want nil", err)
	}
}

func TestHandleSyncMessageExportFailure(t *testing.T) {
	ctx := context.Background()
	store := storemem.New()
	seed(t, store, "t1")
	w := NewWorker(store, failingExporter{}, nil, 10)

	if err := w.HandleSyncMessage(ctx, amqp.NewTransactionSyncMessage("t1")); err == nil {
		t.Fatal("export failure should be returned for redelivery")
	}
	if pending, _ := store.PendingSync(ctx, 0); len(pending) != 0 {
		t.Errorf("failed transaction should be flagged, pending = %d", len(pending))
	}
}

func TestHandleAlertWithoutNotifier(t *testing.T) {
	w := NewWorker(storemem.New(), memory.New(), nil, 10)
	if err := w.HandleAlertMessage(context.Background(), &amqp.BudgetAlertMessage{Category: "Rent"}); err != nil {
		t.Errorf("alert without notifier should be dropped, got %v", err)
	}
}

func TestStartupSyncCheck(t *testing.T) {
	ctx := context.Background()
	store := storemem.New()
	seed(t, store, "a", "b", "c")
	exporter := memory.New()
	w := NewWorker(store, exporter, nil, 1)

	synced, failed, err := w.StartupSyncCheck(ctx)
	if err != nil || synced != 3 || failed != 0 {
		t.Fatalf("StartupSyncCheck() = %d, %d, %v", synced, failed, err)
	}
	if rows := exporter.Rows(); len(rows) != 3 || rows[0][0] != "2025-11-01" {
		t.Errorf("rows = %v", rows)
	}

	synced, _, _ = w.StartupSyncCheck(ctx)
	if synced != 0 {
		t.Errorf("second check exported %d again", synced)
	}
}
