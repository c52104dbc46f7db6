package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"fintrack/internal/core"
	"fintrack/internal/storage/memory"
)

type fakeExporter struct {
	mu     sync.Mutex
	failOn map[string]bool
	got    []string
}

func (f *fakeExporter) Export(_ context.Context, tx core.Transaction) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failOn[tx.ID] {
		return "", errors.New("sheets unavailable")
	}
	f.got = append(f.got, tx.ID)
	return "Sheet1!A" + tx.ID, nil
}

func (f *fakeExporter) exported() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.got...)
}

func seedPending(t *testing.T, store *memory.Store, ids ...string) {
	t.Helper()
	for i, id := range ids {
		tx := core.Transaction{ID: id, Type: core.Expense, Amount: money(100), Description: "x", Category: "Other", Date: core.NewDate(2025, 11, i+1)}
		if err := store.AppendTransaction(context.Background(), tx); err != nil {
			t.Fatal(err)
		}
	}
}

func TestSyncPending(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	seedPending(t, store, "1", "2", "3")
	exp := &fakeExporter{failOn: map[string]bool{"2": true}}
	p := NewSyncProcessor(store, exp, SyncProcessorConfig{BatchSize: 2})

	synced, failed := p.SyncPending(ctx)
	if synced != 1 || failed != 1 {
		t.Fatalf("first batch synced=%d failed=%d", synced, failed)
	}
	synced, failed = p.SyncPending(ctx)
	if synced != 1 || failed != 0 {
		t.Fatalf("second batch synced=%d failed=%d", synced, failed)
	}
	if pending, _ := store.PendingSync(ctx, 0); len(pending) != 0 {
		t.Errorf("failed export should not stay pending: %+v", pending)
	}
	if got := exp.exported(); len(got) != 2 || got[0] != "1" || got[1] != "3" {
		t.Errorf("exported = %v", got)
	}
}

func TestSyncProcessorDefaults(t *testing.T) {
	p := NewSyncProcessor(memory.New(), &fakeExporter{}, SyncProcessorConfig{})
	if p.config != DefaultSyncProcessorConfig() {
		t.Errorf("config = %+v", p.config)
	}
}

func TestSyncProcessorStartStop(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	seedPending(t, store, "1")
	exp := &fakeExporter{}
	p := NewSyncProcessor(store, exp, SyncProcessorConfig{PollInterval: time.Hour})

	if err := p.Stop(ctx); err != nil {
		t.Fatalf("Stop() before Start() error = %v", err)
	}
	if err := p.Start(ctx); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if err := p.Start(ctx); err == nil {
		t.Error("second Start() should fail")
	}
	if !p.IsRunning() {
		t.Error("processor should be running")
	}

	stopCtx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()
	if err := p.Stop(stopCtx); err != nil {
		t.Fatalf("Stop() error = %v", err)
	}
	if p.IsRunning() {
		t.Error("processor should be stopped")
	}
	// the loop exports once on start
	if got := exp.exported(); len(got) != 1 {
		t.Errorf("exported = %v", got)
	}
}
