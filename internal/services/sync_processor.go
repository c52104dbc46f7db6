package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"fintrack/internal/ports"
)

type SyncProcessorConfig struct {
	// PollInterval is how often to look for unexported transactions (default: 10s)
	PollInterval time.Duration

	// BatchSize caps the transactions exported per poll (default: 10)
	BatchSize int
}

func DefaultSyncProcessorConfig() SyncProcessorConfig {
	return SyncProcessorConfig{
		PollInterval: 10 * time.Second,
		BatchSize:    10,
	}
}

// SyncProcessor exports pending transactions by polling storage. It covers
// deployments without a broker and catches up after worker downtime.
type SyncProcessor struct {
	store    ports.SyncTracker
	exporter ports.TransactionExporter
	config   SyncProcessorConfig

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}
}

func NewSyncProcessor(store ports.SyncTracker, exporter ports.TransactionExporter, config SyncProcessorConfig) *SyncProcessor {
	if config.PollInterval <= 0 {
		config.PollInterval = DefaultSyncProcessorConfig().PollInterval
	}
	if config.BatchSize <= 0 {
		config.BatchSize = DefaultSyncProcessorConfig().BatchSize
	}
	return &SyncProcessor{
		store:    store,
		exporter: exporter,
		config:   config,
	}
}

// Start begins the polling loop. Returns an error if already running.
func (p *SyncProcessor) Start(ctx context.Context) error {
	p.mu.Lock()
	if p.running {
		p.mu.Unlock()
		return fmt.Errorf("sync processor is already running")
	}
	p.running = true
	p.stopCh = make(chan struct{})
	p.doneCh = make(chan struct{})
	p.mu.Unlock()

	go p.runLoop(ctx)

	slog.InfoContext(ctx, "Sync processor started",
		"poll_interval", p.config.PollInterval,
		"batch_size", p.config.BatchSize)
	return nil
}

// Stop signals the loop and waits for the current batch to finish.
func (p *SyncProcessor) Stop(ctx context.Context) error {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return nil
	}
	stopCh, doneCh := p.stopCh, p.doneCh
	p.mu.Unlock()

	close(stopCh)

	select {
	case <-doneCh:
		slog.InfoContext(ctx, "Sync processor stopped gracefully")
	case <-ctx.Done():
		slog.WarnContext(ctx, "Sync processor stop timed out")
		return ctx.Err()
	}

	p.mu.Lock()
	p.running = false
	p.mu.Unlock()
	return nil
}

func (p *SyncProcessor) IsRunning() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.running
}

func (p *SyncProcessor) runLoop(ctx context.Context) {
	defer close(p.doneCh)

	ticker := time.NewTicker(p.config.PollInterval)
	defer ticker.Stop()

	p.SyncPending(ctx)

	for {
		select {
		case <-p.stopCh:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.SyncPending(ctx)
		}
	}
}

// SyncPending exports one batch of pending transactions. Failed exports are
// flagged and not retried by later polls.
func (p *SyncProcessor) SyncPending(ctx context.Context) (synced, failed int) {
	pending, err := p.store.PendingSync(ctx, p.config.BatchSize)
	if err != nil {
		slog.ErrorContext(ctx, "Failed to load pending transactions", "error", err)
		return 0, 0
	}
	if len(pending) == 0 {
		return 0, 0
	}

	slog.DebugContext(ctx, "Processing sync batch", "count", len(pending))

	for _, tx := range pending {
		if ctx.Err() != nil {
			break
		}
		ref, err := p.exporter.Export(ctx, tx)
		if err != nil {
			failed++
			slog.WarnContext(ctx, "Export failed", "id", tx.ID, "error", err)
			if err := p.store.MarkSyncError(ctx, tx.ID); err != nil {
				slog.ErrorContext(ctx, "Failed to mark sync error", "id", tx.ID, "error", err)
			}
			continue
		}
		synced++
		if err := p.store.MarkSynced(ctx, tx.ID); err != nil {
			// the export itself worked
			slog.ErrorContext(ctx, "Failed to mark as synced", "id", tx.ID, "error", err)
		}
		slog.InfoContext(ctx, "Exported transaction", "id", tx.ID, "sheets_ref", ref)
	}
	return synced, failed
}
