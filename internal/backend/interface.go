package backend

import (
	"context"

	"fintrack/internal/amqp"
	"fintrack/internal/notify"
	"fintrack/internal/ports"
	"fintrack/internal/services"
)

// CleanupFunc releases a resource acquired while building components.
type CleanupFunc func() error

// Components is everything a binary needs from the outside world: the
// store, where transactions get exported, the optional broker and the
// alert channels.
type Components struct {
	Store    ports.Store
	Exporter ports.TransactionExporter
	// Broker is nil when no AMQP URL is configured or the broker was
	// unreachable at startup.
	Broker *amqp.Client
	// Notifier delivers alerts directly over in-app and email channels.
	Notifier notify.Notifier
	// Checks are readiness probes keyed by dependency name.
	Checks map[string]func(context.Context) error

	cleanups []CleanupFunc
}

// SyncPublisher returns the broker when there is one. The explicit nil
// keeps callers from seeing a non-nil interface around a nil client.
func (c *Components) SyncPublisher() services.SyncPublisher {
	if c.Broker == nil {
		return nil
	}
	return c.Broker
}

// AlertNotifier queues alerts on the broker when one is available so the
// worker delivers them; otherwise alerts go out directly.
func (c *Components) AlertNotifier() notify.Notifier {
	if c.Broker == nil {
		return c.Notifier
	}
	return notify.NewQueueNotifier(c.Broker)
}

// Close runs the cleanups in reverse order of acquisition.
func (c *Components) Close() error {
	var first error
	for i := len(c.cleanups) - 1; i >= 0; i-- {
		if err := c.cleanups[i](); err != nil && first == nil {
			first = err
		}
	}
	c.cleanups = nil
	return first
}

func (c *Components) onClose(fn CleanupFunc) {
	c.cleanups = append(c.cleanups, fn)
}

// Factory builds components based on configuration.
type Factory interface {
	Build(ctx context.Context, config Config) (*Components, error)
}

// Config holds configuration for component creation
type Config struct {
	Type BackendType

	// SQLite specific
	SQLiteDBPath string

	// Optional broker
	AMQPURL        string
	AMQPExchange   string
	AMQPSyncQueue  string
	AMQPAlertQueue string

	// Optional Google Sheets export
	GoogleSpreadsheetID      string
	GoogleSheetName          string
	GoogleServiceAccountFile string
	GoogleServiceAccountJSON string
	GoogleOAuthClientFile    string
	GoogleOAuthTokenFile     string

	// Optional email alerts
	SMTP notify.SMTPConfig
}

// BackendType selects where records are persisted.
type BackendType string

const (
	SQLiteBackend BackendType = "sqlite"
	MemoryBackend BackendType = "memory"
)

func (bt BackendType) String() string {
	return string(bt)
}

func (bt BackendType) IsValid() bool {
	switch bt {
	case SQLiteBackend, MemoryBackend:
		return true
	default:
		return false
	}
}
