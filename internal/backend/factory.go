package backend

import (
	"context"
	"fmt"

	"fintrack/internal/amqp"
	applog "fintrack/internal/log"
	"fintrack/internal/notify"
	gsheet "fintrack/internal/sheets/google"
	sheetmem "fintrack/internal/sheets/memory"
	"fintrack/internal/storage"
	"fintrack/internal/storage/memory"
)

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *applog.Logger
	// dial is replaced in tests to avoid a live broker.
	dial func(url, exchange, syncQueue, alertQueue string) (*amqp.Client, error)
}

func NewFactory(logger *applog.Logger) *DefaultFactory {
	if logger == nil {
		logger = applog.New(applog.DefaultConfig())
	}
	return &DefaultFactory{
		logger: logger.WithComponent(applog.ComponentBackend),
		dial:   amqp.NewClient,
	}
}

var _ Factory = (*DefaultFactory)(nil)

// Build creates the store and optional integrations. A broker that cannot
// be reached is logged and skipped; every other failure is fatal and
// releases what was already acquired.
func (f *DefaultFactory) Build(ctx context.Context, config Config) (*Components, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	c := &Components{Checks: map[string]func(context.Context) error{}}
	if err := f.buildStore(c, config); err != nil {
		return nil, err
	}
	if err := f.buildExporter(ctx, c, config); err != nil {
		_ = c.Close()
		return nil, err
	}
	f.buildBroker(c, config)
	f.buildNotifier(c, config)

	f.logger.Info("Backend ready",
		"type", config.Type,
		"amqp_enabled", c.Broker != nil,
		"sheets_enabled", config.sheetsEnabled(),
		"email_enabled", config.emailEnabled())
	return c, nil
}

func (f *DefaultFactory) buildStore(c *Components, config Config) error {
	switch config.Type {
	case SQLiteBackend:
		repo, err := storage.NewSQLiteRepository(config.SQLiteDBPath)
		if err != nil {
			return fmt.Errorf("failed to initialize SQLite repository: %w", err)
		}
		c.Store = repo
		c.Checks["database"] = repo.Ping
		c.onClose(repo.Close)
		f.logger.Info("Initialized SQLite store", "db_path", config.SQLiteDBPath)
	case MemoryBackend:
		c.Store = memory.New()
		f.logger.Info("Initialized memory store")
	default:
		return fmt.Errorf("unsupported backend type: %s", config.Type)
	}
	return nil
}

func (f *DefaultFactory) buildExporter(ctx context.Context, c *Components, config Config) error {
	if !config.sheetsEnabled() {
		c.Exporter = sheetmem.New()
		return nil
	}
	exp, err := gsheet.NewExporter(ctx, gsheet.Config{
		SpreadsheetID:      config.GoogleSpreadsheetID,
		SheetName:          config.GoogleSheetName,
		ServiceAccountJSON: config.GoogleServiceAccountJSON,
		ServiceAccountFile: config.GoogleServiceAccountFile,
		OAuthClientFile:    config.GoogleOAuthClientFile,
		OAuthTokenFile:     config.GoogleOAuthTokenFile,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize Google Sheets exporter: %w", err)
	}
	c.Exporter = exp
	return nil
}

func (f *DefaultFactory) buildBroker(c *Components, config Config) {
	if config.AMQPURL == "" {
		return
	}
	client, err := f.dial(config.AMQPURL, config.AMQPExchange, config.AMQPSyncQueue, config.AMQPAlertQueue)
	if err != nil {
		f.logger.Warn("Failed to initialize AMQP client, continuing without broker", "error", err)
		return
	}
	c.Broker = client
	c.onClose(client.Close)
	f.logger.Info("Initialized AMQP client",
		"exchange", config.AMQPExchange,
		"sync_queue", config.AMQPSyncQueue,
		"alert_queue", config.AMQPAlertQueue)
}

func (f *DefaultFactory) buildNotifier(c *Components, config Config) {
	var email notify.Notifier
	if config.emailEnabled() {
		email = notify.NewEmailNotifier(config.SMTP)
	}
	c.Notifier = notify.NewRouter(notify.NewInAppNotifier(c.Store), email)
}
