package backend

import (
	"errors"
	"fmt"

	"fintrack/internal/config"
	"fintrack/internal/notify"
)

// FromAppConfig converts the application config to backend config
func FromAppConfig(appConfig *config.Config) (Config, error) {
	if appConfig == nil {
		return Config{}, errors.New("app config is nil")
	}

	backendType := BackendType(appConfig.DataBackend)
	if !backendType.IsValid() {
		return Config{}, fmt.Errorf("invalid backend type in config: %s", appConfig.DataBackend)
	}

	cfg := Config{
		Type:         backendType,
		SQLiteDBPath: appConfig.SQLiteDBPath,

		AMQPURL:        appConfig.AMQPURL,
		AMQPExchange:   appConfig.AMQPExchange,
		AMQPSyncQueue:  appConfig.AMQPSyncQueue,
		AMQPAlertQueue: appConfig.AMQPAlertQueue,

		GoogleSpreadsheetID:      appConfig.GoogleSpreadsheetID,
		GoogleSheetName:          appConfig.GoogleSheetName,
		GoogleServiceAccountFile: appConfig.GoogleServiceAccountFile,
		GoogleServiceAccountJSON: appConfig.GoogleServiceAccountJSON,
		GoogleOAuthClientFile:    appConfig.GoogleOAuthClientFile,
		GoogleOAuthTokenFile:     appConfig.GoogleOAuthTokenFile,
	}
	if appConfig.EmailEnabled() {
		cfg.SMTP = notify.SMTPConfig{
			Host:     appConfig.SMTPHost,
			Port:     appConfig.SMTPPort,
			User:     appConfig.SMTPUser,
			Password: appConfig.SMTPPassword,
			From:     appConfig.SMTPFrom,
			To:       appConfig.NotifyEmailTo,
		}
	}
	return cfg, nil
}

// Validate validates the backend configuration
func (c Config) Validate() error {
	if !c.Type.IsValid() {
		return fmt.Errorf("invalid backend type: %s", c.Type)
	}
	if c.Type == SQLiteBackend && c.SQLiteDBPath == "" {
		return errors.New("SQLite database path is required for sqlite backend")
	}
	if c.AMQPURL != "" && (c.AMQPExchange == "" || c.AMQPSyncQueue == "" || c.AMQPAlertQueue == "") {
		return errors.New("AMQP exchange and queue names are required when AMQP URL is set")
	}
	if c.sheetsEnabled() && c.GoogleServiceAccountFile == "" && c.GoogleServiceAccountJSON == "" &&
		(c.GoogleOAuthClientFile == "" || c.GoogleOAuthTokenFile == "") {
		return errors.New("Google Sheets export needs a service account or an OAuth client with a token")
	}
	return nil
}

func (c Config) sheetsEnabled() bool {
	return c.GoogleSpreadsheetID != ""
}

func (c Config) emailEnabled() bool {
	return c.SMTP.Host != "" && len(c.SMTP.To) > 0
}
