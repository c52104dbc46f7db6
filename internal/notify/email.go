package notify

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"net"
	"net/smtp"
	"strings"

	"fintrack/internal/core"
)

const alertSubjectPrefix = "Budget alert: "

var alertTemplate = template.Must(template.New("alert").Parse(`<p>{{.Message}}</p>
<p>{{.Category}} is at {{.Percentage}}% of its monthly budget.</p>
`))

type SMTPConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	From     string
	To       []string
}

type sendFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

// EmailNotifier sends alerts as HTML mail.
type EmailNotifier struct {
	cfg  SMTPConfig
	send sendFunc
}

func NewEmailNotifier(cfg SMTPConfig) *EmailNotifier {
	return &EmailNotifier{cfg: cfg, send: smtp.SendMail}
}

func (e *EmailNotifier) Notify(ctx context.Context, n core.Notification, currency core.Currency) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	msg, err := e.compose(n, currency)
	if err != nil {
		return err
	}

	var auth smtp.Auth
	if e.cfg.User != "" {
		auth = smtp.PlainAuth("", e.cfg.User, e.cfg.Password, e.cfg.Host)
	}
	addr := net.JoinHostPort(e.cfg.Host, e.cfg.Port)
	if err := e.send(addr, auth, e.cfg.From, e.cfg.To, msg); err != nil {
		return fmt.Errorf("send alert email: %w", err)
	}
	return nil
}

func (e *EmailNotifier) compose(n core.Notification, currency core.Currency) ([]byte, error) {
	var body bytes.Buffer
	err := alertTemplate.Execute(&body, struct {
		Message    string
		Category   string
		Percentage int
	}{n.Message(currency), n.Category, n.Percentage})
	if err != nil {
		return nil, fmt.Errorf("render alert email: %w", err)
	}

	var msg bytes.Buffer
	msg.WriteString("From: " + e.cfg.From + "\r\n")
	msg.WriteString("To: " + strings.Join(e.cfg.To, ", ") + "\r\n")
	msg.WriteString("Subject: " + alertSubjectPrefix + n.Category + "\r\n")
	msg.WriteString("MIME-version: 1.0;\r\n")
	msg.WriteString("Content-Type: text/html; charset=\"UTF-8\";\r\n\r\n")
	msg.Write(body.Bytes())
	return msg.Bytes(), nil
}
