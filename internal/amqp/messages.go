package amqp

import (
	"encoding/json"
	"time"

	"fintrack/internal/core"
)

// TransactionSyncMessage asks the worker to export one stored transaction.
// It carries only the id; the worker reads the full record from storage.
type TransactionSyncMessage struct {
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`
}

func NewTransactionSyncMessage(id string) *TransactionSyncMessage {
	return &TransactionSyncMessage{
		ID:        id,
		Timestamp: time.Now(),
	}
}

func (m *TransactionSyncMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func TransactionSyncMessageFromJSON(data []byte) (*TransactionSyncMessage, error) {
	var msg TransactionSyncMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

// BudgetAlertMessage describes a budget threshold crossing. Channel and
// Currency are resolved by the publisher so the consumer needs no settings.
type BudgetAlertMessage struct {
	ID         string                `json:"id"`
	Category   string                `json:"category"`
	Threshold  core.Threshold        `json:"threshold"`
	Percentage int                   `json:"percentage"`
	SpentCents int64                 `json:"spent_cents"`
	LimitCents int64                 `json:"limit_cents"`
	Channel    core.NotificationType `json:"channel"`
	Currency   core.Currency         `json:"currency"`
	Timestamp  time.Time             `json:"timestamp"`
}

func NewBudgetAlertMessage(n core.Notification, currency core.Currency) *BudgetAlertMessage {
	ts := n.CreatedAt
	if ts.IsZero() {
		ts = time.Now()
	}
	return &BudgetAlertMessage{
		ID:         n.ID,
		Category:   n.Category,
		Threshold:  n.Threshold,
		Percentage: n.Percentage,
		SpentCents: n.Spent.Cents,
		LimitCents: n.Limit.Cents,
		Channel:    n.Channel,
		Currency:   currency,
		Timestamp:  ts,
	}
}

// Notification converts the message back into the domain record.
func (m *BudgetAlertMessage) Notification() core.Notification {
	return core.Notification{
		ID:         m.ID,
		Category:   m.Category,
		Threshold:  m.Threshold,
		Percentage: m.Percentage,
		Spent:      core.Money{Cents: m.SpentCents},
		Limit:      core.Money{Cents: m.LimitCents},
		Channel:    m.Channel,
		CreatedAt:  m.Timestamp,
	}
}

func (m *BudgetAlertMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func BudgetAlertMessageFromJSON(data []byte) (*BudgetAlertMessage, error) {
	var msg BudgetAlertMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
