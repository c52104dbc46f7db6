package core

import "time"

// Notification records a budget threshold crossing delivered to the user.
type Notification struct {
	ID         string           `json:"id"`
	Category   string           `json:"category"`
	Threshold  Threshold        `json:"threshold"`
	Percentage int              `json:"percentage"`
	Spent      Money            `json:"spent"`
	Limit      Money            `json:"limit"`
	Channel    NotificationType `json:"channel"`
	CreatedAt  time.Time        `json:"createdAt"`
}

// Message is the human-readable text of the alert.
func (n Notification) Message(currency Currency) string {
	if n.Threshold == ThresholdOver {
		return n.Category + " is over budget: " + FormatCurrency(n.Spent, currency) +
			" spent of " + FormatCurrency(n.Limit, currency)
	}
	return n.Category + " reached " + n.Threshold.String() + " of its budget: " +
		FormatCurrency(n.Spent, currency) + " spent of " + FormatCurrency(n.Limit, currency)
}
