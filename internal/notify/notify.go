// Package notify delivers budget threshold alerts over the channels the user
// picked in their budget preferences.
package notify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"fintrack/internal/core"
	"fintrack/internal/ports"
)

type Notifier interface {
	Notify(ctx context.Context, n core.Notification, currency core.Currency) error
}

// InAppNotifier stores the alert so the API can list it.
type InAppNotifier struct {
	store ports.NotificationStore
}

func NewInAppNotifier(store ports.NotificationStore) *InAppNotifier {
	return &InAppNotifier{store: store}
}

func (n *InAppNotifier) Notify(ctx context.Context, alert core.Notification, _ core.Currency) error {
	if err := n.store.AddNotification(ctx, alert); err != nil {
		return fmt.Errorf("store notification: %w", err)
	}
	return nil
}

// Router dispatches an alert according to its Channel. With no email
// notifier configured, email alerts are logged and dropped.
type Router struct {
	inApp Notifier
	email Notifier
}

func NewRouter(inApp, email Notifier) *Router {
	return &Router{inApp: inApp, email: email}
}

func (r *Router) Notify(ctx context.Context, n core.Notification, currency core.Currency) error {
	var targets []Notifier
	switch n.Channel {
	case core.NotifyInApp:
		targets = []Notifier{r.inApp}
	case core.NotifyEmail:
		targets = []Notifier{r.email}
	case core.NotifyBoth:
		targets = []Notifier{r.inApp, r.email}
	default:
		return fmt.Errorf("route %q: %w", n.Channel, core.ErrInvalidNotificationType)
	}

	var errs []error
	for _, t := range targets {
		if t == nil {
			slog.WarnContext(ctx, "No notifier configured for channel, dropping alert",
				"channel", n.Channel,
				"category", n.Category)
			continue
		}
		if err := t.Notify(ctx, n, currency); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// AlertPublisher hands an alert to a message broker.
type AlertPublisher interface {
	PublishBudgetAlert(ctx context.Context, n core.Notification, currency core.Currency) error
}

// QueueNotifier defers delivery to whoever consumes the broker queue.
type QueueNotifier struct {
	pub AlertPublisher
}

func NewQueueNotifier(pub AlertPublisher) *QueueNotifier {
	return &QueueNotifier{pub: pub}
}

func (q *QueueNotifier) Notify(ctx context.Context, n core.Notification, currency core.Currency) error {
	return q.pub.PublishBudgetAlert(ctx, n, currency)
}
