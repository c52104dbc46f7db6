package notify

import (
	"context"
	"errors"
	"net/smtp"
	"strings"
	"testing"

	"fintrack/internal/core"
	"fintrack/internal/storage/memory"
)

type recordingNotifier struct {
	got []core.Notification
	err error
}

func (r *recordingNotifier) Notify(_ context.Context, n core.Notification, _ core.Currency) error {
	r.got = append(r.got, n)
	return r.err
}

func TestRouter(t *testing.T) {
	tests := []struct {
		channel   core.NotificationType
		wantInApp int
		wantEmail int
	}{
		{core.NotifyInApp, 1, 0},
		{core.NotifyEmail, 0, 1},
		{core.NotifyBoth, 1, 1},
	}
	for _, tt := range tests {
		t.Run(string(tt.channel), func(t *testing.T) {
			inApp, email := &recordingNotifier{}, &recordingNotifier{}
			r := NewRouter(inApp, email)
			if err := r.Notify(context.Background(), core.Notification{Channel: tt.channel}, core.USD); err != nil {
				t.Fatalf("Notify() error = %v", err)
			}
			if len(inApp.got) != tt.wantInApp || len(email.got) != tt.wantEmail {
				t.Errorf("in-app=%d email=%d, want %d/%d", len(inApp.got), len(email.got), tt.wantInApp, tt.wantEmail)
			}
		})
	}
}

func TestRouterErrors(t *testing.T) {
	boom := errors.New("smtp down")
	inApp := &recordingNotifier{}
	r := NewRouter(inApp, &recordingNotifier{err: boom})

	err := r.Notify(context.Background(), core.Notification{Channel: core.NotifyBoth}, core.USD)
	if !errors.Is(err, boom) {
		t.Fatalf("expected email failure to surface, got %v", err)
	}
	if len(inApp.got) != 1 {
		t.Error("in-app delivery should not be skipped when email fails")
	}

	if err := r.Notify(context.Background(), core.Notification{Channel: "sms"}, core.USD); !errors.Is(err, core.ErrInvalidNotificationType) {
		t.Errorf("unknown channel should fail, got %v", err)
	}

	noEmail := NewRouter(inApp, nil)
	if err := noEmail.Notify(context.Background(), core.Notification{Channel: core.NotifyEmail}, core.USD); err != nil {
		t.Errorf("missing email notifier should be tolerated, got %v", err)
	}
}

func TestInAppNotifierStores(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	n := NewInAppNotifier(store)
	if err := n.Notify(ctx, core.Notification{ID: "a", Category: "Rent"}, core.USD); err != nil {
		t.Fatalf("Notify() error = %v", err)
	}
	list, _ := store.ListNotifications(ctx, 0)
	if len(list) != 1 || list[0].ID != "a" {
		t.Fatalf("unexpected stored notifications %+v", list)
	}
}

func TestEmailNotifier(t *testing.T) {
	var gotAddr, gotFrom string
	var gotTo []string
	var gotMsg []byte
	e := NewEmailNotifier(SMTPConfig{
		Host: "smtp.example.com",
		Port: "587",
		User: "alerts",
		From: "alerts@example.com",
		To:   []string{"ana@example.com"},
	})
	e.send = func(addr string, a smtp.Auth, from string, to []string, msg []byte) error {
		gotAddr, gotFrom, gotTo, gotMsg = addr, from, to, msg
		if a == nil {
			t.Error("expected plain auth when a user is configured")
		}
		return nil
	}

	n := core.Notification{
		Category:   "Dining",
		Threshold:  core.ThresholdOver,
		Percentage: 112,
		Spent:      core.Money{Cents: 33600},
		Limit:      core.Money{Cents: 30000},
	}
	if err := e.Notify(context.Background(), n, core.USD); err != nil {
		t.Fatalf("Notify() error = %v", err)
	}
	if gotAddr != "smtp.example.com:587" || gotFrom != "alerts@example.com" || len(gotTo) != 1 {
		t.Errorf("unexpected envelope %s %s %v", gotAddr, gotFrom, gotTo)
	}
	body := string(gotMsg)
	for _, want := range []string{"Subject: Budget alert: Dining", "over budget", "112%"} {
		if !strings.Contains(body, want) {
			t.Errorf("message missing %q:\n%s", want, body)
		}
	}
}

func TestEmailNotifierSendFailure(t *testing.T) {
	e := NewEmailNotifier(SMTPConfig{Host: "h", Port: "25", To: []string{"x@example.com"}})
	e.send = func(string, smtp.Auth, string, []string, []byte) error { return errors.New("refused") }
	if err := e.Notify(context.Background(), core.Notification{Category: "Rent"}, core.USD); err == nil {
		t.Fatal("send failure should be returned")
	}
}

type fakePublisher struct {
	got      []core.Notification
	currency core.Currency
}

func (f *fakePublisher) PublishBudgetAlert(_ context.Context, n core.Notification, c core.Currency) error {
	f.got = append(f.got, n)
	f.currency = c
	return nil
}

func TestQueueNotifier(t *testing.T) {
	pub := &fakePublisher{}
	q := NewQueueNotifier(pub)
	if err := q.Notify(context.Background(), core.Notification{ID: "n1"}, core.GBP); err != nil {
		t.Fatalf("Notify() error = %v", err)
	}
	if len(pub.got) != 1 || pub.currency != core.GBP {
		t.Errorf("publisher saw %+v in %s", pub.got, pub.currency)
	}
}
