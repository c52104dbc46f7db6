package services

import (
	"context"
	"sync"
	"time"

	"fintrack/internal/core"
)

var testNow = time.Date(2025, 11, 20, 10, 0, 0, 0, time.UTC)

func fixedClock() time.Time { return testNow }

type fakeSync struct {
	mu  sync.Mutex
	ids []string
	err error
}

func (f *fakeSync) PublishTransactionSync(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ids = append(f.ids, id)
	return f.err
}

type fakeNotifier struct {
	got      []core.Notification
	currency core.Currency
}

func (f *fakeNotifier) Notify(_ context.Context, n core.Notification, c core.Currency) error {
	f.got = append(f.got, n)
	f.currency = c
	return nil
}

type countingInvalidator struct{ n int }

func (c *countingInvalidator) Invalidate() { c.n++ }

func money(cents int64) core.Money { return core.Money{Cents: cents} }
