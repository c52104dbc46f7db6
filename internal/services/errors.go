// Package services orchestrates the domain operations on top of the storage
// ports, the aggregation engine and the outbound adapters.
package services

import (
	"context"
	"errors"
	"fmt"

	"fintrack/internal/core"
	"fintrack/internal/ports"
)

var (
	ErrNotFound        = ports.ErrNotFound
	ErrValidation      = errors.New("validation failed")
	ErrDuplicateBudget = errors.New("a budget for this category already exists")
	ErrAlreadyPaid     = errors.New("bill is already paid")
)

// invalid tags a domain validation error so callers can match ErrValidation
// and still see the cause.
func invalid(err error) error {
	return fmt.Errorf("%w: %w", ErrValidation, err)
}

// Invalidator drops derived state after a write.
type Invalidator interface {
	Invalidate()
}

// SyncPublisher announces a stored transaction that has to be exported.
type SyncPublisher interface {
	PublishTransactionSync(ctx context.Context, id string) error
}

type nopInvalidator struct{}

func (nopInvalidator) Invalidate() {}

func orNop(inv Invalidator) Invalidator {
	if inv == nil {
		return nopInvalidator{}
	}
	return inv
}

func checkCategory(strict bool, category string) error {
	if strict && !core.IsKnownCategory(category) {
		return invalid(fmt.Errorf("%w: %q", core.ErrUnknownCategory, category))
	}
	return nil
}
