// Package ports declares the storage and export interfaces consumed by the
// services. Stores are last-write-wins and loading from an empty store
// yields empty collections or defaults rather than an error.
package ports

import (
	"context"
	"errors"
	"time"

	"fintrack/internal/core"
)

// ErrNotFound is returned when a record with the requested id does not exist.
var ErrNotFound = errors.New("not found")

// ErrConflict is returned when a unique key is already taken.
var ErrConflict = errors.New("already exists")

type (
	TransactionStore interface {
		LoadTransactions(ctx context.Context) ([]core.Transaction, error)
		AppendTransaction(ctx context.Context, t core.Transaction) error
		GetTransaction(ctx context.Context, id string) (core.Transaction, error)
		ClearTransactions(ctx context.Context) error
	}

	// BudgetStore persists the budget list together with alert preferences.
	BudgetStore interface {
		LoadBudgetSettings(ctx context.Context) (core.BudgetSettings, error)
		SaveBudgetSettings(ctx context.Context, s core.BudgetSettings) error
	}

	BillStore interface {
		LoadBills(ctx context.Context) ([]core.Bill, error)
		GetBill(ctx context.Context, id string) (core.Bill, error)
		SaveBill(ctx context.Context, b core.Bill) error
	}

	GoalStore interface {
		LoadGoals(ctx context.Context) ([]core.SavingsGoal, error)
		GetGoal(ctx context.Context, id string) (core.SavingsGoal, error)
		SaveGoal(ctx context.Context, g core.SavingsGoal) error
	}

	SettingsStore interface {
		LoadUserSettings(ctx context.Context) (core.UserSettings, error)
		SaveUserSettings(ctx context.Context, s core.UserSettings) error
	}

	NotificationStore interface {
		AddNotification(ctx context.Context, n core.Notification) error
		// ListNotifications returns the newest notifications first. A limit
		// of zero or less returns all of them.
		ListNotifications(ctx context.Context, limit int) ([]core.Notification, error)
	}

	UserStore interface {
		CreateUser(ctx context.Context, u UserRecord) error
		GetUserByEmail(ctx context.Context, email string) (UserRecord, error)
	}

	// SyncTracker tracks which transactions still have to be exported.
	SyncTracker interface {
		PendingSync(ctx context.Context, limit int) ([]core.Transaction, error)
		MarkSynced(ctx context.Context, id string) error
		MarkSyncError(ctx context.Context, id string) error
	}

	// TransactionExporter writes a transaction to an external destination.
	TransactionExporter interface {
		Export(ctx context.Context, t core.Transaction) (rowRef string, err error)
	}
)

// UserRecord is a stored profile with its password hash.
type UserRecord struct {
	core.User
	PasswordHash string
	CreatedAt    time.Time
}

// Store groups every persistence port a backend provides.
type Store interface {
	TransactionStore
	BudgetStore
	BillStore
	GoalStore
	SettingsStore
	NotificationStore
	UserStore
	SyncTracker
}
