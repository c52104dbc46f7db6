// Package memory is an in-process implementation of every storage port.
package memory

import (
	"context"
	"slices"
	"strings"
	"sync"

	"fintrack/internal/core"
	"fintrack/internal/demo"
	"fintrack/internal/ports"
)

type syncState int

const (
	syncPending syncState = iota
	syncDone
	syncFailed
)

type Store struct {
	mu            sync.Mutex
	txs           []core.Transaction
	exported      map[string]syncState
	budgets       *core.BudgetSettings
	bills         []core.Bill
	goals         []core.SavingsGoal
	settings      *core.UserSettings
	notifications []core.Notification
	users         map[string]ports.UserRecord
}

var _ ports.Store = (*Store)(nil)

func New() *Store {
	return &Store{
		exported: map[string]syncState{},
		users:    map[string]ports.UserRecord{},
	}
}

// NewDemo returns a store seeded with the demo dataset. Seeded transactions
// count as already exported.
func NewDemo() *Store {
	s := New()
	s.txs = demo.Transactions()
	for _, t := range s.txs {
		s.exported[t.ID] = syncDone
	}
	b := demo.BudgetSettings()
	s.budgets = &b
	s.bills = demo.Bills()
	s.goals = demo.Goals()
	return s
}

func (s *Store) LoadTransactions(_ context.Context) ([]core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.txs), nil
}

func (s *Store) AppendTransaction(_ context.Context, t core.Transaction) error {
	if err := t.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.exported[t.ID]; ok {
		return ports.ErrConflict
	}
	s.txs = append(s.txs, t)
	s.exported[t.ID] = syncPending
	return nil
}

func (s *Store) GetTransaction(_ context.Context, id string) (core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, t := range s.txs {
		if t.ID == id {
			return t, nil
		}
	}
	return core.Transaction{}, ports.ErrNotFound
}

func (s *Store) ClearTransactions(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.txs = nil
	s.exported = map[string]syncState{}
	return nil
}

func (s *Store) LoadBudgetSettings(_ context.Context) (core.BudgetSettings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.budgets == nil {
		return core.DefaultBudgetSettings(), nil
	}
	out := *s.budgets
	out.Budgets = slices.Clone(out.Budgets)
	return out, nil
}

func (s *Store) SaveBudgetSettings(_ context.Context, b core.BudgetSettings) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	b.Budgets = slices.Clone(b.Budgets)
	s.budgets = &b
	return nil
}

func (s *Store) LoadBills(_ context.Context) ([]core.Bill, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.bills), nil
}

func (s *Store) GetBill(_ context.Context, id string) (core.Bill, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, b := range s.bills {
		if b.ID == id {
			return b, nil
		}
	}
	return core.Bill{}, ports.ErrNotFound
}

// SaveBill inserts b or replaces the bill with the same id.
func (s *Store) SaveBill(_ context.Context, b core.Bill) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.bills {
		if s.bills[i].ID == b.ID {
			s.bills[i] = b
			return nil
		}
	}
	s.bills = append(s.bills, b)
	return nil
}

func (s *Store) LoadGoals(_ context.Context) ([]core.SavingsGoal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.goals), nil
}

func (s *Store) GetGoal(_ context.Context, id string) (core.SavingsGoal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, g := range s.goals {
		if g.ID == id {
			return g, nil
		}
	}
	return core.SavingsGoal{}, ports.ErrNotFound
}

// SaveGoal inserts g or replaces the goal with the same id.
func (s *Store) SaveGoal(_ context.Context, g core.SavingsGoal) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.goals {
		if s.goals[i].ID == g.ID {
			s.goals[i] = g
			return nil
		}
	}
	s.goals = append(s.goals, g)
	return nil
}

func (s *Store) LoadUserSettings(_ context.Context) (core.UserSettings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.settings == nil {
		return core.DefaultUserSettings(), nil
	}
	return *s.settings, nil
}

func (s *Store) SaveUserSettings(_ context.Context, u core.UserSettings) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.settings = &u
	return nil
}

func (s *Store) AddNotification(_ context.Context, n core.Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.notifications = append(s.notifications, n)
	return nil
}

func (s *Store) ListNotifications(_ context.Context, limit int) ([]core.Notification, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := slices.Clone(s.notifications)
	slices.Reverse(out)
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *Store) CreateUser(_ context.Context, u ports.UserRecord) error {
	key := strings.ToLower(u.Email)
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[key]; ok {
		return ports.ErrConflict
	}
	s.users[key] = u
	return nil
}

func (s *Store) GetUserByEmail(_ context.Context, email string) (ports.UserRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[strings.ToLower(email)]
	if !ok {
		return ports.UserRecord{}, ports.ErrNotFound
	}
	return u, nil
}

// PendingSync returns unexported transactions in insertion order.
func (s *Store) PendingSync(_ context.Context, limit int) ([]core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []core.Transaction
	for _, t := range s.txs {
		if s.exported[t.ID] != syncPending {
			continue
		}
		out = append(out, t)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

func (s *Store) MarkSynced(_ context.Context, id string) error {
	return s.setSync(id, syncDone)
}

func (s *Store) MarkSyncError(_ context.Context, id string) error {
	return s.setSync(id, syncFailed)
}

func (s *Store) setSync(id string, st syncState) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.exported[id]; !ok {
		return ports.ErrNotFound
	}
	s.exported[id] = st
	return nil
}
