package services

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"fintrack/internal/core"
	"fintrack/internal/ports"
)

// BudgetService edits the budget list and the alert preferences. Every
// mutation is load, change, save.
type BudgetService struct {
	store  ports.BudgetStore
	cache  Invalidator
	strict bool
}

func NewBudgetService(store ports.BudgetStore, cache Invalidator, strictCategories bool) *BudgetService {
	return &BudgetService{store: store, cache: orNop(cache), strict: strictCategories}
}

// NotificationPrefs are the alert toggles of BudgetSettings.
type NotificationPrefs struct {
	NotifyAt75       bool
	NotifyAt90       bool
	NotifyOverBudget bool
	NotificationType core.NotificationType
}

func (s *BudgetService) Settings(ctx context.Context) (core.BudgetSettings, error) {
	settings, err := s.store.LoadBudgetSettings(ctx)
	if err != nil {
		return core.BudgetSettings{}, fmt.Errorf("load budget settings: %w", err)
	}
	return settings, nil
}

func (s *BudgetService) Add(ctx context.Context, category string, limit core.Money) (core.Budget, error) {
	b, err := core.NewBudget(category, limit)
	if err != nil {
		return core.Budget{}, invalid(err)
	}
	if err := checkCategory(s.strict, b.Category); err != nil {
		return core.Budget{}, err
	}

	err = s.update(ctx, func(settings *core.BudgetSettings) error {
		if slices.ContainsFunc(settings.Budgets, func(x core.Budget) bool { return x.Category == b.Category }) {
			return fmt.Errorf("%w: %s", ErrDuplicateBudget, b.Category)
		}
		settings.Budgets = append(settings.Budgets, b)
		return nil
	})
	if err != nil {
		return core.Budget{}, err
	}
	slog.InfoContext(ctx, "Budget added", "category", b.Category, "limit_cents", b.Limit.Cents)
	return b, nil
}

func (s *BudgetService) Remove(ctx context.Context, id string) error {
	return s.update(ctx, func(settings *core.BudgetSettings) error {
		i, err := indexOfBudget(settings.Budgets, id)
		if err != nil {
			return err
		}
		settings.Budgets = slices.Delete(settings.Budgets, i, i+1)
		return nil
	})
}

func (s *BudgetService) UpdateLimit(ctx context.Context, id string, limit core.Money) (core.Budget, error) {
	if err := limit.Validate(); err != nil {
		return core.Budget{}, invalid(err)
	}
	return s.modify(ctx, id, func(b *core.Budget) { b.Limit = limit })
}

// Toggle flips whether the budget counts towards summaries and alerts.
func (s *BudgetService) Toggle(ctx context.Context, id string) (core.Budget, error) {
	return s.modify(ctx, id, func(b *core.Budget) { b.Enabled = !b.Enabled })
}

// ApplyTemplate replaces the whole budget list, keeping alert preferences.
func (s *BudgetService) ApplyTemplate(ctx context.Context, t core.BudgetTemplate) ([]core.Budget, error) {
	budgets, err := core.TemplateBudgets(core.BudgetTemplate(strings.TrimSpace(string(t))))
	if err != nil {
		return nil, invalid(err)
	}
	err = s.update(ctx, func(settings *core.BudgetSettings) error {
		settings.Budgets = budgets
		return nil
	})
	if err != nil {
		return nil, err
	}
	slog.InfoContext(ctx, "Budget template applied", "template", t, "budgets", len(budgets))
	return budgets, nil
}

func (s *BudgetService) UpdateNotifications(ctx context.Context, p NotificationPrefs) (core.BudgetSettings, error) {
	if !p.NotificationType.Valid() {
		return core.BudgetSettings{}, invalid(core.ErrInvalidNotificationType)
	}
	var out core.BudgetSettings
	err := s.update(ctx, func(settings *core.BudgetSettings) error {
		settings.NotifyAt75 = p.NotifyAt75
		settings.NotifyAt90 = p.NotifyAt90
		settings.NotifyOverBudget = p.NotifyOverBudget
		settings.NotificationType = p.NotificationType
		out = *settings
		return nil
	})
	return out, err
}

func (s *BudgetService) modify(ctx context.Context, id string, change func(*core.Budget)) (core.Budget, error) {
	var out core.Budget
	err := s.update(ctx, func(settings *core.BudgetSettings) error {
		i, err := indexOfBudget(settings.Budgets, id)
		if err != nil {
			return err
		}
		change(&settings.Budgets[i])
		out = settings.Budgets[i]
		return nil
	})
	return out, err
}

func (s *BudgetService) update(ctx context.Context, change func(*core.BudgetSettings) error) error {
	settings, err := s.store.LoadBudgetSettings(ctx)
	if err != nil {
		return fmt.Errorf("load budget settings: %w", err)
	}
	if err := change(&settings); err != nil {
		return err
	}
	if err := s.store.SaveBudgetSettings(ctx, settings); err != nil {
		return fmt.Errorf("save budget settings: %w", err)
	}
	s.cache.Invalidate()
	return nil
}

func indexOfBudget(budgets []core.Budget, id string) (int, error) {
	i := slices.IndexFunc(budgets, func(b core.Budget) bool { return b.ID == id })
	if i < 0 {
		return -1, fmt.Errorf("budget %s: %w", id, ErrNotFound)
	}
	return i, nil
}
