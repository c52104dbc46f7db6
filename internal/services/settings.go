package services

import (
	"context"
	"fmt"
	"strings"

	"fintrack/internal/core"
	"fintrack/internal/ports"
)

// SettingsPatch carries the fields to change; nil fields are kept.
type SettingsPatch struct {
	DisplayName *string
	Email       *string
	Theme       *core.Theme
	Currency    *core.Currency
	DateFormat  *core.DateFormat
	UseDemoData *bool
	Language    *string
}

type SettingsService struct {
	store ports.SettingsStore
	cache Invalidator
}

func NewSettingsService(store ports.SettingsStore, cache Invalidator) *SettingsService {
	return &SettingsService{store: store, cache: orNop(cache)}
}

func (s *SettingsService) Get(ctx context.Context) (core.UserSettings, error) {
	u, err := s.store.LoadUserSettings(ctx)
	if err != nil {
		return core.UserSettings{}, fmt.Errorf("load settings: %w", err)
	}
	return u, nil
}

func (s *SettingsService) Update(ctx context.Context, p SettingsPatch) (core.UserSettings, error) {
	u, err := s.Get(ctx)
	if err != nil {
		return core.UserSettings{}, err
	}
	if p.DisplayName != nil {
		u.DisplayName = strings.TrimSpace(*p.DisplayName)
	}
	if p.Email != nil {
		u.Email = strings.TrimSpace(*p.Email)
	}
	if p.Theme != nil {
		u.Theme = *p.Theme
	}
	if p.Currency != nil {
		u.Currency = core.Currency(strings.ToUpper(string(*p.Currency)))
	}
	if p.DateFormat != nil {
		u.DateFormat = *p.DateFormat
	}
	if p.UseDemoData != nil {
		u.UseDemoData = *p.UseDemoData
	}
	if p.Language != nil {
		u.Language = strings.TrimSpace(*p.Language)
	}
	if err := u.Validate(); err != nil {
		return core.UserSettings{}, invalid(err)
	}
	if err := s.store.SaveUserSettings(ctx, u); err != nil {
		return core.UserSettings{}, fmt.Errorf("save settings: %w", err)
	}
	s.cache.Invalidate()
	return u, nil
}
