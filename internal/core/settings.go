package core

import (
	"errors"
	"strconv"
)

const (
	NotifyEmail NotificationType = "email"
	NotifyInApp NotificationType = "in-app"
	NotifyBoth  NotificationType = "both"
)

const (
	TemplateFiftyThirty BudgetTemplate = "5030"
	TemplateZeroBased   BudgetTemplate = "zerobased"
	TemplateCustom      BudgetTemplate = "custom"
)

const (
	ThemeLight Theme = "light"
	ThemeDark  Theme = "dark"
)

const (
	DateFormatUS DateFormat = "MM/DD/YYYY"
	DateFormatEU DateFormat = "DD/MM/YYYY"
)

type (
	NotificationType string

	BudgetTemplate string

	Theme string

	DateFormat string

	// BudgetSettings groups every budget with the alert preferences.
	BudgetSettings struct {
		Budgets          []Budget         `json:"budgets"`
		NotifyAt75       bool             `json:"notifyAt75"`
		NotifyAt90       bool             `json:"notifyAt90"`
		NotifyOverBudget bool             `json:"notifyOverBudget"`
		NotificationType NotificationType `json:"notificationType"`
	}

	// UserSettings are display preferences for the single local profile.
	UserSettings struct {
		DisplayName string     `json:"displayName"`
		Email       string     `json:"email"`
		Theme       Theme      `json:"theme"`
		Currency    Currency   `json:"currency"`
		DateFormat  DateFormat `json:"dateFormat"`
		UseDemoData bool       `json:"useDemoData"`
		Language    string     `json:"language"`
	}
)

var (
	ErrInvalidTemplate         = errors.New("invalid budget template")
	ErrInvalidNotificationType = errors.New("invalid notification type")
	ErrInvalidCurrency         = errors.New("unsupported currency")
	ErrInvalidTheme            = errors.New("invalid theme")
	ErrInvalidDateFormat       = errors.New("invalid date format")
)

func (n NotificationType) Valid() bool {
	return n == NotifyEmail || n == NotifyInApp || n == NotifyBoth
}

func (t BudgetTemplate) Valid() bool {
	return t == TemplateFiftyThirty || t == TemplateZeroBased || t == TemplateCustom
}

func defaultBudgets() []Budget {
	return budgetList([]budgetSeed{
		{"1", "Housing", 1200},
		{"2", "Food & Dining", 600},
		{"3", "Transportation", 300},
		{"4", "Entertainment", 200},
		{"5", "Shopping", 400},
		{"6", "Utilities", 200},
		{"7", "Healthcare", 150},
		{"8", "Other", 450},
	})
}

func fiftyThirtyBudgets() []Budget {
	return budgetList([]budgetSeed{
		{"1", "Housing", 1750},
		{"2", "Food & Dining", 525},
		{"3", "Transportation", 350},
		{"4", "Entertainment", 175},
		{"8", "Other", 700},
	})
}

type budgetSeed struct {
	id       string
	category string
	units    int64
}

func budgetList(seeds []budgetSeed) []Budget {
	out := make([]Budget, len(seeds))
	for i, s := range seeds {
		out[i] = Budget{ID: s.id, Category: s.category, Limit: Money{Cents: s.units * 100}, Enabled: true}
	}
	return out
}

// DefaultBudgetSettings is what a fresh profile starts with.
func DefaultBudgetSettings() BudgetSettings {
	return BudgetSettings{
		Budgets:          defaultBudgets(),
		NotifyAt75:       true,
		NotifyAt90:       true,
		NotifyOverBudget: true,
		NotificationType: NotifyInApp,
	}
}

// TemplateBudgets returns the budget list for a template. Zero-based and
// custom both reset to the defaults.
func TemplateBudgets(t BudgetTemplate) ([]Budget, error) {
	switch t {
	case TemplateFiftyThirty:
		return fiftyThirtyBudgets(), nil
	case TemplateZeroBased, TemplateCustom:
		return defaultBudgets(), nil
	default:
		return nil, ErrInvalidTemplate
	}
}

// EnabledBudgets filters out disabled budgets, keeping order.
func (s BudgetSettings) EnabledBudgets() []Budget {
	out := make([]Budget, 0, len(s.Budgets))
	for _, b := range s.Budgets {
		if b.Enabled {
			out = append(out, b)
		}
	}
	return out
}

// DefaultUserSettings is what a fresh profile starts with.
func DefaultUserSettings() UserSettings {
	return UserSettings{
		Theme:      ThemeLight,
		Currency:   USD,
		DateFormat: DateFormatUS,
		Language:   "English",
	}
}

func (s UserSettings) Validate() error {
	if !IsSupportedCurrency(s.Currency) {
		return ErrInvalidCurrency
	}
	if s.Theme != ThemeLight && s.Theme != ThemeDark {
		return ErrInvalidTheme
	}
	if s.DateFormat != DateFormatUS && s.DateFormat != DateFormatEU {
		return ErrInvalidDateFormat
	}
	return nil
}

// FormatDate renders d according to the preferred date format.
func (s UserSettings) FormatDate(d Date) string {
	if d.IsZero() {
		return ""
	}
	if s.DateFormat == DateFormatEU {
		return d.Format("02/01/2006")
	}
	return d.Format("01/02/2006")
}

// Threshold is a budget alert level in percent of the limit.
type Threshold int

const (
	Threshold75   Threshold = 75
	Threshold90   Threshold = 90
	ThresholdOver Threshold = 100
)

func (t Threshold) String() string {
	if t == ThresholdOver {
		return "over-budget"
	}
	return strconv.Itoa(int(t)) + "%"
}
