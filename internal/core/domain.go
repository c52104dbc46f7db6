package core

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	Income  TransactionType = "income"
	Expense TransactionType = "expense"
)

const (
	OneTime BillFrequency = "one-time"
	Weekly  BillFrequency = "weekly"
	Monthly BillFrequency = "monthly"
	Yearly  BillFrequency = "yearly"
)

// DateLayout is the wire and storage format of a Date.
const DateLayout = "2006-01-02"

const maxDescriptionLen = 200

type (
	TransactionType string

	BillFrequency string

	Date struct {
		time.Time
	}

	// Transaction is a single recorded income or expense. Amount is a
	// non-negative magnitude; Type carries the direction.
	Transaction struct {
		ID          string          `json:"id"`
		Type        TransactionType `json:"type"`
		Amount      Money           `json:"amount"`
		Description string          `json:"description"`
		Category    string          `json:"category"`
		Date        Date            `json:"date"`
	}

	// Budget is a per-category monthly spending limit.
	Budget struct {
		ID       string `json:"id"`
		Category string `json:"category"`
		Limit    Money  `json:"limit"`
		Enabled  bool   `json:"enabled"`
	}

	// Bill is a scheduled obligation.
	Bill struct {
		ID        string        `json:"id"`
		Name      string        `json:"name"`
		Amount    Money         `json:"amount"`
		DueDate   Date          `json:"dueDate"`
		Frequency BillFrequency `json:"frequency"`
		Category  string        `json:"category"`
		Paid      bool          `json:"paid"`
		// AnchorDay is the day of month a recurring bill falls on. It
		// survives clamping to a shorter month. Zero means DueDate's day.
		AnchorDay int           `json:"anchorDay,omitempty"`
	}

	// SavingsGoal is a target amount reached through periodic contributions.
	SavingsGoal struct {
		ID                  string `json:"id"`
		Name                string `json:"name"`
		TargetAmount        Money  `json:"targetAmount"`
		CurrentAmount       Money  `json:"currentAmount"`
		MonthlyContribution Money  `json:"monthlyContribution"`
		TargetDate          Date   `json:"targetDate"` // zero when unset
		Description         string `json:"description,omitempty"`
	}

	User struct {
		ID          string `json:"id"`
		Email       string `json:"email"`
		DisplayName string `json:"displayName"`
	}
)

var (
	ErrInvalidDate        = errors.New("invalid date")
	ErrInvalidAmount      = errors.New("invalid amount")
	ErrInvalidType        = errors.New("invalid transaction type")
	ErrInvalidFrequency   = errors.New("invalid bill frequency")
	ErrEmptyDescription   = errors.New("empty description")
	ErrDescriptionTooLong = errors.New("description too long (max 200 characters)")
	ErrEmptyName          = errors.New("empty name")
	ErrEmptyCategory      = errors.New("empty category")
	ErrUnknownCategory    = errors.New("unknown category")
	ErrGoalOverTarget     = errors.New("current amount exceeds target amount")
)

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// DateOf truncates t to its calendar day in t's location.
func DateOf(t time.Time) Date {
	return NewDate(t.Year(), int(t.Month()), t.Day())
}

// ParseDate parses a YYYY-MM-DD string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return Date{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}
	return Date{Time: t}, nil
}

func (d Date) Validate() error {
	if d.IsZero() {
		return ErrInvalidDate
	}
	return nil
}

func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(DateLayout)
}

// MarshalText encodes d as YYYY-MM-DD; the zero Date encodes as "".
func (d Date) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// MarshalJSON overrides the promoted time.Time encoding.
func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

// UnmarshalJSON accepts "YYYY-MM-DD", "" or null.
func (d *Date) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*d = Date{}
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidDate, b)
	}
	return d.UnmarshalText([]byte(s))
}

// UnmarshalText accepts YYYY-MM-DD or "".
func (d *Date) UnmarshalText(b []byte) error {
	if len(strings.TrimSpace(string(b))) == 0 {
		*d = Date{}
		return nil
	}
	parsed, err := ParseDate(string(b))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

func (t TransactionType) Valid() bool {
	return t == Income || t == Expense
}

func (f BillFrequency) Valid() bool {
	switch f {
	case OneTime, Weekly, Monthly, Yearly:
		return true
	}
	return false
}

// NewTransaction builds a validated transaction with a fresh id.
func NewTransaction(typ TransactionType, amount Money, description, category string, date Date) (Transaction, error) {
	t := Transaction{
		ID:          uuid.NewString(),
		Type:        typ,
		Amount:      amount,
		Description: strings.TrimSpace(description),
		Category:    strings.TrimSpace(category),
		Date:        date,
	}
	if err := t.Validate(); err != nil {
		return Transaction{}, err
	}
	return t, nil
}

func (t Transaction) Validate() error {
	if !t.Type.Valid() {
		return ErrInvalidType
	}
	if err := t.Amount.Validate(); err != nil {
		return err
	}
	if err := validateDescription(t.Description); err != nil {
		return err
	}
	if strings.TrimSpace(t.Category) == "" {
		return ErrEmptyCategory
	}
	return t.Date.Validate()
}

// Signed returns the amount with the sign implied by the transaction type.
func (t Transaction) Signed() Money {
	if t.Type == Income {
		return t.Amount.Abs()
	}
	return Money{Cents: -t.Amount.Abs().Cents}
}

// NewBudget builds an enabled budget. The limit must be positive.
func NewBudget(category string, limit Money) (Budget, error) {
	b := Budget{
		ID:       uuid.NewString(),
		Category: strings.TrimSpace(category),
		Limit:    limit,
		Enabled:  true,
	}
	if err := b.Validate(); err != nil {
		return Budget{}, err
	}
	return b, nil
}

func (b Budget) Validate() error {
	if strings.TrimSpace(b.Category) == "" {
		return ErrEmptyCategory
	}
	return b.Limit.Validate()
}

func NewBill(name string, amount Money, due Date, frequency BillFrequency, category string) (Bill, error) {
	b := Bill{
		ID:        uuid.NewString(),
		Name:      strings.TrimSpace(name),
		Amount:    amount,
		DueDate:   due,
		Frequency: frequency,
		Category:  strings.TrimSpace(category),
		AnchorDay: due.Day(),
	}
	if err := b.Validate(); err != nil {
		return Bill{}, err
	}
	return b, nil
}

func (b Bill) Validate() error {
	if strings.TrimSpace(b.Name) == "" {
		return ErrEmptyName
	}
	if err := b.Amount.Validate(); err != nil {
		return err
	}
	if err := b.DueDate.Validate(); err != nil {
		return err
	}
	if !b.Frequency.Valid() {
		return ErrInvalidFrequency
	}
	if strings.TrimSpace(b.Category) == "" {
		return ErrEmptyCategory
	}
	return nil
}

// NewSavingsGoal builds a goal; targetDate may be the zero Date.
func NewSavingsGoal(name string, target, current, monthly Money, targetDate Date, description string) (SavingsGoal, error) {
	g := SavingsGoal{
		ID:                  uuid.NewString(),
		Name:                strings.TrimSpace(name),
		TargetAmount:        target,
		CurrentAmount:       current,
		MonthlyContribution: monthly,
		TargetDate:          targetDate,
		Description:         strings.TrimSpace(description),
	}
	if err := g.Validate(); err != nil {
		return SavingsGoal{}, err
	}
	return g, nil
}

// Validate checks the creation-time invariants. Contributions made later are
// not re-validated against the target.
func (g SavingsGoal) Validate() error {
	if strings.TrimSpace(g.Name) == "" {
		return ErrEmptyName
	}
	if err := g.TargetAmount.Validate(); err != nil {
		return err
	}
	if g.CurrentAmount.Cents < 0 || g.MonthlyContribution.Cents < 0 {
		return ErrInvalidAmount
	}
	if g.CurrentAmount.Cents > g.TargetAmount.Cents {
		return ErrGoalOverTarget
	}
	if len(g.Description) > maxDescriptionLen {
		return ErrDescriptionTooLong
	}
	return nil
}

func validateDescription(s string) error {
	if len(strings.TrimSpace(s)) == 0 {
		return ErrEmptyDescription
	}
	if len(s) > maxDescriptionLen {
		return ErrDescriptionTooLong
	}
	return nil
}
