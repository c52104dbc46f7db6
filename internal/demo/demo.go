// Package demo holds the fixed sample dataset shown when demo mode is on.
package demo

import (
	"time"

	"fintrack/internal/core"
)

type txSeed struct {
	id          string
	typ         core.TransactionType
	cents       int64
	description string
	category    string
	date        core.Date
}

func d(y, m, day int) core.Date { return core.NewDate(y, m, day) }

var txSeeds = []txSeed{
	{"1", core.Income, 350000, "Salary", "Income", d(2024, 11, 1)},
	{"2", core.Income, 350000, "Salary", "Income", d(2024, 10, 1)},
	{"3", core.Income, 350000, "Salary", "Income", d(2024, 9, 1)},
	{"4", core.Income, 75000, "Freelance Project", "Income", d(2024, 11, 15)},

	{"5", core.Expense, 120000, "Monthly Rent", "Rent", d(2024, 11, 5)},
	{"6", core.Expense, 120000, "Monthly Rent", "Rent", d(2024, 10, 5)},
	{"7", core.Expense, 120000, "Monthly Rent", "Rent", d(2024, 9, 5)},

	{"8", core.Expense, 8550, "Whole Foods", "Groceries", d(2024, 11, 20)},
	{"9", core.Expense, 6240, "Trader Joe's", "Groceries", d(2024, 11, 18)},
	{"10", core.Expense, 10320, "Safeway", "Groceries", d(2024, 11, 15)},
	{"11", core.Expense, 7835, "Whole Foods", "Groceries", d(2024, 11, 10)},
	{"12", core.Expense, 5580, "Trader Joe's", "Groceries", d(2024, 11, 8)},

	{"13", core.Expense, 4500, "Gas - Shell", "Transportation", d(2024, 11, 22)},
	{"14", core.Expense, 4850, "Gas - Chevron", "Transportation", d(2024, 11, 15)},
	{"15", core.Expense, 4200, "Gas - Shell", "Transportation", d(2024, 11, 1)},
	{"16", core.Expense, 1875, "Uber Ride", "Transportation", d(2024, 10, 20)},

	{"17", core.Expense, 1550, "Chipotle", "Dining", d(2024, 11, 21)},
	{"18", core.Expense, 4830, "Thai Restaurant", "Dining", d(2024, 11, 19)},
	{"19", core.Expense, 650, "Coffee Shop", "Dining", d(2024, 11, 17)},
	{"20", core.Expense, 3200, "Pizza Place", "Dining", d(2024, 11, 14)},
	{"21", core.Expense, 5520, "Sushi Restaurant", "Dining", d(2024, 11, 10)},
	{"22", core.Expense, 1275, "Burger King", "Dining", d(2024, 11, 5)},

	{"23", core.Expense, 1599, "Netflix Subscription", "Entertainment", d(2024, 11, 20)},
	{"24", core.Expense, 2800, "Movie Tickets", "Entertainment", d(2024, 11, 15)},
	{"25", core.Expense, 1199, "Spotify Premium", "Entertainment", d(2024, 11, 10)},

	{"26", core.Expense, 12500, "Electric Bill", "Utilities", d(2024, 11, 1)},
	{"27", core.Expense, 11850, "Electric Bill", "Utilities", d(2024, 10, 1)},
	{"28", core.Expense, 13200, "Electric Bill", "Utilities", d(2024, 9, 1)},
}

// Transactions returns a fresh copy of the demo transactions.
func Transactions() []core.Transaction {
	out := make([]core.Transaction, len(txSeeds))
	for i, s := range txSeeds {
		out[i] = core.Transaction{
			ID:          s.id,
			Type:        s.typ,
			Amount:      core.Money{Cents: s.cents},
			Description: s.description,
			Category:    s.category,
			Date:        s.date,
		}
	}
	return out
}

// AsOf is the reference day for the demo dataset: the date of its latest
// transaction. Month-scoped figures computed in demo mode use it as today.
func AsOf() time.Time {
	var latest core.Date
	for _, s := range txSeeds {
		if s.date.After(latest.Time) {
			latest = s.date
		}
	}
	return latest.Time
}

// Budgets returns the demo budgets, all enabled.
func Budgets() []core.Budget {
	return []core.Budget{
		{ID: "1", Category: "Groceries", Limit: core.Money{Cents: 50000}, Enabled: true},
		{ID: "2", Category: "Transportation", Limit: core.Money{Cents: 20000}, Enabled: true},
		{ID: "3", Category: "Dining", Limit: core.Money{Cents: 30000}, Enabled: true},
		{ID: "4", Category: "Entertainment", Limit: core.Money{Cents: 10000}, Enabled: true},
		{ID: "5", Category: "Utilities", Limit: core.Money{Cents: 40000}, Enabled: true},
		{ID: "6", Category: "Rent", Limit: core.Money{Cents: 150000}, Enabled: true},
	}
}

// BudgetSettings wraps Budgets with every alert enabled.
func BudgetSettings() core.BudgetSettings {
	s := core.DefaultBudgetSettings()
	s.Budgets = Budgets()
	return s
}

func Goals() []core.SavingsGoal {
	return []core.SavingsGoal{
		{
			ID:                  "1",
			Name:                "House Down Payment",
			TargetAmount:        core.Money{Cents: 1000000},
			CurrentAmount:       core.Money{Cents: 750000},
			MonthlyContribution: core.Money{Cents: 35700},
			TargetDate:          d(2026, 6, 30),
		},
		{
			ID:                  "2",
			Name:                "Emergency Fund",
			TargetAmount:        core.Money{Cents: 600000},
			CurrentAmount:       core.Money{Cents: 420000},
			MonthlyContribution: core.Money{Cents: 30000},
			TargetDate:          d(2026, 3, 31),
		},
		{
			ID:                  "3",
			Name:                "Vacation",
			TargetAmount:        core.Money{Cents: 200000},
			CurrentAmount:       core.Money{Cents: 85000},
			MonthlyContribution: core.Money{Cents: 38300},
			TargetDate:          d(2025, 12, 31),
		},
	}
}

func Bills() []core.Bill {
	return []core.Bill{
		{ID: "1", Name: "Netflix", Amount: core.Money{Cents: 1599}, DueDate: d(2025, 11, 5), Frequency: core.Monthly, Category: "Entertainment"},
		{ID: "2", Name: "Rent", Amount: core.Money{Cents: 120000}, DueDate: d(2025, 11, 8), Frequency: core.Monthly, Category: "Housing"},
		{ID: "3", Name: "Internet", Amount: core.Money{Cents: 7999}, DueDate: d(2025, 11, 12), Frequency: core.Monthly, Category: "Utilities"},
		{ID: "4", Name: "Car Insurance", Amount: core.Money{Cents: 14500}, DueDate: d(2025, 11, 15), Frequency: core.Monthly, Category: "Other"},
		{ID: "5", Name: "Gym Membership", Amount: core.Money{Cents: 4999}, DueDate: d(2025, 11, 20), Frequency: core.Monthly, Category: "Entertainment"},
	}
}
