package engine

import (
	"time"

	"fintrack/internal/core"
)

// TotalIncome sums the magnitudes of income transactions.
func TotalIncome(txs []core.Transaction) core.Money {
	return sumType(txs, core.Income)
}

// TotalExpenses sums the magnitudes of expense transactions.
func TotalExpenses(txs []core.Transaction) core.Money {
	return sumType(txs, core.Expense)
}

// TotalBalance is income minus expenses and may be negative.
func TotalBalance(txs []core.Transaction) core.Money {
	var total core.Money
	for _, t := range txs {
		if t.Type.Valid() {
			total = total.Add(t.Signed())
		}
	}
	return total
}

// SavingsRate is the share of income left after expenses, in percent.
func SavingsRate(income, expenses core.Money) int {
	if income.Cents == 0 {
		return 0
	}
	return percentOf(income.Cents-expenses.Cents, income.Cents)
}

func IncomeExpense(txs []core.Transaction) IncomeExpenseData {
	in := TotalIncome(txs)
	out := TotalExpenses(txs)
	return IncomeExpenseData{
		Income:      in,
		Expenses:    out,
		NetChange:   in.Sub(out),
		SavingsRate: SavingsRate(in, out),
	}
}

// CategorySpend sums expense magnitudes whose category equals category
// exactly.
func CategorySpend(category string, txs []core.Transaction) core.Money {
	spent, _ := categorySpend(category, txs)
	return spent
}

// InMonth keeps the transactions dated in the calendar month of now.
func InMonth(txs []core.Transaction, now time.Time) []core.Transaction {
	out := make([]core.Transaction, 0, len(txs))
	for _, t := range txs {
		if sameMonth(t.Date, now) {
			out = append(out, t)
		}
	}
	return out
}

func categorySpend(category string, txs []core.Transaction) (core.Money, int) {
	var spent core.Money
	count := 0
	for _, t := range txs {
		if t.Type == core.Expense && t.Category == category {
			spent = spent.Add(t.Amount.Abs())
			count++
		}
	}
	return spent, count
}

func sumType(txs []core.Transaction, typ core.TransactionType) core.Money {
	var total core.Money
	for _, t := range txs {
		if t.Type == typ {
			total = total.Add(t.Amount.Abs())
		}
	}
	return total
}

func sameMonth(d core.Date, now time.Time) bool {
	if d.IsZero() {
		return false
	}
	return d.Year() == now.Year() && d.Month() == now.Month()
}

func daysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
