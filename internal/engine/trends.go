package engine

import (
	"slices"
	"time"

	"fintrack/internal/core"
)

// MonthLabel is the layout of MonthlySpending.Month.
const MonthLabel = "Jan 06"

// MonthlySpendingTrend returns exactly monthsBack entries ending with the
// month of now, oldest first. Months without expenses have a zero amount.
func MonthlySpendingTrend(txs []core.Transaction, monthsBack int, now time.Time) []MonthlySpending {
	if monthsBack <= 0 {
		return []MonthlySpending{}
	}
	byMonth := make(map[int]int64)
	for _, t := range txs {
		if t.Type != core.Expense || t.Date.IsZero() {
			continue
		}
		byMonth[monthKey(t.Date.Year(), t.Date.Month())] += t.Amount.Abs().Cents
	}

	out := make([]MonthlySpending, monthsBack)
	for i := range monthsBack {
		start := time.Date(now.Year(), now.Month()-time.Month(monthsBack-1-i), 1, 0, 0, 0, 0, time.UTC)
		out[i] = MonthlySpending{
			Month:  start.Format(MonthLabel),
			Start:  core.DateOf(start),
			Amount: core.Money{Cents: byMonth[monthKey(start.Year(), start.Month())]},
		}
	}
	return out
}

// CategoryBreakdown groups expenses by category, largest first. Categories
// with equal amounts keep the order they first appeared in.
func CategoryBreakdown(txs []core.Transaction) []CategorySpending {
	out := []CategorySpending{}
	index := make(map[string]int)
	var total int64
	for _, t := range txs {
		if t.Type != core.Expense {
			continue
		}
		amt := t.Amount.Abs()
		total += amt.Cents
		i, ok := index[t.Category]
		if !ok {
			i = len(out)
			index[t.Category] = i
			out = append(out, CategorySpending{Category: t.Category, Color: core.CategoryColor(t.Category)})
		}
		out[i].Amount = out[i].Amount.Add(amt)
		out[i].TransactionCount++
	}
	for i := range out {
		out[i].Percentage = percentOf(out[i].Amount.Cents, total)
	}
	slices.SortStableFunc(out, func(a, b CategorySpending) int {
		switch {
		case a.Amount.Cents > b.Amount.Cents:
			return -1
		case a.Amount.Cents < b.Amount.Cents:
			return 1
		}
		return 0
	})
	return out
}

// TrendPercentage reports the relative change from previous to current. A
// zero previous value reads as {0, up}.
func TrendPercentage(current, previous core.Money) Trend {
	if previous.Cents == 0 {
		return Trend{Percentage: 0, Direction: Up}
	}
	diff := current.Sub(previous).Abs()
	dir := Down
	if current.Cents > previous.Cents {
		dir = Up
	}
	return Trend{Percentage: percentOf(diff.Cents, previous.Abs().Cents), Direction: dir}
}

func monthKey(year int, month time.Month) int {
	return year*12 + int(month) - 1
}
