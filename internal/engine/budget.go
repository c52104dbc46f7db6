package engine

import (
	"slices"
	"time"

	"fintrack/internal/core"
)

// SummarizeBudget computes spend against a single budget, whether or not it
// is enabled.
func SummarizeBudget(b core.Budget, txs []core.Transaction) BudgetSummary {
	spent, count := categorySpend(b.Category, txs)
	pct := 0
	if b.Limit.Cents > 0 {
		pct = percentOf(spent.Cents, b.Limit.Cents)
	}
	return BudgetSummary{
		BudgetID:           b.ID,
		Category:           b.Category,
		Budgeted:           b.Limit,
		Spent:              spent,
		Remaining:          b.Limit.Sub(spent),
		Percentage:         pct,
		Status:             classify(spent, b.Limit),
		TransactionCount:   count,
		AverageTransaction: divMoney(spent, int64(count)),
	}
}

// BudgetSummaries summarizes the enabled budgets, over first, then warning,
// then good. Order within a band follows the input.
func BudgetSummaries(budgets []core.Budget, txs []core.Transaction) []BudgetSummary {
	out := make([]BudgetSummary, 0, len(budgets))
	for _, b := range budgets {
		if b.Enabled {
			out = append(out, SummarizeBudget(b, txs))
		}
	}
	slices.SortStableFunc(out, func(a, b BudgetSummary) int {
		return statusRank(a.Status) - statusRank(b.Status)
	})
	return out
}

// MonthlyBudgetStatus aggregates the enabled limits against every expense,
// including those in categories without a budget.
func MonthlyBudgetStatus(budgets []core.Budget, txs []core.Transaction, now time.Time) MonthlyBudget {
	var total core.Money
	for _, b := range budgets {
		if b.Enabled {
			total = total.Add(b.Limit)
		}
	}
	spent := TotalExpenses(txs)
	pct := 0
	if total.Cents > 0 {
		pct = percentOf(spent.Cents, total.Cents)
	}
	days := daysIn(now.Year(), now.Month())
	return MonthlyBudget{
		TotalBudget:   total,
		TotalSpent:    spent,
		Remaining:     total.Sub(spent),
		Percentage:    pct,
		Status:        classify(spent, total),
		DaysRemaining: days - now.Day(),
		DaysInMonth:   days,
	}
}

// SpendingAllowance compares spend to a monthly target. Warning starts above
// 80% of the target.
func SpendingAllowance(txs []core.Transaction, target core.Money) Allowance {
	spent := TotalExpenses(txs)
	safe := target.Sub(spent)
	if safe.Cents < 0 {
		safe = core.Money{}
	}
	status := StatusGood
	switch {
	case spent.Cents > target.Cents:
		status = StatusOver
	case spent.Cents*5 > target.Cents*4:
		status = StatusWarning
	}
	return Allowance{Spent: spent, SafeToSpend: safe, Status: status}
}

// CrossedThresholds lists the enabled alert levels passed when spend on a
// budget of the given limit moves from prev to next. Levels compare cents, so
// the over-budget level agrees with the summary status.
func CrossedThresholds(prev, next, limit core.Money, s core.BudgetSettings) []core.Threshold {
	if limit.Cents <= 0 {
		return nil
	}
	var levels []core.Threshold
	if s.NotifyAt75 {
		levels = append(levels, core.Threshold75)
	}
	if s.NotifyAt90 {
		levels = append(levels, core.Threshold90)
	}
	if s.NotifyOverBudget {
		levels = append(levels, core.ThresholdOver)
	}
	reached := func(spent core.Money, l core.Threshold) bool {
		return spent.Cents*100 >= limit.Cents*int64(l)
	}
	var crossed []core.Threshold
	for _, l := range levels {
		if !reached(prev, l) && reached(next, l) {
			crossed = append(crossed, l)
		}
	}
	return crossed
}
