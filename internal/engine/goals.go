package engine

import (
	"time"

	"fintrack/internal/core"
)

// minProjectedContribution stands in for a zero monthly contribution so the
// completion date stays finite.
var minProjectedContribution = core.Money{Cents: 100}

// SavingsProgress is current/target in percent, capped at 100.
func SavingsProgress(current, target core.Money) float64 {
	if target.Cents <= 0 {
		return 0
	}
	p := float64(current.Cents) / float64(target.Cents) * 100
	if p > 100 {
		return 100
	}
	if p < 0 {
		return 0
	}
	return p
}

// ProjectSavingsGoal estimates whether the planned contribution reaches the
// target by its date. A goal without a target date has no months remaining.
func ProjectSavingsGoal(g core.SavingsGoal, now time.Time) GoalProjection {
	pct := 0
	if g.TargetAmount.Cents > 0 {
		pct = percentOf(g.CurrentAmount.Cents, g.TargetAmount.Cents)
	}

	months := 0
	if !g.TargetDate.IsZero() {
		months = monthKey(g.TargetDate.Year(), g.TargetDate.Month()) - monthKey(now.Year(), now.Month())
		if months < 0 {
			months = 0
		}
	}

	left := g.TargetAmount.Sub(g.CurrentAmount)
	if left.Cents < 0 {
		left = core.Money{}
	}
	span := int64(max(months, 1))
	required := divMoney(left, span)

	// Compare totals over the span; the rounded monthly figure can hide a
	// shortfall of a fraction of a cent per month.
	status := GoalOnTrack
	switch planned := g.MonthlyContribution.Cents * span; {
	case planned < left.Cents:
		status = GoalBehind
	case planned > left.Cents:
		status = GoalAhead
	}

	contribution := g.MonthlyContribution
	if contribution.Cents < minProjectedContribution.Cents {
		contribution = minProjectedContribution
	}
	need := ceilDiv(left.Cents, contribution.Cents)
	completion := time.Date(now.Year(), now.Month()+time.Month(need), 1, 0, 0, 0, 0, time.UTC)

	return GoalProjection{
		Percentage:          pct,
		MonthsRemaining:     months,
		RequiredMonthly:     required,
		Status:              status,
		ProjectedCompletion: core.DateOf(completion),
	}
}
