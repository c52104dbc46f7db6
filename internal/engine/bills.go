package engine

import (
	"slices"
	"time"

	"fintrack/internal/core"
)

// NextDueDate returns the occurrence after d for the frequency. Monthly and
// yearly schedules clamp to the last day of a shorter month. One-time bills
// have no next occurrence.
func NextDueDate(d core.Date, f core.BillFrequency) (core.Date, bool) {
	return NextDueDateAnchored(d, f, d.Day())
}

// NextDueDateAnchored is NextDueDate for a schedule pinned to anchorDay, so a
// bill clamped to Feb 28 is back on the 31st in March. An anchorDay <= 0
// uses d's day.
func NextDueDateAnchored(d core.Date, f core.BillFrequency, anchorDay int) (core.Date, bool) {
	if anchorDay <= 0 {
		anchorDay = d.Day()
	}
	switch f {
	case core.Weekly:
		return core.DateOf(d.AddDate(0, 0, 7)), true
	case core.Monthly:
		return addMonthsClamped(d, 1, anchorDay), true
	case core.Yearly:
		return addMonthsClamped(d, 12, anchorDay), true
	default:
		return core.Date{}, false
	}
}

// addMonthsClamped moves d by n months, keeping day where the target month
// has it and using the month's last day otherwise.
func addMonthsClamped(d core.Date, n, day int) core.Date {
	first := time.Date(d.Year(), d.Month()+time.Month(n), 1, 0, 0, 0, 0, time.UTC)
	last := daysIn(first.Year(), first.Month())
	if day > last {
		day = last
	}
	return core.NewDate(first.Year(), int(first.Month()), day)
}

// BillState classifies a bill relative to today.
func BillState(b core.Bill, now time.Time) BillStatus {
	if b.Paid {
		return BillPaid
	}
	if b.DueDate.Before(core.DateOf(now).Time) {
		return BillOverdue
	}
	return BillPending
}

// DaysUntil is the number of days until due, rounded up and never negative.
func DaysUntil(due core.Date, now time.Time) int {
	d := due.Sub(now)
	if d <= 0 {
		return 0
	}
	return int(ceilDiv(int64(d), int64(24*time.Hour)))
}

// UpcomingBills annotates bills with their status, soonest first. A limit
// of zero or less returns every bill.
func UpcomingBills(bills []core.Bill, now time.Time, limit int) []UpcomingBill {
	out := make([]UpcomingBill, 0, len(bills))
	for _, b := range bills {
		out = append(out, UpcomingBill{
			Bill:      b,
			Status:    BillState(b, now),
			DaysUntil: DaysUntil(b.DueDate, now),
		})
	}
	slices.SortStableFunc(out, func(a, b UpcomingBill) int {
		if a.DaysUntil != b.DaysUntil {
			return a.DaysUntil - b.DaysUntil
		}
		return a.DueDate.Compare(b.DueDate.Time)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

// TotalDueThisMonth sums unpaid bills due in the calendar month of now.
func TotalDueThisMonth(bills []core.Bill, now time.Time) core.Money {
	var total core.Money
	for _, b := range bills {
		if !b.Paid && sameMonth(b.DueDate, now) {
			total = total.Add(b.Amount.Abs())
		}
	}
	return total
}
