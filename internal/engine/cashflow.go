package engine

import (
	"slices"
	"time"

	"fintrack/internal/core"
)

// ProjectCashFlow walks the balance forward day by day for the given number
// of days starting today. Unpaid bill occurrences are subtracted on their due
// day, overdue ones on the first day. Income received last month is assumed
// to arrive again one month later.
func ProjectCashFlow(txs []core.Transaction, bills []core.Bill, now time.Time, days int, lowBalance core.Money) CashFlowProjection {
	balance := TotalBalance(txs)
	proj := CashFlowProjection{
		Points:              []CashFlowPoint{},
		CurrentBalance:      balance,
		ProjectedEndBalance: balance,
	}
	if days <= 0 {
		return proj
	}

	today := core.DateOf(now)
	end := core.DateOf(today.AddDate(0, 0, days))
	events := append(billEvents(bills, today, end), incomeEvents(txs, today, end)...)
	slices.SortStableFunc(events, func(a, b CashFlowEvent) int {
		return a.Date.Compare(b.Date.Time)
	})

	for _, e := range events {
		if e.Amount.Cents > 0 && proj.NextIncome == nil {
			proj.NextIncome = &e
		}
		if e.Amount.Cents < 0 && proj.NextExpense == nil {
			proj.NextExpense = &e
		}
	}

	next := 0
	for i := range days {
		day := core.DateOf(today.AddDate(0, 0, i))
		for next < len(events) && !events[next].Date.After(day.Time) {
			balance = balance.Add(events[next].Amount)
			next++
		}
		proj.Points = append(proj.Points, CashFlowPoint{Date: day, Balance: balance})
		if balance.Cents < lowBalance.Cents {
			proj.LowBalanceWarning = true
		}
	}
	proj.ProjectedEndBalance = balance
	return proj
}

func billEvents(bills []core.Bill, today, end core.Date) []CashFlowEvent {
	var out []CashFlowEvent
	for _, b := range bills {
		if b.DueDate.IsZero() {
			continue
		}
		due := b.DueDate
		if b.Paid {
			var ok bool
			if due, ok = NextDueDateAnchored(due, b.Frequency, b.AnchorDay); !ok {
				continue
			}
		}
		amount := core.Money{Cents: -b.Amount.Abs().Cents}
		if due.Before(today.Time) {
			out = append(out, CashFlowEvent{Date: today, Description: b.Name, Amount: amount})
			for due.Before(today.Time) {
				var ok bool
				if due, ok = NextDueDateAnchored(due, b.Frequency, b.AnchorDay); !ok {
					break
				}
			}
			if b.Frequency == core.OneTime {
				continue
			}
		}
		for due.Before(end.Time) {
			out = append(out, CashFlowEvent{Date: due, Description: b.Name, Amount: amount})
			var ok bool
			if due, ok = NextDueDateAnchored(due, b.Frequency, b.AnchorDay); !ok {
				break
			}
		}
	}
	return out
}

func incomeEvents(txs []core.Transaction, today, end core.Date) []CashFlowEvent {
	lastMonth := time.Date(today.Year(), today.Month()-1, 1, 0, 0, 0, 0, time.UTC)
	var out []CashFlowEvent
	for _, t := range txs {
		if t.Type != core.Income || !sameMonth(t.Date, lastMonth) {
			continue
		}
		at := addMonthsClamped(t.Date, 1, t.Date.Day())
		if at.Before(today.Time) || !at.Before(end.Time) {
			continue
		}
		out = append(out, CashFlowEvent{Date: at, Description: t.Description, Amount: t.Amount.Abs()})
	}
	return out
}
