package services

import (
	"fmt"

	"fintrack/internal/core"
	"fintrack/internal/engine"
)

// ScheduleStrategy moves a recurring bill to its following occurrence.
// anchorDay is the bill's day of month; zero means due's day.
type ScheduleStrategy interface {
	Next(due core.Date, anchorDay int) core.Date
}

type WeeklySchedule struct{}

func (WeeklySchedule) Next(due core.Date, _ int) core.Date { return next(due, core.Weekly, 0) }

// MonthlySchedule keeps the anchor day, clamped to the month's last day.
type MonthlySchedule struct{}

func (MonthlySchedule) Next(due core.Date, anchorDay int) core.Date {
	return next(due, core.Monthly, anchorDay)
}

// YearlySchedule keeps month and day; Feb 29 falls back to Feb 28 and
// returns in leap years.
type YearlySchedule struct{}

func (YearlySchedule) Next(due core.Date, anchorDay int) core.Date {
	return next(due, core.Yearly, anchorDay)
}

func next(due core.Date, f core.BillFrequency, anchorDay int) core.Date {
	d, _ := engine.NextDueDateAnchored(due, f, anchorDay)
	return d
}

// One-time bills have no entry.
var scheduleStrategies = map[core.BillFrequency]ScheduleStrategy{
	core.Weekly:  WeeklySchedule{},
	core.Monthly: MonthlySchedule{},
	core.Yearly:  YearlySchedule{},
}

func GetScheduleStrategy(f core.BillFrequency) (ScheduleStrategy, error) {
	s, ok := scheduleStrategies[f]
	if !ok {
		return nil, fmt.Errorf("no schedule for frequency %q", f)
	}
	return s, nil
}

// RegisterScheduleStrategy adds or replaces the strategy for a frequency.
func RegisterScheduleStrategy(f core.BillFrequency, s ScheduleStrategy) {
	scheduleStrategies[f] = s
}
