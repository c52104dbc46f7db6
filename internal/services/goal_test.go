package services

import (
	"context"
	"errors"
	"testing"

	"fintrack/internal/core"
	"fintrack/internal/engine"
	"fintrack/internal/storage/memory"
)

func TestGoals(t *testing.T) {
	ctx := context.Background()
	inv := &countingInvalidator{}
	s := NewGoalService(memory.New(), inv)
	s.now = fixedClock

	g, err := s.Add(ctx, GoalInput{
		Name:                "Laptop",
		TargetAmount:        money(200000),
		CurrentAmount:       money(50000),
		MonthlyContribution: money(10000),
		TargetDate:          core.NewDate(2026, 5, 1),
	})
	if err != nil {
		t.Fatalf("Add() error = %v", err)
	}

	views, err := s.Goals(ctx)
	if err != nil || len(views) != 1 {
		t.Fatalf("Goals() = %v, %v", views, err)
	}
	v := views[0]
	if v.Progress != 25 || v.Projection.MonthsRemaining != 6 || v.Projection.RequiredMonthly != money(25000) {
		t.Errorf("unexpected view %+v", v)
	}
	if v.Projection.Status != engine.GoalBehind {
		t.Errorf("status = %s, want behind", v.Projection.Status)
	}

	v, err = s.Contribute(ctx, g.ID, money(200000))
	if err != nil {
		t.Fatalf("Contribute() error = %v", err)
	}
	if v.CurrentAmount != money(250000) || v.Projection.Percentage != 125 {
		t.Errorf("contribution past target should be kept, got %+v", v)
	}
	if inv.n != 2 {
		t.Errorf("invalidations = %d", inv.n)
	}
}

func TestGoalErrors(t *testing.T) {
	ctx := context.Background()
	s := NewGoalService(memory.New(), nil)

	if _, err := s.Add(ctx, GoalInput{Name: "Car", TargetAmount: money(1000), CurrentAmount: money(2000)}); !errors.Is(err, core.ErrGoalOverTarget) {
		t.Errorf("over target error = %v", err)
	}
	if _, err := s.Add(ctx, GoalInput{TargetAmount: money(1000)}); !errors.Is(err, ErrValidation) {
		t.Errorf("missing name error = %v", err)
	}
	if _, err := s.Contribute(ctx, "missing", money(100)); !errors.Is(err, ErrNotFound) {
		t.Errorf("unknown goal error = %v", err)
	}
	if _, err := s.Contribute(ctx, "missing", money(0)); !errors.Is(err, ErrValidation) {
		t.Errorf("zero contribution error = %v", err)
	}
}
