package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"fintrack/internal/core"
	"fintrack/internal/engine"
	"fintrack/internal/ports"
)

type GoalInput struct {
	Name                string
	TargetAmount        core.Money
	CurrentAmount       core.Money
	MonthlyContribution core.Money
	TargetDate          core.Date
	Description         string
}

// GoalView is a goal with its progress and projection.
type GoalView struct {
	core.SavingsGoal
	Progress   float64               `json:"progress"`
	Projection engine.GoalProjection `json:"projection"`
}

type GoalService struct {
	store ports.GoalStore
	cache Invalidator
	now   func() time.Time
}

func NewGoalService(store ports.GoalStore, cache Invalidator) *GoalService {
	return &GoalService{store: store, cache: orNop(cache), now: time.Now}
}

func (s *GoalService) Add(ctx context.Context, in GoalInput) (core.SavingsGoal, error) {
	g, err := core.NewSavingsGoal(in.Name, in.TargetAmount, in.CurrentAmount, in.MonthlyContribution, in.TargetDate, in.Description)
	if err != nil {
		return core.SavingsGoal{}, invalid(err)
	}
	if err := s.store.SaveGoal(ctx, g); err != nil {
		return core.SavingsGoal{}, fmt.Errorf("save goal: %w", err)
	}
	s.cache.Invalidate()
	slog.InfoContext(ctx, "Savings goal added", "id", g.ID, "name", g.Name, "target_cents", g.TargetAmount.Cents)
	return g, nil
}

func (s *GoalService) Goals(ctx context.Context) ([]GoalView, error) {
	goals, err := s.store.LoadGoals(ctx)
	if err != nil {
		return nil, fmt.Errorf("load goals: %w", err)
	}
	return goalViews(goals, s.now()), nil
}

// Contribute adds amount to the goal's saved balance. The balance may end up
// above the target.
func (s *GoalService) Contribute(ctx context.Context, id string, amount core.Money) (GoalView, error) {
	if err := amount.Validate(); err != nil {
		return GoalView{}, invalid(err)
	}
	g, err := s.store.GetGoal(ctx, id)
	if err != nil {
		return GoalView{}, fmt.Errorf("goal %s: %w", id, err)
	}
	g.CurrentAmount = g.CurrentAmount.Add(amount)
	if err := s.store.SaveGoal(ctx, g); err != nil {
		return GoalView{}, fmt.Errorf("save goal: %w", err)
	}
	s.cache.Invalidate()
	slog.InfoContext(ctx, "Contribution added", "goal_id", g.ID, "amount_cents", amount.Cents)
	return goalViews([]core.SavingsGoal{g}, s.now())[0], nil
}

func goalViews(goals []core.SavingsGoal, now time.Time) []GoalView {
	out := make([]GoalView, len(goals))
	for i, g := range goals {
		out[i] = GoalView{
			SavingsGoal: g,
			Progress:    engine.SavingsProgress(g.CurrentAmount, g.TargetAmount),
			Projection:  engine.ProjectSavingsGoal(g, now),
		}
	}
	return out
}
