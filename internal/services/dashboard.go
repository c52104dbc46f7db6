package services

import (
	"cmp"
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"fintrack/internal/cache"
	"fintrack/internal/core"
	"fintrack/internal/demo"
	"fintrack/internal/engine"
	"fintrack/internal/ports"
)

const (
	DefaultTrendMonths = 6
	MaxTrendMonths     = 24
	upcomingBillsLimit = 5
	recentLimit        = 10
	cashFlowDays       = 30
)

type DashboardStore interface {
	ports.TransactionStore
	ports.BudgetStore
	ports.BillStore
	ports.GoalStore
	ports.SettingsStore
}

// Dashboard is a read-only snapshot of every aggregate the overview shows.
// Month-scoped figures cover the calendar month of AsOf.
type Dashboard struct {
	AsOf          core.Date                  `json:"asOf"`
	Demo          bool                       `json:"demo"`
	Currency      core.Currency              `json:"currency"`
	Balance       core.Money                 `json:"balance"`
	ThisMonth     engine.IncomeExpenseData   `json:"thisMonth"`
	LastMonth     engine.IncomeExpenseData   `json:"lastMonth"`
	IncomeTrend   engine.Trend               `json:"incomeTrend"`
	ExpenseTrend  engine.Trend               `json:"expenseTrend"`
	MonthlyBudget engine.MonthlyBudget       `json:"monthlyBudget"`
	Budgets       []engine.BudgetSummary     `json:"budgets"`
	Allowance     engine.Allowance           `json:"allowance"`
	SpendingTrend []engine.MonthlySpending   `json:"spendingTrend"`
	Categories    []engine.CategorySpending  `json:"categories"`
	Goals         []GoalView                 `json:"goals"`
	UpcomingBills []engine.UpcomingBill      `json:"upcomingBills"`
	TotalDue      core.Money                 `json:"totalDue"`
	CashFlow      engine.CashFlowProjection  `json:"cashFlow"`
	Recent        []core.Transaction         `json:"recent"`
}

type dataset struct {
	txs      []core.Transaction
	budgets  core.BudgetSettings
	bills    []core.Bill
	goals    []core.SavingsGoal
	settings core.UserSettings
}

// DashboardService builds dashboard snapshots and caches them per day and
// trend length until the next write.
type DashboardService struct {
	store      DashboardStore
	cache      cache.Cache[*Dashboard]
	group      singleflight.Group
	generation atomic.Uint64
	lowBalance core.Money
	now        func() time.Time
}

func NewDashboardService(store DashboardStore, c cache.Cache[*Dashboard], lowBalance core.Money) *DashboardService {
	return &DashboardService{store: store, cache: c, lowBalance: lowBalance, now: time.Now}
}

// Invalidate drops every cached snapshot. Loads already in flight still
// answer their callers but are not cached.
func (s *DashboardService) Invalidate() {
	s.generation.Add(1)
	if s.cache != nil {
		s.cache.Clear()
	}
}

// Snapshot returns the dashboard with a spending trend of months entries,
// clamped to [1, MaxTrendMonths].
func (s *DashboardService) Snapshot(ctx context.Context, months int) (*Dashboard, error) {
	months = clampMonths(months)
	now := s.now()
	key := fmt.Sprintf("%s|%d", core.DateOf(now).String(), months)

	if s.cache != nil {
		if d, ok := s.cache.Get(key); ok {
			return d, nil
		}
	}

	gen := s.generation.Load()
	v, err, _ := s.group.Do(fmt.Sprintf("%s|%d", key, gen), func() (any, error) {
		data, err := s.load(ctx)
		if err != nil {
			return nil, err
		}
		d := s.build(data, months, now)
		if s.cache != nil && s.generation.Load() == gen {
			s.cache.Set(key, d)
		}
		return d, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Dashboard), nil
}

// BudgetOverview is the budget part of the snapshot.
func (s *DashboardService) BudgetOverview(ctx context.Context) (engine.MonthlyBudget, []engine.BudgetSummary, error) {
	d, err := s.Snapshot(ctx, DefaultTrendMonths)
	if err != nil {
		return engine.MonthlyBudget{}, nil, err
	}
	return d.MonthlyBudget, d.Budgets, nil
}

func (s *DashboardService) load(ctx context.Context) (dataset, error) {
	var data dataset
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		data.settings, err = s.store.LoadUserSettings(gctx)
		return wrap("load settings", err)
	})
	g.Go(func() (err error) {
		data.txs, err = s.store.LoadTransactions(gctx)
		return wrap("load transactions", err)
	})
	g.Go(func() (err error) {
		data.budgets, err = s.store.LoadBudgetSettings(gctx)
		return wrap("load budgets", err)
	})
	g.Go(func() (err error) {
		data.bills, err = s.store.LoadBills(gctx)
		return wrap("load bills", err)
	})
	g.Go(func() (err error) {
		data.goals, err = s.store.LoadGoals(gctx)
		return wrap("load goals", err)
	})
	if err := g.Wait(); err != nil {
		return dataset{}, err
	}
	return data, nil
}

func (s *DashboardService) build(data dataset, months int, now time.Time) *Dashboard {
	isDemo := data.settings.UseDemoData
	if isDemo {
		data.txs = demo.Transactions()
		data.budgets.Budgets = demo.Budgets()
		data.bills = demo.Bills()
		data.goals = demo.Goals()
		now = demo.AsOf()
	}

	thisMonth := engine.InMonth(data.txs, now)
	lastMonth := engine.InMonth(data.txs, now.AddDate(0, 0, -now.Day()))
	enabled := data.budgets.EnabledBudgets()
	monthly := engine.MonthlyBudgetStatus(enabled, thisMonth, now)

	this := engine.IncomeExpense(thisMonth)
	last := engine.IncomeExpense(lastMonth)

	recent := slices.Clone(data.txs)
	slices.SortStableFunc(recent, func(a, b core.Transaction) int {
		return cmp.Compare(b.Date.Unix(), a.Date.Unix())
	})
	if len(recent) > recentLimit {
		recent = recent[:recentLimit]
	}

	d := &Dashboard{
		AsOf:          core.DateOf(now),
		Demo:          isDemo,
		Currency:      data.settings.Currency,
		Balance:       engine.TotalBalance(data.txs),
		ThisMonth:     this,
		LastMonth:     last,
		IncomeTrend:   engine.TrendPercentage(this.Income, last.Income),
		ExpenseTrend:  engine.TrendPercentage(this.Expenses, last.Expenses),
		MonthlyBudget: monthly,
		Budgets:       engine.BudgetSummaries(enabled, thisMonth),
		Allowance:     engine.SpendingAllowance(thisMonth, monthly.TotalBudget),
		SpendingTrend: engine.MonthlySpendingTrend(data.txs, months, now),
		Categories:    engine.CategoryBreakdown(thisMonth),
		Goals:         goalViews(data.goals, now),
		UpcomingBills: engine.UpcomingBills(data.bills, now, upcomingBillsLimit),
		TotalDue:      engine.TotalDueThisMonth(data.bills, now),
		CashFlow:      engine.ProjectCashFlow(data.txs, data.bills, now, cashFlowDays, s.lowBalance),
		Recent:        recent,
	}
	slog.Debug("Dashboard snapshot built",
		"component", "dashboard",
		"as_of", d.AsOf.String(),
		"demo", isDemo,
		"transactions", len(data.txs))
	return d
}

func clampMonths(m int) int {
	switch {
	case m <= 0:
		return DefaultTrendMonths
	case m > MaxTrendMonths:
		return MaxTrendMonths
	default:
		return m
	}
}

func wrap(op string, err error) error {
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}
