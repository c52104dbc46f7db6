// Package engine turns plain transaction, budget, bill and goal lists into
// the summaries shown on the dashboard.
//
// Every function is pure: no I/O, no retained state, and no dependency on
// the wall clock. Functions that need "today" take it as an argument.
// Degenerate input (empty lists, zero limits, zero income) yields zero or
// neutral results instead of an error.
package engine

import "fintrack/internal/core"

// Status classifies how much of a limit has been consumed.
type Status string

const (
	StatusGood    Status = "good"
	StatusWarning Status = "warning"
	StatusOver    Status = "over"
)

// Direction of a period-over-period change.
type Direction string

const (
	Up   Direction = "up"
	Down Direction = "down"
)

// GoalStatus compares the planned contribution to the required one.
type GoalStatus string

const (
	GoalBehind  GoalStatus = "behind"
	GoalOnTrack GoalStatus = "on-track"
	GoalAhead   GoalStatus = "ahead"
)

// BillStatus is the display state of a bill relative to today.
type BillStatus string

const (
	BillPaid    BillStatus = "paid"
	BillPending BillStatus = "pending"
	BillOverdue BillStatus = "overdue"
)

type (
	IncomeExpenseData struct {
		Income      core.Money `json:"income"`
		Expenses    core.Money `json:"expenses"`
		NetChange   core.Money `json:"netChange"`
		SavingsRate int        `json:"savingsRate"`
	}

	BudgetSummary struct {
		BudgetID           string     `json:"budgetId"`
		Category           string     `json:"category"`
		Budgeted           core.Money `json:"budgeted"`
		Spent              core.Money `json:"spent"`
		Remaining          core.Money `json:"remaining"`
		Percentage         int        `json:"percentage"`
		Status             Status     `json:"status"`
		TransactionCount   int        `json:"transactionCount"`
		AverageTransaction core.Money `json:"averageTransaction"`
	}

	MonthlyBudget struct {
		TotalBudget   core.Money `json:"totalBudget"`
		TotalSpent    core.Money `json:"totalSpent"`
		Remaining     core.Money `json:"remaining"`
		Percentage    int        `json:"percentage"`
		Status        Status     `json:"status"`
		DaysRemaining int        `json:"daysRemaining"`
		DaysInMonth   int        `json:"daysInMonth"`
	}

	// MonthlySpending is one point of the spending trend. Start is the first
	// day of the month.
	MonthlySpending struct {
		Month  string     `json:"month"`
		Start  core.Date  `json:"start"`
		Amount core.Money `json:"amount"`
	}

	CategorySpending struct {
		Category         string     `json:"category"`
		Amount           core.Money `json:"amount"`
		Percentage       int        `json:"percentage"`
		TransactionCount int        `json:"transactionCount"`
		Color            string     `json:"color"`
	}

	Trend struct {
		Percentage int       `json:"percentage"`
		Direction  Direction `json:"direction"`
	}

	GoalProjection struct {
		Percentage          int        `json:"percentage"`
		MonthsRemaining     int        `json:"monthsRemaining"`
		RequiredMonthly     core.Money `json:"requiredMonthly"`
		Status              GoalStatus `json:"status"`
		ProjectedCompletion core.Date  `json:"projectedCompletion"`
	}

	Allowance struct {
		Spent       core.Money `json:"spent"`
		SafeToSpend core.Money `json:"safeToSpend"`
		Status      Status     `json:"status"`
	}

	UpcomingBill struct {
		core.Bill
		Status    BillStatus `json:"status"`
		DaysUntil int        `json:"daysUntil"`
	}

	CashFlowPoint struct {
		Date    core.Date  `json:"date"`
		Balance core.Money `json:"balance"`
	}

	// CashFlowEvent is a single expected movement of money. Amount is signed.
	CashFlowEvent struct {
		Date        core.Date  `json:"date"`
		Description string     `json:"description"`
		Amount      core.Money `json:"amount"`
	}

	CashFlowProjection struct {
		Points              []CashFlowPoint `json:"points"`
		CurrentBalance      core.Money      `json:"currentBalance"`
		ProjectedEndBalance core.Money      `json:"projectedEndBalance"`
		NextIncome          *CashFlowEvent  `json:"nextIncome,omitempty"`
		NextExpense         *CashFlowEvent  `json:"nextExpense,omitempty"`
		LowBalanceWarning   bool            `json:"lowBalanceWarning"`
	}
)
