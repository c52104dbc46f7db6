package engine

import (
	"fintrack/internal/core"

	"github.com/shopspring/decimal"
)

var (
	hundred = decimal.NewFromInt(100)
	half    = decimal.NewFromFloat(0.5)
)

// percentOf returns part/whole*100 rounded to the nearest integer, halves
// toward positive infinity (-2.5 becomes -2). A zero whole yields 0.
func percentOf(part, whole int64) int {
	if whole == 0 {
		return 0
	}
	return int(decimal.NewFromInt(part).
		Mul(hundred).
		Div(decimal.NewFromInt(whole)).
		Add(half).
		Floor().
		IntPart())
}

// divMoney splits m into n parts rounded to the cent. n <= 0 yields zero.
func divMoney(m core.Money, n int64) core.Money {
	if n <= 0 {
		return core.Money{}
	}
	return core.Money{Cents: decimal.NewFromInt(m.Cents).
		Div(decimal.NewFromInt(n)).
		Round(0).
		IntPart()}
}

// ceilDiv returns ceil(a/b) for positive b.
func ceilDiv(a, b int64) int64 {
	return decimal.NewFromInt(a).Div(decimal.NewFromInt(b)).Ceil().IntPart()
}

// classify maps spent against limit onto the three-tier status. Comparing
// cents directly keeps "over" equivalent to spent >= limit.
func classify(spent, limit core.Money) Status {
	switch {
	case limit.Cents <= 0:
		return StatusGood
	case spent.Cents >= limit.Cents:
		return StatusOver
	case spent.Cents*4 >= limit.Cents*3:
		return StatusWarning
	default:
		return StatusGood
	}
}

func statusRank(s Status) int {
	switch s {
	case StatusOver:
		return 0
	case StatusWarning:
		return 1
	default:
		return 2
	}
}
