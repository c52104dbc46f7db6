// Package sheets formats transactions as spreadsheet rows. The adapters in
// the subpackages implement ports.TransactionExporter on top of it.
package sheets

import (
	"github.com/shopspring/decimal"

	"fintrack/internal/core"
)

// Header is the first row of an export sheet.
var Header = []any{"Date", "Type", "Description", "Category", "Amount"}

// Row renders t in Header order. Expenses are negative so that summing the
// amount column gives the balance.
func Row(t core.Transaction) []any {
	amount := decimal.New(t.Signed().Cents, -2)
	return []any{
		t.Date.String(),
		string(t.Type),
		t.Description,
		t.Category,
		amount.StringFixed(2),
	}
}
