// Package memory keeps exported rows in process. It stands in for Google
// Sheets when no spreadsheet is configured.
package memory

import (
	"context"
	"fmt"
	"sync"

	"fintrack/internal/core"
	"fintrack/internal/ports"
	"fintrack/internal/sheets"
)

type Exporter struct {
	mu   sync.Mutex
	rows [][]any
}

var _ ports.TransactionExporter = (*Exporter)(nil)

func New() *Exporter {
	return &Exporter{}
}

// Export stores the row and returns a synthetic row reference.
func (e *Exporter) Export(_ context.Context, t core.Transaction) (string, error) {
	if err := t.Validate(); err != nil {
		return "", err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.rows = append(e.rows, sheets.Row(t))
	return fmt.Sprintf("mem:%d", len(e.rows)), nil
}

// Rows returns a copy of everything exported so far.
func (e *Exporter) Rows() [][]any {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([][]any(nil), e.rows...)
}
