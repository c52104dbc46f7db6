package memory

import (
	"context"
	"testing"

	"fintrack/internal/core"
)

func TestExport(t *testing.T) {
	e := New()
	tx := core.Transaction{ID: "1", Type: core.Income, Amount: core.Money{Cents: 123}, Description: "t", Category: "Income", Date: core.NewDate(2025, 1, 1)}

	ref, err := e.Export(context.Background(), tx)
	if err != nil || ref != "mem:1" {
		t.Fatalf("unexpected export: ref=%q err=%v", ref, err)
	}
	rows := e.Rows()
	if len(rows) != 1 || rows[0][4] != "1.23" {
		t.Fatalf("unexpected rows %v", rows)
	}

	if _, err := e.Export(context.Background(), core.Transaction{}); err == nil {
		t.Fatal("invalid transaction should be rejected")
	}
	if len(e.Rows()) != 1 {
		t.Error("rejected transaction was stored")
	}
}
