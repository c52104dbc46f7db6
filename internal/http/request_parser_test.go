package http

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"fintrack/internal/core"
)

func TestDecodeJSON(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantErr bool
	}{
		{"valid", `{"amount":"1.00"}`, false},
		{"empty", ``, true},
		{"unknown field", `{"amount":"1","x":1}`, true},
		{"trailing data", `{"amount":"1"}{"amount":"2"}`, true},
		{"wrong type", `{"amount":1}`, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tt.body))
			var dst struct {
				Amount string `json:"amount"`
			}
			err := decodeJSON(httptest.NewRecorder(), r, &dst)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, errMalformedBody) {
				t.Errorf("error should match errMalformedBody: %v", err)
			}
		})
	}
}

func TestDecodeJSONBodyLimit(t *testing.T) {
	big := `{"amount":"` + strings.Repeat("9", maxBodyBytes) + `"}`
	r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(big))
	var dst struct {
		Amount string `json:"amount"`
	}
	if err := decodeJSON(httptest.NewRecorder(), r, &dst); err == nil {
		t.Fatal("oversized body should be rejected")
	}
}

func TestParseAmount(t *testing.T) {
	tests := []struct {
		in      string
		want    int64
		wantErr bool
	}{
		{"12.34", 1234, false},
		{"12,34", 1234, false},
		{"12.345", 1235, false},
		{"0", 0, true},
		{"-5", 0, true},
		{"", 0, true},
		{"abc", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := parseAmount("amount", tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil {
				if !errors.Is(err, errInvalidInput) || !errors.Is(err, core.ErrInvalidAmount) {
					t.Errorf("error should match both sentinels: %v", err)
				}
				return
			}
			if got.Cents != tt.want {
				t.Errorf("cents = %d, want %d", got.Cents, tt.want)
			}
		})
	}

	if m, err := parseOptionalAmount("current", " "); err != nil || !m.IsZero() {
		t.Errorf("blank optional amount = %v, %v", m, err)
	}
}

func TestParseDate(t *testing.T) {
	now := time.Date(2025, 3, 9, 22, 30, 0, 0, time.UTC)

	d, err := parseDate("date", "", true, now)
	if err != nil || d != core.NewDate(2025, 3, 9) {
		t.Errorf("default today = %v, %v", d, err)
	}
	d, err = parseDate("date", "", false, now)
	if err != nil || !d.IsZero() {
		t.Errorf("optional empty date = %v, %v", d, err)
	}
	d, err = parseDate("date", "2024-02-29", true, now)
	if err != nil || d != core.NewDate(2024, 2, 29) {
		t.Errorf("parsed = %v, %v", d, err)
	}
	if _, err := parseDate("date", "2023-02-29", true, now); !errors.Is(err, errInvalidInput) {
		t.Errorf("impossible date error = %v", err)
	}
}

func TestParseMonthsAndLimit(t *testing.T) {
	tests := []struct {
		query   string
		want    int
		wantErr bool
	}{
		{"", 0, false},
		{"months=12", 12, false},
		{"months=0", 0, true},
		{"months=x", 0, true},
	}
	for _, tt := range tests {
		q, _ := url.ParseQuery(tt.query)
		got, err := parseMonths(q)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("parseMonths(%q) = %d, %v", tt.query, got, err)
		}
	}

	q, _ := url.ParseQuery("")
	if n, err := parseLimit(q, 50); n != 50 || err != nil {
		t.Errorf("default limit = %d, %v", n, err)
	}
	q, _ = url.ParseQuery("limit=-1")
	if _, err := parseLimit(q, 50); err == nil {
		t.Error("negative limit should fail")
	}
}

func TestSanitizeInput(t *testing.T) {
	if got := sanitizeInput("  Rent\x00\x07 May\t"); got != "Rent May" {
		t.Errorf("sanitizeInput = %q", got)
	}
}
