// Package http exposes the finance services as a JSON API.
//
// This file implements utilities for decoding and validating request data.

package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"fintrack/internal/core"
)

const maxBodyBytes = 64 << 10

var (
	errMalformedBody = errors.New("malformed request body")
	errInvalidInput  = errors.New("invalid input")
)

// decodeJSON reads a single JSON object into dst. Unknown fields and
// trailing data are rejected.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return fmt.Errorf("%w: empty body", errMalformedBody)
		}
		return fmt.Errorf("%w: %v", errMalformedBody, err)
	}
	if dec.More() {
		return fmt.Errorf("%w: trailing data", errMalformedBody)
	}
	return nil
}

// parseAmount converts a decimal string such as "12.34" or "12,34" to Money.
func parseAmount(field, s string) (core.Money, error) {
	cents, err := core.ParseDecimalToCents(s)
	if err != nil {
		return core.Money{}, fmt.Errorf("%w: %s: %w", errInvalidInput, field, err)
	}
	return core.Money{Cents: cents}, nil
}

// parseOptionalAmount treats an empty string as zero.
func parseOptionalAmount(field, s string) (core.Money, error) {
	if strings.TrimSpace(s) == "" {
		return core.Money{}, nil
	}
	return parseAmount(field, s)
}

// parseDate parses YYYY-MM-DD. An empty value yields today when
// defaultToday is set and the zero date otherwise.
func parseDate(field, s string, defaultToday bool, now time.Time) (core.Date, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		if defaultToday {
			return core.DateOf(now), nil
		}
		return core.Date{}, nil
	}
	d, err := core.ParseDate(s)
	if err != nil {
		return core.Date{}, fmt.Errorf("%w: %s: %w", errInvalidInput, field, err)
	}
	return d, nil
}

// parseMonths reads the trend length. Zero means the service default.
func parseMonths(query url.Values) (int, error) {
	v := strings.TrimSpace(query.Get("months"))
	if v == "" {
		return 0, nil
	}
	m, err := strconv.Atoi(v)
	if err != nil || m < 1 {
		return 0, fmt.Errorf("%w: months must be a positive integer", errInvalidInput)
	}
	return m, nil
}

// parseLimit reads an optional positive list limit.
func parseLimit(query url.Values, def int) (int, error) {
	v := strings.TrimSpace(query.Get("limit"))
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 1 {
		return 0, fmt.Errorf("%w: limit must be a positive integer", errInvalidInput)
	}
	return n, nil
}

// sanitizeInput removes control characters other than tab and newlines and
// trims whitespace.
func sanitizeInput(s string) string {
	return strings.TrimSpace(strings.Map(func(r rune) rune {
		if r < 32 && r != '\t' && r != '\n' && r != '\r' {
			return -1
		}
		return r
	}, s))
}
