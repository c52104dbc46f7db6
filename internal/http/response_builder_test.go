package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"fintrack/internal/auth"
	"fintrack/internal/core"
	"fintrack/internal/services"
)

func TestResponseBuilder(t *testing.T) {
	rr := httptest.NewRecorder()
	NewResponse().
		Status(http.StatusCreated).
		Header("Location", "/api/goals/1").
		JSON(map[string]int{"n": 1}).
		Write(rr)

	if rr.Code != http.StatusCreated {
		t.Errorf("status = %d", rr.Code)
	}
	if rr.Header().Get("Location") != "/api/goals/1" {
		t.Errorf("missing custom header")
	}
	if ct := rr.Header().Get("Content-Type"); ct != "application/json; charset=utf-8" {
		t.Errorf("content type = %q", ct)
	}
	var body map[string]int
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil || body["n"] != 1 {
		t.Errorf("body = %s (%v)", rr.Body.String(), err)
	}
}

func TestResponseBuilderNoBody(t *testing.T) {
	rr := httptest.NewRecorder()
	NewResponse().Status(http.StatusNoContent).Write(rr)
	if rr.Code != http.StatusNoContent || rr.Body.Len() != 0 {
		t.Errorf("status=%d body=%q", rr.Code, rr.Body.String())
	}
	if rr.Header().Get("Content-Type") != "" {
		t.Error("empty response should not declare a content type")
	}
}

func TestErrorResponses(t *testing.T) {
	tests := []struct {
		name string
		b    *ResponseBuilder
		want int
	}{
		{"bad request", BadRequestError("x"), http.StatusBadRequest},
		{"unprocessable", UnprocessableEntityError("x"), http.StatusUnprocessableEntity},
		{"not found", NotFoundError("x"), http.StatusNotFound},
		{"internal", InternalServerError("x"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := httptest.NewRecorder()
			tt.b.RequestID("req_1").Write(rr)
			if rr.Code != tt.want {
				t.Errorf("status = %d", rr.Code)
			}
			var body errorBody
			if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
				t.Fatal(err)
			}
			if body.Error != "x" || body.RequestID != "req_1" {
				t.Errorf("body = %+v", body)
			}
		})
	}
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{fmt.Errorf("%w: eof", errMalformedBody), http.StatusBadRequest},
		{fmt.Errorf("%w: amount", errInvalidInput), http.StatusUnprocessableEntity},
		{fmt.Errorf("%w: %w", services.ErrValidation, core.ErrEmptyDescription), http.StatusUnprocessableEntity},
		{auth.ErrPasswordTooShort, http.StatusUnprocessableEntity},
		{fmt.Errorf("bill x: %w", services.ErrNotFound), http.StatusNotFound},
		{services.ErrDuplicateBudget, http.StatusConflict},
		{fmt.Errorf("bill x: %w", services.ErrAlreadyPaid), http.StatusConflict},
		{auth.ErrEmailTaken, http.StatusConflict},
		{auth.ErrInvalidCredentials, http.StatusUnauthorized},
		{auth.ErrInvalidToken, http.StatusUnauthorized},
		{errors.New("disk on fire"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			if got := statusFor(tt.err); got != tt.want {
				t.Errorf("statusFor(%v) = %d, want %d", tt.err, got, tt.want)
			}
		})
	}
}
