package errors

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"testing"
)

func TestConstructors(t *testing.T) {
	tests := []struct {
		name       string
		err        *AppError
		wantCode   string
		wantStatus int
	}{
		{"not found", NotFound("Booking"), CodeNotFound, http.StatusNotFound},
		{"not found with id", NotFoundWithID("Room slot", "abc"), CodeNotFound, http.StatusNotFound},
		{"validation", Validation("bad", nil), CodeValidation, http.StatusUnprocessableEntity},
		{"invalid input", InvalidInput("bad body"), CodeInvalidInput, http.StatusBadRequest},
		{"unauthorized", Unauthorized("no token"), CodeUnauthorized, http.StatusUnauthorized},
		{"forbidden", Forbidden("not yours"), CodeForbidden, http.StatusForbidden},
		{"conflict", Conflict("duplicate"), CodeConflict, http.StatusConflict},
		{"slot unavailable", SlotUnavailable("s1"), CodeSlotUnavailable, http.StatusConflict},
		{"invalid transition", InvalidTransition("cancelled", "confirmed"), CodeInvalidTransition, http.StatusUnprocessableEntity},
		{"internal", Internal("boom", errors.New("db down")), CodeInternal, http.StatusInternalServerError},
		{"timeout", Timeout("slow"), CodeTimeout, http.StatusGatewayTimeout},
		{"unavailable", Unavailable("Kafka"), CodeUnavailable, http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.err.Code != tt.wantCode {
				t.Errorf("code = %s, want %s", tt.err.Code, tt.wantCode)
			}
			if tt.err.StatusCode() != tt.wantStatus {
				t.Errorf("status = %d, want %d", tt.err.StatusCode(), tt.wantStatus)
			}
		})
	}
}

func TestSlotUnavailableIsDistinctFromNotFound(t *testing.T) {
	unavailable := SlotUnavailable("slot-1")
	missing := NotFoundWithID("Room slot", "slot-1")

	if unavailable.Code == missing.Code {
		t.Fatalf("slot unavailable and not found share code %s", unavailable.Code)
	}
	if unavailable.Details["room_slot_id"] != "slot-1" {
		t.Errorf("expected room_slot_id detail, got %v", unavailable.Details)
	}
}

func TestInvalidTransitionDetails(t *testing.T) {
	err := InvalidTransition("cancelled", "confirmed")

	if err.Details["from"] != "cancelled" || err.Details["to"] != "confirmed" {
		t.Errorf("unexpected details: %v", err.Details)
	}
	if !strings.Contains(err.Message, "cancelled") {
		t.Errorf("message should name the current status, got %q", err.Message)
	}
}

func TestAppError_Error(t *testing.T) {
	tests := []struct {
		name     string
		appErr   *AppError
		expected string
	}{
		{
			name:     "without underlying error",
			appErr:   &AppError{Code: CodeNotFound, Message: "resource not found"},
			expected: "NOT_FOUND: resource not found",
		},
		{
			name: "with underlying error",
			appErr: &AppError{
				Code:    CodeInternal,
				Message: "internal error",
				Err:     errors.New("database connection failed"),
			},
			expected: "INTERNAL_ERROR: internal error (caused by: database connection failed)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.appErr.Error(); got != tt.expected {
				t.Errorf("Error() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestAppError_Unwrap(t *testing.T) {
	originalErr := errors.New("original error")
	appErr := Wrap(originalErr, CodeInternal, "wrapped", http.StatusInternalServerError)

	if !errors.Is(appErr, originalErr) {
		t.Errorf("errors.Is should reach the wrapped error")
	}
}

func TestAsAppError(t *testing.T) {
	appErr := Forbidden("nope")
	wrapped := fmt.Errorf("transaction failed: %w", appErr)
	regularErr := errors.New("regular error")

	if got := AsAppError(appErr); got != appErr {
		t.Errorf("AsAppError() should return the same AppError")
	}
	if got := AsAppError(wrapped); got != appErr {
		t.Errorf("AsAppError() should unwrap a wrapped AppError")
	}

	got := AsAppError(regularErr)
	if got.Code != CodeInternal {
		t.Errorf("regular errors should become internal errors, got %s", got.Code)
	}
	if got.Err != regularErr {
		t.Errorf("AsAppError() should keep the original error")
	}
}

func TestHasCode(t *testing.T) {
	err := fmt.Errorf("outer: %w", SlotUnavailable("x"))

	if !HasCode(err, CodeSlotUnavailable) {
		t.Errorf("expected wrapped slot unavailable to match")
	}
	if HasCode(err, CodeNotFound) {
		t.Errorf("did not expect not found to match")
	}
	if HasCode(errors.New("plain"), CodeInternal) {
		t.Errorf("plain errors carry no code")
	}
}

func TestAppError_ToJSON(t *testing.T) {
	body := string(NotFoundWithID("Booking", "12345").ToJSON())

	for _, want := range []string{`"code":"NOT_FOUND"`, `"message":"Booking not found"`, `"id":"12345"`} {
		if !strings.Contains(body, want) {
			t.Errorf("ToJSON() = %s, missing %s", body, want)
		}
	}
}
