package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	apperrors "roombook/pkg/errors"
	"strings"
	"testing"
)

func TestWriteError_StatusMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{name: "not found", err: apperrors.NotFound("Booking"), wantStatus: http.StatusNotFound, wantCode: apperrors.CodeNotFound},
		{name: "slot unavailable", err: apperrors.SlotUnavailable("s1"), wantStatus: http.StatusConflict, wantCode: apperrors.CodeSlotUnavailable},
		{name: "invalid transition", err: apperrors.InvalidTransition("cancelled", "confirmed"), wantStatus: http.StatusUnprocessableEntity, wantCode: apperrors.CodeInvalidTransition},
		{name: "forbidden", err: apperrors.Forbidden("no"), wantStatus: http.StatusForbidden, wantCode: apperrors.CodeForbidden},
		{name: "plain error", err: errors.New("boom"), wantStatus: http.StatusInternalServerError, wantCode: apperrors.CodeInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			if err := WriteError(rec, tt.err); err != nil {
				t.Fatalf("write: %v", err)
			}
			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}

			var body ErrorResponse
			if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if body.Code != tt.wantCode {
				t.Errorf("code = %s, want %s", body.Code, tt.wantCode)
			}
			if strings.Contains(rec.Body.String(), "boom") {
				t.Error("internal error cause leaked into response")
			}
		})
	}
}

func TestExtractLimitOffset(t *testing.T) {
	tests := []struct {
		query      string
		wantLimit  int
		wantOffset int64
		wantErr    bool
	}{
		{query: "", wantLimit: 10, wantOffset: 0},
		{query: "limit=25&offset=50", wantLimit: 25, wantOffset: 50},
		{query: "limit=5000&offset=-3", wantLimit: 100, wantOffset: 0},
		{query: "limit=abc", wantErr: true},
		{query: "offset=1.5", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/x?"+tt.query, nil)
			limit, offset, err := ExtractLimitOffset(r)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if limit != tt.wantLimit || offset != tt.wantOffset {
				t.Errorf("got %d/%d, want %d/%d", limit, offset, tt.wantLimit, tt.wantOffset)
			}
		})
	}
}

func TestExtractTime(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/x?from=2030-01-01T09:00:00Z&to=tomorrow", nil)

	from, err := ExtractTime(r, "from")
	if err != nil || from == nil || from.Hour() != 9 {
		t.Errorf("from = %v, %v", from, err)
	}
	if _, err := ExtractTime(r, "to"); !apperrors.HasCode(err, apperrors.CodeInvalidInput) {
		t.Errorf("expected invalid input, got %v", err)
	}
	if missing, err := ExtractTime(r, "until"); missing != nil || err != nil {
		t.Errorf("missing param should be nil, got %v, %v", missing, err)
	}
}

func TestDecodeJSON_UnknownField(t *testing.T) {
	var v struct {
		Note string `json:"note"`
	}
	r := httptest.NewRequest(http.MethodPost, "/x", strings.NewReader(`{"note":"hi","status":"confirmed"}`))
	if err := DecodeJSON(r, &v); !apperrors.HasCode(err, apperrors.CodeInvalidInput) {
		t.Errorf("expected invalid input, got %v", err)
	}
}
