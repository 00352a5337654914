package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"
)

func TestNew_WritesServiceAttribute(t *testing.T) {
	var buf bytes.Buffer
	log := New(Config{Level: INFO, Format: JSON, Output: &buf, Service: "bookings"})

	log.Info("hello", "booking_id", "b1")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("log line is not JSON: %v (%s)", err, buf.String())
	}
	if entry[SERVICE] != "bookings" {
		t.Errorf("expected service attribute, got %v", entry[SERVICE])
	}
	if entry["booking_id"] != "b1" {
		t.Errorf("expected booking_id attribute, got %v", entry["booking_id"])
	}
}

func TestNew_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	log := New(Config{Level: WARN, Output: &buf})

	log.Info("dropped")
	if buf.Len() != 0 {
		t.Errorf("info should be filtered at warn level, got %s", buf.String())
	}

	log.Warn("kept")
	if buf.Len() == 0 {
		t.Errorf("warn should be written at warn level")
	}
}

func TestWithContext_AddsRequestID(t *testing.T) {
	var buf bytes.Buffer
	log := New(Config{Output: &buf})

	ctx := ContextWithRequestID(context.Background(), "req-42")
	log.WithContext(ctx).Info("scoped")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("log line is not JSON: %v", err)
	}
	if entry[REQUEST_ID] != "req-42" {
		t.Errorf("expected request_id req-42, got %v", entry[REQUEST_ID])
	}
}

func TestWithContext_NoRequestID(t *testing.T) {
	log := New(Config{Output: &bytes.Buffer{}})

	if got := log.WithContext(context.Background()); got != log {
		t.Errorf("expected the same logger when no request id is present")
	}
}
