package db

import (
	"encoding/base64"
	"errors"
	"testing"
	"time"

	"fraudops/internal/domain"
)

func TestCursorRoundTrip(t *testing.T) {
	tests := []struct {
		name string
		ts   time.Time
		id   string
	}{
		{"nanosecond precision", time.Date(2026, 3, 14, 9, 26, 53, 589793238, time.UTC), "0f8fad5b-d9cb-469f-a165-70867728950e"},
		{"whole second", time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), "7c9e6679-7425-40de-944b-e07fc1f90ae7"},
		{"non-utc input", time.Date(2025, 6, 30, 23, 59, 59, 1000, time.FixedZone("CET", 3600)), "id-1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			encoded := EncodeCursor(tt.ts, tt.id)
			ts, id, err := DecodeCursor(encoded)
			if err != nil {
				t.Fatalf("decode: %v", err)
			}
			if !ts.Equal(tt.ts) {
				t.Fatalf("timestamp mismatch: got %v, want %v", ts, tt.ts)
			}
			if id != tt.id {
				t.Fatalf("id mismatch: got %q, want %q", id, tt.id)
			}
		})
	}
}

func TestWorklistCursorRoundTrip(t *testing.T) {
	ts := time.Date(2026, 3, 14, 9, 26, 53, 589793238, time.UTC)
	encoded := EncodeWorklistCursor(2, ts, "rev-42")

	priority, decodedTS, id, err := DecodeWorklistCursor(encoded)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if priority != 2 {
		t.Fatalf("priority = %d, want 2", priority)
	}
	if !decodedTS.Equal(ts) {
		t.Fatalf("timestamp mismatch: got %v, want %v", decodedTS, ts)
	}
	if id != "rev-42" {
		t.Fatalf("id mismatch: got %q", id)
	}
}

func TestDecodeWorklistCursorRejectsGarbage(t *testing.T) {
	tests := []struct {
		name   string
		cursor string
	}{
		{"not base64", "!!not-base64!!"},
		{"two-field transaction cursor", EncodeCursor(time.Now(), "rev-1")},
		{"priority not a number", base64.RawURLEncoding.EncodeToString([]byte("high|2026-01-01T00:00:00Z|rev-1"))},
		{"bad timestamp", base64.RawURLEncoding.EncodeToString([]byte("1|yesterday|rev-1"))},
		{"empty id", EncodeWorklistCursor(1, time.Now(), "")},
		{"empty string", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, _, _, err := DecodeWorklistCursor(tt.cursor); !errors.Is(err, domain.ErrInvalidCursor) {
				t.Fatalf("expected ErrInvalidCursor, got %v", err)
			}
		})
	}
}

func TestDecodeCursorRejectsGarbage(t *testing.T) {
	tests := []struct {
		name   string
		cursor string
	}{
		{"not base64", "!!not-base64!!"},
		{"no delimiter", "aGVsbG8"},
		{"bad timestamp", "bm90LWEtdGltZXN0YW1wfGlk"},
		{"empty id", EncodeCursor(time.Now(), "")},
		{"empty string", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, _, err := DecodeCursor(tt.cursor); !errors.Is(err, domain.ErrInvalidCursor) {
				t.Fatalf("expected ErrInvalidCursor, got %v", err)
			}
		})
	}
}
