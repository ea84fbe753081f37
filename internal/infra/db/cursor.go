package db

import (
	"encoding/base64"
	"strconv"
	"strings"
	"time"

	"fraudops/internal/domain"
)

const cursorDelimiter = "|"

// EncodeCursor packs the last row of a page into an opaque token for keyset
// pagination over a descending (timestamp, id) order.
func EncodeCursor(ts time.Time, id string) string {
	raw := ts.UTC().Format(time.RFC3339Nano) + cursorDelimiter + id
	return base64.RawURLEncoding.EncodeToString([]byte(raw))
}

// DecodeCursor reverses EncodeCursor. Any malformed input yields
// domain.ErrInvalidCursor; callers fail the request rather than guessing at
// a page boundary.
func DecodeCursor(cursor string) (time.Time, string, error) {
	raw, err := base64.RawURLEncoding.DecodeString(cursor)
	if err != nil {
		return time.Time{}, "", domain.ErrInvalidCursor
	}
	parts := strings.SplitN(string(raw), cursorDelimiter, 2)
	if len(parts) != 2 || parts[1] == "" {
		return time.Time{}, "", domain.ErrInvalidCursor
	}
	ts, err := time.Parse(time.RFC3339Nano, parts[0])
	if err != nil {
		return time.Time{}, "", domain.ErrInvalidCursor
	}
	return ts, parts[1], nil
}

// EncodeWorklistCursor packs the last worklist row into an opaque token. The
// worklist sorts by (priority, created_at, id), so the cursor must carry all
// three fields for the keyset predicate to match the sort key.
func EncodeWorklistCursor(priority int, ts time.Time, id string) string {
	raw := strconv.Itoa(priority) + cursorDelimiter +
		ts.UTC().Format(time.RFC3339Nano) + cursorDelimiter + id
	return base64.RawURLEncoding.EncodeToString([]byte(raw))
}

// DecodeWorklistCursor reverses EncodeWorklistCursor. Malformed input,
// including a two-field transaction cursor, yields domain.ErrInvalidCursor.
func DecodeWorklistCursor(cursor string) (int, time.Time, string, error) {
	raw, err := base64.RawURLEncoding.DecodeString(cursor)
	if err != nil {
		return 0, time.Time{}, "", domain.ErrInvalidCursor
	}
	parts := strings.SplitN(string(raw), cursorDelimiter, 3)
	if len(parts) != 3 || parts[2] == "" {
		return 0, time.Time{}, "", domain.ErrInvalidCursor
	}
	priority, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, time.Time{}, "", domain.ErrInvalidCursor
	}
	ts, err := time.Parse(time.RFC3339Nano, parts[1])
	if err != nil {
		return 0, time.Time{}, "", domain.ErrInvalidCursor
	}
	return priority, ts, parts[2], nil
}
