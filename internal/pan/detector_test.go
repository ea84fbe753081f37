package pan

import "testing"

func TestDetectString(t *testing.T) {
	d := NewDetector("")

	tests := []struct {
		name  string
		value string
		want  bool
	}{
		{"valid visa", "4532015112830366", true},
		{"valid with dashes", "4532-0151-1283-0366", true},
		{"valid with spaces", "4532 0151 1283 0366", true},
		{"tokenized", "tok_4532015112830366", false},
		{"fails luhn", "1234567890123456", false},
		{"too short", "453201511283", false},
		{"too long", "45320151128303661234567", false},
		{"13 digit valid", "4222222222222", true},
		{"non numeric", "not-a-card-number", false},
		{"mixed alnum", "4532a15112830366", false},
		{"empty", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := d.DetectString(tt.value); got != tt.want {
				t.Fatalf("DetectString(%q) = %v, want %v", tt.value, got, tt.want)
			}
		})
	}
}

func TestDetectCustomPrefix(t *testing.T) {
	d := NewDetector("card_")
	if d.DetectString("card_4532015112830366") {
		t.Fatalf("prefixed value should never be flagged")
	}
	if !d.DetectString("tok_4532015112830366"[4:]) {
		t.Fatalf("bare digits should be flagged under a custom prefix")
	}
}

func TestDetectNested(t *testing.T) {
	d := NewDetector("")
	payload := map[string]any{
		"customer": map[string]any{
			"card": map[string]any{
				"number": "4532015112830366",
			},
		},
	}
	finding, ok := d.Detect(payload)
	if !ok {
		t.Fatalf("expected a finding")
	}
	if finding.Path != "customer.card.number" {
		t.Fatalf("unexpected path %q", finding.Path)
	}
	if finding.MaskedValue != "4532***0366" {
		t.Fatalf("unexpected mask %q", finding.MaskedValue)
	}
}

func TestDetectInSlice(t *testing.T) {
	d := NewDetector("")
	payload := map[string]any{
		"attempts": []any{
			map[string]any{"card": "tok_abc"},
			map[string]any{"card": "4532015112830366"},
		},
	}
	finding, ok := d.Detect(payload)
	if !ok {
		t.Fatalf("expected a finding")
	}
	if finding.Path != "attempts[1].card" {
		t.Fatalf("unexpected path %q", finding.Path)
	}
}

func TestDetectCleanPayload(t *testing.T) {
	d := NewDetector("")
	payload := map[string]any{
		"card_id":  "tok_4532015112830366",
		"amount":   "120.50",
		"merchant": map[string]any{"mcc": "5999"},
	}
	if _, ok := d.Detect(payload); ok {
		t.Fatalf("clean payload should not be flagged")
	}
}

func TestScanAll(t *testing.T) {
	d := NewDetector("")
	findings := d.ScanAll(map[string]any{
		"transaction_context": map[string]any{"pan": "4532015112830366"},
		"raw_payload":         map[string]any{"card": "4111111111111111"},
		"velocity":            map[string]any{"count_24h": "3"},
	})
	if len(findings) != 2 {
		t.Fatalf("expected 2 findings, got %d", len(findings))
	}
	if findings[0].Section != "raw_payload" || findings[1].Section != "transaction_context" {
		t.Fatalf("unexpected sections %q, %q", findings[0].Section, findings[1].Section)
	}
}

func TestMask(t *testing.T) {
	if got := Mask("4532015112830366"); got != "4532***0366" {
		t.Fatalf("unexpected mask %q", got)
	}
	if got := Mask("12345678"); got != "***" {
		t.Fatalf("short values must be fully masked, got %q", got)
	}
}
