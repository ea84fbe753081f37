// Package pan scans inbound payloads for primary account numbers so that
// raw card data never reaches the store.
package pan

import (
	"fmt"
	"sort"
	"strings"
)

const DefaultTokenPrefix = "tok_"

const (
	minPANDigits = 13
	maxPANDigits = 19
)

// Finding identifies where in a payload a card-number-like value was seen.
// MaskedValue is safe for logs and error responses; the raw value is never
// carried out of this package.
type Finding struct {
	Section     string
	Path        string
	MaskedValue string
}

type Detector struct {
	tokenPrefix string
}

func NewDetector(tokenPrefix string) *Detector {
	if tokenPrefix == "" {
		tokenPrefix = DefaultTokenPrefix
	}
	return &Detector{tokenPrefix: tokenPrefix}
}

// DetectString reports whether a single string value looks like a real
// (non-tokenized) card number.
func (d *Detector) DetectString(value string) bool {
	if strings.HasPrefix(value, d.tokenPrefix) {
		return false
	}
	digits := stripSeparators(value)
	if digits == "" {
		return false
	}
	if len(digits) < minPANDigits || len(digits) > maxPANDigits {
		return false
	}
	return luhnValid(digits)
}

// Detect walks an arbitrary nested structure and returns the first
// card-number-like leaf, if any.
func (d *Detector) Detect(value any) (Finding, bool) {
	return d.walk("", value)
}

// ScanAll checks several named payload sections in one pass and returns at
// most one finding per section that contains a match. Sections are scanned
// in name order so output is stable.
func (d *Detector) ScanAll(sections map[string]any) []Finding {
	names := make([]string, 0, len(sections))
	for name := range sections {
		names = append(names, name)
	}
	sort.Strings(names)

	var findings []Finding
	for _, name := range names {
		if finding, ok := d.walk("", sections[name]); ok {
			finding.Section = name
			findings = append(findings, finding)
		}
	}
	return findings
}

func (d *Detector) walk(path string, value any) (Finding, bool) {
	switch v := value.(type) {
	case string:
		if d.DetectString(v) {
			return Finding{Path: path, MaskedValue: Mask(v)}, true
		}
	case map[string]any:
		for key, child := range v {
			childPath := key
			if path != "" {
				childPath = path + "." + key
			}
			if finding, ok := d.walk(childPath, child); ok {
				return finding, true
			}
		}
	case []any:
		for i, child := range v {
			if finding, ok := d.walk(fmt.Sprintf("%s[%d]", path, i), child); ok {
				return finding, true
			}
		}
	}
	return Finding{}, false
}

// Mask renders a value preview safe for logging: first 4 + "***" + last 4,
// or "***" when the value is 8 characters or fewer.
func Mask(value string) string {
	if len(value) <= 8 {
		return "***"
	}
	return value[:4] + "***" + value[len(value)-4:]
}

func stripSeparators(value string) string {
	var b strings.Builder
	for _, r := range value {
		switch {
		case r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == ' ' || r == '-':
			continue
		default:
			return ""
		}
	}
	return b.String()
}

// luhnValid runs the Luhn checksum over a digit string: odd positions from
// the right count as-is, even positions count as the digit sum of twice the
// digit; the total must be divisible by 10.
func luhnValid(digits string) bool {
	sum := 0
	double := false
	for i := len(digits) - 1; i >= 0; i-- {
		d := int(digits[i] - '0')
		if double {
			d *= 2
			if d > 9 {
				d -= 9
			}
		}
		sum += d
		double = !double
	}
	return sum%10 == 0
}
