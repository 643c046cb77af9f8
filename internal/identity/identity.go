// Package identity canonicalizes and extracts registrant identifiers
// from scanned payloads and typed input.
package identity

import (
	"regexp"
	"strings"
)

var (
	dashedID = regexp.MustCompile(`\d{4}-\d{3,}`)
	digitRun = regexp.MustCompile(`\d{7,}`)
)

// Normalize strips every character that is not an ASCII letter or digit
// and lowercases the rest. The result is a comparison key only; it is
// never stored or displayed.
func Normalize(raw string) string {
	var b strings.Builder
	b.Grow(len(raw))
	for i := 0; i < len(raw); i++ {
		c := raw[i]
		switch {
		case c >= '0' && c <= '9':
			b.WriteByte(c)
		case c >= 'a' && c <= 'z':
			b.WriteByte(c)
		case c >= 'A' && c <= 'Z':
			b.WriteByte(c + ('a' - 'A'))
		}
	}
	return b.String()
}

// Parse extracts a plausible registration number from a decoded payload.
// Registration numbers show up inside longer encoded payloads (URLs,
// vendor wrappers) with inconsistent formatting, so this applies ordered
// heuristics instead of requiring one fixed schema:
//
//  1. a dash-delimited number (DDDD-DDD...) is returned verbatim;
//  2. else a run of 7+ digits; exactly 7 digits are reformatted as
//     DDDD-DDD, longer runs are returned as-is;
//  3. else the trimmed payload itself.
//
// Returning the trimmed input unchanged is the deliberate fallback, not
// a failure; the matcher decides whether anything corresponds to it.
func Parse(payload string) string {
	trimmed := strings.TrimSpace(payload)
	if m := dashedID.FindString(trimmed); m != "" {
		return m
	}
	if m := digitRun.FindString(trimmed); m != "" {
		if len(m) == 7 {
			return m[:4] + "-" + m[4:]
		}
		return m
	}
	return trimmed
}
