package identity

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeEquivalence(t *testing.T) {
	assert.Equal(t, Normalize("2025-001"), Normalize("2025 001"))
	assert.Equal(t, Normalize("2025-001"), Normalize("2025001"))
	assert.Equal(t, "2025001", Normalize("2025-001"))
}

func TestNormalize(t *testing.T) {
	cases := map[string]string{
		"":               "",
		"  OSCA-2025  ":  "osca2025",
		"Juan_Dela-Cruz": "juandelacruz",
		"№!@#":           "",
	}
	for in, want := range cases {
		assert.Equal(t, want, Normalize(in), "input %q", in)
	}
}

func TestParseDashedID(t *testing.T) {
	assert.Equal(t, "2025-001", Parse("https://x/v?id=2025-001"))
	assert.Equal(t, "2025-001", Parse("2025-001"))
	assert.Equal(t, "2025-12345", Parse("wrap 2025-12345 wrap"))
}

func TestParseDigitRun(t *testing.T) {
	// exactly 7 digits get reshaped into the canonical dashed form
	assert.Equal(t, "2025-001", Parse("OSCA2025001XYZ"))
	// longer runs are ambiguous, return them untouched
	assert.Equal(t, "202500123", Parse("id=202500123"))
}

func TestParseFallback(t *testing.T) {
	assert.Equal(t, "no-id-here", Parse("no-id-here"))
	assert.Equal(t, "abc 123", Parse("  abc 123  "))
	assert.Equal(t, "", Parse("   "))
}

func TestParsePrefersDashedOverDigits(t *testing.T) {
	// a dashed match wins even when a bare digit run appears first
	assert.Equal(t, "2025-777", Parse("9999999 then 2025-777"))
}
