package utils

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
)

func TestTruncate(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		maxBytes int
		want     string
	}{
		{"shorter than limit", "abc", 10, "abc"},
		{"exactly at limit", "abcde", 5, "abcde"},
		{"ascii cut", "abcdef", 4, "abcd"},
		{"empty input", "", 5, ""},
		{"zero limit", "abc", 0, ""},
		{"negative limit", "abc", -1, ""},
		// "धारा" is 4 runes, 12 bytes; a 10-byte limit lands inside the
		// fourth rune and must back off to the third.
		{"cut inside multibyte rune", "धारा", 10, "धार"},
		{"cut on multibyte boundary", "धारा", 9, "धार"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Truncate(tt.input, tt.maxBytes)
			assert.Equal(t, tt.want, got)
			assert.True(t, utf8.ValidString(got))
			if tt.maxBytes > 0 {
				assert.LessOrEqual(t, len(got), tt.maxBytes)
			}
		})
	}
}

func TestTruncateNeverSplitsRunes(t *testing.T) {
	s := strings.Repeat("धारा ३०२ ", 100)
	for max := 0; max <= 60; max++ {
		got := Truncate(s, max)
		assert.True(t, utf8.ValidString(got), "maxBytes=%d", max)
	}
}
