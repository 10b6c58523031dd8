package utils

import "unicode/utf8"

// Truncate cuts s to at most maxBytes bytes without splitting a UTF-8
// rune. The cut backs off to the nearest rune boundary, so the result can
// be a few bytes shorter than maxBytes.
func Truncate(s string, maxBytes int) string {
	if maxBytes <= 0 {
		return ""
	}
	if len(s) <= maxBytes {
		return s
	}

	cut := maxBytes
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}
