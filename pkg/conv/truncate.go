package conv

import "unicode/utf8"

// Truncate shortens s to at most n bytes plus an ellipsis, never splitting a rune.
func Truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:RuneBoundary(s, n)] + "..."
}

// RuneBoundary returns the largest offset <= n that starts a rune in s.
func RuneBoundary(s string, n int) int {
	if n >= len(s) {
		return len(s)
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return n
}
