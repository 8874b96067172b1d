package utils

import "strings"

// Truncate shortens s to at most maxLen runes, marking the cut with "...".
// Line breaks are flattened to "⏎" so that previews stay on one line.
func Truncate(s string, maxLen int) string {
	s = strings.ReplaceAll(s, "\n", "⏎")

	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	return string(runes[:maxLen]) + "..."
}
