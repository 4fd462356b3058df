package graph

import (
	"strings"
)

const (
	exchangeTitleLen = 60
	messageTitleLen  = 100
	ellipsis         = "..."
)

// ExchangeTitle builds a title from the first line of text, truncated to 60
// characters plus an ellipsis.
func ExchangeTitle(text string) string {
	firstLine, _, _ := strings.Cut(strings.TrimSpace(text), "\n")
	return truncate(firstLine, exchangeTitleLen)
}

// MessageTitle truncates text to 100 characters, or returns "Message" when empty
func MessageTitle(text string) string {
	if text == "" {
		return "Message"
	}
	return truncate(text, messageTitleLen)
}

// truncate cuts s to n runes and appends an ellipsis when anything was cut
func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n]) + ellipsis
}

// prefix returns the first n runes of s
func prefix(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
