package domain

import (
	"strings"
	"unicode"
)

// NormalizeQuery prepares free-text search input for matching:
//   - trims leading/trailing whitespace (including U+3000)
//   - converts to lowercase
//   - compresses runs of whitespace into one ASCII space
func NormalizeQuery(text string) string {
	text = strings.TrimSpace(text)
	if text == "" {
		return ""
	}
	text = strings.ToLower(text)

	var b strings.Builder
	b.Grow(len(text))
	prevSpace := false
	for _, r := range text {
		if unicode.IsSpace(r) {
			if prevSpace {
				continue
			}
			prevSpace = true
			b.WriteByte(' ')
			continue
		}
		prevSpace = false
		b.WriteRune(r)
	}
	return b.String()
}

// IsDigits reports whether s is a non-empty run of ASCII digits.
func IsDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// IsCategoryID reports whether s looks like a composite category id:
// one to three digit segments joined by '-'.
func IsCategoryID(s string) bool {
	parts := strings.Split(s, "-")
	if len(parts) > 3 {
		return false
	}
	for _, p := range parts {
		if !IsDigits(p) {
			return false
		}
	}
	return true
}
