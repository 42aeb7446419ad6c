package utils

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

const (
	// GitHub text length limits
	// https://docs.github.com/en/rest/issues/issues
	MaxTitleLength   = 256
	MaxBodyLength    = 65536
	MaxCommentLength = 65536

	TruncateSuffix = "... [truncated]"
)

// TruncateText cuts text to at most maxLength runes, marking the cut with TruncateSuffix.
func TruncateText(text string, maxLength int) string {
	if utf8.RuneCountInString(text) <= maxLength {
		return text
	}

	runes := []rune(text)
	availableLength := maxLength - utf8.RuneCountInString(TruncateSuffix)
	if availableLength <= 0 {
		return string(runes[:maxLength])
	}
	return string(runes[:availableLength]) + TruncateSuffix
}

// ToggleInitialCase lowercases s when it starts with an upper case letter and capitalises its
// first letter otherwise.
func ToggleInitialCase(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	if unicode.IsUpper(r) {
		return strings.ToLower(s)
	}
	return string(unicode.ToUpper(r)) + s[size:]
}
