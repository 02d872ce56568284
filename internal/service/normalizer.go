package service

import (
	"regexp"
	"strings"
)

var whitespaceRegex = regexp.MustCompile(`\s+`)

// normalizeEmail lowercases and trims the provided email.
func normalizeEmail(email string) string {
	return strings.TrimSpace(strings.ToLower(email))
}

// normalizeUsername trims surrounding whitespace; usernames stay case sensitive.
func normalizeUsername(username string) string {
	return strings.TrimSpace(username)
}

// sanitizeString collapses whitespace and trims the result.
func sanitizeString(value string) string {
	value = whitespaceRegex.ReplaceAllString(value, " ")
	return strings.TrimSpace(value)
}
