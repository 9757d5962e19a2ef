// internal/app/system/normalize/normalize.go

// Package normalize centralizes input normalization so every store and
// handler agrees on what a stored email, name, or code looks like.
package normalize

import "strings"

// Email lowercases and trims an email address.
func Email(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Name trims surrounding whitespace and collapses internal runs of
// whitespace to single spaces. Case is preserved.
func Name(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// Code uppercases and trims a coordination code. Codes are stored
// uppercase and compared exactly.
func Code(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}

// Status lowercases and trims a status value.
func Status(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
