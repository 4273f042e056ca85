package handlers

import (
	"net/mail"
	"strings"
	"unicode/utf8"

	"inkwell/internal/slug"
)

// Limits for login input.
const (
	maxEmailLen    = 254
	maxPasswordLen = 72 // bcrypt ignores anything longer
)

// validateLogin checks login form inputs and returns the first error found.
func validateLogin(email, password string) string {
	email = strings.TrimSpace(email)
	if email == "" {
		return "Email is required"
	}
	if utf8.RuneCountInString(email) > maxEmailLen {
		return "Email is too long"
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return "Email is not a valid address"
	}
	if password == "" {
		return "Password is required"
	}
	if len(password) > maxPasswordLen {
		return "Password is too long (max 72 bytes)"
	}
	return ""
}

// validateID checks a numeric identifier from procedure input.
func validateID(id int64) string {
	if id <= 0 {
		return "id must be a positive integer"
	}
	return ""
}

// validateSlugInput checks a slug from procedure input.
func validateSlugInput(s string) string {
	if s == "" {
		return "slug is required"
	}
	if utf8.RuneCountInString(s) > 255 {
		return "slug is too long"
	}
	if !slug.Valid(s) {
		return "slug must be lowercase words joined by single hyphens"
	}
	return ""
}
