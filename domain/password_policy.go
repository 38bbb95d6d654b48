package domain

import (
	"strings"
	"unicode"
)

// MinPasswordLength is the shortest accepted password
const MinPasswordLength = 8

const passwordSpecialChars = `!@#$%^&*(),.?":{}|<>`

// ValidatePassword enforces the strength policy and returns a ValidationError naming the first failed rule
func ValidatePassword(password string) error {
	if password == "" {
		return NewValidationError("password is required")
	}
	if len([]rune(password)) < MinPasswordLength {
		return NewValidationError("Password must be at least %d characters long", MinPasswordLength)
	}

	var upper, lower, digit, special bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lower = true
		case unicode.IsDigit(r):
			digit = true
		case strings.ContainsRune(passwordSpecialChars, r):
			special = true
		}
	}

	if !upper || !lower {
		return NewValidationError("Password must contain both uppercase and lowercase letters")
	}
	if !digit {
		return NewValidationError("Password must contain at least one number")
	}
	if !special {
		return NewValidationError("Password must contain at least one special character")
	}
	return nil
}
