package domain

import "strings"

// HandleKind says which column a login identifier addresses
type HandleKind int

const (
	HandleUsername HandleKind = iota
	HandleEmail
	HandlePhone
)

// ClassifyHandle treats anything with "@" as an email, a leading "+" or an
// all-digit value (spaces and dashes allowed) as a phone, and the rest as a username.
func ClassifyHandle(handle string) HandleKind {
	handle = strings.TrimSpace(handle)
	if strings.Contains(handle, "@") {
		return HandleEmail
	}
	if strings.HasPrefix(handle, "+") {
		return HandlePhone
	}
	digits := 0
	for _, r := range handle {
		switch {
		case r >= '0' && r <= '9':
			digits++
		case r == ' ' || r == '-':
		default:
			return HandleUsername
		}
	}
	if digits > 0 {
		return HandlePhone
	}
	return HandleUsername
}

// ValidateUsername rejects usernames that would read as an email or a phone at login
func ValidateUsername(username string) error {
	if ClassifyHandle(username) != HandleUsername {
		return NewValidationError("Username cannot be an email address or phone number")
	}
	return nil
}
