package validation

import (
	"fmt"
	"regexp"
	"strings"
)

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

var inviteCodeRegex = regexp.MustCompile(`^[A-Z0-9]+$`)

// MaxInviteCodeLength bounds user-supplied invite codes before any
// store lookup happens.
const MaxInviteCodeLength = 12

// ValidationError represents a validation error
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidateEmail checks if an email address is valid
func ValidateEmail(email string) error {
	email = strings.TrimSpace(email)
	if email == "" {
		return ValidationError{Field: "email", Message: "email is required"}
	}
	if !emailRegex.MatchString(email) {
		return ValidationError{Field: "email", Message: "invalid email format"}
	}
	return nil
}

// ValidatePassword checks if a password meets requirements
func ValidatePassword(password string) error {
	if password == "" {
		return ValidationError{Field: "password", Message: "password is required"}
	}
	if len(password) < 8 {
		return ValidationError{Field: "password", Message: "password must be at least 8 characters"}
	}
	return nil
}

// ValidateName checks if a name is valid
func ValidateName(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return ValidationError{Field: "name", Message: "name is required"}
	}
	if len(name) < 2 {
		return ValidationError{Field: "name", Message: "name must be at least 2 characters"}
	}
	return nil
}

// NormalizeInviteCode trims and uppercases a user-supplied invitation
// code, returning an error when the result is empty, too long, or
// contains characters outside the code alphabet.
func NormalizeInviteCode(code string) (string, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		return "", ValidationError{Field: "code", Message: "code is required"}
	}
	if len(code) > MaxInviteCodeLength {
		return "", ValidationError{Field: "code", Message: fmt.Sprintf("code must be at most %d characters", MaxInviteCodeLength)}
	}
	if !inviteCodeRegex.MatchString(code) {
		return "", ValidationError{Field: "code", Message: "code contains invalid characters"}
	}
	return code, nil
}
