package login

import (
	"strings"
	"unicode/utf8"

	"miragepos/infrastructure/apperr"
)

const MinPasswordLength = 8

// ValidatePasswordPolicy rejects blank and short passwords.
func ValidatePasswordPolicy(password string) error {
	if strings.TrimSpace(password) == "" {
		return apperr.Validation("password is required")
	}
	if utf8.RuneCountInString(password) < MinPasswordLength {
		return apperr.Validation("password must be at least %d characters", MinPasswordLength)
	}
	return nil
}
