package identity

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/connectcare/telehealth/internal/platform/apperr"
)

const minPasswordLen = 8

var (
	emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	phonePattern = regexp.MustCompile(`^\+?[1-9]\d{1,14}$`)
)

// NormalizeEmail trims and lower-cases an address before lookup or insert.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// NormalizePhone trims surrounding whitespace.
func NormalizePhone(phone string) string {
	return strings.TrimSpace(phone)
}

func ValidateEmail(email string) error {
	if !emailPattern.MatchString(email) {
		return apperr.Invalid("email", "invalid email format")
	}
	return nil
}

func ValidatePhone(phone string) error {
	if !phonePattern.MatchString(phone) {
		return apperr.Invalid("phone", "invalid phone number format")
	}
	return nil
}

// ValidatePassword requires at least eight characters with a lowercase
// letter, an uppercase letter and a digit. There is no upper bound.
func ValidatePassword(password string) error {
	if utf8.RuneCountInString(password) < minPasswordLen {
		return apperr.Invalid("password", "password must be at least %d characters", minPasswordLen)
	}
	var lower, upper, digit bool
	for _, r := range password {
		switch {
		case r >= 'a' && r <= 'z':
			lower = true
		case r >= 'A' && r <= 'Z':
			upper = true
		case r >= '0' && r <= '9':
			digit = true
		}
	}
	if !lower || !upper || !digit {
		return apperr.Invalid("password", "password must contain an uppercase letter, a lowercase letter and a digit")
	}
	return nil
}
