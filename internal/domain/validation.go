package domain

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	emailRe    = regexp.MustCompile(`^[A-Za-z0-9._%+\-]+@[A-Za-z0-9.\-]+\.[A-Za-z]{2,}$`)
	phoneRe    = regexp.MustCompile(`^\+?[0-9\s\-()]{7,20}$`)
	currencyRe = regexp.MustCompile(`^[A-Z]{3}$`)
)

// MinPasswordLength is enforced on every password set or reset.
const MinPasswordLength = 8

func IsEmail(s string) bool { return emailRe.MatchString(s) }

func IsPhone(s string) bool { return phoneRe.MatchString(s) }

func IsCurrency(s string) bool { return currencyRe.MatchString(s) }

func requireText(v *ValidationError, field, value string) {
	if strings.TrimSpace(value) == "" {
		v.Add(field, "is required")
	}
}

func checkEmail(v *ValidationError, field, value string, required bool) {
	if value == "" {
		if required {
			v.Add(field, "is required")
		}
		return
	}
	if !IsEmail(value) {
		v.Add(field, "must be a valid email address")
	}
}

func checkPhone(v *ValidationError, field, value string) {
	if value != "" && !IsPhone(value) {
		v.Add(field, "must be a valid phone number")
	}
}

func checkNonNegative(v *ValidationError, field string, d decimal.Decimal) {
	if d.IsNegative() {
		v.Add(field, "must not be negative")
	}
}

// CheckPassword validates a new password and, when confirm is non-nil, that
// it matches the confirmation.
func CheckPassword(v *ValidationError, field, password string, confirm *string) {
	if len(password) < MinPasswordLength {
		v.Add(field, "must be at least 8 characters")
		return
	}
	if confirm != nil && *confirm != password {
		v.Add("confirmPassword", "does not match")
	}
}

func normalizeEmail(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// NormalizeEmail lower-cases and trims an email address for lookups.
func NormalizeEmail(s string) string { return normalizeEmail(s) }
