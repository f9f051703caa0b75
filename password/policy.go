package password

import (
	"fmt"
	"unicode"
)

const (
	policyMinLength = 8
	policyMaxLength = 24
)

// ErrPolicy is the errors.Is target for every policy violation.
var ErrPolicy = fmt.Errorf("password policy violation")

// ValidatePolicy checks the storefront password rules: 8 to 24
// characters with at least one uppercase letter, one lowercase letter,
// one digit, and one special character. The returned error wraps
// ErrPolicy and names the first rule that failed.
func ValidatePolicy(pw string) error {
	runes := []rune(pw)
	if len(runes) < policyMinLength {
		return fmt.Errorf("%w: must be at least %d characters", ErrPolicy, policyMinLength)
	}
	if len(runes) > policyMaxLength {
		return fmt.Errorf("%w: must be at most %d characters", ErrPolicy, policyMaxLength)
	}

	var upper, lower, digit, special bool
	for _, r := range runes {
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lower = true
		case unicode.IsDigit(r):
			digit = true
		default:
			special = true
		}
	}

	switch {
	case !upper:
		return fmt.Errorf("%w: must contain an uppercase letter", ErrPolicy)
	case !lower:
		return fmt.Errorf("%w: must contain a lowercase letter", ErrPolicy)
	case !digit:
		return fmt.Errorf("%w: must contain a digit", ErrPolicy)
	case !special:
		return fmt.Errorf("%w: must contain a special character", ErrPolicy)
	}

	return nil
}
