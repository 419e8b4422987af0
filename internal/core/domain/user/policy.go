package user

import (
	"regexp"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
)

const (
	MinPasswordLength = 8
	MaxPasswordLength = 256
	MaxEmailLength    = 512
)

var (
	hasLetter = regexp.MustCompile(`\pL`)
	hasDigit  = regexp.MustCompile(`\pN`)
)

// ValidatePassword checks a new password against the password policy.
func ValidatePassword(password RawPassword) error {
	err := validation.Validate(
		string(password),
		validation.Required,
		validation.RuneLength(MinPasswordLength, MaxPasswordLength),
		validation.Match(hasLetter).Error("must contain at least one letter"),
		validation.Match(hasDigit).Error("must contain at least one digit"),
	)
	if err != nil {
		return &WeakPasswordError{reason: err.Error()}
	}
	return nil
}

// ValidateEmail performs a syntactic check only, it says nothing about
// whether an account exists.
func ValidateEmail(email string) error {
	err := validation.Validate(
		email,
		validation.Required,
		validation.Length(0, MaxEmailLength),
		is.Email,
	)
	if err != nil {
		return ErrInvalidEmail
	}
	return nil
}
