// Package validate turns request-binding validation failures into the
// per-field inline messages the sign-up and login forms render, and grades
// passwords for the strength meter.
package validate

import (
	"errors"
	"fmt"
	"unicode"

	"github.com/go-playground/validator/v10"
)

// MinPasswordLength is the shortest password accepted on sign-up.
const MinPasswordLength = 8

// FieldErrors maps a form field to its inline error text.
type FieldErrors map[string]string

// Ok reports whether validation passed.
func (e FieldErrors) Ok() bool { return len(e) == 0 }

// FromBinding converts the validator errors raised while binding a request
// body into per-field messages keyed by the JSON field name. The second
// return is false when err is not a validation error, e.g. malformed JSON.
func FromBinding(err error) (FieldErrors, bool) {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return nil, false
	}

	errs := FieldErrors{}
	for _, fe := range verrs {
		errs[jsonField(fe.Field())] = message(fe)
	}
	return errs, true
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "This field is required"
	case "email":
		return "Please enter a valid email address"
	case "min":
		return fmt.Sprintf("Must be at least %s characters", fe.Param())
	case "eqfield":
		return "Passwords do not match"
	default:
		return "Invalid value"
	}
}

// jsonField lowercases the leading rune so struct field names line up with
// their json tags: Email -> email, ConfirmPassword -> confirmPassword.
func jsonField(name string) string {
	if name == "" {
		return name
	}
	r := []rune(name)
	r[0] = unicode.ToLower(r[0])
	return string(r)
}

// Strength grades a password for the sign-up form's strength meter.
type Strength int

const (
	Weak Strength = iota
	Fair
	Good
	Strong
)

func (s Strength) String() string {
	switch s {
	case Strong:
		return "strong"
	case Good:
		return "good"
	case Fair:
		return "fair"
	default:
		return "weak"
	}
}

// PasswordStrength scores length plus character variety. One point each for
// length >= 8, length >= 12, mixed case, digits and symbols.
func PasswordStrength(password string) Strength {
	score := 0
	if len(password) >= MinPasswordLength {
		score++
	}
	if len(password) >= 12 {
		score++
	}

	var lower, upper, digit, symbol bool
	for _, r := range password {
		switch {
		case unicode.IsLower(r):
			lower = true
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsDigit(r):
			digit = true
		default:
			symbol = true
		}
	}
	if lower && upper {
		score++
	}
	if digit {
		score++
	}
	if symbol {
		score++
	}

	switch {
	case score >= 5:
		return Strong
	case score >= 4:
		return Good
	case score >= 2:
		return Fair
	default:
		return Weak
	}
}
