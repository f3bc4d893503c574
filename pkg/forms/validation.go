package forms

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// DateLayout is the wire format of date inputs.
const DateLayout = "2006-01-02"

// Validator validates a trimmed, non-empty field value.
type Validator interface {
	// Validate checks if the value is valid.
	Validate(value string) error

	// Message returns the user-facing error message.
	Message() string
}

// EmailValidator validates the local@domain.tld shape.
type EmailValidator struct{}

var emailRegex = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

func (v EmailValidator) Validate(value string) error {
	if !emailRegex.MatchString(value) {
		return errors.New("invalid email")
	}
	return nil
}

func (v EmailValidator) Message() string {
	return "Please enter a valid email address"
}

// PhoneValidator accepts an optional leading + followed by 1-16 digits,
// the first nonzero, after stripping spaces, parentheses and hyphens.
type PhoneValidator struct{}

var (
	phoneRegex    = regexp.MustCompile(`^\+?[1-9]\d{0,15}$`)
	phoneStripper = strings.NewReplacer(" ", "", "-", "", "(", "", ")", "")
)

func (v PhoneValidator) Validate(value string) error {
	if !phoneRegex.MatchString(phoneStripper.Replace(value)) {
		return errors.New("invalid phone")
	}
	return nil
}

func (v PhoneValidator) Message() string {
	return "Please enter a valid phone number"
}

// RangeValidator requires an integer within [Min, Max].
type RangeValidator struct {
	Min int
	Max int
	Msg string
}

func (v RangeValidator) Validate(value string) error {
	n, err := strconv.Atoi(value)
	if err != nil {
		return fmt.Errorf("not an integer: %w", err)
	}
	if n < v.Min || n > v.Max {
		return fmt.Errorf("must be between %d and %d", v.Min, v.Max)
	}
	return nil
}

func (v RangeValidator) Message() string {
	if v.Msg != "" {
		return v.Msg
	}
	return fmt.Sprintf("Must be between %d and %d", v.Min, v.Max)
}

// DigitsValidator requires exactly N ASCII digits.
type DigitsValidator struct {
	N   int
	Msg string
}

func (v DigitsValidator) Validate(value string) error {
	if !isDigits(value, v.N) {
		return fmt.Errorf("want %d digits", v.N)
	}
	return nil
}

func (v DigitsValidator) Message() string {
	if v.Msg != "" {
		return v.Msg
	}
	return fmt.Sprintf("Must be exactly %d digits", v.N)
}

// NationalIDChecksumValidator applies the 13-digit national ID checksum.
// Pair it after a DigitsValidator{N: 13} so the format message wins.
type NationalIDChecksumValidator struct{}

func (v NationalIDChecksumValidator) Validate(value string) error {
	if !IsValidNationalID(value) {
		return errors.New("checksum mismatch")
	}
	return nil
}

func (v NationalIDChecksumValidator) Message() string {
	return "Invalid South African ID number"
}

// IsValidNationalID reports whether id is 13 ASCII digits whose checksum
// holds: digits at even 0-indexed positions are doubled (minus 9 when the
// result exceeds 9), odd positions are taken as is, and the sum must be a
// multiple of 10.
func IsValidNationalID(id string) bool {
	if !isDigits(id, 13) {
		return false
	}

	sum := 0
	for i := 0; i < 13; i++ {
		digit := int(id[i] - '0')
		if i%2 == 0 {
			digit *= 2
			if digit > 9 {
				digit -= 9
			}
		}
		sum += digit
	}
	return sum%10 == 0
}

// DateValidator requires a YYYY-MM-DD calendar date.
type DateValidator struct{}

func (v DateValidator) Validate(value string) error {
	_, err := time.Parse(DateLayout, value)
	return err
}

func (v DateValidator) Message() string {
	return "Please enter a valid date"
}

// AgeValidator requires the age at Now() to lie within [Min, Max].
type AgeValidator struct {
	Min int
	Max int
	// Now defaults to time.Now.
	Now func() time.Time
}

func (v AgeValidator) Validate(value string) error {
	birth, err := time.Parse(DateLayout, value)
	if err != nil {
		return err
	}

	now := time.Now
	if v.Now != nil {
		now = v.Now
	}

	age := Age(birth, now())
	if age < v.Min || age > v.Max {
		return fmt.Errorf("age %d out of range", age)
	}
	return nil
}

func (v AgeValidator) Message() string {
	return fmt.Sprintf("You must be between %d and %d years old", v.Min, v.Max)
}

// Age returns the age in whole years at now: the calendar-year difference,
// minus one when now's month/day precedes the birth month/day.
func Age(birth, now time.Time) int {
	age := now.Year() - birth.Year()
	if now.Month() < birth.Month() || (now.Month() == birth.Month() && now.Day() < birth.Day()) {
		age--
	}
	return age
}

// CustomValidator allows custom validation functions.
type CustomValidator struct {
	Fn  func(value string) error
	Msg string
}

func (v CustomValidator) Validate(value string) error {
	return v.Fn(value)
}

func (v CustomValidator) Message() string {
	return v.Msg
}

func isDigits(s string, n int) bool {
	if len(s) != n {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// Convenience constructors

// Email returns an email validator.
func Email() Validator {
	return EmailValidator{}
}

// Phone returns a phone validator.
func Phone() Validator {
	return PhoneValidator{}
}

// Range returns an integer range validator.
func Range(min, max int, msg ...string) Validator {
	v := RangeValidator{Min: min, Max: max}
	if len(msg) > 0 {
		v.Msg = msg[0]
	}
	return v
}

// Digits returns an exact-digit-count validator.
func Digits(n int, msg ...string) Validator {
	v := DigitsValidator{N: n}
	if len(msg) > 0 {
		v.Msg = msg[0]
	}
	return v
}

// PostalCode returns the 4-digit postal code validator.
func PostalCode() Validator {
	return DigitsValidator{N: 4, Msg: "Please enter a valid 4-digit postal code"}
}

// NationalID returns the format and checksum validators for a national ID.
func NationalID() []Validator {
	return []Validator{
		DigitsValidator{N: 13, Msg: "South African ID must be 13 digits"},
		NationalIDChecksumValidator{},
	}
}

// AgeBetween returns an age validator using now as the clock.
func AgeBetween(min, max int, now func() time.Time) Validator {
	return AgeValidator{Min: min, Max: max, Now: now}
}

// Custom returns a custom validator.
func Custom(fn func(value string) error, msg string) Validator {
	return CustomValidator{Fn: fn, Msg: msg}
}
