// Package validate checks signup and login input and reports every failing rule per field.
package validate

import (
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"
)

// Field names used as keys in Errors.
const (
	FieldEmail    = "email"
	FieldPassword = "password"
)

const (
	maxEmailLen       = 254
	minPasswordLen    = 8
	maxPasswordLen    = 256
	passwordSpecials  = `!@#$%^&*()_-+=[]{};':"\|,.<>/?~`
	msgInvalidEmail   = "Invalid email format"
	msgEmailTooLong   = "Email too long"
	msgPasswordShort  = "Password must be at least 8 characters"
	msgPasswordLong   = "Password too long"
	msgPasswordWeak   = "Must include uppercase, lowercase, number, and special character."
	msgPasswordNeeded = "Password is required"
)

// emailPattern is the address shape accepted at signup and login: a local part of
// letters, digits and _'+-. that does not end in a dot, and a dotted domain whose labels
// start with a letter or digit and whose TLD is at least two letters.
var emailPattern = regexp.MustCompile(`^[A-Za-z0-9_'+\-.]*[A-Za-z0-9_+\-]@([A-Za-z0-9][A-Za-z0-9\-]*\.)+[A-Za-z]{2,}$`)

// Errors maps a field name to the messages of every rule it failed.
type Errors map[string][]string

// Add records msg against field.
func (e Errors) Add(field, msg string) {
	e[field] = append(e[field], msg)
}

// Error joins all messages, fields in alphabetical order.
func (e Errors) Error() string {
	fields := make([]string, 0, len(e))
	for f := range e {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	parts := make([]string, 0, len(fields))
	for _, f := range fields {
		parts = append(parts, f+": "+strings.Join(e[f], ", "))
	}
	return strings.Join(parts, "; ")
}

// Err returns e as an error, or nil when no rule failed.
func (e Errors) Err() error {
	if len(e) == 0 {
		return nil
	}
	return e
}

// Signup validates a new account's email and password.
func Signup(email, password string) error {
	errs := Errors{}
	if !validEmail(email) {
		errs.Add(FieldEmail, msgInvalidEmail)
	}
	if utf8.RuneCountInString(email) > maxEmailLen {
		errs.Add(FieldEmail, msgEmailTooLong)
	}
	n := utf8.RuneCountInString(password)
	if n < minPasswordLen {
		errs.Add(FieldPassword, msgPasswordShort)
	}
	if n > maxPasswordLen {
		errs.Add(FieldPassword, msgPasswordLong)
	}
	if !strongPassword(password) {
		errs.Add(FieldPassword, msgPasswordWeak)
	}
	return errs.Err()
}

// Login validates the shape of login input. It does not apply the signup strength rules.
func Login(email, password string) error {
	errs := Errors{}
	if !validEmail(email) {
		errs.Add(FieldEmail, msgInvalidEmail)
	}
	if password == "" {
		errs.Add(FieldPassword, msgPasswordNeeded)
	}
	return errs.Err()
}

func validEmail(email string) bool {
	if strings.HasPrefix(email, ".") || strings.Contains(email, "..") {
		return false
	}
	return emailPattern.MatchString(email)
}

func strongPassword(password string) bool {
	var hasUpper, hasLower, hasDigit, hasSpecial bool
	for _, r := range password {
		switch {
		case r >= 'A' && r <= 'Z':
			hasUpper = true
		case r >= 'a' && r <= 'z':
			hasLower = true
		case r >= '0' && r <= '9':
			hasDigit = true
		case strings.ContainsRune(passwordSpecials, r):
			hasSpecial = true
		}
	}
	return hasUpper && hasLower && hasDigit && hasSpecial
}
