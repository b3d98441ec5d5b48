// Package authutil holds the password and email rules used by sign-in and
// registration.
package authutil

import (
	"errors"
	"strings"

	"github.com/dalemusser/promptstash/internal/app/system/apperr"
	"golang.org/x/crypto/bcrypt"
)

const (
	MinPasswordLength = 6
	MaxPasswordLength = 128

	// BcryptCost is the work factor for stored password hashes.
	BcryptCost = bcrypt.DefaultCost
)

var (
	ErrPasswordTooShort = errors.New("password is too short")
	ErrPasswordTooLong  = errors.New("password is too long")
	ErrPasswordCommon   = errors.New("password is too common")
)

var commonPasswords = map[string]bool{
	"123456": true, "1234567": true, "12345678": true, "123456789": true,
	"password": true, "password1": true, "qwerty": true, "abc123": true,
	"iloveyou": true, "letmein": true, "football": true, "welcome": true,
	"monkey": true, "dragon": true, "111111": true, "sunshine": true,
}

// ValidatePassword checks length bounds and rejects well-known passwords.
func ValidatePassword(pw string) error {
	switch {
	case len(pw) < MinPasswordLength:
		return ErrPasswordTooShort
	case len(pw) > MaxPasswordLength:
		return ErrPasswordTooLong
	case commonPasswords[strings.ToLower(pw)]:
		return ErrPasswordCommon
	}
	return nil
}

// PasswordRules describes the password policy for display.
func PasswordRules() string {
	return "Passwords must be at least 6 characters and not a commonly used password."
}

func HashPassword(pw string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(pw), BcryptCost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// CheckPassword reports whether pw matches the bcrypt hash.
func CheckPassword(pw, hash string) bool {
	if pw == "" || hash == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(pw)) == nil
}

// isValidEmail is a shape check: one @, a non-empty local part, and a domain
// with an inner dot.
func isValidEmail(email string) bool {
	local, domain, ok := strings.Cut(email, "@")
	if !ok || local == "" || strings.Contains(domain, "@") {
		return false
	}
	dot := strings.LastIndex(domain, ".")
	return dot > 0 && dot < len(domain)-1 && !strings.HasPrefix(domain, ".")
}

// Registration is a new email/password account request.
type Registration struct {
	Email    string
	Name     string
	Password string
}

// ValidateRegistration trims the fields and checks them, returning a
// validation error naming the first problem.
func ValidateRegistration(in Registration) (Registration, error) {
	in.Email = strings.TrimSpace(in.Email)
	in.Name = strings.TrimSpace(in.Name)
	if !isValidEmail(in.Email) {
		return in, apperr.Validation("a valid email address is required")
	}
	if in.Name == "" {
		in.Name = in.Email
	}
	if err := ValidatePassword(in.Password); err != nil {
		return in, apperr.Validation("%s. %s", capitalize(err.Error()), PasswordRules())
	}
	return in, nil
}

// SafeReturn keeps a post-sign-in redirect on this site. Anything that is
// not a plain absolute path becomes fallback.
func SafeReturn(ret, fallback string) string {
	if !strings.HasPrefix(ret, "/") || strings.HasPrefix(ret, "//") || strings.HasPrefix(ret, "/\\") {
		return fallback
	}
	return ret
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
