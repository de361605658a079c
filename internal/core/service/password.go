package service

import (
	"errors"
	"fmt"
	"unicode"
	"unicode/utf8"

	"golang.org/x/crypto/bcrypt"

	"github.com/schoolpay/user-service/internal/core/domain"
)

// maxPasswordBytes is the longest input bcrypt accepts.
const maxPasswordBytes = 72

// HashPassword returns a bcrypt hash with a fresh salt, so hashing the same
// password twice yields two different strings.
func HashPassword(password string) (string, error) {
	h, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return "", passwordTooLong()
		}
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(h), nil
}

// VerifyPassword reports whether password matches the stored hash.
func VerifyPassword(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// ValidateLogin fails when the user is absent or the password does not match.
// Both cases return the same error.
func ValidateLogin(user *domain.User, password string) error {
	if user == nil || !VerifyPassword(password, user.PasswordHash) {
		return domain.Unauthorized(domain.MsgInvalidCredentials)
	}
	return nil
}

// ValidatePasswordTerms enforces the signup password policy. The minimum is
// counted in characters, the maximum in bytes.
func ValidatePasswordTerms(password string, minLength int) error {
	if utf8.RuneCountInString(password) < minLength {
		return domain.Validation(fmt.Sprintf("Make sure your password is at least %d characters", minLength))
	}
	if len(password) > maxPasswordBytes {
		return passwordTooLong()
	}
	var digit, upper, lower bool
	for _, r := range password {
		switch {
		case unicode.IsDigit(r):
			digit = true
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lower = true
		}
	}
	switch {
	case !digit:
		return domain.Validation("Make sure your password has a number in it")
	case !upper:
		return domain.Validation("Make sure your password has a capital letter in it")
	case !lower:
		return domain.Validation("Make sure your password has a small letter in it")
	}
	return nil
}

func passwordTooLong() error {
	return domain.Validation(fmt.Sprintf("Make sure your password is at most %d bytes", maxPasswordBytes))
}
