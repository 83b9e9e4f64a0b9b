package app

import (
	"crypto/subtle"
	"encoding/base64"
	"strings"

	"github.com/kioskpay/kioskpay/internal/domain"
	"golang.org/x/crypto/bcrypt"
)

const minPasswordLength = 8

// LegacyDigest reproduces the reversible encoding older accounts were stored
// with: base64(email:password) for customers, base64(password) for admins.
// It is not a password hash and is only read, never written.
func LegacyDigest(kind domain.AccountKind, email, password string) string {
	if kind == domain.AccountCustomer {
		return base64.StdEncoding.EncodeToString([]byte(email + ":" + password))
	}
	return base64.StdEncoding.EncodeToString([]byte(password))
}

// HashPassword returns a bcrypt hash for a new credential. New credentials
// must be at least 8 characters long.
func HashPassword(password string) (string, error) {
	if len(password) < minPasswordLength {
		return "", domain.NewValidationError("password", "must be at least 8 characters")
	}
	return hashPassword(password)
}

// hashPassword hashes an already accepted credential, so it applies no
// length rule.
func hashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

func isBcryptHash(stored string) bool {
	return strings.HasPrefix(stored, "$2a$") || strings.HasPrefix(stored, "$2b$") || strings.HasPrefix(stored, "$2y$")
}

// verifyPassword checks password against the stored credential of account.
// legacy reports that the match was against a legacy digest.
func verifyPassword(account domain.Account, password string, allowLegacy bool) (ok bool, legacy bool) {
	stored := account.PasswordHash
	if stored == "" || password == "" {
		return false, false
	}
	if isBcryptHash(stored) {
		return bcrypt.CompareHashAndPassword([]byte(stored), []byte(password)) == nil, false
	}
	if !allowLegacy {
		return false, false
	}
	expected := LegacyDigest(account.Kind, account.Email, password)
	return subtle.ConstantTimeCompare([]byte(expected), []byte(stored)) == 1, true
}
