package auth

import (
	"errors"

	"golang.org/x/crypto/bcrypt"
)

var ErrInvalidCredentials = errors.New("invalid name or password")

// StaffAuthenticator verifies staff logins against a fixed credential set
// loaded at startup. Venues are expected to provision a handful of shared
// staff accounts, so there is no registration path.
type StaffAuthenticator struct {
	// name -> bcrypt password hash
	hashes map[string]string
}

// NewStaffAuthenticator creates an authenticator over the given
// name-to-bcrypt-hash map.
func NewStaffAuthenticator(hashes map[string]string) *StaffAuthenticator {
	return &StaffAuthenticator{hashes: hashes}
}

// HashPassword produces a bcrypt hash for provisioning staff accounts.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// Authenticate verifies the name and password.
func (a *StaffAuthenticator) Authenticate(name, password string) error {
	hash, ok := a.hashes[name]
	if !ok {
		return ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		return ErrInvalidCredentials
	}
	return nil
}
