package service

import (
	"errors"

	"golang.org/x/crypto/bcrypt"
)

// PasswordHasher turns a submitted password into its stored form and checks it back.
type PasswordHasher interface {
	Hash(password string) (string, error)
	Matches(stored, submitted string) (bool, error)
}

// PlaintextPasswords stores passwords as submitted and compares with exact equality.
// Kept for compatibility with existing user rows; known weakness.
type PlaintextPasswords struct{}

func (PlaintextPasswords) Hash(password string) (string, error) { return password, nil }

func (PlaintextPasswords) Matches(stored, submitted string) (bool, error) {
	return stored == submitted, nil
}

// BcryptPasswords hashes with bcrypt.
type BcryptPasswords struct {
	Cost int
}

func (b BcryptPasswords) Hash(password string) (string, error) {
	cost := b.Cost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	h, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", err
	}
	return string(h), nil
}

func (BcryptPasswords) Matches(stored, submitted string) (bool, error) {
	err := bcrypt.CompareHashAndPassword([]byte(stored), []byte(submitted))
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword):
		return false, nil
	default:
		return false, err
	}
}

// NewPasswordHasher picks the hasher for the auth.hash_passwords setting.
func NewPasswordHasher(hash bool) PasswordHasher {
	if hash {
		return BcryptPasswords{}
	}
	return PlaintextPasswords{}
}
