// Package security hashes account passwords and mints session tokens.
package security

import (
	"errors"

	"golang.org/x/crypto/bcrypt"

	"homio/internal/domain/shared/fault"
)

// maxPasswordBytes is the longest input bcrypt accepts.
const maxPasswordBytes = 72

var (
	ErrPasswordTooLong  = fault.New(fault.ErrValidation, "security: password must be at most 72 bytes")
	ErrPasswordMismatch = errors.New("security: password does not match")
)

type BcryptHasher struct {
	Cost int
}

func (h BcryptHasher) Hash(password string) (string, error) {
	if len(password) > maxPasswordBytes {
		return "", ErrPasswordTooLong
	}
	out, err := bcrypt.GenerateFromPassword([]byte(password), h.cost())
	if err != nil {
		return "", err
	}
	return string(out), nil
}

// Compare returns ErrPasswordMismatch for a wrong password and the bcrypt
// error for a malformed hash.
func (h BcryptHasher) Compare(hash, password string) error {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return ErrPasswordMismatch
	}
	return err
}

// NeedsRehash reports whether hash was produced with a different cost.
func (h BcryptHasher) NeedsRehash(hash string) bool {
	cost, err := bcrypt.Cost([]byte(hash))
	return err != nil || cost != h.cost()
}

func (h BcryptHasher) cost() int {
	if h.Cost >= bcrypt.MinCost && h.Cost <= bcrypt.MaxCost {
		return h.Cost
	}
	return bcrypt.DefaultCost
}
