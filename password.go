package authcore

import (
	"errors"

	goerrors "github.com/goliatone/go-errors"
	"golang.org/x/crypto/bcrypt"
)

// PasswordHasher turns cleartext passwords into opaque salted credentials
// and compares them. The engine never inspects hash internals.
type PasswordHasher interface {
	Hash(password string) (PasswordHashAndSalt, error)
	Compare(password string, creds PasswordHashAndSalt) error
}

// BcryptHasher is the default PasswordHasher. bcrypt embeds its salt in the
// hash, so the salt field stays empty.
type BcryptHasher struct {
	Cost int
}

// Hash generates a credential from a cleartext password.
func (b BcryptHasher) Hash(password string) (PasswordHashAndSalt, error) {
	if password == "" {
		return PasswordHashAndSalt{}, missingParameter("password")
	}
	cost := b.Cost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	h, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return PasswordHashAndSalt{}, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to hash password")
	}
	return PasswordHashAndSalt{Hash: h}, nil
}

// Compare validates the given cleartext password against a stored
// credential.
func (b BcryptHasher) Compare(password string, creds PasswordHashAndSalt) error {
	if err := bcrypt.CompareHashAndPassword(creds.Hash, []byte(password)); err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return ErrInvalidCredentials
		}
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to compare password")
	}
	return nil
}
