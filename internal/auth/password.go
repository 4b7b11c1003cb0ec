// Package auth hashes and verifies credentials with bcrypt. Passwords are
// never stored or compared in clear text.
package auth

import (
	"errors"
	"fmt"
	"sync"

	"golang.org/x/crypto/bcrypt"
)

var ErrMismatch = errors.New("password mismatch")

// Hasher hashes passwords at a fixed bcrypt cost.
type Hasher struct {
	cost int

	dummyOnce sync.Once
	dummy     []byte
	dummyErr  error
}

// NewHasher clamps cost into bcrypt's accepted range; zero selects the default.
func NewHasher(cost int) *Hasher {
	switch {
	case cost == 0:
		cost = bcrypt.DefaultCost
	case cost < bcrypt.MinCost:
		cost = bcrypt.MinCost
	case cost > bcrypt.MaxCost:
		cost = bcrypt.MaxCost
	}
	return &Hasher{cost: cost}
}

func (h *Hasher) Cost() int {
	return h.cost
}

// Hash returns a salted bcrypt hash of password.
func (h *Hasher) Hash(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), h.cost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

// Check returns ErrMismatch when password does not match hash.
func (h *Hasher) Check(hash, password string) error {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return ErrMismatch
	}
	if err != nil {
		return fmt.Errorf("compare password: %w", err)
	}
	return nil
}

// Burn spends the same time as a real Check so a missing account cannot be
// told apart from a wrong password by latency.
func (h *Hasher) Burn(password string) {
	h.dummyOnce.Do(func() {
		h.dummy, h.dummyErr = bcrypt.GenerateFromPassword([]byte("spendwise-dummy"), h.cost)
	})
	if h.dummyErr != nil {
		return
	}
	_ = bcrypt.CompareHashAndPassword(h.dummy, []byte(password))
}

// HashPassword hashes with the default cost.
func HashPassword(password string) (string, error) {
	return NewHasher(0).Hash(password)
}

// CheckPassword reports whether password matches hash.
func CheckPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
