package auth

import (
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"sync"

	"golang.org/x/crypto/bcrypt"
)

// passwordHasher hashes passwords with bcrypt over a SHA-256 digest, so inputs
// longer than bcrypt's 72 byte limit still contribute every byte.
type passwordHasher struct {
	cost int

	dummyOnce sync.Once
	dummy     []byte
}

func newPasswordHasher(cost int) *passwordHasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &passwordHasher{cost: cost}
}

func (h *passwordHasher) Hash(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword(prehash(password), h.cost)
	if err != nil {
		return "", fmt.Errorf("auth: hash password: %w", err)
	}
	return string(hash), nil
}

// Matches reports whether password produced hash.
func (h *passwordHasher) Matches(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), prehash(password)) == nil
}

// Burn spends the same work as a real comparison. Login calls it for unknown
// emails so response timing does not reveal which accounts exist.
func (h *passwordHasher) Burn(password string) {
	h.dummyOnce.Do(func() {
		h.dummy, _ = bcrypt.GenerateFromPassword(prehash("tradedesk-dummy-password"), h.cost)
	})
	_ = bcrypt.CompareHashAndPassword(h.dummy, prehash(password))
}

func prehash(password string) []byte {
	sum := sha256.Sum256([]byte(password))
	return []byte(base64.StdEncoding.EncodeToString(sum[:]))
}
