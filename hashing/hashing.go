// Package hashing produces salted, slow one-way hashes of bearer credentials.
//
// Bearer tokens here are JWTs and routinely exceed bcrypt's 72 byte input
// limit, so each secret is first reduced to its hex BLAKE3-256 digest and the
// digest is what bcrypt salts and stretches.
package hashing

import (
	"encoding/hex"

	"github.com/pkg/errors"
	"github.com/zeebo/blake3"
	"golang.org/x/crypto/bcrypt"
)

// DefaultCost is the bcrypt work factor used when none is configured.
const DefaultCost = 10

// Hasher is the contract consumed by the session and api-key services.
type Hasher interface {
	Hash(secret string) (string, error)
	Verify(secret, hashed string) bool
}

// Service hashes and verifies secrets with bcrypt.
type Service struct {
	cost int
}

var _ Hasher = (*Service)(nil)

// New returns a Service using cost, or DefaultCost when cost is not positive.
func New(cost int) *Service {
	if cost <= 0 {
		cost = DefaultCost
	}
	if cost < bcrypt.MinCost {
		cost = bcrypt.MinCost
	}
	if cost > bcrypt.MaxCost {
		cost = bcrypt.MaxCost
	}
	return &Service{cost: cost}
}

// Hash returns a salted hash of secret. Two calls with the same input differ.
func (s *Service) Hash(secret string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword(prehash(secret), s.cost)
	if err != nil {
		return "", errors.Wrap(err, "[hashing.Hash] bcrypt")
	}
	return string(hashed), nil
}

// Verify reports whether secret matches hashed. Malformed hashes never match.
func (s *Service) Verify(secret, hashed string) bool {
	if hashed == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hashed), prehash(secret)) == nil
}

func prehash(secret string) []byte {
	sum := blake3.Sum256([]byte(secret))
	digest := make([]byte, hex.EncodedLen(len(sum)))
	hex.Encode(digest, sum[:])
	return digest
}
