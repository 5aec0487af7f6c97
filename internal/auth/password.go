// Package auth hashes and verifies LocalUser passwords.
package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"fmt"

	"golang.org/x/crypto/pbkdf2"
)

const (
	// pbkdf2Iterations matches §3 LocalUser: "password hash + salt
	// (PBKDF2-HMAC-SHA256, 600,000 iterations, 32-byte hash, 16-byte salt)".
	pbkdf2Iterations = 600_000
	hashLen          = 32
	saltLen          = 16
)

// ErrPasswordTooShort is returned by HashPassword for passwords under the
// minimum length the storage core enforces (§7 InvalidArgument example:
// "password too short").
var ErrPasswordTooShort = fmt.Errorf("auth: password must be at least 8 bytes")

// HashPassword derives a PBKDF2-HMAC-SHA256 hash and a fresh random salt
// for password. Mirrors the cost/algorithm shape of the teacher's
// bcrypt-based BasicAuthManager.NewBasicAuthManager, swapped to the
// algorithm §3 mandates for LocalUser.
func HashPassword(password string) (hash, salt []byte, err error) {
	if len(password) < 8 {
		return nil, nil, ErrPasswordTooShort
	}
	salt = make([]byte, saltLen)
	if _, err := rand.Read(salt); err != nil {
		return nil, nil, fmt.Errorf("auth: generate salt: %w", err)
	}
	hash = pbkdf2.Key([]byte(password), salt, pbkdf2Iterations, hashLen, sha256.New)
	return hash, salt, nil
}

// VerifyPassword reports whether password matches the stored hash/salt
// pair, using a constant-time comparison to avoid timing side channels
// (same rationale as the teacher's bcrypt.CompareHashAndPassword call
// sites).
func VerifyPassword(password string, hash, salt []byte) bool {
	if len(hash) != hashLen || len(salt) != saltLen {
		return false
	}
	candidate := pbkdf2.Key([]byte(password), salt, pbkdf2Iterations, hashLen, sha256.New)
	return subtle.ConstantTimeCompare(candidate, hash) == 1
}
