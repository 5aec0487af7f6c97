package store

import (
	"crypto/rand"
	"encoding/binary"
)

// randomSeed returns a cryptographically random 64-bit value, used both
// for the per-database name-index hash seed and for session ids
// that must not be guessable (§3 Session "Id is a cryptographically
// random 64-bit value").
func randomSeed() uint64 {
	var b [8]byte
	if _, err := rand.Read(b[:]); err != nil {
		panic("store: crypto/rand failed: " + err.Error())
	}
	return binary.BigEndian.Uint64(b[:])
}

// randomSalt32 returns a random 32-bit salt for per-post blob addressing
// (§3 Thread/Comment "32-bit random salt").
func randomSalt32() uint32 {
	var b [4]byte
	if _, err := rand.Read(b[:]); err != nil {
		panic("store: crypto/rand failed: " + err.Error())
	}
	return binary.BigEndian.Uint32(b[:])
}
