// Package idgen creates the random identifiers Mitbringsel hands out for events,
// items and host keys
package idgen

import (
	"crypto/rand"
	"encoding/hex"
)

// Number of random bytes per identifier - encodes to twice as many hex characters
const numBytes = 6

// New returns a new random identifier of 12 hex characters
//
// Uniqueness is probabilistic: at the number of events a single installation will
// ever see, a collision check against existing records is not worth the trouble.
// The same token format doubles as the host key, so the bytes have to come from
// a cryptographically strong source
func New() string {
	b := make([]byte, numBytes)
	if _, err := rand.Read(b); err != nil {
		// If crypto/rand fails, the system is in no state to keep serving requests
		panic(err)
	}
	return hex.EncodeToString(b)
}
