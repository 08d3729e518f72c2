package common

import (
	"crypto/rand"
	"fmt"
)

// GenerateRandBytes returns size bytes read from crypto/rand.
//
// Unlike a counter, every call draws fresh randomness, so it is safe for
// salts and AEAD nonces across process restarts.
func GenerateRandBytes(size int) ([]byte, error) {
	b := make([]byte, size)
	if _, err := rand.Read(b); err != nil {
		return nil, fmt.Errorf("read random bytes: %w", err)
	}
	return b, nil
}

// WipeByteArray overwrites the contents of the provided byte slice with zeros.
// It is used for passwords and session keys once they are no longer needed.
//
// If the slice is nil, the function does nothing.
func WipeByteArray(b []byte) {
	if b == nil {
		return
	}
	for i := range b {
		b[i] = 0
	}
}

// CloneBytes returns an independent copy of b, or nil for a nil slice.
func CloneBytes(b []byte) []byte {
	if b == nil {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}
