// Package cryptox seals and opens single credential values with AES-256-GCM.
//
// A sealed blob is laid out as nonce(12) ‖ tag(16) ‖ ciphertext and stored as
// standard base64 text. Every Seal draws a fresh nonce from crypto/rand; there
// is no counter, so nonce reuse does not depend on state surviving a restart.
package cryptox

import (
	"crypto/aes"
	"crypto/cipher"
	"encoding/base64"
	"errors"
	"fmt"

	"github.com/cryfox/vaultcore/internal/common"
)

const (
	KeySize   = 32
	NonceSize = 12
	TagSize   = 16

	// MinBlobSize is the size of a blob that seals an empty plaintext.
	MinBlobSize = NonceSize + TagSize
)

var (
	ErrInvalidKey  = errors.New("cryptox: key must be 32 bytes")
	ErrMalformed   = errors.New("cryptox: malformed blob")
	ErrAuthFailure = errors.New("cryptox: message authentication failed")
)

func newGCM(key []byte) (cipher.AEAD, error) {
	if len(key) != KeySize {
		return nil, ErrInvalidKey
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCMWithTagSize(block, TagSize)
}

// SealBytes encrypts plaintext under key and returns the raw blob
// nonce ‖ tag ‖ ciphertext. No associated data is bound.
func SealBytes(plaintext, key []byte) ([]byte, error) {
	aesgcm, err := newGCM(key)
	if err != nil {
		return nil, err
	}

	nonce, err := common.GenerateRandBytes(NonceSize)
	if err != nil {
		return nil, err
	}

	// Seal appends the tag after the ciphertext; the blob stores it first.
	sealed := aesgcm.Seal(nil, nonce, plaintext, nil)
	ctLen := len(sealed) - TagSize

	blob := make([]byte, 0, MinBlobSize+ctLen)
	blob = append(blob, nonce...)
	blob = append(blob, sealed[ctLen:]...)
	blob = append(blob, sealed[:ctLen]...)
	return blob, nil
}

// OpenBytes verifies and decrypts a raw blob produced by SealBytes. A blob
// shorter than MinBlobSize is ErrMalformed; any tag mismatch is
// ErrAuthFailure and no plaintext is returned.
func OpenBytes(blob, key []byte) ([]byte, error) {
	aesgcm, err := newGCM(key)
	if err != nil {
		return nil, err
	}
	if len(blob) < MinBlobSize {
		return nil, fmt.Errorf("%w: %d bytes, need at least %d", ErrMalformed, len(blob), MinBlobSize)
	}

	nonce := blob[:NonceSize]
	tag := blob[NonceSize:MinBlobSize]
	ciphertext := blob[MinBlobSize:]

	sealed := make([]byte, 0, len(ciphertext)+TagSize)
	sealed = append(sealed, ciphertext...)
	sealed = append(sealed, tag...)

	plaintext, err := aesgcm.Open(nil, nonce, sealed, nil)
	if err != nil {
		return nil, ErrAuthFailure
	}
	return plaintext, nil
}

// Seal is SealBytes followed by base64 encoding, the form stored in the
// encrypted_password column.
func Seal(plaintext, key []byte) (string, error) {
	blob, err := SealBytes(plaintext, key)
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(blob), nil
}

// Open decodes a base64 blob and opens it with OpenBytes.
func Open(encoded string, key []byte) ([]byte, error) {
	blob, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformed, err)
	}
	return OpenBytes(blob, key)
}
