// Package kdf turns a master password into fixed-length key material with
// Argon2id.
//
// The purpose label is passed as Argon2 associated data, not mixed into the
// salt. An empty purpose yields the authentication hash; PurposeVault yields
// the vault session key. Both come from the same password and salt but are
// cryptographically independent, and neither can be computed from the other.
package kdf

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/argon2"
)

const (
	// Version is the Argon2 version tag (1.3).
	Version = 0x13

	KeySize  = 32
	SaltSize = 16
)

// Purpose labels used for domain separation.
var (
	PurposeAuth  []byte
	PurposeVault = []byte("vault")
)

// ErrInvalidParams is returned for cost parameters or inputs Argon2 cannot
// work with.
var ErrInvalidParams = errors.New("kdf: invalid parameters")

// Params are the Argon2id cost parameters. Memory is in KiB.
type Params struct {
	Time    uint32
	Memory  uint32
	Threads uint8
	KeyLen  uint32
}

// DefaultParams returns the fixed production cost: 3 passes, 64 MiB, one lane,
// 32-byte output.
func DefaultParams() Params {
	return Params{Time: 3, Memory: 64 * 1024, Threads: 1, KeyLen: KeySize}
}

// Validate reports whether p can be used for a derivation.
func (p Params) Validate() error {
	switch {
	case p.Time < 1:
		return fmt.Errorf("%w: time must be at least 1", ErrInvalidParams)
	case p.Threads < 1:
		return fmt.Errorf("%w: threads must be at least 1", ErrInvalidParams)
	case p.Memory < 8*uint32(p.Threads):
		return fmt.Errorf("%w: memory must be at least 8*threads KiB", ErrInvalidParams)
	case p.KeyLen < 4:
		return fmt.Errorf("%w: key length must be at least 4", ErrInvalidParams)
	}
	return nil
}

// Derive computes Argon2id(password, salt, ad=purpose) with DefaultParams.
func Derive(password, salt, purpose []byte) ([]byte, error) {
	return DeriveWith(DefaultParams(), password, salt, purpose)
}

// DeriveWith is Derive with explicit cost parameters. The output is
// deterministic for identical inputs.
func DeriveWith(p Params, password, salt, purpose []byte) ([]byte, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if len(salt) != SaltSize {
		return nil, fmt.Errorf("%w: salt must be %d bytes, got %d", ErrInvalidParams, SaltSize, len(salt))
	}

	// argon2.IDKey is assembly-accelerated but has no associated-data input,
	// so it only serves the empty purpose. Both paths agree on that input.
	if len(purpose) == 0 {
		return argon2.IDKey(password, salt, p.Time, p.Memory, p.Threads, p.KeyLen), nil
	}
	return idKey(password, salt, nil, purpose, p.Time, p.Memory, p.Threads, p.KeyLen), nil
}
