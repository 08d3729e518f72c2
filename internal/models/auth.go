// Package models defines the data carried between the authenticator, the
// vault store and their persistence layers.
package models

// AuthRecord is the persisted proof that a master password was set up.
// Hash is KDF(password, Salt, "") and Salt is 16 random bytes.
type AuthRecord struct {
	Hash []byte
	Salt []byte
}

// State is the authenticator lifecycle state.
type State int

const (
	// StateUninitialized means no auth record is loaded.
	StateUninitialized State = iota
	// StateLocked means a record exists but no session key is held.
	StateLocked
	// StateUnlocked means a session key is held.
	StateUnlocked
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateLocked:
		return "locked"
	case StateUnlocked:
		return "unlocked"
	default:
		return "unknown"
	}
}
