package models

import "time"

// DecryptStatus tells an undecryptable password apart from an empty one.
type DecryptStatus int

const (
	// DecryptOK means Password holds the decrypted value.
	DecryptOK DecryptStatus = iota
	// DecryptEmpty means the blob decrypted to an empty password.
	DecryptEmpty
	// DecryptFailed means the blob could not be opened with the session key
	// (wrong key, tampered tag or malformed blob). Password is left empty.
	DecryptFailed
)

func (s DecryptStatus) String() string {
	switch s {
	case DecryptOK:
		return "ok"
	case DecryptEmpty:
		return "empty"
	case DecryptFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// CredentialEntry is a stored site credential as seen by vault callers.
type CredentialEntry struct {
	// ID is assigned by the store on insertion; zero before that.
	ID       int64
	URL      string
	Username string
	// Password is the plaintext; it is never persisted as such.
	Password string
	// LastModified has second precision.
	LastModified time.Time
	Status       DecryptStatus
}

// StoredCredential is one row of the passwords table. EncryptedPassword is
// the base64 AEAD blob.
type StoredCredential struct {
	ID                int64
	URL               string
	Username          string
	EncryptedPassword string
	LastModified      int64
}
