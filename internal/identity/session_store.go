package identity

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/cryfox/vaultcore/internal/filex"
)

// ErrNoSession means no identity session is stored.
var ErrNoSession = errors.New("no identity session, sign in first")

// SessionStore keeps the identity session between CLI invocations.
type SessionStore struct {
	path string
}

// NewSessionStore returns a store backed by the file at path.
func NewSessionStore(path string) *SessionStore {
	return &SessionStore{path: path}
}

// Load returns the stored session or ErrNoSession.
func (s *SessionStore) Load() (*Session, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrNoSession
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read session: %w", err)
	}

	var sess Session
	if err := json.Unmarshal(data, &sess); err != nil {
		return nil, fmt.Errorf("failed to decode session: %w", err)
	}
	if sess.AccessToken == "" {
		return nil, ErrNoSession
	}
	return &sess, nil
}

// Save writes sess with owner-only permissions.
func (s *SessionStore) Save(sess *Session) error {
	data, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("failed to encode session: %w", err)
	}
	if err := filex.EnsurePrivateDir(filepath.Dir(s.path)); err != nil {
		return err
	}
	return filex.AtomicWriteFile(s.path, data, 0o600)
}

// Clear removes the stored session. A missing file is not an error.
func (s *SessionStore) Clear() error {
	if err := os.Remove(s.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to remove session: %w", err)
	}
	return nil
}
