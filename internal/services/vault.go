package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cryfox/vaultcore/internal/common"
	"github.com/cryfox/vaultcore/internal/cryptox"
	"github.com/cryfox/vaultcore/internal/logging"
	"github.com/cryfox/vaultcore/internal/models"
	"github.com/cryfox/vaultcore/internal/repositories/passwords"
)

// SessionKeyProvider lends the vault the current session key.
type SessionKeyProvider interface {
	IsAuthenticated() bool
	// SessionKey returns a copy the caller may wipe, or nil when locked.
	SessionKey() []byte
}

// VaultService manages stored credentials. Every method fails with
// common.ErrNotAuthenticated before touching storage when no session is open.
type VaultService interface {
	Add(ctx context.Context, e *models.CredentialEntry) error
	List(ctx context.Context) ([]models.CredentialEntry, error)
	Get(ctx context.Context, id int64) (*models.CredentialEntry, error)
	Delete(ctx context.Context, id int64) error
	Update(ctx context.Context, e *models.CredentialEntry) error
	Search(ctx context.Context, query string) ([]models.CredentialEntry, error)
}

// VaultOption configures a vault service.
type VaultOption func(*vaultService)

// WithClock replaces time.Now for last_modified stamps.
func WithClock(now func() time.Time) VaultOption {
	return func(v *vaultService) { v.now = now }
}

type vaultService struct {
	keys SessionKeyProvider
	repo passwords.Repository
	log  logging.Logger
	now  func() time.Time
}

// NewVaultService constructs a VaultService over repo, borrowing keys from keys.
func NewVaultService(keys SessionKeyProvider, repo passwords.Repository, log logging.Logger, opts ...VaultOption) VaultService {
	v := &vaultService{
		keys: keys,
		repo: repo,
		log:  log.With("component", "vault"),
		now:  time.Now,
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// sessionKey returns a key copy the caller must wipe.
func (v *vaultService) sessionKey() ([]byte, error) {
	if !v.keys.IsAuthenticated() {
		return nil, common.ErrNotAuthenticated
	}
	key := v.keys.SessionKey()
	if key == nil {
		return nil, common.ErrNotAuthenticated
	}
	return key, nil
}

func (v *vaultService) seal(password string, key []byte) (string, error) {
	blob, err := cryptox.Seal([]byte(password), key)
	if err != nil {
		return "", fmt.Errorf("%w: %w", common.ErrCryptoFailure, err)
	}
	return blob, nil
}

// Add encrypts e.Password and stores a new row. On success e.ID and
// e.LastModified are set.
func (v *vaultService) Add(ctx context.Context, e *models.CredentialEntry) error {
	key, err := v.sessionKey()
	if err != nil {
		return err
	}
	defer common.WipeByteArray(key)

	blob, err := v.seal(e.Password, key)
	if err != nil {
		return err
	}

	ts := v.now().Unix()
	id, err := v.repo.Insert(ctx, &models.StoredCredential{
		URL:               e.URL,
		Username:          e.Username,
		EncryptedPassword: blob,
		LastModified:      ts,
	})
	if err != nil {
		return fmt.Errorf("%w: %w", common.ErrStorageFailure, err)
	}

	e.ID = id
	e.LastModified = time.Unix(ts, 0)
	e.Status = statusFor(e.Password)
	v.log.Debug(ctx, "entry added", "id", id)
	return nil
}

// List returns every entry ordered by url. Rows that cannot be decrypted are
// still returned, with Status set to models.DecryptFailed.
func (v *vaultService) List(ctx context.Context) ([]models.CredentialEntry, error) {
	key, err := v.sessionKey()
	if err != nil {
		return nil, err
	}
	defer common.WipeByteArray(key)

	rows, err := v.repo.GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", common.ErrStorageFailure, err)
	}
	return v.decryptAll(ctx, rows, key), nil
}

func (v *vaultService) decryptAll(ctx context.Context, rows []models.StoredCredential, key []byte) []models.CredentialEntry {
	out := make([]models.CredentialEntry, 0, len(rows))
	failed := 0
	for i := range rows {
		e, err := decrypt(&rows[i], key)
		if err != nil {
			failed++
			v.log.Warn(ctx, "entry could not be decrypted", "id", rows[i].ID, "error", err)
		}
		out = append(out, *e)
	}
	if failed > 0 {
		v.log.Warn(ctx, "some entries could not be decrypted", "failed", failed, "total", len(rows))
	}
	return out
}

// Get returns a single entry. Unlike List, a decryption failure is an error.
func (v *vaultService) Get(ctx context.Context, id int64) (*models.CredentialEntry, error) {
	key, err := v.sessionKey()
	if err != nil {
		return nil, err
	}
	defer common.WipeByteArray(key)

	row, err := v.repo.GetByID(ctx, id)
	if errors.Is(err, common.ErrNotFound) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %w", common.ErrStorageFailure, err)
	}

	e, err := decrypt(row, key)
	if err != nil {
		return nil, fmt.Errorf("%w: entry %d: %w", common.ErrCryptoFailure, id, err)
	}
	return e, nil
}

// Delete removes the entry; a missing id is not an error.
func (v *vaultService) Delete(ctx context.Context, id int64) error {
	if !v.keys.IsAuthenticated() {
		return common.ErrNotAuthenticated
	}
	if err := v.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("%w: %w", common.ErrStorageFailure, err)
	}
	v.log.Debug(ctx, "entry deleted", "id", id)
	return nil
}

// Update re-encrypts e.Password and rewrites url, username and
// last_modified of row e.ID. A missing row is common.ErrNotFound.
func (v *vaultService) Update(ctx context.Context, e *models.CredentialEntry) error {
	key, err := v.sessionKey()
	if err != nil {
		return err
	}
	defer common.WipeByteArray(key)

	blob, err := v.seal(e.Password, key)
	if err != nil {
		return err
	}

	ts := v.now().Unix()
	err = v.repo.Update(ctx, &models.StoredCredential{
		ID:                e.ID,
		URL:               e.URL,
		Username:          e.Username,
		EncryptedPassword: blob,
		LastModified:      ts,
	})
	if errors.Is(err, common.ErrNotFound) {
		return err
	}
	if err != nil {
		return fmt.Errorf("%w: %w", common.ErrStorageFailure, err)
	}

	e.LastModified = time.Unix(ts, 0)
	e.Status = statusFor(e.Password)
	v.log.Debug(ctx, "entry updated", "id", e.ID)
	return nil
}

// Search returns the entries whose url or username contains query, ignoring
// case. The query is matched as given, spaces included; an empty query
// matches everything.
func (v *vaultService) Search(ctx context.Context, query string) ([]models.CredentialEntry, error) {
	key, err := v.sessionKey()
	if err != nil {
		return nil, err
	}
	defer common.WipeByteArray(key)

	rows, err := v.repo.GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", common.ErrStorageFailure, err)
	}

	needle := foldCase(query)
	matched := rows[:0]
	for _, r := range rows {
		if strings.Contains(foldCase(r.URL), needle) || strings.Contains(foldCase(r.Username), needle) {
			matched = append(matched, r)
		}
	}
	return v.decryptAll(ctx, matched, key), nil
}

// foldCase maps s to a form where Unicode case variants compare equal.
func foldCase(s string) string {
	return strings.ToLower(strings.ToUpper(s))
}

func decrypt(row *models.StoredCredential, key []byte) (*models.CredentialEntry, error) {
	e := &models.CredentialEntry{
		ID:           row.ID,
		URL:          row.URL,
		Username:     row.Username,
		LastModified: time.Unix(row.LastModified, 0),
	}
	plain, err := cryptox.Open(row.EncryptedPassword, key)
	if err != nil {
		e.Status = models.DecryptFailed
		return e, err
	}
	e.Password = string(plain)
	e.Status = statusFor(e.Password)
	common.WipeByteArray(plain)
	return e, nil
}

func statusFor(password string) models.DecryptStatus {
	if password == "" {
		return models.DecryptEmpty
	}
	return models.DecryptOK
}
