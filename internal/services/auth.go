// Package services contains the vault engine's application services.
// This file defines the authenticator: master-password setup, verification,
// and the lifetime of the vault session key.
package services

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"sync"

	"github.com/cryfox/vaultcore/internal/common"
	"github.com/cryfox/vaultcore/internal/kdf"
	"github.com/cryfox/vaultcore/internal/logging"
	"github.com/cryfox/vaultcore/internal/models"
	"github.com/cryfox/vaultcore/internal/repositories/authrecord"
	"github.com/google/uuid"
)

// AuthService owns the AuthRecord and the session.
//
// Contract:
//   - IsSetup: true iff an AuthRecord is loaded.
//   - SetupMasterPassword: create and persist a new record. Any open session
//     is signed out; the call never unlocks.
//   - VerifyMasterPassword: a wrong password (or no record) is (false, nil),
//     never an error.
//   - SignOut: wipe and drop the session key.
//   - SessionKey: a copy of the key, nil while locked.
type AuthService interface {
	IsSetup() bool
	State() models.State
	LoadErr() error
	SetupMasterPassword(ctx context.Context, password []byte) error
	VerifyMasterPassword(ctx context.Context, password []byte) (bool, error)
	SignOut()
	SessionKeyProvider
	SessionID() string
}

// AuthOption configures an authenticator.
type AuthOption func(*authService)

// WithParams overrides the KDF cost parameters.
func WithParams(p kdf.Params) AuthOption {
	return func(a *authService) { a.params = p }
}

// WithUniformTiming makes VerifyMasterPassword run a throwaway derivation
// when no record is set up, so "no record" and "wrong password" take
// comparable time.
func WithUniformTiming(on bool) AuthOption {
	return func(a *authService) { a.uniformTiming = on }
}

type authService struct {
	store authrecord.Repository
	log   logging.Logger

	params        kdf.Params
	uniformTiming bool

	mu         sync.Mutex
	record     *models.AuthRecord
	loadErr    error
	sessionKey []byte
	sessionID  string
}

// NewAuthenticator builds an AuthService and loads the persisted record.
// An absent, malformed or unreadable record leaves the authenticator
// uninitialized; the cause is logged and kept for LoadErr.
func NewAuthenticator(ctx context.Context, store authrecord.Repository, log logging.Logger, opts ...AuthOption) AuthService {
	a := &authService{
		store:  store,
		log:    log.With("component", "auth"),
		params: kdf.DefaultParams(),
	}
	for _, opt := range opts {
		opt(a)
	}
	a.load(ctx)
	return a
}

func (a *authService) load(ctx context.Context) {
	rec, err := a.store.Load(ctx)
	switch {
	case err == nil:
		a.record = rec
		a.log.Debug(ctx, "auth record loaded")
	case errors.Is(err, common.ErrRecordAbsent):
		a.log.Info(ctx, "no auth record, master password not set up")
	case errors.Is(err, common.ErrRecordMalformed):
		a.log.Warn(ctx, "auth record is malformed, treating as not set up", "error", err)
	default:
		a.log.Error(ctx, "failed to load auth record, treating as not set up", "error", err)
	}
	a.loadErr = err
}

func (a *authService) IsSetup() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.record != nil
}

func (a *authService) State() models.State {
	a.mu.Lock()
	defer a.mu.Unlock()
	switch {
	case a.record == nil:
		return models.StateUninitialized
	case a.sessionKey == nil:
		return models.StateLocked
	default:
		return models.StateUnlocked
	}
}

// LoadErr returns the error from the initial load, nil if a record was found.
func (a *authService) LoadErr() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.loadErr
}

func (a *authService) SetupMasterPassword(ctx context.Context, password []byte) error {
	salt, err := common.GenerateRandBytes(kdf.SaltSize)
	if err != nil {
		return fmt.Errorf("%w: salt generation: %w", common.ErrCryptoFailure, err)
	}

	hash, err := kdf.DeriveWith(a.params, password, salt, kdf.PurposeAuth)
	if err != nil {
		return fmt.Errorf("%w: %w", common.ErrCryptoFailure, err)
	}

	rec := &models.AuthRecord{Hash: hash, Salt: salt}
	if err := a.store.Save(ctx, rec); err != nil {
		return fmt.Errorf("%w: %w", common.ErrStorageFailure, err)
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	if a.sessionKey != nil {
		a.log.Info(ctx, "master password replaced, closing session", "session", a.sessionID)
		a.dropSessionLocked()
	}
	a.record = rec
	a.loadErr = nil
	a.log.Info(ctx, "master password set up")
	return nil
}

func (a *authService) VerifyMasterPassword(ctx context.Context, password []byte) (bool, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.record == nil {
		if a.uniformTiming {
			a.dummyDerive(password)
		}
		return false, nil
	}

	candidate, err := kdf.DeriveWith(a.params, password, a.record.Salt, kdf.PurposeAuth)
	if err != nil {
		return false, fmt.Errorf("%w: %w", common.ErrCryptoFailure, err)
	}
	defer common.WipeByteArray(candidate)

	if subtle.ConstantTimeCompare(candidate, a.record.Hash) != 1 {
		a.log.Info(ctx, "master password rejected")
		return false, nil
	}

	key, err := kdf.DeriveWith(a.params, password, a.record.Salt, kdf.PurposeVault)
	if err != nil {
		return false, fmt.Errorf("%w: %w", common.ErrCryptoFailure, err)
	}

	a.dropSessionLocked()
	a.sessionKey = key
	a.sessionID = uuid.NewString()
	a.log.Info(ctx, "vault unlocked", "session", a.sessionID)
	return true, nil
}

func (a *authService) dummyDerive(password []byte) {
	salt, err := common.GenerateRandBytes(kdf.SaltSize)
	if err != nil {
		return
	}
	if out, err := kdf.DeriveWith(a.params, password, salt, kdf.PurposeAuth); err == nil {
		common.WipeByteArray(out)
	}
}

func (a *authService) SignOut() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.sessionKey != nil {
		a.log.Info(context.Background(), "signed out", "session", a.sessionID)
	}
	a.dropSessionLocked()
}

func (a *authService) dropSessionLocked() {
	common.WipeByteArray(a.sessionKey)
	a.sessionKey = nil
	a.sessionID = ""
}

func (a *authService) IsAuthenticated() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.sessionKey != nil
}

func (a *authService) SessionKey() []byte {
	a.mu.Lock()
	defer a.mu.Unlock()
	return common.CloneBytes(a.sessionKey)
}

// SessionID identifies the current session in logs. Empty while locked.
func (a *authService) SessionID() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.sessionID
}
