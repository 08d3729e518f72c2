// Package engine wires the authenticator and the vault store into one
// explicitly constructed object. There is no package-level state: each
// Engine owns its database handle and session, and every call is serialized
// by a single mutex so the engine can be shared between goroutines.
package engine

import (
	"context"
	"database/sql"
	"fmt"
	"sync"

	"github.com/cryfox/vaultcore/internal/common"
	"github.com/cryfox/vaultcore/internal/config"
	"github.com/cryfox/vaultcore/internal/dbx"
	"github.com/cryfox/vaultcore/internal/filex"
	"github.com/cryfox/vaultcore/internal/kdf"
	"github.com/cryfox/vaultcore/internal/logging"
	"github.com/cryfox/vaultcore/internal/models"
	"github.com/cryfox/vaultcore/internal/repositories/authrecord"
	"github.com/cryfox/vaultcore/internal/repositories/passwords"
	"github.com/cryfox/vaultcore/internal/services"
)

// Option customizes Open.
type Option func(*options)

type options struct {
	authOpts  []services.AuthOption
	vaultOpts []services.VaultOption
}

// WithKDFParams overrides the Argon2id cost. Intended for tests.
func WithKDFParams(p kdf.Params) Option {
	return func(o *options) { o.authOpts = append(o.authOpts, services.WithParams(p)) }
}

// WithVaultOptions passes options through to the vault service.
func WithVaultOptions(opts ...services.VaultOption) Option {
	return func(o *options) { o.vaultOpts = append(o.vaultOpts, opts...) }
}

// Engine is the vault core handle.
type Engine struct {
	mu        sync.Mutex
	db        *sql.DB
	auth      services.AuthService
	vault     services.VaultService
	vaultOpts []services.VaultOption
	log       logging.Logger
	closed    bool
}

// Open prepares the config directory, opens and migrates the database and
// loads the AuthRecord.
func Open(ctx context.Context, cfg *config.Config, log logging.Logger, opts ...Option) (*Engine, error) {
	var o options
	if cfg.UniformTiming {
		o.authOpts = append(o.authOpts, services.WithUniformTiming(true))
	}
	for _, opt := range opts {
		opt(&o)
	}

	if err := filex.EnsurePrivateDir(cfg.ConfigDir); err != nil {
		return nil, fmt.Errorf("%w: %w", common.ErrStorageFailure, err)
	}

	db, err := dbx.OpenSQLite(ctx, dbx.FileDSN(cfg.DBPath()), log)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", common.ErrStorageFailure, err)
	}

	auth := services.NewAuthenticator(ctx, authrecord.NewFileRepository(cfg.AuthPath()), log, o.authOpts...)
	vault := services.NewVaultService(auth, passwords.NewSQLiteRepository(db), log, o.vaultOpts...)

	log.Debug(ctx, "engine opened", "db", cfg.DBPath(), "state", auth.State().String())
	return &Engine{db: db, auth: auth, vault: vault, vaultOpts: o.vaultOpts, log: log}, nil
}

// Close signs out and closes the database. It is safe to call twice.
func (e *Engine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return nil
	}
	e.closed = true
	e.auth.SignOut()
	return e.db.Close()
}

func (e *Engine) IsSetup() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.auth.IsSetup()
}

func (e *Engine) State() models.State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.auth.State()
}

// LoadErr reports why the AuthRecord could not be loaded at Open, if it
// could not.
func (e *Engine) LoadErr() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.auth.LoadErr()
}

func (e *Engine) IsAuthenticated() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.auth.IsAuthenticated()
}

func (e *Engine) SetupMasterPassword(ctx context.Context, password []byte) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.auth.SetupMasterPassword(ctx, password)
}

func (e *Engine) VerifyMasterPassword(ctx context.Context, password []byte) (bool, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.auth.VerifyMasterPassword(ctx, password)
}

func (e *Engine) SignOut() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.auth.SignOut()
}

func (e *Engine) Add(ctx context.Context, entry *models.CredentialEntry) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.vault.Add(ctx, entry)
}

func (e *Engine) List(ctx context.Context) ([]models.CredentialEntry, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.vault.List(ctx)
}

func (e *Engine) Get(ctx context.Context, id int64) (*models.CredentialEntry, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.vault.Get(ctx, id)
}

func (e *Engine) Delete(ctx context.Context, id int64) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.vault.Delete(ctx, id)
}

// DeleteMany removes every id in one transaction: a storage failure part way
// leaves all of them in place. Missing ids are not an error.
func (e *Engine) DeleteMany(ctx context.Context, ids []int64) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.auth.IsAuthenticated() {
		return common.ErrNotAuthenticated
	}
	return dbx.WithTx(ctx, e.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		vault := services.NewVaultService(e.auth, passwords.NewSQLiteRepository(tx), e.log, e.vaultOpts...)
		for _, id := range ids {
			if err := vault.Delete(ctx, id); err != nil {
				return err
			}
		}
		return nil
	})
}

func (e *Engine) Update(ctx context.Context, entry *models.CredentialEntry) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.vault.Update(ctx, entry)
}

func (e *Engine) Search(ctx context.Context, query string) ([]models.CredentialEntry, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.vault.Search(ctx, query)
}
