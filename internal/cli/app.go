package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/atotto/clipboard"
	"github.com/cryfox/vaultcore/internal/common"
	"github.com/cryfox/vaultcore/internal/config"
	"github.com/cryfox/vaultcore/internal/cryptox"
	"github.com/cryfox/vaultcore/internal/engine"
	"github.com/cryfox/vaultcore/internal/identity"
	"github.com/cryfox/vaultcore/internal/logging"
	"github.com/cryfox/vaultcore/internal/models"
)

// Test seams.
var (
	openEngine = func(ctx context.Context, cfg *config.Config, log logging.Logger) (vaultEngine, error) {
		e, err := engine.Open(ctx, cfg, log)
		if err != nil {
			return nil, err
		}
		return e, nil
	}
	newIdentityClient = func(cfg *config.Config) (identity.Client, error) {
		s, err := config.ResolveIdentitySettings()
		if err != nil {
			return nil, err
		}
		return identity.NewHTTPClient(s.URL, s.AnonKey, cfg.IdentityTimeout), nil
	}
	clipboardWrite = clipboard.WriteAll
)

// ErrWrongPassword is reported when the master password does not verify.
var ErrWrongPassword = errors.New("wrong master password")

// vaultEngine is the part of *engine.Engine the CLI uses.
type vaultEngine interface {
	IsSetup() bool
	State() models.State
	LoadErr() error
	SetupMasterPassword(ctx context.Context, password []byte) error
	VerifyMasterPassword(ctx context.Context, password []byte) (bool, error)
	SignOut()
	IsAuthenticated() bool
	Add(ctx context.Context, e *models.CredentialEntry) error
	List(ctx context.Context) ([]models.CredentialEntry, error)
	Get(ctx context.Context, id int64) (*models.CredentialEntry, error)
	Delete(ctx context.Context, id int64) error
	DeleteMany(ctx context.Context, ids []int64) error
	Update(ctx context.Context, e *models.CredentialEntry) error
	Search(ctx context.Context, query string) ([]models.CredentialEntry, error)
	Close() error
}

// App holds what a command invocation needs.
type App struct {
	cfg      *config.Config
	log      logging.Logger
	vault    vaultEngine
	in       *bufio.Reader
	out      io.Writer
	sessions *identity.SessionStore
}

// NewApp builds an App around an open engine.
func NewApp(cfg *config.Config, log logging.Logger, vault vaultEngine, in io.Reader, out io.Writer) *App {
	return &App{
		cfg:      cfg,
		log:      log,
		vault:    vault,
		in:       bufio.NewReader(in),
		out:      out,
		sessions: identity.NewSessionStore(filepath.Join(cfg.ConfigDir, "session.json")),
	}
}

// Close releases the engine, if one was opened.
func (a *App) Close() error {
	if a.vault == nil {
		return nil
	}
	return a.vault.Close()
}

func (a *App) printf(format string, args ...any) {
	fmt.Fprintf(a.out, format, args...)
}

func (a *App) isUnlocked() bool {
	return a.vault.IsAuthenticated()
}

// Unlock asks for the master password and opens a session.
func (a *App) Unlock(ctx context.Context) error {
	if !a.vault.IsSetup() {
		return fmt.Errorf("no master password set up, run 'setup' first")
	}

	password, err := a.readSecret("Master password")
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	ok, err := a.vault.VerifyMasterPassword(ctx, password)
	if err != nil {
		return err
	}
	if !ok {
		return ErrWrongPassword
	}
	return nil
}

// Lock closes the session.
func (a *App) Lock(ctx context.Context) error {
	a.vault.SignOut()
	a.printf("%s\n", okStyle.Render("Locked."))
	return nil
}

// describeErr turns engine errors into messages a user can act on.
func describeErr(err error) string {
	switch {
	case errors.Is(err, common.ErrNotAuthenticated):
		return "vault is locked, unlock it first"
	case errors.Is(err, common.ErrNotFound):
		return "no such entry"
	case errors.Is(err, cryptox.ErrAuthFailure), errors.Is(err, cryptox.ErrMalformed):
		return "entry cannot be decrypted with this master password"
	case errors.Is(err, common.ErrCryptoFailure):
		return "cryptographic operation failed: " + err.Error()
	}
	return err.Error()
}

// waitAndClear blocks for d, then clears the clipboard. It returns early,
// still clearing, when ctx is done.
func waitAndClear(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
	case <-ctx.Done():
	}
	return clipboardWrite("")
}
