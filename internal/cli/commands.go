package cli

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/cryfox/vaultcore/internal/common"
	"github.com/cryfox/vaultcore/internal/models"
)

// ErrEmptyPassword is returned when a master password is left blank.
var ErrEmptyPassword = errors.New("master password must not be empty")

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid entry id %q", s)
	}
	return id, nil
}

// Setup creates or replaces the master password. Replacing one leaves
// existing entries undecryptable, so it asks first.
func (a *App) Setup(ctx context.Context) error {
	if a.vault.IsSetup() {
		ok, err := Confirm(a.in, "A master password already exists. Entries sealed with it will become unreadable. Replace it?", a.out)
		if err != nil {
			return err
		}
		if !ok {
			a.printf("Aborted.\n")
			return nil
		}
	}

	password, err := a.readNewSecret("Master password")
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)
	if len(password) == 0 {
		return ErrEmptyPassword
	}

	if err := a.vault.SetupMasterPassword(ctx, password); err != nil {
		return err
	}
	a.log.Info(ctx, "master password set up")
	a.printf("%s\n", okStyle.Render("Master password set."))
	return nil
}

// Status prints the authenticator state and where things live.
func (a *App) Status(ctx context.Context) error {
	a.printf("State:    %s\n", a.vault.State())
	if err := a.vault.LoadErr(); err != nil {
		a.printf("Warning:  %s\n", warnStyle.Render(err.Error()))
	}
	a.printf("Auth:     %s\n", a.cfg.AuthPath())
	a.printf("Database: %s\n", a.cfg.DBPath())

	if sess, err := a.sessions.Load(); err == nil {
		a.printf("Account:  %s\n", sess.UserEmail)
	}
	return nil
}

// Add stores a new entry. Missing values are prompted for; the username
// prompt is skipped when askUsername is false.
func (a *App) Add(ctx context.Context, url, username string, askUsername bool) error {
	var err error
	if url == "" {
		if url, err = GetSimpleText(a.in, "URL", a.out); err != nil {
			return err
		}
	}
	if url == "" {
		return errors.New("url is required")
	}
	if askUsername {
		if username, err = GetSimpleText(a.in, "Username (optional)", a.out); err != nil {
			return err
		}
	}

	password, err := a.readSecret("Password")
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	e := &models.CredentialEntry{URL: url, Username: username, Password: string(password)}
	if err := a.vault.Add(ctx, e); err != nil {
		return err
	}
	a.printf("%s\n", okStyle.Render(fmt.Sprintf("Added entry %d.", e.ID)))
	return nil
}

// List prints every entry.
func (a *App) List(ctx context.Context, show bool) error {
	entries, err := a.vault.List(ctx)
	if err != nil {
		return err
	}
	a.printf("%s\n", renderEntries(entries, show))
	return nil
}

// Get prints one entry.
func (a *App) Get(ctx context.Context, id int64, show bool) error {
	e, err := a.vault.Get(ctx, id)
	if err != nil {
		return err
	}
	a.printf("%s\n", renderEntry(*e, show))
	return nil
}

// Search prints entries whose url or username contains query.
func (a *App) Search(ctx context.Context, query string, show bool) error {
	entries, err := a.vault.Search(ctx, query)
	if err != nil {
		return err
	}
	a.printf("%s\n", renderEntries(entries, show))
	return nil
}

// Update rewrites an entry. With both url and username nil it prompts for
// each, keeping the current value on an empty answer. A blank password keeps
// the current one unless it cannot be decrypted.
func (a *App) Update(ctx context.Context, id int64, url, username *string) error {
	entries, err := a.vault.List(ctx)
	if err != nil {
		return err
	}
	var cur *models.CredentialEntry
	for i := range entries {
		if entries[i].ID == id {
			cur = &entries[i]
			break
		}
	}
	if cur == nil {
		return fmt.Errorf("entry %d: %w", id, common.ErrNotFound)
	}

	if url == nil && username == nil {
		u, err := GetSimpleText(a.in, fmt.Sprintf("URL [%s]", cur.URL), a.out)
		if err != nil {
			return err
		}
		if u != "" {
			cur.URL = u
		}
		n, err := GetSimpleText(a.in, fmt.Sprintf("Username [%s]", cur.Username), a.out)
		if err != nil {
			return err
		}
		if n != "" {
			cur.Username = n
		}
	} else {
		if url != nil {
			if *url == "" {
				return errors.New("url is required")
			}
			cur.URL = *url
		}
		if username != nil {
			cur.Username = *username
		}
	}

	password, err := a.readSecret("New password (blank keeps current)")
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)
	switch {
	case len(password) > 0:
		cur.Password = string(password)
	case cur.Status == models.DecryptFailed:
		return errors.New("current password cannot be decrypted, enter a new one")
	}

	if err := a.vault.Update(ctx, cur); err != nil {
		return err
	}
	a.printf("%s\n", okStyle.Render(fmt.Sprintf("Updated entry %d.", id)))
	return nil
}

// Delete removes entries, asking first unless force is set. Several ids are
// removed together or not at all.
func (a *App) Delete(ctx context.Context, ids []int64, force bool) error {
	if len(ids) == 0 {
		return errors.New("no entry id given")
	}

	label := "entry " + joinIDs(ids)
	if len(ids) > 1 {
		label = "entries " + joinIDs(ids)
	}

	if !force {
		ok, err := Confirm(a.in, fmt.Sprintf("Delete %s?", label), a.out)
		if err != nil {
			return err
		}
		if !ok {
			a.printf("Aborted.\n")
			return nil
		}
	}

	var err error
	if len(ids) == 1 {
		err = a.vault.Delete(ctx, ids[0])
	} else {
		err = a.vault.DeleteMany(ctx, ids)
	}
	if err != nil {
		return err
	}
	a.printf("%s\n", okStyle.Render(fmt.Sprintf("Deleted %s.", label)))
	return nil
}

func joinIDs(ids []int64) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.FormatInt(id, 10)
	}
	return strings.Join(parts, ", ")
}

func parseIDs(args []string) ([]int64, error) {
	ids := make([]int64, 0, len(args))
	for _, s := range args {
		id, err := parseID(s)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// Copy puts an entry's password on the clipboard and, when a clear delay is
// configured, blocks until it has been wiped again.
func (a *App) Copy(ctx context.Context, id int64) error {
	e, err := a.vault.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := clipboardWrite(e.Password); err != nil {
		return fmt.Errorf("failed to write clipboard: %w", err)
	}

	d := a.cfg.ClipboardClearAfter
	if d <= 0 {
		a.printf("Password copied to clipboard.\n")
		return nil
	}
	a.printf("Password copied to clipboard. Clearing in %s...\n", d)
	if err := waitAndClear(ctx, d); err != nil {
		return fmt.Errorf("failed to clear clipboard: %w", err)
	}
	a.printf("Clipboard cleared.\n")
	return nil
}
