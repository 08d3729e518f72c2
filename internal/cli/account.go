package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cryfox/vaultcore/internal/common"
	"github.com/cryfox/vaultcore/internal/identity"
)

func (a *App) identityClient() (identity.Client, error) {
	return newIdentityClient(a.cfg)
}

func (a *App) readCredentials() (string, []byte, error) {
	email, err := GetSimpleText(a.in, "Email", a.out)
	if err != nil {
		return "", nil, err
	}
	if email == "" {
		return "", nil, errors.New("email is required")
	}
	password, err := a.readSecret("Account password")
	if err != nil {
		return "", nil, err
	}
	return email, password, nil
}

// SignUp registers an account. The service may hold the session back until
// the address is confirmed.
func (a *App) SignUp(ctx context.Context) error {
	client, err := a.identityClient()
	if err != nil {
		return err
	}
	email, password, err := a.readCredentials()
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	resp, err := client.SignUp(ctx, email, string(password))
	if err != nil {
		return err
	}
	if !resp.Success {
		a.printf("Account created. Confirm the address sent to %s, then sign in.\n", email)
		return nil
	}
	return a.keepSession(ctx, &resp.Session, "Signed up")
}

// SignIn opens an identity session and stores it.
func (a *App) SignIn(ctx context.Context) error {
	client, err := a.identityClient()
	if err != nil {
		return err
	}
	email, password, err := a.readCredentials()
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	resp, err := client.SignIn(ctx, email, string(password))
	if err != nil {
		return err
	}
	if !resp.Success {
		return fmt.Errorf("%w: sign-in returned no session", identity.ErrInvalidResponse)
	}
	return a.keepSession(ctx, &resp.Session, "Signed in")
}

// SignOutAccount ends the stored session. The local copy is removed even
// when the service call fails.
func (a *App) SignOutAccount(ctx context.Context) error {
	sess, err := a.sessions.Load()
	if err != nil {
		return err
	}
	client, err := a.identityClient()
	if err != nil {
		return err
	}

	remoteErr := client.SignOut(ctx, sess.AccessToken)
	if err := a.sessions.Clear(); err != nil {
		return err
	}
	if remoteErr != nil {
		a.log.Warn(ctx, "remote sign-out failed", "error", remoteErr)
		return remoteErr
	}
	a.printf("%s\n", okStyle.Render("Signed out."))
	return nil
}

// Refresh trades the stored refresh token for a new session.
func (a *App) Refresh(ctx context.Context) error {
	sess, err := a.sessions.Load()
	if err != nil {
		return err
	}
	client, err := a.identityClient()
	if err != nil {
		return err
	}

	resp, err := client.RefreshSession(ctx, sess.RefreshToken)
	if err != nil {
		return err
	}
	if !resp.Success {
		return fmt.Errorf("%w: refresh returned no session", identity.ErrInvalidResponse)
	}
	return a.keepSession(ctx, &resp.Session, "Session refreshed")
}

// ResetPassword asks the service to mail a reset link.
func (a *App) ResetPassword(ctx context.Context) error {
	client, err := a.identityClient()
	if err != nil {
		return err
	}
	email, err := GetSimpleText(a.in, "Email", a.out)
	if err != nil {
		return err
	}
	if email == "" {
		return errors.New("email is required")
	}
	if err := client.RequestPasswordReset(ctx, email); err != nil {
		return err
	}
	a.printf("If %s has an account, a reset link is on its way.\n", email)
	return nil
}

// AccountStatus prints the stored session, if any.
func (a *App) AccountStatus(ctx context.Context) error {
	sess, err := a.sessions.Load()
	if errors.Is(err, identity.ErrNoSession) {
		a.printf("Not signed in.\n")
		return nil
	}
	if err != nil {
		return err
	}

	a.printf("Signed in as %s (%s)\n", sess.UserEmail, sess.UserID)
	switch {
	case sess.ExpiresAt.IsZero():
	case sess.Expired(time.Now()):
		a.printf("%s\n", warnStyle.Render("Session expired, run 'account refresh'."))
	default:
		a.printf("Expires %s\n", sess.ExpiresAt.Local().Format(timeLayout))
	}
	return nil
}

func (a *App) keepSession(ctx context.Context, sess *identity.Session, what string) error {
	if err := a.sessions.Save(sess); err != nil {
		return err
	}
	a.log.Info(ctx, "identity session stored", "user_id", sess.UserID)
	a.printf("%s\n", okStyle.Render(fmt.Sprintf("%s as %s.", what, sess.UserEmail)))
	return nil
}
