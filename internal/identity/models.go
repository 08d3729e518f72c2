package identity

import "time"

// Session is an identity service login.
type Session struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	UserID       string    `json:"user_id,omitempty"`
	UserEmail    string    `json:"user_email,omitempty"`
	ExpiresAt    time.Time `json:"expires_at,omitzero"`
}

// Expired reports whether the session has a known expiry at or before now.
func (s *Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.IsZero() && !now.Before(s.ExpiresAt)
}

// AuthResponse is the result of sign-up, sign-in and refresh. Success is
// false when the service accepted the request but returned no access token,
// e.g. a sign-up that still awaits email confirmation.
type AuthResponse struct {
	Session Session
	Success bool
}
