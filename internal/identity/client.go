package identity

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// defaultExpiresIn applies when expires_in is present but unreadable.
const defaultExpiresIn = 3600

// Client is the identity service API.
type Client interface {
	SignUp(ctx context.Context, email, password string) (*AuthResponse, error)
	SignIn(ctx context.Context, email, password string) (*AuthResponse, error)
	SignOut(ctx context.Context, accessToken string) error
	RefreshSession(ctx context.Context, refreshToken string) (*AuthResponse, error)
	RequestPasswordReset(ctx context.Context, email string) error
}

// Option configures an HTTPClient.
type Option func(*HTTPClient)

// WithHTTPClient replaces the underlying *http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *HTTPClient) { c.http = hc }
}

// WithClock replaces time.Now for expiry computation.
func WithClock(now func() time.Time) Option {
	return func(c *HTTPClient) { c.now = now }
}

// HTTPClient implements Client over HTTP+JSON.
type HTTPClient struct {
	baseURL string
	apiKey  string
	http    *http.Client
	now     func() time.Time
}

// NewHTTPClient returns a client for the service at baseURL using apiKey.
func NewHTTPClient(baseURL, apiKey string, timeout time.Duration, opts ...Option) *HTTPClient {
	c := &HTTPClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		http:    &http.Client{Timeout: timeout},
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// authReply is the success body of signup and token endpoints.
type authReply struct {
	AccessToken  string          `json:"access_token"`
	RefreshToken string          `json:"refresh_token"`
	ExpiresIn    json.RawMessage `json:"expires_in"`
	User         *struct {
		ID    string `json:"id"`
		Email string `json:"email"`
	} `json:"user"`
}

func (c *HTTPClient) SignUp(ctx context.Context, email, password string) (*AuthResponse, error) {
	data, err := c.do(ctx, "/signup", credentials{Email: email, Password: password}, "")
	if err != nil {
		return nil, err
	}
	return c.toResponse(data)
}

func (c *HTTPClient) SignIn(ctx context.Context, email, password string) (*AuthResponse, error) {
	data, err := c.do(ctx, "/token?grant_type=password", credentials{Email: email, Password: password}, "")
	if err != nil {
		return nil, err
	}
	return c.toResponse(data)
}

func (c *HTTPClient) SignOut(ctx context.Context, accessToken string) error {
	_, err := c.do(ctx, "/logout", struct{}{}, accessToken)
	return err
}

func (c *HTTPClient) RefreshSession(ctx context.Context, refreshToken string) (*AuthResponse, error) {
	body := struct {
		RefreshToken string `json:"refresh_token"`
	}{RefreshToken: refreshToken}

	data, err := c.do(ctx, "/token?grant_type=refresh_token", body, "")
	if err != nil {
		return nil, err
	}
	return c.toResponse(data)
}

func (c *HTTPClient) RequestPasswordReset(ctx context.Context, email string) error {
	body := struct {
		Email string `json:"email"`
	}{Email: email}

	_, err := c.do(ctx, "/recover", body, "")
	return err
}

// do posts body to endpoint and returns the reply, which is known to be a
// JSON object.
func (c *HTTPClient) do(ctx context.Context, endpoint string, body any, bearer string) ([]byte, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/auth/v1"+endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("apikey", c.apiKey)
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("identity service request failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read identity service reply: %w", err)
	}

	var obj map[string]json.RawMessage
	if err := json.Unmarshal(data, &obj); err != nil || obj == nil {
		if resp.StatusCode >= http.StatusBadRequest {
			return nil, &RemoteServiceError{Status: resp.StatusCode, Message: genericErrorMessage}
		}
		return nil, ErrInvalidResponse
	}

	if resp.StatusCode >= http.StatusBadRequest {
		return nil, &RemoteServiceError{Status: resp.StatusCode, Message: errorMessage(obj)}
	}
	return data, nil
}

func errorMessage(obj map[string]json.RawMessage) string {
	for _, key := range []string{"error_description", "msg"} {
		var s string
		if raw, ok := obj[key]; ok && json.Unmarshal(raw, &s) == nil && s != "" {
			return s
		}
	}
	return genericErrorMessage
}

func (c *HTTPClient) toResponse(data []byte) (*AuthResponse, error) {
	var (
		fields map[string]json.RawMessage
		r      authReply
	)
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidResponse, err)
	}
	if _, ok := fields["access_token"]; !ok {
		return &AuthResponse{}, nil
	}
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidResponse, err)
	}

	s := Session{AccessToken: r.AccessToken, RefreshToken: r.RefreshToken}
	if r.User != nil {
		s.UserID = r.User.ID
		s.UserEmail = r.User.Email
	}

	claims := tokenClaims(r.AccessToken)
	if s.UserID == "" {
		s.UserID = claims.Subject
	}
	if s.UserEmail == "" {
		s.UserEmail = claims.Email
	}

	switch {
	case len(r.ExpiresIn) > 0:
		s.ExpiresAt = c.now().Add(time.Duration(parseExpiresIn(r.ExpiresIn)) * time.Second)
	case claims.ExpiresAt != nil:
		s.ExpiresAt = claims.ExpiresAt.Time
	}

	return &AuthResponse{Session: s, Success: true}, nil
}

func parseExpiresIn(raw json.RawMessage) uint32 {
	text := strings.Trim(string(raw), `"`)
	n, err := strconv.ParseUint(text, 10, 32)
	if err != nil {
		return defaultExpiresIn
	}
	return uint32(n)
}

type accessClaims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// tokenClaims reads claims from an access token without verifying it. An
// unparsable token yields empty claims.
func tokenClaims(token string) accessClaims {
	var claims accessClaims
	if token == "" {
		return claims
	}
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return accessClaims{}
	}
	return claims
}
