package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"

	"github.com/techgaint000/SecureAccountManager/internal/model"
)

// Sign-out scopes. Global revokes every session for the user, local only the
// session behind the caller's token.
const (
	ScopeGlobal = "global"
	ScopeLocal  = "local"
)

// Client talks to the vault backend. It holds the current token pair and
// attaches the access token to every request. Safe for concurrent use.
type Client struct {
	baseURL string
	httpc   *http.Client
	cache   *TokenCache

	mu           sync.Mutex
	accessToken  string
	refreshToken string
	interceptor  *AuthErrorInterceptor
}

// NewClient builds a client for the backend at baseURL. cache may be nil
// when token persistence is not wanted (tests, short-lived commands).
func NewClient(baseURL string, cache *TokenCache) *Client {
	return &Client{
		baseURL: baseURL,
		httpc:   &http.Client{},
		cache:   cache,
	}
}

// LoadCachedTokens restores a persisted token pair, if any.
func (c *Client) LoadCachedTokens() error {
	if c.cache == nil {
		return nil
	}
	access, refresh, err := c.cache.Load()
	if err != nil {
		return err
	}
	c.mu.Lock()
	c.accessToken = access
	c.refreshToken = refresh
	c.mu.Unlock()
	return nil
}

func (c *Client) setTokens(access, refresh string) {
	c.mu.Lock()
	c.accessToken = access
	c.refreshToken = refresh
	c.mu.Unlock()
}

func (c *Client) tokens() (access, refresh string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.accessToken, c.refreshToken
}

// HasToken reports whether the client currently holds an access token.
func (c *Client) HasToken() bool {
	access, _ := c.tokens()
	return access != ""
}

// ClearLocalSession drops the in-memory token pair and removes the persisted
// token artifact.
func (c *Client) ClearLocalSession() error {
	c.setTokens("", "")
	if c.cache == nil {
		return nil
	}
	return c.cache.Remove()
}

func (c *Client) saveTokens(s *model.AuthSession) {
	c.setTokens(s.AccessToken, s.RefreshToken)
	if c.cache != nil {
		// Persistence failure must not break the live session.
		_ = c.cache.Save(s.AccessToken, s.RefreshToken)
	}
}

// do performs a JSON request against the backend. Non-2xx responses are
// returned as *APIError; out, when non-nil, receives the decoded body.
func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if access, _ := c.tokens(); access != "" {
		req.Header.Set("Authorization", "Bearer "+access)
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{Status: resp.StatusCode}
		if decodeErr := json.NewDecoder(resp.Body).Decode(apiErr); decodeErr != nil {
			apiErr.Message = resp.Status
		}
		return apiErr
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// SignUp registers a new user and starts a session.
func (c *Client) SignUp(ctx context.Context, email, password string) (*model.AuthSession, error) {
	var s model.AuthSession
	if err := c.do(ctx, http.MethodPost, "/auth/signup", credentialsRequest{Email: email, Password: password}, &s); err != nil {
		return nil, err
	}
	c.saveTokens(&s)
	return &s, nil
}

// SignInWithPassword authenticates with email and password. Bad credentials
// come back as an *APIError, not a panic.
func (c *Client) SignInWithPassword(ctx context.Context, email, password string) (*model.AuthSession, error) {
	var s model.AuthSession
	if err := c.do(ctx, http.MethodPost, "/auth/login", credentialsRequest{Email: email, Password: password}, &s); err != nil {
		return nil, err
	}
	c.saveTokens(&s)
	return &s, nil
}

// GetSession returns the current session, or (nil, nil) when the client holds
// no token or the backend no longer recognizes it. Absence of a session is a
// normal state, not an error.
func (c *Client) GetSession(ctx context.Context) (*model.AuthSession, error) {
	if !c.HasToken() {
		return nil, nil
	}
	var s model.AuthSession
	err := c.do(ctx, http.MethodGet, "/auth/session", nil, &s)
	if err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) && apiErr.Status == http.StatusUnauthorized {
			return nil, nil
		}
		return nil, err
	}
	return &s, nil
}

// GetUser fetches the authenticated user's profile.
func (c *Client) GetUser(ctx context.Context) (*model.User, error) {
	var u model.User
	if err := c.do(ctx, http.MethodGet, "/auth/user", nil, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

// Refresh exchanges the refresh token for a new token pair.
func (c *Client) Refresh(ctx context.Context) (*model.AuthSession, error) {
	_, refresh := c.tokens()
	if refresh == "" {
		return nil, &APIError{Status: http.StatusUnauthorized, Code: "invalid_refresh_token", Message: "no refresh token held"}
	}
	var s model.AuthSession
	if err := c.do(ctx, http.MethodPost, "/auth/refresh", map[string]string{"refresh_token": refresh}, &s); err != nil {
		return nil, err
	}
	c.saveTokens(&s)
	return &s, nil
}

// SignOut revokes the session server-side and, on success, clears the local
// token pair and cache artifact.
func (c *Client) SignOut(ctx context.Context, scope string) error {
	if err := c.do(ctx, http.MethodPost, "/auth/logout", map[string]string{"scope": scope}, nil); err != nil {
		return err
	}
	return c.ClearLocalSession()
}

// ListPlatforms returns the user's platforms ordered by name.
func (c *Client) ListPlatforms(ctx context.Context) ([]model.Platform, error) {
	var platforms []model.Platform
	if err := c.do(ctx, http.MethodGet, "/api/platforms", nil, &platforms); err != nil {
		return nil, err
	}
	return platforms, nil
}

// PlatformParams carries the mutable fields of a platform.
type PlatformParams struct {
	Name  string `json:"name"`
	Icon  string `json:"icon,omitempty"`
	Color string `json:"color,omitempty"`
}

func (c *Client) CreatePlatform(ctx context.Context, p PlatformParams) (*model.Platform, error) {
	var created model.Platform
	if err := c.do(ctx, http.MethodPost, "/api/platforms", p, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

func (c *Client) UpdatePlatform(ctx context.Context, id string, p PlatformParams) (*model.Platform, error) {
	var updated model.Platform
	if err := c.do(ctx, http.MethodPut, "/api/platforms/"+url.PathEscape(id), p, &updated); err != nil {
		return nil, err
	}
	return &updated, nil
}

func (c *Client) DeletePlatform(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/api/platforms/"+url.PathEscape(id), nil, nil)
}

// ListAccounts returns the user's accounts ordered by name, optionally
// filtered to one platform.
func (c *Client) ListAccounts(ctx context.Context, platformID string) ([]model.Account, error) {
	path := "/api/accounts"
	if platformID != "" {
		path += "?platform_id=" + url.QueryEscape(platformID)
	}
	var accounts []model.Account
	if err := c.do(ctx, http.MethodGet, path, nil, &accounts); err != nil {
		return nil, err
	}
	return accounts, nil
}

// AccountParams carries the mutable fields of a stored credential.
type AccountParams struct {
	PlatformID string `json:"platform_id,omitempty"`
	Name       string `json:"name"`
	Email      string `json:"email,omitempty"`
	Username   string `json:"username,omitempty"`
	Password   string `json:"password,omitempty"`
	Notes      string `json:"notes,omitempty"`
}

func (c *Client) CreateAccount(ctx context.Context, a AccountParams) (*model.Account, error) {
	var created model.Account
	if err := c.do(ctx, http.MethodPost, "/api/accounts", a, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

func (c *Client) UpdateAccount(ctx context.Context, id string, a AccountParams) (*model.Account, error) {
	var updated model.Account
	if err := c.do(ctx, http.MethodPut, "/api/accounts/"+url.PathEscape(id), a, &updated); err != nil {
		return nil, err
	}
	return &updated, nil
}

func (c *Client) DeleteAccount(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/api/accounts/"+url.PathEscape(id), nil, nil)
}
