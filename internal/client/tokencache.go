package client

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// TokenCache persists the access/refresh token pair to disk so a session
// survives process restarts. It is the "locally cached auth token artifact"
// the interceptor removes when the session turns out to be stale.
type TokenCache struct {
	path string
}

type cachedTokens struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

func NewTokenCache(path string) *TokenCache {
	return &TokenCache{path: path}
}

func (c *TokenCache) Save(accessToken, refreshToken string) error {
	data, err := json.Marshal(cachedTokens{AccessToken: accessToken, RefreshToken: refreshToken})
	if err != nil {
		return fmt.Errorf("marshal tokens: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(c.path), 0o700); err != nil {
		return fmt.Errorf("create cache dir: %w", err)
	}
	if err := os.WriteFile(c.path, data, 0o600); err != nil {
		return fmt.Errorf("write token cache: %w", err)
	}
	return nil
}

// Load returns the cached token pair, or empty strings when no cache exists.
func (c *TokenCache) Load() (accessToken, refreshToken string, err error) {
	data, err := os.ReadFile(c.path)
	if os.IsNotExist(err) {
		return "", "", nil
	}
	if err != nil {
		return "", "", fmt.Errorf("read token cache: %w", err)
	}
	var t cachedTokens
	if err := json.Unmarshal(data, &t); err != nil {
		return "", "", fmt.Errorf("unmarshal token cache: %w", err)
	}
	return t.AccessToken, t.RefreshToken, nil
}

// Remove deletes the cache file. Removing a missing file is not an error.
func (c *TokenCache) Remove() error {
	if err := os.Remove(c.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove token cache: %w", err)
	}
	return nil
}
