package client

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/sethvargo/go-retry"

	"github.com/techgaint000/SecureAccountManager/internal/model"
)

// retryBackoff returns the backoff used for list refetches. API errors are
// permanent; only transport failures are retried.
func retryBackoff() retry.Backoff {
	return retry.WithMaxRetries(2, retry.NewExponential(100*time.Millisecond))
}

func retryable(err error) error {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return err
	}
	return retry.RetryableError(err)
}

// PlatformList is a client-side cache of the user's platforms. The cache is
// only patched when a mutation succeeds, so a failed call leaves it exactly
// as it was.
type PlatformList struct {
	client *Client

	mu    sync.Mutex
	items []model.Platform
}

func NewPlatformList(c *Client) *PlatformList {
	return &PlatformList{client: c}
}

// Refetch replaces the cache with the server's name-ordered list.
func (l *PlatformList) Refetch(ctx context.Context) error {
	var platforms []model.Platform
	err := retry.Do(ctx, retryBackoff(), func(ctx context.Context) error {
		var err error
		platforms, err = l.client.ListPlatforms(ctx)
		if err != nil {
			return retryable(err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	l.mu.Lock()
	l.items = platforms
	l.mu.Unlock()
	return nil
}

// Platforms returns a copy of the cached list.
func (l *PlatformList) Platforms() []model.Platform {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]model.Platform, len(l.items))
	copy(out, l.items)
	return out
}

// Create adds a platform. On success the new entry is appended to the cache,
// leaving the existing order untouched until the next refetch.
func (l *PlatformList) Create(ctx context.Context, p PlatformParams) (*model.Platform, error) {
	created, err := l.client.CreatePlatform(ctx, p)
	if err != nil {
		return nil, err
	}
	l.mu.Lock()
	l.items = append(l.items, *created)
	l.mu.Unlock()
	return created, nil
}

// Update edits a platform and patches the cached entry in place.
func (l *PlatformList) Update(ctx context.Context, id string, p PlatformParams) (*model.Platform, error) {
	updated, err := l.client.UpdatePlatform(ctx, id, p)
	if err != nil {
		return nil, err
	}
	l.mu.Lock()
	for i := range l.items {
		if l.items[i].ID == id {
			l.items[i] = *updated
			break
		}
	}
	l.mu.Unlock()
	return updated, nil
}

// Delete removes a platform and drops it from the cache.
func (l *PlatformList) Delete(ctx context.Context, id string) error {
	if err := l.client.DeletePlatform(ctx, id); err != nil {
		return err
	}
	l.mu.Lock()
	kept := l.items[:0]
	for _, p := range l.items {
		if p.ID != id {
			kept = append(kept, p)
		}
	}
	l.items = kept
	l.mu.Unlock()
	return nil
}
