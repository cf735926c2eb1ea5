package client

import (
	"context"
	"sync"

	"github.com/sethvargo/go-retry"

	"github.com/techgaint000/SecureAccountManager/internal/model"
)

// AccountList is a client-side cache of stored credentials, optionally
// scoped to one platform. Mutations patch the cache only on success.
type AccountList struct {
	client     *Client
	platformID string

	mu    sync.Mutex
	items []model.Account
}

// NewAccountList builds a cache over all accounts, or over one platform's
// accounts when platformID is non-empty.
func NewAccountList(c *Client, platformID string) *AccountList {
	return &AccountList{client: c, platformID: platformID}
}

// Refetch replaces the cache with the server's name-ordered list.
func (l *AccountList) Refetch(ctx context.Context) error {
	var accounts []model.Account
	err := retry.Do(ctx, retryBackoff(), func(ctx context.Context) error {
		var err error
		accounts, err = l.client.ListAccounts(ctx, l.platformID)
		if err != nil {
			return retryable(err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	l.mu.Lock()
	l.items = accounts
	l.mu.Unlock()
	return nil
}

// Accounts returns a copy of the cached list.
func (l *AccountList) Accounts() []model.Account {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]model.Account, len(l.items))
	copy(out, l.items)
	return out
}

// Create adds a credential. On success the new entry is appended to the
// cache, preserving the prior order; on failure the cache is untouched.
func (l *AccountList) Create(ctx context.Context, a AccountParams) (*model.Account, error) {
	created, err := l.client.CreateAccount(ctx, a)
	if err != nil {
		return nil, err
	}
	l.mu.Lock()
	l.items = append(l.items, *created)
	l.mu.Unlock()
	return created, nil
}

// Update edits a credential and patches the cached entry in place.
func (l *AccountList) Update(ctx context.Context, id string, a AccountParams) (*model.Account, error) {
	updated, err := l.client.UpdateAccount(ctx, id, a)
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

// Delete removes a credential and drops it from the cache.
func (l *AccountList) Delete(ctx context.Context, id string) error {
	if err := l.client.DeleteAccount(ctx, id); err != nil {
		return err
	}
	l.mu.Lock()
	kept := l.items[:0]
	for _, a := range l.items {
		if a.ID != id {
			kept = append(kept, a)
		}
	}
	l.items = kept
	l.mu.Unlock()
	return nil
}
