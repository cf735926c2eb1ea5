package client

import (
	"context"
	"errors"
	"net/http"
	"reflect"
	"testing"

	"github.com/techgaint000/SecureAccountManager/internal/model"
)

func seedPlatform(t *testing.T, c *Client, name string) *model.Platform {
	t.Helper()
	p, err := c.CreatePlatform(context.Background(), PlatformParams{Name: name})
	if err != nil {
		t.Fatalf("create platform %s: %v", name, err)
	}
	return p
}

func accountNames(l *AccountList) []string {
	items := l.Accounts()
	names := make([]string, len(items))
	for i, a := range items {
		names[i] = a.Name
	}
	return names
}

func TestAccountListRefetchOrdered(t *testing.T) {
	ts, _ := newTestBackend(t)
	c := newTestClient(t, ts.URL)
	signUpHelper(t, c, "alice@example.com")

	ctx := context.Background()
	p := seedPlatform(t, c, "github")
	for _, name := range []string{"work", "personal"} {
		if _, err := c.CreateAccount(ctx, AccountParams{PlatformID: p.ID, Name: name}); err != nil {
			t.Fatalf("create account %s: %v", name, err)
		}
	}

	list := NewAccountList(c, "")
	if err := list.Refetch(ctx); err != nil {
		t.Fatalf("refetch: %v", err)
	}

	want := []string{"personal", "work"}
	if got := accountNames(list); !reflect.DeepEqual(got, want) {
		t.Errorf("accounts = %v, want %v", got, want)
	}
}

func TestAccountListPlatformScope(t *testing.T) {
	ts, _ := newTestBackend(t)
	c := newTestClient(t, ts.URL)
	signUpHelper(t, c, "alice@example.com")

	ctx := context.Background()
	gh := seedPlatform(t, c, "github")
	gl := seedPlatform(t, c, "gitlab")
	c.CreateAccount(ctx, AccountParams{PlatformID: gh.ID, Name: "gh-account"})
	c.CreateAccount(ctx, AccountParams{PlatformID: gl.ID, Name: "gl-account"})

	list := NewAccountList(c, gh.ID)
	if err := list.Refetch(ctx); err != nil {
		t.Fatalf("refetch: %v", err)
	}

	want := []string{"gh-account"}
	if got := accountNames(list); !reflect.DeepEqual(got, want) {
		t.Errorf("accounts = %v, want %v", got, want)
	}
}

func TestAccountListCreateAppends(t *testing.T) {
	ts, _ := newTestBackend(t)
	c := newTestClient(t, ts.URL)
	signUpHelper(t, c, "alice@example.com")

	ctx := context.Background()
	p := seedPlatform(t, c, "github")
	c.CreateAccount(ctx, AccountParams{PlatformID: p.ID, Name: "bravo"})
	c.CreateAccount(ctx, AccountParams{PlatformID: p.ID, Name: "mike"})

	list := NewAccountList(c, "")
	if err := list.Refetch(ctx); err != nil {
		t.Fatalf("refetch: %v", err)
	}

	if _, err := list.Create(ctx, AccountParams{PlatformID: p.ID, Name: "alpha"}); err != nil {
		t.Fatalf("create: %v", err)
	}

	want := []string{"bravo", "mike", "alpha"}
	if got := accountNames(list); !reflect.DeepEqual(got, want) {
		t.Errorf("accounts = %v, want %v", got, want)
	}
}

func TestAccountListCreateFailureLeavesCache(t *testing.T) {
	ts, _ := newTestBackend(t)
	c := newTestClient(t, ts.URL)
	signUpHelper(t, c, "alice@example.com")

	ctx := context.Background()
	p := seedPlatform(t, c, "github")
	c.CreateAccount(ctx, AccountParams{PlatformID: p.ID, Name: "bravo"})

	list := NewAccountList(c, "")
	list.Refetch(ctx)
	before := list.Accounts()

	// Unknown platform is rejected server-side.
	_, err := list.Create(ctx, AccountParams{PlatformID: "no-such-platform", Name: "alpha"})
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *APIError, got %v", err)
	}
	if apiErr.Status != http.StatusNotFound {
		t.Errorf("status = %d, want 404", apiErr.Status)
	}

	if after := list.Accounts(); !reflect.DeepEqual(before, after) {
		t.Errorf("cache changed after failed create: %v -> %v", before, after)
	}
}

func TestAccountListUpdateAndDelete(t *testing.T) {
	ts, _ := newTestBackend(t)
	c := newTestClient(t, ts.URL)
	signUpHelper(t, c, "alice@example.com")

	ctx := context.Background()
	p := seedPlatform(t, c, "github")
	a, err := c.CreateAccount(ctx, AccountParams{PlatformID: p.ID, Name: "alpha"})
	if err != nil {
		t.Fatalf("create account: %v", err)
	}
	b, _ := c.CreateAccount(ctx, AccountParams{PlatformID: p.ID, Name: "bravo"})

	list := NewAccountList(c, "")
	list.Refetch(ctx)

	if _, err := list.Update(ctx, a.ID, AccountParams{Name: "zulu", Username: "z"}); err != nil {
		t.Fatalf("update: %v", err)
	}
	want := []string{"zulu", "bravo"}
	if got := accountNames(list); !reflect.DeepEqual(got, want) {
		t.Errorf("accounts = %v, want %v", got, want)
	}

	if err := list.Delete(ctx, b.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	want = []string{"zulu"}
	if got := accountNames(list); !reflect.DeepEqual(got, want) {
		t.Errorf("accounts = %v, want %v", got, want)
	}
}
