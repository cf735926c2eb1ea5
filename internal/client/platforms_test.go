package client

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"testing"
)

func platformNames(l *PlatformList) []string {
	items := l.Platforms()
	names := make([]string, len(items))
	for i, p := range items {
		names[i] = p.Name
	}
	return names
}

func TestPlatformListRefetchOrdered(t *testing.T) {
	ts, _ := newTestBackend(t)
	c := newTestClient(t, ts.URL)
	signUpHelper(t, c, "alice@example.com")

	ctx := context.Background()
	for _, name := range []string{"zulu", "alpha", "mike"} {
		if _, err := c.CreatePlatform(ctx, PlatformParams{Name: name}); err != nil {
			t.Fatalf("create platform %s: %v", name, err)
		}
	}

	list := NewPlatformList(c)
	if err := list.Refetch(ctx); err != nil {
		t.Fatalf("refetch: %v", err)
	}

	want := []string{"alpha", "mike", "zulu"}
	if got := platformNames(list); !reflect.DeepEqual(got, want) {
		t.Errorf("platforms = %v, want %v", got, want)
	}
}

func TestPlatformListCreateAppends(t *testing.T) {
	ts, _ := newTestBackend(t)
	c := newTestClient(t, ts.URL)
	signUpHelper(t, c, "alice@example.com")

	ctx := context.Background()
	c.CreatePlatform(ctx, PlatformParams{Name: "bravo"})
	c.CreatePlatform(ctx, PlatformParams{Name: "mike"})

	list := NewPlatformList(c)
	if err := list.Refetch(ctx); err != nil {
		t.Fatalf("refetch: %v", err)
	}

	// A new entry lands at the end; the fetched order is not disturbed.
	if _, err := list.Create(ctx, PlatformParams{Name: "alpha"}); err != nil {
		t.Fatalf("create: %v", err)
	}

	want := []string{"bravo", "mike", "alpha"}
	if got := platformNames(list); !reflect.DeepEqual(got, want) {
		t.Errorf("platforms = %v, want %v", got, want)
	}
}

func TestPlatformListCreateFailureLeavesCache(t *testing.T) {
	ts, _ := newTestBackend(t)
	c := newTestClient(t, ts.URL)
	signUpHelper(t, c, "alice@example.com")

	ctx := context.Background()
	c.CreatePlatform(ctx, PlatformParams{Name: "bravo"})

	list := NewPlatformList(c)
	if err := list.Refetch(ctx); err != nil {
		t.Fatalf("refetch: %v", err)
	}
	before := list.Platforms()

	_, err := list.Create(ctx, PlatformParams{Name: ""})
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *APIError, got %v", err)
	}
	if apiErr.Status != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", apiErr.Status)
	}

	if after := list.Platforms(); !reflect.DeepEqual(before, after) {
		t.Errorf("cache changed after failed create: %v -> %v", before, after)
	}
}

func TestPlatformListUpdatePatchesInPlace(t *testing.T) {
	ts, _ := newTestBackend(t)
	c := newTestClient(t, ts.URL)
	signUpHelper(t, c, "alice@example.com")

	ctx := context.Background()
	c.CreatePlatform(ctx, PlatformParams{Name: "alpha"})
	created, err := c.CreatePlatform(ctx, PlatformParams{Name: "bravo"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	list := NewPlatformList(c)
	list.Refetch(ctx)

	if _, err := list.Update(ctx, created.ID, PlatformParams{Name: "zulu", Icon: "lock", Color: "#000000"}); err != nil {
		t.Fatalf("update: %v", err)
	}

	want := []string{"alpha", "zulu"}
	if got := platformNames(list); !reflect.DeepEqual(got, want) {
		t.Errorf("platforms = %v, want %v", got, want)
	}
}

func TestPlatformListDeleteRemoves(t *testing.T) {
	ts, _ := newTestBackend(t)
	c := newTestClient(t, ts.URL)
	signUpHelper(t, c, "alice@example.com")

	ctx := context.Background()
	created, _ := c.CreatePlatform(ctx, PlatformParams{Name: "alpha"})
	c.CreatePlatform(ctx, PlatformParams{Name: "bravo"})

	list := NewPlatformList(c)
	list.Refetch(ctx)

	if err := list.Delete(ctx, created.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	want := []string{"bravo"}
	if got := platformNames(list); !reflect.DeepEqual(got, want) {
		t.Errorf("platforms = %v, want %v", got, want)
	}
}

// countingTransport fails the first n attempts with a transport error, then
// delegates.
type countingTransport struct {
	failures int
	attempts int
	base     http.RoundTripper
}

func (ct *countingTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	ct.attempts++
	if ct.attempts <= ct.failures {
		return nil, fmt.Errorf("simulated connection reset")
	}
	return ct.base.RoundTrip(req)
}

func TestPlatformListRefetchRetriesTransientFailure(t *testing.T) {
	ts, _ := newTestBackend(t)
	c := newTestClient(t, ts.URL)
	signUpHelper(t, c, "alice@example.com")

	ctx := context.Background()
	c.CreatePlatform(ctx, PlatformParams{Name: "alpha"})

	ct := &countingTransport{failures: 1, base: http.DefaultTransport}
	c.httpc.Transport = ct

	list := NewPlatformList(c)
	if err := list.Refetch(ctx); err != nil {
		t.Fatalf("refetch should survive one transient failure: %v", err)
	}
	if ct.attempts != 2 {
		t.Errorf("attempts = %d, want 2", ct.attempts)
	}
}

func TestPlatformListRefetchDoesNotRetryAPIErrors(t *testing.T) {
	ts, _ := newTestBackend(t)
	c := newTestClient(t, ts.URL) // never signed in, so the backend rejects us

	ct := &countingTransport{base: http.DefaultTransport}
	c.httpc.Transport = ct

	list := NewPlatformList(c)
	err := list.Refetch(context.Background())
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *APIError, got %v", err)
	}
	if ct.attempts != 1 {
		t.Errorf("attempts = %d, want 1 (API errors are permanent)", ct.attempts)
	}
}
