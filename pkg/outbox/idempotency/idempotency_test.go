package idempotency

import (
	"context"
	"errors"
	"testing"
	"time"
)

type fakeStore struct {
	claimed map[string]bool
	err     error
	lastTTL time.Duration
}

func newFakeStore() *fakeStore {
	return &fakeStore{claimed: map[string]bool{}}
}

func (f *fakeStore) Get(context.Context, string) (string, error) {
	return "", nil
}

func (f *fakeStore) SetNX(_ context.Context, key string, _ any, ttl time.Duration) (bool, error) {
	if f.err != nil {
		return false, f.err
	}
	f.lastTTL = ttl
	if f.claimed[key] {
		return false, nil
	}
	f.claimed[key] = true
	return true, nil
}

func (f *fakeStore) IdempotencyKey(scope, id string) string {
	return "oq:idempotency:" + scope + ":" + id
}

func (f *fakeStore) Del(_ context.Context, keys ...string) error {
	for _, k := range keys {
		delete(f.claimed, k)
	}
	return nil
}

func TestClaimOnlyOnce(t *testing.T) {
	store := newFakeStore()
	guard, err := NewGuard(store, 24*time.Hour)
	if err != nil {
		t.Fatalf("NewGuard: %v", err)
	}

	ok, err := guard.Claim(context.Background(), "quote-mailer", "evt-1")
	if err != nil || !ok {
		t.Fatalf("first claim: ok=%v err=%v", ok, err)
	}
	if !store.claimed["oq:idempotency:evt:quote-mailer:evt-1"] {
		t.Fatalf("unexpected keys %v", store.claimed)
	}
	if store.lastTTL != 24*time.Hour {
		t.Fatalf("unexpected ttl %v", store.lastTTL)
	}

	ok, err = guard.Claim(context.Background(), "quote-mailer", "evt-1")
	if err != nil || ok {
		t.Fatalf("second claim should be rejected: ok=%v err=%v", ok, err)
	}

	// Another consumer has its own claims.
	ok, _ = guard.Claim(context.Background(), "audit", "evt-1")
	if !ok {
		t.Fatal("claims must be scoped per consumer")
	}
}

func TestReleaseAllowsRetry(t *testing.T) {
	guard, _ := NewGuard(newFakeStore(), time.Hour)
	ctx := context.Background()

	_, _ = guard.Claim(ctx, "quote-mailer", "evt-2")
	if err := guard.Release(ctx, "quote-mailer", "evt-2"); err != nil {
		t.Fatalf("release: %v", err)
	}
	ok, _ := guard.Claim(ctx, "quote-mailer", "evt-2")
	if !ok {
		t.Fatal("expected claim after release")
	}
}

func TestClaimValidation(t *testing.T) {
	guard, _ := NewGuard(newFakeStore(), time.Hour)
	if _, err := guard.Claim(context.Background(), "", "evt"); err == nil {
		t.Fatal("expected consumer error")
	}
	if _, err := guard.Claim(context.Background(), "c", " "); err == nil {
		t.Fatal("expected event id error")
	}
	if _, err := NewGuard(nil, time.Hour); err == nil {
		t.Fatal("expected nil store error")
	}
}

func TestClaimPropagatesStoreErrors(t *testing.T) {
	store := newFakeStore()
	store.err = errors.New("redis down")
	guard, _ := NewGuard(store, time.Hour)
	if _, err := guard.Claim(context.Background(), "c", "evt"); err == nil {
		t.Fatal("expected store error")
	}
}
