package redis

import (
	"context"
	"testing"
	"time"
)

func TestLockIsExclusive(t *testing.T) {
	ctx := context.Background()
	client := &Client{store: newMockCmdable()}

	first, err := NewLock(client, client.LockKey("quote", "q1"), time.Second)
	if err != nil {
		t.Fatalf("new lock: %v", err)
	}
	second, _ := NewLock(client, client.LockKey("quote", "q1"), time.Second)

	ok, err := first.Acquire(ctx)
	if err != nil || !ok {
		t.Fatalf("first acquire: %v %v", ok, err)
	}
	ok, err = second.Acquire(ctx)
	if err != nil || ok {
		t.Fatalf("second acquire should fail while held: %v %v", ok, err)
	}

	// A non-owner release must not free the lock.
	if err := second.Release(ctx); err != nil {
		t.Fatalf("release by non owner: %v", err)
	}
	if ok, _ := second.Acquire(ctx); ok {
		t.Fatal("lock freed by non owner")
	}

	if err := first.Release(ctx); err != nil {
		t.Fatalf("release: %v", err)
	}
	ok, err = second.Acquire(ctx)
	if err != nil || !ok {
		t.Fatalf("acquire after release: %v %v", ok, err)
	}
}

func TestLockReleaseAfterTakeover(t *testing.T) {
	ctx := context.Background()
	client := &Client{store: newMockCmdable()}
	lock, _ := NewLock(client, "oq:lock:quote:q2", time.Second)

	if ok, _ := lock.Acquire(ctx); !ok {
		t.Fatal("expected acquire")
	}
	// TTL lapsed and someone else took the key.
	_ = client.Set(ctx, "oq:lock:quote:q2", "someone-else", time.Second)

	if err := lock.Release(ctx); err != nil {
		t.Fatalf("release: %v", err)
	}
	if v, _ := client.Get(ctx, "oq:lock:quote:q2"); v != "someone-else" {
		t.Fatalf("release removed a lock it did not own, value=%q", v)
	}
}

func TestNewLockValidates(t *testing.T) {
	client := &Client{store: newMockCmdable()}
	if _, err := NewLock(nil, "k", time.Second); err == nil {
		t.Fatal("expected nil store error")
	}
	if _, err := NewLock(client, "", time.Second); err == nil {
		t.Fatal("expected empty key error")
	}
	if _, err := NewLock(client, "k", 0); err == nil {
		t.Fatal("expected ttl error")
	}
}

type recordingLockStore struct {
	value   string
	deletes []string
}

func (r *recordingLockStore) SetNX(_ context.Context, _ string, value any, _ time.Duration) (bool, error) {
	r.value, _ = value.(string)
	return true, nil
}

func (r *recordingLockStore) DeleteIfValue(_ context.Context, key, value string) (bool, error) {
	r.deletes = append(r.deletes, key+"="+value)
	return value == r.value, nil
}

func TestLockReleaseIsSingleCompareAndDelete(t *testing.T) {
	ctx := context.Background()
	store := &recordingLockStore{}
	lock, _ := NewLock(store, "oq:lock:quote:q3", time.Second)

	if ok, _ := lock.Acquire(ctx); !ok {
		t.Fatal("expected acquire")
	}
	if err := lock.Release(ctx); err != nil {
		t.Fatalf("release: %v", err)
	}
	if err := lock.Release(ctx); err != nil {
		t.Fatalf("second release: %v", err)
	}
	if len(store.deletes) != 1 || store.deletes[0] != "oq:lock:quote:q3="+store.value {
		t.Fatalf("expected one owner-checked delete, got %v", store.deletes)
	}
}

func TestDeleteIfValue(t *testing.T) {
	ctx := context.Background()
	client := &Client{store: newMockCmdable()}
	_ = client.Set(ctx, "k", "owner-a", time.Second)

	if ok, err := client.DeleteIfValue(ctx, "k", "owner-b"); err != nil || ok {
		t.Fatalf("mismatched owner deleted key: %v %v", ok, err)
	}
	if ok, err := client.DeleteIfValue(ctx, "k", "owner-a"); err != nil || !ok {
		t.Fatalf("expected delete: %v %v", ok, err)
	}
	if _, err := client.Get(ctx, "k"); err != Nil {
		t.Fatalf("expected key gone, got %v", err)
	}
	if _, err := (&Client{}).DeleteIfValue(ctx, "k", "v"); err == nil {
		t.Fatal("expected error for uninitialized client")
	}
}
