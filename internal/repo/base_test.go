package repo

import (
	"context"
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

type ctxKey struct{}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	conn, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}
	return conn
}

func TestBaseDBBindsContext(t *testing.T) {
	db := newTestDB(t)
	base := NewBase(db)

	ctx := context.WithValue(context.Background(), ctxKey{}, "quote")
	withCtx := base.DB(ctx)
	if withCtx == nil || withCtx.Statement == nil {
		t.Fatalf("expected bound statement")
	}
	if withCtx.Statement.Context != ctx {
		t.Fatalf("expected context to flow through, got %v", withCtx.Statement.Context)
	}

	//nolint:staticcheck // nil context returns the raw handle
	if base.DB(nil) != db {
		t.Fatalf("expected nil context to return raw connection")
	}
}

func TestBaseWithTxSwapsConnection(t *testing.T) {
	db := newTestDB(t)
	base := NewBase(db)

	err := db.Transaction(func(tx *gorm.DB) error {
		bound := base.WithTx(tx)
		//nolint:staticcheck
		if bound.DB(nil) != tx {
			t.Fatalf("expected tx-bound base")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("transaction: %v", err)
	}
	//nolint:staticcheck
	if base.DB(nil) != db {
		t.Fatalf("original base must keep its connection")
	}
}
