package testsupport

import (
	"context"
	"testing"

	"tempo/internal/collection"
	"tempo/internal/config"
	"tempo/internal/ledger"
)

// MustOpenCollection opens the collection store for tests and registers cleanup.
func MustOpenCollection(t testing.TB, cfg *config.Config) *collection.Store {
	t.Helper()
	store, err := collection.Open(context.Background(), cfg.CollectionPath())
	if err != nil {
		t.Fatalf("open collection: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

// MustOpenLedger opens the ledger store for tests and registers cleanup.
func MustOpenLedger(t testing.TB, cfg *config.Config) *ledger.Store {
	t.Helper()
	store, err := ledger.Open(context.Background(), cfg.LedgerPath())
	if err != nil {
		t.Fatalf("open ledger: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

// MustAddNote inserts a note into store and returns its card ids.
func MustAddNote(t testing.TB, store *collection.Store, cardCount int, fields ...string) (int64, []int64) {
	t.Helper()
	noteID, cardIDs, err := store.AddNote(context.Background(), fields, cardCount)
	if err != nil {
		t.Fatalf("add note: %v", err)
	}
	return noteID, cardIDs
}
