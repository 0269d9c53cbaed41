// Package testutil provides shared test helpers for setting up stores, indexes
// and document storage.
package testutil

import (
	"io"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/starford/dealroom/internal/clientservice"
	"github.com/starford/dealroom/internal/clientstore"
	"github.com/starford/dealroom/internal/collection"
	"github.com/starford/dealroom/internal/ids"
	"github.com/starford/dealroom/internal/index"
	"github.com/starford/dealroom/internal/seed"
	"github.com/starford/dealroom/internal/storage"
)

// Today is the fixed date used by TestBuilder.
var Today = time.Date(2024, time.March, 15, 10, 0, 0, 0, time.UTC)

// TestDB creates a temporary SQLite database that is automatically cleaned up.
func TestDB(t *testing.T) *index.DB {
	t.Helper()
	dbFile, err := os.CreateTemp("", "dealroom-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	dbFile.Close()
	t.Cleanup(func() { os.Remove(dbFile.Name()) })

	db, err := index.Open(dbFile.Name())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// TestDocs creates a temporary document directory with a storage.Provider.
func TestDocs(t *testing.T) (string, storage.Provider) {
	t.Helper()
	dir := t.TempDir()
	docs, err := storage.NewFS(dir)
	if err != nil {
		t.Fatal(err)
	}
	return dir, docs
}

// TestSeed returns the built-in seed.
func TestSeed(t *testing.T) clientstore.Seed {
	t.Helper()
	s, err := seed.Default()
	if err != nil {
		t.Fatal(err)
	}
	return s
}

// TestBuilder returns a collection builder with sequential ids and a clock
// fixed at Today.
func TestBuilder() *collection.Builder {
	return collection.NewBuilder(ids.NewSequence("id"), collection.WithClock(func() time.Time { return Today }))
}

// TestService wires a service over the default seed, an indexed temporary
// database and temporary document storage.
func TestService(t *testing.T, opts ...clientservice.Option) (*clientservice.Service, *clientstore.Store) {
	t.Helper()
	store := clientstore.New(TestSeed(t))
	db := TestDB(t)
	store.Subscribe(index.Follow(db, store, Logger()))
	if err := index.Sync(db, store, Logger()); err != nil {
		t.Fatal(err)
	}
	_, docs := TestDocs(t)
	svc := clientservice.New(store, TestBuilder(), db, docs, opts...)
	return svc, store
}

// Logger returns a logger that discards everything.
func Logger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
