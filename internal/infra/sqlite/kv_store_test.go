package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"quiz-attempt-service/internal/domain"
)

func newTestStore(t *testing.T) *KVStore {
	t.Helper()
	s, err := New(":memory:")
	if err != nil {
		t.Fatalf("newTestStore: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestKVStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	if _, err := s.Get(ctx, "missing"); !errors.Is(err, domain.ErrKeyNotFound) {
		t.Fatalf("expected ErrKeyNotFound, got %v", err)
	}

	if err := s.Put(ctx, "k", []byte("one")); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if err := s.Put(ctx, "k", []byte("two")); err != nil {
		t.Fatalf("Put overwrite: %v", err)
	}
	got, err := s.Get(ctx, "k")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if string(got) != "two" {
		t.Errorf("expected overwritten value, got %q", got)
	}
}

func TestKVStorePutIfAbsent(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	stored, err := s.PutIfAbsent(ctx, "result:quiz-1:u1", []byte("first"))
	if err != nil || !stored {
		t.Fatalf("expected first insert, stored=%v err=%v", stored, err)
	}
	stored, err = s.PutIfAbsent(ctx, "result:quiz-1:u1", []byte("second"))
	if err != nil {
		t.Fatalf("PutIfAbsent: %v", err)
	}
	if stored {
		t.Errorf("expected conflicting insert to be skipped")
	}
	got, _ := s.Get(ctx, "result:quiz-1:u1")
	if string(got) != "first" {
		t.Errorf("expected first value, got %q", got)
	}
}

func TestKVStorePersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "results.db")

	s, err := New(path)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := s.Put(ctx, "k", []byte("kept")); err != nil {
		t.Fatalf("Put: %v", err)
	}
	s.Close()

	reopened, err := New(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer reopened.Close()
	got, err := reopened.Get(ctx, "k")
	if err != nil || string(got) != "kept" {
		t.Fatalf("expected persisted value, got %q err=%v", got, err)
	}
}

func TestNewFailsForMissingDirectory(t *testing.T) {
	if _, err := New(filepath.Join(t.TempDir(), "missing", "results.db")); err == nil {
		t.Fatalf("expected an error for a path in a missing directory")
	}
}

func TestSetupFailureClosesDatabase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "garbage.db")
	if err := os.WriteFile(path, []byte(strings.Repeat("not a sqlite database ", 64)), 0o600); err != nil {
		t.Fatalf("write file: %v", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}

	if _, err := newKVStore(db); err == nil {
		t.Fatalf("expected setup to fail on a non-database file")
	}
	if err := db.Ping(); err == nil || !strings.Contains(err.Error(), "database is closed") {
		t.Fatalf("expected the handle to be closed after a failed setup, got %v", err)
	}
}
