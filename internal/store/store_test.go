package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"draftvault/internal/domain"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "test.db"), nil, Options{})
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestOpen_CreatesSchema(t *testing.T) {
	s := openTestStore(t)

	v, err := s.schemaVersion()
	if err != nil {
		t.Fatalf("schemaVersion failed: %v", err)
	}
	if v != len(migrations) {
		t.Errorf("Expected schema version %d, got %d", len(migrations), v)
	}
	if err := s.verifyLayout(); err != nil {
		t.Errorf("Layout check failed on fresh database: %v", err)
	}
}

func TestOpen_Reopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")
	ctx := context.Background()

	s, err := Open(path, nil, Options{})
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	book, err := s.CreateBook(ctx, "My Book")
	if err != nil {
		t.Fatalf("CreateBook failed: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	s2, err := Open(path, nil, Options{})
	if err != nil {
		t.Fatalf("Reopen failed: %v", err)
	}
	defer s2.Close()

	got, err := s2.GetBook(ctx, book.ID)
	if err != nil {
		t.Fatalf("GetBook after reopen failed: %v", err)
	}
	if got.Name != "My Book" {
		t.Errorf("Expected name 'My Book', got %q", got.Name)
	}
}

func TestOpen_CorruptSchema_FailsWithoutOptIn(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	s, err := Open(path, nil, Options{})
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if _, err := s.db.Exec("DROP TABLE books"); err != nil {
		t.Fatalf("drop table: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	_, err = Open(path, nil, Options{})
	if !errors.Is(err, domain.ErrSchemaCorruption) {
		t.Fatalf("Expected ErrSchemaCorruption, got %v", err)
	}
}

func TestOpen_CorruptSchema_RecreatesWhenOptedIn(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")
	ctx := context.Background()

	s, err := Open(path, nil, Options{})
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if _, err := s.CreateBook(ctx, "Doomed"); err != nil {
		t.Fatalf("CreateBook failed: %v", err)
	}
	if _, err := s.db.Exec("DROP TABLE chapters"); err != nil {
		t.Fatalf("drop table: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	s2, err := Open(path, nil, Options{RecreateOnCorruption: true})
	if err != nil {
		t.Fatalf("Open with recreate failed: %v", err)
	}
	defer s2.Close()

	books, err := s2.ListBooks(ctx)
	if err != nil {
		t.Fatalf("ListBooks failed: %v", err)
	}
	if len(books) != 0 {
		t.Errorf("Expected empty store after recreate, got %d books", len(books))
	}
}

func TestSyncMetadata_Roundtrip(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	at := time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)
	if err := s.UpsertSyncMetadata(ctx, "Draftvault/book-1", at); err != nil {
		t.Fatalf("UpsertSyncMetadata failed: %v", err)
	}
	got, err := s.LastSynced(ctx, "Draftvault/book-1")
	if err != nil {
		t.Fatalf("LastSynced failed: %v", err)
	}
	if !got.Equal(at) {
		t.Errorf("Expected %v, got %v", at, got)
	}

	later := at.Add(time.Hour)
	if err := s.UpsertSyncMetadata(ctx, "Draftvault/book-1", later); err != nil {
		t.Fatalf("UpsertSyncMetadata update failed: %v", err)
	}
	got, _ = s.LastSynced(ctx, "Draftvault/book-1")
	if !got.Equal(later) {
		t.Errorf("Expected %v after update, got %v", later, got)
	}

	if _, err := s.LastSynced(ctx, "Draftvault/unknown"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("Expected ErrNotFound for unknown path, got %v", err)
	}
}

func TestConfigValues(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	if _, err := s.GetConfigValue(ctx, "client_id"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("Expected ErrNotFound for unset value, got %v", err)
	}

	if err := s.SetConfigValue(ctx, "client_id", "abc"); err != nil {
		t.Fatalf("SetConfigValue failed: %v", err)
	}
	if err := s.SetConfigValue(ctx, "client_id", "def"); err != nil {
		t.Fatalf("SetConfigValue overwrite failed: %v", err)
	}
	v, err := s.GetConfigValue(ctx, "client_id")
	if err != nil {
		t.Fatalf("GetConfigValue failed: %v", err)
	}
	if v != "def" {
		t.Errorf("Expected 'def', got %q", v)
	}

	if err := s.DeleteConfigValue(ctx, "client_id"); err != nil {
		t.Fatalf("DeleteConfigValue failed: %v", err)
	}
	if _, err := s.GetConfigValue(ctx, "client_id"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("Expected ErrNotFound after delete, got %v", err)
	}
	if err := s.DeleteConfigValue(ctx, "client_id"); err != nil {
		t.Errorf("Deleting a missing value should not fail: %v", err)
	}
}
