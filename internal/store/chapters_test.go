package store

import (
	"context"
	"errors"
	"testing"

	"draftvault/internal/domain"
	"draftvault/internal/model"
)

func TestSaveChapterContent_LocalWriteMarksPending(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	book, _ := s.CreateBook(ctx, "Draft")
	before := book.LocalLastModified

	if err := s.SaveChapterContent(ctx, book.ID, "intro.md", []byte("# Intro"), false); err != nil {
		t.Fatalf("SaveChapterContent failed: %v", err)
	}

	content, err := s.GetChapterContent(ctx, book.ID, "intro.md")
	if err != nil {
		t.Fatalf("GetChapterContent failed: %v", err)
	}
	if string(content) != "# Intro" {
		t.Errorf("Expected '# Intro', got %q", content)
	}

	got, _ := s.GetBook(ctx, book.ID)
	if got.LocalLastModified.Before(before) {
		t.Error("Expected local watermark to advance")
	}
	// A book that never left the device stays local_only.
	if got.SyncStatus != model.SyncLocalOnly {
		t.Errorf("Expected local_only, got %q", got.SyncStatus)
	}

	pending, err := s.GetPendingChanges(ctx)
	if err != nil {
		t.Fatalf("GetPendingChanges failed: %v", err)
	}
	if len(pending.Chapters) != 1 || pending.Chapters[0].FileName != "intro.md" {
		t.Errorf("Expected intro.md pending, got %+v", pending.Chapters)
	}
}

func TestSaveChapterContent_EditFlipsSyncedBookOutOfSync(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	book, _ := s.CreateBook(ctx, "Published")
	book.Source = model.SourceCloud
	book.SyncStatus = model.SyncInSync
	if err := s.SaveBook(ctx, book); err != nil {
		t.Fatalf("SaveBook failed: %v", err)
	}

	if err := s.SaveChapterContent(ctx, book.ID, "ch.md", []byte("edited"), false); err != nil {
		t.Fatalf("SaveChapterContent failed: %v", err)
	}
	got, _ := s.GetBook(ctx, book.ID)
	if got.SyncStatus != model.SyncOutOfSync {
		t.Errorf("Expected out_of_sync after edit, got %q", got.SyncStatus)
	}

	pending, _ := s.GetPendingChanges(ctx)
	if len(pending.Books) != 1 || pending.Books[0] != "Published" {
		t.Errorf("Expected 'Published' in pending books, got %+v", pending.Books)
	}
}

func TestSaveChapterContent_SyncWriteLeavesBookAlone(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	book, _ := s.CreateBook(ctx, "Pulled")
	book.Source = model.SourceImported
	book.SyncStatus = model.SyncInSync
	if err := s.SaveBook(ctx, book); err != nil {
		t.Fatalf("SaveBook failed: %v", err)
	}

	if err := s.SaveChapterContent(ctx, book.ID, "ch.md", []byte("from cloud"), true); err != nil {
		t.Fatalf("SaveChapterContent failed: %v", err)
	}
	got, _ := s.GetBook(ctx, book.ID)
	if got.SyncStatus != model.SyncInSync {
		t.Errorf("A sync write must not dirty the book, got %q", got.SyncStatus)
	}

	pending, _ := s.GetPendingChanges(ctx)
	if len(pending.Chapters) != 0 {
		t.Errorf("Sync writes should not be pending, got %+v", pending.Chapters)
	}
}

func TestSaveChapterContent_UnknownBook(t *testing.T) {
	s := openTestStore(t)
	err := s.SaveChapterContent(context.Background(), "missing", "x.md", []byte("x"), false)
	if !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestMarkChapterSynced(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	book, _ := s.CreateBook(ctx, "Draft")
	if err := s.SaveChapterContent(ctx, book.ID, "a.md", []byte("a"), false); err != nil {
		t.Fatalf("SaveChapterContent failed: %v", err)
	}
	if err := s.MarkChapterSynced(ctx, book.ID, "a.md"); err != nil {
		t.Fatalf("MarkChapterSynced failed: %v", err)
	}
	pending, _ := s.GetPendingChanges(ctx)
	if len(pending.Chapters) != 0 {
		t.Errorf("Expected no pending chapters, got %+v", pending.Chapters)
	}

	if err := s.MarkChapterSynced(ctx, book.ID, "nope.md"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestDeleteChapterContent_MissingIsNotAnError(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	book, _ := s.CreateBook(ctx, "Draft")
	if err := s.DeleteChapterContent(ctx, book.ID, "ghost.md"); err != nil {
		t.Errorf("Expected nil, got %v", err)
	}
}

func TestListChapterFiles(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	book, _ := s.CreateBook(ctx, "Draft")
	for _, name := range []string{"b.md", "a.md"} {
		if err := s.SaveChapterContent(ctx, book.ID, name, []byte("x"), false); err != nil {
			t.Fatalf("SaveChapterContent %s failed: %v", name, err)
		}
	}
	names, err := s.ListChapterFiles(ctx, book.ID)
	if err != nil {
		t.Fatalf("ListChapterFiles failed: %v", err)
	}
	if len(names) != 2 || names[0] != "a.md" || names[1] != "b.md" {
		t.Errorf("Expected sorted [a.md b.md], got %v", names)
	}
}
