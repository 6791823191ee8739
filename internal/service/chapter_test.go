package service

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"draftvault/internal/domain"
	"draftvault/internal/store"
)

func testStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.Open(filepath.Join(t.TempDir(), "test.db"), nil, store.Options{})
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestCreateChapter(t *testing.T) {
	st := testStore(t)
	svc := NewChapterService(st, nil, nil)
	ctx := context.Background()

	book, _ := st.CreateBook(ctx, "Draft")
	ch, err := svc.CreateChapter(ctx, book.ID, "The Long Night")
	if err != nil {
		t.Fatalf("CreateChapter failed: %v", err)
	}
	if !strings.HasPrefix(ch.FileName, "the-long-night-") || !strings.HasSuffix(ch.FileName, ".md") {
		t.Errorf("Unexpected file name %q", ch.FileName)
	}

	got, _ := st.GetBook(ctx, book.ID)
	if len(got.Config.ChapterOrder) != 1 || got.Config.ChapterOrder[0] != ch.ID {
		t.Errorf("Expected chapter appended to order, got %v", got.Config.ChapterOrder)
	}
	if _, ok := got.Config.Ideas[ch.ID]; !ok {
		t.Error("Expected an empty idea list for the new chapter")
	}
	content, err := st.GetChapterContent(ctx, book.ID, ch.FileName)
	if err != nil {
		t.Fatalf("Expected an initial content entry: %v", err)
	}
	if len(content) != 0 {
		t.Errorf("Expected empty initial content, got %q", content)
	}
}

func TestCreateChapter_Validation(t *testing.T) {
	st := testStore(t)
	svc := NewChapterService(st, nil, nil)
	ctx := context.Background()

	book, _ := st.CreateBook(ctx, "Draft")
	if _, err := svc.CreateChapter(ctx, book.ID, ""); err == nil {
		t.Error("Expected a validation error for an empty title")
	}
	if _, err := svc.CreateChapter(ctx, "missing", "Title"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestRenameChapter_KeepsFileName(t *testing.T) {
	st := testStore(t)
	svc := NewChapterService(st, nil, nil)
	ctx := context.Background()

	book, _ := st.CreateBook(ctx, "Draft")
	ch, _ := svc.CreateChapter(ctx, book.ID, "Old Title")
	if err := svc.SetChapterContent(ctx, book.ID, ch.ID, []byte("text")); err != nil {
		t.Fatalf("SetChapterContent failed: %v", err)
	}

	if err := svc.RenameChapter(ctx, book.ID, ch.ID, "New Title"); err != nil {
		t.Fatalf("RenameChapter failed: %v", err)
	}
	got, _ := st.GetBook(ctx, book.ID)
	renamed := got.Config.Chapters[ch.ID]
	if renamed.Title != "New Title" {
		t.Errorf("Expected new title, got %q", renamed.Title)
	}
	if renamed.FileName != ch.FileName {
		t.Errorf("File name must not change on rename: %q vs %q", renamed.FileName, ch.FileName)
	}
	if _, err := st.GetChapterContent(ctx, book.ID, ch.FileName); err != nil {
		t.Errorf("Content must stay reachable under the original file name: %v", err)
	}
}

func TestDeleteChapter(t *testing.T) {
	st := testStore(t)
	svc := NewChapterService(st, nil, nil)
	ctx := context.Background()

	book, _ := st.CreateBook(ctx, "Draft")
	ch1, _ := svc.CreateChapter(ctx, book.ID, "Keep")
	ch2, _ := svc.CreateChapter(ctx, book.ID, "Drop")

	if err := svc.DeleteChapter(ctx, book.ID, ch2.ID); err != nil {
		t.Fatalf("DeleteChapter failed: %v", err)
	}
	got, _ := st.GetBook(ctx, book.ID)
	if len(got.Config.Chapters) != 1 {
		t.Errorf("Expected 1 chapter left, got %d", len(got.Config.Chapters))
	}
	if len(got.Config.ChapterOrder) != 1 || got.Config.ChapterOrder[0] != ch1.ID {
		t.Errorf("Expected order [%s], got %v", ch1.ID, got.Config.ChapterOrder)
	}
	if _, ok := got.Config.Ideas[ch2.ID]; ok {
		t.Error("Expected the idea list removed with the chapter")
	}
	if _, err := st.GetChapterContent(ctx, book.ID, ch2.FileName); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("Expected content removed, got %v", err)
	}
}

func TestReorderChapters(t *testing.T) {
	st := testStore(t)
	svc := NewChapterService(st, nil, nil)
	ctx := context.Background()

	book, _ := st.CreateBook(ctx, "Draft")
	ch1, _ := svc.CreateChapter(ctx, book.ID, "One")
	ch2, _ := svc.CreateChapter(ctx, book.ID, "Two")
	ch3, _ := svc.CreateChapter(ctx, book.ID, "Three")

	if err := svc.ReorderChapters(ctx, book.ID, []string{ch3.ID, ch1.ID, ch2.ID}); err != nil {
		t.Fatalf("ReorderChapters failed: %v", err)
	}
	got, _ := st.GetBook(ctx, book.ID)
	ordered := got.Config.OrderedChapters()
	if ordered[0].ID != ch3.ID || ordered[1].ID != ch1.ID || ordered[2].ID != ch2.ID {
		t.Errorf("Unexpected order: %+v", got.Config.ChapterOrder)
	}

	// Anything that is not a permutation of the chapter set is rejected.
	if err := svc.ReorderChapters(ctx, book.ID, []string{ch1.ID, ch2.ID}); err == nil {
		t.Error("Expected an error for a short order")
	}
	if err := svc.ReorderChapters(ctx, book.ID, []string{ch1.ID, ch1.ID, ch2.ID}); err == nil {
		t.Error("Expected an error for a duplicate id")
	}
	if err := svc.ReorderChapters(ctx, book.ID, []string{ch1.ID, ch2.ID, "ghost"}); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("Expected ErrNotFound for an unknown id, got %v", err)
	}
}

func TestChapterEdits_InvokeChangeHook(t *testing.T) {
	st := testStore(t)
	var notified []string
	svc := NewChapterService(st, nil, func(bookID string) { notified = append(notified, bookID) })
	ctx := context.Background()

	book, _ := st.CreateBook(ctx, "Draft")
	ch, _ := svc.CreateChapter(ctx, book.ID, "One")
	if err := svc.SetChapterContent(ctx, book.ID, ch.ID, []byte("text")); err != nil {
		t.Fatalf("SetChapterContent failed: %v", err)
	}
	if len(notified) != 2 {
		t.Errorf("Expected 2 notifications, got %d", len(notified))
	}
	for _, id := range notified {
		if id != book.ID {
			t.Errorf("Expected notification for %s, got %s", book.ID, id)
		}
	}
}

func TestDeriveFileName(t *testing.T) {
	tests := []struct {
		title string
		id    string
		want  string
	}{
		{"The Long Night", "abcd1234-5678-90ab-cdef-000000000000", "the-long-night-abcd1234.md"},
		{"  Spaces  &  Symbols!  ", "abcd1234-5678-90ab-cdef-000000000000", "spaces-symbols-abcd1234.md"},
		{"!!!", "abcd1234-5678-90ab-cdef-000000000000", "chapter-abcd1234.md"},
		{"UPPER case", "ffff0000-1111-2222-3333-444444444444", "upper-case-ffff0000.md"},
	}
	for _, tt := range tests {
		if got := deriveFileName(tt.title, tt.id); got != tt.want {
			t.Errorf("deriveFileName(%q) = %q, want %q", tt.title, got, tt.want)
		}
	}
}
