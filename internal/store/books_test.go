package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"draftvault/internal/domain"
	"draftvault/internal/model"
)

func TestCreateBook_Defaults(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	book, err := s.CreateBook(ctx, "First Draft")
	if err != nil {
		t.Fatalf("CreateBook failed: %v", err)
	}
	if book.ID == "" {
		t.Error("Expected a generated id")
	}
	if book.Source != model.SourceLocal {
		t.Errorf("Expected source local, got %q", book.Source)
	}
	if book.SyncStatus != model.SyncLocalOnly {
		t.Errorf("Expected status local_only, got %q", book.SyncStatus)
	}
	if book.CloudLastModified != nil {
		t.Error("Expected no cloud timestamp on a new book")
	}
	if book.Version != model.DefaultVersion {
		t.Errorf("Expected version %q, got %q", model.DefaultVersion, book.Version)
	}
}

func TestGetBook_NotFound(t *testing.T) {
	s := openTestStore(t)
	_, err := s.GetBook(context.Background(), "missing")
	if !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestSaveBook_RoundtripsConfigAndTimestamps(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	book, err := s.CreateBook(ctx, "Round Trip")
	if err != nil {
		t.Fatalf("CreateBook failed: %v", err)
	}

	book.Config.Chapters["ch1"] = model.Chapter{ID: "ch1", Title: "Opening", FileName: "opening-abcd1234.md"}
	book.Config.ChapterOrder = []string{"ch1"}
	book.Config.Ideas["ch1"] = []model.Idea{{ID: "i1", Text: "a twist", Order: 0}}
	book.Source = model.SourceCloud
	book.SyncStatus = model.SyncInSync
	cloudTime := time.Date(2026, 1, 2, 3, 4, 5, 600000000, time.UTC)
	book.CloudLastModified = &cloudTime
	book.CloudFolderPath = "Draftvault/" + book.ID

	if err := s.SaveBook(ctx, book); err != nil {
		t.Fatalf("SaveBook failed: %v", err)
	}

	got, err := s.GetBook(ctx, book.ID)
	if err != nil {
		t.Fatalf("GetBook failed: %v", err)
	}
	if got.Config.Chapters["ch1"].Title != "Opening" {
		t.Errorf("Chapter did not round-trip: %+v", got.Config.Chapters)
	}
	if len(got.Config.Ideas["ch1"]) != 1 || got.Config.Ideas["ch1"][0].Text != "a twist" {
		t.Errorf("Ideas did not round-trip: %+v", got.Config.Ideas)
	}
	if got.CloudLastModified == nil || !got.CloudLastModified.Equal(cloudTime) {
		t.Errorf("Expected cloud timestamp %v, got %v", cloudTime, got.CloudLastModified)
	}
	if got.SyncStatus != model.SyncInSync {
		t.Errorf("Expected in_sync, got %q", got.SyncStatus)
	}
	if got.CloudFolderPath != book.CloudFolderPath {
		t.Errorf("Expected folder path %q, got %q", book.CloudFolderPath, got.CloudFolderPath)
	}
}

func TestGetBookByName(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	created, _ := s.CreateBook(ctx, "Named")
	got, err := s.GetBookByName(ctx, "Named")
	if err != nil {
		t.Fatalf("GetBookByName failed: %v", err)
	}
	if got.ID != created.ID {
		t.Error("Wrong book returned")
	}

	if _, err := s.GetBookByName(ctx, "named"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("Name lookup should be case-sensitive, got %v", err)
	}
}

func TestListBooks_OrderedByName(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	for _, name := range []string{"Zeta", "Alpha", "Mid"} {
		if _, err := s.CreateBook(ctx, name); err != nil {
			t.Fatalf("CreateBook %s failed: %v", name, err)
		}
	}
	books, err := s.ListBooks(ctx)
	if err != nil {
		t.Fatalf("ListBooks failed: %v", err)
	}
	if len(books) != 3 {
		t.Fatalf("Expected 3 books, got %d", len(books))
	}
	if books[0].Name != "Alpha" || books[1].Name != "Mid" || books[2].Name != "Zeta" {
		t.Errorf("Books not ordered by name: %s, %s, %s", books[0].Name, books[1].Name, books[2].Name)
	}
}

func TestDeleteBook_CascadesChapters(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	book, _ := s.CreateBook(ctx, "Doomed")
	if err := s.SaveChapterContent(ctx, book.ID, "one.md", []byte("text"), false); err != nil {
		t.Fatalf("SaveChapterContent failed: %v", err)
	}

	if err := s.DeleteBook(ctx, book.ID); err != nil {
		t.Fatalf("DeleteBook failed: %v", err)
	}
	if _, err := s.GetBook(ctx, book.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("Expected book gone, got %v", err)
	}
	if _, err := s.GetChapterContent(ctx, book.ID, "one.md"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("Expected chapter content gone, got %v", err)
	}

	if err := s.DeleteBook(ctx, book.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("Expected ErrNotFound on second delete, got %v", err)
	}
}
