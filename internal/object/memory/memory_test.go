package memory

import (
	"context"
	"errors"
	"testing"

	"draftvault/internal/object"
)

func TestMemoryStore_CreateAndList(t *testing.T) {
	s := New()
	ctx := context.Background()

	meta, err := s.CreateFile(ctx, "books.json", []byte("{}"), object.JSONMIMEType, object.RootFolderID)
	if err != nil {
		t.Fatalf("CreateFile failed: %v", err)
	}
	if meta.Name != "books.json" {
		t.Errorf("Expected name 'books.json', got %q", meta.Name)
	}
	if meta.MIMEType != object.JSONMIMEType {
		t.Errorf("Expected JSON mime type, got %q", meta.MIMEType)
	}

	files, err := s.ListFolder(ctx, object.RootFolderID)
	if err != nil {
		t.Fatalf("ListFolder failed: %v", err)
	}
	if len(files) != 1 {
		t.Fatalf("Expected 1 file, got %d", len(files))
	}
	if files[0].ID != meta.ID {
		t.Error("File ID mismatch")
	}
}

func TestMemoryStore_GetFile_NotFound(t *testing.T) {
	s := New()
	_, err := s.GetFile(context.Background(), "nonexistent-id")
	if !errors.Is(err, object.ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestMemoryStore_FindInFolder(t *testing.T) {
	s := New()
	ctx := context.Background()

	folder, err := s.CreateFolder(ctx, "Draftvault", object.RootFolderID)
	if err != nil {
		t.Fatalf("CreateFolder failed: %v", err)
	}
	if _, err := s.CreateFile(ctx, "info.json", []byte("{}"), object.JSONMIMEType, folder.ID); err != nil {
		t.Fatalf("CreateFile failed: %v", err)
	}

	found, err := s.FindInFolder(ctx, folder.ID, "info.json", "")
	if err != nil {
		t.Fatalf("FindInFolder failed: %v", err)
	}
	if found.Name != "info.json" {
		t.Errorf("Expected 'info.json', got %q", found.Name)
	}

	// Mime type filter excludes non-folders.
	if _, err := s.FindInFolder(ctx, folder.ID, "info.json", object.FolderMIMEType); !errors.Is(err, object.ErrNotFound) {
		t.Errorf("Expected ErrNotFound with folder mime filter, got %v", err)
	}

	// Wrong parent.
	if _, err := s.FindInFolder(ctx, object.RootFolderID, "info.json", ""); !errors.Is(err, object.ErrNotFound) {
		t.Errorf("Expected ErrNotFound in root, got %v", err)
	}
}

func TestMemoryStore_SaveFile(t *testing.T) {
	s := New()
	ctx := context.Background()

	meta, _ := s.CreateFile(ctx, "ch.md", []byte("v1"), object.MarkdownMIMEType, object.RootFolderID)
	if _, err := s.SaveFile(ctx, meta.ID, []byte("v2 longer")); err != nil {
		t.Fatalf("SaveFile failed: %v", err)
	}

	f, err := s.GetFile(ctx, meta.ID)
	if err != nil {
		t.Fatalf("GetFile failed: %v", err)
	}
	if string(f.Content) != "v2 longer" {
		t.Errorf("Expected updated content, got %q", f.Content)
	}
	if f.Size != int64(len("v2 longer")) {
		t.Errorf("Expected size %d, got %d", len("v2 longer"), f.Size)
	}
}

func TestMemoryStore_SaveFile_NotFound(t *testing.T) {
	s := New()
	if _, err := s.SaveFile(context.Background(), "missing", []byte("x")); !errors.Is(err, object.ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestMemoryStore_DeleteFile_Cascades(t *testing.T) {
	s := New()
	ctx := context.Background()

	app, _ := s.CreateFolder(ctx, "Draftvault", object.RootFolderID)
	book, _ := s.CreateFolder(ctx, "book-1", app.ID)
	chaptersFolder, _ := s.CreateFolder(ctx, "chapters", book.ID)
	ch, _ := s.CreateFile(ctx, "intro.md", []byte("# Intro"), object.MarkdownMIMEType, chaptersFolder.ID)

	if err := s.DeleteFile(ctx, book.ID); err != nil {
		t.Fatalf("DeleteFile failed: %v", err)
	}
	if _, err := s.GetFile(ctx, ch.ID); !errors.Is(err, object.ErrNotFound) {
		t.Errorf("Expected chapter to be cascade-deleted, got %v", err)
	}
	if s.Len() != 1 {
		t.Errorf("Expected only the app folder to remain, got %d objects", s.Len())
	}
}

func TestMemoryStore_ContentIsolation(t *testing.T) {
	s := New()
	ctx := context.Background()

	src := []byte("original")
	meta, _ := s.CreateFile(ctx, "a.md", src, object.MarkdownMIMEType, object.RootFolderID)
	src[0] = 'X'

	f, _ := s.GetFile(ctx, meta.ID)
	if string(f.Content) != "original" {
		t.Errorf("Store shares memory with caller: got %q", f.Content)
	}

	f.Content[0] = 'Y'
	again, _ := s.GetFile(ctx, meta.ID)
	if string(again.Content) != "original" {
		t.Errorf("Returned content aliases stored content: got %q", again.Content)
	}
}
