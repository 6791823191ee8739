// Package memory implements object.Store as a mutex-guarded in-memory map.
// It backs tests and offline development.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"draftvault/internal/object"
)

// Store implements object.Store in memory.
type Store struct {
	mu    sync.RWMutex
	files map[string]*object.File
}

// New creates an empty in-memory store.
func New() *Store {
	return &Store{files: make(map[string]*object.File)}
}

func (s *Store) isChild(f *object.File, folderID string) bool {
	for _, p := range f.Parents {
		if p == folderID {
			return true
		}
	}
	// Objects with no parent live at the root.
	return folderID == object.RootFolderID && len(f.Parents) == 0
}

// ListFolder lists the direct children of a folder.
func (s *Store) ListFolder(ctx context.Context, folderID string) ([]object.FileMetadata, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []object.FileMetadata
	for _, f := range s.files {
		if s.isChild(f, folderID) {
			out = append(out, f.FileMetadata)
		}
	}
	return out, nil
}

// FindInFolder finds the first object with the exact name under the parent.
func (s *Store) FindInFolder(ctx context.Context, folderID, name, mimeType string) (*object.FileMetadata, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, f := range s.files {
		if f.Name != name || !s.isChild(f, folderID) {
			continue
		}
		if mimeType != "" && f.MIMEType != mimeType {
			continue
		}
		meta := f.FileMetadata
		return &meta, nil
	}
	return nil, object.ErrNotFound
}

// GetFile retrieves a file's content and metadata by id.
func (s *Store) GetFile(ctx context.Context, fileID string) (*object.File, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	f, ok := s.files[fileID]
	if !ok {
		return nil, object.ErrNotFound
	}
	content := make([]byte, len(f.Content))
	copy(content, f.Content)
	return &object.File{FileMetadata: f.FileMetadata, Content: content}, nil
}

// CreateFile creates a new file in the given folder.
func (s *Store) CreateFile(ctx context.Context, name string, content []byte, mimeType, folderID string) (*object.FileMetadata, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored := make([]byte, len(content))
	copy(stored, content)

	f := &object.File{
		FileMetadata: object.FileMetadata{
			ID:           uuid.New().String(),
			Name:         name,
			MIMEType:     mimeType,
			ModifiedTime: time.Now(),
			Size:         int64(len(content)),
			Parents:      []string{folderID},
		},
		Content: stored,
	}
	s.files[f.ID] = f
	meta := f.FileMetadata
	return &meta, nil
}

// SaveFile overwrites an existing file's content.
func (s *Store) SaveFile(ctx context.Context, fileID string, content []byte) (*object.FileMetadata, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, ok := s.files[fileID]
	if !ok {
		return nil, object.ErrNotFound
	}
	stored := make([]byte, len(content))
	copy(stored, content)
	f.Content = stored
	f.Size = int64(len(content))
	f.ModifiedTime = time.Now()
	meta := f.FileMetadata
	return &meta, nil
}

// CreateFolder creates a new folder under the given parent.
func (s *Store) CreateFolder(ctx context.Context, name, parentID string) (*object.FileMetadata, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	f := &object.File{
		FileMetadata: object.FileMetadata{
			ID:           uuid.New().String(),
			Name:         name,
			MIMEType:     object.FolderMIMEType,
			ModifiedTime: time.Now(),
			Parents:      []string{parentID},
		},
	}
	s.files[f.ID] = f
	meta := f.FileMetadata
	return &meta, nil
}

// DeleteFile deletes a file or folder by id, cascading to folder contents.
func (s *Store) DeleteFile(ctx context.Context, fileID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.files[fileID]; !ok {
		return object.ErrNotFound
	}
	s.deleteRecursive(fileID)
	return nil
}

func (s *Store) deleteRecursive(fileID string) {
	var children []string
	for id, f := range s.files {
		for _, p := range f.Parents {
			if p == fileID {
				children = append(children, id)
				break
			}
		}
	}
	for _, id := range children {
		s.deleteRecursive(id)
	}
	delete(s.files, fileID)
}

// Len reports the number of stored objects. Test helper.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.files)
}
