// Package object abstracts the hierarchical remote object store (folders and
// files addressed by opaque ids, looked up by name within a parent). This
// allows switching providers without changing the sync logic, and gives tests
// an in-memory implementation.
package object

import (
	"context"
	"errors"
	"time"
)

// MIME types shared by all implementations.
const (
	FolderMIMEType   = "application/vnd.google-apps.folder"
	JSONMIMEType     = "application/json"
	MarkdownMIMEType = "text/markdown"
)

// RootFolderID addresses the provider's top-level folder.
const RootFolderID = "root"

var (
	// ErrNotFound is returned when a requested object does not exist.
	ErrNotFound = errors.New("object not found")
)

// FileMetadata describes a file or folder in the remote store.
type FileMetadata struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	MIMEType     string    `json:"mimeType"`
	ModifiedTime time.Time `json:"modifiedTime"`
	Size         int64     `json:"size"`
	Parents      []string  `json:"parents,omitempty"`
}

// IsFolder reports whether the object is a folder.
func (m FileMetadata) IsFolder() bool {
	return m.MIMEType == FolderMIMEType
}

// File is a file together with its content.
type File struct {
	FileMetadata
	Content []byte `json:"content"`
}

// Store is the provider-neutral interface over the remote object hierarchy.
//
// FindInFolder looks up by exact name within a parent and returns the first
// match; it does not defend against two same-named objects in one folder,
// which can occur if two processes race a create.
type Store interface {
	// ListFolder lists the direct children of a folder.
	ListFolder(ctx context.Context, folderID string) ([]FileMetadata, error)

	// FindInFolder finds the first object with the exact name under the
	// parent. mimeType narrows the match when non-empty. Returns
	// ErrNotFound when nothing matches.
	FindInFolder(ctx context.Context, folderID, name, mimeType string) (*FileMetadata, error)

	// GetFile retrieves a file's content and metadata by id.
	GetFile(ctx context.Context, fileID string) (*File, error)

	// CreateFile creates a new file in the given folder.
	CreateFile(ctx context.Context, name string, content []byte, mimeType, folderID string) (*FileMetadata, error)

	// SaveFile overwrites an existing file's content.
	SaveFile(ctx context.Context, fileID string, content []byte) (*FileMetadata, error)

	// CreateFolder creates a new folder under the given parent.
	CreateFolder(ctx context.Context, name, parentID string) (*FileMetadata, error)

	// DeleteFile deletes a file or folder by id. Deleting a folder
	// cascades to its contents.
	DeleteFile(ctx context.Context, fileID string) error
}
