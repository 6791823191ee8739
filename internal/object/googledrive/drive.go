// Package googledrive implements object.Store on the Google Drive v3 API.
package googledrive

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"google.golang.org/api/drive/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"draftvault/internal/object"
)

const metadataFields = "id, name, mimeType, modifiedTime, size, parents"

// Store implements object.Store for Google Drive.
type Store struct {
	service *drive.Service
}

// New creates a Drive-backed store. client must be an authenticated
// http.Client carrying the user's OAuth credentials.
func New(ctx context.Context, client *http.Client) (*Store, error) {
	srv, err := drive.NewService(ctx, option.WithHTTPClient(client))
	if err != nil {
		return nil, fmt.Errorf("unable to create Drive client: %w", err)
	}
	return &Store{service: srv}, nil
}

// escapeQuery escapes single quotes and backslashes for Drive query strings.
func escapeQuery(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	return strings.ReplaceAll(s, `'`, `\'`)
}

func toMetadata(f *drive.File) object.FileMetadata {
	modTime, _ := time.Parse(time.RFC3339, f.ModifiedTime)
	return object.FileMetadata{
		ID:           f.Id,
		Name:         f.Name,
		MIMEType:     f.MimeType,
		ModifiedTime: modTime,
		Size:         f.Size,
		Parents:      f.Parents,
	}
}

func isNotFound(err error) bool {
	var gErr *googleapi.Error
	if errors.As(err, &gErr) {
		return gErr.Code == http.StatusNotFound
	}
	return false
}

// ListFolder lists the direct children of a folder.
func (s *Store) ListFolder(ctx context.Context, folderID string) ([]object.FileMetadata, error) {
	q := fmt.Sprintf("'%s' in parents and trashed = false", escapeQuery(folderID))

	var files []object.FileMetadata
	pageToken := ""
	for {
		call := s.service.Files.List().
			Q(q).
			Fields(googleapi.Field("nextPageToken, files(" + metadataFields + ")")).
			Context(ctx)
		if pageToken != "" {
			call = call.PageToken(pageToken)
		}
		r, err := call.Do()
		if err != nil {
			if isNotFound(err) {
				return nil, object.ErrNotFound
			}
			return nil, fmt.Errorf("unable to list folder: %w", err)
		}
		for _, f := range r.Files {
			files = append(files, toMetadata(f))
		}
		if r.NextPageToken == "" {
			break
		}
		pageToken = r.NextPageToken
	}
	return files, nil
}

// FindInFolder finds the first object with the exact name under the parent.
func (s *Store) FindInFolder(ctx context.Context, folderID, name, mimeType string) (*object.FileMetadata, error) {
	q := fmt.Sprintf("name = '%s' and '%s' in parents and trashed = false",
		escapeQuery(name), escapeQuery(folderID))
	if mimeType != "" {
		q += fmt.Sprintf(" and mimeType = '%s'", escapeQuery(mimeType))
	}

	r, err := s.service.Files.List().
		Q(q).
		PageSize(1).
		Fields(googleapi.Field("files(" + metadataFields + ")")).
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("unable to search folder: %w", err)
	}
	if len(r.Files) == 0 {
		return nil, object.ErrNotFound
	}
	meta := toMetadata(r.Files[0])
	return &meta, nil
}

// GetFile retrieves a file's content and metadata by id.
func (s *Store) GetFile(ctx context.Context, fileID string) (*object.File, error) {
	f, err := s.service.Files.Get(fileID).
		Fields(googleapi.Field(metadataFields)).
		Context(ctx).
		Do()
	if err != nil {
		if isNotFound(err) {
			return nil, object.ErrNotFound
		}
		return nil, fmt.Errorf("unable to get file metadata: %w", err)
	}

	var content []byte
	if f.MimeType != object.FolderMIMEType {
		resp, err := s.service.Files.Get(fileID).Context(ctx).Download()
		if err != nil {
			return nil, fmt.Errorf("unable to download file: %w", err)
		}
		defer resp.Body.Close()

		content, err = io.ReadAll(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("unable to read file content: %w", err)
		}
	}

	return &object.File{FileMetadata: toMetadata(f), Content: content}, nil
}

// CreateFile creates a new file in the given folder.
func (s *Store) CreateFile(ctx context.Context, name string, content []byte, mimeType, folderID string) (*object.FileMetadata, error) {
	f := &drive.File{
		Name:     name,
		MimeType: mimeType,
		Parents:  []string{folderID},
	}
	res, err := s.service.Files.Create(f).
		Media(bytes.NewReader(content)).
		Fields(googleapi.Field(metadataFields)).
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("unable to create file: %w", err)
	}
	meta := toMetadata(res)
	return &meta, nil
}

// SaveFile overwrites an existing file's content.
func (s *Store) SaveFile(ctx context.Context, fileID string, content []byte) (*object.FileMetadata, error) {
	res, err := s.service.Files.Update(fileID, &drive.File{}).
		Media(bytes.NewReader(content)).
		Fields(googleapi.Field(metadataFields)).
		Context(ctx).
		Do()
	if err != nil {
		if isNotFound(err) {
			return nil, object.ErrNotFound
		}
		return nil, fmt.Errorf("unable to update file: %w", err)
	}
	meta := toMetadata(res)
	return &meta, nil
}

// CreateFolder creates a new folder under the given parent.
func (s *Store) CreateFolder(ctx context.Context, name, parentID string) (*object.FileMetadata, error) {
	f := &drive.File{
		Name:     name,
		MimeType: object.FolderMIMEType,
		Parents:  []string{parentID},
	}
	res, err := s.service.Files.Create(f).
		Fields(googleapi.Field(metadataFields)).
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("unable to create folder: %w", err)
	}
	meta := toMetadata(res)
	return &meta, nil
}

// DeleteFile deletes a file or folder by id. Drive cascades folder deletes
// to their contents.
func (s *Store) DeleteFile(ctx context.Context, fileID string) error {
	if err := s.service.Files.Delete(fileID).Context(ctx).Do(); err != nil {
		if isNotFound(err) {
			return object.ErrNotFound
		}
		return fmt.Errorf("unable to delete file: %w", err)
	}
	return nil
}
