// Package cloud translates book operations into remote folder/file
// operations against the hierarchical object store. One well-known app
// folder holds a books.json index plus one folder per book, named by the
// book id so display-name renames never move remote folders:
//
//	<app-folder>/
//	  books.json
//	  <bookId>/
//	    info.json
//	    chapters/
//	      <fileName>.md
package cloud

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"draftvault/internal/model"
	"draftvault/internal/object"
)

const (
	// DefaultAppFolderName is the well-known root folder for the app.
	DefaultAppFolderName = "Draftvault"

	indexFileName      = "books.json"
	infoFileName       = "info.json"
	chaptersFolderName = "chapters"

	// uploadConcurrency bounds parallel chapter uploads on export.
	uploadConcurrency = 4
)

// Client is the remote adapter. It is stateless apart from the cached app
// folder id.
type Client struct {
	store         object.Store
	appFolderName string
	logger        *slog.Logger

	mu          sync.Mutex
	appFolderID string
}

// New creates a remote adapter over the given object store.
func New(store object.Store, appFolderName string, logger *slog.Logger) *Client {
	if appFolderName == "" {
		appFolderName = DefaultAppFolderName
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{store: store, appFolderName: appFolderName, logger: logger}
}

// EnsureAppFolder finds or creates the app's root folder and caches its id
// for the client's lifetime.
func (c *Client) EnsureAppFolder(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.appFolderID != "" {
		return c.appFolderID, nil
	}

	id, err := c.ensureFolder(ctx, object.RootFolderID, c.appFolderName)
	if err != nil {
		return "", fmt.Errorf("ensure app folder: %w", err)
	}
	c.appFolderID = id
	return id, nil
}

// ensureFolder is an idempotent find-or-create of a folder by exact name.
func (c *Client) ensureFolder(ctx context.Context, parentID, name string) (string, error) {
	meta, err := c.store.FindInFolder(ctx, parentID, name, object.FolderMIMEType)
	if err == nil {
		return meta.ID, nil
	}
	if !errors.Is(err, object.ErrNotFound) {
		return "", err
	}
	created, err := c.store.CreateFolder(ctx, name, parentID)
	if err != nil {
		return "", err
	}
	return created.ID, nil
}

// createOrUpdate writes a file by exact name within a folder, creating it if
// absent and overwriting it otherwise.
func (c *Client) createOrUpdate(ctx context.Context, folderID, name string, content []byte, mimeType string) error {
	meta, err := c.store.FindInFolder(ctx, folderID, name, "")
	if err == nil {
		_, err = c.store.SaveFile(ctx, meta.ID, content)
		return err
	}
	if !errors.Is(err, object.ErrNotFound) {
		return err
	}
	_, err = c.store.CreateFile(ctx, name, content, mimeType, folderID)
	return err
}

// BooksIndex reads the root index file. A missing index is not an error: it
// simply means nothing has been exported yet, so an empty index is returned.
func (c *Client) BooksIndex(ctx context.Context) (*model.BooksIndex, error) {
	appID, err := c.EnsureAppFolder(ctx)
	if err != nil {
		return nil, err
	}

	meta, err := c.store.FindInFolder(ctx, appID, indexFileName, "")
	if errors.Is(err, object.ErrNotFound) {
		return model.NewBooksIndex(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("find books index: %w", err)
	}

	file, err := c.store.GetFile(ctx, meta.ID)
	if err != nil {
		return nil, fmt.Errorf("read books index: %w", err)
	}

	index := model.NewBooksIndex()
	if err := json.Unmarshal(file.Content, index); err != nil {
		return nil, fmt.Errorf("decode books index: %w", err)
	}
	if index.Books == nil {
		index.Books = make(map[string]model.IndexEntry)
	}
	return index, nil
}

// UpdateBooksIndex writes the root index file, stamping LastUpdated.
func (c *Client) UpdateBooksIndex(ctx context.Context, index *model.BooksIndex) error {
	appID, err := c.EnsureAppFolder(ctx)
	if err != nil {
		return err
	}

	index.LastUpdated = time.Now().UTC()
	content, err := json.MarshalIndent(index, "", "  ")
	if err != nil {
		return fmt.Errorf("encode books index: %w", err)
	}
	if err := c.createOrUpdate(ctx, appID, indexFileName, content, object.JSONMIMEType); err != nil {
		return fmt.Errorf("write books index: %w", err)
	}
	return nil
}

// EnsureBookFolder finds or creates the folder for a book, named by its id.
func (c *Client) EnsureBookFolder(ctx context.Context, bookID string) (string, error) {
	appID, err := c.EnsureAppFolder(ctx)
	if err != nil {
		return "", err
	}
	id, err := c.ensureFolder(ctx, appID, bookID)
	if err != nil {
		return "", fmt.Errorf("ensure folder for book %s: %w", bookID, err)
	}
	return id, nil
}

// SaveBookInfo writes the book's info.json.
func (c *Client) SaveBookInfo(ctx context.Context, bookID string, info *model.BookInfo) error {
	folderID, err := c.EnsureBookFolder(ctx, bookID)
	if err != nil {
		return err
	}
	content, err := json.MarshalIndent(info, "", "  ")
	if err != nil {
		return fmt.Errorf("encode info for book %s: %w", bookID, err)
	}
	if err := c.createOrUpdate(ctx, folderID, infoFileName, content, object.JSONMIMEType); err != nil {
		return fmt.Errorf("write info for book %s: %w", bookID, err)
	}
	return nil
}

// BookInfo reads a book's info.json. Returns object.ErrNotFound when the
// book folder or info file is absent.
func (c *Client) BookInfo(ctx context.Context, bookID string) (*model.BookInfo, error) {
	appID, err := c.EnsureAppFolder(ctx)
	if err != nil {
		return nil, err
	}

	folder, err := c.store.FindInFolder(ctx, appID, bookID, object.FolderMIMEType)
	if err != nil {
		return nil, err
	}
	meta, err := c.store.FindInFolder(ctx, folder.ID, infoFileName, "")
	if err != nil {
		return nil, err
	}
	file, err := c.store.GetFile(ctx, meta.ID)
	if err != nil {
		return nil, fmt.Errorf("read info for book %s: %w", bookID, err)
	}

	var info model.BookInfo
	if err := json.Unmarshal(file.Content, &info); err != nil {
		return nil, fmt.Errorf("decode info for book %s: %w", bookID, err)
	}
	info.Config.Normalize()
	return &info, nil
}

// ExportBook uploads a book in two phases: folder, info and all chapter
// files first, the index entry last. A crash before the index commit leaves
// a staged book that the next export converges onto (every step is
// find-before-create), and listings never see a half-uploaded book.
func (c *Client) ExportBook(ctx context.Context, info *model.BookInfo, chapters []model.ChapterFile) error {
	folderID, err := c.EnsureBookFolder(ctx, info.ID)
	if err != nil {
		return err
	}
	if err := c.SaveBookInfo(ctx, info.ID, info); err != nil {
		return err
	}

	chaptersID, err := c.ensureFolder(ctx, folderID, chaptersFolderName)
	if err != nil {
		return fmt.Errorf("ensure chapters folder for book %s: %w", info.ID, err)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(uploadConcurrency)
	for _, ch := range chapters {
		ch := ch
		g.Go(func() error {
			if err := c.createOrUpdate(gctx, chaptersID, ch.FileName, ch.Content, object.MarkdownMIMEType); err != nil {
				return fmt.Errorf("upload chapter %s: %w", ch.FileName, err)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	// Commit phase: the book becomes visible in listings only now.
	index, err := c.BooksIndex(ctx)
	if err != nil {
		return err
	}
	index.Books[info.ID] = model.IndexEntry{
		Name:         info.Name,
		FolderPath:   info.ID,
		LastModified: info.LastModified,
		Version:      info.Version,
	}
	if err := c.UpdateBooksIndex(ctx, index); err != nil {
		return err
	}

	c.logger.Info("exported book", "book_id", info.ID, "chapters", len(chapters))
	return nil
}

// ImportBook reads a book's info and every markdown file under its chapters
// folder. Returns object.ErrNotFound when the book is absent remotely.
func (c *Client) ImportBook(ctx context.Context, bookID string) (*model.BookInfo, []model.ChapterFile, error) {
	info, err := c.BookInfo(ctx, bookID)
	if err != nil {
		return nil, nil, err
	}

	appID, err := c.EnsureAppFolder(ctx)
	if err != nil {
		return nil, nil, err
	}
	folder, err := c.store.FindInFolder(ctx, appID, bookID, object.FolderMIMEType)
	if err != nil {
		return nil, nil, err
	}

	var chapters []model.ChapterFile
	chaptersFolder, err := c.store.FindInFolder(ctx, folder.ID, chaptersFolderName, object.FolderMIMEType)
	if errors.Is(err, object.ErrNotFound) {
		// A book with no chapters has no chapters folder yet.
		return info, chapters, nil
	}
	if err != nil {
		return nil, nil, err
	}

	entries, err := c.store.ListFolder(ctx, chaptersFolder.ID)
	if err != nil {
		return nil, nil, fmt.Errorf("list chapters of book %s: %w", bookID, err)
	}
	for _, entry := range entries {
		if entry.IsFolder() || !strings.HasSuffix(entry.Name, ".md") {
			continue
		}
		file, err := c.store.GetFile(ctx, entry.ID)
		if err != nil {
			return nil, nil, fmt.Errorf("download chapter %s: %w", entry.Name, err)
		}
		chapters = append(chapters, model.ChapterFile{FileName: entry.Name, Content: file.Content})
	}

	c.logger.Info("imported book", "book_id", bookID, "chapters", len(chapters))
	return info, chapters, nil
}

// DeleteBook removes the book's folder (cascading to its contents) and its
// index entry. Both halves are idempotent.
func (c *Client) DeleteBook(ctx context.Context, bookID string) error {
	appID, err := c.EnsureAppFolder(ctx)
	if err != nil {
		return err
	}

	folder, err := c.store.FindInFolder(ctx, appID, bookID, object.FolderMIMEType)
	if err == nil {
		if err := c.store.DeleteFile(ctx, folder.ID); err != nil && !errors.Is(err, object.ErrNotFound) {
			return fmt.Errorf("delete folder of book %s: %w", bookID, err)
		}
	} else if !errors.Is(err, object.ErrNotFound) {
		return err
	}

	index, err := c.BooksIndex(ctx)
	if err != nil {
		return err
	}
	if _, ok := index.Books[bookID]; ok {
		delete(index.Books, bookID)
		if err := c.UpdateBooksIndex(ctx, index); err != nil {
			return err
		}
	}

	c.logger.Info("deleted cloud book", "book_id", bookID)
	return nil
}
