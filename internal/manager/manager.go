// Package manager coordinates the book lifecycle across the local store and
// the cloud mirror: create, rename, duplicate, delete, listing, and every
// sync operation. It owns the sync gate and the conflict rules; the store
// and cloud client below it stay policy-free.
package manager

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"draftvault/internal/auth"
	"draftvault/internal/cloud"
	"draftvault/internal/config"
	"draftvault/internal/domain"
	"draftvault/internal/markdown"
	"draftvault/internal/model"
	"draftvault/internal/store"
)

// DeleteScope selects which copies of a book a delete removes.
type DeleteScope string

const (
	DeleteLocal DeleteScope = "local"
	DeleteCloud DeleteScope = "cloud"
	DeleteBoth  DeleteScope = "both"
)

// Manager is the application facade over the store and the cloud client.
type Manager struct {
	store    *store.Store
	cloud    *cloud.Client
	auth     auth.Authenticator
	settings config.Settings
	logger   *slog.Logger
	renderer *markdown.Renderer
	gate     *syncGate
}

// New constructs a Manager. cloudClient and authn may be nil when sync is
// disabled; every remote operation then fails with ErrUnauthenticated.
func New(st *store.Store, cloudClient *cloud.Client, authn auth.Authenticator, settings config.Settings, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		store:    st,
		cloud:    cloudClient,
		auth:     authn,
		settings: settings,
		logger:   logger,
		renderer: markdown.NewRenderer(),
		gate:     newSyncGate(),
	}
}

// BookSummary is the listing view of one book.
type BookSummary struct {
	ID                string
	Name              string
	Source            model.Source
	SyncStatus        model.SyncStatus
	Chapters          int
	Words             int
	LocalLastModified time.Time
	CloudLastModified *time.Time
}

// CloudBook is the listing view of one remote index entry.
type CloudBook struct {
	ID           string
	Name         string
	LastModified time.Time
	Version      string
	// Importable is false when a local copy of the book already exists.
	Importable bool
}

// CreateLocalBook creates a new empty book. Names are unique across all
// local books regardless of source.
func (m *Manager) CreateLocalBook(ctx context.Context, name string) (*model.Book, error) {
	if err := validateName(name); err != nil {
		return nil, err
	}
	if _, err := m.store.GetBookByName(ctx, name); err == nil {
		return nil, fmt.Errorf("%q: %w", name, domain.ErrNameConflict)
	} else if !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}
	book, err := m.store.CreateBook(ctx, name)
	if err != nil {
		return nil, err
	}
	m.logger.Info("created book", "book_id", book.ID, "name", name)
	return book, nil
}

// ResolveName looks a book up by id first, then by exact name.
func (m *Manager) ResolveName(ctx context.Context, nameOrID string) (*model.Book, error) {
	book, err := m.store.GetBook(ctx, nameOrID)
	if err == nil {
		return book, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}
	return m.store.GetBookByName(ctx, nameOrID)
}

// RenameBook changes a book's name. The cloud copy keeps the old name until
// the next push.
func (m *Manager) RenameBook(ctx context.Context, id, newName string) error {
	if err := validateName(newName); err != nil {
		return err
	}
	book, err := m.store.GetBook(ctx, id)
	if err != nil {
		return err
	}
	if other, err := m.store.GetBookByName(ctx, newName); err == nil && other.ID != id {
		return fmt.Errorf("%q: %w", newName, domain.ErrNameConflict)
	} else if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return err
	}

	book.Name = newName
	book.LocalLastModified = time.Now().UTC()
	if book.SyncStatus != model.SyncLocalOnly {
		book.SyncStatus = model.SyncOutOfSync
	}
	return m.store.SaveBook(ctx, book)
}

// DuplicateBook creates a full local copy of a book under a new name. The
// copy gets a fresh id and starts local-only; chapter ids and file names are
// kept so the structure stays comparable.
func (m *Manager) DuplicateBook(ctx context.Context, id, newName string) (*model.Book, error) {
	if err := validateName(newName); err != nil {
		return nil, err
	}
	src, err := m.store.GetBook(ctx, id)
	if err != nil {
		return nil, err
	}
	if _, err := m.store.GetBookByName(ctx, newName); err == nil {
		return nil, fmt.Errorf("%q: %w", newName, domain.ErrNameConflict)
	} else if !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}

	dup, err := m.store.CreateBook(ctx, newName)
	if err != nil {
		return nil, err
	}
	dup.Config = src.Config.Clone()
	if err := m.store.SaveBook(ctx, dup); err != nil {
		return nil, err
	}
	for _, ch := range src.Config.OrderedChapters() {
		content, err := m.store.GetChapterContent(ctx, src.ID, ch.FileName)
		if errors.Is(err, domain.ErrNotFound) {
			content = []byte{}
		} else if err != nil {
			return nil, err
		}
		if err := m.store.SaveChapterContent(ctx, dup.ID, ch.FileName, content, false); err != nil {
			return nil, err
		}
	}
	m.logger.Info("duplicated book", "source_id", src.ID, "book_id", dup.ID, "name", newName)
	return dup, nil
}

// DeleteBook removes a book's local copy, cloud copy, or both. Deleting only
// the cloud copy reverts the local book to local_only. A cloud or both scope
// on a book that was never exported is rejected.
func (m *Manager) DeleteBook(ctx context.Context, id string, scope DeleteScope) error {
	book, err := m.store.GetBook(ctx, id)
	if err != nil {
		return err
	}

	if scope == DeleteCloud || scope == DeleteBoth {
		if book.SyncStatus == model.SyncLocalOnly {
			return fmt.Errorf("book %q has no cloud copy: %w", book.Name, domain.ErrNotExportable)
		}
		if err := m.requireRemote(); err != nil {
			return err
		}
		if err := m.cloud.DeleteBook(ctx, id); err != nil {
			return remoteErr("delete cloud book", err)
		}
	}

	switch scope {
	case DeleteCloud:
		book.SyncStatus = model.SyncLocalOnly
		book.CloudLastModified = nil
		book.CloudFolderPath = ""
		return m.store.SaveBook(ctx, book)
	case DeleteLocal, DeleteBoth:
		return m.store.DeleteBook(ctx, id)
	default:
		return fmt.Errorf("unknown delete scope %q", scope)
	}
}

// ListBooks returns summaries of all local books, including chapter and word
// counts.
func (m *Manager) ListBooks(ctx context.Context) ([]BookSummary, error) {
	books, err := m.store.ListBooks(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]BookSummary, 0, len(books))
	for _, book := range books {
		words, err := m.countWords(ctx, book)
		if err != nil {
			return nil, err
		}
		out = append(out, BookSummary{
			ID:                book.ID,
			Name:              book.Name,
			Source:            book.Source,
			SyncStatus:        book.SyncStatus,
			Chapters:          len(book.Config.Chapters),
			Words:             words,
			LocalLastModified: book.LocalLastModified,
			CloudLastModified: book.CloudLastModified,
		})
	}
	return out, nil
}

// ListOutOfSyncBooks returns the books waiting for a push.
func (m *Manager) ListOutOfSyncBooks(ctx context.Context) ([]*model.Book, error) {
	books, err := m.store.ListBooks(ctx)
	if err != nil {
		return nil, err
	}
	var out []*model.Book
	for _, book := range books {
		if book.SyncStatus == model.SyncOutOfSync {
			out = append(out, book)
		}
	}
	return out, nil
}

// ListCloudBooks lists the remote index. Entries without a local copy are
// importable; the rest are shown for completeness.
func (m *Manager) ListCloudBooks(ctx context.Context) ([]CloudBook, error) {
	if err := m.requireRemote(); err != nil {
		return nil, err
	}
	index, err := m.cloud.BooksIndex(ctx)
	if err != nil {
		return nil, remoteErr("list cloud books", err)
	}
	out := make([]CloudBook, 0, len(index.Books))
	for id, entry := range index.Books {
		importable := false
		if _, err := m.store.GetBook(ctx, id); errors.Is(err, domain.ErrNotFound) {
			importable = true
		} else if err != nil {
			return nil, err
		}
		out = append(out, CloudBook{
			ID:           id,
			Name:         entry.Name,
			LastModified: entry.LastModified,
			Version:      entry.Version,
			Importable:   importable,
		})
	}
	return out, nil
}

// PendingChanges reports what the next push would upload.
func (m *Manager) PendingChanges(ctx context.Context) (*store.PendingChanges, error) {
	return m.store.GetPendingChanges(ctx)
}

// GateState reports whether a sync run is in progress.
func (m *Manager) GateState() GateState {
	return m.gate.State()
}

// SignedIn reports whether remote credentials are available.
func (m *Manager) SignedIn() bool {
	return m.auth != nil && m.auth.SignedIn()
}

func (m *Manager) requireRemote() error {
	if !m.settings.SyncEnabled {
		return fmt.Errorf("sync is disabled in settings: %w", domain.ErrUnauthenticated)
	}
	if m.cloud == nil || m.auth == nil || !m.auth.SignedIn() {
		return domain.ErrUnauthenticated
	}
	return nil
}

// PreviewHTML renders chapter markdown to HTML for display surfaces.
func (m *Manager) PreviewHTML(content []byte) ([]byte, error) {
	return m.renderer.Render(content)
}

func (m *Manager) countWords(ctx context.Context, book *model.Book) (int, error) {
	total := 0
	for _, ch := range book.Config.OrderedChapters() {
		content, err := m.store.GetChapterContent(ctx, book.ID, ch.FileName)
		if errors.Is(err, domain.ErrNotFound) {
			continue
		}
		if err != nil {
			return 0, err
		}
		total += m.renderer.CountWords(content)
	}
	return total, nil
}

func (m *Manager) cloudFolderPath(bookID string) string {
	return path.Join(m.settings.AppFolderName, bookID)
}

func validateName(name string) error {
	return validation.Validate(name,
		validation.Required.Error("book name is required"),
		validation.Length(1, 120),
	)
}
