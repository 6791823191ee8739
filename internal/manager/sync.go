package manager

import (
	"context"
	"errors"
	"fmt"
	"time"

	"draftvault/internal/domain"
	"draftvault/internal/model"
	"draftvault/internal/object"
)

// Direction selects which side of a sync wins.
type Direction string

const (
	// DirectionPush uploads the local state over the cloud copy.
	DirectionPush Direction = "push"
	// DirectionPull replaces the local state with the cloud copy.
	DirectionPull Direction = "pull"
)

// autoSyncTimeout bounds a background push triggered by a local edit.
const autoSyncTimeout = 2 * time.Minute

// ExportBookToCloud uploads a local-only book for the first time. Re-running
// after a partial failure converges; the book appears in cloud listings only
// once the final index commit lands.
func (m *Manager) ExportBookToCloud(ctx context.Context, id string) error {
	if err := m.requireRemote(); err != nil {
		return err
	}
	book, err := m.store.GetBook(ctx, id)
	if err != nil {
		return err
	}
	if !m.gate.TryStart() {
		return domain.ErrSyncBusy
	}
	defer m.gate.Finish()

	index, err := m.cloud.BooksIndex(ctx)
	if err != nil {
		return remoteErr("read cloud index", err)
	}
	for remoteID, entry := range index.Books {
		if entry.Name == book.Name && remoteID != book.ID {
			return fmt.Errorf("cloud book %q: %w", book.Name, domain.ErrNameConflict)
		}
	}

	return m.pushBook(ctx, book, time.Now().UTC())
}

// ImportCloudBook downloads a cloud book that has no local copy yet. The
// book keeps its remote id, so later pushes and pulls address the same
// folder.
func (m *Manager) ImportCloudBook(ctx context.Context, cloudBookID string) (*model.Book, error) {
	if err := m.requireRemote(); err != nil {
		return nil, err
	}
	if _, err := m.store.GetBook(ctx, cloudBookID); err == nil {
		return nil, fmt.Errorf("book %s: %w", cloudBookID, domain.ErrImportConflict)
	} else if !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}
	if !m.gate.TryStart() {
		return nil, domain.ErrSyncBusy
	}
	defer m.gate.Finish()

	info, chapters, err := m.cloud.ImportBook(ctx, cloudBookID)
	if errors.Is(err, object.ErrNotFound) {
		return nil, fmt.Errorf("cloud book %s: %w", cloudBookID, domain.ErrNotFound)
	}
	if err != nil {
		return nil, remoteErr("import cloud book", err)
	}

	if other, err := m.store.GetBookByName(ctx, info.Name); err == nil && other.ID != info.ID {
		return nil, fmt.Errorf("%q: %w", info.Name, domain.ErrNameConflict)
	} else if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}

	now := time.Now().UTC()
	lastModified := info.LastModified
	book := &model.Book{
		ID:                info.ID,
		Name:              info.Name,
		Source:            model.SourceImported,
		SyncStatus:        model.SyncInSync,
		Config:            info.Config,
		LocalLastModified: lastModified,
		CloudLastModified: &lastModified,
		Version:           info.Version,
		CloudFolderPath:   m.cloudFolderPath(info.ID),
	}
	book.Config.Normalize()
	if err := m.store.SaveBook(ctx, book); err != nil {
		return nil, err
	}
	for _, ch := range chapters {
		if err := m.store.SaveChapterContent(ctx, book.ID, ch.FileName, ch.Content, true); err != nil {
			return nil, err
		}
	}
	if err := m.store.UpsertSyncMetadata(ctx, book.CloudFolderPath, now); err != nil {
		return nil, err
	}
	m.logger.Info("imported cloud book", "book_id", book.ID, "name", book.Name)
	return book, nil
}

// SyncBookWithCloud pushes or pulls one book. Without force, a push is
// rejected when the cloud copy changed since the last transfer, and a pull
// is rejected when local edits would be discarded.
func (m *Manager) SyncBookWithCloud(ctx context.Context, id string, direction Direction, force bool) error {
	if err := m.requireRemote(); err != nil {
		return err
	}
	book, err := m.store.GetBook(ctx, id)
	if err != nil {
		return err
	}
	if book.SyncStatus == model.SyncLocalOnly {
		return fmt.Errorf("book %q: %w", book.Name, domain.ErrNotExportable)
	}
	if !m.gate.TryStart() {
		return domain.ErrSyncBusy
	}
	defer m.gate.Finish()

	switch direction {
	case DirectionPush:
		return m.syncPush(ctx, book, force)
	case DirectionPull:
		return m.syncPull(ctx, book, force)
	default:
		return fmt.Errorf("unknown sync direction %q", direction)
	}
}

// BatchFailure records a book that failed within a batch sync.
type BatchFailure struct {
	BookID string
	Name   string
	Err    error
}

// BatchResult summarizes a batch sync run.
type BatchResult struct {
	Synced []string
	Failed []BatchFailure
}

// SyncAllOutOfSyncBooks pushes every out-of-sync book. A failure on one book
// does not stop the rest.
func (m *Manager) SyncAllOutOfSyncBooks(ctx context.Context, force bool) (*BatchResult, error) {
	if err := m.requireRemote(); err != nil {
		return nil, err
	}
	books, err := m.ListOutOfSyncBooks(ctx)
	if err != nil {
		return nil, err
	}
	if !m.gate.TryStart() {
		return nil, domain.ErrSyncBusy
	}
	defer m.gate.Finish()

	result := &BatchResult{}
	for _, book := range books {
		if err := m.syncPush(ctx, book, force); err != nil {
			m.logger.Warn("batch sync failed for book", "book_id", book.ID, "error", err)
			result.Failed = append(result.Failed, BatchFailure{BookID: book.ID, Name: book.Name, Err: err})
			continue
		}
		result.Synced = append(result.Synced, book.ID)
	}
	return result, nil
}

// TriggerAutoSync starts a background push of one book after a local edit.
// It is a no-op when auto sync is off or the user is signed out, and it
// never surfaces errors to the editing flow.
func (m *Manager) TriggerAutoSync(bookID string) {
	if !m.settings.SyncEnabled || !m.settings.AutoSync || !m.SignedIn() {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), autoSyncTimeout)
		defer cancel()
		err := m.SyncBookWithCloud(ctx, bookID, DirectionPush, false)
		switch {
		case err == nil:
			m.logger.Debug("auto sync completed", "book_id", bookID)
		case errors.Is(err, domain.ErrSyncBusy), errors.Is(err, domain.ErrNotExportable):
			m.logger.Debug("auto sync skipped", "book_id", bookID, "reason", err)
		default:
			m.logger.Warn("auto sync failed", "book_id", bookID, "error", err)
		}
	}()
}

// syncPush uploads the book. Callers hold the gate.
func (m *Manager) syncPush(ctx context.Context, book *model.Book, force bool) error {
	remote, err := m.cloud.BookInfo(ctx, book.ID)
	switch {
	case errors.Is(err, object.ErrNotFound):
		// Cloud copy vanished; push recreates it.
		remote = nil
	case err != nil:
		return remoteErr("read cloud book info", err)
	}

	if !force && remote != nil && book.CloudLastModified != nil &&
		remote.LastModified.After(*book.CloudLastModified) {
		return fmt.Errorf("cloud copy of %q changed at %s: %w",
			book.Name, remote.LastModified.Format(time.RFC3339), domain.ErrConflict)
	}

	now := time.Now().UTC()
	if err := m.pushBookWithRemote(ctx, book, remote, now); err != nil {
		return err
	}
	return nil
}

// syncPull replaces the local copy with the cloud copy. Callers hold the
// gate.
func (m *Manager) syncPull(ctx context.Context, book *model.Book, force bool) error {
	if !force && book.SyncStatus == model.SyncOutOfSync {
		return fmt.Errorf("book %q has unpushed local edits: %w", book.Name, domain.ErrConflict)
	}

	info, chapters, err := m.cloud.ImportBook(ctx, book.ID)
	if errors.Is(err, object.ErrNotFound) {
		return fmt.Errorf("cloud copy of book %q: %w", book.Name, domain.ErrNotFound)
	}
	if err != nil {
		return remoteErr("pull cloud book", err)
	}

	if other, err := m.store.GetBookByName(ctx, info.Name); err == nil && other.ID != book.ID {
		return fmt.Errorf("%q: %w", info.Name, domain.ErrNameConflict)
	} else if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return err
	}

	before := make(map[string]bool)
	existing, err := m.store.ListChapterFiles(ctx, book.ID)
	if err != nil {
		return err
	}
	for _, name := range existing {
		before[name] = true
	}

	now := time.Now().UTC()
	lastModified := info.LastModified
	book.Name = info.Name
	book.Config = info.Config
	book.Config.Normalize()
	book.Version = info.Version
	book.SyncStatus = model.SyncInSync
	book.LocalLastModified = lastModified
	book.CloudLastModified = &lastModified
	book.CloudFolderPath = m.cloudFolderPath(book.ID)
	if err := m.store.SaveBook(ctx, book); err != nil {
		return err
	}

	for _, ch := range chapters {
		if err := m.store.SaveChapterContent(ctx, book.ID, ch.FileName, ch.Content, true); err != nil {
			return err
		}
		delete(before, ch.FileName)
	}
	// Whatever the cloud no longer has is gone locally too.
	for name := range before {
		if err := m.store.DeleteChapterContent(ctx, book.ID, name); err != nil {
			return err
		}
	}

	if err := m.store.UpsertSyncMetadata(ctx, book.CloudFolderPath, now); err != nil {
		return err
	}
	m.logger.Info("pulled book", "book_id", book.ID, "chapters", len(chapters))
	return nil
}

// pushBook uploads the book when no remote info has been fetched yet.
func (m *Manager) pushBook(ctx context.Context, book *model.Book, now time.Time) error {
	remote, err := m.cloud.BookInfo(ctx, book.ID)
	if err != nil && !errors.Is(err, object.ErrNotFound) {
		return remoteErr("read cloud book info", err)
	}
	return m.pushBookWithRemote(ctx, book, remote, now)
}

func (m *Manager) pushBookWithRemote(ctx context.Context, book *model.Book, remote *model.BookInfo, now time.Time) error {
	createdAt := now
	if remote != nil {
		createdAt = remote.CreatedAt
	}
	// The remote copy carries the local watermark, so after a transfer the
	// two sides agree on one modification instant.
	modified := book.LocalLastModified
	info := &model.BookInfo{
		ID:           book.ID,
		Name:         book.Name,
		Version:      book.Version,
		CreatedAt:    createdAt,
		LastModified: modified,
		Config:       book.Config.Clone(),
	}
	chapters, err := m.chapterFiles(ctx, book)
	if err != nil {
		return err
	}
	if err := m.cloud.ExportBook(ctx, info, chapters); err != nil {
		return remoteErr("export book", err)
	}

	if book.Source == model.SourceLocal {
		book.Source = model.SourceCloud
	}
	book.SyncStatus = model.SyncInSync
	book.CloudLastModified = &modified
	book.CloudFolderPath = m.cloudFolderPath(book.ID)
	if err := m.store.SaveBook(ctx, book); err != nil {
		return err
	}
	for _, ch := range chapters {
		// Chapters without a stored row went up as empty files; there is no
		// local row to mark.
		err := m.store.MarkChapterSynced(ctx, book.ID, ch.FileName)
		if err != nil && !errors.Is(err, domain.ErrNotFound) {
			return err
		}
	}
	if err := m.store.UpsertSyncMetadata(ctx, book.CloudFolderPath, now); err != nil {
		return err
	}
	m.logger.Info("pushed book", "book_id", book.ID, "chapters", len(chapters))
	return nil
}

// chapterFiles reads every chapter's content in order. Chapters without a
// stored file upload as empty.
func (m *Manager) chapterFiles(ctx context.Context, book *model.Book) ([]model.ChapterFile, error) {
	chapters := book.Config.OrderedChapters()
	out := make([]model.ChapterFile, 0, len(chapters))
	for _, ch := range chapters {
		content, err := m.store.GetChapterContent(ctx, book.ID, ch.FileName)
		if errors.Is(err, domain.ErrNotFound) {
			content = []byte{}
		} else if err != nil {
			return nil, err
		}
		out = append(out, model.ChapterFile{FileName: ch.FileName, Content: content})
	}
	return out, nil
}
