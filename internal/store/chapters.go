package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"draftvault/internal/domain"
	"draftvault/internal/model"
)

// ChapterRef identifies one chapter content entry.
type ChapterRef struct {
	BookID   string
	FileName string
}

// PendingChanges lists everything waiting for the next push: books whose
// status is out_of_sync (by name) and chapters whose content is pending.
type PendingChanges struct {
	Books    []string
	Chapters []ChapterRef
}

// SaveChapterContent stores a chapter's markdown content keyed by
// (bookID, fileName) and stamps its modification time.
//
// On a regular write the chapter is marked pending, the owning book's
// LocalLastModified is bumped, and a book that has a cloud copy flips to
// out_of_sync. When isSync is true the write comes from a pull or import:
// the chapter is marked synced and the book row is left alone, so a pull
// never marks itself dirty.
func (s *Store) SaveChapterContent(ctx context.Context, bookID, fileName string, content []byte, isSync bool) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin chapter write: %w", err)
	}
	defer tx.Rollback()

	now := time.Now().UTC()
	status := model.ChapterPending
	if isSync {
		status = model.ChapterSynced
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO chapters (book_id, file_name, content, last_modified, sync_status)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(book_id, file_name) DO UPDATE SET
			content = excluded.content,
			last_modified = excluded.last_modified,
			sync_status = excluded.sync_status`,
		bookID, fileName, content, now.Format(time.RFC3339Nano), string(status))
	if err != nil {
		return fmt.Errorf("save chapter %s/%s: %w", bookID, fileName, err)
	}

	if !isSync {
		row := tx.QueryRowContext(ctx,
			"SELECT source, sync_status FROM books WHERE id = ?", bookID)
		var source, bookStatus string
		if err := row.Scan(&source, &bookStatus); err == sql.ErrNoRows {
			return domain.ErrNotFound
		} else if err != nil {
			return fmt.Errorf("load book %s: %w", bookID, err)
		}

		// An edit invalidates a synced cloud copy.
		if model.Source(source) != model.SourceLocal {
			bookStatus = string(model.SyncOutOfSync)
		}
		_, err = tx.ExecContext(ctx,
			"UPDATE books SET local_last_modified = ?, sync_status = ? WHERE id = ?",
			now.Format(time.RFC3339Nano), bookStatus, bookID)
		if err != nil {
			return fmt.Errorf("touch book %s: %w", bookID, err)
		}
	}

	return tx.Commit()
}

// GetChapterContent returns the stored markdown for (bookID, fileName).
func (s *Store) GetChapterContent(ctx context.Context, bookID, fileName string) ([]byte, error) {
	var content []byte
	err := s.db.QueryRowContext(ctx,
		"SELECT content FROM chapters WHERE book_id = ? AND file_name = ?",
		bookID, fileName,
	).Scan(&content)
	if err == sql.ErrNoRows {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("read chapter %s/%s: %w", bookID, fileName, err)
	}
	return content, nil
}

// DeleteChapterContent removes one chapter content entry. Deleting a missing
// entry is not an error.
func (s *Store) DeleteChapterContent(ctx context.Context, bookID, fileName string) error {
	_, err := s.db.ExecContext(ctx,
		"DELETE FROM chapters WHERE book_id = ? AND file_name = ?", bookID, fileName)
	if err != nil {
		return fmt.Errorf("delete chapter %s/%s: %w", bookID, fileName, err)
	}
	return nil
}

// ListChapterFiles returns the file names of all stored chapters of a book.
func (s *Store) ListChapterFiles(ctx context.Context, bookID string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT file_name FROM chapters WHERE book_id = ? ORDER BY file_name", bookID)
	if err != nil {
		return nil, fmt.Errorf("list chapters of book %s: %w", bookID, err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan chapter name: %w", err)
		}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list chapters of book %s: %w", bookID, err)
	}
	return names, nil
}

// GetPendingChanges reports everything the incremental-sync queue should
// push: out-of-sync book names and pending chapter entries.
func (s *Store) GetPendingChanges(ctx context.Context) (*PendingChanges, error) {
	pending := &PendingChanges{}

	rows, err := s.db.QueryContext(ctx,
		"SELECT name FROM books WHERE sync_status = ? ORDER BY name",
		string(model.SyncOutOfSync))
	if err != nil {
		return nil, fmt.Errorf("list out-of-sync books: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan pending book: %w", err)
		}
		pending.Books = append(pending.Books, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list out-of-sync books: %w", err)
	}

	chRows, err := s.db.QueryContext(ctx,
		"SELECT book_id, file_name FROM chapters WHERE sync_status = ? ORDER BY book_id, file_name",
		string(model.ChapterPending))
	if err != nil {
		return nil, fmt.Errorf("list pending chapters: %w", err)
	}
	defer chRows.Close()
	for chRows.Next() {
		var ref ChapterRef
		if err := chRows.Scan(&ref.BookID, &ref.FileName); err != nil {
			return nil, fmt.Errorf("scan pending chapter: %w", err)
		}
		pending.Chapters = append(pending.Chapters, ref)
	}
	if err := chRows.Err(); err != nil {
		return nil, fmt.Errorf("list pending chapters: %w", err)
	}

	return pending, nil
}

// MarkChapterSynced flips one chapter's status to synced.
func (s *Store) MarkChapterSynced(ctx context.Context, bookID, fileName string) error {
	res, err := s.db.ExecContext(ctx,
		"UPDATE chapters SET sync_status = ? WHERE book_id = ? AND file_name = ?",
		string(model.ChapterSynced), bookID, fileName)
	if err != nil {
		return fmt.Errorf("mark chapter %s/%s synced: %w", bookID, fileName, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrNotFound
	}
	return nil
}
