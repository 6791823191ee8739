package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"draftvault/internal/domain"
	"draftvault/internal/model"
)

const bookColumns = "id, name, source, sync_status, config, local_last_modified, cloud_last_modified, version, cloud_folder_path"

// CreateBook creates a new local-only book with an empty config and a fresh
// id. Name uniqueness is the Book Manager's responsibility; the store does
// not enforce it.
func (s *Store) CreateBook(ctx context.Context, name string) (*model.Book, error) {
	book := &model.Book{
		ID:                uuid.New().String(),
		Name:              name,
		Source:            model.SourceLocal,
		SyncStatus:        model.SyncLocalOnly,
		Config:            model.NewConfig(),
		LocalLastModified: time.Now().UTC(),
		Version:           model.DefaultVersion,
	}
	if err := s.SaveBook(ctx, book); err != nil {
		return nil, err
	}
	return book, nil
}

// GetBook returns the book with the given id, or domain.ErrNotFound.
func (s *Store) GetBook(ctx context.Context, id string) (*model.Book, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT "+bookColumns+" FROM books WHERE id = ?", id)
	return scanBook(row)
}

// GetBookByName returns the book with the exact (case-sensitive) name.
func (s *Store) GetBookByName(ctx context.Context, name string) (*model.Book, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT "+bookColumns+" FROM books WHERE name = ?", name)
	return scanBook(row)
}

// ListBooks returns all books ordered by name.
func (s *Store) ListBooks(ctx context.Context) ([]*model.Book, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+bookColumns+" FROM books ORDER BY name")
	if err != nil {
		return nil, fmt.Errorf("list books: %w", err)
	}
	defer rows.Close()

	var books []*model.Book
	for rows.Next() {
		book, err := scanBook(rows)
		if err != nil {
			return nil, err
		}
		books = append(books, book)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list books: %w", err)
	}
	return books, nil
}

// SaveBook upserts the book, overwriting any previous row wholesale.
func (s *Store) SaveBook(ctx context.Context, book *model.Book) error {
	configJSON, err := json.Marshal(book.Config)
	if err != nil {
		return fmt.Errorf("marshal book config: %w", err)
	}

	var cloudModified sql.NullString
	if book.CloudLastModified != nil {
		cloudModified = sql.NullString{
			String: book.CloudLastModified.UTC().Format(time.RFC3339Nano),
			Valid:  true,
		}
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO books (`+bookColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			source = excluded.source,
			sync_status = excluded.sync_status,
			config = excluded.config,
			local_last_modified = excluded.local_last_modified,
			cloud_last_modified = excluded.cloud_last_modified,
			version = excluded.version,
			cloud_folder_path = excluded.cloud_folder_path`,
		book.ID,
		book.Name,
		string(book.Source),
		string(book.SyncStatus),
		string(configJSON),
		book.LocalLastModified.UTC().Format(time.RFC3339Nano),
		cloudModified,
		book.Version,
		book.CloudFolderPath,
	)
	if err != nil {
		return fmt.Errorf("save book %s: %w", book.ID, err)
	}
	return nil
}

// DeleteBook removes the book and all its chapter content in one
// transaction. Deleting a missing book returns domain.ErrNotFound.
func (s *Store) DeleteBook(ctx context.Context, id string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin delete of book %s: %w", id, err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, "DELETE FROM books WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete book %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete book %s: %w", id, err)
	}
	if n == 0 {
		return domain.ErrNotFound
	}

	if _, err := tx.ExecContext(ctx, "DELETE FROM chapters WHERE book_id = ?", id); err != nil {
		return fmt.Errorf("delete chapters of book %s: %w", id, err)
	}
	return tx.Commit()
}

// MarkBookSynced flips the book's status to in_sync.
func (s *Store) MarkBookSynced(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx,
		"UPDATE books SET sync_status = ? WHERE id = ?",
		string(model.SyncInSync), id)
	if err != nil {
		return fmt.Errorf("mark book %s synced: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanBook(row rowScanner) (*model.Book, error) {
	var (
		book          model.Book
		source        string
		status        string
		configJSON    string
		localModified string
		cloudModified sql.NullString
	)
	err := row.Scan(
		&book.ID,
		&book.Name,
		&source,
		&status,
		&configJSON,
		&localModified,
		&cloudModified,
		&book.Version,
		&book.CloudFolderPath,
	)
	if err == sql.ErrNoRows {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan book: %w", err)
	}

	book.Source = model.Source(source)
	book.SyncStatus = model.SyncStatus(status)

	if err := json.Unmarshal([]byte(configJSON), &book.Config); err != nil {
		return nil, fmt.Errorf("unmarshal config of book %s: %w", book.ID, err)
	}
	book.Config.Normalize()

	book.LocalLastModified, err = time.Parse(time.RFC3339Nano, localModified)
	if err != nil {
		return nil, fmt.Errorf("parse local_last_modified of book %s: %w", book.ID, err)
	}
	if cloudModified.Valid {
		t, err := time.Parse(time.RFC3339Nano, cloudModified.String)
		if err != nil {
			return nil, fmt.Errorf("parse cloud_last_modified of book %s: %w", book.ID, err)
		}
		book.CloudLastModified = &t
	}
	return &book, nil
}
