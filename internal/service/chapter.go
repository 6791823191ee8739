// Package service implements book content operations: chapter lifecycle and
// per-chapter idea lists. Services mutate a book's config through the local
// store and never touch the remote side directly.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"

	"draftvault/internal/domain"
	"draftvault/internal/model"
	"draftvault/internal/store"
)

// ChangeHook is invoked after a successful local mutation with the affected
// book id. The manager uses it to trigger opportunistic sync.
type ChangeHook func(bookID string)

// ChapterService manages chapters within a book.
type ChapterService struct {
	store    *store.Store
	logger   *slog.Logger
	onChange ChangeHook
}

// NewChapterService creates a ChapterService. onChange may be nil.
func NewChapterService(st *store.Store, logger *slog.Logger, onChange ChangeHook) *ChapterService {
	if logger == nil {
		logger = slog.Default()
	}
	if onChange == nil {
		onChange = func(string) {}
	}
	return &ChapterService{store: st, logger: logger, onChange: onChange}
}

// CreateChapter appends a new chapter with the given title to the end of the
// book's chapter order and writes its initial (empty) content file.
func (s *ChapterService) CreateChapter(ctx context.Context, bookID, title string) (*model.Chapter, error) {
	if err := validateTitle(title); err != nil {
		return nil, err
	}
	book, err := s.store.GetBook(ctx, bookID)
	if err != nil {
		return nil, err
	}

	id := uuid.NewString()
	ch := model.Chapter{
		ID:       id,
		Title:    title,
		FileName: deriveFileName(title, id),
	}
	book.Config.Chapters[id] = ch
	book.Config.ChapterOrder = append(book.Config.ChapterOrder, id)
	book.Config.Ideas[id] = []model.Idea{}

	markBookEdited(book)
	if err := s.store.SaveBook(ctx, book); err != nil {
		return nil, err
	}
	if err := s.store.SaveChapterContent(ctx, bookID, ch.FileName, []byte{}, false); err != nil {
		return nil, err
	}
	s.logger.Info("created chapter", "book", bookID, "chapter", id, "file", ch.FileName)
	s.onChange(bookID)
	return &ch, nil
}

// RenameChapter changes a chapter's title. The backing file name is derived
// once at creation and is left untouched.
func (s *ChapterService) RenameChapter(ctx context.Context, bookID, chapterID, title string) error {
	if err := validateTitle(title); err != nil {
		return err
	}
	book, err := s.store.GetBook(ctx, bookID)
	if err != nil {
		return err
	}
	ch, ok := book.Config.Chapters[chapterID]
	if !ok {
		return fmt.Errorf("chapter %s: %w", chapterID, domain.ErrNotFound)
	}
	ch.Title = title
	book.Config.Chapters[chapterID] = ch

	markBookEdited(book)
	if err := s.store.SaveBook(ctx, book); err != nil {
		return err
	}
	s.onChange(bookID)
	return nil
}

// DeleteChapter removes a chapter, its content and its idea list.
func (s *ChapterService) DeleteChapter(ctx context.Context, bookID, chapterID string) error {
	book, err := s.store.GetBook(ctx, bookID)
	if err != nil {
		return err
	}
	ch, ok := book.Config.Chapters[chapterID]
	if !ok {
		return fmt.Errorf("chapter %s: %w", chapterID, domain.ErrNotFound)
	}
	delete(book.Config.Chapters, chapterID)
	delete(book.Config.Ideas, chapterID)
	order := book.Config.ChapterOrder[:0]
	for _, id := range book.Config.ChapterOrder {
		if id != chapterID {
			order = append(order, id)
		}
	}
	book.Config.ChapterOrder = order

	markBookEdited(book)
	if err := s.store.SaveBook(ctx, book); err != nil {
		return err
	}
	if err := s.store.DeleteChapterContent(ctx, bookID, ch.FileName); err != nil {
		return err
	}
	s.logger.Info("deleted chapter", "book", bookID, "chapter", chapterID)
	s.onChange(bookID)
	return nil
}

// ReorderChapters replaces the chapter order. The new order must be a
// permutation of the book's existing chapter ids.
func (s *ChapterService) ReorderChapters(ctx context.Context, bookID string, order []string) error {
	book, err := s.store.GetBook(ctx, bookID)
	if err != nil {
		return err
	}
	if len(order) != len(book.Config.Chapters) {
		return fmt.Errorf("order has %d entries, book has %d chapters", len(order), len(book.Config.Chapters))
	}
	seen := make(map[string]bool, len(order))
	for _, id := range order {
		if _, ok := book.Config.Chapters[id]; !ok {
			return fmt.Errorf("chapter %s: %w", id, domain.ErrNotFound)
		}
		if seen[id] {
			return fmt.Errorf("duplicate chapter id %s in order", id)
		}
		seen[id] = true
	}
	book.Config.ChapterOrder = append([]string(nil), order...)

	markBookEdited(book)
	if err := s.store.SaveBook(ctx, book); err != nil {
		return err
	}
	s.onChange(bookID)
	return nil
}

// SetChapterContent overwrites a chapter's markdown content.
func (s *ChapterService) SetChapterContent(ctx context.Context, bookID, chapterID string, content []byte) error {
	book, err := s.store.GetBook(ctx, bookID)
	if err != nil {
		return err
	}
	ch, ok := book.Config.Chapters[chapterID]
	if !ok {
		return fmt.Errorf("chapter %s: %w", chapterID, domain.ErrNotFound)
	}
	if err := s.store.SaveChapterContent(ctx, bookID, ch.FileName, content, false); err != nil {
		return err
	}
	s.onChange(bookID)
	return nil
}

// ChapterContent returns a chapter's markdown content.
func (s *ChapterService) ChapterContent(ctx context.Context, bookID, chapterID string) ([]byte, error) {
	book, err := s.store.GetBook(ctx, bookID)
	if err != nil {
		return nil, err
	}
	ch, ok := book.Config.Chapters[chapterID]
	if !ok {
		return nil, fmt.Errorf("chapter %s: %w", chapterID, domain.ErrNotFound)
	}
	return s.store.GetChapterContent(ctx, bookID, ch.FileName)
}

func validateTitle(title string) error {
	return validation.Validate(title,
		validation.Required.Error("title is required"),
		validation.Length(1, 200),
	)
}

// markBookEdited records a local edit: the modification watermark advances
// and a previously synced book becomes out of sync. Books that never left the
// device stay local_only.
func markBookEdited(book *model.Book) {
	book.LocalLastModified = time.Now().UTC()
	if book.SyncStatus != model.SyncLocalOnly {
		book.SyncStatus = model.SyncOutOfSync
	}
}

// deriveFileName builds the immutable file name for a chapter from its title
// slug and the first eight hex digits of its id.
func deriveFileName(title, id string) string {
	suffix := strings.ReplaceAll(id, "-", "")
	if len(suffix) > 8 {
		suffix = suffix[:8]
	}
	slug := slugify(title)
	if slug == "" {
		slug = "chapter"
	}
	return slug + "-" + suffix + ".md"
}

func slugify(s string) string {
	var b strings.Builder
	lastDash := true
	for _, r := range strings.ToLower(s) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
			lastDash = false
		case !lastDash:
			b.WriteByte('-')
			lastDash = true
		}
	}
	return strings.Trim(b.String(), "-")
}
