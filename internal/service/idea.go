package service

import (
	"context"
	"fmt"
	"log/slog"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"

	"draftvault/internal/domain"
	"draftvault/internal/model"
	"draftvault/internal/store"
)

// IdeaService manages the ordered idea list attached to each chapter.
type IdeaService struct {
	store    *store.Store
	logger   *slog.Logger
	onChange ChangeHook
}

// NewIdeaService creates an IdeaService. onChange may be nil.
func NewIdeaService(st *store.Store, logger *slog.Logger, onChange ChangeHook) *IdeaService {
	if logger == nil {
		logger = slog.Default()
	}
	if onChange == nil {
		onChange = func(string) {}
	}
	return &IdeaService{store: st, logger: logger, onChange: onChange}
}

// AddIdea appends an idea to the end of a chapter's list.
func (s *IdeaService) AddIdea(ctx context.Context, bookID, chapterID, text string) (*model.Idea, error) {
	if err := validateIdeaText(text); err != nil {
		return nil, err
	}
	book, err := s.store.GetBook(ctx, bookID)
	if err != nil {
		return nil, err
	}
	if _, ok := book.Config.Chapters[chapterID]; !ok {
		return nil, fmt.Errorf("chapter %s: %w", chapterID, domain.ErrNotFound)
	}

	idea := model.Idea{
		ID:    uuid.NewString(),
		Text:  text,
		Order: len(book.Config.Ideas[chapterID]),
	}
	book.Config.Ideas[chapterID] = append(book.Config.Ideas[chapterID], idea)

	markBookEdited(book)
	if err := s.store.SaveBook(ctx, book); err != nil {
		return nil, err
	}
	s.onChange(bookID)
	return &idea, nil
}

// UpdateIdea replaces an idea's text.
func (s *IdeaService) UpdateIdea(ctx context.Context, bookID, chapterID, ideaID, text string) error {
	if err := validateIdeaText(text); err != nil {
		return err
	}
	book, err := s.store.GetBook(ctx, bookID)
	if err != nil {
		return err
	}
	ideas, ok := book.Config.Ideas[chapterID]
	if !ok {
		return fmt.Errorf("chapter %s: %w", chapterID, domain.ErrNotFound)
	}
	found := false
	for i := range ideas {
		if ideas[i].ID == ideaID {
			ideas[i].Text = text
			found = true
			break
		}
	}
	if !found {
		return fmt.Errorf("idea %s: %w", ideaID, domain.ErrNotFound)
	}

	markBookEdited(book)
	if err := s.store.SaveBook(ctx, book); err != nil {
		return err
	}
	s.onChange(bookID)
	return nil
}

// DeleteIdea removes an idea and renumbers the remaining list so that order
// values stay dense.
func (s *IdeaService) DeleteIdea(ctx context.Context, bookID, chapterID, ideaID string) error {
	book, err := s.store.GetBook(ctx, bookID)
	if err != nil {
		return err
	}
	ideas, ok := book.Config.Ideas[chapterID]
	if !ok {
		return fmt.Errorf("chapter %s: %w", chapterID, domain.ErrNotFound)
	}
	out := ideas[:0]
	found := false
	for _, idea := range ideas {
		if idea.ID == ideaID {
			found = true
			continue
		}
		idea.Order = len(out)
		out = append(out, idea)
	}
	if !found {
		return fmt.Errorf("idea %s: %w", ideaID, domain.ErrNotFound)
	}
	book.Config.Ideas[chapterID] = out

	markBookEdited(book)
	if err := s.store.SaveBook(ctx, book); err != nil {
		return err
	}
	s.onChange(bookID)
	return nil
}

// ReorderIdeas replaces a chapter's idea order. The new order must be a
// permutation of the chapter's existing idea ids.
func (s *IdeaService) ReorderIdeas(ctx context.Context, bookID, chapterID string, order []string) error {
	book, err := s.store.GetBook(ctx, bookID)
	if err != nil {
		return err
	}
	ideas, ok := book.Config.Ideas[chapterID]
	if !ok {
		return fmt.Errorf("chapter %s: %w", chapterID, domain.ErrNotFound)
	}
	if len(order) != len(ideas) {
		return fmt.Errorf("order has %d entries, chapter has %d ideas", len(order), len(ideas))
	}
	byID := make(map[string]model.Idea, len(ideas))
	for _, idea := range ideas {
		byID[idea.ID] = idea
	}
	out := make([]model.Idea, 0, len(order))
	for _, id := range order {
		idea, ok := byID[id]
		if !ok {
			return fmt.Errorf("idea %s: %w", id, domain.ErrNotFound)
		}
		delete(byID, id)
		idea.Order = len(out)
		out = append(out, idea)
	}
	book.Config.Ideas[chapterID] = out

	markBookEdited(book)
	if err := s.store.SaveBook(ctx, book); err != nil {
		return err
	}
	s.onChange(bookID)
	return nil
}

// Ideas returns a chapter's idea list in order.
func (s *IdeaService) Ideas(ctx context.Context, bookID, chapterID string) ([]model.Idea, error) {
	book, err := s.store.GetBook(ctx, bookID)
	if err != nil {
		return nil, err
	}
	ideas, ok := book.Config.Ideas[chapterID]
	if !ok {
		return nil, fmt.Errorf("chapter %s: %w", chapterID, domain.ErrNotFound)
	}
	return append([]model.Idea(nil), ideas...), nil
}

func validateIdeaText(text string) error {
	return validation.Validate(text,
		validation.Required.Error("idea text is required"),
		validation.Length(1, 2000),
	)
}
