package usecase

import (
	"context"
	"fmt"

	"fraudops/internal/domain"
)

// NoteService applies the visibility and authorship rules before touching
// the store.
type NoteService struct {
	notes        NoteRepository
	transactions TransactionRepository
}

func NewNoteService(notes NoteRepository, transactions TransactionRepository) *NoteService {
	return &NoteService{notes: notes, transactions: transactions}
}

func (s *NoteService) Create(ctx context.Context, transactionID string, noteType domain.NoteType, content string, isPrivate bool, author domain.Principal) (domain.Note, error) {
	if content == "" {
		return domain.Note{}, fmt.Errorf("content is required: %w", domain.ErrInvalidArgument)
	}
	if !noteType.Valid() {
		return domain.Note{}, fmt.Errorf("note type %q: %w", noteType, domain.ErrInvalidArgument)
	}
	if noteType == domain.NoteSystem {
		return domain.Note{}, fmt.Errorf("system notes cannot be created by analysts: %w", domain.ErrInvalidArgument)
	}
	tx, err := s.transactions.GetByID(ctx, transactionID)
	if err != nil {
		return domain.Note{}, err
	}
	return s.notes.Create(ctx, domain.Note{
		TransactionID: tx.ID,
		NoteType:      noteType,
		Content:       content,
		AuthorID:      author.Subject,
		AuthorName:    author.Name,
		AuthorEmail:   author.Email,
		IsPrivate:     isPrivate,
	})
}

// List returns the transaction's notes minus other authors' private notes,
// unless the caller is a supervisor.
func (s *NoteService) List(ctx context.Context, transactionID string, viewer domain.Principal) ([]domain.Note, error) {
	if transactionID == "" {
		return nil, fmt.Errorf("transaction id is required: %w", domain.ErrInvalidArgument)
	}
	notes, err := s.notes.ListByTransaction(ctx, transactionID)
	if err != nil {
		return nil, err
	}
	visible := make([]domain.Note, 0, len(notes))
	for _, note := range notes {
		if note.VisibleTo(viewer) {
			visible = append(visible, note)
		}
	}
	return visible, nil
}

func (s *NoteService) Update(ctx context.Context, id string, noteType domain.NoteType, content string, actor domain.Principal) (domain.Note, error) {
	if content == "" {
		return domain.Note{}, fmt.Errorf("content is required: %w", domain.ErrInvalidArgument)
	}
	if !noteType.Valid() || noteType == domain.NoteSystem {
		return domain.Note{}, fmt.Errorf("note type %q: %w", noteType, domain.ErrInvalidArgument)
	}
	note, err := s.notes.GetByID(ctx, id)
	if err != nil {
		return domain.Note{}, err
	}
	if !note.EditableBy(actor) {
		return domain.Note{}, fmt.Errorf("only the author may edit a note: %w", domain.ErrForbidden)
	}
	return s.notes.Update(ctx, id, noteType, content)
}

func (s *NoteService) Delete(ctx context.Context, id string, actor domain.Principal) error {
	note, err := s.notes.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if !note.DeletableBy(actor) {
		return fmt.Errorf("note may only be deleted by its author or a supervisor: %w", domain.ErrForbidden)
	}
	return s.notes.Delete(ctx, id)
}
