package db

import (
	"context"
	"errors"
	"time"

	"fraudops/internal/domain"

	"gorm.io/gorm"
)

type NoteRepository struct {
	db *gorm.DB
}

func NewNoteRepository(db *gorm.DB) *NoteRepository {
	return &NoteRepository{db: db}
}

func (r *NoteRepository) Create(ctx context.Context, note domain.Note) (domain.Note, error) {
	if r.db == nil {
		return domain.Note{}, errDBUnavailable
	}
	model := noteModelFromDomain(note)
	if model.ID == "" {
		model.ID = newID()
	}
	now := time.Now().UTC()
	model.CreatedAt = now
	model.UpdatedAt = now
	if err := r.db.WithContext(ctx).Create(&model).Error; err != nil {
		return domain.Note{}, err
	}
	return noteFromModel(model), nil
}

func (r *NoteRepository) GetByID(ctx context.Context, id string) (domain.Note, error) {
	if r.db == nil {
		return domain.Note{}, errDBUnavailable
	}
	var model NoteModel
	if err := r.db.WithContext(ctx).Where("id = ?", id).Take(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.Note{}, domain.ErrNotFound
		}
		return domain.Note{}, err
	}
	return noteFromModel(model), nil
}

func (r *NoteRepository) ListByTransaction(ctx context.Context, transactionID string) ([]domain.Note, error) {
	if r.db == nil {
		return nil, errDBUnavailable
	}
	var models []NoteModel
	if err := r.db.WithContext(ctx).
		Where("transaction_id = ?", transactionID).
		Order("created_at ASC, id ASC").
		Find(&models).Error; err != nil {
		return nil, err
	}
	out := make([]domain.Note, 0, len(models))
	for _, model := range models {
		out = append(out, noteFromModel(model))
	}
	return out, nil
}

func (r *NoteRepository) Update(ctx context.Context, id string, noteType domain.NoteType, content string) (domain.Note, error) {
	if r.db == nil {
		return domain.Note{}, errDBUnavailable
	}
	res := r.db.WithContext(ctx).
		Model(&NoteModel{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"note_type":  string(noteType),
			"content":    content,
			"updated_at": time.Now().UTC(),
		})
	if res.Error != nil {
		return domain.Note{}, res.Error
	}
	if res.RowsAffected == 0 {
		return domain.Note{}, domain.ErrNotFound
	}
	return r.GetByID(ctx, id)
}

func (r *NoteRepository) Delete(ctx context.Context, id string) error {
	if r.db == nil {
		return errDBUnavailable
	}
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&NoteModel{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func noteModelFromDomain(note domain.Note) NoteModel {
	return NoteModel{
		ID:                note.ID,
		TransactionID:     note.TransactionID,
		NoteType:          string(note.NoteType),
		Content:           note.Content,
		AuthorID:          note.AuthorID,
		AuthorName:        note.AuthorName,
		AuthorEmail:       note.AuthorEmail,
		IsPrivate:         note.IsPrivate,
		IsSystemGenerated: note.IsSystemGenerated,
	}
}

func noteFromModel(model NoteModel) domain.Note {
	return domain.Note{
		ID:                model.ID,
		TransactionID:     model.TransactionID,
		NoteType:          domain.NoteType(model.NoteType),
		Content:           model.Content,
		AuthorID:          model.AuthorID,
		AuthorName:        model.AuthorName,
		AuthorEmail:       model.AuthorEmail,
		IsPrivate:         model.IsPrivate,
		IsSystemGenerated: model.IsSystemGenerated,
		CreatedAt:         model.CreatedAt,
		UpdatedAt:         model.UpdatedAt,
	}
}
