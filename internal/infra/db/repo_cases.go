package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"fraudops/internal/domain"
	"fraudops/internal/usecase"

	"gorm.io/gorm"
)

type CaseRepository struct {
	db *gorm.DB
}

func NewCaseRepository(db *gorm.DB) *CaseRepository {
	return &CaseRepository{db: db}
}

// Create allocates the case number from a database sequence so concurrent
// creators never collide, then writes the case and its CASE_CREATED activity
// in one transaction.
func (r *CaseRepository) Create(ctx context.Context, investigation domain.Case) (domain.Case, error) {
	if r.db == nil {
		return domain.Case{}, errDBUnavailable
	}
	model := caseModelFromDomain(investigation)
	if model.ID == "" {
		model.ID = newID()
	}
	now := time.Now().UTC()
	model.CreatedAt = now
	model.UpdatedAt = now

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var seq int64
		if err := tx.Raw("SELECT nextval('case_number_seq')").Scan(&seq).Error; err != nil {
			return err
		}
		model.CaseNumber = fmt.Sprintf("FC-%08d", seq)
		if err := tx.Create(&model).Error; err != nil {
			return err
		}
		return tx.Create(&CaseActivityModel{
			ID:           newID(),
			CaseID:       model.ID,
			ActivityType: domain.ActivityCaseCreated,
			ActorID:      model.CreatedBy,
			NewValue:     stringPtrIfNotEmpty(string(investigation.Status)),
			CreatedAt:    now,
		}).Error
	})
	if err != nil {
		return domain.Case{}, err
	}
	return caseFromModel(model), nil
}

func (r *CaseRepository) GetByID(ctx context.Context, id string) (domain.Case, error) {
	if r.db == nil {
		return domain.Case{}, errDBUnavailable
	}
	var model CaseModel
	if err := r.db.WithContext(ctx).Where("id = ?", id).Take(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.Case{}, domain.ErrNotFound
		}
		return domain.Case{}, err
	}
	return caseFromModel(model), nil
}

func (r *CaseRepository) List(ctx context.Context, filter usecase.CaseFilter) (usecase.CasePage, error) {
	if r.db == nil {
		return usecase.CasePage{}, errDBUnavailable
	}
	limit := normalizeLimit(filter.Limit)

	query := r.db.WithContext(ctx).Model(&CaseModel{})
	if filter.Status != "" {
		query = query.Where("status = ?", string(filter.Status))
	}
	if filter.CaseType != "" {
		query = query.Where("case_type = ?", string(filter.CaseType))
	}
	if filter.AssignedAnalystID != "" {
		query = query.Where("assigned_analyst_id = ?", filter.AssignedAnalystID)
	}
	if filter.Cursor != "" {
		cursorTS, cursorID, err := DecodeCursor(filter.Cursor)
		if err != nil {
			return usecase.CasePage{}, err
		}
		query = query.Where("(created_at, id) < (?, ?)", cursorTS, cursorID)
	}

	var models []CaseModel
	if err := query.
		Order("created_at DESC, id DESC").
		Limit(limit + 1).
		Find(&models).Error; err != nil {
		return usecase.CasePage{}, err
	}

	page := usecase.CasePage{}
	hasMore := len(models) > limit
	if hasMore {
		models = models[:limit]
	}
	page.Items = make([]domain.Case, 0, len(models))
	for _, model := range models {
		page.Items = append(page.Items, caseFromModel(model))
	}
	if hasMore {
		last := models[len(models)-1]
		page.NextCursor = EncodeCursor(last.CreatedAt, last.ID)
		page.HasMore = true
	}
	return page, nil
}

// Update changes the mutable case fields and appends one activity row per
// field that actually changed.
func (r *CaseRepository) Update(ctx context.Context, update usecase.CaseUpdate) (domain.Case, error) {
	if r.db == nil {
		return domain.Case{}, errDBUnavailable
	}
	var model CaseModel
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("id = ?", update.CaseID).Take(&model).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domain.ErrNotFound
			}
			return err
		}
		now := time.Now().UTC()
		fields := map[string]any{"updated_at": now}
		activities := []CaseActivityModel{}

		if update.Status != nil && string(*update.Status) != model.Status {
			if !domain.CaseStatus(model.Status).Mutable() {
				return domain.ErrConflict
			}
			activities = append(activities, CaseActivityModel{
				ID:           newID(),
				CaseID:       model.ID,
				ActivityType: domain.ActivityStatusChanged,
				ActorID:      update.ActorID,
				OldValue:     stringPtrIfNotEmpty(model.Status),
				NewValue:     stringPtrIfNotEmpty(string(*update.Status)),
				CreatedAt:    now,
			})
			fields["status"] = string(*update.Status)
		}
		if update.AssignedAnalystID != nil && *update.AssignedAnalystID != stringValue(model.AssignedAnalystID) {
			activities = append(activities, CaseActivityModel{
				ID:           newID(),
				CaseID:       model.ID,
				ActivityType: domain.ActivityAssigneeChanged,
				ActorID:      update.ActorID,
				OldValue:     model.AssignedAnalystID,
				NewValue:     stringPtrIfNotEmpty(*update.AssignedAnalystID),
				CreatedAt:    now,
			})
			fields["assigned_analyst_id"] = stringPtrIfNotEmpty(*update.AssignedAnalystID)
		}
		detailsChanged := false
		if update.Title != nil && *update.Title != model.Title {
			fields["title"] = *update.Title
			detailsChanged = true
		}
		if update.Description != nil && *update.Description != model.Description {
			fields["description"] = *update.Description
			detailsChanged = true
		}
		if detailsChanged {
			activities = append(activities, CaseActivityModel{
				ID:           newID(),
				CaseID:       model.ID,
				ActivityType: domain.ActivityDetailsUpdated,
				ActorID:      update.ActorID,
				CreatedAt:    now,
			})
		}
		if len(fields) == 1 {
			return nil
		}
		if err := tx.Model(&CaseModel{}).Where("id = ?", model.ID).Updates(fields).Error; err != nil {
			return err
		}
		if len(activities) > 0 {
			if err := tx.Create(&activities).Error; err != nil {
				return err
			}
		}
		return tx.Where("id = ?", model.ID).Take(&model).Error
	})
	if err != nil {
		return domain.Case{}, err
	}
	return caseFromModel(model), nil
}

// AddTransaction links a transaction's review to the case and bumps the
// aggregate count and amount inside the same database transaction.
func (r *CaseRepository) AddTransaction(ctx context.Context, caseID, transactionID, actorID string) (domain.Case, error) {
	if r.db == nil {
		return domain.Case{}, errDBUnavailable
	}
	var model CaseModel
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("id = ?", caseID).Take(&model).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domain.ErrNotFound
			}
			return err
		}
		if !domain.CaseStatus(model.Status).Mutable() {
			return domain.ErrConflict
		}
		var txn TransactionModel
		if err := tx.Where("id = ?", transactionID).Take(&txn).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domain.ErrNotFound
			}
			return err
		}
		var review ReviewModel
		if err := tx.Where("transaction_id = ?", transactionID).Take(&review).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domain.ErrNotFound
			}
			return err
		}
		if review.CaseID != nil {
			return domain.ErrConflict
		}
		now := time.Now().UTC()
		if err := tx.Model(&ReviewModel{}).
			Where("id = ? AND case_id IS NULL", review.ID).
			Updates(map[string]any{"case_id": &caseID, "updated_at": now}).Error; err != nil {
			return err
		}
		if err := tx.Model(&CaseModel{}).
			Where("id = ?", caseID).
			Updates(map[string]any{
				"total_transaction_count":  gorm.Expr("total_transaction_count + 1"),
				"total_transaction_amount": gorm.Expr("total_transaction_amount + ?", txn.Amount),
				"updated_at":               now,
			}).Error; err != nil {
			return err
		}
		if err := tx.Create(&CaseActivityModel{
			ID:            newID(),
			CaseID:        caseID,
			ActivityType:  domain.ActivityTransactionAdded,
			ActorID:       actorID,
			TransactionID: &transactionID,
			CreatedAt:     now,
		}).Error; err != nil {
			return err
		}
		return tx.Where("id = ?", caseID).Take(&model).Error
	})
	if err != nil {
		return domain.Case{}, err
	}
	return caseFromModel(model), nil
}

// RemoveTransaction unlinks the review and reverses the aggregate delta.
func (r *CaseRepository) RemoveTransaction(ctx context.Context, caseID, transactionID, actorID string) (domain.Case, error) {
	if r.db == nil {
		return domain.Case{}, errDBUnavailable
	}
	var model CaseModel
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("id = ?", caseID).Take(&model).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domain.ErrNotFound
			}
			return err
		}
		if !domain.CaseStatus(model.Status).Mutable() {
			return domain.ErrConflict
		}
		var review ReviewModel
		if err := tx.Where("transaction_id = ? AND case_id = ?", transactionID, caseID).
			Take(&review).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domain.ErrNotFound
			}
			return err
		}
		var txn TransactionModel
		if err := tx.Where("id = ?", transactionID).Take(&txn).Error; err != nil {
			return err
		}
		now := time.Now().UTC()
		if err := tx.Model(&ReviewModel{}).
			Where("id = ?", review.ID).
			Updates(map[string]any{"case_id": nil, "updated_at": now}).Error; err != nil {
			return err
		}
		if err := tx.Model(&CaseModel{}).
			Where("id = ?", caseID).
			Updates(map[string]any{
				"total_transaction_count":  gorm.Expr("GREATEST(total_transaction_count - 1, 0)"),
				"total_transaction_amount": gorm.Expr("total_transaction_amount - ?", txn.Amount),
				"updated_at":               now,
			}).Error; err != nil {
			return err
		}
		if err := tx.Create(&CaseActivityModel{
			ID:            newID(),
			CaseID:        caseID,
			ActivityType:  domain.ActivityTransactionRemoved,
			ActorID:       actorID,
			TransactionID: &transactionID,
			CreatedAt:     now,
		}).Error; err != nil {
			return err
		}
		return tx.Where("id = ?", caseID).Take(&model).Error
	})
	if err != nil {
		return domain.Case{}, err
	}
	return caseFromModel(model), nil
}

// Resolve closes the investigation. The guard on current status keeps a
// double resolve from overwriting the original summary.
func (r *CaseRepository) Resolve(ctx context.Context, caseID, summary, resolvedBy string) (domain.Case, error) {
	if r.db == nil {
		return domain.Case{}, errDBUnavailable
	}
	now := time.Now().UTC()
	var model CaseModel
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&CaseModel{}).
			Where("id = ? AND status NOT IN ?", caseID, []string{
				string(domain.CaseResolved),
				string(domain.CaseClosed),
			}).
			Updates(map[string]any{
				"status":             string(domain.CaseResolved),
				"resolution_summary": stringPtrIfNotEmpty(summary),
				"resolved_by":        stringPtrIfNotEmpty(resolvedBy),
				"resolved_at":        &now,
				"updated_at":         now,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			var exists int64
			if err := tx.Model(&CaseModel{}).Where("id = ?", caseID).Count(&exists).Error; err != nil {
				return err
			}
			if exists == 0 {
				return domain.ErrNotFound
			}
			return domain.ErrConflict
		}
		if err := tx.Create(&CaseActivityModel{
			ID:           newID(),
			CaseID:       caseID,
			ActivityType: domain.ActivityCaseResolved,
			ActorID:      resolvedBy,
			NewValue:     stringPtrIfNotEmpty(string(domain.CaseResolved)),
			Note:         stringPtrIfNotEmpty(summary),
			CreatedAt:    now,
		}).Error; err != nil {
			return err
		}
		return tx.Where("id = ?", caseID).Take(&model).Error
	})
	if err != nil {
		return domain.Case{}, err
	}
	return caseFromModel(model), nil
}

func (r *CaseRepository) ListActivity(ctx context.Context, caseID string) ([]domain.CaseActivity, error) {
	if r.db == nil {
		return nil, errDBUnavailable
	}
	var models []CaseActivityModel
	if err := r.db.WithContext(ctx).
		Where("case_id = ?", caseID).
		Order("created_at ASC, id ASC").
		Find(&models).Error; err != nil {
		return nil, err
	}
	out := make([]domain.CaseActivity, 0, len(models))
	for _, model := range models {
		out = append(out, domain.CaseActivity{
			ID:            model.ID,
			CaseID:        model.CaseID,
			ActivityType:  model.ActivityType,
			ActorID:       model.ActorID,
			OldValue:      stringValue(model.OldValue),
			NewValue:      stringValue(model.NewValue),
			TransactionID: stringValue(model.TransactionID),
			Note:          stringValue(model.Note),
			CreatedAt:     model.CreatedAt,
		})
	}
	return out, nil
}

func (r *CaseRepository) ListTransactions(ctx context.Context, caseID string) ([]domain.Transaction, error) {
	if r.db == nil {
		return nil, errDBUnavailable
	}
	var models []TransactionModel
	if err := r.db.WithContext(ctx).
		Joins("JOIN reviews ON reviews.transaction_id = transactions.id").
		Where("reviews.case_id = ?", caseID).
		Order("transactions.event_timestamp DESC, transactions.id DESC").
		Find(&models).Error; err != nil {
		return nil, err
	}
	out := make([]domain.Transaction, 0, len(models))
	for _, model := range models {
		out = append(out, transactionFromModel(model))
	}
	return out, nil
}

func caseModelFromDomain(investigation domain.Case) CaseModel {
	return CaseModel{
		ID:                     investigation.ID,
		CaseNumber:             investigation.CaseNumber,
		CaseType:               string(investigation.CaseType),
		Status:                 string(investigation.Status),
		Title:                  investigation.Title,
		Description:            investigation.Description,
		AssignedAnalystID:      stringPtrIfNotEmpty(investigation.AssignedAnalystID),
		TotalTransactionCount:  investigation.TotalTransactionCount,
		TotalTransactionAmount: investigation.TotalTransactionAmount,
		ResolutionSummary:      stringPtrIfNotEmpty(investigation.ResolutionSummary),
		ResolvedBy:             stringPtrIfNotEmpty(investigation.ResolvedBy),
		ResolvedAt:             investigation.ResolvedAt,
		CreatedBy:              investigation.CreatedBy,
	}
}

func caseFromModel(model CaseModel) domain.Case {
	return domain.Case{
		ID:                     model.ID,
		CaseNumber:             model.CaseNumber,
		CaseType:               domain.CaseType(model.CaseType),
		Status:                 domain.CaseStatus(model.Status),
		Title:                  model.Title,
		Description:            model.Description,
		AssignedAnalystID:      stringValue(model.AssignedAnalystID),
		TotalTransactionCount:  model.TotalTransactionCount,
		TotalTransactionAmount: model.TotalTransactionAmount,
		ResolutionSummary:      stringValue(model.ResolutionSummary),
		ResolvedBy:             stringValue(model.ResolvedBy),
		ResolvedAt:             model.ResolvedAt,
		CreatedBy:              model.CreatedBy,
		CreatedAt:              model.CreatedAt,
		UpdatedAt:              model.UpdatedAt,
	}
}
