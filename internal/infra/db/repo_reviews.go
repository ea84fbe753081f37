package db

import (
	"context"
	"errors"
	"time"

	"fraudops/internal/domain"
	"fraudops/internal/usecase"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ReviewRepository struct {
	db *gorm.DB
}

func NewReviewRepository(db *gorm.DB) *ReviewRepository {
	return &ReviewRepository{db: db}
}

// CreateIfAbsent inserts the review unless one already exists for the
// transaction. The stored row is returned either way, with created telling
// the caller which happened.
func (r *ReviewRepository) CreateIfAbsent(ctx context.Context, review domain.Review) (domain.Review, bool, error) {
	if r.db == nil {
		return domain.Review{}, false, errDBUnavailable
	}
	model := reviewModelFromDomain(review)
	if model.ID == "" {
		model.ID = newID()
	}
	now := time.Now().UTC()
	model.CreatedAt = now
	model.UpdatedAt = now

	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "transaction_id"}},
			DoNothing: true,
		}).
		Create(&model)
	if res.Error != nil {
		return domain.Review{}, false, res.Error
	}
	created := res.RowsAffected == 1
	stored, err := r.GetByTransactionID(ctx, review.TransactionID)
	return stored, created, err
}

func (r *ReviewRepository) GetByID(ctx context.Context, id string) (domain.Review, error) {
	if r.db == nil {
		return domain.Review{}, errDBUnavailable
	}
	var model ReviewModel
	if err := r.db.WithContext(ctx).Where("id = ?", id).Take(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.Review{}, domain.ErrNotFound
		}
		return domain.Review{}, err
	}
	return reviewFromModel(model), nil
}

func (r *ReviewRepository) GetByTransactionID(ctx context.Context, transactionID string) (domain.Review, error) {
	if r.db == nil {
		return domain.Review{}, errDBUnavailable
	}
	var model ReviewModel
	if err := r.db.WithContext(ctx).Where("transaction_id = ?", transactionID).Take(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.Review{}, domain.ErrNotFound
		}
		return domain.Review{}, err
	}
	return reviewFromModel(model), nil
}

// UpdateStatus applies one workflow transition guarded by the expected
// current status. A concurrent transition makes the UPDATE match zero rows,
// which surfaces as ErrConflict rather than a silent overwrite.
func (r *ReviewRepository) UpdateStatus(ctx context.Context, update usecase.ReviewStatusUpdate) (domain.Review, error) {
	if r.db == nil {
		return domain.Review{}, errDBUnavailable
	}
	now := time.Now().UTC()
	fields := map[string]any{
		"status":     string(update.NewStatus),
		"updated_at": now,
	}
	switch update.NewStatus {
	case domain.ReviewResolved, domain.ReviewClosed:
		fields["resolution_code"] = stringPtrIfNotEmpty(update.ResolutionCode)
		fields["resolution_notes"] = stringPtrIfNotEmpty(update.ResolutionNotes)
		fields["resolved_by"] = stringPtrIfNotEmpty(update.ResolvedBy)
		fields["resolved_at"] = &now
	case domain.ReviewEscalated:
		fields["escalated_to"] = stringPtrIfNotEmpty(update.EscalatedTo)
		fields["escalation_reason"] = stringPtrIfNotEmpty(update.EscalationReason)
		fields["escalated_at"] = &now
	}

	res := r.db.WithContext(ctx).
		Model(&ReviewModel{}).
		Where("id = ? AND status = ?", update.ReviewID, string(update.ExpectedStatus)).
		Updates(fields)
	if res.Error != nil {
		return domain.Review{}, res.Error
	}
	if res.RowsAffected == 0 {
		// Distinguish a missing review from a lost race.
		if _, err := r.GetByID(ctx, update.ReviewID); err != nil {
			return domain.Review{}, err
		}
		return domain.Review{}, domain.ErrConflict
	}
	return r.GetByID(ctx, update.ReviewID)
}

// Assign hands the review to an analyst and forces status to IN_REVIEW.
// Assignment is legal from any non-terminal state; only CLOSED refuses.
func (r *ReviewRepository) Assign(ctx context.Context, reviewID, analystID string) (domain.Review, error) {
	if r.db == nil {
		return domain.Review{}, errDBUnavailable
	}
	now := time.Now().UTC()
	res := r.db.WithContext(ctx).
		Model(&ReviewModel{}).
		Where("id = ? AND status <> ?", reviewID, string(domain.ReviewClosed)).
		Updates(map[string]any{
			"assigned_analyst_id": &analystID,
			"assigned_at":         &now,
			"status":              string(domain.ReviewInReview),
			"updated_at":          now,
		})
	if res.Error != nil {
		return domain.Review{}, res.Error
	}
	if res.RowsAffected == 0 {
		if _, err := r.GetByID(ctx, reviewID); err != nil {
			return domain.Review{}, err
		}
		return domain.Review{}, domain.ErrConflict
	}
	return r.GetByID(ctx, reviewID)
}

// ListWorklist pages the analyst queue ordered by priority then age. The
// keyset cursor carries (priority, created_at, id) so the resume predicate
// matches the sort key exactly; anything less skips rows across pages.
func (r *ReviewRepository) ListWorklist(ctx context.Context, filter usecase.WorklistFilter) (usecase.WorklistPage, error) {
	if r.db == nil {
		return usecase.WorklistPage{}, errDBUnavailable
	}
	limit := normalizeLimit(filter.Limit)

	query := r.db.WithContext(ctx).
		Table("reviews").
		Joins("JOIN transactions ON transactions.id = reviews.transaction_id")
	if len(filter.Statuses) > 0 {
		statuses := make([]string, 0, len(filter.Statuses))
		for _, status := range filter.Statuses {
			statuses = append(statuses, string(status))
		}
		query = query.Where("reviews.status IN ?", statuses)
	}
	if filter.Priority > 0 {
		query = query.Where("reviews.priority = ?", filter.Priority)
	}
	if filter.RiskLevel != "" {
		query = query.Where("transactions.risk_level = ?", string(filter.RiskLevel))
	}
	if filter.UnassignedOnly {
		query = query.Where("reviews.assigned_analyst_id IS NULL")
	} else if filter.AssignedAnalystID != "" {
		query = query.Where("reviews.assigned_analyst_id = ?", filter.AssignedAnalystID)
	}
	if filter.Cursor != "" {
		cursorPriority, cursorTS, cursorID, err := DecodeWorklistCursor(filter.Cursor)
		if err != nil {
			return usecase.WorklistPage{}, err
		}
		query = query.Where("(reviews.priority, reviews.created_at, reviews.id) > (?, ?, ?)",
			cursorPriority, cursorTS, cursorID)
	}

	var rows []struct {
		Review      ReviewModel      `gorm:"embedded"`
		Transaction TransactionModel `gorm:"embedded;embeddedPrefix:tx_"`
	}
	if err := query.
		Select("reviews.*, " + transactionSelectAliases()).
		Order("reviews.priority ASC, reviews.created_at ASC, reviews.id ASC").
		Limit(limit + 1).
		Scan(&rows).Error; err != nil {
		return usecase.WorklistPage{}, err
	}

	page := usecase.WorklistPage{}
	hasMore := len(rows) > limit
	if hasMore {
		rows = rows[:limit]
	}
	page.Items = make([]usecase.WorklistItem, 0, len(rows))
	for _, row := range rows {
		page.Items = append(page.Items, usecase.WorklistItem{
			Review:      reviewFromModel(row.Review),
			Transaction: transactionFromModel(row.Transaction),
		})
	}
	if hasMore {
		last := rows[len(rows)-1].Review
		page.NextCursor = EncodeWorklistCursor(last.Priority, last.CreatedAt, last.ID)
		page.HasMore = true
	}
	return page, nil
}

func (r *ReviewRepository) WorklistStats(ctx context.Context, analystID string) (usecase.WorklistStats, error) {
	if r.db == nil {
		return usecase.WorklistStats{}, errDBUnavailable
	}
	stats := usecase.WorklistStats{
		ByStatus:   map[domain.ReviewStatus]int64{},
		ByPriority: map[int]int64{},
	}

	scoped := func() *gorm.DB {
		query := r.db.WithContext(ctx).Model(&ReviewModel{})
		if analystID != "" {
			query = query.Where("assigned_analyst_id = ?", analystID)
		}
		return query
	}

	var statusRows []struct {
		Status string
		Count  int64
	}
	if err := scoped().
		Select("status, COUNT(*) AS count").
		Group("status").
		Scan(&statusRows).Error; err != nil {
		return usecase.WorklistStats{}, err
	}
	for _, row := range statusRows {
		stats.ByStatus[domain.ReviewStatus(row.Status)] = row.Count
	}

	var priorityRows []struct {
		Priority int
		Count    int64
	}
	if err := scoped().
		Where("status NOT IN ?", []string{string(domain.ReviewResolved), string(domain.ReviewClosed)}).
		Select("priority, COUNT(*) AS count").
		Group("priority").
		Scan(&priorityRows).Error; err != nil {
		return usecase.WorklistStats{}, err
	}
	for _, row := range priorityRows {
		stats.ByPriority[row.Priority] = row.Count
	}

	if err := r.db.WithContext(ctx).
		Model(&ReviewModel{}).
		Where("assigned_analyst_id IS NULL AND status = ?", string(domain.ReviewPending)).
		Count(&stats.Unassigned).Error; err != nil {
		return usecase.WorklistStats{}, err
	}

	var oldest struct{ CreatedAt *time.Time }
	if err := r.db.WithContext(ctx).
		Model(&ReviewModel{}).
		Where("status = ?", string(domain.ReviewPending)).
		Select("MIN(created_at) AS created_at").
		Scan(&oldest).Error; err != nil {
		return usecase.WorklistStats{}, err
	}
	if oldest.CreatedAt != nil {
		stats.OldestPendingAge = time.Since(*oldest.CreatedAt)
	}
	return stats, nil
}

// ClaimNext atomically hands the highest-priority unassigned pending review
// to the analyst. SKIP LOCKED lets concurrent claimers pick distinct rows
// instead of queueing on the same one.
func (r *ReviewRepository) ClaimNext(ctx context.Context, filter usecase.ClaimFilter, analystID string) (domain.Review, error) {
	if r.db == nil {
		return domain.Review{}, errDBUnavailable
	}
	var claimed ReviewModel
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		query := tx.
			Clauses(clause.Locking{Strength: "UPDATE", Options: "SKIP LOCKED"}).
			Where("reviews.status = ? AND reviews.assigned_analyst_id IS NULL", string(domain.ReviewPending))
		if filter.Priority > 0 {
			query = query.Where("reviews.priority = ?", filter.Priority)
		}
		if filter.RiskLevel != "" {
			query = query.Where(
				"EXISTS (SELECT 1 FROM transactions t WHERE t.id = reviews.transaction_id AND t.risk_level = ?)",
				string(filter.RiskLevel),
			)
		}
		if err := query.
			Order("reviews.priority ASC, reviews.created_at ASC").
			Take(&claimed).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domain.ErrNotFound
			}
			return err
		}
		now := time.Now().UTC()
		if err := tx.Model(&ReviewModel{}).
			Where("id = ?", claimed.ID).
			Updates(map[string]any{
				"assigned_analyst_id": &analystID,
				"assigned_at":         &now,
				"status":              string(domain.ReviewInReview),
				"updated_at":          now,
			}).Error; err != nil {
			return err
		}
		return tx.Where("id = ?", claimed.ID).Take(&claimed).Error
	})
	if err != nil {
		return domain.Review{}, err
	}
	return reviewFromModel(claimed), nil
}

// transactionSelectAliases prefixes every transaction column so the joined
// scan can split the row back into its two embedded models.
func transactionSelectAliases() string {
	return "transactions.id AS tx_id, " +
		"transactions.transaction_id AS tx_transaction_id, " +
		"transactions.evaluation_type AS tx_evaluation_type, " +
		"transactions.card_id AS tx_card_id, " +
		"transactions.account_id AS tx_account_id, " +
		"transactions.amount AS tx_amount, " +
		"transactions.currency AS tx_currency, " +
		"transactions.decision AS tx_decision, " +
		"transactions.decision_reason AS tx_decision_reason, " +
		"transactions.risk_level AS tx_risk_level, " +
		"transactions.context AS tx_context, " +
		"transactions.velocity AS tx_velocity, " +
		"transactions.engine_metadata AS tx_engine_metadata, " +
		"transactions.raw_payload AS tx_raw_payload, " +
		"transactions.trace_id AS tx_trace_id, " +
		"transactions.ingestion_source AS tx_ingestion_source, " +
		"transactions.event_timestamp AS tx_event_timestamp, " +
		"transactions.created_at AS tx_created_at, " +
		"transactions.updated_at AS tx_updated_at"
}

func reviewModelFromDomain(review domain.Review) ReviewModel {
	return ReviewModel{
		ID:                review.ID,
		TransactionID:     review.TransactionID,
		Status:            string(review.Status),
		Priority:          review.Priority,
		AssignedAnalystID: stringPtrIfNotEmpty(review.AssignedAnalystID),
		AssignedAt:        review.AssignedAt,
		CaseID:            stringPtrIfNotEmpty(review.CaseID),
		ResolutionCode:    stringPtrIfNotEmpty(review.ResolutionCode),
		ResolutionNotes:   stringPtrIfNotEmpty(review.ResolutionNotes),
		ResolvedBy:        stringPtrIfNotEmpty(review.ResolvedBy),
		ResolvedAt:        review.ResolvedAt,
		EscalatedTo:       stringPtrIfNotEmpty(review.EscalatedTo),
		EscalationReason:  stringPtrIfNotEmpty(review.EscalationReason),
		EscalatedAt:       review.EscalatedAt,
	}
}

func reviewFromModel(model ReviewModel) domain.Review {
	return domain.Review{
		ID:                model.ID,
		TransactionID:     model.TransactionID,
		Status:            domain.ReviewStatus(model.Status),
		Priority:          model.Priority,
		AssignedAnalystID: stringValue(model.AssignedAnalystID),
		AssignedAt:        model.AssignedAt,
		CaseID:            stringValue(model.CaseID),
		ResolutionCode:    stringValue(model.ResolutionCode),
		ResolutionNotes:   stringValue(model.ResolutionNotes),
		ResolvedBy:        stringValue(model.ResolvedBy),
		EscalatedTo:       stringValue(model.EscalatedTo),
		EscalationReason:  stringValue(model.EscalationReason),
		EscalatedAt:       model.EscalatedAt,
		ResolvedAt:        model.ResolvedAt,
		CreatedAt:         model.CreatedAt,
		UpdatedAt:         model.UpdatedAt,
	}
}
