package db

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"fraudops/internal/domain"
	"fraudops/internal/usecase"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	defaultPageSize = 50
	maxPageSize     = 200
)

type TransactionRepository struct {
	db *gorm.DB
}

func NewTransactionRepository(db *gorm.DB) *TransactionRepository {
	return &TransactionRepository{db: db}
}

// Upsert inserts the transaction on first sight of its business id. On
// conflict only the soft metadata columns change; the recorded decision,
// amount and card fields are never touched by a replay.
func (r *TransactionRepository) Upsert(ctx context.Context, tx domain.Transaction) (domain.Transaction, bool, error) {
	if r.db == nil {
		return domain.Transaction{}, false, errDBUnavailable
	}
	model, err := transactionModelFromDomain(tx)
	if err != nil {
		return domain.Transaction{}, false, err
	}
	if model.ID == "" {
		model.ID = newID()
	}
	now := time.Now().UTC()
	if model.EventTimestamp.IsZero() {
		model.EventTimestamp = now
	}
	model.CreatedAt = now
	model.UpdatedAt = now

	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "transaction_id"}},
			DoNothing: true,
		}).
		Create(&model)
	if res.Error != nil {
		return domain.Transaction{}, false, res.Error
	}
	created := res.RowsAffected == 1
	if !created {
		updates := map[string]any{
			"trace_id":         model.TraceID,
			"raw_payload":      model.RawPayload,
			"ingestion_source": model.Source,
			"updated_at":       now,
		}
		if err := r.db.WithContext(ctx).
			Model(&TransactionModel{}).
			Where("transaction_id = ?", tx.TransactionID).
			Updates(updates).Error; err != nil {
			return domain.Transaction{}, false, err
		}
	}
	stored, err := r.GetByTransactionID(ctx, tx.TransactionID)
	return stored, created, err
}

func (r *TransactionRepository) GetByID(ctx context.Context, id string) (domain.Transaction, error) {
	if r.db == nil {
		return domain.Transaction{}, errDBUnavailable
	}
	var model TransactionModel
	if err := r.db.WithContext(ctx).Where("id = ?", id).Take(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.Transaction{}, domain.ErrNotFound
		}
		return domain.Transaction{}, err
	}
	return transactionFromModel(model), nil
}

func (r *TransactionRepository) GetByTransactionID(ctx context.Context, businessID string) (domain.Transaction, error) {
	if r.db == nil {
		return domain.Transaction{}, errDBUnavailable
	}
	var model TransactionModel
	if err := r.db.WithContext(ctx).Where("transaction_id = ?", businessID).Take(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.Transaction{}, domain.ErrNotFound
		}
		return domain.Transaction{}, err
	}
	return transactionFromModel(model), nil
}

// List runs a filtered keyset scan in descending (event_timestamp, id)
// order. One extra row is fetched to decide has-more without a second query.
func (r *TransactionRepository) List(ctx context.Context, filter usecase.TransactionFilter) (usecase.TransactionPage, error) {
	if r.db == nil {
		return usecase.TransactionPage{}, errDBUnavailable
	}
	limit := normalizeLimit(filter.Limit)

	base, err := r.applyTransactionFilter(r.db.WithContext(ctx).Model(&TransactionModel{}), filter)
	if err != nil {
		return usecase.TransactionPage{}, err
	}

	var total int64
	if err := base.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return usecase.TransactionPage{}, err
	}

	scan := base.Session(&gorm.Session{})
	if filter.Cursor != "" {
		cursorTS, cursorID, err := DecodeCursor(filter.Cursor)
		if err != nil {
			return usecase.TransactionPage{}, err
		}
		scan = scan.Where("(transactions.event_timestamp, transactions.id) < (?, ?)", cursorTS, cursorID)
	}

	var models []TransactionModel
	if err := scan.
		Order("transactions.event_timestamp DESC, transactions.id DESC").
		Limit(limit + 1).
		Find(&models).Error; err != nil {
		return usecase.TransactionPage{}, err
	}

	page := usecase.TransactionPage{Total: total}
	hasMore := len(models) > limit
	if hasMore {
		models = models[:limit]
	}
	page.Items = make([]domain.Transaction, 0, len(models))
	for _, model := range models {
		page.Items = append(page.Items, transactionFromModel(model))
	}
	if hasMore {
		last := models[len(models)-1]
		page.NextCursor = EncodeCursor(last.EventTimestamp, last.ID)
		page.HasMore = true
	}
	return page, nil
}

func (r *TransactionRepository) applyTransactionFilter(query *gorm.DB, filter usecase.TransactionFilter) (*gorm.DB, error) {
	if filter.CardID != "" {
		query = query.Where("transactions.card_id = ?", filter.CardID)
	}
	if filter.AccountID != "" {
		query = query.Where("transactions.account_id = ?", filter.AccountID)
	}
	if filter.Decision != "" {
		query = query.Where("transactions.decision = ?", string(filter.Decision))
	}
	if filter.EvaluationType != "" {
		query = query.Where("transactions.evaluation_type = ?", string(filter.EvaluationType))
	}
	if filter.RiskLevel != "" {
		query = query.Where("transactions.risk_level = ?", string(filter.RiskLevel))
	}
	if filter.MinAmount != nil {
		query = query.Where("transactions.amount >= ?", *filter.MinAmount)
	}
	if filter.MaxAmount != nil {
		query = query.Where("transactions.amount <= ?", *filter.MaxAmount)
	}
	if filter.From != nil {
		query = query.Where("transactions.event_timestamp >= ?", *filter.From)
	}
	if filter.To != nil {
		query = query.Where("transactions.event_timestamp <= ?", *filter.To)
	}
	if filter.ReviewStatus != "" || filter.AssignedAnalystID != "" || filter.CaseID != "" {
		query = query.Joins("JOIN reviews ON reviews.transaction_id = transactions.id")
		if filter.ReviewStatus != "" {
			query = query.Where("reviews.status = ?", string(filter.ReviewStatus))
		}
		if filter.AssignedAnalystID != "" {
			query = query.Where("reviews.assigned_analyst_id = ?", filter.AssignedAnalystID)
		}
		if filter.CaseID != "" {
			query = query.Where("reviews.case_id = ?", filter.CaseID)
		}
	}
	if filter.RuleID != "" {
		query = query.Where(
			"EXISTS (SELECT 1 FROM rule_matches rm WHERE rm.transaction_id = transactions.id AND rm.rule_id = ?)",
			filter.RuleID,
		)
	}
	return query, nil
}

func (r *TransactionRepository) InsertRuleMatches(ctx context.Context, matches []domain.RuleMatch) error {
	if r.db == nil {
		return errDBUnavailable
	}
	if len(matches) == 0 {
		return nil
	}
	models := make([]RuleMatchModel, 0, len(matches))
	now := time.Now().UTC()
	for _, match := range matches {
		conditions, err := marshalJSONB(match.Conditions)
		if err != nil {
			return err
		}
		models = append(models, RuleMatchModel{
			ID:            newID(),
			TransactionID: match.TransactionID,
			RuleID:        match.RuleID,
			RuleVersion:   match.RuleVersion,
			Action:        match.Action,
			Conditions:    conditions,
			CreatedAt:     now,
		})
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "transaction_id"}, {Name: "rule_id"}, {Name: "rule_version"}},
			DoNothing: true,
		}).
		Create(&models).Error
}

func (r *TransactionRepository) ListRuleMatches(ctx context.Context, transactionID string) ([]domain.RuleMatch, error) {
	if r.db == nil {
		return nil, errDBUnavailable
	}
	var models []RuleMatchModel
	if err := r.db.WithContext(ctx).
		Where("transaction_id = ?", transactionID).
		Order("rule_id ASC, rule_version ASC").
		Find(&models).Error; err != nil {
		return nil, err
	}
	out := make([]domain.RuleMatch, 0, len(models))
	for _, model := range models {
		out = append(out, domain.RuleMatch{
			ID:            model.ID,
			TransactionID: model.TransactionID,
			RuleID:        model.RuleID,
			RuleVersion:   model.RuleVersion,
			Action:        model.Action,
			Conditions:    unmarshalJSONB(model.Conditions),
			CreatedAt:     model.CreatedAt,
		})
	}
	return out, nil
}

func (r *TransactionRepository) Overview(ctx context.Context, from, to time.Time) (usecase.TransactionOverview, error) {
	if r.db == nil {
		return usecase.TransactionOverview{}, errDBUnavailable
	}
	overview := usecase.TransactionOverview{From: from, To: to}

	window := r.db.WithContext(ctx).Model(&TransactionModel{}).
		Where("event_timestamp >= ? AND event_timestamp <= ?", from, to)

	if err := window.Session(&gorm.Session{}).Count(&overview.Total).Error; err != nil {
		return usecase.TransactionOverview{}, err
	}

	byDecision, err := groupCounts(window.Session(&gorm.Session{}), "decision")
	if err != nil {
		return usecase.TransactionOverview{}, err
	}
	overview.ByDecision = byDecision

	byRisk, err := groupCounts(window.Session(&gorm.Session{}).Where("risk_level IS NOT NULL"), "risk_level")
	if err != nil {
		return usecase.TransactionOverview{}, err
	}
	overview.ByRisk = byRisk
	return overview, nil
}

func groupCounts(query *gorm.DB, column string) ([]usecase.OverviewBucket, error) {
	rows := []struct {
		Key   string
		Count int64
	}{}
	if err := query.
		Select(fmt.Sprintf("%s AS key, COUNT(*) AS count", column)).
		Group(column).
		Order(column + " ASC").
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]usecase.OverviewBucket, 0, len(rows))
	for _, row := range rows {
		out = append(out, usecase.OverviewBucket{Key: row.Key, Count: row.Count})
	}
	return out, nil
}

func normalizeLimit(limit int) int {
	if limit <= 0 {
		return defaultPageSize
	}
	if limit > maxPageSize {
		return maxPageSize
	}
	return limit
}

func transactionModelFromDomain(tx domain.Transaction) (TransactionModel, error) {
	contextJSON, err := marshalJSONB(tx.Context)
	if err != nil {
		return TransactionModel{}, err
	}
	velocityJSON, err := marshalJSONB(tx.Velocity)
	if err != nil {
		return TransactionModel{}, err
	}
	metadataJSON, err := marshalJSONB(tx.EngineMetadata)
	if err != nil {
		return TransactionModel{}, err
	}
	rawJSON, err := marshalJSONB(tx.RawPayload)
	if err != nil {
		return TransactionModel{}, err
	}
	var risk *string
	if tx.RiskLevel != "" {
		value := string(tx.RiskLevel)
		risk = &value
	}
	return TransactionModel{
		ID:             tx.ID,
		TransactionID:  tx.TransactionID,
		EvaluationType: string(tx.EvaluationType),
		CardID:         tx.CardID,
		AccountID:      tx.AccountID,
		Amount:         tx.Amount,
		Currency:       strings.ToUpper(tx.Currency),
		Decision:       string(tx.Decision),
		DecisionReason: tx.DecisionReason,
		RiskLevel:      risk,
		Context:        contextJSON,
		Velocity:       velocityJSON,
		EngineMetadata: metadataJSON,
		RawPayload:     rawJSON,
		TraceID:        tx.TraceID,
		Source:         tx.Source,
		EventTimestamp: tx.EventTimestamp.UTC(),
	}, nil
}

func transactionFromModel(model TransactionModel) domain.Transaction {
	tx := domain.Transaction{
		ID:             model.ID,
		TransactionID:  model.TransactionID,
		EvaluationType: domain.EvaluationType(model.EvaluationType),
		CardID:         model.CardID,
		AccountID:      model.AccountID,
		Amount:         model.Amount,
		Currency:       model.Currency,
		Decision:       domain.Decision(model.Decision),
		DecisionReason: model.DecisionReason,
		Context:        unmarshalJSONB(model.Context),
		Velocity:       unmarshalJSONB(model.Velocity),
		EngineMetadata: unmarshalJSONB(model.EngineMetadata),
		RawPayload:     unmarshalJSONB(model.RawPayload),
		TraceID:        model.TraceID,
		Source:         model.Source,
		EventTimestamp: model.EventTimestamp,
		CreatedAt:      model.CreatedAt,
		UpdatedAt:      model.UpdatedAt,
	}
	if model.RiskLevel != nil {
		tx.RiskLevel = domain.RiskLevel(*model.RiskLevel)
	}
	return tx
}
