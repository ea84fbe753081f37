package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"fraudops/internal/domain"
)

// TransactionService serves the analyst-facing read side of the ledger.
type TransactionService struct {
	transactions TransactionRepository
	reviews      ReviewRepository
}

// TransactionDetail is the combined investigation view: the transaction, the
// rules that fired, and the review if one exists.
type TransactionDetail struct {
	Transaction domain.Transaction
	RuleMatches []domain.RuleMatch
	Review      *domain.Review
}

func NewTransactionService(transactions TransactionRepository, reviews ReviewRepository) *TransactionService {
	return &TransactionService{transactions: transactions, reviews: reviews}
}

func (s *TransactionService) List(ctx context.Context, filter TransactionFilter) (TransactionPage, error) {
	if filter.MinAmount != nil && filter.MaxAmount != nil && filter.MinAmount.GreaterThan(*filter.MaxAmount) {
		return TransactionPage{}, fmt.Errorf("min_amount exceeds max_amount: %w", domain.ErrInvalidArgument)
	}
	if filter.From != nil && filter.To != nil && filter.From.After(*filter.To) {
		return TransactionPage{}, fmt.Errorf("from is after to: %w", domain.ErrInvalidArgument)
	}
	return s.transactions.List(ctx, filter)
}

func (s *TransactionService) Get(ctx context.Context, id string) (domain.Transaction, error) {
	if id == "" {
		return domain.Transaction{}, fmt.Errorf("id is required: %w", domain.ErrInvalidArgument)
	}
	return s.transactions.GetByID(ctx, id)
}

// GetDetail loads the combined view. A missing review is not an error; the
// field stays nil for MONITORING events and pre-review AUTH events.
func (s *TransactionService) GetDetail(ctx context.Context, id string) (TransactionDetail, error) {
	tx, err := s.Get(ctx, id)
	if err != nil {
		return TransactionDetail{}, err
	}
	matches, err := s.transactions.ListRuleMatches(ctx, tx.ID)
	if err != nil {
		return TransactionDetail{}, err
	}
	detail := TransactionDetail{Transaction: tx, RuleMatches: matches}
	review, err := s.reviews.GetByTransactionID(ctx, tx.ID)
	switch {
	case err == nil:
		detail.Review = &review
	case errors.Is(err, domain.ErrNotFound):
	default:
		return TransactionDetail{}, err
	}
	return detail, nil
}

func (s *TransactionService) Overview(ctx context.Context, from, to time.Time) (TransactionOverview, error) {
	if to.IsZero() {
		to = time.Now().UTC()
	}
	if from.IsZero() {
		from = to.Add(-24 * time.Hour)
	}
	if from.After(to) {
		return TransactionOverview{}, fmt.Errorf("from is after to: %w", domain.ErrInvalidArgument)
	}
	return s.transactions.Overview(ctx, from, to)
}
