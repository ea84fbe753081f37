package usecase

import (
	"context"
	"errors"
	"fmt"

	"fraudops/internal/domain"
)

// maxBulkItems caps one bulk request; larger batches must be split by the
// caller.
const maxBulkItems = 100

// BulkService runs per-item operations with per-item error isolation: one
// failing id never aborts the rest of the batch.
type BulkService struct {
	reviews *ReviewService
	cases   *CaseService
}

type BulkItemResult struct {
	ID        string
	Success   bool
	ErrorCode string
	Message   string
}

type BulkResult struct {
	TotalRequested int
	Successful     int
	Failed         int
	Items          []BulkItemResult
	ErrorCounts    map[string]int
}

// BulkCaseResult additionally carries the case every successful item was
// linked to.
type BulkCaseResult struct {
	BulkResult
	Case domain.Case
}

func NewBulkService(reviews *ReviewService, cases *CaseService) *BulkService {
	return &BulkService{reviews: reviews, cases: cases}
}

// BulkAssign resolves each transaction id to its review and assigns it. A
// transaction without a review is a per-item REVIEW_NOT_FOUND failure.
func (s *BulkService) BulkAssign(ctx context.Context, transactionIDs []string, analystID string) (BulkResult, error) {
	if err := validateBatch(transactionIDs); err != nil {
		return BulkResult{}, err
	}
	if analystID == "" {
		return BulkResult{}, fmt.Errorf("analyst id is required: %w", domain.ErrInvalidArgument)
	}
	result := newBulkResult(len(transactionIDs))
	for _, id := range transactionIDs {
		review, err := s.reviews.GetByTransaction(ctx, id)
		if err == nil {
			_, err = s.reviews.Assign(ctx, review.ID, analystID)
		}
		result.record(id, err)
	}
	return result, nil
}

func (s *BulkService) BulkUpdateStatus(ctx context.Context, transactionIDs []string, newStatus domain.ReviewStatus, resolutionCode, resolutionNotes, actorID string) (BulkResult, error) {
	if err := validateBatch(transactionIDs); err != nil {
		return BulkResult{}, err
	}
	if !newStatus.Valid() {
		return BulkResult{}, fmt.Errorf("status %q: %w", newStatus, domain.ErrInvalidArgument)
	}
	result := newBulkResult(len(transactionIDs))
	for _, id := range transactionIDs {
		review, err := s.reviews.GetByTransaction(ctx, id)
		if err == nil {
			_, err = s.reviews.UpdateStatus(ctx, review.ID, newStatus, resolutionCode, resolutionNotes, actorID)
		}
		result.record(id, err)
	}
	return result, nil
}

// BulkCreateCase opens one case and links each transaction to it. The case
// survives even if some links fail; failed ids are reported per item.
func (s *BulkService) BulkCreateCase(ctx context.Context, caseType domain.CaseType, title, description string, transactionIDs []string, creator domain.Principal) (BulkCaseResult, error) {
	if err := validateBatch(transactionIDs); err != nil {
		return BulkCaseResult{}, err
	}
	created, err := s.cases.Create(ctx, caseType, title, description, "", creator)
	if err != nil {
		return BulkCaseResult{}, err
	}
	result := newBulkResult(len(transactionIDs))
	for _, id := range transactionIDs {
		_, err := s.cases.AddTransaction(ctx, created.ID, id, creator)
		result.record(id, err)
	}
	// Re-read so the returned aggregates reflect the links.
	final, err := s.cases.Get(ctx, created.ID)
	if err != nil {
		final = created
	}
	return BulkCaseResult{BulkResult: result, Case: final}, nil
}

func validateBatch(ids []string) error {
	if len(ids) == 0 {
		return fmt.Errorf("at least one id is required: %w", domain.ErrInvalidArgument)
	}
	if len(ids) > maxBulkItems {
		return fmt.Errorf("batch of %d exceeds the limit of %d: %w", len(ids), maxBulkItems, domain.ErrInvalidArgument)
	}
	return nil
}

func newBulkResult(total int) BulkResult {
	return BulkResult{
		TotalRequested: total,
		Items:          make([]BulkItemResult, 0, total),
		ErrorCounts:    map[string]int{},
	}
}

func (r *BulkResult) record(id string, err error) {
	if err == nil {
		r.Successful++
		r.Items = append(r.Items, BulkItemResult{ID: id, Success: true})
		return
	}
	code := bulkErrorCode(err)
	r.Failed++
	r.ErrorCounts[code]++
	r.Items = append(r.Items, BulkItemResult{
		ID:        id,
		ErrorCode: code,
		Message:   err.Error(),
	})
}

func bulkErrorCode(err error) string {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return "REVIEW_NOT_FOUND"
	case errors.Is(err, domain.ErrConflict):
		return "CONFLICT"
	case errors.Is(err, domain.ErrInvalidArgument):
		return "INVALID_TRANSITION"
	case errors.Is(err, domain.ErrForbidden):
		return "FORBIDDEN"
	default:
		return "INTERNAL"
	}
}
