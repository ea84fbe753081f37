package usecase

import (
	"context"
	"fmt"

	"fraudops/internal/domain"
)

// WorklistService serves the analyst queue views and the atomic claim.
type WorklistService struct {
	reviews ReviewRepository
}

func NewWorklistService(reviews ReviewRepository) *WorklistService {
	return &WorklistService{reviews: reviews}
}

func (s *WorklistService) List(ctx context.Context, filter WorklistFilter) (WorklistPage, error) {
	for _, status := range filter.Statuses {
		if !status.Valid() {
			return WorklistPage{}, fmt.Errorf("status %q: %w", status, domain.ErrInvalidArgument)
		}
	}
	if filter.Priority < 0 || filter.Priority > domain.ReviewPriorityLowest {
		return WorklistPage{}, fmt.Errorf("priority %d out of range: %w", filter.Priority, domain.ErrInvalidArgument)
	}
	if filter.RiskLevel != "" && !filter.RiskLevel.Valid() {
		return WorklistPage{}, fmt.Errorf("risk level %q: %w", filter.RiskLevel, domain.ErrInvalidArgument)
	}
	if len(filter.Statuses) == 0 {
		filter.Statuses = []domain.ReviewStatus{domain.ReviewPending, domain.ReviewInReview, domain.ReviewEscalated}
	}
	return s.reviews.ListWorklist(ctx, filter)
}

// Unassigned is the grab-queue view: pending reviews nobody owns yet.
func (s *WorklistService) Unassigned(ctx context.Context, limit int, cursor string) (WorklistPage, error) {
	return s.reviews.ListWorklist(ctx, WorklistFilter{
		Statuses:       []domain.ReviewStatus{domain.ReviewPending},
		UnassignedOnly: true,
		Limit:          limit,
		Cursor:         cursor,
	})
}

func (s *WorklistService) Stats(ctx context.Context, analystID string) (WorklistStats, error) {
	return s.reviews.WorklistStats(ctx, analystID)
}

// Claim atomically assigns the next unclaimed review to the analyst.
// ErrNotFound means the queue is empty for the given filter.
func (s *WorklistService) Claim(ctx context.Context, filter ClaimFilter, analystID string) (domain.Review, error) {
	if analystID == "" {
		return domain.Review{}, fmt.Errorf("analyst id is required: %w", domain.ErrInvalidArgument)
	}
	if filter.Priority < 0 || filter.Priority > domain.ReviewPriorityLowest {
		return domain.Review{}, fmt.Errorf("priority %d out of range: %w", filter.Priority, domain.ErrInvalidArgument)
	}
	if filter.RiskLevel != "" && !filter.RiskLevel.Valid() {
		return domain.Review{}, fmt.Errorf("risk level %q: %w", filter.RiskLevel, domain.ErrInvalidArgument)
	}
	return s.reviews.ClaimNext(ctx, filter, analystID)
}
