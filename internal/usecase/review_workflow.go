package usecase

import (
	"context"
	"fmt"
	"strings"

	"fraudops/internal/domain"
	"fraudops/pkg/log"

	"github.com/rs/zerolog"
)

// ReviewService drives the analyst workflow state machine. Transition
// legality is checked here; the repository enforces the race-free swap.
type ReviewService struct {
	reviews      ReviewRepository
	transactions TransactionRepository
	logger       zerolog.Logger
}

func NewReviewService(reviews ReviewRepository, transactions TransactionRepository) *ReviewService {
	return &ReviewService{
		reviews:      reviews,
		transactions: transactions,
		logger:       log.Logger().With().Str("component", "review").Logger(),
	}
}

func (s *ReviewService) Get(ctx context.Context, id string) (domain.Review, error) {
	if id == "" {
		return domain.Review{}, fmt.Errorf("review id is required: %w", domain.ErrInvalidArgument)
	}
	return s.reviews.GetByID(ctx, id)
}

// GetByTransaction returns the review for a transaction without creating
// one. Bulk operations use it to resolve transaction ids to reviews.
func (s *ReviewService) GetByTransaction(ctx context.Context, transactionID string) (domain.Review, error) {
	if transactionID == "" {
		return domain.Review{}, fmt.Errorf("transaction id is required: %w", domain.ErrInvalidArgument)
	}
	return s.reviews.GetByTransactionID(ctx, transactionID)
}

// GetOrCreate returns the review for a transaction, creating a default
// PENDING one when none exists yet.
func (s *ReviewService) GetOrCreate(ctx context.Context, transactionID string) (domain.Review, error) {
	if transactionID == "" {
		return domain.Review{}, fmt.Errorf("transaction id is required: %w", domain.ErrInvalidArgument)
	}
	tx, err := s.transactions.GetByID(ctx, transactionID)
	if err != nil {
		return domain.Review{}, err
	}
	review, _, err := s.reviews.CreateIfAbsent(ctx, domain.Review{
		TransactionID: tx.ID,
		Status:        domain.ReviewPending,
		Priority:      tx.RiskLevel.ReviewPriority(),
	})
	return review, err
}

// UpdateStatus moves the review to newStatus after validating the transition
// against the current state. The repository's conditional UPDATE turns a
// concurrent transition into ErrConflict.
func (s *ReviewService) UpdateStatus(ctx context.Context, reviewID string, newStatus domain.ReviewStatus, resolutionCode, resolutionNotes, actorID string) (domain.Review, error) {
	if !newStatus.Valid() {
		return domain.Review{}, fmt.Errorf("status %q: %w", newStatus, domain.ErrInvalidArgument)
	}
	current, err := s.Get(ctx, reviewID)
	if err != nil {
		return domain.Review{}, err
	}
	if !current.Status.CanTransition(newStatus) {
		return domain.Review{}, fmt.Errorf("transition %s -> %s not allowed: %w",
			current.Status, newStatus, domain.ErrInvalidArgument)
	}
	if newStatus.RequiresResolutionNotes() && resolutionNotes == "" {
		return domain.Review{}, fmt.Errorf("resolution notes are required for %s: %w",
			newStatus, domain.ErrInvalidArgument)
	}
	updated, err := s.reviews.UpdateStatus(ctx, ReviewStatusUpdate{
		ReviewID:        reviewID,
		ExpectedStatus:  current.Status,
		NewStatus:       newStatus,
		ResolutionCode:  resolutionCode,
		ResolutionNotes: resolutionNotes,
		ResolvedBy:      actorID,
	})
	if err != nil {
		return domain.Review{}, err
	}
	s.logger.Info().
		Str("review_id", reviewID).
		Str("from", string(current.Status)).
		Str("to", string(newStatus)).
		Str("actor", actorID).
		Msg("review status changed")
	return updated, nil
}

func (s *ReviewService) Assign(ctx context.Context, reviewID, analystID string) (domain.Review, error) {
	if reviewID == "" || analystID == "" {
		return domain.Review{}, fmt.Errorf("review id and analyst id are required: %w", domain.ErrInvalidArgument)
	}
	return s.reviews.Assign(ctx, reviewID, analystID)
}

// Resolve sets the review RESOLVED and stamps the resolution fields. Unlike
// UpdateStatus it does not consult the transition table: resolving is legal
// from every state except CLOSED, including a re-resolve that amends the
// recorded code and notes.
func (s *ReviewService) Resolve(ctx context.Context, reviewID, resolutionCode, resolutionNotes, actorID string) (domain.Review, error) {
	if resolutionCode == "" {
		return domain.Review{}, fmt.Errorf("resolution code is required: %w", domain.ErrInvalidArgument)
	}
	if resolutionNotes == "" {
		return domain.Review{}, fmt.Errorf("resolution notes are required: %w", domain.ErrInvalidArgument)
	}
	current, err := s.Get(ctx, reviewID)
	if err != nil {
		return domain.Review{}, err
	}
	if current.Status == domain.ReviewClosed {
		return domain.Review{}, fmt.Errorf("review is closed: %w", domain.ErrInvalidArgument)
	}
	updated, err := s.reviews.UpdateStatus(ctx, ReviewStatusUpdate{
		ReviewID:        reviewID,
		ExpectedStatus:  current.Status,
		NewStatus:       domain.ReviewResolved,
		ResolutionCode:  resolutionCode,
		ResolutionNotes: resolutionNotes,
		ResolvedBy:      actorID,
	})
	if err != nil {
		return domain.Review{}, err
	}
	s.logger.Info().
		Str("review_id", reviewID).
		Str("resolution_code", resolutionCode).
		Str("actor", actorID).
		Msg("review resolved")
	return updated, nil
}

// Escalate moves the review to ESCALATED with a target and reason. Only
// RESOLVED and CLOSED refuse; re-escalating updates the target and reason.
func (s *ReviewService) Escalate(ctx context.Context, reviewID, escalatedTo, reason, actorID string) (domain.Review, error) {
	if escalatedTo == "" || reason == "" {
		return domain.Review{}, fmt.Errorf("escalation target and reason are required: %w", domain.ErrInvalidArgument)
	}
	current, err := s.Get(ctx, reviewID)
	if err != nil {
		return domain.Review{}, err
	}
	if current.Status == domain.ReviewResolved || current.Status == domain.ReviewClosed {
		return domain.Review{}, fmt.Errorf("review is %s: %w",
			strings.ToLower(string(current.Status)), domain.ErrInvalidArgument)
	}
	updated, err := s.reviews.UpdateStatus(ctx, ReviewStatusUpdate{
		ReviewID:         reviewID,
		ExpectedStatus:   current.Status,
		NewStatus:        domain.ReviewEscalated,
		EscalatedTo:      escalatedTo,
		EscalationReason: reason,
	})
	if err != nil {
		return domain.Review{}, err
	}
	s.logger.Info().
		Str("review_id", reviewID).
		Str("escalated_to", escalatedTo).
		Str("actor", actorID).
		Msg("review escalated")
	return updated, nil
}
