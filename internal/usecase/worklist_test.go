package usecase

import (
	"context"
	"errors"
	"testing"

	"fraudops/internal/domain"
)

func TestWorklist_DefaultStatuses(t *testing.T) {
	reviewRepo := newStubReviewRepo()
	svc := NewWorklistService(reviewRepo)
	ctx := context.Background()

	reviewRepo.seed(domain.Review{TransactionID: "tx-1", Status: domain.ReviewPending})
	reviewRepo.seed(domain.Review{TransactionID: "tx-2", Status: domain.ReviewEscalated})
	reviewRepo.seed(domain.Review{TransactionID: "tx-3", Status: domain.ReviewClosed})

	page, err := svc.List(ctx, WorklistFilter{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(page.Items) != 2 {
		t.Fatalf("default view should exclude terminal reviews, got %d", len(page.Items))
	}
}

func TestWorklist_FilterValidation(t *testing.T) {
	svc := NewWorklistService(newStubReviewRepo())
	ctx := context.Background()

	if _, err := svc.List(ctx, WorklistFilter{Statuses: []domain.ReviewStatus{"BOGUS"}}); !errors.Is(err, domain.ErrInvalidArgument) {
		t.Fatalf("bad status: %v", err)
	}
	if _, err := svc.List(ctx, WorklistFilter{Priority: 9}); !errors.Is(err, domain.ErrInvalidArgument) {
		t.Fatalf("bad priority: %v", err)
	}
	if _, err := svc.List(ctx, WorklistFilter{RiskLevel: "EXTREME"}); !errors.Is(err, domain.ErrInvalidArgument) {
		t.Fatalf("bad risk: %v", err)
	}
}

func TestWorklist_Claim(t *testing.T) {
	reviewRepo := newStubReviewRepo()
	svc := NewWorklistService(reviewRepo)
	ctx := context.Background()

	seeded := reviewRepo.seed(domain.Review{TransactionID: "tx-1", Status: domain.ReviewPending, Priority: 1})

	claimed, err := svc.Claim(ctx, ClaimFilter{}, "analyst-1")
	if err != nil {
		t.Fatalf("claim: %v", err)
	}
	if claimed.ID != seeded.ID || claimed.AssignedAnalystID != "analyst-1" {
		t.Fatalf("claimed = %+v", claimed)
	}
	if claimed.Status != domain.ReviewInReview {
		t.Fatalf("claimed status = %s", claimed.Status)
	}

	// Queue is now empty.
	if _, err := svc.Claim(ctx, ClaimFilter{}, "analyst-2"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("empty queue should be ErrNotFound: %v", err)
	}

	if _, err := svc.Claim(ctx, ClaimFilter{}, ""); !errors.Is(err, domain.ErrInvalidArgument) {
		t.Fatalf("missing analyst id: %v", err)
	}
}

func TestWorklist_Unassigned(t *testing.T) {
	reviewRepo := newStubReviewRepo()
	svc := NewWorklistService(reviewRepo)
	ctx := context.Background()

	reviewRepo.seed(domain.Review{TransactionID: "tx-1", Status: domain.ReviewPending})
	reviewRepo.seed(domain.Review{TransactionID: "tx-2", Status: domain.ReviewPending, AssignedAnalystID: "analyst-1"})

	page, err := svc.Unassigned(ctx, 10, "")
	if err != nil {
		t.Fatalf("unassigned: %v", err)
	}
	if len(page.Items) != 1 {
		t.Fatalf("unassigned count = %d", len(page.Items))
	}
}
