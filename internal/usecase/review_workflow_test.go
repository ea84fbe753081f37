package usecase

import (
	"context"
	"errors"
	"testing"

	"fraudops/internal/domain"
)

func newReviewFixture() (*ReviewService, *stubReviewRepo, *stubTransactionRepo) {
	txRepo := newStubTransactionRepo()
	reviewRepo := newStubReviewRepo()
	return NewReviewService(reviewRepo, txRepo), reviewRepo, txRepo
}

func TestUpdateStatus_AllowedTransitions(t *testing.T) {
	cases := []struct {
		name  string
		from  domain.ReviewStatus
		to    domain.ReviewStatus
		notes string
		ok    bool
	}{
		{"pending to in_review", domain.ReviewPending, domain.ReviewInReview, "", true},
		{"pending to escalated", domain.ReviewPending, domain.ReviewEscalated, "", true},
		{"in_review back to pending", domain.ReviewInReview, domain.ReviewPending, "", true},
		{"in_review to resolved with notes", domain.ReviewInReview, domain.ReviewResolved, "confirmed fraud", true},
		{"escalated to in_review", domain.ReviewEscalated, domain.ReviewInReview, "", true},
		{"resolved to closed", domain.ReviewResolved, domain.ReviewClosed, "done", true},
		{"resolved without notes", domain.ReviewInReview, domain.ReviewResolved, "", false},
		{"closed is terminal", domain.ReviewClosed, domain.ReviewPending, "", false},
		{"resolved cannot reopen", domain.ReviewResolved, domain.ReviewInReview, "", false},
		{"escalated cannot go pending", domain.ReviewEscalated, domain.ReviewPending, "", false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc, reviewRepo, _ := newReviewFixture()
			seeded := reviewRepo.seed(domain.Review{TransactionID: "tx-1", Status: tc.from, Priority: 3})

			updated, err := svc.UpdateStatus(context.Background(), seeded.ID, tc.to, "CODE", tc.notes, "analyst-1")
			if tc.ok {
				if err != nil {
					t.Fatalf("expected transition to succeed: %v", err)
				}
				if updated.Status != tc.to {
					t.Fatalf("status = %s, want %s", updated.Status, tc.to)
				}
				return
			}
			if !errors.Is(err, domain.ErrInvalidArgument) {
				t.Fatalf("expected ErrInvalidArgument, got %v", err)
			}
		})
	}
}

func TestUpdateStatus_ConcurrentLoserGetsConflict(t *testing.T) {
	svc, reviewRepo, _ := newReviewFixture()
	seeded := reviewRepo.seed(domain.Review{TransactionID: "tx-1", Status: domain.ReviewPending})

	// Another analyst resolves the review between this service's read of
	// PENDING and its conditional update, so the expected status no longer
	// matches the stored one.
	reviewRepo.afterGetByID = func(r *stubReviewRepo) {
		review := r.byID[seeded.ID]
		review.Status = domain.ReviewResolved
		r.byID[seeded.ID] = review
	}

	_, err := svc.UpdateStatus(context.Background(), seeded.ID, domain.ReviewEscalated, "", "", "analyst-2")
	if !errors.Is(err, domain.ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}
	stored, _ := reviewRepo.GetByID(context.Background(), seeded.ID)
	if stored.Status != domain.ReviewResolved {
		t.Fatalf("loser must not overwrite the winner, status = %s", stored.Status)
	}
}

func TestUpdateStatus_UnknownReview(t *testing.T) {
	svc, _, _ := newReviewFixture()
	_, err := svc.UpdateStatus(context.Background(), "missing", domain.ReviewInReview, "", "", "analyst-1")
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestGetOrCreate(t *testing.T) {
	svc, reviewRepo, txRepo := newReviewFixture()
	ctx := context.Background()

	tx, _, err := txRepo.Upsert(ctx, domain.Transaction{TransactionID: "biz-1", RiskLevel: domain.RiskCritical})
	if err != nil {
		t.Fatalf("seed tx: %v", err)
	}

	review, err := svc.GetOrCreate(ctx, tx.ID)
	if err != nil {
		t.Fatalf("get or create: %v", err)
	}
	if review.Status != domain.ReviewPending || review.Priority != 1 {
		t.Fatalf("new review = %+v", review)
	}

	again, err := svc.GetOrCreate(ctx, tx.ID)
	if err != nil {
		t.Fatalf("second get or create: %v", err)
	}
	if again.ID != review.ID {
		t.Fatal("second call must return the same review")
	}
	if reviewRepo.creates != 1 {
		t.Fatalf("creates = %d", reviewRepo.creates)
	}
}

func TestGetOrCreate_TransactionMissing(t *testing.T) {
	svc, _, _ := newReviewFixture()
	_, err := svc.GetOrCreate(context.Background(), "missing")
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestEscalate(t *testing.T) {
	svc, reviewRepo, _ := newReviewFixture()
	seeded := reviewRepo.seed(domain.Review{TransactionID: "tx-1", Status: domain.ReviewInReview})

	updated, err := svc.Escalate(context.Background(), seeded.ID, "supervisor-1", "needs supervisor sign-off", "analyst-1")
	if err != nil {
		t.Fatalf("escalate: %v", err)
	}
	if updated.Status != domain.ReviewEscalated {
		t.Fatalf("status = %s", updated.Status)
	}
	if updated.EscalatedTo != "supervisor-1" || updated.EscalationReason == "" {
		t.Fatalf("escalation fields = %+v", updated)
	}

	if _, err := svc.Escalate(context.Background(), seeded.ID, "", "reason", "analyst-1"); !errors.Is(err, domain.ErrInvalidArgument) {
		t.Fatalf("missing target should fail: %v", err)
	}
}

func TestResolve_RequiresCode(t *testing.T) {
	svc, reviewRepo, _ := newReviewFixture()
	seeded := reviewRepo.seed(domain.Review{TransactionID: "tx-1", Status: domain.ReviewInReview})

	if _, err := svc.Resolve(context.Background(), seeded.ID, "", "notes", "analyst-1"); !errors.Is(err, domain.ErrInvalidArgument) {
		t.Fatalf("missing code should fail: %v", err)
	}

	if _, err := svc.Resolve(context.Background(), seeded.ID, "FRAUD_CONFIRMED", "", "analyst-1"); !errors.Is(err, domain.ErrInvalidArgument) {
		t.Fatalf("missing notes should fail: %v", err)
	}

	resolved, err := svc.Resolve(context.Background(), seeded.ID, "FRAUD_CONFIRMED", "card reported stolen", "analyst-1")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if resolved.Status != domain.ReviewResolved || resolved.ResolutionCode != "FRAUD_CONFIRMED" {
		t.Fatalf("resolved = %+v", resolved)
	}
}

func TestResolve_OnlyClosedRefuses(t *testing.T) {
	svc, reviewRepo, _ := newReviewFixture()
	ctx := context.Background()

	// Re-resolving amends the recorded outcome instead of failing.
	resolved := reviewRepo.seed(domain.Review{TransactionID: "tx-1", Status: domain.ReviewResolved, ResolutionCode: "FRAUD_CONFIRMED"})
	amended, err := svc.Resolve(ctx, resolved.ID, "FALSE_POSITIVE", "cardholder confirmed the purchase", "supervisor-1")
	if err != nil {
		t.Fatalf("resolve from RESOLVED: %v", err)
	}
	if amended.Status != domain.ReviewResolved || amended.ResolutionCode != "FALSE_POSITIVE" {
		t.Fatalf("amended = %+v", amended)
	}

	escalated := reviewRepo.seed(domain.Review{TransactionID: "tx-2", Status: domain.ReviewEscalated})
	if _, err := svc.Resolve(ctx, escalated.ID, "FRAUD_CONFIRMED", "confirmed by supervisor", "supervisor-1"); err != nil {
		t.Fatalf("resolve from ESCALATED: %v", err)
	}

	closed := reviewRepo.seed(domain.Review{TransactionID: "tx-3", Status: domain.ReviewClosed})
	if _, err := svc.Resolve(ctx, closed.ID, "FRAUD_CONFIRMED", "notes", "analyst-1"); !errors.Is(err, domain.ErrInvalidArgument) {
		t.Fatalf("resolve from CLOSED should fail: %v", err)
	}
}

func TestEscalate_TerminalStatesRefuse(t *testing.T) {
	svc, reviewRepo, _ := newReviewFixture()
	ctx := context.Background()

	// Re-escalating redirects the review to a new target.
	escalated := reviewRepo.seed(domain.Review{TransactionID: "tx-1", Status: domain.ReviewEscalated, EscalatedTo: "supervisor-1"})
	redirected, err := svc.Escalate(ctx, escalated.ID, "supervisor-2", "original reviewer unavailable", "analyst-1")
	if err != nil {
		t.Fatalf("escalate from ESCALATED: %v", err)
	}
	if redirected.EscalatedTo != "supervisor-2" {
		t.Fatalf("redirected = %+v", redirected)
	}

	resolved := reviewRepo.seed(domain.Review{TransactionID: "tx-2", Status: domain.ReviewResolved})
	if _, err := svc.Escalate(ctx, resolved.ID, "supervisor-1", "reason", "analyst-1"); !errors.Is(err, domain.ErrInvalidArgument) {
		t.Fatalf("escalate from RESOLVED should fail: %v", err)
	}

	closed := reviewRepo.seed(domain.Review{TransactionID: "tx-3", Status: domain.ReviewClosed})
	if _, err := svc.Escalate(ctx, closed.ID, "supervisor-1", "reason", "analyst-1"); !errors.Is(err, domain.ErrInvalidArgument) {
		t.Fatalf("escalate from CLOSED should fail: %v", err)
	}
}

func TestAssign_AnyNonTerminalState(t *testing.T) {
	svc, reviewRepo, _ := newReviewFixture()
	ctx := context.Background()

	resolved := reviewRepo.seed(domain.Review{TransactionID: "tx-1", Status: domain.ReviewResolved})
	reopened, err := svc.Assign(ctx, resolved.ID, "analyst-2")
	if err != nil {
		t.Fatalf("assign from RESOLVED: %v", err)
	}
	if reopened.Status != domain.ReviewInReview || reopened.AssignedAnalystID != "analyst-2" {
		t.Fatalf("reopened = %+v", reopened)
	}

	closed := reviewRepo.seed(domain.Review{TransactionID: "tx-2", Status: domain.ReviewClosed})
	if _, err := svc.Assign(ctx, closed.ID, "analyst-2"); !errors.Is(err, domain.ErrConflict) {
		t.Fatalf("assign from CLOSED should fail: %v", err)
	}
}
