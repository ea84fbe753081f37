package domain

import "time"

type ReviewStatus string

const (
	ReviewPending   ReviewStatus = "PENDING"
	ReviewInReview  ReviewStatus = "IN_REVIEW"
	ReviewEscalated ReviewStatus = "ESCALATED"
	ReviewResolved  ReviewStatus = "RESOLVED"
	ReviewClosed    ReviewStatus = "CLOSED"
)

const (
	ReviewPriorityHighest = 1
	ReviewPriorityDefault = 3
	ReviewPriorityLowest  = 5
)

// Review is the analyst workflow record for exactly one transaction.
type Review struct {
	ID                string
	TransactionID     string
	Status            ReviewStatus
	Priority          int
	AssignedAnalystID string
	AssignedAt        *time.Time
	CaseID            string
	ResolutionCode    string
	ResolutionNotes   string
	ResolvedBy        string
	ResolvedAt        *time.Time
	EscalatedTo       string
	EscalationReason  string
	EscalatedAt       *time.Time
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// reviewTransitions is the allowed status transition table. CLOSED is
// terminal and has no outgoing transitions.
var reviewTransitions = map[ReviewStatus][]ReviewStatus{
	ReviewPending:   {ReviewInReview, ReviewEscalated, ReviewResolved, ReviewClosed},
	ReviewInReview:  {ReviewPending, ReviewEscalated, ReviewResolved, ReviewClosed},
	ReviewEscalated: {ReviewInReview, ReviewResolved, ReviewClosed},
	ReviewResolved:  {ReviewClosed},
	ReviewClosed:    {},
}

func (s ReviewStatus) Valid() bool {
	_, ok := reviewTransitions[s]
	return ok
}

func (s ReviewStatus) Terminal() bool {
	return s == ReviewClosed
}

// CanTransition reports whether the workflow allows moving from s to next.
func (s ReviewStatus) CanTransition(next ReviewStatus) bool {
	for _, allowed := range reviewTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// RequiresResolutionNotes reports whether a transition into this status must
// carry resolution notes.
func (s ReviewStatus) RequiresResolutionNotes() bool {
	return s == ReviewResolved || s == ReviewClosed
}
