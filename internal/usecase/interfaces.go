package usecase

import (
	"context"
	"time"

	"fraudops/internal/domain"

	"github.com/shopspring/decimal"
)

// TransactionFilter narrows transaction list queries. Cursor is the opaque
// token from the previous page; Limit is capped by the repository.
type TransactionFilter struct {
	CardID            string
	AccountID         string
	Decision          domain.Decision
	EvaluationType    domain.EvaluationType
	RiskLevel         domain.RiskLevel
	ReviewStatus      domain.ReviewStatus
	AssignedAnalystID string
	CaseID            string
	RuleID            string
	MinAmount         *decimal.Decimal
	MaxAmount         *decimal.Decimal
	From              *time.Time
	To                *time.Time
	Cursor            string
	Limit             int
}

type TransactionPage struct {
	Items      []domain.Transaction
	NextCursor string
	HasMore    bool
	Total      int64
}

type OverviewBucket struct {
	Key   string
	Count int64
}

type TransactionOverview struct {
	Total      int64
	ByDecision []OverviewBucket
	ByRisk     []OverviewBucket
	From       time.Time
	To         time.Time
}

// ReviewStatusUpdate is one conditional workflow transition. ExpectedStatus
// is matched inside the UPDATE so a concurrent transition loses cleanly
// instead of overwriting.
type ReviewStatusUpdate struct {
	ReviewID         string
	ExpectedStatus   domain.ReviewStatus
	NewStatus        domain.ReviewStatus
	ResolutionCode   string
	ResolutionNotes  string
	ResolvedBy       string
	EscalatedTo      string
	EscalationReason string
}

type WorklistFilter struct {
	Statuses          []domain.ReviewStatus
	Priority          int
	RiskLevel         domain.RiskLevel
	AssignedAnalystID string
	UnassignedOnly    bool
	Cursor            string
	Limit             int
}

// WorklistItem is a review joined with the slice of its transaction the
// analyst queue renders.
type WorklistItem struct {
	Review      domain.Review
	Transaction domain.Transaction
}

type WorklistPage struct {
	Items      []WorklistItem
	NextCursor string
	HasMore    bool
}

type WorklistStats struct {
	ByStatus         map[domain.ReviewStatus]int64
	ByPriority       map[int]int64
	Unassigned       int64
	OldestPendingAge time.Duration
}

type ClaimFilter struct {
	Priority  int
	RiskLevel domain.RiskLevel
}

type CaseFilter struct {
	Status            domain.CaseStatus
	CaseType          domain.CaseType
	AssignedAnalystID string
	Cursor            string
	Limit             int
}

type CasePage struct {
	Items      []domain.Case
	NextCursor string
	HasMore    bool
}

// CaseUpdate carries the mutable case fields; nil means unchanged.
type CaseUpdate struct {
	CaseID            string
	ActorID           string
	Status            *domain.CaseStatus
	AssignedAnalystID *string
	Title             *string
	Description       *string
}

type TransactionRepository interface {
	Upsert(ctx context.Context, tx domain.Transaction) (domain.Transaction, bool, error)
	GetByID(ctx context.Context, id string) (domain.Transaction, error)
	GetByTransactionID(ctx context.Context, businessID string) (domain.Transaction, error)
	List(ctx context.Context, filter TransactionFilter) (TransactionPage, error)
	InsertRuleMatches(ctx context.Context, matches []domain.RuleMatch) error
	ListRuleMatches(ctx context.Context, transactionID string) ([]domain.RuleMatch, error)
	Overview(ctx context.Context, from, to time.Time) (TransactionOverview, error)
}

type ReviewRepository interface {
	CreateIfAbsent(ctx context.Context, review domain.Review) (domain.Review, bool, error)
	GetByID(ctx context.Context, id string) (domain.Review, error)
	GetByTransactionID(ctx context.Context, transactionID string) (domain.Review, error)
	UpdateStatus(ctx context.Context, update ReviewStatusUpdate) (domain.Review, error)
	Assign(ctx context.Context, reviewID, analystID string) (domain.Review, error)
	ListWorklist(ctx context.Context, filter WorklistFilter) (WorklistPage, error)
	WorklistStats(ctx context.Context, analystID string) (WorklistStats, error)
	ClaimNext(ctx context.Context, filter ClaimFilter, analystID string) (domain.Review, error)
}

type CaseRepository interface {
	Create(ctx context.Context, investigation domain.Case) (domain.Case, error)
	GetByID(ctx context.Context, id string) (domain.Case, error)
	List(ctx context.Context, filter CaseFilter) (CasePage, error)
	Update(ctx context.Context, update CaseUpdate) (domain.Case, error)
	AddTransaction(ctx context.Context, caseID, transactionID, actorID string) (domain.Case, error)
	RemoveTransaction(ctx context.Context, caseID, transactionID, actorID string) (domain.Case, error)
	Resolve(ctx context.Context, caseID, summary, resolvedBy string) (domain.Case, error)
	ListActivity(ctx context.Context, caseID string) ([]domain.CaseActivity, error)
	ListTransactions(ctx context.Context, caseID string) ([]domain.Transaction, error)
}

type NoteRepository interface {
	Create(ctx context.Context, note domain.Note) (domain.Note, error)
	GetByID(ctx context.Context, id string) (domain.Note, error)
	ListByTransaction(ctx context.Context, transactionID string) ([]domain.Note, error)
	Update(ctx context.Context, id string, noteType domain.NoteType, content string) (domain.Note, error)
	Delete(ctx context.Context, id string) error
}
