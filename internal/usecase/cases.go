package usecase

import (
	"context"
	"fmt"

	"fraudops/internal/domain"
	"fraudops/pkg/log"

	"github.com/rs/zerolog"
)

// CaseService manages investigations that group related transactions. The
// repository runs each multi-step mutation in one store transaction; this
// layer validates inputs and case state.
type CaseService struct {
	cases  CaseRepository
	logger zerolog.Logger
}

// CaseDetail is the full investigation view.
type CaseDetail struct {
	Case         domain.Case
	Activity     []domain.CaseActivity
	Transactions []domain.Transaction
}

func NewCaseService(cases CaseRepository) *CaseService {
	return &CaseService{
		cases:  cases,
		logger: log.Logger().With().Str("component", "cases").Logger(),
	}
}

func (s *CaseService) Create(ctx context.Context, caseType domain.CaseType, title, description, assignedAnalystID string, creator domain.Principal) (domain.Case, error) {
	if title == "" {
		return domain.Case{}, fmt.Errorf("title is required: %w", domain.ErrInvalidArgument)
	}
	if !caseType.Valid() {
		return domain.Case{}, fmt.Errorf("case type %q: %w", caseType, domain.ErrInvalidArgument)
	}
	created, err := s.cases.Create(ctx, domain.Case{
		CaseType:          caseType,
		Status:            domain.CaseOpen,
		Title:             title,
		Description:       description,
		AssignedAnalystID: assignedAnalystID,
		CreatedBy:         creator.Subject,
	})
	if err != nil {
		return domain.Case{}, err
	}
	s.logger.Info().
		Str("case_id", created.ID).
		Str("case_number", created.CaseNumber).
		Str("created_by", creator.Subject).
		Msg("case opened")
	return created, nil
}

func (s *CaseService) Get(ctx context.Context, id string) (domain.Case, error) {
	if id == "" {
		return domain.Case{}, fmt.Errorf("case id is required: %w", domain.ErrInvalidArgument)
	}
	return s.cases.GetByID(ctx, id)
}

func (s *CaseService) GetDetail(ctx context.Context, id string) (CaseDetail, error) {
	investigation, err := s.Get(ctx, id)
	if err != nil {
		return CaseDetail{}, err
	}
	activity, err := s.cases.ListActivity(ctx, investigation.ID)
	if err != nil {
		return CaseDetail{}, err
	}
	transactions, err := s.cases.ListTransactions(ctx, investigation.ID)
	if err != nil {
		return CaseDetail{}, err
	}
	return CaseDetail{Case: investigation, Activity: activity, Transactions: transactions}, nil
}

func (s *CaseService) List(ctx context.Context, filter CaseFilter) (CasePage, error) {
	if filter.Status != "" && !filter.Status.Valid() {
		return CasePage{}, fmt.Errorf("status %q: %w", filter.Status, domain.ErrInvalidArgument)
	}
	if filter.CaseType != "" && !filter.CaseType.Valid() {
		return CasePage{}, fmt.Errorf("case type %q: %w", filter.CaseType, domain.ErrInvalidArgument)
	}
	return s.cases.List(ctx, filter)
}

func (s *CaseService) Update(ctx context.Context, update CaseUpdate) (domain.Case, error) {
	if update.CaseID == "" {
		return domain.Case{}, fmt.Errorf("case id is required: %w", domain.ErrInvalidArgument)
	}
	if update.Status != nil && !update.Status.Valid() {
		return domain.Case{}, fmt.Errorf("status %q: %w", *update.Status, domain.ErrInvalidArgument)
	}
	if update.Title != nil && *update.Title == "" {
		return domain.Case{}, fmt.Errorf("title must not be empty: %w", domain.ErrInvalidArgument)
	}
	return s.cases.Update(ctx, update)
}

// AddTransaction links a transaction to the case. The repository rejects
// closed cases and double links, and maintains the aggregates.
func (s *CaseService) AddTransaction(ctx context.Context, caseID, transactionID string, actor domain.Principal) (domain.Case, error) {
	if caseID == "" || transactionID == "" {
		return domain.Case{}, fmt.Errorf("case id and transaction id are required: %w", domain.ErrInvalidArgument)
	}
	return s.cases.AddTransaction(ctx, caseID, transactionID, actor.Subject)
}

func (s *CaseService) RemoveTransaction(ctx context.Context, caseID, transactionID string, actor domain.Principal) (domain.Case, error) {
	if caseID == "" || transactionID == "" {
		return domain.Case{}, fmt.Errorf("case id and transaction id are required: %w", domain.ErrInvalidArgument)
	}
	return s.cases.RemoveTransaction(ctx, caseID, transactionID, actor.Subject)
}

func (s *CaseService) Resolve(ctx context.Context, caseID, summary string, actor domain.Principal) (domain.Case, error) {
	if summary == "" {
		return domain.Case{}, fmt.Errorf("resolution summary is required: %w", domain.ErrInvalidArgument)
	}
	resolved, err := s.cases.Resolve(ctx, caseID, summary, actor.Subject)
	if err != nil {
		return domain.Case{}, err
	}
	s.logger.Info().
		Str("case_id", caseID).
		Str("resolved_by", actor.Subject).
		Msg("case resolved")
	return resolved, nil
}
