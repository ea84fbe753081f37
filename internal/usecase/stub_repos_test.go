package usecase

import (
	"context"
	"fmt"
	"time"

	"fraudops/internal/domain"
)

// In-memory repository stubs for service tests. Not safe for concurrent use;
// tests drive them from one goroutine.

type stubTransactionRepo struct {
	byID     map[string]domain.Transaction
	byBizID  map[string]string
	matches  map[string][]domain.RuleMatch
	upserts  int
	failWith error
}

func newStubTransactionRepo() *stubTransactionRepo {
	return &stubTransactionRepo{
		byID:    map[string]domain.Transaction{},
		byBizID: map[string]string{},
		matches: map[string][]domain.RuleMatch{},
	}
}

func (r *stubTransactionRepo) Upsert(_ context.Context, tx domain.Transaction) (domain.Transaction, bool, error) {
	if r.failWith != nil {
		return domain.Transaction{}, false, r.failWith
	}
	r.upserts++
	if id, ok := r.byBizID[tx.TransactionID]; ok {
		existing := r.byID[id]
		existing.TraceID = tx.TraceID
		existing.RawPayload = tx.RawPayload
		existing.Source = tx.Source
		existing.UpdatedAt = time.Now()
		r.byID[id] = existing
		return existing, false, nil
	}
	tx.ID = fmt.Sprintf("tx-%d", len(r.byID)+1)
	tx.CreatedAt = time.Now()
	r.byID[tx.ID] = tx
	r.byBizID[tx.TransactionID] = tx.ID
	return tx, true, nil
}

func (r *stubTransactionRepo) GetByID(_ context.Context, id string) (domain.Transaction, error) {
	tx, ok := r.byID[id]
	if !ok {
		return domain.Transaction{}, domain.ErrNotFound
	}
	return tx, nil
}

func (r *stubTransactionRepo) GetByTransactionID(_ context.Context, businessID string) (domain.Transaction, error) {
	id, ok := r.byBizID[businessID]
	if !ok {
		return domain.Transaction{}, domain.ErrNotFound
	}
	return r.byID[id], nil
}

func (r *stubTransactionRepo) List(_ context.Context, _ TransactionFilter) (TransactionPage, error) {
	page := TransactionPage{}
	for _, tx := range r.byID {
		page.Items = append(page.Items, tx)
	}
	page.Total = int64(len(page.Items))
	return page, nil
}

func (r *stubTransactionRepo) InsertRuleMatches(_ context.Context, matches []domain.RuleMatch) error {
	for _, match := range matches {
		exists := false
		for _, have := range r.matches[match.TransactionID] {
			if have.RuleID == match.RuleID && have.RuleVersion == match.RuleVersion {
				exists = true
				break
			}
		}
		if !exists {
			r.matches[match.TransactionID] = append(r.matches[match.TransactionID], match)
		}
	}
	return nil
}

func (r *stubTransactionRepo) ListRuleMatches(_ context.Context, transactionID string) ([]domain.RuleMatch, error) {
	return r.matches[transactionID], nil
}

func (r *stubTransactionRepo) Overview(_ context.Context, from, to time.Time) (TransactionOverview, error) {
	return TransactionOverview{From: from, To: to, Total: int64(len(r.byID))}, nil
}

type stubReviewRepo struct {
	byID    map[string]domain.Review
	byTxID  map[string]string
	creates int

	// afterGetByID runs once after the next read returns its snapshot, so a
	// test can interleave a competing write between a service's read and its
	// conditional update.
	afterGetByID func(*stubReviewRepo)
}

func newStubReviewRepo() *stubReviewRepo {
	return &stubReviewRepo{byID: map[string]domain.Review{}, byTxID: map[string]string{}}
}

func (r *stubReviewRepo) seed(review domain.Review) domain.Review {
	if review.ID == "" {
		review.ID = fmt.Sprintf("rev-%d", len(r.byID)+1)
	}
	r.byID[review.ID] = review
	r.byTxID[review.TransactionID] = review.ID
	return review
}

func (r *stubReviewRepo) CreateIfAbsent(_ context.Context, review domain.Review) (domain.Review, bool, error) {
	if id, ok := r.byTxID[review.TransactionID]; ok {
		return r.byID[id], false, nil
	}
	r.creates++
	return r.seed(review), true, nil
}

func (r *stubReviewRepo) GetByID(_ context.Context, id string) (domain.Review, error) {
	review, ok := r.byID[id]
	if !ok {
		return domain.Review{}, domain.ErrNotFound
	}
	if hook := r.afterGetByID; hook != nil {
		r.afterGetByID = nil
		hook(r)
	}
	return review, nil
}

func (r *stubReviewRepo) GetByTransactionID(_ context.Context, transactionID string) (domain.Review, error) {
	id, ok := r.byTxID[transactionID]
	if !ok {
		return domain.Review{}, domain.ErrNotFound
	}
	return r.byID[id], nil
}

func (r *stubReviewRepo) UpdateStatus(_ context.Context, update ReviewStatusUpdate) (domain.Review, error) {
	review, ok := r.byID[update.ReviewID]
	if !ok {
		return domain.Review{}, domain.ErrNotFound
	}
	if review.Status != update.ExpectedStatus {
		return domain.Review{}, domain.ErrConflict
	}
	review.Status = update.NewStatus
	review.ResolutionCode = update.ResolutionCode
	review.ResolutionNotes = update.ResolutionNotes
	review.ResolvedBy = update.ResolvedBy
	review.EscalatedTo = update.EscalatedTo
	review.EscalationReason = update.EscalationReason
	r.byID[update.ReviewID] = review
	return review, nil
}

func (r *stubReviewRepo) Assign(_ context.Context, reviewID, analystID string) (domain.Review, error) {
	review, ok := r.byID[reviewID]
	if !ok {
		return domain.Review{}, domain.ErrNotFound
	}
	if review.Status.Terminal() {
		return domain.Review{}, domain.ErrConflict
	}
	review.AssignedAnalystID = analystID
	review.Status = domain.ReviewInReview
	r.byID[reviewID] = review
	return review, nil
}

func (r *stubReviewRepo) ListWorklist(_ context.Context, filter WorklistFilter) (WorklistPage, error) {
	page := WorklistPage{}
	for _, review := range r.byID {
		matched := len(filter.Statuses) == 0
		for _, status := range filter.Statuses {
			if review.Status == status {
				matched = true
				break
			}
		}
		if !matched {
			continue
		}
		if filter.UnassignedOnly && review.AssignedAnalystID != "" {
			continue
		}
		page.Items = append(page.Items, WorklistItem{Review: review})
	}
	return page, nil
}

func (r *stubReviewRepo) WorklistStats(_ context.Context, _ string) (WorklistStats, error) {
	stats := WorklistStats{ByStatus: map[domain.ReviewStatus]int64{}, ByPriority: map[int]int64{}}
	for _, review := range r.byID {
		stats.ByStatus[review.Status]++
		stats.ByPriority[review.Priority]++
	}
	return stats, nil
}

func (r *stubReviewRepo) ClaimNext(_ context.Context, filter ClaimFilter, analystID string) (domain.Review, error) {
	for id, review := range r.byID {
		if review.Status != domain.ReviewPending || review.AssignedAnalystID != "" {
			continue
		}
		if filter.Priority > 0 && review.Priority != filter.Priority {
			continue
		}
		review.AssignedAnalystID = analystID
		review.Status = domain.ReviewInReview
		r.byID[id] = review
		return review, nil
	}
	return domain.Review{}, domain.ErrNotFound
}

type stubCaseRepo struct {
	byID     map[string]domain.Case
	links    map[string][]string
	activity map[string][]domain.CaseActivity
	txRepo   *stubTransactionRepo
}

func newStubCaseRepo(txRepo *stubTransactionRepo) *stubCaseRepo {
	return &stubCaseRepo{
		byID:     map[string]domain.Case{},
		links:    map[string][]string{},
		activity: map[string][]domain.CaseActivity{},
		txRepo:   txRepo,
	}
}

func (r *stubCaseRepo) Create(_ context.Context, investigation domain.Case) (domain.Case, error) {
	investigation.ID = fmt.Sprintf("case-%d", len(r.byID)+1)
	investigation.CaseNumber = fmt.Sprintf("FC-%08d", len(r.byID)+1)
	r.byID[investigation.ID] = investigation
	r.logActivity(investigation.ID, domain.ActivityCaseCreated, investigation.CreatedBy, "")
	return investigation, nil
}

func (r *stubCaseRepo) GetByID(_ context.Context, id string) (domain.Case, error) {
	investigation, ok := r.byID[id]
	if !ok {
		return domain.Case{}, domain.ErrNotFound
	}
	return investigation, nil
}

func (r *stubCaseRepo) List(_ context.Context, _ CaseFilter) (CasePage, error) {
	page := CasePage{}
	for _, investigation := range r.byID {
		page.Items = append(page.Items, investigation)
	}
	return page, nil
}

func (r *stubCaseRepo) Update(_ context.Context, update CaseUpdate) (domain.Case, error) {
	investigation, ok := r.byID[update.CaseID]
	if !ok {
		return domain.Case{}, domain.ErrNotFound
	}
	if update.Status != nil {
		if !investigation.Status.Mutable() {
			return domain.Case{}, domain.ErrConflict
		}
		r.logActivity(update.CaseID, domain.ActivityStatusChanged, update.ActorID, "")
		investigation.Status = *update.Status
	}
	if update.AssignedAnalystID != nil {
		investigation.AssignedAnalystID = *update.AssignedAnalystID
	}
	if update.Title != nil {
		investigation.Title = *update.Title
	}
	if update.Description != nil {
		investigation.Description = *update.Description
	}
	r.byID[update.CaseID] = investigation
	return investigation, nil
}

func (r *stubCaseRepo) AddTransaction(ctx context.Context, caseID, transactionID, actorID string) (domain.Case, error) {
	investigation, ok := r.byID[caseID]
	if !ok {
		return domain.Case{}, domain.ErrNotFound
	}
	if !investigation.Status.Mutable() {
		return domain.Case{}, domain.ErrConflict
	}
	tx, err := r.txRepo.GetByID(ctx, transactionID)
	if err != nil {
		return domain.Case{}, err
	}
	for _, linked := range r.links[caseID] {
		if linked == transactionID {
			return domain.Case{}, domain.ErrConflict
		}
	}
	r.links[caseID] = append(r.links[caseID], transactionID)
	investigation.TotalTransactionCount++
	investigation.TotalTransactionAmount = investigation.TotalTransactionAmount.Add(tx.Amount)
	r.byID[caseID] = investigation
	r.logActivity(caseID, domain.ActivityTransactionAdded, actorID, transactionID)
	return investigation, nil
}

func (r *stubCaseRepo) RemoveTransaction(ctx context.Context, caseID, transactionID, actorID string) (domain.Case, error) {
	investigation, ok := r.byID[caseID]
	if !ok {
		return domain.Case{}, domain.ErrNotFound
	}
	linked := r.links[caseID]
	for i, id := range linked {
		if id != transactionID {
			continue
		}
		r.links[caseID] = append(linked[:i], linked[i+1:]...)
		tx, err := r.txRepo.GetByID(ctx, transactionID)
		if err != nil {
			return domain.Case{}, err
		}
		investigation.TotalTransactionCount--
		investigation.TotalTransactionAmount = investigation.TotalTransactionAmount.Sub(tx.Amount)
		r.byID[caseID] = investigation
		r.logActivity(caseID, domain.ActivityTransactionRemoved, actorID, transactionID)
		return investigation, nil
	}
	return domain.Case{}, domain.ErrNotFound
}

func (r *stubCaseRepo) Resolve(_ context.Context, caseID, summary, resolvedBy string) (domain.Case, error) {
	investigation, ok := r.byID[caseID]
	if !ok {
		return domain.Case{}, domain.ErrNotFound
	}
	if !investigation.Status.Mutable() {
		return domain.Case{}, domain.ErrConflict
	}
	investigation.Status = domain.CaseResolved
	investigation.ResolutionSummary = summary
	investigation.ResolvedBy = resolvedBy
	r.byID[caseID] = investigation
	r.logActivity(caseID, domain.ActivityCaseResolved, resolvedBy, "")
	return investigation, nil
}

func (r *stubCaseRepo) ListActivity(_ context.Context, caseID string) ([]domain.CaseActivity, error) {
	return r.activity[caseID], nil
}

func (r *stubCaseRepo) ListTransactions(ctx context.Context, caseID string) ([]domain.Transaction, error) {
	var out []domain.Transaction
	for _, id := range r.links[caseID] {
		tx, err := r.txRepo.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
		out = append(out, tx)
	}
	return out, nil
}

func (r *stubCaseRepo) logActivity(caseID, activityType, actorID, transactionID string) {
	r.activity[caseID] = append(r.activity[caseID], domain.CaseActivity{
		ID:            fmt.Sprintf("act-%d", len(r.activity[caseID])+1),
		CaseID:        caseID,
		ActivityType:  activityType,
		ActorID:       actorID,
		TransactionID: transactionID,
		CreatedAt:     time.Now(),
	})
}

type stubNoteRepo struct {
	byID map[string]domain.Note
}

func newStubNoteRepo() *stubNoteRepo {
	return &stubNoteRepo{byID: map[string]domain.Note{}}
}

func (r *stubNoteRepo) Create(_ context.Context, note domain.Note) (domain.Note, error) {
	note.ID = fmt.Sprintf("note-%d", len(r.byID)+1)
	note.CreatedAt = time.Now()
	r.byID[note.ID] = note
	return note, nil
}

func (r *stubNoteRepo) GetByID(_ context.Context, id string) (domain.Note, error) {
	note, ok := r.byID[id]
	if !ok {
		return domain.Note{}, domain.ErrNotFound
	}
	return note, nil
}

func (r *stubNoteRepo) ListByTransaction(_ context.Context, transactionID string) ([]domain.Note, error) {
	var out []domain.Note
	for _, note := range r.byID {
		if note.TransactionID == transactionID {
			out = append(out, note)
		}
	}
	return out, nil
}

func (r *stubNoteRepo) Update(_ context.Context, id string, noteType domain.NoteType, content string) (domain.Note, error) {
	note, ok := r.byID[id]
	if !ok {
		return domain.Note{}, domain.ErrNotFound
	}
	note.NoteType = noteType
	note.Content = content
	r.byID[id] = note
	return note, nil
}

func (r *stubNoteRepo) Delete(_ context.Context, id string) error {
	if _, ok := r.byID[id]; !ok {
		return domain.ErrNotFound
	}
	delete(r.byID, id)
	return nil
}
