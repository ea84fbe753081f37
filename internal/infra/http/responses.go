package http

import (
	"errors"
	"net/http"
	"time"

	"fraudops/internal/domain"
	"fraudops/internal/infra/auth/rbac"
	"fraudops/internal/usecase"

	"github.com/gin-gonic/gin"
)

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

func writeErrorCode(c *gin.Context, status int, code, message string) {
	c.AbortWithStatusJSON(status, errorResponse{Code: code, Message: message})
}

// writeError maps service errors to HTTP statuses. Internal errors are
// reported without detail; the log carries the cause.
func writeError(c *gin.Context, err error) {
	if authz, ok := rbac.IsAuthzError(err); ok {
		writeErrorCode(c, http.StatusForbidden, authz.Code, "insufficient permissions")
		return
	}
	switch {
	case errors.Is(err, domain.ErrInvalidCursor):
		writeErrorCode(c, http.StatusBadRequest, "INVALID_CURSOR", err.Error())
	case errors.Is(err, domain.ErrInvalidArgument):
		writeErrorCode(c, http.StatusBadRequest, "INVALID_ARGUMENT", err.Error())
	case errors.Is(err, domain.ErrPANDetected):
		writeErrorCode(c, http.StatusUnprocessableEntity, "PAN_DETECTED", err.Error())
	case errors.Is(err, domain.ErrUnauthorized):
		writeErrorCode(c, http.StatusUnauthorized, "UNAUTHORIZED", "authentication required")
	case errors.Is(err, domain.ErrForbidden):
		writeErrorCode(c, http.StatusForbidden, "FORBIDDEN", err.Error())
	case errors.Is(err, domain.ErrNotFound):
		writeErrorCode(c, http.StatusNotFound, "NOT_FOUND", err.Error())
	case errors.Is(err, domain.ErrConflict):
		writeErrorCode(c, http.StatusConflict, "CONFLICT", err.Error())
	default:
		writeErrorCode(c, http.StatusInternalServerError, "INTERNAL", "internal error")
	}
}

type transactionResponse struct {
	ID             string         `json:"id"`
	TransactionID  string         `json:"transaction_id"`
	EvaluationType string         `json:"evaluation_type"`
	CardID         string         `json:"card_id"`
	AccountID      string         `json:"account_id,omitempty"`
	Amount         string         `json:"amount"`
	Currency       string         `json:"currency"`
	Decision       string         `json:"decision"`
	DecisionReason string         `json:"decision_reason,omitempty"`
	RiskLevel      string         `json:"risk_level,omitempty"`
	Context        map[string]any `json:"transaction_context,omitempty"`
	Velocity       map[string]any `json:"velocity_data,omitempty"`
	EngineMetadata map[string]any `json:"engine_metadata,omitempty"`
	TraceID        string         `json:"trace_id,omitempty"`
	Source         string         `json:"ingestion_source,omitempty"`
	EventTimestamp time.Time      `json:"event_timestamp"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
}

func toTransactionResponse(t domain.Transaction) transactionResponse {
	return transactionResponse{
		ID:             t.ID,
		TransactionID:  t.TransactionID,
		EvaluationType: string(t.EvaluationType),
		CardID:         t.CardID,
		AccountID:      t.AccountID,
		Amount:         t.Amount.String(),
		Currency:       t.Currency,
		Decision:       string(t.Decision),
		DecisionReason: t.DecisionReason,
		RiskLevel:      string(t.RiskLevel),
		Context:        t.Context,
		Velocity:       t.Velocity,
		EngineMetadata: t.EngineMetadata,
		TraceID:        t.TraceID,
		Source:         t.Source,
		EventTimestamp: t.EventTimestamp,
		CreatedAt:      t.CreatedAt,
		UpdatedAt:      t.UpdatedAt,
	}
}

type ruleMatchResponse struct {
	ID          string         `json:"id"`
	RuleID      string         `json:"rule_id"`
	RuleVersion string         `json:"rule_version,omitempty"`
	Action      string         `json:"action,omitempty"`
	Conditions  map[string]any `json:"conditions,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
}

func toRuleMatchResponses(matches []domain.RuleMatch) []ruleMatchResponse {
	out := make([]ruleMatchResponse, 0, len(matches))
	for _, m := range matches {
		out = append(out, ruleMatchResponse{
			ID:          m.ID,
			RuleID:      m.RuleID,
			RuleVersion: m.RuleVersion,
			Action:      m.Action,
			Conditions:  m.Conditions,
			CreatedAt:   m.CreatedAt,
		})
	}
	return out
}

type reviewResponse struct {
	ID                string     `json:"id"`
	TransactionID     string     `json:"transaction_id"`
	Status            string     `json:"status"`
	Priority          int        `json:"priority"`
	AssignedAnalystID string     `json:"assigned_analyst_id,omitempty"`
	AssignedAt        *time.Time `json:"assigned_at,omitempty"`
	CaseID            string     `json:"case_id,omitempty"`
	ResolutionCode    string     `json:"resolution_code,omitempty"`
	ResolutionNotes   string     `json:"resolution_notes,omitempty"`
	ResolvedBy        string     `json:"resolved_by,omitempty"`
	ResolvedAt        *time.Time `json:"resolved_at,omitempty"`
	EscalatedTo       string     `json:"escalated_to,omitempty"`
	EscalationReason  string     `json:"escalation_reason,omitempty"`
	EscalatedAt       *time.Time `json:"escalated_at,omitempty"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`
}

func toReviewResponse(r domain.Review) reviewResponse {
	return reviewResponse{
		ID:                r.ID,
		TransactionID:     r.TransactionID,
		Status:            string(r.Status),
		Priority:          r.Priority,
		AssignedAnalystID: r.AssignedAnalystID,
		AssignedAt:        r.AssignedAt,
		CaseID:            r.CaseID,
		ResolutionCode:    r.ResolutionCode,
		ResolutionNotes:   r.ResolutionNotes,
		ResolvedBy:        r.ResolvedBy,
		ResolvedAt:        r.ResolvedAt,
		EscalatedTo:       r.EscalatedTo,
		EscalationReason:  r.EscalationReason,
		EscalatedAt:       r.EscalatedAt,
		CreatedAt:         r.CreatedAt,
		UpdatedAt:         r.UpdatedAt,
	}
}

type noteResponse struct {
	ID                string    `json:"id"`
	TransactionID     string    `json:"transaction_id"`
	NoteType          string    `json:"note_type"`
	Content           string    `json:"content"`
	AuthorID          string    `json:"author_id"`
	AuthorName        string    `json:"author_name,omitempty"`
	AuthorEmail       string    `json:"author_email,omitempty"`
	IsPrivate         bool      `json:"is_private"`
	IsSystemGenerated bool      `json:"is_system_generated"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

func toNoteResponse(n domain.Note) noteResponse {
	return noteResponse{
		ID:                n.ID,
		TransactionID:     n.TransactionID,
		NoteType:          string(n.NoteType),
		Content:           n.Content,
		AuthorID:          n.AuthorID,
		AuthorName:        n.AuthorName,
		AuthorEmail:       n.AuthorEmail,
		IsPrivate:         n.IsPrivate,
		IsSystemGenerated: n.IsSystemGenerated,
		CreatedAt:         n.CreatedAt,
		UpdatedAt:         n.UpdatedAt,
	}
}

type caseResponse struct {
	ID                     string     `json:"id"`
	CaseNumber             string     `json:"case_number"`
	CaseType               string     `json:"case_type"`
	Status                 string     `json:"status"`
	Title                  string     `json:"title"`
	Description            string     `json:"description,omitempty"`
	AssignedAnalystID      string     `json:"assigned_analyst_id,omitempty"`
	TotalTransactionCount  int64      `json:"total_transaction_count"`
	TotalTransactionAmount string     `json:"total_transaction_amount"`
	ResolutionSummary      string     `json:"resolution_summary,omitempty"`
	ResolvedBy             string     `json:"resolved_by,omitempty"`
	ResolvedAt             *time.Time `json:"resolved_at,omitempty"`
	CreatedBy              string     `json:"created_by"`
	CreatedAt              time.Time  `json:"created_at"`
	UpdatedAt              time.Time  `json:"updated_at"`
}

func toCaseResponse(cs domain.Case) caseResponse {
	return caseResponse{
		ID:                     cs.ID,
		CaseNumber:             cs.CaseNumber,
		CaseType:               string(cs.CaseType),
		Status:                 string(cs.Status),
		Title:                  cs.Title,
		Description:            cs.Description,
		AssignedAnalystID:      cs.AssignedAnalystID,
		TotalTransactionCount:  cs.TotalTransactionCount,
		TotalTransactionAmount: cs.TotalTransactionAmount.String(),
		ResolutionSummary:      cs.ResolutionSummary,
		ResolvedBy:             cs.ResolvedBy,
		ResolvedAt:             cs.ResolvedAt,
		CreatedBy:              cs.CreatedBy,
		CreatedAt:              cs.CreatedAt,
		UpdatedAt:              cs.UpdatedAt,
	}
}

type caseActivityResponse struct {
	ID            string    `json:"id"`
	ActivityType  string    `json:"activity_type"`
	ActorID       string    `json:"actor_id,omitempty"`
	OldValue      string    `json:"old_value,omitempty"`
	NewValue      string    `json:"new_value,omitempty"`
	TransactionID string    `json:"transaction_id,omitempty"`
	Note          string    `json:"note,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

func toCaseActivityResponses(activity []domain.CaseActivity) []caseActivityResponse {
	out := make([]caseActivityResponse, 0, len(activity))
	for _, a := range activity {
		out = append(out, caseActivityResponse{
			ID:            a.ID,
			ActivityType:  a.ActivityType,
			ActorID:       a.ActorID,
			OldValue:      a.OldValue,
			NewValue:      a.NewValue,
			TransactionID: a.TransactionID,
			Note:          a.Note,
			CreatedAt:     a.CreatedAt,
		})
	}
	return out
}

type worklistItemResponse struct {
	Review      reviewResponse      `json:"review"`
	Transaction transactionResponse `json:"transaction"`
}

type worklistPageResponse struct {
	Items      []worklistItemResponse `json:"items"`
	NextCursor string                 `json:"next_cursor,omitempty"`
	HasMore    bool                   `json:"has_more"`
}

func toWorklistPageResponse(page usecase.WorklistPage) worklistPageResponse {
	items := make([]worklistItemResponse, 0, len(page.Items))
	for _, item := range page.Items {
		items = append(items, worklistItemResponse{
			Review:      toReviewResponse(item.Review),
			Transaction: toTransactionResponse(item.Transaction),
		})
	}
	return worklistPageResponse{Items: items, NextCursor: page.NextCursor, HasMore: page.HasMore}
}

type bulkItemResponse struct {
	ID        string `json:"id"`
	Success   bool   `json:"success"`
	ErrorCode string `json:"error_code,omitempty"`
	Message   string `json:"message,omitempty"`
}

type bulkResultResponse struct {
	TotalRequested int                `json:"total_requested"`
	Successful     int                `json:"successful"`
	Failed         int                `json:"failed"`
	Items          []bulkItemResponse `json:"items"`
	ErrorCounts    map[string]int     `json:"error_counts,omitempty"`
}

func toBulkResultResponse(result usecase.BulkResult) bulkResultResponse {
	items := make([]bulkItemResponse, 0, len(result.Items))
	for _, item := range result.Items {
		items = append(items, bulkItemResponse{
			ID:        item.ID,
			Success:   item.Success,
			ErrorCode: item.ErrorCode,
			Message:   item.Message,
		})
	}
	return bulkResultResponse{
		TotalRequested: result.TotalRequested,
		Successful:     result.Successful,
		Failed:         result.Failed,
		Items:          items,
		ErrorCounts:    result.ErrorCounts,
	}
}
