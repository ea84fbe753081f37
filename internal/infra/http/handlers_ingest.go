package http

import (
	"net/http"
	"time"

	"fraudops/internal/domain"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

type decisionEventRequest struct {
	TransactionID  string                   `json:"transaction_id"`
	EvaluationType string                   `json:"evaluation_type"`
	CardID         string                   `json:"card_id"`
	AccountID      string                   `json:"account_id"`
	Amount         decimal.Decimal          `json:"amount"`
	Currency       string                   `json:"currency"`
	Decision       string                   `json:"decision"`
	DecisionReason string                   `json:"decision_reason"`
	RiskLevel      string                   `json:"risk_level"`
	Context        map[string]any           `json:"transaction_context"`
	Velocity       map[string]any           `json:"velocity_data"`
	EngineMetadata map[string]any           `json:"engine_metadata"`
	RawPayload     map[string]any           `json:"raw_payload"`
	TraceID        string                   `json:"trace_id"`
	EventTimestamp time.Time                `json:"event_timestamp"`
	RuleMatches    []decisionEventRuleMatch `json:"rule_matches"`
}

type decisionEventRuleMatch struct {
	RuleID      string         `json:"rule_id"`
	RuleVersion string         `json:"rule_version"`
	Action      string         `json:"action"`
	Conditions  map[string]any `json:"conditions"`
}

type ingestResponse struct {
	Transaction   transactionResponse `json:"transaction"`
	Created       bool                `json:"created"`
	Review        *reviewResponse     `json:"review,omitempty"`
	ReviewCreated bool                `json:"review_created"`
}

func (s *Server) handleIngestEvent(c *gin.Context) {
	if _, ok := s.requireAuth(c, domain.PermEventIngest); !ok {
		return
	}
	if !s.enforceRateLimit(c) {
		return
	}
	var req decisionEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeErrorCode(c, http.StatusBadRequest, "INVALID_ARGUMENT", "malformed request body")
		return
	}
	event := domain.DecisionEvent{
		TransactionID:  req.TransactionID,
		EvaluationType: domain.EvaluationType(req.EvaluationType),
		CardID:         req.CardID,
		AccountID:      req.AccountID,
		Amount:         req.Amount,
		Currency:       req.Currency,
		Decision:       domain.Decision(req.Decision),
		DecisionReason: req.DecisionReason,
		RiskLevel:      domain.RiskLevel(req.RiskLevel),
		Context:        req.Context,
		Velocity:       req.Velocity,
		EngineMetadata: req.EngineMetadata,
		RawPayload:     req.RawPayload,
		TraceID:        req.TraceID,
		Source:         "http",
		EventTimestamp: req.EventTimestamp,
	}
	for _, match := range req.RuleMatches {
		event.RuleMatches = append(event.RuleMatches, domain.RuleMatch{
			RuleID:      match.RuleID,
			RuleVersion: match.RuleVersion,
			Action:      match.Action,
			Conditions:  match.Conditions,
		})
	}

	result, err := s.ingest.Ingest(c.Request.Context(), event)
	if err != nil {
		writeError(c, err)
		return
	}

	resp := ingestResponse{
		Transaction:   toTransactionResponse(result.Transaction),
		Created:       result.Created,
		ReviewCreated: result.ReviewCreated,
	}
	if result.Review != nil {
		review := toReviewResponse(*result.Review)
		resp.Review = &review
	}
	c.JSON(http.StatusAccepted, resp)
}
