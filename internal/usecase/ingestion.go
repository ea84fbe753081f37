package usecase

import (
	"context"
	"fmt"
	"time"

	"fraudops/internal/domain"
	"fraudops/internal/pan"
	"fraudops/pkg/log"

	"github.com/rs/zerolog"
)

// IngestionService persists decision events from the rules engine. Both the
// HTTP endpoint and the stream consumer feed into Ingest.
type IngestionService struct {
	transactions      TransactionRepository
	reviews           ReviewRepository
	detector          *pan.Detector
	autoCreateReviews bool
	logger            zerolog.Logger
}

type IngestionConfig struct {
	AutoCreateReviews bool
	CardTokenPrefix   string
}

// IngestResult reports what the event produced. Created is false on an
// idempotent replay; ReviewCreated is false for MONITORING events and
// replays.
type IngestResult struct {
	Transaction   domain.Transaction
	Created       bool
	Review        *domain.Review
	ReviewCreated bool
}

func NewIngestionService(transactions TransactionRepository, reviews ReviewRepository, cfg IngestionConfig) *IngestionService {
	return &IngestionService{
		transactions:      transactions,
		reviews:           reviews,
		detector:          pan.NewDetector(cfg.CardTokenPrefix),
		autoCreateReviews: cfg.AutoCreateReviews,
		logger:            log.Logger().With().Str("component", "ingestion").Logger(),
	}
}

func (s *IngestionService) Ingest(ctx context.Context, event domain.DecisionEvent) (IngestResult, error) {
	if err := validateEvent(event); err != nil {
		return IngestResult{}, err
	}
	if err := s.scanForPAN(event); err != nil {
		return IngestResult{}, err
	}

	tx := domain.Transaction{
		TransactionID:  event.TransactionID,
		EvaluationType: event.EvaluationType,
		CardID:         event.CardID,
		AccountID:      event.AccountID,
		Amount:         event.Amount,
		Currency:       event.Currency,
		Decision:       event.Decision,
		DecisionReason: event.DecisionReason,
		RiskLevel:      event.RiskLevel,
		Context:        event.Context,
		Velocity:       event.Velocity,
		EngineMetadata: event.EngineMetadata,
		RawPayload:     event.RawPayload,
		TraceID:        event.TraceID,
		Source:         event.Source,
		EventTimestamp: event.EventTimestamp,
	}
	stored, created, err := s.transactions.Upsert(ctx, tx)
	if err != nil {
		return IngestResult{}, err
	}
	if !created {
		// A replay may only repeat the recorded decision. A duplicate business
		// id carrying different business fields is a conflict, not a retry.
		if err := replayConflict(stored, event); err != nil {
			return IngestResult{}, err
		}
	}

	if len(event.RuleMatches) > 0 {
		matches := make([]domain.RuleMatch, 0, len(event.RuleMatches))
		for _, match := range event.RuleMatches {
			match.TransactionID = stored.ID
			matches = append(matches, match)
		}
		if err := s.transactions.InsertRuleMatches(ctx, matches); err != nil {
			return IngestResult{}, err
		}
	}

	result := IngestResult{Transaction: stored, Created: created}
	if s.autoCreateReviews && stored.EvaluationType == domain.EvaluationAuth {
		review, reviewCreated, err := s.reviews.CreateIfAbsent(ctx, domain.Review{
			TransactionID: stored.ID,
			Status:        domain.ReviewPending,
			Priority:      stored.RiskLevel.ReviewPriority(),
		})
		if err != nil {
			return IngestResult{}, err
		}
		result.Review = &review
		result.ReviewCreated = reviewCreated
	}

	s.logger.Info().
		Str("transaction_id", stored.TransactionID).
		Str("decision", string(stored.Decision)).
		Bool("created", created).
		Str("source", stored.Source).
		Msg("decision event ingested")
	return result, nil
}

// scanForPAN rejects events that carry a raw card number anywhere in the
// token field or the nested payload sections.
func (s *IngestionService) scanForPAN(event domain.DecisionEvent) error {
	if s.detector.DetectString(event.CardID) {
		return fmt.Errorf("card_id (%s): %w", pan.Mask(event.CardID), domain.ErrPANDetected)
	}
	findings := s.detector.ScanAll(map[string]any{
		"transaction_context": event.Context,
		"velocity_data":       event.Velocity,
		"engine_metadata":     event.EngineMetadata,
		"raw_payload":         event.RawPayload,
	})
	if len(findings) > 0 {
		first := findings[0]
		return fmt.Errorf("%s at %s (%s): %w",
			first.Section, first.Path, first.MaskedValue, domain.ErrPANDetected)
	}
	return nil
}

// replayConflict compares the stored business fields with a replayed event.
// The upsert never touches these columns, so any disagreement means two
// different events share one business transaction id.
func replayConflict(stored domain.Transaction, event domain.DecisionEvent) error {
	switch {
	case stored.EvaluationType != event.EvaluationType:
		return fmt.Errorf("transaction %s replayed with different evaluation_type: %w",
			stored.TransactionID, domain.ErrConflict)
	case stored.CardID != event.CardID:
		return fmt.Errorf("transaction %s replayed with different card_id: %w",
			stored.TransactionID, domain.ErrConflict)
	case stored.AccountID != event.AccountID:
		return fmt.Errorf("transaction %s replayed with different account_id: %w",
			stored.TransactionID, domain.ErrConflict)
	case !stored.Amount.Equal(event.Amount):
		return fmt.Errorf("transaction %s replayed with different amount: %w",
			stored.TransactionID, domain.ErrConflict)
	case stored.Currency != event.Currency:
		return fmt.Errorf("transaction %s replayed with different currency: %w",
			stored.TransactionID, domain.ErrConflict)
	case stored.Decision != event.Decision:
		return fmt.Errorf("transaction %s replayed with different decision: %w",
			stored.TransactionID, domain.ErrConflict)
	}
	return nil
}

func validateEvent(event domain.DecisionEvent) error {
	if event.TransactionID == "" {
		return fmt.Errorf("transaction_id is required: %w", domain.ErrInvalidArgument)
	}
	if !event.EvaluationType.Valid() {
		return fmt.Errorf("evaluation_type %q: %w", event.EvaluationType, domain.ErrInvalidArgument)
	}
	if event.CardID == "" {
		return fmt.Errorf("card_id is required: %w", domain.ErrInvalidArgument)
	}
	if !event.Decision.Valid() {
		return fmt.Errorf("decision %q: %w", event.Decision, domain.ErrInvalidArgument)
	}
	if event.Amount.IsNegative() {
		return fmt.Errorf("amount must not be negative: %w", domain.ErrInvalidArgument)
	}
	if len(event.Currency) != 3 {
		return fmt.Errorf("currency must be a 3-letter code: %w", domain.ErrInvalidArgument)
	}
	if event.RiskLevel != "" && !event.RiskLevel.Valid() {
		return fmt.Errorf("risk_level %q: %w", event.RiskLevel, domain.ErrInvalidArgument)
	}
	if event.EventTimestamp.After(time.Now().Add(5 * time.Minute)) {
		return fmt.Errorf("event_timestamp is in the future: %w", domain.ErrInvalidArgument)
	}
	for _, match := range event.RuleMatches {
		if match.RuleID == "" {
			return fmt.Errorf("rule match rule_id is required: %w", domain.ErrInvalidArgument)
		}
	}
	return nil
}
