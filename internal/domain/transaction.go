package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type EvaluationType string

const (
	EvaluationAuth       EvaluationType = "AUTH"
	EvaluationMonitoring EvaluationType = "MONITORING"
)

type Decision string

const (
	DecisionApprove Decision = "APPROVE"
	DecisionDecline Decision = "DECLINE"
)

type RiskLevel string

const (
	RiskLow      RiskLevel = "LOW"
	RiskMedium   RiskLevel = "MEDIUM"
	RiskHigh     RiskLevel = "HIGH"
	RiskCritical RiskLevel = "CRITICAL"
)

// Transaction is the ledger row for one evaluated payment event. ID is the
// server-generated primary key; TransactionID is the external business key
// and the idempotency conflict target.
type Transaction struct {
	ID             string
	TransactionID  string
	EvaluationType EvaluationType
	CardID         string
	AccountID      string
	Amount         decimal.Decimal
	Currency       string
	Decision       Decision
	DecisionReason string
	RiskLevel      RiskLevel
	Context        map[string]any
	Velocity       map[string]any
	EngineMetadata map[string]any
	RawPayload     map[string]any
	TraceID        string
	Source         string
	EventTimestamp time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// RuleMatch is one fraud rule that fired during evaluation. Immutable;
// unique per (transaction, rule id, rule version).
type RuleMatch struct {
	ID            string
	TransactionID string
	RuleID        string
	RuleVersion   string
	Action        string
	Conditions    map[string]any
	CreatedAt     time.Time
}

// DecisionEvent is the inbound payload from the rules engine, accepted over
// HTTP or the event stream.
type DecisionEvent struct {
	TransactionID  string
	EvaluationType EvaluationType
	CardID         string
	AccountID      string
	Amount         decimal.Decimal
	Currency       string
	Decision       Decision
	DecisionReason string
	RiskLevel      RiskLevel
	Context        map[string]any
	Velocity       map[string]any
	EngineMetadata map[string]any
	RawPayload     map[string]any
	TraceID        string
	Source         string
	EventTimestamp time.Time
	RuleMatches    []RuleMatch
}

func (e EvaluationType) Valid() bool {
	switch e {
	case EvaluationAuth, EvaluationMonitoring:
		return true
	}
	return false
}

func (d Decision) Valid() bool {
	switch d {
	case DecisionApprove, DecisionDecline:
		return true
	}
	return false
}

func (r RiskLevel) Valid() bool {
	switch r {
	case RiskLow, RiskMedium, RiskHigh, RiskCritical:
		return true
	}
	return false
}

// ReviewPriority maps a risk level to the analyst queue priority
// (1 highest .. 5 lowest). Unknown or absent risk defaults to 3.
func (r RiskLevel) ReviewPriority() int {
	switch r {
	case RiskCritical:
		return 1
	case RiskHigh:
		return 2
	case RiskMedium:
		return 3
	case RiskLow:
		return 4
	default:
		return 3
	}
}
