package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type CaseStatus string

const (
	CaseOpen        CaseStatus = "OPEN"
	CaseInProgress  CaseStatus = "IN_PROGRESS"
	CasePendingInfo CaseStatus = "PENDING_INFO"
	CaseResolved    CaseStatus = "RESOLVED"
	CaseClosed      CaseStatus = "CLOSED"
)

type CaseType string

const (
	CaseTypeFraudRing       CaseType = "FRAUD_RING"
	CaseTypeAccountTakeover CaseType = "ACCOUNT_TAKEOVER"
	CaseTypeCardTesting     CaseType = "CARD_TESTING"
	CaseTypeDispute         CaseType = "DISPUTE"
	CaseTypeGeneral         CaseType = "GENERAL"
)

// Case groups related transactions under one investigation. The aggregate
// transaction count/amount columns are maintained by the store inside the
// same transaction that links or unlinks a review.
type Case struct {
	ID                     string
	CaseNumber             string
	CaseType               CaseType
	Status                 CaseStatus
	Title                  string
	Description            string
	AssignedAnalystID      string
	TotalTransactionCount  int64
	TotalTransactionAmount decimal.Decimal
	ResolutionSummary      string
	ResolvedBy             string
	ResolvedAt             *time.Time
	CreatedBy              string
	CreatedAt              time.Time
	UpdatedAt              time.Time
}

// CaseActivity is one append-only audit row for a case mutation.
type CaseActivity struct {
	ID            string
	CaseID        string
	ActivityType  string
	ActorID       string
	OldValue      string
	NewValue      string
	TransactionID string
	Note          string
	CreatedAt     time.Time
}

const (
	ActivityCaseCreated        = "CASE_CREATED"
	ActivityStatusChanged      = "STATUS_CHANGED"
	ActivityAssigneeChanged    = "ASSIGNEE_CHANGED"
	ActivityTransactionAdded   = "TRANSACTION_ADDED"
	ActivityTransactionRemoved = "TRANSACTION_REMOVED"
	ActivityCaseResolved       = "CASE_RESOLVED"
	ActivityDetailsUpdated     = "DETAILS_UPDATED"
)

func (s CaseStatus) Valid() bool {
	switch s {
	case CaseOpen, CaseInProgress, CasePendingInfo, CaseResolved, CaseClosed:
		return true
	}
	return false
}

// Mutable reports whether transactions may still be added to or removed from
// the case.
func (s CaseStatus) Mutable() bool {
	return s != CaseResolved && s != CaseClosed
}

func (t CaseType) Valid() bool {
	switch t {
	case CaseTypeFraudRing, CaseTypeAccountTakeover, CaseTypeCardTesting, CaseTypeDispute, CaseTypeGeneral:
		return true
	}
	return false
}
