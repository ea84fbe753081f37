package db

import (
	"time"

	"github.com/shopspring/decimal"
)

type TransactionModel struct {
	ID             string          `gorm:"type:uuid;primaryKey"`
	TransactionID  string          `gorm:"uniqueIndex;not null"`
	EvaluationType string          `gorm:"not null"`
	CardID         string          `gorm:"index;not null"`
	AccountID      string          `gorm:"index"`
	Amount         decimal.Decimal `gorm:"type:numeric(18,2);not null"`
	Currency       string          `gorm:"not null"`
	Decision       string          `gorm:"index;not null"`
	DecisionReason string
	RiskLevel      *string   `gorm:"index"`
	Context        []byte    `gorm:"type:jsonb"`
	Velocity       []byte    `gorm:"type:jsonb"`
	EngineMetadata []byte    `gorm:"type:jsonb"`
	RawPayload     []byte    `gorm:"type:jsonb"`
	TraceID        string    `gorm:"index"`
	Source         string    `gorm:"column:ingestion_source"`
	EventTimestamp time.Time `gorm:"index:idx_transactions_event_ts_id,priority:1;not null"`
	CreatedAt      time.Time `gorm:"not null"`
	UpdatedAt      time.Time `gorm:"not null"`
}

func (TransactionModel) TableName() string { return "transactions" }

type RuleMatchModel struct {
	ID            string `gorm:"type:uuid;primaryKey"`
	TransactionID string `gorm:"type:uuid;uniqueIndex:uniq_rule_match,priority:1;not null"`
	RuleID        string `gorm:"uniqueIndex:uniq_rule_match,priority:2;not null"`
	RuleVersion   string `gorm:"uniqueIndex:uniq_rule_match,priority:3;not null"`
	Action        string `gorm:"not null"`
	Conditions    []byte `gorm:"type:jsonb"`
	CreatedAt     time.Time
}

func (RuleMatchModel) TableName() string { return "rule_matches" }

type ReviewModel struct {
	ID                string `gorm:"type:uuid;primaryKey"`
	TransactionID     string `gorm:"type:uuid;uniqueIndex;not null"`
	Status            string `gorm:"index;not null"`
	Priority          int    `gorm:"index;not null"`
	AssignedAnalystID *string
	AssignedAt        *time.Time
	CaseID            *string `gorm:"type:uuid;index"`
	ResolutionCode    *string
	ResolutionNotes   *string
	ResolvedBy        *string
	ResolvedAt        *time.Time
	EscalatedTo       *string
	EscalationReason  *string
	EscalatedAt       *time.Time
	CreatedAt         time.Time `gorm:"not null"`
	UpdatedAt         time.Time `gorm:"not null"`
}

func (ReviewModel) TableName() string { return "reviews" }

type CaseModel struct {
	ID                     string          `gorm:"type:uuid;primaryKey"`
	CaseNumber             string          `gorm:"uniqueIndex;not null"`
	CaseType               string          `gorm:"not null"`
	Status                 string          `gorm:"index;not null"`
	Title                  string          `gorm:"not null"`
	Description            string
	AssignedAnalystID      *string         `gorm:"index"`
	TotalTransactionCount  int64           `gorm:"not null;default:0"`
	TotalTransactionAmount decimal.Decimal `gorm:"type:numeric(18,2);not null;default:0"`
	ResolutionSummary      *string
	ResolvedBy             *string
	ResolvedAt             *time.Time
	CreatedBy              string    `gorm:"not null"`
	CreatedAt              time.Time `gorm:"not null"`
	UpdatedAt              time.Time `gorm:"not null"`
}

func (CaseModel) TableName() string { return "cases" }

type CaseActivityModel struct {
	ID            string  `gorm:"type:uuid;primaryKey"`
	CaseID        string  `gorm:"type:uuid;index;not null"`
	ActivityType  string  `gorm:"not null"`
	ActorID       string  `gorm:"not null"`
	OldValue      *string
	NewValue      *string
	TransactionID *string `gorm:"type:uuid"`
	Note          *string
	CreatedAt     time.Time `gorm:"not null"`
}

func (CaseActivityModel) TableName() string { return "case_activity_log" }

type NoteModel struct {
	ID                string `gorm:"type:uuid;primaryKey"`
	TransactionID     string `gorm:"type:uuid;index;not null"`
	NoteType          string `gorm:"not null"`
	Content           string `gorm:"not null"`
	AuthorID          string `gorm:"index;not null"`
	AuthorName        string
	AuthorEmail       string
	IsPrivate         bool      `gorm:"not null;default:false"`
	IsSystemGenerated bool      `gorm:"not null;default:false"`
	CreatedAt         time.Time `gorm:"not null"`
	UpdatedAt         time.Time `gorm:"not null"`
}

func (NoteModel) TableName() string { return "analyst_notes" }
