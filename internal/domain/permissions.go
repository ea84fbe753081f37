package domain

const (
	RoleAnalyst    = "fraud_analyst"
	RoleSupervisor = "fraud_supervisor"
	RoleAdmin      = "fraud_admin"
)

const (
	PermEventIngest     = "event:ingest"
	PermTransactionRead = "transaction:read"
	PermReviewRead      = "review:read"
	PermReviewWrite     = "review:write"
	PermReviewAssign    = "review:assign"
	PermReviewResolve   = "review:resolve"
	PermReviewEscalate  = "review:escalate"
	PermNoteRead        = "note:read"
	PermNoteWrite       = "note:write"
	PermCaseRead        = "case:read"
	PermCaseWrite       = "case:write"
	PermWorklistRead    = "worklist:read"
	PermWorklistClaim   = "worklist:claim"
	PermBulkWrite       = "bulk:write"
)
