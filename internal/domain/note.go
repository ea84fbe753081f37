package domain

import "time"

type NoteType string

const (
	NoteGeneral         NoteType = "GENERAL"
	NoteEscalation      NoteType = "ESCALATION"
	NoteFraudConfirmed  NoteType = "FRAUD_CONFIRMED"
	NoteFalsePositive   NoteType = "FALSE_POSITIVE"
	NoteCustomerContact NoteType = "CUSTOMER_CONTACT"
	NoteSystem          NoteType = "SYSTEM"
)

// Note is an analyst comment on one transaction. System-generated notes are
// immutable; private notes are visible only to their author or a supervisor.
type Note struct {
	ID                string
	TransactionID     string
	NoteType          NoteType
	Content           string
	AuthorID          string
	AuthorName        string
	AuthorEmail       string
	IsPrivate         bool
	IsSystemGenerated bool
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

func (t NoteType) Valid() bool {
	switch t {
	case NoteGeneral, NoteEscalation, NoteFraudConfirmed, NoteFalsePositive, NoteCustomerContact, NoteSystem:
		return true
	}
	return false
}

// VisibleTo reports whether the principal may see the note under the
// private-note rules.
func (n Note) VisibleTo(principal Principal) bool {
	if !n.IsPrivate {
		return true
	}
	return n.AuthorID == principal.Subject || principal.IsSupervisor()
}

// EditableBy reports whether the principal may edit the note. Only the
// author edits, and system notes are never editable.
func (n Note) EditableBy(principal Principal) bool {
	if n.IsSystemGenerated {
		return false
	}
	return n.AuthorID == principal.Subject
}

// DeletableBy reports whether the principal may delete the note.
func (n Note) DeletableBy(principal Principal) bool {
	if n.IsSystemGenerated {
		return false
	}
	return n.AuthorID == principal.Subject || principal.IsSupervisor()
}
