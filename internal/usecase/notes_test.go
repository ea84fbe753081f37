package usecase

import (
	"context"
	"errors"
	"testing"

	"fraudops/internal/domain"
)

var (
	author     = domain.Principal{Subject: "analyst-1", Name: "Dana", Roles: []string{domain.RoleAnalyst}}
	otherUser  = domain.Principal{Subject: "analyst-2", Roles: []string{domain.RoleAnalyst}}
	supervisor = domain.Principal{Subject: "super-1", Roles: []string{domain.RoleSupervisor}}
)

func newNoteFixture(t *testing.T) (*NoteService, *stubNoteRepo, domain.Transaction) {
	t.Helper()
	txRepo := newStubTransactionRepo()
	noteRepo := newStubNoteRepo()
	tx, _, err := txRepo.Upsert(context.Background(), domain.Transaction{TransactionID: "biz-1"})
	if err != nil {
		t.Fatalf("seed tx: %v", err)
	}
	return NewNoteService(noteRepo, txRepo), noteRepo, tx
}

func TestNote_PrivateVisibility(t *testing.T) {
	svc, _, tx := newNoteFixture(t)
	ctx := context.Background()

	if _, err := svc.Create(ctx, tx.ID, domain.NoteGeneral, "public observation", false, author); err != nil {
		t.Fatalf("create public: %v", err)
	}
	if _, err := svc.Create(ctx, tx.ID, domain.NoteEscalation, "private hunch", true, author); err != nil {
		t.Fatalf("create private: %v", err)
	}

	cases := []struct {
		name   string
		viewer domain.Principal
		want   int
	}{
		{"author sees both", author, 2},
		{"other analyst sees public only", otherUser, 1},
		{"supervisor sees both", supervisor, 2},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			notes, err := svc.List(ctx, tx.ID, tc.viewer)
			if err != nil {
				t.Fatalf("list: %v", err)
			}
			if len(notes) != tc.want {
				t.Fatalf("visible notes = %d, want %d", len(notes), tc.want)
			}
		})
	}
}

func TestNote_OnlyAuthorEdits(t *testing.T) {
	svc, _, tx := newNoteFixture(t)
	ctx := context.Background()

	note, err := svc.Create(ctx, tx.ID, domain.NoteGeneral, "initial", false, author)
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if _, err := svc.Update(ctx, note.ID, domain.NoteGeneral, "edited", otherUser); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("non-author edit should be forbidden: %v", err)
	}
	// Supervisors may delete but not edit.
	if _, err := svc.Update(ctx, note.ID, domain.NoteGeneral, "edited", supervisor); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("supervisor edit should be forbidden: %v", err)
	}
	updated, err := svc.Update(ctx, note.ID, domain.NoteFraudConfirmed, "confirmed", author)
	if err != nil {
		t.Fatalf("author edit: %v", err)
	}
	if updated.Content != "confirmed" || updated.NoteType != domain.NoteFraudConfirmed {
		t.Fatalf("updated = %+v", updated)
	}
}

func TestNote_Delete(t *testing.T) {
	svc, noteRepo, tx := newNoteFixture(t)
	ctx := context.Background()

	note, err := svc.Create(ctx, tx.ID, domain.NoteGeneral, "to delete", false, author)
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if err := svc.Delete(ctx, note.ID, otherUser); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("stranger delete should be forbidden: %v", err)
	}
	if err := svc.Delete(ctx, note.ID, supervisor); err != nil {
		t.Fatalf("supervisor delete: %v", err)
	}
	if _, err := noteRepo.GetByID(ctx, note.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Fatal("note should be gone")
	}
}

func TestNote_SystemNotesImmutable(t *testing.T) {
	svc, noteRepo, tx := newNoteFixture(t)
	ctx := context.Background()

	system, err := noteRepo.Create(ctx, domain.Note{
		TransactionID:     tx.ID,
		NoteType:          domain.NoteSystem,
		Content:           "auto-escalated",
		AuthorID:          author.Subject,
		IsSystemGenerated: true,
	})
	if err != nil {
		t.Fatalf("seed system note: %v", err)
	}

	if _, err := svc.Update(ctx, system.ID, domain.NoteGeneral, "tamper", author); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("system note edit should be forbidden: %v", err)
	}
	if err := svc.Delete(ctx, system.ID, supervisor); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("system note delete should be forbidden: %v", err)
	}
	if _, err := svc.Create(ctx, tx.ID, domain.NoteSystem, "fake system", false, author); !errors.Is(err, domain.ErrInvalidArgument) {
		t.Fatalf("analysts cannot author system notes: %v", err)
	}
}
