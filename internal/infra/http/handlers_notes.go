package http

import (
	"net/http"

	"fraudops/internal/domain"

	"github.com/gin-gonic/gin"
)

type createNoteRequest struct {
	NoteType  string `json:"note_type"`
	Content   string `json:"content"`
	IsPrivate bool   `json:"is_private"`
}

func (s *Server) handleCreateNote(c *gin.Context) {
	principal, ok := s.requireAuth(c, domain.PermNoteWrite)
	if !ok {
		return
	}
	var req createNoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeErrorCode(c, http.StatusBadRequest, "INVALID_ARGUMENT", "malformed request body")
		return
	}
	noteType := domain.NoteType(req.NoteType)
	if req.NoteType == "" {
		noteType = domain.NoteGeneral
	}
	note, err := s.notes.Create(c.Request.Context(), c.Param("id"), noteType, req.Content, req.IsPrivate, principal)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toNoteResponse(note))
}

func (s *Server) handleListNotes(c *gin.Context) {
	principal, ok := s.requireAuth(c, domain.PermNoteRead)
	if !ok {
		return
	}
	notes, err := s.notes.List(c.Request.Context(), c.Param("id"), principal)
	if err != nil {
		writeError(c, err)
		return
	}
	out := make([]noteResponse, 0, len(notes))
	for _, n := range notes {
		out = append(out, toNoteResponse(n))
	}
	c.JSON(http.StatusOK, gin.H{"items": out})
}

type updateNoteRequest struct {
	NoteType string `json:"note_type"`
	Content  string `json:"content"`
}

func (s *Server) handleUpdateNote(c *gin.Context) {
	principal, ok := s.requireAuth(c, domain.PermNoteWrite)
	if !ok {
		return
	}
	var req updateNoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeErrorCode(c, http.StatusBadRequest, "INVALID_ARGUMENT", "malformed request body")
		return
	}
	noteType := domain.NoteType(req.NoteType)
	if req.NoteType == "" {
		noteType = domain.NoteGeneral
	}
	note, err := s.notes.Update(c.Request.Context(), c.Param("id"), noteType, req.Content, principal)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toNoteResponse(note))
}

func (s *Server) handleDeleteNote(c *gin.Context) {
	principal, ok := s.requireAuth(c, domain.PermNoteWrite)
	if !ok {
		return
	}
	if err := s.notes.Delete(c.Request.Context(), c.Param("id"), principal); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
