package http

import (
	"net/http"

	"fraudops/internal/domain"

	"github.com/gin-gonic/gin"
)

func (s *Server) handleGetReview(c *gin.Context) {
	if _, ok := s.requireAuth(c, domain.PermReviewRead); !ok {
		return
	}
	review, err := s.reviews.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toReviewResponse(review))
}

// handleGetOrCreateReview returns the review for a transaction, lazily
// creating one for transactions ingested before auto-review was enabled.
func (s *Server) handleGetOrCreateReview(c *gin.Context) {
	if _, ok := s.requireAuth(c, domain.PermReviewRead); !ok {
		return
	}
	review, err := s.reviews.GetOrCreate(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toReviewResponse(review))
}

type updateReviewStatusRequest struct {
	Status          string `json:"status"`
	ResolutionCode  string `json:"resolution_code"`
	ResolutionNotes string `json:"resolution_notes"`
}

func (s *Server) handleUpdateReviewStatus(c *gin.Context) {
	principal, ok := s.requireAuth(c, domain.PermReviewWrite)
	if !ok {
		return
	}
	var req updateReviewStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeErrorCode(c, http.StatusBadRequest, "INVALID_ARGUMENT", "malformed request body")
		return
	}
	review, err := s.reviews.UpdateStatus(c.Request.Context(), c.Param("id"),
		domain.ReviewStatus(req.Status), req.ResolutionCode, req.ResolutionNotes, principal.Subject)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toReviewResponse(review))
}

type assignReviewRequest struct {
	AnalystID string `json:"analyst_id"`
}

func (s *Server) handleAssignReview(c *gin.Context) {
	principal, ok := s.requireAuth(c, domain.PermReviewAssign)
	if !ok {
		return
	}
	var req assignReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeErrorCode(c, http.StatusBadRequest, "INVALID_ARGUMENT", "malformed request body")
		return
	}
	analystID := req.AnalystID
	if analystID == "" {
		analystID = principal.Subject
	}
	review, err := s.reviews.Assign(c.Request.Context(), c.Param("id"), analystID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toReviewResponse(review))
}

type resolveReviewRequest struct {
	ResolutionCode  string `json:"resolution_code"`
	ResolutionNotes string `json:"resolution_notes"`
}

func (s *Server) handleResolveReview(c *gin.Context) {
	principal, ok := s.requireAuth(c, domain.PermReviewResolve)
	if !ok {
		return
	}
	var req resolveReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeErrorCode(c, http.StatusBadRequest, "INVALID_ARGUMENT", "malformed request body")
		return
	}
	review, err := s.reviews.Resolve(c.Request.Context(), c.Param("id"),
		req.ResolutionCode, req.ResolutionNotes, principal.Subject)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toReviewResponse(review))
}

type escalateReviewRequest struct {
	EscalatedTo string `json:"escalated_to"`
	Reason      string `json:"reason"`
}

func (s *Server) handleEscalateReview(c *gin.Context) {
	principal, ok := s.requireAuth(c, domain.PermReviewEscalate)
	if !ok {
		return
	}
	var req escalateReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeErrorCode(c, http.StatusBadRequest, "INVALID_ARGUMENT", "malformed request body")
		return
	}
	review, err := s.reviews.Escalate(c.Request.Context(), c.Param("id"),
		req.EscalatedTo, req.Reason, principal.Subject)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toReviewResponse(review))
}
