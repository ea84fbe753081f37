package http

import (
	"net/http"

	"fraudops/internal/domain"

	"github.com/gin-gonic/gin"
)

type bulkAssignRequest struct {
	TransactionIDs []string `json:"transaction_ids"`
	AnalystID      string   `json:"analyst_id"`
}

func (s *Server) handleBulkAssign(c *gin.Context) {
	principal, ok := s.requireAuth(c, domain.PermBulkWrite)
	if !ok {
		return
	}
	if !s.enforceRateLimit(c) {
		return
	}
	var req bulkAssignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeErrorCode(c, http.StatusBadRequest, "INVALID_ARGUMENT", "malformed request body")
		return
	}
	analystID := req.AnalystID
	if analystID == "" {
		analystID = principal.Subject
	}
	result, err := s.bulk.BulkAssign(c.Request.Context(), req.TransactionIDs, analystID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toBulkResultResponse(result))
}

type bulkStatusRequest struct {
	TransactionIDs  []string `json:"transaction_ids"`
	Status          string   `json:"status"`
	ResolutionCode  string   `json:"resolution_code"`
	ResolutionNotes string   `json:"resolution_notes"`
}

func (s *Server) handleBulkStatus(c *gin.Context) {
	principal, ok := s.requireAuth(c, domain.PermBulkWrite)
	if !ok {
		return
	}
	if !s.enforceRateLimit(c) {
		return
	}
	var req bulkStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeErrorCode(c, http.StatusBadRequest, "INVALID_ARGUMENT", "malformed request body")
		return
	}
	result, err := s.bulk.BulkUpdateStatus(c.Request.Context(), req.TransactionIDs,
		domain.ReviewStatus(req.Status), req.ResolutionCode, req.ResolutionNotes, principal.Subject)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toBulkResultResponse(result))
}

type bulkCreateCaseRequest struct {
	CaseType       string   `json:"case_type"`
	Title          string   `json:"title"`
	Description    string   `json:"description"`
	TransactionIDs []string `json:"transaction_ids"`
}

type bulkCaseResponse struct {
	bulkResultResponse
	Case caseResponse `json:"case"`
}

func (s *Server) handleBulkCreateCase(c *gin.Context) {
	principal, ok := s.requireAuth(c, domain.PermBulkWrite)
	if !ok {
		return
	}
	if !s.enforceRateLimit(c) {
		return
	}
	var req bulkCreateCaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeErrorCode(c, http.StatusBadRequest, "INVALID_ARGUMENT", "malformed request body")
		return
	}
	caseType := domain.CaseType(req.CaseType)
	if req.CaseType == "" {
		caseType = domain.CaseTypeGeneral
	}
	result, err := s.bulk.BulkCreateCase(c.Request.Context(), caseType, req.Title, req.Description, req.TransactionIDs, principal)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, bulkCaseResponse{
		bulkResultResponse: toBulkResultResponse(result.BulkResult),
		Case:               toCaseResponse(result.Case),
	})
}
