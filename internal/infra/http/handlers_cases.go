package http

import (
	"net/http"

	"fraudops/internal/domain"
	"fraudops/internal/usecase"

	"github.com/gin-gonic/gin"
)

type createCaseRequest struct {
	CaseType          string `json:"case_type"`
	Title             string `json:"title"`
	Description       string `json:"description"`
	AssignedAnalystID string `json:"assigned_analyst_id"`
}

func (s *Server) handleCreateCase(c *gin.Context) {
	principal, ok := s.requireAuth(c, domain.PermCaseWrite)
	if !ok {
		return
	}
	var req createCaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeErrorCode(c, http.StatusBadRequest, "INVALID_ARGUMENT", "malformed request body")
		return
	}
	caseType := domain.CaseType(req.CaseType)
	if req.CaseType == "" {
		caseType = domain.CaseTypeGeneral
	}
	created, err := s.cases.Create(c.Request.Context(), caseType, req.Title, req.Description, req.AssignedAnalystID, principal)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toCaseResponse(created))
}

type casePageResponse struct {
	Items      []caseResponse `json:"items"`
	NextCursor string         `json:"next_cursor,omitempty"`
	HasMore    bool           `json:"has_more"`
}

func (s *Server) handleListCases(c *gin.Context) {
	if _, ok := s.requireAuth(c, domain.PermCaseRead); !ok {
		return
	}
	limit, err := parseIntQuery(c, "limit")
	if err != nil {
		writeError(c, err)
		return
	}
	page, err := s.cases.List(c.Request.Context(), usecase.CaseFilter{
		Status:            domain.CaseStatus(c.Query("status")),
		CaseType:          domain.CaseType(c.Query("case_type")),
		AssignedAnalystID: c.Query("assigned_analyst_id"),
		Cursor:            c.Query("cursor"),
		Limit:             limit,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	items := make([]caseResponse, 0, len(page.Items))
	for _, cs := range page.Items {
		items = append(items, toCaseResponse(cs))
	}
	c.JSON(http.StatusOK, casePageResponse{Items: items, NextCursor: page.NextCursor, HasMore: page.HasMore})
}

type caseDetailResponse struct {
	Case         caseResponse           `json:"case"`
	Activity     []caseActivityResponse `json:"activity"`
	Transactions []transactionResponse  `json:"transactions"`
}

func (s *Server) handleGetCase(c *gin.Context) {
	if _, ok := s.requireAuth(c, domain.PermCaseRead); !ok {
		return
	}
	detail, err := s.cases.GetDetail(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	transactions := make([]transactionResponse, 0, len(detail.Transactions))
	for _, t := range detail.Transactions {
		transactions = append(transactions, toTransactionResponse(t))
	}
	c.JSON(http.StatusOK, caseDetailResponse{
		Case:         toCaseResponse(detail.Case),
		Activity:     toCaseActivityResponses(detail.Activity),
		Transactions: transactions,
	})
}

type updateCaseRequest struct {
	Status            *string `json:"status"`
	AssignedAnalystID *string `json:"assigned_analyst_id"`
	Title             *string `json:"title"`
	Description       *string `json:"description"`
}

func (s *Server) handleUpdateCase(c *gin.Context) {
	principal, ok := s.requireAuth(c, domain.PermCaseWrite)
	if !ok {
		return
	}
	var req updateCaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeErrorCode(c, http.StatusBadRequest, "INVALID_ARGUMENT", "malformed request body")
		return
	}
	update := usecase.CaseUpdate{
		CaseID:            c.Param("id"),
		ActorID:           principal.Subject,
		AssignedAnalystID: req.AssignedAnalystID,
		Title:             req.Title,
		Description:       req.Description,
	}
	if req.Status != nil {
		status := domain.CaseStatus(*req.Status)
		update.Status = &status
	}
	updated, err := s.cases.Update(c.Request.Context(), update)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toCaseResponse(updated))
}

func (s *Server) handleCaseActivity(c *gin.Context) {
	if _, ok := s.requireAuth(c, domain.PermCaseRead); !ok {
		return
	}
	detail, err := s.cases.GetDetail(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": toCaseActivityResponses(detail.Activity)})
}

func (s *Server) handleCaseTransactions(c *gin.Context) {
	if _, ok := s.requireAuth(c, domain.PermCaseRead); !ok {
		return
	}
	detail, err := s.cases.GetDetail(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	items := make([]transactionResponse, 0, len(detail.Transactions))
	for _, t := range detail.Transactions {
		items = append(items, toTransactionResponse(t))
	}
	c.JSON(http.StatusOK, gin.H{"items": items})
}

type caseTransactionRequest struct {
	TransactionID string `json:"transaction_id"`
}

func (s *Server) handleCaseAddTransaction(c *gin.Context) {
	principal, ok := s.requireAuth(c, domain.PermCaseWrite)
	if !ok {
		return
	}
	var req caseTransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.TransactionID == "" {
		writeErrorCode(c, http.StatusBadRequest, "INVALID_ARGUMENT", "transaction_id is required")
		return
	}
	updated, err := s.cases.AddTransaction(c.Request.Context(), c.Param("id"), req.TransactionID, principal)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toCaseResponse(updated))
}

func (s *Server) handleCaseRemoveTransaction(c *gin.Context) {
	principal, ok := s.requireAuth(c, domain.PermCaseWrite)
	if !ok {
		return
	}
	updated, err := s.cases.RemoveTransaction(c.Request.Context(), c.Param("id"), c.Param("transaction_id"), principal)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toCaseResponse(updated))
}

type resolveCaseRequest struct {
	ResolutionSummary string `json:"resolution_summary"`
}

func (s *Server) handleResolveCase(c *gin.Context) {
	principal, ok := s.requireAuth(c, domain.PermCaseWrite)
	if !ok {
		return
	}
	var req resolveCaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeErrorCode(c, http.StatusBadRequest, "INVALID_ARGUMENT", "malformed request body")
		return
	}
	resolved, err := s.cases.Resolve(c.Request.Context(), c.Param("id"), req.ResolutionSummary, principal)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toCaseResponse(resolved))
}
