package http

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"fraudops/internal/domain"
	"fraudops/internal/usecase"

	"github.com/gin-gonic/gin"
)

func (s *Server) handleWorklist(c *gin.Context) {
	if _, ok := s.requireAuth(c, domain.PermWorklistRead); !ok {
		return
	}
	limit, err := parseIntQuery(c, "limit")
	if err != nil {
		writeError(c, err)
		return
	}
	priority, err := parseIntQuery(c, "priority")
	if err != nil {
		writeError(c, err)
		return
	}
	filter := usecase.WorklistFilter{
		Statuses:          parseStatuses(c.Query("status")),
		Priority:          priority,
		RiskLevel:         domain.RiskLevel(c.Query("risk_level")),
		AssignedAnalystID: c.Query("assigned_analyst_id"),
		Cursor:            c.Query("cursor"),
		Limit:             limit,
	}
	page, err := s.worklist.List(c.Request.Context(), filter)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toWorklistPageResponse(page))
}

func (s *Server) handleWorklistUnassigned(c *gin.Context) {
	if _, ok := s.requireAuth(c, domain.PermWorklistRead); !ok {
		return
	}
	limit, err := parseIntQuery(c, "limit")
	if err != nil {
		writeError(c, err)
		return
	}
	page, err := s.worklist.Unassigned(c.Request.Context(), limit, c.Query("cursor"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toWorklistPageResponse(page))
}

type worklistStatsResponse struct {
	ByStatus          map[string]int64 `json:"by_status"`
	ByPriority        map[string]int64 `json:"by_priority"`
	Unassigned        int64            `json:"unassigned"`
	OldestPendingSecs int64            `json:"oldest_pending_seconds"`
}

func (s *Server) handleWorklistStats(c *gin.Context) {
	principal, ok := s.requireAuth(c, domain.PermWorklistRead)
	if !ok {
		return
	}
	analystID := c.Query("analyst_id")
	if analystID == "" {
		analystID = principal.Subject
	}
	stats, err := s.worklist.Stats(c.Request.Context(), analystID)
	if err != nil {
		writeError(c, err)
		return
	}
	byStatus := make(map[string]int64, len(stats.ByStatus))
	for status, count := range stats.ByStatus {
		byStatus[string(status)] = count
	}
	byPriority := make(map[string]int64, len(stats.ByPriority))
	for priority, count := range stats.ByPriority {
		byPriority[strconv.Itoa(priority)] = count
	}
	c.JSON(http.StatusOK, worklistStatsResponse{
		ByStatus:          byStatus,
		ByPriority:        byPriority,
		Unassigned:        stats.Unassigned,
		OldestPendingSecs: int64(stats.OldestPendingAge.Seconds()),
	})
}

type claimRequest struct {
	Priority  int    `json:"priority"`
	RiskLevel string `json:"risk_level"`
}

func (s *Server) handleWorklistClaim(c *gin.Context) {
	principal, ok := s.requireAuth(c, domain.PermWorklistClaim)
	if !ok {
		return
	}
	// An empty body means claim the next item with no filters.
	var req claimRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		writeErrorCode(c, http.StatusBadRequest, "INVALID_ARGUMENT", "malformed request body")
		return
	}
	review, err := s.worklist.Claim(c.Request.Context(), usecase.ClaimFilter{
		Priority:  req.Priority,
		RiskLevel: domain.RiskLevel(req.RiskLevel),
	}, principal.Subject)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toReviewResponse(review))
}

func parseStatuses(raw string) []domain.ReviewStatus {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]domain.ReviewStatus, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, domain.ReviewStatus(trimmed))
		}
	}
	return out
}
