package http

import (
	"net/http"
	"strconv"
	"time"

	"fraudops/internal/domain"
	"fraudops/internal/usecase"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

type transactionPageResponse struct {
	Items      []transactionResponse `json:"items"`
	NextCursor string                `json:"next_cursor,omitempty"`
	HasMore    bool                  `json:"has_more"`
	Total      int64                 `json:"total"`
}

type transactionDetailResponse struct {
	Transaction transactionResponse `json:"transaction"`
	RuleMatches []ruleMatchResponse `json:"rule_matches"`
	Review      *reviewResponse     `json:"review,omitempty"`
}

func (s *Server) handleListTransactions(c *gin.Context) {
	if _, ok := s.requireAuth(c, domain.PermTransactionRead); !ok {
		return
	}
	filter, err := transactionFilterFromQuery(c)
	if err != nil {
		writeError(c, err)
		return
	}
	page, err := s.transactions.List(c.Request.Context(), filter)
	if err != nil {
		writeError(c, err)
		return
	}
	items := make([]transactionResponse, 0, len(page.Items))
	for _, t := range page.Items {
		items = append(items, toTransactionResponse(t))
	}
	c.JSON(http.StatusOK, transactionPageResponse{
		Items:      items,
		NextCursor: page.NextCursor,
		HasMore:    page.HasMore,
		Total:      page.Total,
	})
}

func (s *Server) handleGetTransaction(c *gin.Context) {
	if _, ok := s.requireAuth(c, domain.PermTransactionRead); !ok {
		return
	}
	transaction, err := s.transactions.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toTransactionResponse(transaction))
}

func (s *Server) handleGetTransactionCombined(c *gin.Context) {
	if _, ok := s.requireAuth(c, domain.PermTransactionRead); !ok {
		return
	}
	detail, err := s.transactions.GetDetail(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	resp := transactionDetailResponse{
		Transaction: toTransactionResponse(detail.Transaction),
		RuleMatches: toRuleMatchResponses(detail.RuleMatches),
	}
	if detail.Review != nil {
		review := toReviewResponse(*detail.Review)
		resp.Review = &review
	}
	c.JSON(http.StatusOK, resp)
}

type overviewBucketResponse struct {
	Key   string `json:"key"`
	Count int64  `json:"count"`
}

type overviewResponse struct {
	Total      int64                    `json:"total"`
	ByDecision []overviewBucketResponse `json:"by_decision"`
	ByRisk     []overviewBucketResponse `json:"by_risk"`
	From       time.Time                `json:"from"`
	To         time.Time                `json:"to"`
}

func (s *Server) handleTransactionOverview(c *gin.Context) {
	if _, ok := s.requireAuth(c, domain.PermTransactionRead); !ok {
		return
	}
	from, err := parseTimeQuery(c, "from")
	if err != nil {
		writeError(c, err)
		return
	}
	to, err := parseTimeQuery(c, "to")
	if err != nil {
		writeError(c, err)
		return
	}
	var fromVal, toVal time.Time
	if from != nil {
		fromVal = *from
	}
	if to != nil {
		toVal = *to
	}
	overview, err := s.transactions.Overview(c.Request.Context(), fromVal, toVal)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, overviewResponse{
		Total:      overview.Total,
		ByDecision: toOverviewBuckets(overview.ByDecision),
		ByRisk:     toOverviewBuckets(overview.ByRisk),
		From:       overview.From,
		To:         overview.To,
	})
}

func toOverviewBuckets(buckets []usecase.OverviewBucket) []overviewBucketResponse {
	out := make([]overviewBucketResponse, 0, len(buckets))
	for _, b := range buckets {
		out = append(out, overviewBucketResponse{Key: b.Key, Count: b.Count})
	}
	return out
}

func transactionFilterFromQuery(c *gin.Context) (usecase.TransactionFilter, error) {
	filter := usecase.TransactionFilter{
		CardID:            c.Query("card_id"),
		AccountID:         c.Query("account_id"),
		Decision:          domain.Decision(c.Query("decision")),
		EvaluationType:    domain.EvaluationType(c.Query("evaluation_type")),
		RiskLevel:         domain.RiskLevel(c.Query("risk_level")),
		ReviewStatus:      domain.ReviewStatus(c.Query("review_status")),
		AssignedAnalystID: c.Query("assigned_analyst_id"),
		CaseID:            c.Query("case_id"),
		RuleID:            c.Query("rule_id"),
		Cursor:            c.Query("cursor"),
	}
	limit, err := parseIntQuery(c, "limit")
	if err != nil {
		return usecase.TransactionFilter{}, err
	}
	if limit == 0 {
		// page_size is accepted as an alias for limit.
		if limit, err = parseIntQuery(c, "page_size"); err != nil {
			return usecase.TransactionFilter{}, err
		}
	}
	filter.Limit = limit

	minAmount, err := parseDecimalQuery(c, "min_amount")
	if err != nil {
		return usecase.TransactionFilter{}, err
	}
	filter.MinAmount = minAmount
	maxAmount, err := parseDecimalQuery(c, "max_amount")
	if err != nil {
		return usecase.TransactionFilter{}, err
	}
	filter.MaxAmount = maxAmount

	from, err := parseTimeQuery(c, "from")
	if err != nil {
		return usecase.TransactionFilter{}, err
	}
	filter.From = from
	to, err := parseTimeQuery(c, "to")
	if err != nil {
		return usecase.TransactionFilter{}, err
	}
	filter.To = to
	return filter, nil
}

func parseIntQuery(c *gin.Context, name string) (int, error) {
	raw := c.Query(name)
	if raw == "" {
		return 0, nil
	}
	parsed, err := strconv.Atoi(raw)
	if err != nil || parsed < 0 {
		return 0, domain.ErrInvalidArgument
	}
	return parsed, nil
}

func parseDecimalQuery(c *gin.Context, name string) (*decimal.Decimal, error) {
	raw := c.Query(name)
	if raw == "" {
		return nil, nil
	}
	parsed, err := decimal.NewFromString(raw)
	if err != nil {
		return nil, domain.ErrInvalidArgument
	}
	return &parsed, nil
}

func parseTimeQuery(c *gin.Context, name string) (*time.Time, error) {
	raw := c.Query(name)
	if raw == "" {
		return nil, nil
	}
	parsed, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return nil, domain.ErrInvalidArgument
	}
	return &parsed, nil
}
