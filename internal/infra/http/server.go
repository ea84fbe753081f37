package http

import (
	"errors"
	"net/http"
	"time"

	"fraudops/internal/config"
	"fraudops/internal/domain"
	"fraudops/internal/infra/auth/oidc"
	"fraudops/internal/infra/auth/rbac"
	"fraudops/internal/infra/db"
	"fraudops/internal/infra/ratelimit"
	"fraudops/internal/usecase"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

type Server struct {
	cfg   config.Config
	store *db.Store
	r     *gin.Engine

	ingest       *usecase.IngestionService
	transactions *usecase.TransactionService
	reviews      *usecase.ReviewService
	notes        *usecase.NoteService
	cases        *usecase.CaseService
	worklist     *usecase.WorklistService
	bulk         *usecase.BulkService

	authenticator domain.Authenticator
	authorizer    domain.Authorizer
	authInitErr   error

	rateLimiter         domain.RateLimiter
	rateLimitRequests   int
	rateLimitWindow     time.Duration
	rateLimitFailClosed bool
}

// ServerDeps carries pre-built collaborators, used by tests and by main
// when it wires shared clients (Redis) itself.
type ServerDeps struct {
	Ingest        *usecase.IngestionService
	Transactions  *usecase.TransactionService
	Reviews       *usecase.ReviewService
	Notes         *usecase.NoteService
	Cases         *usecase.CaseService
	Worklist      *usecase.WorklistService
	Bulk          *usecase.BulkService
	Authenticator domain.Authenticator
	Authorizer    domain.Authorizer
	RateLimiter   domain.RateLimiter
}

func NewServer(cfg config.Config, store *db.Store) *Server {
	r := gin.New()
	r.Use(gin.Recovery())

	s := &Server{cfg: cfg, store: store, r: r}
	s.initDeps()
	s.initRateLimit(nil)
	s.initAuth()
	s.routes()
	return s
}

func NewServerWithDeps(cfg config.Config, store *db.Store, deps ServerDeps) *Server {
	r := gin.New()
	r.Use(gin.Recovery())

	s := &Server{
		cfg:           cfg,
		store:         store,
		r:             r,
		ingest:        deps.Ingest,
		transactions:  deps.Transactions,
		reviews:       deps.Reviews,
		notes:         deps.Notes,
		cases:         deps.Cases,
		worklist:      deps.Worklist,
		bulk:          deps.Bulk,
		authenticator: deps.Authenticator,
		authorizer:    deps.Authorizer,
	}
	s.initRateLimit(deps.RateLimiter)
	s.initAuth()
	s.routes()
	return s
}

func (s *Server) initDeps() {
	if s.store == nil || s.store.DB == nil {
		return
	}
	txRepo := db.NewTransactionRepository(s.store.DB)
	reviewRepo := db.NewReviewRepository(s.store.DB)
	caseRepo := db.NewCaseRepository(s.store.DB)
	noteRepo := db.NewNoteRepository(s.store.DB)

	s.ingest = usecase.NewIngestionService(txRepo, reviewRepo, usecase.IngestionConfig{
		AutoCreateReviews: s.cfg.AutoCreateReviews,
		CardTokenPrefix:   s.cfg.CardTokenPrefix,
	})
	s.transactions = usecase.NewTransactionService(txRepo, reviewRepo)
	s.reviews = usecase.NewReviewService(reviewRepo, txRepo)
	s.notes = usecase.NewNoteService(noteRepo, txRepo)
	s.cases = usecase.NewCaseService(caseRepo)
	s.worklist = usecase.NewWorklistService(reviewRepo)
	s.bulk = usecase.NewBulkService(s.reviews, s.cases)
}

func (s *Server) initAuth() {
	if s.authenticator != nil {
		if s.authorizer == nil {
			s.authorizer = rbac.NewAuthorizer()
		}
		return
	}
	switch s.cfg.AuthMode {
	case "", "none":
		// Header principal, local runs only. RBAC still applies to the
		// roles and permissions the headers carry.
		if s.authorizer == nil {
			s.authorizer = rbac.NewAuthorizer()
		}
	case "oidc":
		authenticator, err := oidc.NewAuthenticator(s.cfg)
		if err != nil {
			s.authInitErr = err
			return
		}
		s.authenticator = authenticator
		s.authorizer = rbac.NewAuthorizer()
	default:
		s.authInitErr = errors.New("unsupported auth mode")
	}
}

func (s *Server) initRateLimit(override domain.RateLimiter) {
	if override != nil {
		s.rateLimiter = override
	}
	if s.rateLimiter == nil && s.cfg.RateLimitRequests > 0 {
		if s.cfg.RedisAddr != "" {
			client := redis.NewClient(&redis.Options{
				Addr:     s.cfg.RedisAddr,
				Password: s.cfg.RedisPassword,
				DB:       s.cfg.RedisDB,
			})
			if limiter, err := ratelimit.NewRedisLimiter(client, nil); err == nil {
				s.rateLimiter = limiter
			}
		}
		if s.rateLimiter == nil {
			s.rateLimiter = ratelimit.NewMemoryLimiter(ratelimit.MemoryLimiterConfig{
				MaxKeys: s.cfg.RateLimitMaxKeys,
			})
		}
	}
	s.rateLimitRequests = s.cfg.RateLimitRequests
	if s.cfg.RateLimitWindowSeconds > 0 {
		s.rateLimitWindow = time.Duration(s.cfg.RateLimitWindowSeconds) * time.Second
	}
	s.rateLimitFailClosed = s.cfg.RateLimitFailClosed
}

func (s *Server) routes() {
	s.r.GET("/healthz", s.handleHealthz)
	s.r.GET("/livez", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	s.r.GET("/readyz", s.handleReadyz)

	v1 := s.r.Group("/v1")
	{
		v1.POST("/decision-events", s.handleIngestEvent)

		v1.GET("/transactions", s.handleListTransactions)
		v1.GET("/transactions/overview", s.handleTransactionOverview)
		v1.GET("/transactions/:id", s.handleGetTransaction)
		v1.GET("/transactions/:id/combined", s.handleGetTransactionCombined)
		v1.GET("/transactions/:id/review", s.handleGetOrCreateReview)
		v1.GET("/transactions/:id/notes", s.handleListNotes)
		v1.POST("/transactions/:id/notes", s.handleCreateNote)

		v1.GET("/reviews/:id", s.handleGetReview)
		v1.POST("/reviews/:id/status", s.handleUpdateReviewStatus)
		v1.POST("/reviews/:id/assign", s.handleAssignReview)
		v1.POST("/reviews/:id/resolve", s.handleResolveReview)
		v1.POST("/reviews/:id/escalate", s.handleEscalateReview)

		v1.PATCH("/notes/:id", s.handleUpdateNote)
		v1.DELETE("/notes/:id", s.handleDeleteNote)

		v1.POST("/cases", s.handleCreateCase)
		v1.GET("/cases", s.handleListCases)
		v1.GET("/cases/:id", s.handleGetCase)
		v1.PATCH("/cases/:id", s.handleUpdateCase)
		v1.GET("/cases/:id/activity", s.handleCaseActivity)
		v1.GET("/cases/:id/transactions", s.handleCaseTransactions)
		v1.POST("/cases/:id/transactions", s.handleCaseAddTransaction)
		v1.DELETE("/cases/:id/transactions/:transaction_id", s.handleCaseRemoveTransaction)
		v1.POST("/cases/:id/resolve", s.handleResolveCase)

		v1.GET("/worklist", s.handleWorklist)
		v1.GET("/worklist/unassigned", s.handleWorklistUnassigned)
		v1.GET("/worklist/stats", s.handleWorklistStats)
		v1.POST("/worklist/claim", s.handleWorklistClaim)

		v1.POST("/bulk/assign", s.handleBulkAssign)
		v1.POST("/bulk/status", s.handleBulkStatus)
		v1.POST("/bulk/create-case", s.handleBulkCreateCase)
	}

	s.r.NoRoute(func(c *gin.Context) {
		writeErrorCode(c, http.StatusNotFound, "NOT_FOUND", "route not found")
	})
}

func (s *Server) handleHealthz(c *gin.Context) {
	mode := "no-db"
	if s.store != nil && s.store.DB != nil {
		mode = "db"
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok", "mode": mode})
}

func (s *Server) handleReadyz(c *gin.Context) {
	if s.store == nil || s.store.DB == nil {
		writeErrorCode(c, http.StatusServiceUnavailable, "NOT_READY", "store not configured")
		return
	}
	if err := s.store.Ping(); err != nil {
		writeErrorCode(c, http.StatusServiceUnavailable, "NOT_READY", "store unreachable")
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) Run() error {
	if s.authInitErr != nil {
		return s.authInitErr
	}
	return s.r.Run(s.cfg.HTTPAddr)
}

// Handler exposes the router for httptest.
func (s *Server) Handler() http.Handler {
	return s.r
}
