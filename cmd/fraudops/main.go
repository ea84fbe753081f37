package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"fraudops/internal/config"
	"fraudops/internal/infra/db"
	httpinfra "fraudops/internal/infra/http"
	"fraudops/internal/infra/queue"
	"fraudops/internal/infra/ratelimit"
	"fraudops/internal/usecase"
	"fraudops/pkg/log"

	"github.com/redis/go-redis/v9"
)

func main() {
	cfg := config.FromEnv()

	opts := []log.Option{log.WithLevel(cfg.LogLevel)}
	if cfg.LogConsole {
		opts = append(opts, log.WithConsole())
	}
	if cfg.LogFile != "" {
		opts = append(opts, log.WithFile(cfg.LogFile))
	}
	log.Init("fraudops", opts...)
	logger := log.Logger()

	store, err := db.NewStore(cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to init store")
	}
	defer store.Close()
	if err := store.Migrate(); err != nil {
		logger.Fatal().Err(err).Msg("failed to migrate schema")
	}

	var redisClient *redis.Client
	if cfg.RedisAddr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		defer redisClient.Close()
	}

	txRepo := db.NewTransactionRepository(store.DB)
	reviewRepo := db.NewReviewRepository(store.DB)
	caseRepo := db.NewCaseRepository(store.DB)
	noteRepo := db.NewNoteRepository(store.DB)

	ingest := usecase.NewIngestionService(txRepo, reviewRepo, usecase.IngestionConfig{
		AutoCreateReviews: cfg.AutoCreateReviews,
		CardTokenPrefix:   cfg.CardTokenPrefix,
	})
	reviews := usecase.NewReviewService(reviewRepo, txRepo)
	cases := usecase.NewCaseService(caseRepo)

	deps := httpinfra.ServerDeps{
		Ingest:       ingest,
		Transactions: usecase.NewTransactionService(txRepo, reviewRepo),
		Reviews:      reviews,
		Notes:        usecase.NewNoteService(noteRepo, txRepo),
		Cases:        cases,
		Worklist:     usecase.NewWorklistService(reviewRepo),
		Bulk:         usecase.NewBulkService(reviews, cases),
	}
	if redisClient != nil && cfg.RateLimitRequests > 0 {
		limiter, err := ratelimit.NewRedisLimiter(redisClient, nil)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to init rate limiter")
		}
		deps.RateLimiter = limiter
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.EventStreamEnabled {
		if redisClient == nil {
			logger.Fatal().Msg("EVENT_STREAM_ENABLED requires REDIS_ADDR")
		}
		consumer, err := queue.NewConsumer(redisClient, ingest, queue.Config{
			Stream:   cfg.EventStream,
			Group:    cfg.EventStreamGroup,
			Consumer: cfg.EventStreamConsumer,
		})
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to init stream consumer")
		}
		go func() {
			if err := consumer.Run(ctx); err != nil && ctx.Err() == nil {
				logger.Error().Err(err).Msg("stream consumer exited")
			}
		}()
	}

	srv := httpinfra.NewServerWithDeps(cfg, store, deps)
	if err := srv.Run(); err != nil {
		logger.Fatal().Err(err).Msg("server exited")
	}
}
