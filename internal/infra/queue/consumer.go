// Package queue consumes decision events from a Redis Stream so the rules
// engine can publish asynchronously instead of calling the HTTP endpoint.
package queue

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"fraudops/internal/domain"
	"fraudops/internal/usecase"
	"fraudops/pkg/log"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

const (
	readBlock = 5 * time.Second
	readCount = 16
	// payloadField is the stream entry field holding the JSON event.
	payloadField = "payload"

	// reclaimMinIdle is how long a delivery may sit unacknowledged in another
	// consumer's pending list before this consumer claims it.
	reclaimMinIdle  = 30 * time.Second
	reclaimInterval = time.Minute
)

// streamClient is the slice of the redis client the consumer uses.
type streamClient interface {
	XGroupCreateMkStream(ctx context.Context, stream, group, start string) *redis.StatusCmd
	XReadGroup(ctx context.Context, a *redis.XReadGroupArgs) *redis.XStreamSliceCmd
	XAck(ctx context.Context, stream, group string, ids ...string) *redis.IntCmd
	XAutoClaim(ctx context.Context, a *redis.XAutoClaimArgs) *redis.XAutoClaimCmd
}

type Consumer struct {
	client   streamClient
	ingest   *usecase.IngestionService
	stream   string
	group    string
	consumer string
	logger   zerolog.Logger

	deadLettered int64
}

type Config struct {
	Stream   string
	Group    string
	Consumer string
}

func NewConsumer(client streamClient, ingest *usecase.IngestionService, cfg Config) (*Consumer, error) {
	if client == nil {
		return nil, errors.New("redis client is required")
	}
	if cfg.Stream == "" || cfg.Group == "" || cfg.Consumer == "" {
		return nil, errors.New("stream, group and consumer name are required")
	}
	return &Consumer{
		client:   client,
		ingest:   ingest,
		stream:   cfg.Stream,
		group:    cfg.Group,
		consumer: cfg.Consumer,
		logger: log.Logger().With().
			Str("component", "queue").
			Str("stream", cfg.Stream).
			Str("group", cfg.Group).
			Logger(),
	}, nil
}

// Run blocks until ctx is cancelled. Messages are acknowledged only after
// the event is persisted; a crash before the ack leaves the message pending
// for redelivery. Pending entries from a previous run are drained before new
// ones are read, and deliveries stuck with other consumers are reclaimed
// periodically, so an unacked message is always retried eventually.
func (c *Consumer) Run(ctx context.Context) error {
	if err := c.ensureGroup(ctx); err != nil {
		return err
	}
	if err := c.drainPending(ctx); err != nil {
		return err
	}
	c.logger.Info().Str("consumer", c.consumer).Msg("event stream consumer started")
	nextReclaim := time.Now().Add(reclaimInterval)
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		if time.Now().After(nextReclaim) {
			c.reclaimStale(ctx)
			nextReclaim = time.Now().Add(reclaimInterval)
		}
		streams, err := c.client.XReadGroup(ctx, &redis.XReadGroupArgs{
			Group:    c.group,
			Consumer: c.consumer,
			Streams:  []string{c.stream, ">"},
			Count:    readCount,
			Block:    readBlock,
		}).Result()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				continue
			}
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return err
			}
			c.logger.Error().Err(err).Msg("stream read failed")
			if err := sleepCtx(ctx, time.Second); err != nil {
				return err
			}
			continue
		}
		for _, stream := range streams {
			for _, message := range stream.Messages {
				c.handle(ctx, message)
			}
		}
	}
}

func (c *Consumer) ensureGroup(ctx context.Context) error {
	err := c.client.XGroupCreateMkStream(ctx, c.stream, c.group, "0").Err()
	if err != nil && !strings.Contains(err.Error(), "BUSYGROUP") {
		return err
	}
	return nil
}

// drainPending re-processes this consumer's own pending entries, left over
// from a crash between delivery and ack. Paging by last seen id terminates
// even when an entry fails transiently again and stays pending.
func (c *Consumer) drainPending(ctx context.Context) error {
	lastID := "0"
	for {
		streams, err := c.client.XReadGroup(ctx, &redis.XReadGroupArgs{
			Group:    c.group,
			Consumer: c.consumer,
			Streams:  []string{c.stream, lastID},
			Count:    readCount,
		}).Result()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				return nil
			}
			return err
		}
		progressed := false
		for _, stream := range streams {
			for _, message := range stream.Messages {
				c.handle(ctx, message)
				lastID = message.ID
				progressed = true
			}
		}
		if !progressed {
			return nil
		}
	}
}

// reclaimStale takes over deliveries that have sat unacknowledged with any
// consumer for longer than reclaimMinIdle, then processes them here.
func (c *Consumer) reclaimStale(ctx context.Context) {
	start := "0-0"
	for {
		messages, next, err := c.client.XAutoClaim(ctx, &redis.XAutoClaimArgs{
			Stream:   c.stream,
			Group:    c.group,
			Consumer: c.consumer,
			MinIdle:  reclaimMinIdle,
			Start:    start,
			Count:    readCount,
		}).Result()
		if err != nil {
			c.logger.Error().Err(err).Msg("pending reclaim failed")
			return
		}
		for _, message := range messages {
			c.handle(ctx, message)
		}
		if len(messages) == 0 || next == "0-0" {
			return
		}
		start = next
	}
}

func (c *Consumer) handle(ctx context.Context, message redis.XMessage) {
	event, err := decodeMessage(message)
	if err != nil {
		// A malformed message can never succeed on retry; ack it away and
		// count it instead of wedging the group.
		c.deadLettered++
		c.logger.Error().Err(err).
			Str("message_id", message.ID).
			Int64("dead_lettered", c.deadLettered).
			Msg("dropping undecodable stream message")
		c.ack(ctx, message.ID)
		return
	}
	event.Source = "queue"
	if _, err := c.ingest.Ingest(ctx, event); err != nil {
		if errors.Is(err, domain.ErrInvalidArgument) || errors.Is(err, domain.ErrPANDetected) || errors.Is(err, domain.ErrConflict) {
			// Deterministic rejections are dead-lettered like decode failures.
			c.deadLettered++
			c.logger.Error().Err(err).
				Str("message_id", message.ID).
				Str("transaction_id", event.TransactionID).
				Msg("dropping rejected decision event")
			c.ack(ctx, message.ID)
			return
		}
		// Transient persistence error: leave pending for redelivery.
		c.logger.Error().Err(err).
			Str("message_id", message.ID).
			Msg("decision event not persisted, leaving pending")
		return
	}
	c.ack(ctx, message.ID)
}

func (c *Consumer) ack(ctx context.Context, messageID string) {
	if err := c.client.XAck(ctx, c.stream, c.group, messageID).Err(); err != nil {
		c.logger.Error().Err(err).Str("message_id", messageID).Msg("ack failed")
	}
}

// eventPayload is the stream wire format, one JSON document per entry under
// the payload field.
type eventPayload struct {
	TransactionID  string             `json:"transaction_id"`
	EvaluationType string             `json:"evaluation_type"`
	CardID         string             `json:"card_id"`
	AccountID      string             `json:"account_id"`
	Amount         decimal.Decimal    `json:"amount"`
	Currency       string             `json:"currency"`
	Decision       string             `json:"decision"`
	DecisionReason string             `json:"decision_reason"`
	RiskLevel      string             `json:"risk_level"`
	Context        map[string]any     `json:"transaction_context"`
	Velocity       map[string]any     `json:"velocity_data"`
	EngineMetadata map[string]any     `json:"engine_metadata"`
	RawPayload     map[string]any     `json:"raw_payload"`
	TraceID        string             `json:"trace_id"`
	EventTimestamp time.Time          `json:"event_timestamp"`
	RuleMatches    []ruleMatchPayload `json:"rule_matches"`
}

type ruleMatchPayload struct {
	RuleID      string         `json:"rule_id"`
	RuleVersion string         `json:"rule_version"`
	Action      string         `json:"action"`
	Conditions  map[string]any `json:"conditions"`
}

func decodeMessage(message redis.XMessage) (domain.DecisionEvent, error) {
	raw, ok := message.Values[payloadField].(string)
	if !ok || raw == "" {
		return domain.DecisionEvent{}, errors.New("stream message has no payload field")
	}
	var payload eventPayload
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		return domain.DecisionEvent{}, err
	}
	event := domain.DecisionEvent{
		TransactionID:  payload.TransactionID,
		EvaluationType: domain.EvaluationType(payload.EvaluationType),
		CardID:         payload.CardID,
		AccountID:      payload.AccountID,
		Amount:         payload.Amount,
		Currency:       payload.Currency,
		Decision:       domain.Decision(payload.Decision),
		DecisionReason: payload.DecisionReason,
		RiskLevel:      domain.RiskLevel(payload.RiskLevel),
		Context:        payload.Context,
		Velocity:       payload.Velocity,
		EngineMetadata: payload.EngineMetadata,
		RawPayload:     payload.RawPayload,
		TraceID:        payload.TraceID,
		EventTimestamp: payload.EventTimestamp,
	}
	for _, match := range payload.RuleMatches {
		event.RuleMatches = append(event.RuleMatches, domain.RuleMatch{
			RuleID:      match.RuleID,
			RuleVersion: match.RuleVersion,
			Action:      match.Action,
			Conditions:  match.Conditions,
		})
	}
	return event, nil
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
