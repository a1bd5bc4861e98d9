package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

type Handler func(ctx context.Context, event Event) error

// StreamClient is the subset of the Redis client a Subscriber needs.
// *redis.Client satisfies it.
type StreamClient interface {
	XGroupCreateMkStream(ctx context.Context, stream, group, start string) *redis.StatusCmd
	XReadGroup(ctx context.Context, a *redis.XReadGroupArgs) *redis.XStreamSliceCmd
	XAck(ctx context.Context, stream, group string, ids ...string) *redis.IntCmd
}

type Subscriber struct {
	client        StreamClient
	group         string
	consumer      string
	stream        string
	handler       Handler
	batchSize     int64
	blockDuration time.Duration
	retryInterval time.Duration
}

type SubscriberConfig struct {
	Group         string
	Consumer      string
	Stream        string
	Handler       Handler
	BatchSize     int64
	BlockDuration time.Duration
	// RetryInterval is how long a failed message waits before the pending
	// list is walked again.
	RetryInterval time.Duration
}

func NewSubscriber(client StreamClient, config SubscriberConfig) *Subscriber {
	if config.BatchSize == 0 {
		config.BatchSize = 10
	}
	if config.BlockDuration == 0 {
		config.BlockDuration = 5 * time.Second
	}
	if config.RetryInterval == 0 {
		config.RetryInterval = 5 * time.Second
	}

	return &Subscriber{
		client:        client,
		group:         config.Group,
		consumer:      config.Consumer,
		stream:        config.Stream,
		handler:       config.Handler,
		batchSize:     config.BatchSize,
		blockDuration: config.BlockDuration,
		retryInterval: config.RetryInterval,
	}
}

// Start blocks until ctx is cancelled. Messages whose handler fails stay
// pending and are replayed every retry interval until they are acked.
func (s *Subscriber) Start(ctx context.Context) error {
	err := s.client.XGroupCreateMkStream(ctx, s.stream, s.group, "0").Err()
	if err != nil && !strings.HasPrefix(err.Error(), "BUSYGROUP") {
		return fmt.Errorf("failed to create consumer group: %w", err)
	}

	log := slog.With("stream", s.stream, "group", s.group, "consumer", s.consumer)
	log.Info("subscriber started")

	// "0" and later ids walk this consumer's pending list; ">" reads new entries.
	cursor := "0"
	walkFailed := false
	// Zero when nothing is known to be pending.
	var retryAt time.Time
	for {
		select {
		case <-ctx.Done():
			log.Info("subscriber stopping")
			return ctx.Err()
		default:
		}

		if cursor == ">" && !retryAt.IsZero() && !time.Now().Before(retryAt) {
			cursor, walkFailed = "0", false
		}

		lastID, failed, err := s.readMessages(ctx, cursor, s.blockFor(retryAt))
		if err != nil {
			if ctx.Err() != nil {
				continue
			}
			log.Error("failed to read messages", "error", err)
			time.Sleep(time.Second)
			continue
		}

		if cursor == ">" {
			if failed && retryAt.IsZero() {
				retryAt = time.Now().Add(s.retryInterval)
			}
			continue
		}

		walkFailed = walkFailed || failed
		if lastID != "" {
			cursor = lastID
			continue
		}
		cursor = ">"
		retryAt = time.Time{}
		if walkFailed {
			retryAt = time.Now().Add(s.retryInterval)
		}
	}
}

// blockFor caps the blocking read so a scheduled retry is not delayed by it.
func (s *Subscriber) blockFor(retryAt time.Time) time.Duration {
	if retryAt.IsZero() {
		return s.blockDuration
	}
	wait := time.Until(retryAt)
	if wait < time.Millisecond {
		wait = time.Millisecond
	}
	return min(wait, s.blockDuration)
}

func (s *Subscriber) readMessages(ctx context.Context, cursor string, block time.Duration) (lastID string, failed bool, err error) {
	args := &redis.XReadGroupArgs{
		Group:    s.group,
		Consumer: s.consumer,
		Streams:  []string{s.stream, cursor},
		Count:    s.batchSize,
		Block:    -1,
	}
	if cursor == ">" {
		args.Block = block
	}

	streams, err := s.client.XReadGroup(ctx, args).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to read from stream: %w", err)
	}

	for _, stream := range streams {
		for _, message := range stream.Messages {
			lastID = message.ID
			if err := s.processMessage(ctx, message); err != nil {
				slog.Warn("failed to process message", "stream", s.stream, "id", message.ID, "error", err)
				failed = true
				continue
			}
			if err := s.client.XAck(ctx, s.stream, s.group, message.ID).Err(); err != nil {
				slog.Warn("failed to ack message", "stream", s.stream, "id", message.ID, "error", err)
			}
		}
	}
	return lastID, failed, nil
}

func (s *Subscriber) processMessage(ctx context.Context, message redis.XMessage) error {
	eventData, ok := message.Values["event"].(string)
	if !ok {
		return fmt.Errorf("invalid message format")
	}

	var event Event
	if err := json.Unmarshal([]byte(eventData), &event); err != nil {
		return fmt.Errorf("failed to unmarshal event: %w", err)
	}

	return s.handler(ctx, event)
}
