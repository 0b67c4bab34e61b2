// Package consumer receives push change notifications from the remote
// store over Redis Streams (one logical channel per collection) and folds
// them back into the sync engine. A change event is never applied as a
// single-record patch: any event of any kind triggers a full refetch of all
// collections, which keeps server-side joins consistent at the cost of
// redundant reads on every change.
package consumer

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"smilecare-sync/internal/domain"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	rediscommon "smilecare-sync/internal/common/redis"
)

// Reconciler folds remote changes back into local state.
type Reconciler interface {
	Reconcile(ctx context.Context)
}

// ChangeConsumer 变更事件消费者
type ChangeConsumer struct {
	redisClient  *redis.Client
	reconciler   Reconciler
	logger       *zap.Logger
	streamPrefix string
	groupName    string
	consumerName string
	batchSize    int64

	// read block duration; shortened in tests
	block time.Duration
}

// NewChangeConsumer 创建变更事件消费者
func NewChangeConsumer(
	redisClient *redis.Client,
	reconciler Reconciler,
	logger *zap.Logger,
	streamPrefix string,
	groupName string,
	consumerName string,
	batchSize int64,
) *ChangeConsumer {
	return &ChangeConsumer{
		redisClient:  redisClient,
		reconciler:   reconciler,
		logger:       logger,
		streamPrefix: streamPrefix,
		groupName:    groupName,
		consumerName: consumerName,
		batchSize:    batchSize,
		block:        5 * time.Second,
	}
}

// streams returns the change channel for every collection.
func (c *ChangeConsumer) streams() []string {
	collections := []string{
		domain.CollectionBookings,
		domain.CollectionServices,
		domain.CollectionPatients,
		domain.CollectionRecords,
	}
	out := make([]string, 0, len(collections))
	for _, col := range collections {
		out = append(out, c.streamPrefix+col)
	}
	return out
}

// Start 启动消费循环（带指数退避）
func (c *ChangeConsumer) Start(ctx context.Context) error {
	for _, stream := range c.streams() {
		if err := rediscommon.CreateConsumerGroup(ctx, c.redisClient, stream, c.groupName); err != nil {
			return fmt.Errorf("failed to create consumer group for %s: %w", stream, err)
		}
	}

	c.logger.Info("Change consumer started",
		zap.Strings("streams", c.streams()),
		zap.String("consumer_group", c.groupName),
		zap.String("consumer_name", c.consumerName),
	)

	backoffDuration := time.Second
	maxBackoff := 30 * time.Second

	for {
		select {
		case <-ctx.Done():
			return nil
		default:
			if err := c.consumeOnce(ctx); err != nil {
				c.logger.Error("Failed to consume change events",
					zap.Error(err),
					zap.Duration("backoff", backoffDuration),
				)

				select {
				case <-ctx.Done():
					return nil
				case <-time.After(backoffDuration):
					backoffDuration *= 2
					if backoffDuration > maxBackoff {
						backoffDuration = maxBackoff
					}
				}
			} else {
				backoffDuration = time.Second
			}
		}
	}
}

// consumeOnce reads one batch across all change streams and processes it.
func (c *ChangeConsumer) consumeOnce(ctx context.Context) error {
	messages, err := rediscommon.ReadFromStreams(
		ctx,
		c.redisClient,
		c.streams(),
		c.groupName,
		c.consumerName,
		c.batchSize,
		c.block,
	)
	if err != nil {
		return fmt.Errorf("failed to read from change streams: %w", err)
	}

	// A batch of events still triggers a single reconcile: the refetch is
	// wholesale anyway, replaying it per event buys nothing.
	sawChange := false
	for _, msg := range messages {
		if err := c.processMessage(msg); err != nil {
			c.logger.Error("Failed to process change event",
				zap.String("stream", msg.Stream),
				zap.String("message_id", msg.ID),
				zap.Error(err),
			)
			// keep going, do not block the stream on one bad message
		} else {
			sawChange = true
		}
		if err := c.redisClient.XAck(ctx, msg.Stream, c.groupName, msg.ID).Err(); err != nil {
			c.logger.Warn("Failed to ack change event",
				zap.String("message_id", msg.ID),
				zap.Error(err),
			)
		}
	}

	if sawChange {
		c.reconciler.Reconcile(ctx)
	}

	return nil
}

// processMessage 解析单个事件
func (c *ChangeConsumer) processMessage(msg rediscommon.StreamMessage) error {
	event, err := parseChangeEvent(msg)
	if err != nil {
		return err
	}

	c.logger.Info("Received change event",
		zap.String("collection", event.Collection),
		zap.String("kind", string(event.Kind)),
		zap.String("event_id", event.EventID),
	)
	return nil
}

func parseChangeEvent(msg rediscommon.StreamMessage) (*domain.ChangeEvent, error) {
	dataStr, ok := msg.Values["data"].(string)
	if !ok {
		return nil, fmt.Errorf("change event missing data field")
	}

	var event domain.ChangeEvent
	if err := json.Unmarshal([]byte(dataStr), &event); err != nil {
		return nil, fmt.Errorf("failed to parse change event: %w", err)
	}

	switch event.Kind {
	case domain.ChangeInsert, domain.ChangeUpdate, domain.ChangeDelete:
	default:
		return nil, fmt.Errorf("unknown change kind: %q", event.Kind)
	}
	if event.Collection == "" {
		return nil, fmt.Errorf("change event missing collection")
	}

	return &event, nil
}
