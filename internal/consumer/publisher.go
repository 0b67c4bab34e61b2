package consumer

import (
	"context"
	"encoding/json"
	"time"

	"smilecare-sync/internal/domain"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"go.uber.org/zap"

	rediscommon "smilecare-sync/internal/common/redis"
)

// Publisher emits change events after a successful remote write, fanning
// the notification out to every subscribed admin session (including the
// writer's own, which harmlessly refetches state it already has).
type Publisher struct {
	redisClient  *redis.Client
	logger       *zap.Logger
	streamPrefix string
}

func NewPublisher(redisClient *redis.Client, logger *zap.Logger, streamPrefix string) *Publisher {
	return &Publisher{
		redisClient:  redisClient,
		logger:       logger,
		streamPrefix: streamPrefix,
	}
}

// PublishChange 发布变更事件（best-effort，失败仅记录日志）
// entity may be nil for deletes; deletedID may be empty for inserts/updates.
func (p *Publisher) PublishChange(ctx context.Context, collection string, kind domain.ChangeKind, entity any, deletedID string) {
	event := domain.ChangeEvent{
		EventID:    uuid.NewString(),
		Collection: collection,
		Kind:       kind,
		DeletedID:  deletedID,
		Timestamp:  time.Now().Unix(),
	}
	if entity != nil {
		raw, err := json.Marshal(entity)
		if err != nil {
			p.logger.Warn("Failed to marshal change entity",
				zap.String("collection", collection),
				zap.Error(err),
			)
			return
		}
		event.Entity = raw
	}

	stream := p.streamPrefix + collection
	if _, err := rediscommon.PublishJSONToStream(ctx, p.redisClient, stream, event); err != nil {
		p.logger.Warn("Failed to publish change event",
			zap.String("stream", stream),
			zap.String("kind", string(kind)),
			zap.Error(err),
		)
	}
}
