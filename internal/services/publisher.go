package services

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"lexora-backend/internal/logger"
	"lexora-backend/internal/models"
)

type publishClient interface {
	Publish(ctx context.Context, channel string, message interface{}) *redis.IntCmd
}

// localSender delivers to sockets held by this process.
type localSender interface {
	SendToUser(userID uuid.UUID, msg models.WSMessage)
}

// RedisPublisher fans messages out to the websocket hub over redis pub/sub.
// When redis rejects the publish, the message still reaches the learner's
// sockets on this instance through local.
type RedisPublisher struct {
	redis publishClient
	local localSender
	log   *logger.Logger
}

func NewRedisPublisher(client publishClient, local localSender, log *logger.Logger) *RedisPublisher {
	return &RedisPublisher{redis: client, local: local, log: log.With("component", "RedisPublisher")}
}

// PublishUpdate sends a WebSocket update via Redis pub/sub. Delivery is best effort.
func (p *RedisPublisher) PublishUpdate(ctx context.Context, userID uuid.UUID, msg models.WSMessage) {
	data, err := json.Marshal(msg)
	if err != nil {
		p.log.Warn("failed to encode ws message", "type", msg.Type, "error", err)
		return
	}
	if err := p.redis.Publish(ctx, models.UserUpdatesChannel(userID), string(data)).Err(); err != nil {
		p.log.Warn("failed to publish update", "user_id", userID, "type", msg.Type, "error", err)
		if p.local != nil {
			p.local.SendToUser(userID, msg)
		}
	}
}
