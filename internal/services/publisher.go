package services

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"stwipe-backend/internal/models"
)

// ProgressPublisher fans pipeline progress out to the websocket hub through
// Redis pub/sub, one channel per user.
type ProgressPublisher struct {
	redis *redis.Client
}

func NewProgressPublisher(redisClient *redis.Client) *ProgressPublisher {
	return &ProgressPublisher{redis: redisClient}
}

func (p *ProgressPublisher) PublishProgress(ctx context.Context, userID uuid.UUID, msg models.WSMessage) {
	data, _ := json.Marshal(msg)
	p.redis.Publish(ctx, fmt.Sprintf("user_updates:%s", userID.String()), string(data))
}
