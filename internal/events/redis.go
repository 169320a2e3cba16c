package events

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/Manthan2028/resqnet/internal/models"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// RedisBus публикует события в канал Redis Pub/Sub
type RedisBus struct {
	rdb     *redis.Client
	channel string
	logger  *logrus.Logger
}

func NewRedisBus(rdb *redis.Client, channel string, logger *logrus.Logger) *RedisBus {
	return &RedisBus{rdb: rdb, channel: channel, logger: logger}
}

func (b *RedisBus) Publish(ctx context.Context, event models.IncidentEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal incident event: %w", err)
	}
	if err := b.rdb.Publish(ctx, b.channel, payload).Err(); err != nil {
		return fmt.Errorf("failed to publish incident event to Redis: %w", err)
	}
	return nil
}

// Subscribe подписывается на канал и ждет подтверждения от Redis.
// Возвращенный канал закрывается при отмене ctx или потере подписки.
func (b *RedisBus) Subscribe(ctx context.Context) (<-chan models.IncidentEvent, error) {
	pubsub := b.rdb.Subscribe(ctx, b.channel)
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, fmt.Errorf("failed to subscribe to %s: %w", b.channel, err)
	}

	out := make(chan models.IncidentEvent)
	go b.forward(ctx, pubsub, out)
	return out, nil
}

func (b *RedisBus) forward(ctx context.Context, pubsub *redis.PubSub, out chan<- models.IncidentEvent) {
	defer close(out)
	defer pubsub.Close()

	log := b.logger.WithFields(logrus.Fields{"component": "events", "channel": b.channel})
	messages := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-messages:
			if !ok {
				return
			}
			var event models.IncidentEvent
			if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
				log.WithError(err).Warn("Skipping malformed incident event")
				continue
			}
			select {
			case out <- event:
			case <-ctx.Done():
				return
			}
		}
	}
}
