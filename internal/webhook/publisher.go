package webhook

//go:generate mockgen -source=publisher.go -destination=mocks/mock_publisher.go -package=mocks

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Manthan2028/resqnet/internal/models"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	webhookQueueKey = "incident_webhook_events"
)

// WebhookEvent - структура для данных вебхука
type WebhookEvent struct {
	Event      models.EventKind `json:"event"`
	IncidentID uuid.UUID        `json:"incident_id"`
	City       string           `json:"city"`
	Status     models.Status    `json:"status"`
	Severity   models.Severity  `json:"severity"`
	ActorID    string           `json:"actor_id"`
	ActorRole  models.Role      `json:"actor_role"`
	Timestamp  time.Time        `json:"timestamp"`
	Incident   *models.Incident `json:"incident,omitempty"`
}

// NewWebhookEvent строит вебхук из события изменения инцидента
func NewWebhookEvent(event models.IncidentEvent) WebhookEvent {
	out := WebhookEvent{
		Event:      event.Kind,
		IncidentID: event.IncidentID,
		ActorID:    event.ActorID,
		ActorRole:  event.ActorRole,
		Timestamp:  event.At,
		Incident:   event.Incident,
	}
	if event.Incident != nil {
		out.City = event.Incident.City
		out.Status = event.Incident.Status
		out.Severity = event.Incident.Severity
	}
	return out
}

// WebhookPublisher - интерфейс для публикации вебхуков
type WebhookPublisher interface {
	Publish(ctx context.Context, event WebhookEvent) error
}

// RedisWebhookPublisher - реализация WebhookPublisher, использующая Redis
type RedisWebhookPublisher struct {
	redisClient *redis.Client
}

// NewRedisWebhookPublisher создает новый RedisWebhookPublisher
func NewRedisWebhookPublisher(client *redis.Client) *RedisWebhookPublisher {
	return &RedisWebhookPublisher{
		redisClient: client,
	}
}

// Publish публикует событие вебхука в очередь Redis
func (p *RedisWebhookPublisher) Publish(ctx context.Context, event WebhookEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal webhook event: %w", err)
	}

	// LPUSH в левую часть списка, воркер забирает справа
	if err := p.redisClient.LPush(ctx, webhookQueueKey, payload).Err(); err != nil {
		return fmt.Errorf("failed to publish webhook event to Redis: %w", err)
	}
	return nil
}
