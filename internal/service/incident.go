package service

//go:generate mockgen -source=incident.go -destination=mocks/mock_incident.go -package=mocks

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/Manthan2028/resqnet/internal/config"
	"github.com/Manthan2028/resqnet/internal/feed"
	"github.com/Manthan2028/resqnet/internal/lifecycle"
	"github.com/Manthan2028/resqnet/internal/models"
	"github.com/Manthan2028/resqnet/internal/webhook"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// IncidentRepository определяет контракт для работы с хранилищем инцидентов
type IncidentRepository interface {
	// Create сохраняет новый инцидент. Хранилище присваивает ID, CreatedAt и Revision.
	Create(ctx context.Context, incident *models.Incident) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Incident, error)
	Query(ctx context.Context, filter models.IncidentFilter) ([]*models.Incident, error)
	// ApplyChange записывает изменение, только если ревизия инцидента равна revision
	ApplyChange(ctx context.Context, id uuid.UUID, revision int64, change models.IncidentChange) (*models.Incident, error)
	GetIncidentFromCache(ctx context.Context, id uuid.UUID) (*models.Incident, error)
	SetIncidentCache(ctx context.Context, incident *models.Incident) error
	InvalidateIncidentCache(ctx context.Context, id uuid.UUID) error
}

// EventPublisher рассылает уведомления об изменениях инцидентов подписчикам ленты
type EventPublisher interface {
	Publish(ctx context.Context, event models.IncidentEvent) error
}

// MediaStore сохраняет бинарные данные по ключу и возвращает публичный URL
type MediaStore interface {
	Upload(ctx context.Context, key string, body io.Reader) (string, error)
}

// IncidentService определяет контракт бизнес-логики жизненного цикла инцидентов.
// Каждый метод записи получает участника явно и проверяет его роль.
type IncidentService interface {
	ReportIncident(ctx context.Context, actor models.Profile, input models.ReportInput) (*models.Incident, error)
	AcceptIncident(ctx context.Context, actor models.Profile, id uuid.UUID) (*models.Incident, error)
	SubmitUpdate(ctx context.Context, actor models.Profile, id uuid.UUID, input models.UpdateInput) (*models.Incident, error)
	SetStatus(ctx context.Context, actor models.Profile, id uuid.UUID, status models.Status) (*models.Incident, error)
	ReopenIncident(ctx context.Context, actor models.Profile, id uuid.UUID, reason string) (*models.Incident, error)
	AssignResponder(ctx context.Context, actor models.Profile, id uuid.UUID, responderID string) (*models.Incident, error)
	GetIncident(ctx context.Context, id uuid.UUID) (*models.Incident, error)
	ListIncidents(ctx context.Context, filter models.IncidentFilter) ([]*models.Incident, error)
}

type incidentService struct {
	repo     IncidentRepository
	profiles ProfileRepository
	media    MediaStore
	events   EventPublisher
	webhooks webhook.WebhookPublisher
	logger   *logrus.Logger
	cfg      *config.Config
	policy   WritePolicy
	validate *validator.Validate
	now      func() time.Time
}

func NewIncidentService(
	repo IncidentRepository,
	profiles ProfileRepository,
	media MediaStore,
	events EventPublisher,
	webhooks webhook.WebhookPublisher,
	logger *logrus.Logger,
	cfg *config.Config,
) IncidentService {
	return &incidentService{
		repo:     repo,
		profiles: profiles,
		media:    media,
		events:   events,
		webhooks: webhooks,
		logger:   logger,
		cfg:      cfg,
		policy:   NewWritePolicy(cfg),
		validate: validator.New(),
		now:      time.Now,
	}
}

// ReportIncident создает инцидент из сообщения гражданина
func (s *incidentService) ReportIncident(ctx context.Context, actor models.Profile, input models.ReportInput) (*models.Incident, error) {
	log := s.logger.WithFields(logrus.Fields{
		"service":  "incident",
		"method":   "ReportIncident",
		"reporter": actor.ID,
		"city":     actor.City,
	})
	log.Info("Attempting to report a new incident")

	if actor.Role != models.RoleCitizen {
		log.Warn("Only citizens can report incidents")
		return nil, fmt.Errorf("%w: role %q cannot report incidents", models.ErrForbidden, actor.Role)
	}
	if err := s.validate.Struct(input); err != nil {
		log.WithError(err).Warn("Report validation failed")
		return nil, fmt.Errorf("%w: %v", models.ErrValidation, err)
	}
	if strings.TrimSpace(input.Description) == "" {
		log.Warn("Report description is blank")
		return nil, fmt.Errorf("%w: description is required", models.ErrValidation)
	}

	// Ошибка загрузки изображения не должна блокировать сообщение о происшествии
	imageURL := s.uploadImage(ctx, log, "incidents", input.Image)

	incident := &models.Incident{
		ReportedBy:     actor.ID,
		ReportedByName: actor.Name,
		ReportedByRole: actor.Role,
		City:           actor.City,
		Type:           input.Type,
		Severity:       input.Severity,
		Location:       *input.Location,
		Description:    input.Description,
		ImageURL:       imageURL,
		Status:         models.StatusPending,
		Updates:        []models.IncidentUpdate{},
	}

	err := s.policy.Do(ctx, func(ctx context.Context) error {
		return s.repo.Create(ctx, incident)
	})
	if err != nil {
		log.WithError(err).Error("Failed to create incident in repository")
		return nil, fmt.Errorf("service: could not create incident: %w", err)
	}

	log.WithField("incident_id", incident.ID).Info("Incident reported successfully")
	s.publish(ctx, log, models.EventCreated, actor, incident)
	return feed.Normalize(incident), nil
}

// AcceptIncident закрепляет инцидент за волонтером
func (s *incidentService) AcceptIncident(ctx context.Context, actor models.Profile, id uuid.UUID) (*models.Incident, error) {
	log := s.logger.WithFields(logrus.Fields{
		"service":     "incident",
		"method":      "AcceptIncident",
		"incident_id": id,
		"actor":       actor.ID,
	})
	log.Info("Attempting to accept incident")

	incident, err := s.mutate(ctx, log, actor, id, models.EventAccepted, func(current *models.Incident) (models.IncidentChange, error) {
		return lifecycle.Accept(current, actor)
	})
	if err != nil {
		return nil, fmt.Errorf("service: could not accept incident: %w", err)
	}
	return incident, nil
}

// SubmitUpdate добавляет запись в журнал и меняет статус одной записью
func (s *incidentService) SubmitUpdate(ctx context.Context, actor models.Profile, id uuid.UUID, input models.UpdateInput) (*models.Incident, error) {
	log := s.logger.WithFields(logrus.Fields{
		"service":     "incident",
		"method":      "SubmitUpdate",
		"incident_id": id,
		"actor":       actor.ID,
		"status":      input.Status,
	})
	log.Info("Attempting to submit incident update")

	incident, err := s.mutate(ctx, log, actor, id, models.EventUpdated, func(current *models.Incident) (models.IncidentChange, error) {
		entry := lifecycle.Entry{
			ID:      uuid.NewString(),
			At:      s.now(),
			Message: input.Message,
			Status:  input.Status,
		}
		// Проверяем переход до загрузки, чтобы не сохранять файлы отклоненных обновлений
		if _, err := lifecycle.SubmitUpdate(current, actor, entry); err != nil {
			return models.IncidentChange{}, err
		}
		entry.ImageURL = s.uploadImage(ctx, log, "updates", input.Image)
		return lifecycle.SubmitUpdate(current, actor, entry)
	})
	if err != nil {
		return nil, fmt.Errorf("service: could not submit update: %w", err)
	}
	return incident, nil
}

// SetStatus перезаписывает статус от имени ведомства
func (s *incidentService) SetStatus(ctx context.Context, actor models.Profile, id uuid.UUID, status models.Status) (*models.Incident, error) {
	log := s.logger.WithFields(logrus.Fields{
		"service":     "incident",
		"method":      "SetStatus",
		"incident_id": id,
		"actor":       actor.ID,
		"status":      status,
	})
	log.Info("Attempting to set incident status")

	incident, err := s.mutate(ctx, log, actor, id, models.EventStatusChanged, func(current *models.Incident) (models.IncidentChange, error) {
		return lifecycle.SetStatus(current, actor, status)
	})
	if err != nil {
		return nil, fmt.Errorf("service: could not set status: %w", err)
	}
	return incident, nil
}

// ReopenIncident возвращает решенный инцидент в работу с записью в журнале
func (s *incidentService) ReopenIncident(ctx context.Context, actor models.Profile, id uuid.UUID, reason string) (*models.Incident, error) {
	log := s.logger.WithFields(logrus.Fields{
		"service":     "incident",
		"method":      "ReopenIncident",
		"incident_id": id,
		"actor":       actor.ID,
	})
	log.Info("Attempting to reopen incident")

	incident, err := s.mutate(ctx, log, actor, id, models.EventReopened, func(current *models.Incident) (models.IncidentChange, error) {
		return lifecycle.Reopen(current, actor, lifecycle.Entry{
			ID:      uuid.NewString(),
			At:      s.now(),
			Message: reason,
		})
	})
	if err != nil {
		return nil, fmt.Errorf("service: could not reopen incident: %w", err)
	}
	return incident, nil
}

// AssignResponder назначает волонтера от имени ведомства
func (s *incidentService) AssignResponder(ctx context.Context, actor models.Profile, id uuid.UUID, responderID string) (*models.Incident, error) {
	log := s.logger.WithFields(logrus.Fields{
		"service":      "incident",
		"method":       "AssignResponder",
		"incident_id":  id,
		"actor":        actor.ID,
		"responder_id": responderID,
	})
	log.Info("Attempting to assign responder")

	responder, err := s.profiles.GetByID(ctx, responderID)
	if err != nil {
		log.WithError(err).Warn("Responder lookup failed")
		return nil, fmt.Errorf("service: could not assign responder: %w", err)
	}

	incident, err := s.mutate(ctx, log, actor, id, models.EventAssigned, func(current *models.Incident) (models.IncidentChange, error) {
		return lifecycle.Assign(current, actor, responder)
	})
	if err != nil {
		return nil, fmt.Errorf("service: could not assign responder: %w", err)
	}
	return incident, nil
}

// GetIncident получает инцидент по ID, сначала из кеша
func (s *incidentService) GetIncident(ctx context.Context, id uuid.UUID) (*models.Incident, error) {
	log := s.logger.WithFields(logrus.Fields{
		"service":     "incident",
		"method":      "GetIncident",
		"incident_id": id,
	})
	log.Info("Fetching incident by ID")

	cached, err := s.repo.GetIncidentFromCache(ctx, id)
	if err != nil {
		log.WithError(err).Warn("Failed to read incident cache")
	}
	if cached != nil {
		log.Debug("Incident served from cache")
		return feed.Normalize(cached), nil
	}

	incident, err := s.repo.GetByID(ctx, id)
	if err != nil {
		log.WithError(err).Warn("Failed to get incident in repository")
		return nil, fmt.Errorf("service: could not get incident: %w", err)
	}

	if err := s.repo.SetIncidentCache(ctx, incident); err != nil {
		log.WithError(err).Warn("Failed to cache incident")
	}

	log.Info("Incident fetched successfully")
	return feed.Normalize(incident), nil
}

// ListIncidents возвращает разовую выборку в порядке от новых к старым
func (s *incidentService) ListIncidents(ctx context.Context, filter models.IncidentFilter) ([]*models.Incident, error) {
	log := s.logger.WithFields(logrus.Fields{
		"service": "incident",
		"method":  "ListIncidents",
		"city":    filter.City,
	})
	log.Info("Listing incidents")

	incidents, err := s.repo.Query(ctx, filter)
	if err != nil {
		log.WithError(err).Error("Failed to list incidents from repository")
		return nil, fmt.Errorf("service: could not list incidents: %w", err)
	}

	log.WithField("count", len(incidents)).Info("Incidents listed successfully")
	return feed.Project(incidents), nil
}

// mutate читает инцидент, применяет правило перехода и записывает результат по ревизии
func (s *incidentService) mutate(
	ctx context.Context,
	log *logrus.Entry,
	actor models.Profile,
	id uuid.UUID,
	kind models.EventKind,
	decide func(current *models.Incident) (models.IncidentChange, error),
) (*models.Incident, error) {
	current, err := s.repo.GetByID(ctx, id)
	if err != nil {
		log.WithError(err).Warn("Attempted to change a non-existent incident")
		return nil, err
	}

	change, err := decide(current)
	if err != nil {
		log.WithError(err).Warn("Transition rejected")
		return nil, err
	}

	var updated *models.Incident
	err = s.policy.Do(ctx, func(ctx context.Context) error {
		var err error
		updated, err = s.repo.ApplyChange(ctx, id, current.Revision, change)
		return err
	})
	if err != nil {
		log.WithError(err).Error("Failed to apply incident change in repository")
		return nil, err
	}

	if err := s.repo.InvalidateIncidentCache(ctx, id); err != nil {
		log.WithError(err).Warn("Failed to invalidate incident cache")
	}

	log.WithField("revision", updated.Revision).Info("Incident changed successfully")
	s.publish(ctx, log, kind, actor, updated)
	return feed.Normalize(updated), nil
}

// publish уведомляет ленты и вебхуки. Запись уже выполнена, поэтому ошибки только логируются.
func (s *incidentService) publish(ctx context.Context, log *logrus.Entry, kind models.EventKind, actor models.Profile, incident *models.Incident) {
	event := models.IncidentEvent{
		Kind:       kind,
		IncidentID: incident.ID,
		Incident:   incident.Clone(),
		ActorID:    actor.ID,
		ActorRole:  actor.Role,
		At:         s.now().UTC(),
	}

	if s.events != nil {
		if err := s.events.Publish(ctx, event); err != nil {
			log.WithError(err).Warn("Failed to publish incident event")
		}
	}
	if s.webhooks != nil {
		if err := s.webhooks.Publish(ctx, webhook.NewWebhookEvent(event)); err != nil {
			log.WithError(err).Warn("Failed to enqueue incident webhook")
		}
	}
}

// uploadImage загружает вложение. При ошибке возвращает nil: запись продолжается без изображения.
func (s *incidentService) uploadImage(ctx context.Context, log *logrus.Entry, prefix string, upload *models.Upload) *string {
	if upload == nil || upload.Body == nil || s.media == nil {
		return nil
	}

	name := path.Base(upload.Name)
	if name == "." || name == "/" {
		name = "image"
	}
	key := fmt.Sprintf("%s/%d_%s", prefix, s.now().UnixMilli(), name)
	url, err := s.media.Upload(ctx, key, upload.Body)
	if err != nil {
		log.WithError(err).WithField("key", key).Warn("Image upload failed, continuing without image")
		return nil
	}
	return &url
}
