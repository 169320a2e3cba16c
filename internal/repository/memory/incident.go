// Package memory - хранилища в памяти процесса для режима STORE_BACKEND=memory и тестов.
// Семантика совпадает с реализацией на PostgreSQL: условная запись по ревизии,
// журнал только дополняется, выборки упорядочены от новых к старым.
package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/Manthan2028/resqnet/internal/feed"
	"github.com/Manthan2028/resqnet/internal/models"
	"github.com/google/uuid"
)

type IncidentStore struct {
	mu        sync.RWMutex
	incidents map[uuid.UUID]*models.Incident
	now       func() time.Time
}

// Option настраивает хранилище
type Option func(*IncidentStore)

// WithClock подменяет источник времени
func WithClock(now func() time.Time) Option {
	return func(s *IncidentStore) { s.now = now }
}

func NewIncidentStore(opts ...Option) *IncidentStore {
	s := &IncidentStore{
		incidents: make(map[uuid.UUID]*models.Incident),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *IncidentStore) Create(_ context.Context, incident *models.Incident) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now().UTC()
	incident.ID = uuid.New()
	incident.Revision = 1
	incident.CreatedAt = now
	incident.UpdatedAt = now
	if incident.Updates == nil {
		incident.Updates = []models.IncidentUpdate{}
	}
	s.incidents[incident.ID] = incident.Clone()
	return nil
}

func (s *IncidentStore) GetByID(_ context.Context, id uuid.UUID) (*models.Incident, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	incident, ok := s.incidents[id]
	if !ok {
		return nil, fmt.Errorf("%w: incident with id %s", models.ErrNotFound, id)
	}
	return incident.Clone(), nil
}

func (s *IncidentStore) Query(_ context.Context, filter models.IncidentFilter) ([]*models.Incident, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*models.Incident, 0)
	for _, incident := range s.incidents {
		if filter.Matches(incident) {
			out = append(out, incident)
		}
	}
	// Project возвращает копии
	return feed.Project(out), nil
}

func (s *IncidentStore) ApplyChange(_ context.Context, id uuid.UUID, revision int64, change models.IncidentChange) (*models.Incident, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.incidents[id]
	if !ok {
		return nil, fmt.Errorf("%w: incident with id %s not found for update", models.ErrNotFound, id)
	}
	if current.Revision != revision {
		return nil, fmt.Errorf("%w: incident %s changed since revision %d", models.ErrStaleRevision, id, revision)
	}

	updated := change.Apply(current)
	updated.Revision++
	updated.UpdatedAt = s.now().UTC()
	s.incidents[id] = updated
	return updated.Clone(), nil
}

// Кеш не нужен: чтение из памяти дешевле сериализации

func (s *IncidentStore) GetIncidentFromCache(context.Context, uuid.UUID) (*models.Incident, error) {
	return nil, nil
}

func (s *IncidentStore) SetIncidentCache(context.Context, *models.Incident) error {
	return nil
}

func (s *IncidentStore) InvalidateIncidentCache(context.Context, uuid.UUID) error {
	return nil
}
