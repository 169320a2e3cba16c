// Package feed - слой синхронизации: живые подписки на выборки инцидентов.
// На каждое изменение подписчик получает полный упорядоченный снимок выборки, а не дифф.
package feed

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/Manthan2028/resqnet/internal/models"
	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

var ErrHubClosed = errors.New("feed: hub is closed")

// Reader - источник выборок инцидентов
type Reader interface {
	Query(ctx context.Context, filter models.IncidentFilter) ([]*models.Incident, error)
}

// Source - поток уведомлений об изменениях. Закрытие канала означает разрыв соединения.
type Source interface {
	Subscribe(ctx context.Context) (<-chan models.IncidentEvent, error)
}

// Snapshot - полный результат выборки на момент At
type Snapshot struct {
	Seq       uint64
	Filter    models.IncidentFilter
	Incidents []*models.Incident
	At        time.Time
}

// Option настраивает Hub
type Option func(*Hub)

// WithBackOff задает политику переподключения к источнику изменений
func WithBackOff(newBackOff func() backoff.BackOff) Option {
	return func(h *Hub) { h.newBackOff = newBackOff }
}

// WithQueryTimeout ограничивает время одного запроса выборки
func WithQueryTimeout(d time.Duration) Option {
	return func(h *Hub) { h.queryTimeout = d }
}

type Hub struct {
	reader       Reader
	logger       *logrus.Logger
	queryTimeout time.Duration
	newBackOff   func() backoff.BackOff

	mu     sync.Mutex
	subs   map[uint64]*Subscription
	nextID uint64
	closed bool
}

func NewHub(reader Reader, logger *logrus.Logger, opts ...Option) *Hub {
	h := &Hub{
		reader: reader,
		logger: logger,
		subs:   make(map[uint64]*Subscription),
		newBackOff: func() backoff.BackOff {
			b := backoff.NewExponentialBackOff()
			b.InitialInterval = 500 * time.Millisecond
			b.MaxInterval = 30 * time.Second
			b.MaxElapsedTime = 0
			return b
		},
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Subscribe регистрирует подписку и сразу доставляет начальный снимок.
// Подписка закрывается вызовом Close или отменой ctx.
func (h *Hub) Subscribe(ctx context.Context, filter models.IncidentFilter) (*Subscription, error) {
	s := &Subscription{
		filter: filter,
		hub:    h,
		ch:     make(chan Snapshot, 1),
		done:   make(chan struct{}),
		known:  make(map[uuid.UUID]struct{}),
	}

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return nil, ErrHubClosed
	}
	h.nextID++
	s.id = h.nextID
	h.subs[s.id] = s
	h.mu.Unlock()

	// Подписка зарегистрирована до начального запроса, поэтому изменения между ними не теряются
	if err := s.refresh(ctx); err != nil {
		s.Close()
		return nil, fmt.Errorf("feed: initial snapshot: %w", err)
	}

	go s.watch(ctx)
	return s, nil
}

// Run читает поток изменений до отмены ctx. Разорванный поток восстанавливается
// с экспоненциальной задержкой, после чего все подписки перечитываются.
func (h *Hub) Run(ctx context.Context, src Source) error {
	log := h.logger.WithField("component", "feed")
	b := h.newBackOff()

	for {
		events, err := src.Subscribe(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			wait := b.NextBackOff()
			if wait == backoff.Stop {
				return fmt.Errorf("feed: change source unavailable: %w", err)
			}
			log.WithError(err).Warnf("Change feed unavailable, retrying in %v", wait)
			if !sleep(ctx, wait) {
				return ctx.Err()
			}
			continue
		}

		b.Reset()
		log.Info("Change feed established")
		h.RefreshAll(ctx)
		h.consume(ctx, events)

		if ctx.Err() != nil {
			return ctx.Err()
		}
		log.Warn("Change feed dropped, re-establishing")
	}
}

// RefreshAll перечитывает все подписки
func (h *Hub) RefreshAll(ctx context.Context) {
	for _, s := range h.subscriptions() {
		if err := s.refresh(ctx); err != nil {
			h.logger.WithError(err).WithField("subscription", s.id).Warn("Failed to refresh subscription")
		}
	}
}

// Dispatch перечитывает подписки, на которые может повлиять событие:
// новое состояние попадает в фильтр или инцидент есть в последнем снимке.
func (h *Hub) Dispatch(ctx context.Context, event models.IncidentEvent) {
	for _, s := range h.subscriptions() {
		if event.Incident != nil && !s.filter.Matches(event.Incident) && !s.contains(event.IncidentID) {
			continue
		}
		if err := s.refresh(ctx); err != nil {
			h.logger.WithError(err).WithFields(logrus.Fields{
				"subscription": s.id,
				"incident_id":  event.IncidentID,
			}).Warn("Failed to refresh subscription")
		}
	}
}

// Len возвращает число активных подписок
func (h *Hub) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}

// Close закрывает все подписки и запрещает новые
func (h *Hub) Close() {
	h.mu.Lock()
	h.closed = true
	h.mu.Unlock()

	for _, s := range h.subscriptions() {
		s.Close()
	}
}

func (h *Hub) consume(ctx context.Context, events <-chan models.IncidentEvent) {
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-events:
			if !ok {
				return
			}
			h.Dispatch(ctx, event)
		}
	}
}

func (h *Hub) subscriptions() []*Subscription {
	h.mu.Lock()
	defer h.mu.Unlock()
	subs := make([]*Subscription, 0, len(h.subs))
	for _, s := range h.subs {
		subs = append(subs, s)
	}
	return subs
}

func (h *Hub) remove(id uint64) {
	h.mu.Lock()
	delete(h.subs, id)
	h.mu.Unlock()
}

// Subscription - живая выборка. Снимки доставляются по порядку; если потребитель
// отстает, в канале остается только самый свежий снимок.
type Subscription struct {
	id     uint64
	filter models.IncidentFilter
	hub    *Hub
	ch     chan Snapshot
	done   chan struct{}
	once   sync.Once

	// refreshMu упорядочивает пары "запрос + доставка"
	refreshMu sync.Mutex

	mu     sync.Mutex
	closed bool
	seq    uint64
	known  map[uuid.UUID]struct{}
}

// Snapshots возвращает канал снимков. Канал закрывается при закрытии подписки.
func (s *Subscription) Snapshots() <-chan Snapshot {
	return s.ch
}

// Done закрывается вместе с подпиской
func (s *Subscription) Done() <-chan struct{} {
	return s.done
}

func (s *Subscription) Filter() models.IncidentFilter {
	return s.filter
}

// Close прекращает доставку и освобождает подписку. Повторный вызов безопасен.
func (s *Subscription) Close() {
	s.once.Do(func() {
		s.hub.remove(s.id)
		s.mu.Lock()
		s.closed = true
		close(s.ch)
		s.mu.Unlock()
		close(s.done)
	})
}

func (s *Subscription) watch(ctx context.Context) {
	select {
	case <-ctx.Done():
		s.Close()
	case <-s.done:
	}
}

func (s *Subscription) refresh(ctx context.Context) error {
	s.refreshMu.Lock()
	defer s.refreshMu.Unlock()

	if s.isClosed() {
		return nil
	}

	qctx := ctx
	if s.hub.queryTimeout > 0 {
		var cancel context.CancelFunc
		qctx, cancel = context.WithTimeout(ctx, s.hub.queryTimeout)
		defer cancel()
	}

	incidents, err := s.hub.reader.Query(qctx, s.filter)
	if err != nil {
		return err
	}

	// Повторная проверка фильтра: в снимок не попадает ничего вне выборки
	matched := make([]*models.Incident, 0, len(incidents))
	for _, inc := range incidents {
		if s.filter.Matches(inc) {
			matched = append(matched, inc)
		}
	}

	s.offer(Snapshot{
		Filter:    s.filter,
		Incidents: Project(matched),
		At:        time.Now().UTC(),
	})
	return nil
}

func (s *Subscription) offer(snap Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}

	s.seq++
	snap.Seq = s.seq
	s.known = make(map[uuid.UUID]struct{}, len(snap.Incidents))
	for _, inc := range snap.Incidents {
		s.known[inc.ID] = struct{}{}
	}

	// Вытесняем непрочитанный устаревший снимок
	select {
	case <-s.ch:
	default:
	}
	s.ch <- snap
}

func (s *Subscription) contains(id uuid.UUID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.known[id]
	return ok
}

func (s *Subscription) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
