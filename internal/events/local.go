// Package events доставляет уведомления об изменениях инцидентов от сервиса к лентам.
// LocalBus работает внутри процесса, RedisBus - через Redis Pub/Sub между репликами.
package events

import (
	"context"
	"errors"
	"sync"

	"github.com/Manthan2028/resqnet/internal/models"
)

var ErrBusClosed = errors.New("events: bus is closed")

const defaultBuffer = 256

// LocalBus - шина в памяти процесса. Подписчик, не успевающий читать, отключается
// закрытием канала: лента переподключится и перечитает выборки.
type LocalBus struct {
	mu     sync.Mutex
	subs   map[chan models.IncidentEvent]struct{}
	buffer int
	closed bool
	done   chan struct{}
}

func NewLocalBus() *LocalBus {
	return &LocalBus{
		subs:   make(map[chan models.IncidentEvent]struct{}),
		buffer: defaultBuffer,
		done:   make(chan struct{}),
	}
}

func (b *LocalBus) Publish(_ context.Context, event models.IncidentEvent) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return ErrBusClosed
	}
	for ch := range b.subs {
		select {
		case ch <- event:
		default:
			delete(b.subs, ch)
			close(ch)
		}
	}
	return nil
}

// Subscribe возвращает канал событий, который закрывается при отмене ctx
func (b *LocalBus) Subscribe(ctx context.Context) (<-chan models.IncidentEvent, error) {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil, ErrBusClosed
	}
	ch := make(chan models.IncidentEvent, b.buffer)
	b.subs[ch] = struct{}{}
	b.mu.Unlock()

	go func() {
		select {
		case <-ctx.Done():
			b.drop(ch)
		case <-b.done:
		}
	}()
	return ch, nil
}

// Close отключает всех подписчиков
func (b *LocalBus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	close(b.done)
	for ch := range b.subs {
		delete(b.subs, ch)
		close(ch)
	}
}

func (b *LocalBus) drop(ch chan models.IncidentEvent) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.subs[ch]; ok {
		delete(b.subs, ch)
		close(ch)
	}
}
