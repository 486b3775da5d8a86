package memledger

import (
	"context"
	"sync"
	"time"

	"github.com/m04kA/SMC-BookingEngine/internal/domain"
)

// TxManager выполняет функцию без транзакции: хранилище в памяти не откатывает изменения
type TxManager struct{}

func (TxManager) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

func (TxManager) DoSerializable(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

func (TxManager) DoReadOnly(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

// Dispatcher запоминает отправленные события
type Dispatcher struct {
	mu     sync.Mutex
	events []domain.TransitionEvent
	Err    error
}

func (d *Dispatcher) Emit(_ context.Context, event domain.TransitionEvent) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.events = append(d.events, event)
	return d.Err
}

func (d *Dispatcher) Close() error { return nil }

// Events копия отправленных событий в порядке отправки
func (d *Dispatcher) Events() []domain.TransitionEvent {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]domain.TransitionEvent, len(d.events))
	copy(out, d.events)
	return out
}

// EventsFor события одной сущности
func (d *Dispatcher) EventsFor(entityType domain.EntityType, id int64) []domain.TransitionEvent {
	var out []domain.TransitionEvent
	for _, e := range d.Events() {
		if e.EntityType == entityType && e.EntityID == id {
			out = append(out, e)
		}
	}
	return out
}

// Clock управляемые часы для тестов
type Clock struct {
	mu  sync.Mutex
	now time.Time
}

func NewClock(start time.Time) *Clock {
	return &Clock{now: start}
}

func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *Clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}
