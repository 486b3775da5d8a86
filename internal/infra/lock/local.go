package lock

import (
	"context"
	"fmt"
	"sync"
	"time"
)

type localSlot struct {
	sem  chan struct{}
	refs int
}

// Local блокировки в пределах процесса. Подходит только для одного инстанса сервиса
type Local struct {
	wait time.Duration

	mu    sync.Mutex
	slots map[string]*localSlot
}

func NewLocal(wait time.Duration) *Local {
	return &Local{wait: wait, slots: make(map[string]*localSlot)}
}

func (l *Local) Acquire(ctx context.Context, key string) (Release, error) {
	slot := l.ref(key)

	timer := time.NewTimer(l.wait)
	defer timer.Stop()

	select {
	case slot.sem <- struct{}{}:
		var once sync.Once
		return func(context.Context) error {
			once.Do(func() {
				<-slot.sem
				l.unref(key)
			})
			return nil
		}, nil
	case <-timer.C:
		l.unref(key)
		return nil, fmt.Errorf("%w: key=%s after %s", ErrTimeout, key, l.wait)
	case <-ctx.Done():
		l.unref(key)
		return nil, ctx.Err()
	}
}

func (l *Local) ref(key string) *localSlot {
	l.mu.Lock()
	defer l.mu.Unlock()

	slot, ok := l.slots[key]
	if !ok {
		slot = &localSlot{sem: make(chan struct{}, 1)}
		l.slots[key] = slot
	}
	slot.refs++
	return slot
}

func (l *Local) unref(key string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	slot, ok := l.slots[key]
	if !ok {
		return
	}
	slot.refs--
	if slot.refs == 0 {
		delete(l.slots, key)
	}
}

// size количество ключей с ожидающими или владеющими горутинами
func (l *Local) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.slots)
}
