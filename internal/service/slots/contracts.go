package slots

import (
	"context"
	"time"

	"github.com/m04kA/SMC-BookingEngine/internal/domain"
	"github.com/m04kA/SMC-BookingEngine/internal/infra/lock"
)

// ReservationRepository интерфейс ledger бронирований
type ReservationRepository interface {
	Create(ctx context.Context, res *domain.Reservation) (*domain.Reservation, error)
	CountActiveInSlot(ctx context.Context, slot domain.SlotKey) (int, error)
}

// WaitlistRepository интерфейс листа ожидания
type WaitlistRepository interface {
	Add(ctx context.Context, entry *domain.WaitlistEntry) (*domain.WaitlistEntry, error)
	Head(ctx context.Context, slot domain.SlotKey) (*domain.WaitlistEntry, error)
	ListBySlot(ctx context.Context, slot domain.SlotKey) ([]*domain.WaitlistEntry, error)
	Remove(ctx context.Context, id int64) error
}

// SlotConfigRepository интерфейс конфигурации слотов
type SlotConfigRepository interface {
	GetByServiceID(ctx context.Context, serviceID int64) (*domain.ServiceSlotConfig, error)
}

// HistoryRepository интерфейс таймлайна
type HistoryRepository interface {
	Append(ctx context.Context, entry *domain.StatusHistory) error
}

// Locker блокировка слота
type Locker interface {
	Acquire(ctx context.Context, key string) (lock.Release, error)
}

// Cache кэш занятости слотов
type Cache interface {
	GetJSON(ctx context.Context, key string, dest interface{}) bool
	SetJSON(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Invalidate(ctx context.Context, keyOrPattern string) error
}

// Publisher отправка событий о переходах
type Publisher interface {
	Publish(ctx context.Context, entityType domain.EntityType, entityID int64, oldState, newState string, role domain.ActorRole)
}

// TransactionManager интерфейс для управления транзакциями
type TransactionManager interface {
	Do(ctx context.Context, fn func(ctx context.Context) error) error
}

// Metrics счетчик попыток бронирования
type Metrics interface {
	IncReservationAttempt(result string)
}

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
