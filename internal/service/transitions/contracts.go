package transitions

import (
	"context"
	"time"

	"github.com/m04kA/SMC-BookingEngine/internal/domain"
	"github.com/m04kA/SMC-BookingEngine/internal/infra/storage/shop"
	"github.com/m04kA/SMC-BookingEngine/internal/service/proximity"
)

// ReservationRepository интерфейс ledger бронирований
type ReservationRepository interface {
	GetByID(ctx context.Context, id int64) (*domain.Reservation, error)
	UpdateIfStatus(ctx context.Context, res *domain.Reservation, expected domain.ReservationStatus) error
	ExpireIfDue(ctx context.Context, id int64, expected domain.ReservationStatus, now time.Time, reason string) (bool, error)
}

// OrderRepository интерфейс ledger заказов
type OrderRepository interface {
	GetByID(ctx context.Context, id int64) (*domain.Order, error)
	UpdateIfStatus(ctx context.Context, o *domain.Order, expected domain.OrderStatus) error
	ExpireIfDue(ctx context.Context, id int64, expected domain.OrderStatus, now time.Time, reason string) (bool, error)
}

// HistoryRepository интерфейс таймлайна
type HistoryRepository interface {
	Append(ctx context.Context, entry *domain.StatusHistory) error
	ListByEntity(ctx context.Context, entityType domain.EntityType, entityID int64) ([]*domain.StatusHistory, error)
}

// ShopRepository настройки магазина (владелец)
type ShopRepository interface {
	GetSettings(ctx context.Context, shopID int64) (*shop.Settings, error)
}

// SlotReleaser освобождение места в слоте с продвижением листа ожидания
type SlotReleaser interface {
	Release(ctx context.Context, slot domain.SlotKey)
}

// Cache инвалидация кэша занятости и расписаний
type Cache interface {
	Invalidate(ctx context.Context, keyOrPattern string) error
}

// Publisher отправка событий о переходах
type Publisher interface {
	Publish(ctx context.Context, entityType domain.EntityType, entityID int64, oldState, newState string, role domain.ActorRole)
}

// TransactionManager интерфейс для управления транзакциями
type TransactionManager interface {
	Do(ctx context.Context, fn func(ctx context.Context) error) error
	DoReadOnly(ctx context.Context, fn func(ctx context.Context) error) error
}

// ProximityAdvisor подсказка исполнителю о близких бронированиях того же дня
type ProximityAdvisor interface {
	Advise(ctx context.Context, providerID int64, candidate *domain.Reservation) (*proximity.Advisory, error)
}

// Metrics счетчик переходов
type Metrics interface {
	IncTransition(entity, from, to string)
}

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
