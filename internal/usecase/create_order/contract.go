package create_order

import (
	"context"
	"time"

	"github.com/m04kA/SMC-BookingEngine/internal/domain"
	"github.com/m04kA/SMC-BookingEngine/internal/infra/storage/shop"
)

// OrderRepository интерфейс ledger заказов
type OrderRepository interface {
	Create(ctx context.Context, o *domain.Order) (*domain.Order, error)
}

// ShopRepository настройки магазина
type ShopRepository interface {
	GetSettings(ctx context.Context, shopID int64) (*shop.Settings, error)
}

// HistoryRepository интерфейс таймлайна
type HistoryRepository interface {
	Append(ctx context.Context, entry *domain.StatusHistory) error
}

// Publisher отправка событий о переходах
type Publisher interface {
	Publish(ctx context.Context, entityType domain.EntityType, entityID int64, oldState, newState string, role domain.ActorRole)
}

// TransactionManager интерфейс для управления транзакциями
type TransactionManager interface {
	Do(ctx context.Context, fn func(ctx context.Context) error) error
}

// TimeProvider интерфейс для получения текущего времени (для тестирования)
type TimeProvider interface {
	Now() time.Time
}

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}

// RealTimeProvider реальный провайдер времени для production
type RealTimeProvider struct{}

// Now возвращает текущее время
func (p *RealTimeProvider) Now() time.Time {
	return time.Now()
}
