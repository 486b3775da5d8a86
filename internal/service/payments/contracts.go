package payments

import (
	"context"

	"github.com/m04kA/SMC-BookingEngine/internal/domain"
	"github.com/m04kA/SMC-BookingEngine/internal/infra/storage/shop"
)

// OrderRepository интерфейс ledger заказов
type OrderRepository interface {
	GetByID(ctx context.Context, id int64) (*domain.Order, error)
	UpdatePaymentIfStatus(ctx context.Context, o *domain.Order, expected domain.PaymentStatus) error
	CountDelivered(ctx context.Context, customerID, shopID int64) (int, error)
}

// ShopRepository настройки магазина и белый список оплаты позже
type ShopRepository interface {
	GetSettings(ctx context.Context, shopID int64) (*shop.Settings, error)
	IsPayLaterWhitelisted(ctx context.Context, shopID, customerID int64) (bool, error)
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
