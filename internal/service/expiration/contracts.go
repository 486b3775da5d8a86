package expiration

import (
	"context"
	"time"

	"github.com/m04kA/SMC-BookingEngine/internal/domain"
)

// ReservationSource выборка просроченных бронирований
type ReservationSource interface {
	ListExpired(ctx context.Context, now time.Time, limit int) ([]*domain.Reservation, error)
}

// OrderSource выборка просроченных заказов
type OrderSource interface {
	ListExpired(ctx context.Context, now time.Time, limit int) ([]*domain.Order, error)
}

// Expirer системный переход в cancelled через движок переходов
type Expirer interface {
	ExpireReservation(ctx context.Context, res *domain.Reservation, now time.Time) (bool, error)
	ExpireOrder(ctx context.Context, o *domain.Order, now time.Time) (bool, error)
}

// Metrics метрики прохода планировщика
type Metrics interface {
	ObserveSweep(duration time.Duration, expiredReservations, expiredOrders, failed int)
}

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
