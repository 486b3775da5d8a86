package create_reservation

import (
	"context"
	"time"

	"github.com/m04kA/SMC-BookingEngine/internal/domain"
	slotModels "github.com/m04kA/SMC-BookingEngine/internal/service/slots/models"
)

// SlotGuard единственная точка создания бронирований
type SlotGuard interface {
	Reserve(ctx context.Context, req slotModels.ReserveRequest) (*domain.Reservation, error)
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
