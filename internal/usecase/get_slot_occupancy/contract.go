package get_slot_occupancy

import (
	"context"
	"time"

	"github.com/m04kA/SMC-BookingEngine/internal/domain"
)

// OccupancyReader чтение занятости слотов (кэш, затем ledger)
type OccupancyReader interface {
	OccupancyForDate(ctx context.Context, serviceID int64, date time.Time, labels []string) ([]domain.SlotOccupancy, error)
}

// ConfigRepository интерфейс репозитория конфигурации слотов
type ConfigRepository interface {
	GetByServiceID(ctx context.Context, serviceID int64) (*domain.ServiceSlotConfig, error)
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
