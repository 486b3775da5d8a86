package slotconfig

import (
	"context"

	"github.com/m04kA/SMC-BookingEngine/internal/domain"
)

// SlotConfigRepository интерфейс репозитория конфигураций слотов
type SlotConfigRepository interface {
	GetByServiceID(ctx context.Context, serviceID int64) (*domain.ServiceSlotConfig, error)
	Upsert(ctx context.Context, config *domain.ServiceSlotConfig) (*domain.ServiceSlotConfig, error)
}

// Cache сброс производных чтений занятости
type Cache interface {
	Invalidate(ctx context.Context, keyOrPattern string) error
}

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
