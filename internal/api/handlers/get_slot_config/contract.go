package get_slot_config

import (
	"context"

	"github.com/m04kA/SMC-BookingEngine/internal/service/slotconfig/models"
)

type SlotConfigService interface {
	Get(ctx context.Context, serviceID int64) (*models.ConfigResponse, error)
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
