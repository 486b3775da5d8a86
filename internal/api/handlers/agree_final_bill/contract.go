package agree_final_bill

import (
	"context"

	"github.com/m04kA/SMC-BookingEngine/internal/domain"
	"github.com/m04kA/SMC-BookingEngine/internal/service/transitions/models"
)

type TransitionEngine interface {
	ApplyOrder(ctx context.Context, id int64, actor domain.Actor, cmd domain.OrderCommand) (*models.OrderResponse, error)
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
