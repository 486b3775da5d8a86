package choose_payment_method

import (
	"context"

	"github.com/m04kA/SMC-BookingEngine/internal/domain"
	"github.com/m04kA/SMC-BookingEngine/internal/service/transitions/models"
)

type PaymentService interface {
	ChooseMethod(ctx context.Context, orderID int64, actor domain.Actor, method domain.PaymentMethod) (*models.OrderResponse, error)
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
