package create_order

import (
	"context"

	"github.com/m04kA/SMC-BookingEngine/internal/domain"
	createOrder "github.com/m04kA/SMC-BookingEngine/internal/usecase/create_order"
)

type CreateOrderUseCase interface {
	Execute(ctx context.Context, req *createOrder.Request) (*domain.Order, error)
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
