package get_slot_occupancy

import (
	"context"

	getSlotOccupancy "github.com/m04kA/SMC-BookingEngine/internal/usecase/get_slot_occupancy"
)

type GetSlotOccupancyUseCase interface {
	Execute(ctx context.Context, req *getSlotOccupancy.Request) (*getSlotOccupancy.Response, error)
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
