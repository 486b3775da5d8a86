package get_waitlist_position

import (
	"context"

	"github.com/m04kA/SMC-BookingEngine/internal/domain"
)

type WaitlistReader interface {
	WaitlistPosition(ctx context.Context, customerID int64, slot domain.SlotKey) (int, error)
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
