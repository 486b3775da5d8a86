package join_waitlist

import (
	"context"

	"github.com/m04kA/SMC-BookingEngine/internal/service/slots/models"
)

type WaitlistService interface {
	JoinWaitlist(ctx context.Context, req models.WaitlistRequest) (*models.WaitlistResponse, error)
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
