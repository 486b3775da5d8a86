package get_timeline

import (
	"context"

	"github.com/m04kA/SMC-BookingEngine/internal/domain"
	"github.com/m04kA/SMC-BookingEngine/internal/service/transitions/models"
)

type TimelineReader interface {
	Timeline(ctx context.Context, entityType domain.EntityType, id int64, actor domain.Actor) (*models.TimelineResponse, error)
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
