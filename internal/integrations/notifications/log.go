package notifications

import (
	"context"

	"github.com/m04kA/SMC-BookingEngine/internal/domain"
)

// LogDispatcher пишет события в лог. Используется, когда Kafka выключена
type LogDispatcher struct {
	logger Logger
}

func NewLogDispatcher(logger Logger) *LogDispatcher {
	return &LogDispatcher{logger: logger}
}

func (d *LogDispatcher) Emit(_ context.Context, event domain.TransitionEvent) error {
	d.logger.Info("Notification: %s id=%d %q -> %q by %s (event=%s)",
		event.EntityType, event.EntityID, event.OldState, event.NewState, event.ActorRole, event.EventID)
	return nil
}

func (d *LogDispatcher) Close() error {
	return nil
}
