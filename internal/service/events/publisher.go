package events

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/m04kA/SMC-BookingEngine/internal/domain"
)

// Dispatcher внешний получатель событий (Kafka, лог)
type Dispatcher interface {
	Emit(ctx context.Context, event domain.TransitionEvent) error
}

// Logger интерфейс для логирования
type Logger interface {
	Warn(format string, v ...interface{})
}

// Metrics счетчик неудачных отправок
type Metrics interface {
	IncNotificationFailure()
}

// Publisher отправляет одно событие на каждый зафиксированный переход.
// Отправка best-effort: ошибка логируется и никогда не откатывает переход
type Publisher struct {
	dispatcher Dispatcher
	logger     Logger
	metrics    Metrics
	now        func() time.Time
}

func NewPublisher(dispatcher Dispatcher, logger Logger, metrics Metrics) *Publisher {
	return &Publisher{dispatcher: dispatcher, logger: logger, metrics: metrics, now: time.Now}
}

// Publish формирует и отправляет событие
func (p *Publisher) Publish(ctx context.Context, entityType domain.EntityType, entityID int64, oldState, newState string, role domain.ActorRole) {
	event := domain.TransitionEvent{
		EventID:    uuid.NewString(),
		EntityID:   entityID,
		EntityType: entityType,
		OldState:   oldState,
		NewState:   newState,
		ActorRole:  role,
		Timestamp:  p.now().UTC(),
	}

	if err := p.dispatcher.Emit(ctx, event); err != nil {
		p.logger.Warn("Publish: %s id=%d %s -> %s: %v", entityType, entityID, oldState, newState, err)
		if p.metrics != nil {
			p.metrics.IncNotificationFailure()
		}
	}
}
