package notifications

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/m04kA/SMC-BookingEngine/internal/domain"
)

// DefaultPublishTimeout предел ожидания брокера на одно событие
const DefaultPublishTimeout = 500 * time.Millisecond

// KafkaDispatcher публикует события переходов в Kafka.
// Ключ сообщения - тип и ID сущности, поэтому события одной сущности попадают в одну партицию.
// Emit ждет брокера не дольше timeout и не зависит от отмены контекста запроса
type KafkaDispatcher struct {
	writer  MessageWriter
	timeout time.Duration
}

func NewKafkaDispatcher(writer MessageWriter, timeout time.Duration) *KafkaDispatcher {
	if timeout <= 0 {
		timeout = DefaultPublishTimeout
	}
	return &KafkaDispatcher{writer: writer, timeout: timeout}
}

// NewKafkaWriter создает writer для топика событий
func NewKafkaWriter(brokers []string, topic string, timeout time.Duration) *kafka.Writer {
	return &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireOne,
		BatchTimeout: 10 * time.Millisecond,
		WriteTimeout: timeout,
		MaxAttempts:  3,
	}
}

// Emit публикует одно событие
func (d *KafkaDispatcher) Emit(ctx context.Context, event domain.TransitionEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrEncode, err)
	}

	msg := kafka.Message{
		Key:   []byte(string(event.EntityType) + ":" + strconv.FormatInt(event.EntityID, 10)),
		Value: payload,
		Headers: []kafka.Header{
			{Key: "event_id", Value: []byte(event.EventID)},
			{Key: "entity_type", Value: []byte(event.EntityType)},
		},
		Time: event.Timestamp,
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), d.timeout)
	defer cancel()

	if err := d.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("%w: entity=%s:%d: %v", ErrPublish, event.EntityType, event.EntityID, err)
	}
	return nil
}

func (d *KafkaDispatcher) Close() error {
	return d.writer.Close()
}
