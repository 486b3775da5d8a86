package domain

import "time"

// EntityType тип сущности жизненного цикла
type EntityType string

const (
	EntityReservation EntityType = "reservation"
	EntityOrder       EntityType = "order"
	EntityPayment     EntityType = "order_payment"
)

// StatusHistory запись таймлайна сущности
type StatusHistory struct {
	ID           int64
	EntityType   EntityType
	EntityID     int64
	Status       string
	ActorRole    ActorRole
	TrackingInfo *string
	CreatedAt    time.Time
}
