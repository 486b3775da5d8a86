package domain

import "time"

// Значения по умолчанию
const (
	DefaultMaxBookingsPerSlot = 1
	DefaultDurationMinutes    = 60

	DefaultReservationPendingTTL = 30 * time.Minute
	DefaultAwaitingPaymentTTL    = 24 * time.Hour
	DefaultOrderPendingTTL       = 2 * time.Hour
	DefaultProximityThresholdKm  = 5.0
)

// Ограничения бизнес-валидации
const (
	MinBookingsPerSlot     = 1
	MaxBookingsPerSlot     = 100
	MaxTimeSlotLabelLen    = 32
	MaxReasonLength        = 500
	MaxCommentsLength      = 1000
	MaxPaymentReferenceLen = 128
	MaxTrackingInfoLength  = 256
)

// Форматы
const (
	DateFormat = "2006-01-02" // YYYY-MM-DD
)

// ExpiredReason причина отмены, проставляемая планировщиком истечения
const ExpiredReason = "expired"
