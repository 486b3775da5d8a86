package domain

import "time"

// ReservationStatus статус бронирования услуги
type ReservationStatus string

const (
	ReservationPending                            ReservationStatus = "pending"
	ReservationAccepted                           ReservationStatus = "accepted"
	ReservationRejected                           ReservationStatus = "rejected"
	ReservationRescheduled                        ReservationStatus = "rescheduled"
	ReservationRescheduledPendingProviderApproval ReservationStatus = "rescheduled_pending_provider_approval"
	ReservationEnRoute                            ReservationStatus = "en_route"
	ReservationAwaitingPayment                    ReservationStatus = "awaiting_payment"
	ReservationCompleted                          ReservationStatus = "completed"
	ReservationCancelled                          ReservationStatus = "cancelled"
)

// AllReservationStatuses все статусы бронирования
var AllReservationStatuses = []ReservationStatus{
	ReservationPending,
	ReservationAccepted,
	ReservationRejected,
	ReservationRescheduled,
	ReservationRescheduledPendingProviderApproval,
	ReservationEnRoute,
	ReservationAwaitingPayment,
	ReservationCompleted,
	ReservationCancelled,
}

// NonOccupyingStatuses статусы, не занимающие место в слоте
var NonOccupyingStatuses = []ReservationStatus{
	ReservationCancelled,
	ReservationRejected,
}

// ExpirableReservationStatuses статусы, в которых у бронирования есть срок истечения
var ExpirableReservationStatuses = []ReservationStatus{
	ReservationPending,
	ReservationAwaitingPayment,
}

// IsValid проверяет, что статус известен
func (s ReservationStatus) IsValid() bool {
	for _, known := range AllReservationStatuses {
		if s == known {
			return true
		}
	}
	return false
}

// OccupiesSlot возвращает true, если бронирование в этом статусе занимает место в слоте
func (s ReservationStatus) OccupiesSlot() bool {
	return s != ReservationCancelled && s != ReservationRejected
}

// IsExpirable возвращает true для статусов с дедлайном (expiresAt)
func (s ReservationStatus) IsExpirable() bool {
	return s == ReservationPending || s == ReservationAwaitingPayment
}

// IsTerminal возвращает true для финальных статусов
func (s ReservationStatus) IsTerminal() bool {
	return s == ReservationCompleted || s == ReservationCancelled || s == ReservationRejected
}

// ServiceSnapshot неизменяемая копия параметров услуги на момент создания бронирования
type ServiceSnapshot struct {
	ServiceName     string
	Price           float64
	DurationMinutes int
}

// Reservation бронирование услуги у исполнителя
// Связи с услугой, клиентом и исполнителем только по ID
type Reservation struct {
	ID              int64
	ServiceID       int64
	CustomerID      int64
	ProviderID      int64
	Status          ReservationStatus
	BookingDate     time.Time
	TimeSlotLabel   string
	ServiceLocation GeoPoint

	ExpiresAt *time.Time // задан только в pending и awaiting_payment

	RescheduleDate     *time.Time
	RejectionReason    *string
	CancellationReason *string
	Comments           *string
	CompletionNotes    *string
	PaymentReference   *string

	// Спор об оплате в awaiting_payment помечается флагом, статус не меняется
	Disputed      bool
	DisputeReason *string

	Snapshot ServiceSnapshot

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Slot возвращает сигнатуру слота бронирования
func (r *Reservation) Slot() SlotKey {
	return SlotKey{ServiceID: r.ServiceID, Date: r.BookingDate, Label: r.TimeSlotLabel}
}

// IsExpiredAt возвращает true, если срок бронирования истек к моменту now
func (r *Reservation) IsExpiredAt(now time.Time) bool {
	return r.Status.IsExpirable() && r.ExpiresAt != nil && r.ExpiresAt.Before(now)
}

// Clone возвращает копию для безопасной модификации
func (r *Reservation) Clone() *Reservation {
	c := *r
	return &c
}
