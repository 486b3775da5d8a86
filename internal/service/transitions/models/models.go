package models

import (
	"time"

	"github.com/m04kA/SMC-BookingEngine/internal/domain"
	"github.com/m04kA/SMC-BookingEngine/internal/service/proximity"
)

// GeoPoint координаты
type GeoPoint struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// ReservationResponse бронирование в ответе API
type ReservationResponse struct {
	ID                 int64      `json:"id"`
	ServiceID          int64      `json:"serviceId"`
	CustomerID         int64      `json:"customerId"`
	ProviderID         int64      `json:"providerId"`
	Status             string     `json:"status"`
	BookingDate        string     `json:"bookingDate"`
	TimeSlotLabel      string     `json:"timeSlotLabel"`
	ServiceLocation    GeoPoint   `json:"serviceLocation"`
	ExpiresAt          *time.Time `json:"expiresAt,omitempty"`
	RescheduleDate     *string    `json:"rescheduleDate,omitempty"`
	RejectionReason    *string    `json:"rejectionReason,omitempty"`
	CancellationReason *string    `json:"cancellationReason,omitempty"`
	Comments           *string    `json:"comments,omitempty"`
	CompletionNotes    *string    `json:"completionNotes,omitempty"`
	PaymentReference   *string    `json:"paymentReference,omitempty"`
	Disputed           bool       `json:"disputed"`
	DisputeReason      *string    `json:"disputeReason,omitempty"`

	// Снимок услуги на момент бронирования
	ServiceName     string  `json:"serviceName"`
	ServicePrice    float64 `json:"servicePrice"`
	DurationMinutes int     `json:"durationMinutes"`

	// Только в ответе исполнителю
	ProximityAdvisory *proximity.Advisory `json:"proximityAdvisory,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// OrderResponse заказ в ответе API
type OrderResponse struct {
	ID                 int64      `json:"id"`
	CustomerID         int64      `json:"customerId"`
	ShopID             int64      `json:"shopId"`
	Status             string     `json:"status"`
	OrderType          string     `json:"orderType"`
	Total              float64    `json:"total"`
	DeliveryMethod     string     `json:"deliveryMethod"`
	PaymentStatus      string     `json:"paymentStatus"`
	PaymentMethod      *string    `json:"paymentMethod,omitempty"`
	PaymentReference   *string    `json:"paymentReference,omitempty"`
	ReturnsEnabled     bool       `json:"returnsEnabled"`
	ReturnRequested    bool       `json:"returnRequested"`
	ExpiresAt          *time.Time `json:"expiresAt,omitempty"`
	TrackingInfo       *string    `json:"trackingInfo,omitempty"`
	CancellationReason *string    `json:"cancellationReason,omitempty"`
	CreatedAt          time.Time  `json:"createdAt"`
	UpdatedAt          time.Time  `json:"updatedAt"`
}

// HistoryEntryResponse запись таймлайна
type HistoryEntryResponse struct {
	Status       string    `json:"status"`
	ActorRole    string    `json:"actorRole"`
	TrackingInfo *string   `json:"trackingInfo,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
}

// TimelineResponse таймлайн сущности, от старых записей к новым
type TimelineResponse struct {
	EntityType string                  `json:"entityType"`
	EntityID   int64                   `json:"entityId"`
	Entries    []*HistoryEntryResponse `json:"entries"`
}

// FromDomainReservation конвертирует domain.Reservation в ReservationResponse
func FromDomainReservation(r *domain.Reservation) *ReservationResponse {
	resp := &ReservationResponse{
		ID:                 r.ID,
		ServiceID:          r.ServiceID,
		CustomerID:         r.CustomerID,
		ProviderID:         r.ProviderID,
		Status:             string(r.Status),
		BookingDate:        r.BookingDate.Format(domain.DateFormat),
		TimeSlotLabel:      r.TimeSlotLabel,
		ServiceLocation:    GeoPoint{Lat: r.ServiceLocation.Lat, Lng: r.ServiceLocation.Lng},
		ExpiresAt:          r.ExpiresAt,
		RejectionReason:    r.RejectionReason,
		CancellationReason: r.CancellationReason,
		Comments:           r.Comments,
		CompletionNotes:    r.CompletionNotes,
		PaymentReference:   r.PaymentReference,
		Disputed:           r.Disputed,
		DisputeReason:      r.DisputeReason,
		ServiceName:        r.Snapshot.ServiceName,
		ServicePrice:       r.Snapshot.Price,
		DurationMinutes:    r.Snapshot.DurationMinutes,
		CreatedAt:          r.CreatedAt,
		UpdatedAt:          r.UpdatedAt,
	}

	if r.RescheduleDate != nil {
		date := r.RescheduleDate.Format(domain.DateFormat)
		resp.RescheduleDate = &date
	}

	return resp
}

// FromDomainOrder конвертирует domain.Order в OrderResponse
func FromDomainOrder(o *domain.Order) *OrderResponse {
	resp := &OrderResponse{
		ID:                 o.ID,
		CustomerID:         o.CustomerID,
		ShopID:             o.ShopID,
		Status:             string(o.Status),
		OrderType:          string(o.OrderType),
		Total:              o.Total,
		DeliveryMethod:     string(o.DeliveryMethod),
		PaymentStatus:      string(o.PaymentStatus),
		PaymentReference:   o.PaymentReference,
		ReturnsEnabled:     o.ReturnsEnabled,
		ReturnRequested:    o.ReturnRequested,
		ExpiresAt:          o.ExpiresAt,
		TrackingInfo:       o.TrackingInfo,
		CancellationReason: o.CancellationReason,
		CreatedAt:          o.CreatedAt,
		UpdatedAt:          o.UpdatedAt,
	}

	if o.PaymentMethod != nil {
		method := string(*o.PaymentMethod)
		resp.PaymentMethod = &method
	}

	return resp
}

// FromDomainHistory конвертирует записи истории в таймлайн
func FromDomainHistory(entityType domain.EntityType, entityID int64, entries []*domain.StatusHistory) *TimelineResponse {
	resp := &TimelineResponse{
		EntityType: string(entityType),
		EntityID:   entityID,
		Entries:    make([]*HistoryEntryResponse, 0, len(entries)),
	}
	for _, e := range entries {
		resp.Entries = append(resp.Entries, &HistoryEntryResponse{
			Status:       e.Status,
			ActorRole:    string(e.ActorRole),
			TrackingInfo: e.TrackingInfo,
			CreatedAt:    e.CreatedAt,
		})
	}
	return resp
}
