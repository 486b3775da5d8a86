package create_reservation

import (
	"time"

	"github.com/m04kA/SMC-BookingEngine/internal/domain"
	transitionsModels "github.com/m04kA/SMC-BookingEngine/internal/service/transitions/models"
	createReservation "github.com/m04kA/SMC-BookingEngine/internal/usecase/create_reservation"
)

// CreateReservationRequest HTTP request model
type CreateReservationRequest struct {
	ServiceID       int64                       `json:"serviceId"`
	BookingDate     string                      `json:"bookingDate"`   // "2026-03-12"
	TimeSlotLabel   string                      `json:"timeSlotLabel"` // "10:00"
	ServiceLocation *transitionsModels.GeoPoint `json:"serviceLocation,omitempty"`
	Comments        *string                     `json:"comments,omitempty"`
}

// ToUseCaseRequest конвертирует HTTP запрос в модель use case
func (r *CreateReservationRequest) ToUseCaseRequest(actor domain.Actor) (*createReservation.Request, error) {
	bookingDate, err := time.Parse(domain.DateFormat, r.BookingDate)
	if err != nil {
		return nil, err
	}

	req := &createReservation.Request{
		Actor:         actor,
		ServiceID:     r.ServiceID,
		Date:          bookingDate,
		TimeSlotLabel: r.TimeSlotLabel,
		Comments:      r.Comments,
	}
	if r.ServiceLocation != nil {
		req.Location = domain.GeoPoint{Lat: r.ServiceLocation.Lat, Lng: r.ServiceLocation.Lng}
	}
	return req, nil
}

// FromUseCaseResponse конвертирует ответ use case в HTTP response
func FromUseCaseResponse(resp *createReservation.Response) *transitionsModels.ReservationResponse {
	return transitionsModels.FromDomainReservation(resp.Reservation)
}
