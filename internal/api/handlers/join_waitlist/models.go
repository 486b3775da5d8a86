package join_waitlist

import (
	"time"

	"github.com/m04kA/SMC-BookingEngine/internal/domain"
	slotModels "github.com/m04kA/SMC-BookingEngine/internal/service/slots/models"
	transitionsModels "github.com/m04kA/SMC-BookingEngine/internal/service/transitions/models"
)

// JoinWaitlistRequest HTTP request model
type JoinWaitlistRequest struct {
	ServiceID       int64                       `json:"serviceId"`
	PreferredDate   string                      `json:"preferredDate"`
	TimeSlotLabel   string                      `json:"timeSlotLabel"`
	ServiceLocation *transitionsModels.GeoPoint `json:"serviceLocation,omitempty"`
}

// ToServiceRequest конвертирует HTTP запрос в модель сервиса
func (r *JoinWaitlistRequest) ToServiceRequest(customerID int64) (slotModels.WaitlistRequest, error) {
	date, err := time.Parse(domain.DateFormat, r.PreferredDate)
	if err != nil {
		return slotModels.WaitlistRequest{}, err
	}

	req := slotModels.WaitlistRequest{
		ServiceID:  r.ServiceID,
		CustomerID: customerID,
		Date:       date,
		Label:      r.TimeSlotLabel,
	}
	if r.ServiceLocation != nil {
		req.Location = domain.GeoPoint{Lat: r.ServiceLocation.Lat, Lng: r.ServiceLocation.Lng}
	}
	return req, nil
}
