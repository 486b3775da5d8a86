package update_reservation_status

import (
	"time"

	"github.com/m04kA/SMC-BookingEngine/internal/domain"
)

// UpdateStatusRequest HTTP request model: запрошенный статус и данные перехода
type UpdateStatusRequest struct {
	Status           string  `json:"status"`
	Reason           *string `json:"reason,omitempty"`
	Comments         *string `json:"comments,omitempty"`
	RescheduleDate   *string `json:"rescheduleDate,omitempty"` // "2026-03-14"
	PaymentReference *string `json:"paymentReference,omitempty"`
	CompletionNotes  *string `json:"completionNotes,omitempty"`
	Dispute          bool    `json:"dispute,omitempty"`
	PaymentReceived  bool    `json:"paymentReceived,omitempty"`
}

// ToCommand разбирает запрос в команду над бронированием
func (r *UpdateStatusRequest) ToCommand() (domain.ReservationCommand, error) {
	req := domain.StatusRequest{
		Status:          r.Status,
		Reason:          r.Reason,
		Comments:        r.Comments,
		Reference:       r.PaymentReference,
		Notes:           r.CompletionNotes,
		Dispute:         r.Dispute,
		PaymentReceived: r.PaymentReceived,
	}
	if r.RescheduleDate != nil {
		date, err := time.Parse(domain.DateFormat, *r.RescheduleDate)
		if err != nil {
			return nil, err
		}
		req.RescheduleDate = &date
	}
	return domain.ParseReservationCommand(req)
}
