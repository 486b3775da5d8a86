package update_order_status

import "github.com/m04kA/SMC-BookingEngine/internal/domain"

// UpdateStatusRequest HTTP request model
type UpdateStatusRequest struct {
	Status       string   `json:"status"`
	Reason       *string  `json:"reason,omitempty"`
	Comments     *string  `json:"comments,omitempty"`
	TrackingInfo *string  `json:"trackingInfo,omitempty"`
	Total        *float64 `json:"total,omitempty"` // итог по смете для awaiting_customer_agreement
}

// ToCommand разбирает запрос в команду над заказом
func (r *UpdateStatusRequest) ToCommand() (domain.OrderCommand, error) {
	return domain.ParseOrderCommand(domain.StatusRequest{
		Status:       r.Status,
		Reason:       r.Reason,
		Comments:     r.Comments,
		TrackingInfo: r.TrackingInfo,
		Total:        r.Total,
	})
}
