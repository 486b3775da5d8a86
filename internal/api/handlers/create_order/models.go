package create_order

import (
	"github.com/m04kA/SMC-BookingEngine/internal/domain"
	createOrder "github.com/m04kA/SMC-BookingEngine/internal/usecase/create_order"
)

// CreateOrderRequest HTTP request model
type CreateOrderRequest struct {
	ShopID         int64   `json:"shopId"`
	OrderType      string  `json:"orderType"` // normal | text_order
	Total          float64 `json:"total"`
	DeliveryMethod string  `json:"deliveryMethod"` // delivery | pickup
}

// ToUseCaseRequest конвертирует HTTP запрос в запрос use case
func (r *CreateOrderRequest) ToUseCaseRequest(actor domain.Actor) *createOrder.Request {
	orderType := domain.OrderType(r.OrderType)
	if orderType == "" {
		orderType = domain.OrderTypeNormal
	}

	return &createOrder.Request{
		Actor:          actor,
		ShopID:         r.ShopID,
		OrderType:      orderType,
		Total:          r.Total,
		DeliveryMethod: domain.DeliveryMethod(r.DeliveryMethod),
	}
}
