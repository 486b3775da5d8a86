package create_order

import (
	"fmt"

	"github.com/m04kA/SMC-BookingEngine/internal/domain"
)

// validateRequest валидирует входные данные запроса
func validateRequest(req *Request) error {
	if req.Actor.ID <= 0 {
		return fmt.Errorf("%w: customerID must be positive", ErrInvalidInput)
	}

	if req.ShopID <= 0 {
		return fmt.Errorf("%w: shopID must be positive", ErrInvalidInput)
	}

	switch req.OrderType {
	case domain.OrderTypeNormal:
		if req.Total <= 0 {
			return fmt.Errorf("%w: total must be positive", ErrInvalidInput)
		}
	case domain.OrderTypeText:
		if req.Total != 0 {
			return fmt.Errorf("%w: text order total is set by the shop", ErrInvalidInput)
		}
	default:
		return fmt.Errorf("%w: unknown order type %q", ErrInvalidInput, req.OrderType)
	}

	if req.DeliveryMethod != domain.DeliveryDelivery && req.DeliveryMethod != domain.DeliveryPickup {
		return fmt.Errorf("%w: unknown delivery method %q", ErrInvalidInput, req.DeliveryMethod)
	}

	return nil
}
