package create_order

import "github.com/m04kA/SMC-BookingEngine/internal/domain"

// Request модель запроса на создание заказа
type Request struct {
	Actor          domain.Actor          // Инициатор (только клиент)
	ShopID         int64                 // ID магазина
	OrderType      domain.OrderType      // normal | text_order
	Total          float64               // Для text_order итог выставляет магазин позже
	DeliveryMethod domain.DeliveryMethod // delivery | pickup
}
