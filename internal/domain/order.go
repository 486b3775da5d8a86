package domain

import "time"

// OrderStatus статус заказа в магазине
type OrderStatus string

const (
	OrderPending                   OrderStatus = "pending"
	OrderAwaitingCustomerAgreement OrderStatus = "awaiting_customer_agreement"
	OrderConfirmed                 OrderStatus = "confirmed"
	OrderProcessing                OrderStatus = "processing"
	OrderPacked                    OrderStatus = "packed"
	OrderDispatched                OrderStatus = "dispatched"
	OrderShipped                   OrderStatus = "shipped"
	OrderDelivered                 OrderStatus = "delivered"
	OrderCancelled                 OrderStatus = "cancelled"
	OrderReturned                  OrderStatus = "returned"
)

// AllOrderStatuses все статусы заказа
var AllOrderStatuses = []OrderStatus{
	OrderPending,
	OrderAwaitingCustomerAgreement,
	OrderConfirmed,
	OrderProcessing,
	OrderPacked,
	OrderDispatched,
	OrderShipped,
	OrderDelivered,
	OrderCancelled,
	OrderReturned,
}

// ExpirableOrderStatuses статусы заказа, в которых действует срок истечения
var ExpirableOrderStatuses = []OrderStatus{
	OrderPending,
	OrderAwaitingCustomerAgreement,
}

func (s OrderStatus) IsValid() bool {
	for _, known := range AllOrderStatuses {
		if s == known {
			return true
		}
	}
	return false
}

// IsExpirable возвращает true для статусов с дедлайном
func (s OrderStatus) IsExpirable() bool {
	return s == OrderPending || s == OrderAwaitingCustomerAgreement
}

// IsTerminal возвращает true для финальных статусов
func (s OrderStatus) IsTerminal() bool {
	return s == OrderCancelled || s == OrderReturned
}

// PaymentStatus статус оплаты внутри заказа
type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "pending"
	PaymentVerifying PaymentStatus = "verifying"
	PaymentApproved  PaymentStatus = "approved" // pay_later одобрен, расчет вне системы
	PaymentPaid      PaymentStatus = "paid"
)

// IsMethodLocked возвращает true, если способ оплаты больше нельзя менять
func (s PaymentStatus) IsMethodLocked() bool {
	return s != PaymentPending
}

// PaymentMethod способ оплаты
type PaymentMethod string

const (
	PaymentCash     PaymentMethod = "cash"
	PaymentUPI      PaymentMethod = "upi"
	PaymentPayLater PaymentMethod = "pay_later"
)

func (m PaymentMethod) IsValid() bool {
	return m == PaymentCash || m == PaymentUPI || m == PaymentPayLater
}

// OrderType тип заказа
type OrderType string

const (
	OrderTypeNormal OrderType = "normal"
	OrderTypeText   OrderType = "text_order" // заказ по смете, итог выставляет магазин
)

// DeliveryMethod способ получения
type DeliveryMethod string

const (
	DeliveryDelivery DeliveryMethod = "delivery"
	DeliveryPickup   DeliveryMethod = "pickup"
)

// Order заказ клиента в магазине
type Order struct {
	ID             int64
	CustomerID     int64
	ShopID         int64
	Status         OrderStatus
	OrderType      OrderType
	Total          float64
	DeliveryMethod DeliveryMethod

	PaymentStatus    PaymentStatus
	PaymentMethod    *PaymentMethod
	PaymentReference *string

	ReturnsEnabled  bool // настройка магазина на момент заказа
	ReturnRequested bool

	ExpiresAt          *time.Time
	TrackingInfo       *string
	CancellationReason *string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// IsExpiredAt возвращает true, если срок заказа истек к моменту now
func (o *Order) IsExpiredAt(now time.Time) bool {
	return o.Status.IsExpirable() && o.ExpiresAt != nil && o.ExpiresAt.Before(now)
}

// IsTextOrder возвращает true для заказов по смете
func (o *Order) IsTextOrder() bool {
	return o.OrderType == OrderTypeText
}

func (o *Order) Clone() *Order {
	c := *o
	return &c
}
