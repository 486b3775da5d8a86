package domain

import (
	"fmt"
	"time"
)

// ReservationCommand закрытый набор команд над бронированием
// Каждая команда несет только поля, нужные своему переходу
type ReservationCommand interface {
	// Target запрошенный статус (ключ в таблице переходов)
	Target() ReservationStatus
	// Roles дополнительное ограничение ролей команды, nil - ограничения таблицы
	Roles() []ActorRole
	Name() string
	reservationCommand()
}

type AcceptPayload struct{}

type RejectPayload struct {
	Reason string
}

type ReschedulePayload struct {
	Date   time.Time
	Reason string
}

type StartJobPayload struct{}

type RequestPaymentPayload struct{}

type SubmitPaymentReferencePayload struct {
	Reference string
}

type CompletePayload struct {
	Notes string
	// PaymentReceived исполнитель подтверждает получение оплаты (наличные)
	PaymentReceived bool
}

type ReportDisputePayload struct {
	Reason string
}

type CancelReservationPayload struct {
	Reason string
}

func (AcceptPayload) Target() ReservationStatus { return ReservationAccepted }
func (RejectPayload) Target() ReservationStatus { return ReservationRejected }
func (ReschedulePayload) Target() ReservationStatus { return ReservationRescheduled }
func (StartJobPayload) Target() ReservationStatus { return ReservationEnRoute }
func (RequestPaymentPayload) Target() ReservationStatus { return ReservationAwaitingPayment }
func (SubmitPaymentReferencePayload) Target() ReservationStatus { return ReservationAwaitingPayment }
func (CompletePayload) Target() ReservationStatus { return ReservationCompleted }
func (ReportDisputePayload) Target() ReservationStatus { return ReservationAwaitingPayment }
func (CancelReservationPayload) Target() ReservationStatus { return ReservationCancelled }

func (AcceptPayload) Roles() []ActorRole { return []ActorRole{RoleProvider} }
func (RejectPayload) Roles() []ActorRole { return []ActorRole{RoleProvider} }
func (ReschedulePayload) Roles() []ActorRole { return nil }
func (StartJobPayload) Roles() []ActorRole { return []ActorRole{RoleProvider} }
func (RequestPaymentPayload) Roles() []ActorRole { return []ActorRole{RoleProvider} }
func (SubmitPaymentReferencePayload) Roles() []ActorRole { return []ActorRole{RoleCustomer} }
func (CompletePayload) Roles() []ActorRole { return []ActorRole{RoleProvider} }
func (ReportDisputePayload) Roles() []ActorRole { return nil }
func (CancelReservationPayload) Roles() []ActorRole { return nil }

func (AcceptPayload) Name() string { return "accept" }
func (RejectPayload) Name() string { return "reject" }
func (ReschedulePayload) Name() string { return "reschedule" }
func (StartJobPayload) Name() string { return "start job" }
func (RequestPaymentPayload) Name() string { return "request payment" }
func (SubmitPaymentReferencePayload) Name() string { return "submit payment reference" }
func (CompletePayload) Name() string { return "complete" }
func (ReportDisputePayload) Name() string { return "report dispute" }
func (CancelReservationPayload) Name() string { return "cancel" }

func (AcceptPayload) reservationCommand() {}
func (RejectPayload) reservationCommand() {}
func (ReschedulePayload) reservationCommand() {}
func (StartJobPayload) reservationCommand() {}
func (RequestPaymentPayload) reservationCommand() {}
func (SubmitPaymentReferencePayload) reservationCommand() {}
func (CompletePayload) reservationCommand() {}
func (ReportDisputePayload) reservationCommand() {}
func (CancelReservationPayload) reservationCommand() {}

// KeepsStatus возвращает true для команд, которые фиксируются без смены статуса
func KeepsStatus(cmd ReservationCommand) bool {
	switch cmd.(type) {
	case SubmitPaymentReferencePayload, ReportDisputePayload:
		return true
	}
	return false
}

// OrderCommand закрытый набор команд над заказом
type OrderCommand interface {
	Target() OrderStatus
	Name() string
	orderCommand()
}

type SendFinalBillPayload struct {
	Total float64
}

type ConfirmOrderPayload struct{}

type AgreeFinalBillPayload struct{}

type StartProcessingPayload struct{}

type PackPayload struct{}

type DispatchPayload struct {
	TrackingInfo string
}

type ShipPayload struct {
	TrackingInfo string
}

type DeliverPayload struct{}

type RequestReturnPayload struct {
	Reason string
}

type CancelOrderPayload struct {
	Reason string
}

func (SendFinalBillPayload) Target() OrderStatus { return OrderAwaitingCustomerAgreement }
func (ConfirmOrderPayload) Target() OrderStatus { return OrderConfirmed }
func (AgreeFinalBillPayload) Target() OrderStatus { return OrderConfirmed }
func (StartProcessingPayload) Target() OrderStatus { return OrderProcessing }
func (PackPayload) Target() OrderStatus { return OrderPacked }
func (DispatchPayload) Target() OrderStatus { return OrderDispatched }
func (ShipPayload) Target() OrderStatus { return OrderShipped }
func (DeliverPayload) Target() OrderStatus { return OrderDelivered }
func (RequestReturnPayload) Target() OrderStatus { return OrderReturned }
func (CancelOrderPayload) Target() OrderStatus { return OrderCancelled }

func (SendFinalBillPayload) Name() string { return "send final bill" }
func (ConfirmOrderPayload) Name() string { return "confirm" }
func (AgreeFinalBillPayload) Name() string { return "agree final bill" }
func (StartProcessingPayload) Name() string { return "start processing" }
func (PackPayload) Name() string { return "pack" }
func (DispatchPayload) Name() string { return "dispatch" }
func (ShipPayload) Name() string { return "ship" }
func (DeliverPayload) Name() string { return "deliver" }
func (RequestReturnPayload) Name() string { return "request return" }
func (CancelOrderPayload) Name() string { return "cancel" }

func (SendFinalBillPayload) orderCommand() {}
func (ConfirmOrderPayload) orderCommand() {}
func (AgreeFinalBillPayload) orderCommand() {}
func (StartProcessingPayload) orderCommand() {}
func (PackPayload) orderCommand() {}
func (DispatchPayload) orderCommand() {}
func (ShipPayload) orderCommand() {}
func (DeliverPayload) orderCommand() {}
func (RequestReturnPayload) orderCommand() {}
func (CancelOrderPayload) orderCommand() {}

// StatusRequest тело запроса смены статуса до разбора в конкретную команду
type StatusRequest struct {
	Status          string
	Reason          *string
	Comments        *string
	RescheduleDate  *time.Time
	Reference       *string
	Notes           *string
	TrackingInfo    *string
	Total           *float64
	Dispute         bool
	PaymentReceived bool
}

// ResolveReservationTarget возвращает итоговый статус команды с учетом инициатора.
// Перенос по инициативе клиента требует подтверждения исполнителя
func ResolveReservationTarget(cmd ReservationCommand, role ActorRole) ReservationStatus {
	if _, ok := cmd.(ReschedulePayload); ok && role == RoleCustomer {
		return ReservationRescheduledPendingProviderApproval
	}
	return cmd.Target()
}

// ParseReservationCommand превращает запрос в команду над бронированием
func ParseReservationCommand(req StatusRequest) (ReservationCommand, error) {
	switch ReservationStatus(req.Status) {
	case ReservationAccepted:
		return AcceptPayload{}, nil
	case ReservationRejected:
		return RejectPayload{Reason: firstNonEmpty(req.Reason, req.Comments)}, nil
	case ReservationRescheduled, ReservationRescheduledPendingProviderApproval:
		if req.RescheduleDate == nil {
			return nil, fmt.Errorf("%w: rescheduleDate is required", ErrInvalidCommand)
		}
		return ReschedulePayload{Date: NormalizeDate(*req.RescheduleDate), Reason: firstNonEmpty(req.Reason, req.Comments)}, nil
	case ReservationEnRoute:
		return StartJobPayload{}, nil
	case ReservationAwaitingPayment:
		switch {
		case req.Dispute:
			return ReportDisputePayload{Reason: firstNonEmpty(req.Reason, req.Comments)}, nil
		case req.Reference != nil:
			return SubmitPaymentReferencePayload{Reference: *req.Reference}, nil
		}
		return RequestPaymentPayload{}, nil
	case ReservationCompleted:
		return CompletePayload{Notes: firstNonEmpty(req.Notes, req.Comments), PaymentReceived: req.PaymentReceived}, nil
	case ReservationCancelled:
		return CancelReservationPayload{Reason: firstNonEmpty(req.Reason, req.Comments)}, nil
	}
	return nil, fmt.Errorf("%w: unknown reservation status %q", ErrInvalidCommand, req.Status)
}

// ParseOrderCommand превращает запрос в команду над заказом
func ParseOrderCommand(req StatusRequest) (OrderCommand, error) {
	switch OrderStatus(req.Status) {
	case OrderAwaitingCustomerAgreement:
		if req.Total == nil || *req.Total <= 0 {
			return nil, fmt.Errorf("%w: positive total is required", ErrInvalidCommand)
		}
		return SendFinalBillPayload{Total: *req.Total}, nil
	case OrderConfirmed:
		return ConfirmOrderPayload{}, nil
	case OrderProcessing:
		return StartProcessingPayload{}, nil
	case OrderPacked:
		return PackPayload{}, nil
	case OrderDispatched:
		return DispatchPayload{TrackingInfo: firstNonEmpty(req.TrackingInfo)}, nil
	case OrderShipped:
		return ShipPayload{TrackingInfo: firstNonEmpty(req.TrackingInfo)}, nil
	case OrderDelivered:
		return DeliverPayload{}, nil
	case OrderReturned:
		return RequestReturnPayload{Reason: firstNonEmpty(req.Reason, req.Comments)}, nil
	case OrderCancelled:
		return CancelOrderPayload{Reason: firstNonEmpty(req.Reason, req.Comments)}, nil
	}
	return nil, fmt.Errorf("%w: unknown order status %q", ErrInvalidCommand, req.Status)
}

func firstNonEmpty(values ...*string) string {
	for _, v := range values {
		if v != nil && *v != "" {
			return *v
		}
	}
	return ""
}
