package transitions

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/m04kA/SMC-BookingEngine/internal/domain"
)

// reservationCommands валидные команды на каждый целевой статус
var reservationCommands = []domain.ReservationCommand{
	domain.AcceptPayload{},
	domain.RejectPayload{Reason: "busy"},
	domain.ReschedulePayload{Date: bookingDate.AddDate(0, 0, 1)},
	domain.StartJobPayload{},
	domain.RequestPaymentPayload{},
	domain.SubmitPaymentReferencePayload{Reference: "UTR-1"},
	domain.ReportDisputePayload{Reason: "wrong amount"},
	domain.CompletePayload{PaymentReceived: true},
	domain.CancelReservationPayload{},
}

var orderCommands = []domain.OrderCommand{
	domain.SendFinalBillPayload{Total: 900},
	domain.ConfirmOrderPayload{},
	domain.AgreeFinalBillPayload{},
	domain.StartProcessingPayload{},
	domain.PackPayload{},
	domain.DispatchPayload{TrackingInfo: "AWB1"},
	domain.ShipPayload{TrackingInfo: "AWB2"},
	domain.DeliverPayload{},
	domain.RequestReturnPayload{},
	domain.CancelOrderPayload{},
}

func reservationIn(status domain.ReservationStatus) *domain.Reservation {
	res := &domain.Reservation{
		ID:            1,
		ServiceID:     serviceID,
		CustomerID:    customerID,
		ProviderID:    providerID,
		Status:        status,
		BookingDate:   bookingDate,
		TimeSlotLabel: "10:00",
	}
	if status.IsExpirable() {
		deadline := baseTime.Add(time.Hour)
		res.ExpiresAt = &deadline
	}
	return res
}

// Для каждой пары (статус, команда, роль): пары вне таблицы дают InvalidTransition
// при любой роли, пары из таблицы дают Unauthorized для неразрешенных ролей
func TestPlanReservation_TransitionTable(t *testing.T) {
	for _, from := range domain.AllReservationStatuses {
		for _, cmd := range reservationCommands {
			for _, role := range allRoles {
				actor := actorFor(role)
				target := domain.ResolveReservationTarget(cmd, role)
				if from == target && !domain.KeepsStatus(cmd) {
					continue
				}

				edgeRoles, inTable := domain.ReservationEdge(from, cmd.Target())
				if domain.KeepsStatus(cmd) && from != cmd.Target() {
					inTable = false
				}

				next, changed, err := planReservation(reservationIn(from), actor, cmd, baseTime, testConfig)

				name := string(from) + "/" + cmd.Name() + "/" + string(role)
				switch {
				case !inTable:
					assert.ErrorIs(t, err, domain.ErrInvalidTransition, name)
				case !domain.RoleAllowed(role, edgeRoles) || !commandAllows(cmd, role):
					assert.ErrorIs(t, err, domain.ErrUnauthorized, name)
				default:
					if assert.NoError(t, err, name) {
						assert.True(t, changed, name)
						assert.Equal(t, target, next.Status, name)
						assert.Equal(t, next.Status.IsExpirable(), next.ExpiresAt != nil, name)
					}
				}
			}
		}
	}
}

func TestPlanReservation_InputIsNotMutated(t *testing.T) {
	current := reservationIn(domain.ReservationPending)
	_, _, err := planReservation(current, provider, domain.RejectPayload{Reason: "full day"}, baseTime, testConfig)
	assert.NoError(t, err)
	assert.Equal(t, domain.ReservationPending, current.Status)
	assert.Nil(t, current.RejectionReason)
}

func orderIn(status domain.OrderStatus, orderType domain.OrderType) *domain.Order {
	o := &domain.Order{
		ID:             1,
		CustomerID:     customerID,
		ShopID:         shopID,
		Status:         status,
		OrderType:      orderType,
		Total:          500,
		PaymentStatus:  domain.PaymentPending,
		ReturnsEnabled: true,
	}
	if status.IsExpirable() {
		deadline := baseTime.Add(time.Hour)
		o.ExpiresAt = &deadline
	}
	return o
}

func TestPlanOrder_TransitionTable(t *testing.T) {
	for _, from := range domain.AllOrderStatuses {
		for _, cmd := range orderCommands {
			for _, role := range allRoles {
				if from == cmd.Target() {
					continue
				}

				orderType := domain.OrderTypeNormal
				if _, ok := cmd.(domain.SendFinalBillPayload); ok {
					orderType = domain.OrderTypeText
				}

				edgeRoles, inTable := domain.OrderEdge(from, cmd.Target())
				next, changed, err := planOrder(orderIn(from, orderType), actorFor(role), cmd, baseTime, testConfig)

				name := string(from) + "/" + cmd.Name() + "/" + string(role)
				_, isAgree := cmd.(domain.AgreeFinalBillPayload)
				switch {
				case !inTable:
					assert.ErrorIs(t, err, domain.ErrInvalidTransition, name)
				case !domain.RoleAllowed(role, edgeRoles):
					assert.ErrorIs(t, err, domain.ErrUnauthorized, name)
				case isAgree && from != domain.OrderAwaitingCustomerAgreement:
					assert.ErrorIs(t, err, domain.ErrInvalidTransition, name)
				default:
					if assert.NoError(t, err, name) {
						assert.True(t, changed, name)
						assert.Equal(t, cmd.Target(), next.Status, name)
						assert.Equal(t, next.Status.IsExpirable(), next.ExpiresAt != nil, name)
					}
				}
			}
		}
	}
}
