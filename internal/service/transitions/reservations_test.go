package transitions

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-BookingEngine/internal/domain"
	"github.com/m04kA/SMC-BookingEngine/internal/infra/cache"
	"github.com/m04kA/SMC-BookingEngine/internal/service/proximity"
	slotModels "github.com/m04kA/SMC-BookingEngine/internal/service/slots/models"
	"github.com/m04kA/SMC-BookingEngine/internal/testutil/memledger"
	"github.com/m04kA/SMC-BookingEngine/pkg/logger"
)

func TestApplyReservation_FullLifecycle(t *testing.T) {
	h := newHarness(t, 1)
	ctx := context.Background()

	res := h.reserve(t, customerID, "10:00")
	assert.Equal(t, domain.ReservationPending, res.Status)
	require.NotNil(t, res.ExpiresAt)
	assert.Equal(t, baseTime.Add(30*time.Minute), *res.ExpiresAt)

	steps := []struct {
		actor domain.Actor
		cmd   domain.ReservationCommand
		want  domain.ReservationStatus
	}{
		{provider, domain.AcceptPayload{}, domain.ReservationAccepted},
		{provider, domain.StartJobPayload{}, domain.ReservationEnRoute},
		{provider, domain.RequestPaymentPayload{}, domain.ReservationAwaitingPayment},
		{customer, domain.SubmitPaymentReferencePayload{Reference: "UTR-7781"}, domain.ReservationAwaitingPayment},
		{provider, domain.CompletePayload{Notes: "done"}, domain.ReservationCompleted},
	}
	for _, step := range steps {
		resp, err := h.engine.ApplyReservation(ctx, res.ID, step.actor, step.cmd)
		require.NoError(t, err, step.cmd.Name())
		assert.Equal(t, string(step.want), resp.Status, step.cmd.Name())
	}

	stored := h.ledger.Reservation(res.ID)
	assert.Equal(t, domain.ReservationCompleted, stored.Status)
	assert.Nil(t, stored.ExpiresAt)
	require.NotNil(t, stored.PaymentReference)
	assert.Equal(t, "UTR-7781", *stored.PaymentReference)

	// Событие на создание и на каждый из пяти переходов
	assert.Len(t, h.events.EventsFor(domain.EntityReservation, res.ID), 6)

	timeline, err := h.engine.Timeline(ctx, domain.EntityReservation, res.ID, customer)
	require.NoError(t, err)
	var statuses []string
	for _, e := range timeline.Entries {
		statuses = append(statuses, e.Status)
	}
	assert.Equal(t, []string{"pending", "accepted", "en_route", "awaiting_payment", "completed"}, statuses)

	// Завершенное бронирование продолжает занимать слот
	_, err = h.guard.Reserve(ctx, slotModels.ReserveRequest{ServiceID: serviceID, CustomerID: 99, Date: bookingDate, Label: "10:00"})
	assert.ErrorIs(t, err, domain.ErrSlotFull)
}

func TestApplyReservation_RequestPaymentSetsDeadline(t *testing.T) {
	h := newHarness(t, 1)
	ctx := context.Background()

	res := h.reserve(t, customerID, "10:00")
	for _, cmd := range []domain.ReservationCommand{domain.AcceptPayload{}, domain.StartJobPayload{}, domain.RequestPaymentPayload{}} {
		_, err := h.engine.ApplyReservation(ctx, res.ID, provider, cmd)
		require.NoError(t, err)
	}

	stored := h.ledger.Reservation(res.ID)
	require.NotNil(t, stored.ExpiresAt)
	assert.Equal(t, baseTime.Add(testConfig.AwaitingPaymentTTL), *stored.ExpiresAt)
}

func TestApplyReservation_Idempotent(t *testing.T) {
	h := newHarness(t, 1)
	ctx := context.Background()
	res := h.reserve(t, customerID, "10:00")

	_, err := h.engine.ApplyReservation(ctx, res.ID, provider, domain.AcceptPayload{})
	require.NoError(t, err)
	eventsAfterFirst := len(h.events.Events())

	resp, err := h.engine.ApplyReservation(ctx, res.ID, provider, domain.AcceptPayload{})
	require.NoError(t, err)
	assert.Equal(t, string(domain.ReservationAccepted), resp.Status)
	assert.Len(t, h.events.Events(), eventsAfterFirst)

	// Повтор чужой ролью не считается повтором
	_, err = h.engine.ApplyReservation(ctx, res.ID, customer, domain.AcceptPayload{})
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)
}

func TestApplyReservation_CustomerRescheduleNeedsProviderApproval(t *testing.T) {
	h := newHarness(t, 1)
	ctx := context.Background()
	res := h.reserve(t, customerID, "10:00")

	newDate := bookingDate.AddDate(0, 0, 2)
	resp, err := h.engine.ApplyReservation(ctx, res.ID, customer, domain.ReschedulePayload{Date: newDate, Reason: "travel"})
	require.NoError(t, err)
	assert.Equal(t, string(domain.ReservationRescheduledPendingProviderApproval), resp.Status)
	require.NotNil(t, resp.RescheduleDate)
	assert.Equal(t, "2026-03-14", *resp.RescheduleDate)
	assert.Equal(t, "2026-03-12", resp.BookingDate)
	assert.Nil(t, resp.ExpiresAt)

	_, err = h.engine.ApplyReservation(ctx, res.ID, customer, domain.AcceptPayload{})
	assert.ErrorIs(t, err, domain.ErrUnauthorized)

	resp, err = h.engine.ApplyReservation(ctx, res.ID, provider, domain.AcceptPayload{})
	require.NoError(t, err)
	assert.Equal(t, string(domain.ReservationAccepted), resp.Status)
}

func TestApplyReservation_RescheduleRepeat(t *testing.T) {
	h := newHarness(t, 1)
	ctx := context.Background()
	res := h.reserve(t, customerID, "10:00")

	requested := bookingDate.AddDate(0, 0, 2)
	_, err := h.engine.ApplyReservation(ctx, res.ID, customer, domain.ReschedulePayload{Date: requested})
	require.NoError(t, err)
	eventsAfterFirst := len(h.events.Events())

	tests := []struct {
		name    string
		date    time.Time
		wantErr error
	}{
		{name: "same date is idempotent", date: requested.Add(15 * time.Hour)},
		{name: "other date is rejected", date: bookingDate.AddDate(0, 0, 5), wantErr: domain.ErrInvalidTransition},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := h.engine.ApplyReservation(ctx, res.ID, customer, domain.ReschedulePayload{Date: tt.date})
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				require.NoError(t, err)
				assert.Equal(t, "2026-03-14", *resp.RescheduleDate)
			}

			stored := h.ledger.Reservation(res.ID)
			require.NotNil(t, stored.RescheduleDate)
			assert.True(t, stored.RescheduleDate.Equal(requested))
			assert.Len(t, h.events.Events(), eventsAfterFirst)
		})
	}
}

func TestApplyReservation_CompleteRequiresPayment(t *testing.T) {
	h := newHarness(t, 1)
	ctx := context.Background()
	res := h.reserve(t, customerID, "10:00")
	for _, cmd := range []domain.ReservationCommand{domain.AcceptPayload{}, domain.StartJobPayload{}, domain.RequestPaymentPayload{}} {
		_, err := h.engine.ApplyReservation(ctx, res.ID, provider, cmd)
		require.NoError(t, err)
	}

	_, err := h.engine.ApplyReservation(ctx, res.ID, provider, domain.CompletePayload{})
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)

	resp, err := h.engine.ApplyReservation(ctx, res.ID, provider, domain.CompletePayload{PaymentReceived: true})
	require.NoError(t, err)
	assert.Equal(t, string(domain.ReservationCompleted), resp.Status)
}

func TestApplyReservation_DisputeKeepsStatus(t *testing.T) {
	h := newHarness(t, 1)
	ctx := context.Background()
	res := h.reserve(t, customerID, "10:00")
	for _, cmd := range []domain.ReservationCommand{domain.AcceptPayload{}, domain.StartJobPayload{}, domain.RequestPaymentPayload{}} {
		_, err := h.engine.ApplyReservation(ctx, res.ID, provider, cmd)
		require.NoError(t, err)
	}

	resp, err := h.engine.ApplyReservation(ctx, res.ID, customer, domain.ReportDisputePayload{Reason: "amount differs"})
	require.NoError(t, err)
	assert.Equal(t, string(domain.ReservationAwaitingPayment), resp.Status)
	assert.True(t, resp.Disputed)

	events := h.events.EventsFor(domain.EntityReservation, res.ID)
	last := events[len(events)-1]
	assert.Equal(t, "awaiting_payment", last.OldState)
	assert.Equal(t, "awaiting_payment", last.NewState)
}

func TestApplyReservation_Errors(t *testing.T) {
	h := newHarness(t, 1)
	ctx := context.Background()
	res := h.reserve(t, customerID, "10:00")

	tests := []struct {
		name    string
		id      int64
		actor   domain.Actor
		cmd     domain.ReservationCommand
		wantErr error
	}{
		{
			name:    "not found",
			id:      999,
			actor:   provider,
			cmd:     domain.AcceptPayload{},
			wantErr: domain.ErrNotFound,
		},
		{
			name:    "customer cannot accept",
			id:      res.ID,
			actor:   customer,
			cmd:     domain.AcceptPayload{},
			wantErr: domain.ErrUnauthorized,
		},
		{
			name:    "other provider",
			id:      res.ID,
			actor:   domain.Actor{ID: providerID + 1, Role: domain.RoleProvider},
			cmd:     domain.AcceptPayload{},
			wantErr: domain.ErrUnauthorized,
		},
		{
			name:    "other customer cannot cancel",
			id:      res.ID,
			actor:   domain.Actor{ID: customerID + 1, Role: domain.RoleCustomer},
			cmd:     domain.CancelReservationPayload{},
			wantErr: domain.ErrUnauthorized,
		},
		{
			name:    "pending cannot complete",
			id:      res.ID,
			actor:   provider,
			cmd:     domain.CompletePayload{PaymentReceived: true},
			wantErr: domain.ErrInvalidTransition,
		},
		{
			name:    "reschedule into the past",
			id:      res.ID,
			actor:   provider,
			cmd:     domain.ReschedulePayload{Date: baseTime.AddDate(0, 0, -3)},
			wantErr: domain.ErrInvalidCommand,
		},
		{
			name:    "payment reference outside awaiting_payment",
			id:      res.ID,
			actor:   customer,
			cmd:     domain.SubmitPaymentReferencePayload{Reference: "UTR"},
			wantErr: domain.ErrInvalidTransition,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := h.engine.ApplyReservation(ctx, tt.id, tt.actor, tt.cmd)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}

	assert.Equal(t, domain.ReservationPending, h.ledger.Reservation(res.ID).Status)
}

func TestApplyReservation_ExpiredBeforeSweep(t *testing.T) {
	h := newHarness(t, 1)
	ctx := context.Background()
	res := h.reserve(t, customerID, "10:00")

	h.clock.Advance(31 * time.Minute)

	_, err := h.engine.ApplyReservation(ctx, res.ID, provider, domain.AcceptPayload{})
	assert.ErrorIs(t, err, domain.ErrExpired)

	resp, err := h.engine.ApplyReservation(ctx, res.ID, customer, domain.CancelReservationPayload{Reason: "changed plans"})
	require.NoError(t, err)
	assert.Equal(t, string(domain.ReservationCancelled), resp.Status)
}

// racingReservations меняет статус в ledger между чтением и условной записью
type racingReservations struct {
	*memledger.Reservations
	ledger *memledger.Ledger
}

func (r *racingReservations) UpdateIfStatus(ctx context.Context, res *domain.Reservation, expected domain.ReservationStatus) error {
	concurrent := r.ledger.Reservation(res.ID)
	concurrent.Status = domain.ReservationCancelled
	r.ledger.PutReservation(*concurrent)
	return r.Reservations.UpdateIfStatus(ctx, res, expected)
}

func TestApplyReservation_StaleWrite(t *testing.T) {
	h := newHarness(t, 1)
	res := h.reserve(t, customerID, "10:00")
	eventsBefore := len(h.events.Events())

	h.engine.reservations = &racingReservations{Reservations: h.ledger.Reservations(), ledger: h.ledger}

	_, err := h.engine.ApplyReservation(context.Background(), res.ID, provider, domain.AcceptPayload{})
	assert.ErrorIs(t, err, domain.ErrStale)
	assert.True(t, domain.IsRetryable(err))
	assert.Len(t, h.events.Events(), eventsBefore)
}

func TestApplyReservation_NotificationFailureDoesNotRollback(t *testing.T) {
	h := newHarness(t, 1)
	res := h.reserve(t, customerID, "10:00")
	h.events.Err = fmt.Errorf("broker unavailable")

	resp, err := h.engine.ApplyReservation(context.Background(), res.ID, provider, domain.AcceptPayload{})
	require.NoError(t, err)
	assert.Equal(t, string(domain.ReservationAccepted), resp.Status)
	assert.Equal(t, domain.ReservationAccepted, h.ledger.Reservation(res.ID).Status)
}

func TestApplyReservation_WaitlistPromotion(t *testing.T) {
	h := newHarness(t, 2)
	ctx := context.Background()

	x := h.reserve(t, 101, "10:00")
	y := h.reserve(t, 102, "10:00")

	for _, id := range []int64{201, 202} {
		_, err := h.guard.JoinWaitlist(ctx, slotModels.WaitlistRequest{ServiceID: serviceID, CustomerID: id, Date: bookingDate, Label: "10:00"})
		require.NoError(t, err)
	}
	pos, err := h.guard.WaitlistPosition(ctx, 201, h.slot("10:00"))
	require.NoError(t, err)
	assert.Equal(t, 0, pos)
	pos, err = h.guard.WaitlistPosition(ctx, 202, h.slot("10:00"))
	require.NoError(t, err)
	assert.Equal(t, 1, pos)

	_, err = h.engine.ApplyReservation(ctx, x.ID, domain.Actor{ID: 101, Role: domain.RoleCustomer}, domain.CancelReservationPayload{})
	require.NoError(t, err)

	assert.Equal(t, 2, h.ledger.Occupied(h.slot("10:00")))
	pos, err = h.guard.WaitlistPosition(ctx, 202, h.slot("10:00"))
	require.NoError(t, err)
	assert.Equal(t, 0, pos)
	_, err = h.guard.WaitlistPosition(ctx, 201, h.slot("10:00"))
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = h.engine.ApplyReservation(ctx, y.ID, provider, domain.RejectPayload{Reason: "unavailable"})
	require.NoError(t, err)

	assert.Equal(t, 2, h.ledger.Occupied(h.slot("10:00")))
	_, err = h.guard.WaitlistPosition(ctx, 202, h.slot("10:00"))
	assert.ErrorIs(t, err, domain.ErrNotFound)

	var promoted int
	for _, e := range h.events.Events() {
		if e.ActorRole == domain.RoleSystem && e.NewState == string(domain.ReservationPending) {
			promoted++
		}
	}
	assert.Equal(t, 2, promoted)
}

func TestExpireReservation(t *testing.T) {
	h := newHarness(t, 1)
	ctx := context.Background()
	res := h.reserve(t, customerID, "10:00")

	ok, err := h.engine.ExpireReservation(ctx, res, h.clock.Now())
	require.NoError(t, err)
	assert.False(t, ok, "deadline has not passed yet")

	h.clock.Advance(31 * time.Minute)

	ok, err = h.engine.ExpireReservation(ctx, res, h.clock.Now())
	require.NoError(t, err)
	assert.True(t, ok)

	stored := h.ledger.Reservation(res.ID)
	assert.Equal(t, domain.ReservationCancelled, stored.Status)
	require.NotNil(t, stored.CancellationReason)
	assert.Equal(t, domain.ExpiredReason, *stored.CancellationReason)
	assert.Nil(t, stored.ExpiresAt)

	ok, err = h.engine.ExpireReservation(ctx, res, h.clock.Now())
	require.NoError(t, err)
	assert.False(t, ok)

	events := h.events.EventsFor(domain.EntityReservation, res.ID)
	last := events[len(events)-1]
	assert.Equal(t, domain.RoleSystem, last.ActorRole)
	assert.Equal(t, "cancelled", last.NewState)
}

type failingAdvisor struct{}

func (failingAdvisor) Advise(context.Context, int64, *domain.Reservation) (*proximity.Advisory, error) {
	return nil, fmt.Errorf("schedule unavailable")
}

func TestGetReservation_ProximityAdvisoryForProvider(t *testing.T) {
	h := newHarness(t, 2)
	ctx := context.Background()

	store := cache.NewMemoryStore(0)
	t.Cleanup(func() { _ = store.Close() })
	schedules := cache.NewWithStore(store, cache.BackendMemory, time.Minute, logger.NewNop(), nil)
	h.engine.WithAdvisor(proximity.NewAdvisor(h.ledger.Reservations(), schedules, logger.NewNop(), 5, time.Minute))

	first := h.reserve(t, 101, "10:00")
	second := h.reserve(t, 102, "11:00")

	resp, err := h.engine.GetReservation(ctx, second.ID, provider)
	require.NoError(t, err)
	require.NotNil(t, resp.ProximityAdvisory)
	assert.Equal(t, first.ID, resp.ProximityAdvisory.ReservationID)
	assert.Equal(t, "10:00", resp.ProximityAdvisory.TimeSlotLabel)

	// клиент не видит чужие бронирования исполнителя
	resp, err = h.engine.GetReservation(ctx, second.ID, domain.Actor{ID: 102, Role: domain.RoleCustomer})
	require.NoError(t, err)
	assert.Nil(t, resp.ProximityAdvisory)

	h.engine.WithAdvisor(failingAdvisor{})
	resp, err = h.engine.GetReservation(ctx, second.ID, provider)
	require.NoError(t, err)
	assert.Nil(t, resp.ProximityAdvisory)
	assert.Equal(t, string(domain.ReservationPending), resp.Status)
}
