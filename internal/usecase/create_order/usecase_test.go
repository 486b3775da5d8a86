package create_order

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-BookingEngine/internal/domain"
	"github.com/m04kA/SMC-BookingEngine/internal/infra/storage/shop"
	"github.com/m04kA/SMC-BookingEngine/internal/service/events"
	"github.com/m04kA/SMC-BookingEngine/internal/testutil/memledger"
	"github.com/m04kA/SMC-BookingEngine/pkg/logger"
)

var (
	now      = time.Date(2026, 7, 1, 15, 0, 0, 0, time.UTC)
	customer = domain.Actor{ID: 900, Role: domain.RoleCustomer}
)

type fixedTime struct{ t time.Time }

func (f fixedTime) Now() time.Time { return f.t }

func setup(t *testing.T) (*UseCase, *memledger.Ledger, *memledger.Dispatcher) {
	t.Helper()

	ledger := memledger.New(func() time.Time { return now })
	ledger.PutShop(shop.Settings{ShopID: 1, OwnerID: 10, ReturnsEnabled: true})
	ledger.PutShop(shop.Settings{ShopID: 2, OwnerID: 20, ReturnsEnabled: false})

	log := logger.NewNop()
	dispatcher := &memledger.Dispatcher{}
	uc := NewUseCase(
		ledger.Orders(),
		ledger.Shops(),
		ledger.History(),
		events.NewPublisher(dispatcher, log, nil),
		memledger.TxManager{},
		log,
		2*time.Hour,
	)
	uc.timeProvider = fixedTime{t: now}
	return uc, ledger, dispatcher
}

func TestUseCase_CreatesPendingOrder(t *testing.T) {
	uc, ledger, dispatcher := setup(t)
	ctx := context.Background()

	created, err := uc.Execute(ctx, &Request{
		Actor:          customer,
		ShopID:         1,
		OrderType:      domain.OrderTypeNormal,
		Total:          450,
		DeliveryMethod: domain.DeliveryDelivery,
	})
	require.NoError(t, err)

	assert.Equal(t, domain.OrderPending, created.Status)
	assert.Equal(t, domain.PaymentPending, created.PaymentStatus)
	assert.True(t, created.ReturnsEnabled)
	require.NotNil(t, created.ExpiresAt)
	assert.Equal(t, now.Add(2*time.Hour), *created.ExpiresAt)

	history, err := ledger.History().ListByEntity(ctx, domain.EntityOrder, created.ID)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, string(domain.OrderPending), history[0].Status)

	evts := dispatcher.EventsFor(domain.EntityOrder, created.ID)
	require.Len(t, evts, 1)
	assert.Equal(t, "", evts[0].OldState)
	assert.Equal(t, string(domain.OrderPending), evts[0].NewState)
}

func TestUseCase_TextOrderCopiesShopSettings(t *testing.T) {
	uc, _, _ := setup(t)

	created, err := uc.Execute(context.Background(), &Request{
		Actor:          customer,
		ShopID:         2,
		OrderType:      domain.OrderTypeText,
		DeliveryMethod: domain.DeliveryPickup,
	})
	require.NoError(t, err)
	assert.True(t, created.IsTextOrder())
	assert.False(t, created.ReturnsEnabled)
	assert.Zero(t, created.Total)
}

func TestUseCase_Errors(t *testing.T) {
	valid := func() Request {
		return Request{Actor: customer, ShopID: 1, OrderType: domain.OrderTypeNormal, Total: 10, DeliveryMethod: domain.DeliveryPickup}
	}

	tests := []struct {
		name    string
		mutate  func(r *Request)
		wantErr error
	}{
		{"shop owner cannot order", func(r *Request) { r.Actor.Role = domain.RoleShopOwner }, domain.ErrUnauthorized},
		{"missing shop", func(r *Request) { r.ShopID = 0 }, ErrInvalidInput},
		{"unknown type", func(r *Request) { r.OrderType = "bulk" }, ErrInvalidInput},
		{"zero total", func(r *Request) { r.Total = 0 }, ErrInvalidInput},
		{"text order with total", func(r *Request) { r.OrderType = domain.OrderTypeText }, ErrInvalidInput},
		{"unknown delivery", func(r *Request) { r.DeliveryMethod = "drone" }, ErrInvalidInput},
		{"unknown shop", func(r *Request) { r.ShopID = 404 }, domain.ErrNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			uc, _, _ := setup(t)
			req := valid()
			tt.mutate(&req)
			_, err := uc.Execute(context.Background(), &req)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}
