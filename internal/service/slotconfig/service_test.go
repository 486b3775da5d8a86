package slotconfig

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-BookingEngine/internal/domain"
	"github.com/m04kA/SMC-BookingEngine/internal/infra/cache"
	"github.com/m04kA/SMC-BookingEngine/internal/service/slotconfig/models"
	"github.com/m04kA/SMC-BookingEngine/internal/testutil/memledger"
	"github.com/m04kA/SMC-BookingEngine/pkg/logger"
	"github.com/m04kA/SMC-BookingEngine/pkg/ptr"
)

var provider = domain.Actor{ID: 20, Role: domain.RoleProvider}

func setup(t *testing.T) (*Service, *memledger.Ledger, *cache.Service) {
	t.Helper()

	ledger := memledger.New(func() time.Time { return time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC) })
	log := logger.NewNop()

	store := cache.NewMemoryStore(0)
	t.Cleanup(func() { _ = store.Close() })
	c := cache.NewWithStore(store, cache.BackendMemory, time.Minute, log, nil)

	return NewService(ledger.SlotConfigs(), c, log), ledger, c
}

func TestService_UpsertCreatesWithDefaults(t *testing.T) {
	svc, _, _ := setup(t)
	ctx := context.Background()

	resp, err := svc.Upsert(ctx, provider, &models.UpsertConfigRequest{
		ServiceID:   10,
		ServiceName: ptr.Ptr("  Window cleaning "),
		Price:       ptr.Ptr(900.0),
	})
	require.NoError(t, err)
	assert.Equal(t, int64(20), resp.ProviderID)
	assert.Equal(t, "Window cleaning", resp.ServiceName)
	assert.Equal(t, domain.DefaultDurationMinutes, resp.DurationMinutes)
	assert.Equal(t, domain.DefaultMaxBookingsPerSlot, resp.MaxBookingsPerSlot)

	got, err := svc.Get(ctx, 10)
	require.NoError(t, err)
	assert.Equal(t, resp.ServiceName, got.ServiceName)
}

func TestService_UpsertCapacityInvalidatesOccupancy(t *testing.T) {
	svc, ledger, c := setup(t)
	ctx := context.Background()
	ledger.PutConfig(domain.ServiceSlotConfig{
		ServiceID: 10, ProviderID: 20, ServiceName: "Repair", DurationMinutes: 60, MaxBookingsPerSlot: 1,
	})

	slot := domain.SlotKey{ServiceID: 10, Date: time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC), Label: "10:00"}
	other := domain.SlotKey{ServiceID: 11, Date: slot.Date, Label: "10:00"}
	require.NoError(t, c.SetJSON(ctx, cache.OccupancyKey(slot), 1, 0))
	require.NoError(t, c.SetJSON(ctx, cache.OccupancyKey(other), 0, 0))

	// Изменение цены не трогает кэш занятости
	_, err := svc.Upsert(ctx, provider, &models.UpsertConfigRequest{ServiceID: 10, Price: ptr.Ptr(100.0)})
	require.NoError(t, err)
	var occ int
	assert.True(t, c.GetJSON(ctx, cache.OccupancyKey(slot), &occ))

	resp, err := svc.Upsert(ctx, provider, &models.UpsertConfigRequest{ServiceID: 10, MaxBookingsPerSlot: ptr.Ptr(3)})
	require.NoError(t, err)
	assert.Equal(t, 3, resp.MaxBookingsPerSlot)
	assert.False(t, c.GetJSON(ctx, cache.OccupancyKey(slot), &occ))
	assert.True(t, c.GetJSON(ctx, cache.OccupancyKey(other), &occ))
}

func TestService_Errors(t *testing.T) {
	tests := []struct {
		name    string
		actor   domain.Actor
		req     models.UpsertConfigRequest
		wantErr error
	}{
		{
			name:    "customer cannot change config",
			actor:   domain.Actor{ID: 30, Role: domain.RoleCustomer},
			req:     models.UpsertConfigRequest{ServiceID: 10, Price: ptr.Ptr(1.0)},
			wantErr: domain.ErrUnauthorized,
		},
		{
			name:    "foreign provider",
			actor:   domain.Actor{ID: 21, Role: domain.RoleProvider},
			req:     models.UpsertConfigRequest{ServiceID: 10, Price: ptr.Ptr(1.0)},
			wantErr: domain.ErrUnauthorized,
		},
		{
			name:    "zero capacity",
			actor:   provider,
			req:     models.UpsertConfigRequest{ServiceID: 10, MaxBookingsPerSlot: ptr.Ptr(0)},
			wantErr: ErrInvalidInput,
		},
		{
			name:    "capacity above limit",
			actor:   provider,
			req:     models.UpsertConfigRequest{ServiceID: 10, MaxBookingsPerSlot: ptr.Ptr(domain.MaxBookingsPerSlot + 1)},
			wantErr: ErrInvalidInput,
		},
		{
			name:    "duration too long",
			actor:   provider,
			req:     models.UpsertConfigRequest{ServiceID: 10, DurationMinutes: ptr.Ptr(600)},
			wantErr: ErrInvalidInput,
		},
		{
			name:    "negative price",
			actor:   provider,
			req:     models.UpsertConfigRequest{ServiceID: 10, Price: ptr.Ptr(-5.0)},
			wantErr: ErrInvalidInput,
		},
		{
			name:    "empty name",
			actor:   provider,
			req:     models.UpsertConfigRequest{ServiceID: 10, ServiceName: ptr.Ptr("   ")},
			wantErr: ErrInvalidInput,
		},
		{
			name:    "new service without name",
			actor:   provider,
			req:     models.UpsertConfigRequest{ServiceID: 99, Price: ptr.Ptr(10.0)},
			wantErr: ErrInvalidInput,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, ledger, _ := setup(t)
			ledger.PutConfig(domain.ServiceSlotConfig{
				ServiceID: 10, ProviderID: 20, ServiceName: "Repair", DurationMinutes: 60, MaxBookingsPerSlot: 1,
			})

			req := tt.req
			_, err := svc.Upsert(context.Background(), tt.actor, &req)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestService_GetNotFound(t *testing.T) {
	svc, _, _ := setup(t)

	_, err := svc.Get(context.Background(), 404)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
