package get_slot_occupancy

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-BookingEngine/internal/domain"
	"github.com/m04kA/SMC-BookingEngine/internal/infra/cache"
	"github.com/m04kA/SMC-BookingEngine/internal/infra/lock"
	"github.com/m04kA/SMC-BookingEngine/internal/service/events"
	"github.com/m04kA/SMC-BookingEngine/internal/service/slots"
	slotModels "github.com/m04kA/SMC-BookingEngine/internal/service/slots/models"
	"github.com/m04kA/SMC-BookingEngine/internal/testutil/memledger"
	"github.com/m04kA/SMC-BookingEngine/pkg/logger"
)

var (
	now     = time.Date(2026, 4, 6, 9, 30, 0, 0, time.UTC)
	today   = time.Date(2026, 4, 6, 0, 0, 0, 0, time.UTC)
	morning = Window{Start: 8 * time.Hour, End: 12 * time.Hour}
)

type fixedTime struct{ t time.Time }

func (f fixedTime) Now() time.Time { return f.t }

func TestParseWindow(t *testing.T) {
	w, err := ParseWindow("08:00", "12:30")
	require.NoError(t, err)
	assert.Equal(t, 8*time.Hour, w.Start)
	assert.Equal(t, 12*time.Hour+30*time.Minute, w.End)

	_, err = ParseWindow("8", "12:00")
	assert.Error(t, err)
}

func TestGenerateLabels(t *testing.T) {
	tests := []struct {
		name     string
		duration int
		date     time.Time
		want     []string
	}{
		{"hourly tomorrow", 60, today.AddDate(0, 0, 1), []string{"08:00", "09:00", "10:00", "11:00"}},
		{"ninety minutes does not overflow window", 90, today.AddDate(0, 0, 1), []string{"08:00", "09:30"}},
		{"today drops started slots", 60, today, []string{"10:00", "11:00"}},
		{"past date", 60, today.AddDate(0, 0, -1), []string{}},
		{"zero duration", 0, today.AddDate(0, 0, 1), []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, generateLabels(morning, tt.duration, tt.date, now))
		})
	}
}

func setup(t *testing.T) (*UseCase, *slots.Guard) {
	t.Helper()

	ledger := memledger.New(func() time.Time { return now })
	ledger.PutConfig(domain.ServiceSlotConfig{
		ServiceID: 5, ProviderID: 50, ServiceName: "Massage", DurationMinutes: 60, MaxBookingsPerSlot: 2,
	})

	log := logger.NewNop()
	store := cache.NewMemoryStore(0)
	t.Cleanup(func() { _ = store.Close() })

	guard := slots.NewGuard(
		ledger.Reservations(),
		ledger.Waitlist(),
		ledger.SlotConfigs(),
		ledger.History(),
		lock.NewLocal(time.Second),
		cache.NewWithStore(store, cache.BackendMemory, time.Minute, log, nil),
		events.NewPublisher(&memledger.Dispatcher{}, log, nil),
		memledger.TxManager{},
		nil,
		log,
		30*time.Minute,
		time.Minute,
	).WithClock(func() time.Time { return now })

	uc := NewUseCase(guard, ledger.SlotConfigs(), morning, log)
	uc.timeProvider = fixedTime{t: now}
	return uc, guard
}

func TestUseCase_Execute(t *testing.T) {
	uc, guard := setup(t)
	ctx := context.Background()
	tomorrow := today.AddDate(0, 0, 1)

	for _, customer := range []int64{1, 2} {
		_, err := guard.Reserve(ctx, reserveRequest(customer, tomorrow, "09:00"))
		require.NoError(t, err)
	}
	_, err := guard.Reserve(ctx, reserveRequest(3, tomorrow, "10:00"))
	require.NoError(t, err)

	resp, err := uc.Execute(ctx, &Request{ServiceID: 5, Date: tomorrow})
	require.NoError(t, err)
	require.Len(t, resp.Slots, 4)

	byLabel := make(map[string]Slot)
	for _, s := range resp.Slots {
		byLabel[s.Label] = s
	}
	assert.Equal(t, Slot{Label: "09:00", DurationMinutes: 60, Occupied: 2, AvailableSpots: 0, TotalSpots: 2}, byLabel["09:00"])
	assert.Equal(t, 1, byLabel["10:00"].AvailableSpots)
	assert.Equal(t, 2, byLabel["11:00"].AvailableSpots)

	// Клиент может запросить произвольные метки
	resp, err = uc.Execute(ctx, &Request{ServiceID: 5, Date: tomorrow, Labels: []string{"evening"}})
	require.NoError(t, err)
	require.Len(t, resp.Slots, 1)
	assert.Equal(t, "evening", resp.Slots[0].Label)
}

func TestUseCase_Errors(t *testing.T) {
	tests := []struct {
		name    string
		req     Request
		wantErr error
	}{
		{"missing service", Request{Date: today}, ErrInvalidInput},
		{"missing date", Request{ServiceID: 5}, ErrInvalidInput},
		{"blank label", Request{ServiceID: 5, Date: today, Labels: []string{" "}}, ErrInvalidInput},
		{"past date", Request{ServiceID: 5, Date: today.AddDate(0, 0, -1)}, ErrInvalidDate},
		{"unknown service", Request{ServiceID: 404, Date: today}, domain.ErrNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			uc, _ := setup(t)
			req := tt.req
			_, err := uc.Execute(context.Background(), &req)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func reserveRequest(customerID int64, date time.Time, label string) slotModels.ReserveRequest {
	return slotModels.ReserveRequest{ServiceID: 5, CustomerID: customerID, Date: date, Label: label}
}
