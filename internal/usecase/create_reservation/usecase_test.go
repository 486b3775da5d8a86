package create_reservation

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-BookingEngine/internal/domain"
	"github.com/m04kA/SMC-BookingEngine/internal/infra/cache"
	"github.com/m04kA/SMC-BookingEngine/internal/infra/lock"
	"github.com/m04kA/SMC-BookingEngine/internal/service/events"
	"github.com/m04kA/SMC-BookingEngine/internal/service/slots"
	"github.com/m04kA/SMC-BookingEngine/internal/testutil/memledger"
	"github.com/m04kA/SMC-BookingEngine/pkg/logger"
	"github.com/m04kA/SMC-BookingEngine/pkg/ptr"
)

const (
	serviceID  = int64(3)
	providerID = int64(33)
)

var (
	now      = time.Date(2026, 6, 1, 10, 0, 0, 0, time.UTC)
	tomorrow = time.Date(2026, 6, 2, 0, 0, 0, 0, time.UTC)
	customer = domain.Actor{ID: 300, Role: domain.RoleCustomer}

	home = domain.GeoPoint{Lat: 55.7558, Lng: 37.6173}
)

type fixedTime struct{ t time.Time }

func (f fixedTime) Now() time.Time { return f.t }

type fixture struct {
	ledger *memledger.Ledger
	guard  *slots.Guard
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	ledger := memledger.New(func() time.Time { return now })
	ledger.PutConfig(domain.ServiceSlotConfig{
		ServiceID: serviceID, ProviderID: providerID, ServiceName: "Plumbing", Price: 700, DurationMinutes: 60, MaxBookingsPerSlot: 1,
	})

	log := logger.NewNop()
	store := cache.NewMemoryStore(0)
	t.Cleanup(func() { _ = store.Close() })
	c := cache.NewWithStore(store, cache.BackendMemory, time.Minute, log, nil)

	guard := slots.NewGuard(
		ledger.Reservations(),
		ledger.Waitlist(),
		ledger.SlotConfigs(),
		ledger.History(),
		lock.NewLocal(time.Second),
		c,
		events.NewPublisher(&memledger.Dispatcher{}, log, nil),
		memledger.TxManager{},
		nil,
		log,
		30*time.Minute,
		time.Minute,
	).WithClock(func() time.Time { return now })

	return &fixture{ledger: ledger, guard: guard}
}

func (f *fixture) useCase() *UseCase {
	uc := NewUseCase(f.guard, logger.NewNop())
	uc.timeProvider = fixedTime{t: now}
	return uc
}

func TestUseCase_CreatesPendingWithSnapshot(t *testing.T) {
	f := newFixture(t)

	resp, err := f.useCase().Execute(context.Background(), &Request{
		Actor:         customer,
		ServiceID:     serviceID,
		Date:          tomorrow,
		TimeSlotLabel: " 10:00 ",
		Location:      home,
		Comments:      ptr.Ptr("ring twice"),
	})
	require.NoError(t, err)

	res := resp.Reservation
	assert.Equal(t, domain.ReservationPending, res.Status)
	assert.Equal(t, "10:00", res.TimeSlotLabel)
	assert.Equal(t, providerID, res.ProviderID)
	assert.Equal(t, "Plumbing", res.Snapshot.ServiceName)
	require.NotNil(t, res.ExpiresAt)
	assert.Equal(t, now.Add(30*time.Minute), *res.ExpiresAt)
	assert.Equal(t, 1, f.ledger.Occupied(res.Slot()))
}

func TestUseCase_Errors(t *testing.T) {
	valid := func() Request {
		return Request{Actor: customer, ServiceID: serviceID, Date: tomorrow, TimeSlotLabel: "10:00"}
	}

	tests := []struct {
		name    string
		mutate  func(r *Request)
		prefill bool
		wantErr error
	}{
		{"provider cannot reserve", func(r *Request) { r.Actor.Role = domain.RoleProvider }, false, domain.ErrUnauthorized},
		{"missing service", func(r *Request) { r.ServiceID = 0 }, false, ErrInvalidInput},
		{"blank label", func(r *Request) { r.TimeSlotLabel = "  " }, false, ErrInvalidInput},
		{"long label", func(r *Request) { r.TimeSlotLabel = strings.Repeat("x", domain.MaxTimeSlotLabelLen+1) }, false, ErrInvalidInput},
		{"bad latitude", func(r *Request) { r.Location = domain.GeoPoint{Lat: 91} }, false, ErrInvalidInput},
		{"past date", func(r *Request) { r.Date = now.AddDate(0, 0, -1) }, false, ErrInvalidDate},
		{"unknown service", func(r *Request) { r.ServiceID = 404 }, false, domain.ErrNotFound},
		{"slot full", func(r *Request) {}, true, domain.ErrSlotFull},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			uc := f.useCase()
			if tt.prefill {
				other := valid()
				other.Actor.ID = 301
				_, err := uc.Execute(context.Background(), &other)
				require.NoError(t, err)
			}

			req := valid()
			tt.mutate(&req)
			_, err := uc.Execute(context.Background(), &req)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}
