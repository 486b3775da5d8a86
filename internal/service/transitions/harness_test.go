package transitions

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-BookingEngine/internal/domain"
	"github.com/m04kA/SMC-BookingEngine/internal/infra/cache"
	"github.com/m04kA/SMC-BookingEngine/internal/infra/lock"
	"github.com/m04kA/SMC-BookingEngine/internal/infra/storage/shop"
	"github.com/m04kA/SMC-BookingEngine/internal/service/events"
	"github.com/m04kA/SMC-BookingEngine/internal/service/slots"
	slotModels "github.com/m04kA/SMC-BookingEngine/internal/service/slots/models"
	"github.com/m04kA/SMC-BookingEngine/internal/testutil/memledger"
	"github.com/m04kA/SMC-BookingEngine/pkg/logger"
)

const (
	serviceID  = int64(10)
	providerID = int64(20)
	customerID = int64(30)
	shopID     = int64(40)
	ownerID    = int64(50)
)

var (
	baseTime    = time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	bookingDate = time.Date(2026, 3, 12, 0, 0, 0, 0, time.UTC)
	testConfig  = Config{AwaitingPaymentTTL: 24 * time.Hour, OrderPendingTTL: 2 * time.Hour}
)

var (
	customer  = domain.Actor{ID: customerID, Role: domain.RoleCustomer}
	provider  = domain.Actor{ID: providerID, Role: domain.RoleProvider}
	shopOwner = domain.Actor{ID: ownerID, Role: domain.RoleShopOwner}
)

type harness struct {
	ledger *memledger.Ledger
	clock  *memledger.Clock
	events *memledger.Dispatcher
	guard  *slots.Guard
	engine *Engine
}

func newHarness(t *testing.T, capacity int) *harness {
	t.Helper()

	clock := memledger.NewClock(baseTime)
	ledger := memledger.New(clock.Now)
	ledger.PutConfig(domain.ServiceSlotConfig{
		ServiceID:          serviceID,
		ProviderID:         providerID,
		ServiceName:        "Deep cleaning",
		Price:              1500,
		DurationMinutes:    90,
		MaxBookingsPerSlot: capacity,
	})
	ledger.PutShop(shop.Settings{ShopID: shopID, OwnerID: ownerID, ReturnsEnabled: true})

	log := logger.NewNop()
	dispatcher := &memledger.Dispatcher{}
	publisher := events.NewPublisher(dispatcher, log, nil)

	store := cache.NewMemoryStore(0)
	t.Cleanup(func() { _ = store.Close() })
	occupancyCache := cache.NewWithStore(store, cache.BackendMemory, time.Minute, log, nil)

	guard := slots.NewGuard(
		ledger.Reservations(),
		ledger.Waitlist(),
		ledger.SlotConfigs(),
		ledger.History(),
		lock.NewLocal(time.Second),
		occupancyCache,
		publisher,
		memledger.TxManager{},
		nil,
		log,
		30*time.Minute,
		time.Minute,
	).WithClock(clock.Now)

	engine := NewEngine(
		ledger.Reservations(),
		ledger.Orders(),
		ledger.History(),
		ledger.Shops(),
		guard,
		occupancyCache,
		publisher,
		memledger.TxManager{},
		nil,
		log,
		testConfig,
	).WithClock(clock.Now)

	return &harness{ledger: ledger, clock: clock, events: dispatcher, guard: guard, engine: engine}
}

func (h *harness) reserve(t *testing.T, customerID int64, label string) *domain.Reservation {
	t.Helper()
	res, err := h.guard.Reserve(context.Background(), slotModels.ReserveRequest{
		ServiceID:  serviceID,
		CustomerID: customerID,
		Date:       bookingDate,
		Label:      label,
		Location:   domain.GeoPoint{Lat: 12.97, Lng: 77.59},
	})
	require.NoError(t, err)
	return res
}

func (h *harness) slot(label string) domain.SlotKey {
	return domain.SlotKey{ServiceID: serviceID, Date: bookingDate, Label: label}
}

func actorFor(role domain.ActorRole) domain.Actor {
	switch role {
	case domain.RoleCustomer:
		return customer
	case domain.RoleProvider:
		return provider
	case domain.RoleShopOwner:
		return shopOwner
	}
	return domain.Actor{Role: role}
}

var allRoles = []domain.ActorRole{domain.RoleCustomer, domain.RoleProvider, domain.RoleShopOwner, domain.RoleSystem}
