package slots

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/m04kA/SMC-BookingEngine/internal/domain"
	"github.com/m04kA/SMC-BookingEngine/internal/infra/cache"
	"github.com/m04kA/SMC-BookingEngine/internal/infra/lock"
	"github.com/m04kA/SMC-BookingEngine/internal/service/events"
	"github.com/m04kA/SMC-BookingEngine/internal/service/slots/models"
	"github.com/m04kA/SMC-BookingEngine/internal/testutil/memledger"
	"github.com/m04kA/SMC-BookingEngine/pkg/logger"
)

const (
	serviceID  = int64(11)
	providerID = int64(21)
)

var bookingDate = time.Date(2026, 4, 2, 0, 0, 0, 0, time.UTC)

type fixture struct {
	ledger     *memledger.Ledger
	dispatcher *memledger.Dispatcher
	cache      *cache.Service
	guard      *Guard
}

type option func(*fixture, *guardDeps)

type guardDeps struct {
	reservations ReservationRepository
	locker       Locker
}

func withLocker(l Locker) option {
	return func(_ *fixture, d *guardDeps) { d.locker = l }
}

func withReservations(wrap func(*memledger.Reservations) ReservationRepository) option {
	return func(f *fixture, d *guardDeps) { d.reservations = wrap(f.ledger.Reservations()) }
}

func newFixture(t *testing.T, capacity int, opts ...option) *fixture {
	t.Helper()

	clock := memledger.NewClock(time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC))
	ledger := memledger.New(clock.Now)
	ledger.PutConfig(domain.ServiceSlotConfig{
		ServiceID:          serviceID,
		ProviderID:         providerID,
		ServiceName:        "AC service",
		Price:              900,
		DurationMinutes:    60,
		MaxBookingsPerSlot: capacity,
	})

	log := logger.NewNop()
	store := cache.NewMemoryStore(0)
	t.Cleanup(func() { _ = store.Close() })

	f := &fixture{
		ledger:     ledger,
		dispatcher: &memledger.Dispatcher{},
		cache:      cache.NewWithStore(store, cache.BackendMemory, time.Minute, log, nil),
	}

	deps := &guardDeps{reservations: ledger.Reservations(), locker: lock.NewLocal(2 * time.Second)}
	for _, opt := range opts {
		opt(f, deps)
	}

	f.guard = NewGuard(
		deps.reservations,
		ledger.Waitlist(),
		ledger.SlotConfigs(),
		ledger.History(),
		deps.locker,
		f.cache,
		events.NewPublisher(f.dispatcher, log, nil),
		memledger.TxManager{},
		nil,
		log,
		30*time.Minute,
		time.Minute,
	).WithClock(clock.Now)
	return f
}

func (f *fixture) slot() domain.SlotKey {
	return domain.SlotKey{ServiceID: serviceID, Date: bookingDate, Label: "09:00"}
}

func reserveRequest(customerID int64) models.ReserveRequest {
	return models.ReserveRequest{ServiceID: serviceID, CustomerID: customerID, Date: bookingDate, Label: "09:00"}
}

func waitlistRequest(customerID int64) models.WaitlistRequest {
	return models.WaitlistRequest{ServiceID: serviceID, CustomerID: customerID, Date: bookingDate, Label: "09:00"}
}

// cancel переводит бронирование в cancelled в обход движка переходов
func (f *fixture) cancel(t *testing.T, id int64) {
	t.Helper()
	res := f.ledger.Reservation(id)
	require.NotNil(t, res)
	res.Status = domain.ReservationCancelled
	f.ledger.PutReservation(*res)
}

func TestGuard_ConcurrentReserveNeverOverbooks(t *testing.T) {
	tests := []struct {
		name     string
		capacity int
		callers  int
	}{
		{name: "single seat", capacity: 1, callers: 20},
		{name: "three seats", capacity: 3, callers: 50},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, tt.capacity)
			ctx := context.Background()

			var (
				created int32
				mu      sync.Mutex
				ids     []int64
			)
			g, gctx := errgroup.WithContext(ctx)
			for i := 0; i < tt.callers; i++ {
				customerID := int64(1000 + i)
				g.Go(func() error {
					res, err := f.guard.Reserve(gctx, reserveRequest(customerID))
					if errors.Is(err, domain.ErrSlotFull) {
						return nil
					}
					if err != nil {
						return err
					}
					atomic.AddInt32(&created, 1)
					mu.Lock()
					ids = append(ids, res.ID)
					mu.Unlock()
					return nil
				})
			}
			require.NoError(t, g.Wait())

			assert.Equal(t, int32(tt.capacity), created)
			assert.Len(t, ids, tt.capacity)
			assert.Equal(t, tt.capacity, f.ledger.Occupied(f.slot()))
		})
	}
}

type brokenLocker struct{}

func (brokenLocker) Acquire(_ context.Context, key string) (lock.Release, error) {
	return nil, errors.New("zookeeper session expired: key=" + key)
}

type busyLocker struct{}

func (busyLocker) Acquire(_ context.Context, key string) (lock.Release, error) {
	return nil, errors.Join(lock.ErrTimeout, errors.New("key="+key))
}

func TestGuard_ReserveSlotBusy(t *testing.T) {
	t.Run("lock held by another caller", func(t *testing.T) {
		locker := lock.NewLocal(30 * time.Millisecond)
		f := newFixture(t, 2, withLocker(locker))
		ctx := context.Background()

		release, err := locker.Acquire(ctx, f.slot().String())
		require.NoError(t, err)
		defer func() { _ = release(ctx) }()

		_, err = f.guard.Reserve(ctx, reserveRequest(1))
		assert.ErrorIs(t, err, domain.ErrSlotBusy)
		assert.True(t, domain.IsRetryable(err))
		assert.Equal(t, 0, f.ledger.Occupied(f.slot()))
		assert.Empty(t, f.dispatcher.Events())
	})

	t.Run("locker reports timeout", func(t *testing.T) {
		f := newFixture(t, 2, withLocker(busyLocker{}))

		_, err := f.guard.Reserve(context.Background(), reserveRequest(1))
		assert.ErrorIs(t, err, domain.ErrSlotBusy)
		assert.Equal(t, 0, f.ledger.Occupied(f.slot()))
	})

	t.Run("other lock failure is internal", func(t *testing.T) {
		f := newFixture(t, 2, withLocker(brokenLocker{}))

		_, err := f.guard.Reserve(context.Background(), reserveRequest(1))
		assert.ErrorIs(t, err, ErrInternal)
		assert.NotErrorIs(t, err, domain.ErrSlotBusy)
	})
}

func TestGuard_ReserveUsesCachedFullSlot(t *testing.T) {
	f := newFixture(t, 1)
	ctx := context.Background()
	slot := f.slot()

	// кэш в текущем поколении говорит, что слот полон, ledger пуст
	require.NoError(t, f.cache.SetJSON(ctx, cache.OccupancyGenerationKey(slot), "g1", 0))
	require.NoError(t, f.cache.SetJSON(ctx, cache.OccupancyKey(slot), occupancySnapshot{Occupied: 1, Generation: "g1"}, 0))

	_, err := f.guard.Reserve(ctx, reserveRequest(1))
	assert.ErrorIs(t, err, domain.ErrSlotFull)
	assert.Equal(t, 0, f.ledger.Occupied(slot))

	// значение из прошлого поколения не учитывается
	require.NoError(t, f.cache.SetJSON(ctx, cache.OccupancyGenerationKey(slot), "g2", 0))

	res, err := f.guard.Reserve(ctx, reserveRequest(1))
	require.NoError(t, err)
	assert.Equal(t, domain.ReservationPending, res.Status)
	assert.Equal(t, 1, f.ledger.Occupied(slot))
}

// releasingReservations освобождает место между подсчетом занятости и записью в кэш
type releasingReservations struct {
	*memledger.Reservations
	once  sync.Once
	armed atomic.Bool
	hook  func()
}

func (r *releasingReservations) CountActiveInSlot(ctx context.Context, slot domain.SlotKey) (int, error) {
	n, err := r.Reservations.CountActiveInSlot(ctx, slot)
	if r.armed.Load() {
		r.once.Do(r.hook)
	}
	return n, err
}

func TestGuard_OccupancyCountedBeforeReleaseIsNotCached(t *testing.T) {
	var repo *releasingReservations
	f := newFixture(t, 1, withReservations(func(inner *memledger.Reservations) ReservationRepository {
		repo = &releasingReservations{Reservations: inner}
		return repo
	}))
	ctx := context.Background()
	slot := f.slot()

	first, err := f.guard.Reserve(ctx, reserveRequest(1))
	require.NoError(t, err)

	repo.hook = func() {
		f.cancel(t, first.ID)
		f.guard.Release(ctx, slot)
	}
	repo.armed.Store(true)

	occupancy, err := f.guard.Occupancy(ctx, slot)
	require.NoError(t, err)
	assert.Equal(t, 1, occupancy.Occupied)

	occupancy, err = f.guard.Occupancy(ctx, slot)
	require.NoError(t, err)
	assert.Equal(t, 0, occupancy.Occupied)

	second, err := f.guard.Reserve(ctx, reserveRequest(2))
	require.NoError(t, err)
	assert.Equal(t, int64(2), second.CustomerID)
}

func TestGuard_PromotionIgnoresStaleCache(t *testing.T) {
	f := newFixture(t, 1)
	ctx := context.Background()
	slot := f.slot()

	first, err := f.guard.Reserve(ctx, reserveRequest(1))
	require.NoError(t, err)
	_, err = f.guard.JoinWaitlist(ctx, waitlistRequest(2))
	require.NoError(t, err)

	// место освободилось, а кэш текущего поколения все еще говорит "полон"
	f.cancel(t, first.ID)
	cached, _, ok := f.guard.cachedOccupancy(ctx, slot)
	require.True(t, ok)
	require.Equal(t, 1, cached)

	f.guard.promote(ctx, slot)

	assert.Equal(t, 1, f.ledger.Occupied(slot))
	_, err = f.guard.WaitlistPosition(ctx, 2, slot)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	promoted := 0
	for _, e := range f.dispatcher.Events() {
		if e.ActorRole == domain.RoleSystem && e.NewState == string(domain.ReservationPending) {
			promoted++
		}
	}
	assert.Equal(t, 1, promoted)
}

func TestGuard_FailedPromotionKeepsHead(t *testing.T) {
	f := newFixture(t, 1)
	ctx := context.Background()
	slot := f.slot()

	first, err := f.guard.Reserve(ctx, reserveRequest(1))
	require.NoError(t, err)

	for i, customerID := range []int64{2, 3} {
		resp, err := f.guard.JoinWaitlist(ctx, waitlistRequest(customerID))
		require.NoError(t, err)
		assert.Equal(t, i, resp.Position)
	}

	// место не освободилось: продвижение упирается в полный слот
	f.guard.Release(ctx, slot)

	pos, err := f.guard.WaitlistPosition(ctx, 2, slot)
	require.NoError(t, err)
	assert.Equal(t, 0, pos)
	pos, err = f.guard.WaitlistPosition(ctx, 3, slot)
	require.NoError(t, err)
	assert.Equal(t, 1, pos)
	assert.Equal(t, 1, f.ledger.Occupied(slot))

	f.cancel(t, first.ID)
	f.guard.Release(ctx, slot)

	_, err = f.guard.WaitlistPosition(ctx, 2, slot)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	pos, err = f.guard.WaitlistPosition(ctx, 3, slot)
	require.NoError(t, err)
	assert.Equal(t, 0, pos)
	assert.Equal(t, 1, f.ledger.Occupied(slot))
}

func TestGuard_JoinWaitlistErrors(t *testing.T) {
	f := newFixture(t, 1)
	ctx := context.Background()

	_, err := f.guard.JoinWaitlist(ctx, waitlistRequest(2))
	assert.ErrorIs(t, err, ErrSlotAvailable)

	_, err = f.guard.Reserve(ctx, reserveRequest(1))
	require.NoError(t, err)

	_, err = f.guard.JoinWaitlist(ctx, waitlistRequest(2))
	require.NoError(t, err)
	_, err = f.guard.JoinWaitlist(ctx, waitlistRequest(2))
	assert.ErrorIs(t, err, ErrAlreadyWaitlisted)

	_, err = f.guard.Reserve(ctx, models.ReserveRequest{ServiceID: 999, CustomerID: 1, Date: bookingDate, Label: "09:00"})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
