package slots

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/m04kA/SMC-BookingEngine/internal/domain"
	"github.com/m04kA/SMC-BookingEngine/internal/infra/cache"
	"github.com/m04kA/SMC-BookingEngine/internal/infra/lock"
	slotconfigRepo "github.com/m04kA/SMC-BookingEngine/internal/infra/storage/slotconfig"
	"github.com/m04kA/SMC-BookingEngine/internal/service/slots/models"
)

// Результаты попытки бронирования для метрик
const (
	attemptCreated = "created"
	attemptFull    = "full"
	attemptBusy    = "busy"
	attemptError   = "error"
)

// Guard единственная точка создания бронирований.
// Проверка вместимости и вставка выполняются под блокировкой слота,
// поэтому занятость слота никогда не превышает maxBookingsPerSlot
type Guard struct {
	reservations ReservationRepository
	waitlist     WaitlistRepository
	configs      SlotConfigRepository
	history      HistoryRepository
	locker       Locker
	cache        Cache
	publisher    Publisher
	txManager    TransactionManager
	metrics      Metrics
	logger       Logger

	pendingTTL time.Duration
	cacheTTL   time.Duration
	now        func() time.Time
}

// NewGuard создает новый экземпляр гарда слотов
func NewGuard(
	reservations ReservationRepository,
	waitlist WaitlistRepository,
	configs SlotConfigRepository,
	history HistoryRepository,
	locker Locker,
	cache Cache,
	publisher Publisher,
	txManager TransactionManager,
	metrics Metrics,
	logger Logger,
	pendingTTL time.Duration,
	cacheTTL time.Duration,
) *Guard {
	return &Guard{
		reservations: reservations,
		waitlist:     waitlist,
		configs:      configs,
		history:      history,
		locker:       locker,
		cache:        cache,
		publisher:    publisher,
		txManager:    txManager,
		metrics:      metrics,
		logger:       logger,
		pendingTTL:   pendingTTL,
		cacheTTL:     cacheTTL,
		now:          time.Now,
	}
}

// WithClock подменяет источник времени
func (g *Guard) WithClock(now func() time.Time) *Guard {
	g.now = now
	return g
}

// Reserve создает бронирование в статусе pending, если в слоте есть место
func (g *Guard) Reserve(ctx context.Context, req models.ReserveRequest) (*domain.Reservation, error) {
	return g.reserve(ctx, req, domain.RoleCustomer, nil)
}

// reserve общий путь для клиента и продвижения из листа ожидания.
// inTx выполняется в той же транзакции, что и вставка бронирования
func (g *Guard) reserve(ctx context.Context, req models.ReserveRequest, role domain.ActorRole, inTx func(ctx context.Context) error) (*domain.Reservation, error) {
	cfg, err := g.config(ctx, req.ServiceID)
	if err != nil {
		return nil, err
	}

	slot := domain.SlotKey{ServiceID: req.ServiceID, Date: domain.NormalizeDate(req.Date), Label: req.Label}

	release, err := g.locker.Acquire(ctx, slot.String())
	if err != nil {
		if errors.Is(err, lock.ErrTimeout) {
			g.logger.Warn("Reserve: slot=%s is busy", slot)
			g.observe(attemptBusy)
			return nil, fmt.Errorf("%w: slot %s", domain.ErrSlotBusy, slot)
		}
		g.logger.Error("Reserve: failed to lock slot=%s: %v", slot, err)
		g.observe(attemptError)
		return nil, fmt.Errorf("%w: Reserve - acquire lock: %v", ErrInternal, err)
	}
	defer func() {
		if err := release(context.WithoutCancel(ctx)); err != nil {
			g.logger.Warn("Reserve: failed to release lock for slot=%s: %v", slot, err)
		}
	}()

	// Кэш отсекает заведомо полный слот без обращения к ledger.
	// Решение о вставке принимается только по ledger внутри транзакции.
	// Продвижение идет сразу после освобождения места и читает только ledger
	if role != domain.RoleSystem {
		if cached, _, ok := g.cachedOccupancy(ctx, slot); ok && cached >= cfg.MaxBookingsPerSlot {
			g.observe(attemptFull)
			return nil, fmt.Errorf("%w: slot %s (%d/%d)", domain.ErrSlotFull, slot, cached, cfg.MaxBookingsPerSlot)
		}
	}

	now := g.now()
	var created *domain.Reservation
	err = g.txManager.Do(ctx, func(ctx context.Context) error {
		occupied, err := g.reservations.CountActiveInSlot(ctx, slot)
		if err != nil {
			return fmt.Errorf("%w: Reserve - count occupancy: %v", ErrInternal, err)
		}
		if occupied >= cfg.MaxBookingsPerSlot {
			return fmt.Errorf("%w: slot %s (%d/%d)", domain.ErrSlotFull, slot, occupied, cfg.MaxBookingsPerSlot)
		}

		expiresAt := now.Add(g.pendingTTL)
		created, err = g.reservations.Create(ctx, &domain.Reservation{
			ServiceID:       req.ServiceID,
			CustomerID:      req.CustomerID,
			ProviderID:      cfg.ProviderID,
			Status:          domain.ReservationPending,
			BookingDate:     slot.Date,
			TimeSlotLabel:   slot.Label,
			ServiceLocation: req.Location,
			ExpiresAt:       &expiresAt,
			Comments:        req.Comments,
			Snapshot:        cfg.Snapshot(),
		})
		if err != nil {
			return fmt.Errorf("%w: Reserve - create reservation: %v", ErrInternal, err)
		}

		if err := g.history.Append(ctx, &domain.StatusHistory{
			EntityType: domain.EntityReservation,
			EntityID:   created.ID,
			Status:     string(domain.ReservationPending),
			ActorRole:  role,
		}); err != nil {
			return fmt.Errorf("%w: Reserve - append history: %v", ErrInternal, err)
		}

		if inTx != nil {
			return inTx(ctx)
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, domain.ErrSlotFull) {
			g.logger.Warn("Reserve: %v", err)
			g.observe(attemptFull)
			return nil, err
		}
		g.logger.Error("Reserve: slot=%s: %v", slot, err)
		g.observe(attemptError)
		if errors.Is(err, ErrInternal) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: Reserve - %v", ErrInternal, err)
	}

	g.bumpOccupancy(ctx, slot)
	g.invalidate(ctx, cache.ScheduleKey(created.ProviderID, slot.Date))
	g.publisher.Publish(ctx, domain.EntityReservation, created.ID, "", string(domain.ReservationPending), role)
	g.observe(attemptCreated)

	g.logger.Info("Reserve: created reservation id=%d in slot=%s for customer=%d", created.ID, slot, req.CustomerID)
	return created, nil
}

// Release вызывается после фиксации перехода, освободившего место в слоте.
// Сбрасывает кэш занятости и продвигает голову листа ожидания
func (g *Guard) Release(ctx context.Context, slot domain.SlotKey) {
	g.bumpOccupancy(ctx, slot)
	g.promote(ctx, slot)
}

// Occupancy возвращает занятость слота, предпочитая кэш
func (g *Guard) Occupancy(ctx context.Context, slot domain.SlotKey) (domain.SlotOccupancy, error) {
	cfg, err := g.config(ctx, slot.ServiceID)
	if err != nil {
		return domain.SlotOccupancy{}, err
	}

	slot.Date = domain.NormalizeDate(slot.Date)
	occupied, err := g.occupied(ctx, slot)
	if err != nil {
		return domain.SlotOccupancy{}, err
	}

	return domain.SlotOccupancy{Slot: slot, Occupied: occupied, Capacity: cfg.MaxBookingsPerSlot}, nil
}

// OccupancyForDate возвращает занятость нескольких слотов услуги на дату
func (g *Guard) OccupancyForDate(ctx context.Context, serviceID int64, date time.Time, labels []string) ([]domain.SlotOccupancy, error) {
	cfg, err := g.config(ctx, serviceID)
	if err != nil {
		return nil, err
	}

	result := make([]domain.SlotOccupancy, 0, len(labels))
	for _, label := range labels {
		slot := domain.SlotKey{ServiceID: serviceID, Date: domain.NormalizeDate(date), Label: label}
		occupied, err := g.occupied(ctx, slot)
		if err != nil {
			return nil, err
		}
		result = append(result, domain.SlotOccupancy{Slot: slot, Occupied: occupied, Capacity: cfg.MaxBookingsPerSlot})
	}
	return result, nil
}

// occupancySnapshot значение занятости в кэше и поколение, при котором оно посчитано
type occupancySnapshot struct {
	Occupied   int    `json:"occupied"`
	Generation string `json:"generation"`
}

func (g *Guard) occupied(ctx context.Context, slot domain.SlotKey) (int, error) {
	occupied, gen, ok := g.cachedOccupancy(ctx, slot)
	if ok {
		return occupied, nil
	}

	// Поколение фиксируется до подсчета: значение, посчитанное до
	// параллельного освобождения, уйдет в кэш со старым поколением и не будет прочитано
	if gen == "" {
		gen = g.newGeneration(ctx, slot)
	}

	occupied, err := g.reservations.CountActiveInSlot(ctx, slot)
	if err != nil {
		g.logger.Error("Occupancy: slot=%s: %v", slot, err)
		return 0, fmt.Errorf("%w: Occupancy - count: %v", ErrInternal, err)
	}

	if gen != "" {
		snapshot := occupancySnapshot{Occupied: occupied, Generation: gen}
		if err := g.cache.SetJSON(ctx, cache.OccupancyKey(slot), snapshot, g.cacheTTL); err != nil {
			g.logger.Warn("Occupancy: failed to cache slot=%s: %v", slot, err)
		}
	}
	return occupied, nil
}

// cachedOccupancy возвращает занятость из кэша, если она посчитана в текущем поколении.
// Вторым значением отдается текущее поколение ("" если его нет)
func (g *Guard) cachedOccupancy(ctx context.Context, slot domain.SlotKey) (int, string, bool) {
	var gen string
	if !g.cache.GetJSON(ctx, cache.OccupancyGenerationKey(slot), &gen) || gen == "" {
		return 0, "", false
	}

	var snapshot occupancySnapshot
	if !g.cache.GetJSON(ctx, cache.OccupancyKey(slot), &snapshot) || snapshot.Generation != gen {
		return 0, gen, false
	}
	return snapshot.Occupied, gen, true
}

// newGeneration записывает новое поколение. "" означает, что кэш недоступен
func (g *Guard) newGeneration(ctx context.Context, slot domain.SlotKey) string {
	gen := uuid.NewString()
	if err := g.cache.SetJSON(ctx, cache.OccupancyGenerationKey(slot), gen, g.cacheTTL); err != nil {
		g.logger.Warn("Occupancy: failed to start generation for slot=%s: %v", slot, err)
		return ""
	}
	return gen
}

// bumpOccupancy вызывается после фиксации, изменившей занятость слота.
// Смена поколения отбрасывает значения, посчитанные до фиксации
func (g *Guard) bumpOccupancy(ctx context.Context, slot domain.SlotKey) {
	if g.newGeneration(ctx, slot) == "" {
		// без нового поколения остается только удалить значение
		g.invalidate(ctx, cache.OccupancyGenerationKey(slot))
	}
	g.invalidate(ctx, cache.OccupancyKey(slot))
}

func (g *Guard) config(ctx context.Context, serviceID int64) (*domain.ServiceSlotConfig, error) {
	cfg, err := g.configs.GetByServiceID(ctx, serviceID)
	if err != nil {
		if errors.Is(err, slotconfigRepo.ErrConfigNotFound) {
			g.logger.Warn("config: slot config for service=%d not found", serviceID)
			return nil, fmt.Errorf("%w: slot config for service %d", domain.ErrNotFound, serviceID)
		}
		g.logger.Error("config: repository error for service=%d: %v", serviceID, err)
		return nil, fmt.Errorf("%w: config - repository error: %v", ErrInternal, err)
	}
	return cfg, nil
}

func (g *Guard) invalidate(ctx context.Context, keys ...string) {
	for _, key := range keys {
		if err := g.cache.Invalidate(ctx, key); err != nil {
			g.logger.Warn("invalidate: key=%s: %v", key, err)
		}
	}
}

func (g *Guard) observe(result string) {
	if g.metrics != nil {
		g.metrics.IncReservationAttempt(result)
	}
}
