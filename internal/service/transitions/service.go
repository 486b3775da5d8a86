package transitions

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/m04kA/SMC-BookingEngine/internal/domain"
	orderRepo "github.com/m04kA/SMC-BookingEngine/internal/infra/storage/order"
	reservationRepo "github.com/m04kA/SMC-BookingEngine/internal/infra/storage/reservation"
	shopRepo "github.com/m04kA/SMC-BookingEngine/internal/infra/storage/shop"
	"github.com/m04kA/SMC-BookingEngine/internal/service/transitions/models"
)

// Config сроки, выставляемые движком при входе в истекающие статусы
type Config struct {
	AwaitingPaymentTTL time.Duration
	OrderPendingTTL    time.Duration
}

// Engine единственный путь изменения статусов бронирований и заказов.
// Каждое изменение проверяется по таблице переходов и ролей,
// фиксируется условным обновлением и порождает ровно одно событие
type Engine struct {
	reservations ReservationRepository
	orders       OrderRepository
	history      HistoryRepository
	shops        ShopRepository
	slots        SlotReleaser
	cache        Cache
	publisher    Publisher
	txManager    TransactionManager
	metrics      Metrics
	logger       Logger
	advisor      ProximityAdvisor

	cfg Config
	now func() time.Time
}

// NewEngine создает новый экземпляр движка переходов
func NewEngine(
	reservations ReservationRepository,
	orders OrderRepository,
	history HistoryRepository,
	shops ShopRepository,
	slots SlotReleaser,
	cache Cache,
	publisher Publisher,
	txManager TransactionManager,
	metrics Metrics,
	logger Logger,
	cfg Config,
) *Engine {
	return &Engine{
		reservations: reservations,
		orders:       orders,
		history:      history,
		shops:        shops,
		slots:        slots,
		cache:        cache,
		publisher:    publisher,
		txManager:    txManager,
		metrics:      metrics,
		logger:       logger,
		cfg:          cfg,
		now:          time.Now,
	}
}

// WithClock подменяет источник времени
func (e *Engine) WithClock(now func() time.Time) *Engine {
	e.now = now
	return e
}

// WithAdvisor включает подсказки о близких бронированиях в ответах исполнителю
func (e *Engine) WithAdvisor(advisor ProximityAdvisor) *Engine {
	e.advisor = advisor
	return e
}

// GetReservation возвращает бронирование участнику (клиенту или исполнителю).
// Исполнитель дополнительно получает подсказку о ближайшем соседнем бронировании
func (e *Engine) GetReservation(ctx context.Context, id int64, actor domain.Actor) (*models.ReservationResponse, error) {
	res, err := e.reservationFor(ctx, id, actor)
	if err != nil {
		return nil, err
	}

	resp := models.FromDomainReservation(res)
	if actor.Role == domain.RoleProvider && e.advisor != nil && res.Status.OccupiesSlot() {
		advisory, err := e.advisor.Advise(ctx, res.ProviderID, res)
		if err != nil {
			e.logger.Warn("GetReservation: proximity advice for reservation id=%d failed: %v", id, err)
		} else {
			resp.ProximityAdvisory = advisory
		}
	}
	return resp, nil
}

func (e *Engine) reservationFor(ctx context.Context, id int64, actor domain.Actor) (*domain.Reservation, error) {
	res, err := e.loadReservation(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := checkReservationParty(res, actor); err != nil {
		e.logger.Warn("GetReservation: %s=%d has no access to reservation id=%d", actor.Role, actor.ID, id)
		return nil, err
	}
	return res, nil
}

// GetOrder возвращает заказ клиенту или владельцу магазина
func (e *Engine) GetOrder(ctx context.Context, id int64, actor domain.Actor) (*models.OrderResponse, error) {
	o, err := e.loadOrder(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := e.checkOrderParty(ctx, o, actor); err != nil {
		e.logger.Warn("GetOrder: %s=%d has no access to order id=%d", actor.Role, actor.ID, id)
		return nil, err
	}
	return models.FromDomainOrder(o), nil
}

// Timeline возвращает историю статусов сущности в порядке фиксации
func (e *Engine) Timeline(ctx context.Context, entityType domain.EntityType, id int64, actor domain.Actor) (*models.TimelineResponse, error) {
	switch entityType {
	case domain.EntityReservation:
		if _, err := e.reservationFor(ctx, id, actor); err != nil {
			return nil, err
		}
	case domain.EntityOrder, domain.EntityPayment:
		if _, err := e.GetOrder(ctx, id, actor); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("%w: unknown entity type %q", domain.ErrInvalidCommand, entityType)
	}

	entries, err := e.history.ListByEntity(ctx, entityType, id)
	if err != nil {
		e.logger.Error("Timeline: repository error for %s id=%d: %v", entityType, id, err)
		return nil, fmt.Errorf("%w: Timeline - repository error: %v", ErrInternal, err)
	}
	return models.FromDomainHistory(entityType, id, entries), nil
}

func (e *Engine) loadReservation(ctx context.Context, id int64) (*domain.Reservation, error) {
	res, err := e.reservations.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, reservationRepo.ErrReservationNotFound) {
			return nil, fmt.Errorf("%w: reservation %d", domain.ErrNotFound, id)
		}
		e.logger.Error("loadReservation: repository error for id=%d: %v", id, err)
		return nil, fmt.Errorf("%w: loadReservation - repository error: %v", ErrInternal, err)
	}
	return res, nil
}

func (e *Engine) loadOrder(ctx context.Context, id int64) (*domain.Order, error) {
	o, err := e.orders.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, orderRepo.ErrOrderNotFound) {
			return nil, fmt.Errorf("%w: order %d", domain.ErrNotFound, id)
		}
		e.logger.Error("loadOrder: repository error for id=%d: %v", id, err)
		return nil, fmt.Errorf("%w: loadOrder - repository error: %v", ErrInternal, err)
	}
	return o, nil
}

// checkReservationParty клиент и исполнитель видят и меняют только свои бронирования
func checkReservationParty(res *domain.Reservation, actor domain.Actor) error {
	switch actor.Role {
	case domain.RoleCustomer:
		if actor.ID == res.CustomerID {
			return nil
		}
	case domain.RoleProvider:
		if actor.ID == res.ProviderID {
			return nil
		}
	case domain.RoleSystem:
		return nil
	}
	return domain.UnauthorizedError(actor.Role, fmt.Sprintf("access reservation %d", res.ID))
}

// checkOrderParty владелец магазина определяется по настройкам магазина
func (e *Engine) checkOrderParty(ctx context.Context, o *domain.Order, actor domain.Actor) error {
	switch actor.Role {
	case domain.RoleCustomer:
		if actor.ID == o.CustomerID {
			return nil
		}
	case domain.RoleShopOwner:
		settings, err := e.shops.GetSettings(ctx, o.ShopID)
		if err != nil {
			if !errors.Is(err, shopRepo.ErrShopNotFound) {
				return fmt.Errorf("%w: checkOrderParty - shop settings: %v", ErrInternal, err)
			}
			break
		}
		if settings.OwnerID == actor.ID {
			return nil
		}
	case domain.RoleSystem:
		return nil
	}
	return domain.UnauthorizedError(actor.Role, fmt.Sprintf("access order %d", o.ID))
}

func (e *Engine) appendHistory(ctx context.Context, entityType domain.EntityType, id int64, status string, role domain.ActorRole, tracking *string) error {
	if err := e.history.Append(ctx, &domain.StatusHistory{
		EntityType:   entityType,
		EntityID:     id,
		Status:       status,
		ActorRole:    role,
		TrackingInfo: tracking,
	}); err != nil {
		return fmt.Errorf("%w: append history: %v", ErrInternal, err)
	}
	return nil
}

func (e *Engine) invalidate(ctx context.Context, keys ...string) {
	for _, key := range keys {
		if err := e.cache.Invalidate(ctx, key); err != nil {
			e.logger.Warn("invalidate: key=%s: %v", key, err)
		}
	}
}

func (e *Engine) countTransition(entity domain.EntityType, from, to string) {
	if e.metrics != nil {
		e.metrics.IncTransition(string(entity), from, to)
	}
}

// wrapInternal не оборачивает повторно уже классифицированные ошибки
func wrapInternal(op string, err error) error {
	if errors.Is(err, ErrInternal) {
		return err
	}
	return fmt.Errorf("%w: %s - %v", ErrInternal, op, err)
}

func checkLength(field, value string, max int) error {
	if len(value) > max {
		return fmt.Errorf("%w: %s exceeds %d characters", domain.ErrInvalidCommand, field, max)
	}
	return nil
}

func optional(value string) *string {
	if value == "" {
		return nil
	}
	return &value
}
