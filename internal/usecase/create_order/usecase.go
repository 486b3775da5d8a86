package create_order

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/m04kA/SMC-BookingEngine/internal/domain"
	"github.com/m04kA/SMC-BookingEngine/internal/infra/storage/shop"
)

// UseCase use case для создания заказа в магазине
type UseCase struct {
	orderRepo    OrderRepository
	shopRepo     ShopRepository
	historyRepo  HistoryRepository
	publisher    Publisher
	txManager    TransactionManager
	timeProvider TimeProvider
	logger       Logger
	pendingTTL   time.Duration
}

// NewUseCase создает новый экземпляр use case
func NewUseCase(
	orderRepo OrderRepository,
	shopRepo ShopRepository,
	historyRepo HistoryRepository,
	publisher Publisher,
	txManager TransactionManager,
	logger Logger,
	pendingTTL time.Duration,
) *UseCase {
	return &UseCase{
		orderRepo:    orderRepo,
		shopRepo:     shopRepo,
		historyRepo:  historyRepo,
		publisher:    publisher,
		txManager:    txManager,
		timeProvider: &RealTimeProvider{},
		logger:       logger,
		pendingTTL:   pendingTTL,
	}
}

// Execute создает заказ в статусе pending.
// Настройка возвратов копируется из магазина на момент заказа
func (uc *UseCase) Execute(ctx context.Context, req *Request) (*domain.Order, error) {
	uc.logger.Info("CreateOrder: customer=%d, shop=%d, type=%s", req.Actor.ID, req.ShopID, req.OrderType)

	// 1. Создавать заказы может только клиент
	if req.Actor.Role != domain.RoleCustomer {
		uc.logger.Warn("CreateOrder: role=%s is not allowed to create orders", req.Actor.Role)
		return nil, domain.UnauthorizedError(req.Actor.Role, "create order")
	}

	// 2. Валидация входных данных
	if err := validateRequest(req); err != nil {
		uc.logger.Warn("CreateOrder: validation failed: %v", err)
		return nil, err
	}

	// 3. Настройки магазина
	settings, err := uc.shopRepo.GetSettings(ctx, req.ShopID)
	if err != nil {
		if errors.Is(err, shop.ErrShopNotFound) {
			uc.logger.Warn("CreateOrder: shop id=%d not found", req.ShopID)
			return nil, fmt.Errorf("%w: shop %d", domain.ErrNotFound, req.ShopID)
		}
		uc.logger.Error("CreateOrder: failed to get shop id=%d: %v", req.ShopID, err)
		return nil, fmt.Errorf("%w: failed to get shop: %v", ErrInternal, err)
	}

	expiresAt := uc.timeProvider.Now().Add(uc.pendingTTL)
	order := &domain.Order{
		CustomerID:     req.Actor.ID,
		ShopID:         req.ShopID,
		Status:         domain.OrderPending,
		OrderType:      req.OrderType,
		Total:          req.Total,
		DeliveryMethod: req.DeliveryMethod,
		PaymentStatus:  domain.PaymentPending,
		ReturnsEnabled: settings.ReturnsEnabled,
		ExpiresAt:      &expiresAt,
	}

	// 4. Заказ и первая запись таймлайна в одной транзакции
	var created *domain.Order
	err = uc.txManager.Do(ctx, func(txCtx context.Context) error {
		created, err = uc.orderRepo.Create(txCtx, order)
		if err != nil {
			return fmt.Errorf("%w: failed to create order: %v", ErrInternal, err)
		}

		if err := uc.historyRepo.Append(txCtx, &domain.StatusHistory{
			EntityType: domain.EntityOrder,
			EntityID:   created.ID,
			Status:     string(domain.OrderPending),
			ActorRole:  domain.RoleCustomer,
		}); err != nil {
			return fmt.Errorf("%w: failed to append history: %v", ErrInternal, err)
		}
		return nil
	})
	if err != nil {
		uc.logger.Error("CreateOrder: %v", err)
		return nil, err
	}

	uc.publisher.Publish(ctx, domain.EntityOrder, created.ID, "", string(domain.OrderPending), domain.RoleCustomer)

	uc.logger.Info("CreateOrder: successfully created order id=%d", created.ID)
	return created, nil
}
