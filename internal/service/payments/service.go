package payments

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/m04kA/SMC-BookingEngine/internal/domain"
	orderRepo "github.com/m04kA/SMC-BookingEngine/internal/infra/storage/order"
	shopRepo "github.com/m04kA/SMC-BookingEngine/internal/infra/storage/shop"
	"github.com/m04kA/SMC-BookingEngine/internal/service/transitions/models"
)

// Service жизненный цикл оплаты заказа: pending -> verifying -> paid,
// pending -> approved -> paid для pay_later, pending -> paid для наличных.
// Способ оплаты фиксируется, как только статус оплаты уходит из pending
type Service struct {
	orders    OrderRepository
	shops     ShopRepository
	history   HistoryRepository
	publisher Publisher
	txManager TransactionManager
	metrics   Metrics
	logger    Logger
}

// NewService создает новый экземпляр сервиса оплат
func NewService(
	orders OrderRepository,
	shops ShopRepository,
	history HistoryRepository,
	publisher Publisher,
	txManager TransactionManager,
	metrics Metrics,
	logger Logger,
) *Service {
	return &Service{
		orders:    orders,
		shops:     shops,
		history:   history,
		publisher: publisher,
		txManager: txManager,
		metrics:   metrics,
		logger:    logger,
	}
}

// mutation изменяет копию заказа. changed=false означает идемпотентный повтор
type mutation func(ctx context.Context, o *domain.Order) (changed bool, err error)

// ChooseMethod выбор способа оплаты клиентом
func (s *Service) ChooseMethod(ctx context.Context, orderID int64, actor domain.Actor, method domain.PaymentMethod) (*models.OrderResponse, error) {
	s.logger.Info("ChooseMethod: order id=%d method=%s by %s=%d", orderID, method, actor.Role, actor.ID)

	if !method.IsValid() {
		return nil, fmt.Errorf("%w: unknown payment method %q", domain.ErrInvalidCommand, method)
	}

	return s.apply(ctx, "ChooseMethod", orderID, actor, domain.RoleCustomer, func(ctx context.Context, o *domain.Order) (bool, error) {
		// После verifying/paid способ не меняется ни при каком статусе заказа
		if o.PaymentStatus.IsMethodLocked() {
			return false, fmt.Errorf("%w: order %d payment is %s", domain.ErrPaymentMethodLocked, o.ID, o.PaymentStatus)
		}
		if o.Status.IsTerminal() {
			return false, fmt.Errorf("%w: order %d is %s", domain.ErrInvalidTransition, o.ID, o.Status)
		}
		if o.IsTextOrder() && (o.Status == domain.OrderPending || o.Status == domain.OrderAwaitingCustomerAgreement) {
			return false, fmt.Errorf("%w: order %d: final bill is not agreed yet", domain.ErrInvalidTransition, o.ID)
		}
		if o.PaymentMethod != nil && *o.PaymentMethod == method {
			return false, nil
		}

		if method == domain.PaymentPayLater {
			if err := s.checkPayLater(ctx, o); err != nil {
				return false, err
			}
		}

		o.PaymentMethod = &method
		return true, nil
	})
}

// SubmitReference клиент передает номер UPI-платежа, оплата уходит на проверку
func (s *Service) SubmitReference(ctx context.Context, orderID int64, actor domain.Actor, reference string) (*models.OrderResponse, error) {
	s.logger.Info("SubmitReference: order id=%d by %s=%d", orderID, actor.Role, actor.ID)

	reference = strings.TrimSpace(reference)
	if reference == "" {
		return nil, fmt.Errorf("%w: payment reference is required", domain.ErrInvalidCommand)
	}
	if len(reference) > domain.MaxPaymentReferenceLen {
		return nil, fmt.Errorf("%w: payment reference exceeds %d characters", domain.ErrInvalidCommand, domain.MaxPaymentReferenceLen)
	}

	return s.apply(ctx, "SubmitReference", orderID, actor, domain.RoleCustomer, func(_ context.Context, o *domain.Order) (bool, error) {
		if o.PaymentMethod == nil || *o.PaymentMethod != domain.PaymentUPI {
			return false, fmt.Errorf("%w: order %d: payment reference applies to upi only", domain.ErrInvalidTransition, o.ID)
		}
		if o.PaymentStatus == domain.PaymentVerifying && o.PaymentReference != nil && *o.PaymentReference == reference {
			return false, nil
		}
		if o.PaymentStatus != domain.PaymentPending {
			return false, domain.InvalidTransitionError(domain.EntityPayment, string(o.PaymentStatus), string(domain.PaymentVerifying))
		}

		o.PaymentReference = &reference
		o.PaymentStatus = domain.PaymentVerifying
		return true, nil
	})
}

// ConfirmPayment владелец магазина подтверждает получение оплаты
func (s *Service) ConfirmPayment(ctx context.Context, orderID int64, actor domain.Actor) (*models.OrderResponse, error) {
	s.logger.Info("ConfirmPayment: order id=%d by %s=%d", orderID, actor.Role, actor.ID)

	return s.apply(ctx, "ConfirmPayment", orderID, actor, domain.RoleShopOwner, func(_ context.Context, o *domain.Order) (bool, error) {
		if o.PaymentStatus == domain.PaymentPaid {
			return false, nil
		}
		if o.PaymentMethod == nil {
			return false, fmt.Errorf("%w: order %d: payment method is not chosen", domain.ErrInvalidTransition, o.ID)
		}

		var from domain.PaymentStatus
		switch *o.PaymentMethod {
		case domain.PaymentUPI:
			from = domain.PaymentVerifying
		case domain.PaymentCash:
			from = domain.PaymentPending
			if o.Status != domain.OrderDelivered {
				return false, fmt.Errorf("%w: order %d: cash is confirmed on delivery", domain.ErrInvalidTransition, o.ID)
			}
		case domain.PaymentPayLater:
			from = domain.PaymentApproved
		}
		if o.PaymentStatus != from {
			return false, domain.InvalidTransitionError(domain.EntityPayment, string(o.PaymentStatus), string(domain.PaymentPaid))
		}

		o.PaymentStatus = domain.PaymentPaid
		return true, nil
	})
}

// ApprovePayLater владелец магазина одобряет оплату позже
func (s *Service) ApprovePayLater(ctx context.Context, orderID int64, actor domain.Actor) (*models.OrderResponse, error) {
	s.logger.Info("ApprovePayLater: order id=%d by %s=%d", orderID, actor.Role, actor.ID)

	return s.apply(ctx, "ApprovePayLater", orderID, actor, domain.RoleShopOwner, func(_ context.Context, o *domain.Order) (bool, error) {
		if o.PaymentMethod == nil || *o.PaymentMethod != domain.PaymentPayLater {
			return false, fmt.Errorf("%w: order %d: payment method is not pay_later", domain.ErrInvalidTransition, o.ID)
		}
		if o.PaymentStatus == domain.PaymentApproved {
			return false, nil
		}
		if o.PaymentStatus != domain.PaymentPending {
			return false, domain.InvalidTransitionError(domain.EntityPayment, string(o.PaymentStatus), string(domain.PaymentApproved))
		}

		o.PaymentStatus = domain.PaymentApproved
		return true, nil
	})
}

// checkPayLater оплата позже доступна клиентам с доставленным заказом в этом магазине
// либо из белого списка магазина
func (s *Service) checkPayLater(ctx context.Context, o *domain.Order) error {
	delivered, err := s.orders.CountDelivered(ctx, o.CustomerID, o.ShopID)
	if err != nil {
		return fmt.Errorf("%w: checkPayLater - count delivered: %v", ErrInternal, err)
	}
	if delivered > 0 {
		return nil
	}

	whitelisted, err := s.shops.IsPayLaterWhitelisted(ctx, o.ShopID, o.CustomerID)
	if err != nil {
		return fmt.Errorf("%w: checkPayLater - whitelist: %v", ErrInternal, err)
	}
	if whitelisted {
		return nil
	}

	return fmt.Errorf("%w: customer %d has no delivered orders at shop %d and is not whitelisted", domain.ErrPayLaterIneligible, o.CustomerID, o.ShopID)
}

// apply общий путь изменения оплаты: роль, принадлежность, условная запись по статусу оплаты
func (s *Service) apply(ctx context.Context, op string, orderID int64, actor domain.Actor, role domain.ActorRole, mutate mutation) (*models.OrderResponse, error) {
	if actor.Role != role {
		return nil, domain.UnauthorizedError(actor.Role, strings.ToLower(op))
	}

	var before, after *domain.Order
	var changed bool

	err := s.txManager.Do(ctx, func(ctx context.Context) error {
		o, err := s.orders.GetByID(ctx, orderID)
		if err != nil {
			if errors.Is(err, orderRepo.ErrOrderNotFound) {
				return fmt.Errorf("%w: order %d", domain.ErrNotFound, orderID)
			}
			return fmt.Errorf("%w: %s - repository error: %v", ErrInternal, op, err)
		}
		if err := s.checkParty(ctx, o, actor); err != nil {
			return err
		}

		before = o
		after = o.Clone()
		changed, err = mutate(ctx, after)
		if err != nil || !changed {
			return err
		}

		if err := s.orders.UpdatePaymentIfStatus(ctx, after, before.PaymentStatus); err != nil {
			if errors.Is(err, orderRepo.ErrStatusConflict) {
				return fmt.Errorf("%w: order %d payment left %s", domain.ErrStale, orderID, before.PaymentStatus)
			}
			return fmt.Errorf("%w: %s - update: %v", ErrInternal, op, err)
		}

		if after.PaymentStatus == before.PaymentStatus {
			return nil
		}
		if err := s.history.Append(ctx, &domain.StatusHistory{
			EntityType: domain.EntityPayment,
			EntityID:   orderID,
			Status:     string(after.PaymentStatus),
			ActorRole:  actor.Role,
		}); err != nil {
			return fmt.Errorf("%w: %s - append history: %v", ErrInternal, op, err)
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrInternal) {
			s.logger.Error("%s: order id=%d: %v", op, orderID, err)
		} else {
			s.logger.Warn("%s: order id=%d rejected: %v", op, orderID, err)
		}
		return nil, err
	}

	if !changed {
		s.logger.Info("%s: order id=%d unchanged", op, orderID)
		return models.FromDomainOrder(before), nil
	}

	s.publisher.Publish(ctx, domain.EntityPayment, orderID, string(before.PaymentStatus), string(after.PaymentStatus), actor.Role)
	if s.metrics != nil {
		s.metrics.IncTransition(string(domain.EntityPayment), string(before.PaymentStatus), string(after.PaymentStatus))
	}

	s.logger.Info("%s: order id=%d payment %s -> %s", op, orderID, before.PaymentStatus, after.PaymentStatus)
	return models.FromDomainOrder(after), nil
}

func (s *Service) checkParty(ctx context.Context, o *domain.Order, actor domain.Actor) error {
	switch actor.Role {
	case domain.RoleCustomer:
		if o.CustomerID == actor.ID {
			return nil
		}
	case domain.RoleShopOwner:
		settings, err := s.shops.GetSettings(ctx, o.ShopID)
		if err != nil && !errors.Is(err, shopRepo.ErrShopNotFound) {
			return fmt.Errorf("%w: checkParty - shop settings: %v", ErrInternal, err)
		}
		if err == nil && settings.OwnerID == actor.ID {
			return nil
		}
	}
	return domain.UnauthorizedError(actor.Role, fmt.Sprintf("manage payment of order %d", o.ID))
}
