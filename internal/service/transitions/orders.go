package transitions

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/m04kA/SMC-BookingEngine/internal/domain"
	orderRepo "github.com/m04kA/SMC-BookingEngine/internal/infra/storage/order"
	"github.com/m04kA/SMC-BookingEngine/internal/service/transitions/models"
)

// ApplyOrder применяет команду к заказу
func (e *Engine) ApplyOrder(ctx context.Context, id int64, actor domain.Actor, cmd domain.OrderCommand) (*models.OrderResponse, error) {
	e.logger.Info("ApplyOrder: id=%d %s by %s=%d", id, cmd.Name(), actor.Role, actor.ID)

	now := e.now()
	var current, next *domain.Order
	var changed bool

	err := e.txManager.Do(ctx, func(ctx context.Context) error {
		var err error
		current, err = e.loadOrder(ctx, id)
		if err != nil {
			return err
		}

		next, changed, err = planOrder(current, actor, cmd, now, e.cfg)
		if err != nil {
			return err
		}
		if err := e.checkOrderParty(ctx, current, actor); err != nil {
			return err
		}
		if !changed {
			return nil
		}

		if err := e.orders.UpdateIfStatus(ctx, next, current.Status); err != nil {
			if errors.Is(err, orderRepo.ErrStatusConflict) {
				return fmt.Errorf("%w: order %d left status %s", domain.ErrStale, id, current.Status)
			}
			return wrapInternal("ApplyOrder", err)
		}

		var tracking *string
		switch cmd.(type) {
		case domain.DispatchPayload, domain.ShipPayload:
			tracking = next.TrackingInfo
		}
		return e.appendHistory(ctx, domain.EntityOrder, id, string(next.Status), actor.Role, tracking)
	})
	if err != nil {
		if errors.Is(err, ErrInternal) {
			e.logger.Error("ApplyOrder: id=%d: %v", id, err)
		} else {
			e.logger.Warn("ApplyOrder: id=%d rejected: %v", id, err)
		}
		return nil, err
	}

	if !changed {
		e.logger.Info("ApplyOrder: id=%d already %s, nothing to do", id, current.Status)
		return models.FromDomainOrder(current), nil
	}

	e.publisher.Publish(ctx, domain.EntityOrder, id, string(current.Status), string(next.Status), actor.Role)
	e.countTransition(domain.EntityOrder, string(current.Status), string(next.Status))

	e.logger.Info("ApplyOrder: id=%d %s -> %s", id, current.Status, next.Status)
	return models.FromDomainOrder(next), nil
}

// ExpireOrder отменяет просроченный заказ от имени системы
func (e *Engine) ExpireOrder(ctx context.Context, o *domain.Order, now time.Time) (bool, error) {
	var expired bool

	err := e.txManager.Do(ctx, func(ctx context.Context) error {
		ok, err := e.orders.ExpireIfDue(ctx, o.ID, o.Status, now, domain.ExpiredReason)
		if err != nil {
			return wrapInternal("ExpireOrder", err)
		}
		if !ok {
			return nil
		}
		expired = true
		return e.appendHistory(ctx, domain.EntityOrder, o.ID, string(domain.OrderCancelled), domain.RoleSystem, nil)
	})
	if err != nil || !expired {
		return false, err
	}

	e.publisher.Publish(ctx, domain.EntityOrder, o.ID, string(o.Status), string(domain.OrderCancelled), domain.RoleSystem)
	e.countTransition(domain.EntityOrder, string(o.Status), string(domain.OrderCancelled))

	e.logger.Info("ExpireOrder: id=%d expired from %s", o.ID, o.Status)
	return true, nil
}

// planOrder проверяет команду над заказом и возвращает новое состояние.
// Принадлежность заказа проверяется отдельно, так как требует настроек магазина
func planOrder(current *domain.Order, actor domain.Actor, cmd domain.OrderCommand, now time.Time, cfg Config) (*domain.Order, bool, error) {
	target := cmd.Target()

	if current.Status == target {
		if !domain.ReachableOrderStatus(target, actor.Role) {
			return nil, false, domain.InvalidTransitionError(domain.EntityOrder, string(current.Status), string(target))
		}
		return current, false, nil
	}

	roles, ok := domain.OrderEdge(current.Status, target)
	if !ok {
		return nil, false, domain.InvalidTransitionError(domain.EntityOrder, string(current.Status), string(target))
	}
	if !domain.RoleAllowed(actor.Role, roles) {
		return nil, false, domain.UnauthorizedError(actor.Role, cmd.Name())
	}

	if _, isCancel := cmd.(domain.CancelOrderPayload); !isCancel && current.IsExpiredAt(now) {
		return nil, false, fmt.Errorf("%w: order %d deadline passed at %s", domain.ErrExpired, current.ID, current.ExpiresAt.Format(time.RFC3339))
	}

	next := current.Clone()

	switch c := cmd.(type) {
	case domain.SendFinalBillPayload:
		if !current.IsTextOrder() {
			return nil, false, fmt.Errorf("%w: order %d: final bill applies to text orders only", domain.ErrInvalidTransition, current.ID)
		}
		if c.Total <= 0 {
			return nil, false, fmt.Errorf("%w: total must be positive", domain.ErrInvalidCommand)
		}
		next.Total = c.Total

	case domain.ConfirmOrderPayload:
		if current.Status == domain.OrderPending && current.IsTextOrder() {
			return nil, false, fmt.Errorf("%w: order %d: text order needs customer agreement on the final bill", domain.ErrInvalidTransition, current.ID)
		}

	case domain.AgreeFinalBillPayload:
		if current.Status != domain.OrderAwaitingCustomerAgreement {
			return nil, false, domain.InvalidTransitionError(domain.EntityOrder, string(current.Status), string(target))
		}

	case domain.DispatchPayload:
		if err := checkLength("trackingInfo", c.TrackingInfo, domain.MaxTrackingInfoLength); err != nil {
			return nil, false, err
		}
		if c.TrackingInfo != "" {
			next.TrackingInfo = optional(c.TrackingInfo)
		}

	case domain.ShipPayload:
		if err := checkLength("trackingInfo", c.TrackingInfo, domain.MaxTrackingInfoLength); err != nil {
			return nil, false, err
		}
		if c.TrackingInfo != "" {
			next.TrackingInfo = optional(c.TrackingInfo)
		}

	case domain.RequestReturnPayload:
		if !current.ReturnsEnabled {
			return nil, false, fmt.Errorf("%w: order %d: returns are disabled for the shop", domain.ErrInvalidTransition, current.ID)
		}
		if current.ReturnRequested {
			return nil, false, fmt.Errorf("%w: order %d: return already requested", domain.ErrInvalidTransition, current.ID)
		}
		if err := checkLength("reason", c.Reason, domain.MaxReasonLength); err != nil {
			return nil, false, err
		}
		next.ReturnRequested = true

	case domain.CancelOrderPayload:
		if err := checkLength("reason", c.Reason, domain.MaxReasonLength); err != nil {
			return nil, false, err
		}
		next.CancellationReason = optional(c.Reason)
	}

	next.Status = target

	if next.Status.IsExpirable() {
		deadline := now.Add(cfg.OrderPendingTTL)
		next.ExpiresAt = &deadline
	} else {
		next.ExpiresAt = nil
	}

	return next, true, nil
}
