package transitions

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/m04kA/SMC-BookingEngine/internal/domain"
	"github.com/m04kA/SMC-BookingEngine/internal/infra/cache"
	reservationRepo "github.com/m04kA/SMC-BookingEngine/internal/infra/storage/reservation"
	"github.com/m04kA/SMC-BookingEngine/internal/service/transitions/models"
)

// ApplyReservation применяет команду к бронированию.
// Повтор уже примененной команды той же ролью возвращает текущее состояние без события
func (e *Engine) ApplyReservation(ctx context.Context, id int64, actor domain.Actor, cmd domain.ReservationCommand) (*models.ReservationResponse, error) {
	e.logger.Info("ApplyReservation: id=%d %s by %s=%d", id, cmd.Name(), actor.Role, actor.ID)

	now := e.now()
	var current, next *domain.Reservation
	var changed bool

	err := e.txManager.Do(ctx, func(ctx context.Context) error {
		var err error
		current, err = e.loadReservation(ctx, id)
		if err != nil {
			return err
		}

		next, changed, err = planReservation(current, actor, cmd, now, e.cfg)
		if err != nil || !changed {
			return err
		}

		if err := e.reservations.UpdateIfStatus(ctx, next, current.Status); err != nil {
			if errors.Is(err, reservationRepo.ErrStatusConflict) {
				return fmt.Errorf("%w: reservation %d left status %s", domain.ErrStale, id, current.Status)
			}
			return wrapInternal("ApplyReservation", err)
		}

		if next.Status == current.Status {
			return nil
		}
		return e.appendHistory(ctx, domain.EntityReservation, id, string(next.Status), actor.Role, nil)
	})
	if err != nil {
		if errors.Is(err, ErrInternal) {
			e.logger.Error("ApplyReservation: id=%d: %v", id, err)
		} else {
			e.logger.Warn("ApplyReservation: id=%d rejected: %v", id, err)
		}
		return nil, err
	}

	if !changed {
		e.logger.Info("ApplyReservation: id=%d already %s, nothing to do", id, current.Status)
		return models.FromDomainReservation(current), nil
	}

	e.afterReservationCommit(ctx, current, next, actor.Role)

	e.logger.Info("ApplyReservation: id=%d %s -> %s", id, current.Status, next.Status)
	return models.FromDomainReservation(next), nil
}

// ExpireReservation отменяет просроченное бронирование от имени системы.
// Возвращает false, если бронирование успело уйти из истекающего статуса
func (e *Engine) ExpireReservation(ctx context.Context, res *domain.Reservation, now time.Time) (bool, error) {
	var expired bool

	err := e.txManager.Do(ctx, func(ctx context.Context) error {
		ok, err := e.reservations.ExpireIfDue(ctx, res.ID, res.Status, now, domain.ExpiredReason)
		if err != nil {
			return wrapInternal("ExpireReservation", err)
		}
		if !ok {
			return nil
		}
		expired = true
		return e.appendHistory(ctx, domain.EntityReservation, res.ID, string(domain.ReservationCancelled), domain.RoleSystem, nil)
	})
	if err != nil || !expired {
		return false, err
	}

	after := res.Clone()
	after.Status = domain.ReservationCancelled
	after.ExpiresAt = nil
	after.CancellationReason = optional(domain.ExpiredReason)

	e.afterReservationCommit(ctx, res, after, domain.RoleSystem)

	e.logger.Info("ExpireReservation: id=%d expired from %s", res.ID, res.Status)
	return true, nil
}

// afterReservationCommit: инвалидация кэша, событие, затем освобождение места
func (e *Engine) afterReservationCommit(ctx context.Context, before, after *domain.Reservation, role domain.ActorRole) {
	slot := after.Slot()

	e.invalidate(ctx, cache.OccupancyKey(slot), cache.ScheduleKey(after.ProviderID, after.BookingDate))
	e.publisher.Publish(ctx, domain.EntityReservation, after.ID, string(before.Status), string(after.Status), role)
	e.countTransition(domain.EntityReservation, string(before.Status), string(after.Status))

	if before.Status.OccupiesSlot() && !after.Status.OccupiesSlot() {
		e.slots.Release(ctx, slot)
	}
}

// planReservation проверяет команду и возвращает новое состояние.
// changed=false означает идемпотентный повтор
func planReservation(current *domain.Reservation, actor domain.Actor, cmd domain.ReservationCommand, now time.Time, cfg Config) (*domain.Reservation, bool, error) {
	target := domain.ResolveReservationTarget(cmd, actor.Role)
	edgeTarget := cmd.Target()
	keepsStatus := domain.KeepsStatus(cmd)

	if current.Status == target && !keepsStatus {
		roles, inTable := domain.ReservationEdge(current.Status, edgeTarget)
		if inTable {
			if !domain.RoleAllowed(actor.Role, roles) || !commandAllows(cmd, actor.Role) {
				return nil, false, domain.UnauthorizedError(actor.Role, cmd.Name())
			}
		} else if !domain.ReachableReservationStatus(edgeTarget, actor.Role) || !commandAllows(cmd, actor.Role) {
			return nil, false, domain.InvalidTransitionError(domain.EntityReservation, string(current.Status), string(target))
		}
		if err := checkReservationParty(current, actor); err != nil {
			return nil, false, err
		}
		// Повтор переноса на другую дату не повтор, а новый запрос
		if c, ok := cmd.(domain.ReschedulePayload); ok && !sameDay(current.RescheduleDate, c.Date) {
			return nil, false, fmt.Errorf("%w: reservation %d is already %s to %s",
				domain.ErrInvalidTransition, current.ID, current.Status, formatDay(current.RescheduleDate))
		}
		return current, false, nil
	}

	if keepsStatus && current.Status != edgeTarget {
		return nil, false, domain.InvalidTransitionError(domain.EntityReservation, string(current.Status), string(target))
	}

	roles, ok := domain.ReservationEdge(current.Status, edgeTarget)
	if !ok {
		return nil, false, domain.InvalidTransitionError(domain.EntityReservation, string(current.Status), string(target))
	}
	if !domain.RoleAllowed(actor.Role, roles) || !commandAllows(cmd, actor.Role) {
		return nil, false, domain.UnauthorizedError(actor.Role, cmd.Name())
	}
	if err := checkReservationParty(current, actor); err != nil {
		return nil, false, err
	}

	if _, isCancel := cmd.(domain.CancelReservationPayload); !isCancel && current.IsExpiredAt(now) {
		return nil, false, fmt.Errorf("%w: reservation %d deadline passed at %s", domain.ErrExpired, current.ID, current.ExpiresAt.Format(time.RFC3339))
	}

	next := current.Clone()

	switch c := cmd.(type) {
	case domain.RejectPayload:
		if err := checkLength("reason", c.Reason, domain.MaxReasonLength); err != nil {
			return nil, false, err
		}
		next.RejectionReason = optional(c.Reason)

	case domain.ReschedulePayload:
		if c.Date.IsZero() {
			return nil, false, fmt.Errorf("%w: reschedule date is required", domain.ErrInvalidCommand)
		}
		date := domain.NormalizeDate(c.Date)
		if date.Before(domain.NormalizeDate(now)) {
			return nil, false, fmt.Errorf("%w: reschedule date %s is in the past", domain.ErrInvalidCommand, date.Format(domain.DateFormat))
		}
		if err := checkLength("reason", c.Reason, domain.MaxReasonLength); err != nil {
			return nil, false, err
		}
		next.RescheduleDate = &date
		if c.Reason != "" {
			next.Comments = optional(c.Reason)
		}

	case domain.SubmitPaymentReferencePayload:
		reference := strings.TrimSpace(c.Reference)
		if reference == "" {
			return nil, false, fmt.Errorf("%w: payment reference is required", domain.ErrInvalidCommand)
		}
		if err := checkLength("reference", reference, domain.MaxPaymentReferenceLen); err != nil {
			return nil, false, err
		}
		if current.PaymentReference != nil && *current.PaymentReference == reference {
			return current, false, nil
		}
		next.PaymentReference = &reference

	case domain.ReportDisputePayload:
		if current.Disputed {
			return current, false, nil
		}
		if err := checkLength("reason", c.Reason, domain.MaxReasonLength); err != nil {
			return nil, false, err
		}
		next.Disputed = true
		next.DisputeReason = optional(c.Reason)

	case domain.CompletePayload:
		if current.Status == domain.ReservationAwaitingPayment && current.PaymentReference == nil && !c.PaymentReceived {
			return nil, false, fmt.Errorf("%w: reservation %d: payment is not confirmed", domain.ErrInvalidTransition, current.ID)
		}
		if err := checkLength("notes", c.Notes, domain.MaxCommentsLength); err != nil {
			return nil, false, err
		}
		next.CompletionNotes = optional(c.Notes)

	case domain.CancelReservationPayload:
		if err := checkLength("reason", c.Reason, domain.MaxReasonLength); err != nil {
			return nil, false, err
		}
		next.CancellationReason = optional(c.Reason)
	}

	next.Status = target

	switch {
	case !next.Status.IsExpirable():
		next.ExpiresAt = nil
	case current.Status != next.Status:
		deadline := now.Add(cfg.AwaitingPaymentTTL)
		next.ExpiresAt = &deadline
	}

	return next, true, nil
}

// commandAllows nil в Roles команды означает ограничения только таблицы
func commandAllows(cmd domain.ReservationCommand, role domain.ActorRole) bool {
	roles := cmd.Roles()
	return roles == nil || domain.RoleAllowed(role, roles)
}

func sameDay(current *time.Time, requested time.Time) bool {
	return current != nil && current.Equal(domain.NormalizeDate(requested))
}

func formatDay(day *time.Time) string {
	if day == nil {
		return "unknown date"
	}
	return day.Format(domain.DateFormat)
}
