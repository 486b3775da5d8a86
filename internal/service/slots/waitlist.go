package slots

import (
	"context"
	"errors"
	"fmt"

	"github.com/m04kA/SMC-BookingEngine/internal/domain"
	waitlistRepo "github.com/m04kA/SMC-BookingEngine/internal/infra/storage/waitlist"
	"github.com/m04kA/SMC-BookingEngine/internal/service/slots/models"
)

// JoinWaitlist записывает клиента в конец очереди на заполненный слот
func (g *Guard) JoinWaitlist(ctx context.Context, req models.WaitlistRequest) (*models.WaitlistResponse, error) {
	slot := domain.SlotKey{ServiceID: req.ServiceID, Date: domain.NormalizeDate(req.Date), Label: req.Label}
	g.logger.Info("JoinWaitlist: customer=%d slot=%s", req.CustomerID, slot)

	occupancy, err := g.Occupancy(ctx, slot)
	if err != nil {
		return nil, err
	}
	if !occupancy.IsFull() {
		g.logger.Warn("JoinWaitlist: slot=%s has %d free spots", slot, occupancy.Available())
		return nil, fmt.Errorf("%w: %d of %d taken", ErrSlotAvailable, occupancy.Occupied, occupancy.Capacity)
	}

	entry, err := g.waitlist.Add(ctx, &domain.WaitlistEntry{
		CustomerID:      req.CustomerID,
		ServiceID:       slot.ServiceID,
		PreferredDate:   slot.Date,
		TimeSlotLabel:   slot.Label,
		ServiceLocation: req.Location,
	})
	if err != nil {
		if errors.Is(err, waitlistRepo.ErrAlreadyWaitlisted) {
			return nil, ErrAlreadyWaitlisted
		}
		g.logger.Error("JoinWaitlist: repository error for slot=%s: %v", slot, err)
		return nil, fmt.Errorf("%w: JoinWaitlist - repository error: %v", ErrInternal, err)
	}

	position, err := g.position(ctx, slot, req.CustomerID)
	if err != nil {
		return nil, err
	}

	g.logger.Info("JoinWaitlist: customer=%d joined slot=%s at position %d", req.CustomerID, slot, position)
	return models.FromDomainEntry(entry, position), nil
}

// WaitlistPosition возвращает позицию клиента в очереди на слот
func (g *Guard) WaitlistPosition(ctx context.Context, customerID int64, slot domain.SlotKey) (int, error) {
	slot.Date = domain.NormalizeDate(slot.Date)
	return g.position(ctx, slot, customerID)
}

func (g *Guard) position(ctx context.Context, slot domain.SlotKey, customerID int64) (int, error) {
	entries, err := g.waitlist.ListBySlot(ctx, slot)
	if err != nil {
		g.logger.Error("WaitlistPosition: repository error for slot=%s: %v", slot, err)
		return 0, fmt.Errorf("%w: WaitlistPosition - repository error: %v", ErrInternal, err)
	}

	for i, entry := range entries {
		if entry.CustomerID == customerID {
			return i, nil
		}
	}
	return 0, fmt.Errorf("%w: customer %d is not waitlisted for slot %s", domain.ErrNotFound, customerID, slot)
}

// promote пытается превратить голову очереди в pending-бронирование.
// Неудача оставляет запись в голове очереди до следующего освобождения
func (g *Guard) promote(ctx context.Context, slot domain.SlotKey) {
	entry, err := g.waitlist.Head(ctx, slot)
	if err != nil {
		if !errors.Is(err, waitlistRepo.ErrEntryNotFound) {
			g.logger.Error("promote: failed to read waitlist head for slot=%s: %v", slot, err)
		}
		return
	}

	req := models.ReserveRequest{
		ServiceID:  entry.ServiceID,
		CustomerID: entry.CustomerID,
		Date:       entry.PreferredDate,
		Label:      entry.TimeSlotLabel,
		Location:   entry.ServiceLocation,
	}
	res, err := g.reserve(ctx, req, domain.RoleSystem, func(ctx context.Context) error {
		return g.waitlist.Remove(ctx, entry.ID)
	})
	if err != nil {
		g.logger.Warn("promote: waitlist entry=%d stays at head of slot=%s: %v", entry.ID, slot, err)
		return
	}

	g.logger.Info("promote: waitlist entry=%d became reservation id=%d", entry.ID, res.ID)
}
