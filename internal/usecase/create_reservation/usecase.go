package create_reservation

import (
	"context"
	"strings"

	"github.com/m04kA/SMC-BookingEngine/internal/domain"
	slotModels "github.com/m04kA/SMC-BookingEngine/internal/service/slots/models"
)

// UseCase use case для создания бронирования
type UseCase struct {
	guard        SlotGuard
	timeProvider TimeProvider
	logger       Logger
}

// NewUseCase создает новый экземпляр use case
func NewUseCase(guard SlotGuard, logger Logger) *UseCase {
	return &UseCase{
		guard:        guard,
		timeProvider: &RealTimeProvider{},
		logger:       logger,
	}
}

// Execute выполняет use case создания бронирования
func (uc *UseCase) Execute(ctx context.Context, req *Request) (*Response, error) {
	uc.logger.Info("CreateReservation: customer=%d, service=%d, date=%s, slot=%s",
		req.Actor.ID, req.ServiceID, req.Date.Format(domain.DateFormat), req.TimeSlotLabel)

	// 1. Создавать бронирования может только клиент
	if req.Actor.Role != domain.RoleCustomer {
		uc.logger.Warn("CreateReservation: role=%s is not allowed to reserve", req.Actor.Role)
		return nil, domain.UnauthorizedError(req.Actor.Role, "create reservation")
	}

	// 2. Валидация входных данных
	if err := validateRequest(req); err != nil {
		uc.logger.Warn("CreateReservation: validation failed: %v", err)
		return nil, err
	}

	if isDateInPast(req.Date, uc.timeProvider.Now()) {
		uc.logger.Warn("CreateReservation: date %s is in the past", req.Date.Format(domain.DateFormat))
		return nil, ErrInvalidDate
	}

	// 3. Занимаем место в слоте
	created, err := uc.guard.Reserve(ctx, slotModels.ReserveRequest{
		ServiceID:  req.ServiceID,
		CustomerID: req.Actor.ID,
		Date:       req.Date,
		Label:      strings.TrimSpace(req.TimeSlotLabel),
		Location:   req.Location,
		Comments:   req.Comments,
	})
	if err != nil {
		return nil, err
	}

	uc.logger.Info("CreateReservation: successfully created reservation id=%d", created.ID)
	return &Response{Reservation: created}, nil
}
