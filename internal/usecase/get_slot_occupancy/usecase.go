package get_slot_occupancy

import (
	"context"
	"errors"
	"fmt"

	"github.com/m04kA/SMC-BookingEngine/internal/domain"
	slotconfigRepo "github.com/m04kA/SMC-BookingEngine/internal/infra/storage/slotconfig"
)

// UseCase use case для получения занятости слотов услуги на дату
type UseCase struct {
	occupancy    OccupancyReader
	configRepo   ConfigRepository
	window       Window
	timeProvider TimeProvider
	logger       Logger
}

// NewUseCase создает новый экземпляр use case
func NewUseCase(
	occupancy OccupancyReader,
	configRepo ConfigRepository,
	window Window,
	logger Logger,
) *UseCase {
	return &UseCase{
		occupancy:    occupancy,
		configRepo:   configRepo,
		window:       window,
		timeProvider: &RealTimeProvider{},
		logger:       logger,
	}
}

// Execute выполняет use case получения занятости
func (uc *UseCase) Execute(ctx context.Context, req *Request) (*Response, error) {
	uc.logger.Info("GetSlotOccupancy: service=%d, date=%s, slots=%d",
		req.ServiceID, req.Date.Format(domain.DateFormat), len(req.Labels))

	// 1. Валидация входных данных
	if err := validateRequest(req); err != nil {
		uc.logger.Warn("GetSlotOccupancy: validation failed: %v", err)
		return nil, err
	}

	now := uc.timeProvider.Now()
	date := domain.NormalizeDate(req.Date)
	if isDateInPast(date, now) {
		return nil, ErrInvalidDate
	}

	// 2. Конфигурация услуги (длительность слота для генерации меток)
	config, err := uc.configRepo.GetByServiceID(ctx, req.ServiceID)
	if err != nil {
		if errors.Is(err, slotconfigRepo.ErrConfigNotFound) {
			uc.logger.Warn("GetSlotOccupancy: slot config for service=%d not found", req.ServiceID)
			return nil, fmt.Errorf("%w: slot config for service %d", domain.ErrNotFound, req.ServiceID)
		}
		uc.logger.Error("GetSlotOccupancy: failed to get config: %v", err)
		return nil, fmt.Errorf("%w: failed to get config: %v", ErrInternal, err)
	}

	// 3. Метки слотов: переданные клиентом или сгенерированные по окну дня
	labels := req.Labels
	if len(labels) == 0 {
		labels = generateLabels(uc.window, config.DurationMinutes, date, now)
	}

	// 4. Занятость
	occupancies, err := uc.occupancy.OccupancyForDate(ctx, req.ServiceID, date, labels)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, err
		}
		uc.logger.Error("GetSlotOccupancy: failed to read occupancy: %v", err)
		return nil, fmt.Errorf("%w: failed to read occupancy: %v", ErrInternal, err)
	}

	return &Response{
		ServiceID: req.ServiceID,
		Date:      date,
		Slots:     toSlots(occupancies, config.DurationMinutes),
	}, nil
}
