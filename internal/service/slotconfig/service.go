package slotconfig

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/m04kA/SMC-BookingEngine/internal/domain"
	"github.com/m04kA/SMC-BookingEngine/internal/infra/cache"
	slotconfigRepo "github.com/m04kA/SMC-BookingEngine/internal/infra/storage/slotconfig"
	"github.com/m04kA/SMC-BookingEngine/internal/service/slotconfig/models"
)

const maxDurationMinutes = 480 // 8 часов

// Service управление параметрами слотов услуг
type Service struct {
	configRepo SlotConfigRepository
	cache      Cache
	logger     Logger
}

// NewService создает новый экземпляр сервиса конфигураций
func NewService(configRepo SlotConfigRepository, cache Cache, logger Logger) *Service {
	return &Service{
		configRepo: configRepo,
		cache:      cache,
		logger:     logger,
	}
}

// Get возвращает параметры слотов услуги
func (s *Service) Get(ctx context.Context, serviceID int64) (*models.ConfigResponse, error) {
	config, err := s.configRepo.GetByServiceID(ctx, serviceID)
	if err != nil {
		if errors.Is(err, slotconfigRepo.ErrConfigNotFound) {
			return nil, fmt.Errorf("%w: slot config for service %d", domain.ErrNotFound, serviceID)
		}
		s.logger.Error("Get: failed to get config for service=%d: %v", serviceID, err)
		return nil, fmt.Errorf("%w: Get - repository error: %v", ErrInternal, err)
	}

	return models.FromDomainConfig(config), nil
}

// Upsert создает или обновляет параметры слотов услуги.
// Менять их может только исполнитель, которому принадлежит услуга
func (s *Service) Upsert(ctx context.Context, actor domain.Actor, req *models.UpsertConfigRequest) (*models.ConfigResponse, error) {
	if actor.Role != domain.RoleProvider {
		s.logger.Warn("Upsert: role=%s is not allowed to change slot config of service=%d", actor.Role, req.ServiceID)
		return nil, domain.UnauthorizedError(actor.Role, "change slot config")
	}

	config, err := s.configRepo.GetByServiceID(ctx, req.ServiceID)
	switch {
	case errors.Is(err, slotconfigRepo.ErrConfigNotFound):
		config = &domain.ServiceSlotConfig{
			ServiceID:          req.ServiceID,
			ProviderID:         actor.ID,
			DurationMinutes:    domain.DefaultDurationMinutes,
			MaxBookingsPerSlot: domain.DefaultMaxBookingsPerSlot,
		}
	case err != nil:
		s.logger.Error("Upsert: failed to get config for service=%d: %v", req.ServiceID, err)
		return nil, fmt.Errorf("%w: Upsert - repository error: %v", ErrInternal, err)
	case config.ProviderID != actor.ID:
		s.logger.Warn("Upsert: provider=%d does not own service=%d", actor.ID, req.ServiceID)
		return nil, fmt.Errorf("%w: service %d belongs to another provider", domain.ErrUnauthorized, req.ServiceID)
	}

	previousCapacity := config.MaxBookingsPerSlot
	req.ApplyTo(config)
	config.ServiceName = strings.TrimSpace(config.ServiceName)

	if err := validateConfig(config); err != nil {
		return nil, err
	}

	saved, err := s.configRepo.Upsert(ctx, config)
	if err != nil {
		s.logger.Error("Upsert: repository error for service=%d: %v", req.ServiceID, err)
		return nil, fmt.Errorf("%w: Upsert - repository error: %v", ErrInternal, err)
	}

	// Смена вместимости сбрасывает закэшированную занятость всех слотов услуги
	if saved.MaxBookingsPerSlot != previousCapacity {
		if err := s.cache.Invalidate(ctx, cache.ServiceOccupancyPattern(saved.ServiceID)); err != nil {
			s.logger.Warn("Upsert: failed to invalidate occupancy of service=%d: %v", saved.ServiceID, err)
		}
	}

	s.logger.Info("Upsert: service=%d capacity=%d duration=%dm by provider=%d",
		saved.ServiceID, saved.MaxBookingsPerSlot, saved.DurationMinutes, actor.ID)
	return models.FromDomainConfig(saved), nil
}

// validateConfig валидирует параметры конфигурации
func validateConfig(c *domain.ServiceSlotConfig) error {
	if c.ServiceName == "" {
		return fmt.Errorf("%w: serviceName is required", ErrInvalidInput)
	}

	if c.Price < 0 {
		return fmt.Errorf("%w: price must not be negative", ErrInvalidInput)
	}

	if c.DurationMinutes <= 0 || c.DurationMinutes > maxDurationMinutes {
		return fmt.Errorf("%w: durationMinutes must be between 1 and %d", ErrInvalidInput, maxDurationMinutes)
	}

	if c.MaxBookingsPerSlot < domain.MinBookingsPerSlot || c.MaxBookingsPerSlot > domain.MaxBookingsPerSlot {
		return fmt.Errorf("%w: maxBookingsPerSlot must be between %d and %d",
			ErrInvalidInput, domain.MinBookingsPerSlot, domain.MaxBookingsPerSlot)
	}

	return nil
}
