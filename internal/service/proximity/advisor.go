package proximity

import (
	"context"
	"fmt"
	"time"

	"github.com/m04kA/SMC-BookingEngine/internal/domain"
	"github.com/m04kA/SMC-BookingEngine/internal/infra/cache"
)

// ScheduleRepository активные бронирования исполнителя на дату
type ScheduleRepository interface {
	ListActiveByProviderAndDate(ctx context.Context, providerID int64, date time.Time) ([]*domain.Reservation, error)
}

// Cache кэш расписаний исполнителей
type Cache interface {
	GetJSON(ctx context.Context, key string, dest interface{}) bool
	SetJSON(ctx context.Context, key string, value interface{}, ttl time.Duration) error
}

// Logger интерфейс для логирования
type Logger interface {
	Warn(format string, v ...interface{})
}

// scheduleItem минимальная проекция бронирования для кэша расписания
type scheduleItem struct {
	ID     int64   `json:"id"`
	Label  string  `json:"label"`
	Status string  `json:"status"`
	Lat    float64 `json:"lat"`
	Lng    float64 `json:"lng"`
}

// Advisor подсказывает исполнителю о близких по месту бронированиях в тот же день
type Advisor struct {
	schedules   ScheduleRepository
	cache       Cache
	logger      Logger
	thresholdKm float64
	cacheTTL    time.Duration
}

func NewAdvisor(schedules ScheduleRepository, cache Cache, logger Logger, thresholdKm float64, cacheTTL time.Duration) *Advisor {
	return &Advisor{
		schedules:   schedules,
		cache:       cache,
		logger:      logger,
		thresholdKm: thresholdKm,
		cacheTTL:    cacheTTL,
	}
}

// Advise возвращает рекомендацию для бронирования или nil
func (a *Advisor) Advise(ctx context.Context, providerID int64, candidate *domain.Reservation) (*Advisory, error) {
	others, err := a.schedule(ctx, providerID, candidate.BookingDate)
	if err != nil {
		return nil, err
	}
	return NearestConflict(candidate, others, a.thresholdKm), nil
}

func (a *Advisor) schedule(ctx context.Context, providerID int64, date time.Time) ([]*domain.Reservation, error) {
	key := cache.ScheduleKey(providerID, date)

	var items []scheduleItem
	if a.cache.GetJSON(ctx, key, &items) {
		return fromItems(items, providerID, date), nil
	}

	reservations, err := a.schedules.ListActiveByProviderAndDate(ctx, providerID, date)
	if err != nil {
		return nil, fmt.Errorf("proximity: load schedule of provider %d: %w", providerID, err)
	}

	items = make([]scheduleItem, 0, len(reservations))
	for _, r := range reservations {
		items = append(items, scheduleItem{
			ID:     r.ID,
			Label:  r.TimeSlotLabel,
			Status: string(r.Status),
			Lat:    r.ServiceLocation.Lat,
			Lng:    r.ServiceLocation.Lng,
		})
	}
	if err := a.cache.SetJSON(ctx, key, items, a.cacheTTL); err != nil {
		a.logger.Warn("Advise: failed to cache schedule key=%s: %v", key, err)
	}

	return reservations, nil
}

func fromItems(items []scheduleItem, providerID int64, date time.Time) []*domain.Reservation {
	result := make([]*domain.Reservation, 0, len(items))
	for _, item := range items {
		result = append(result, &domain.Reservation{
			ID:              item.ID,
			ProviderID:      providerID,
			Status:          domain.ReservationStatus(item.Status),
			BookingDate:     date,
			TimeSlotLabel:   item.Label,
			ServiceLocation: domain.GeoPoint{Lat: item.Lat, Lng: item.Lng},
		})
	}
	return result
}
