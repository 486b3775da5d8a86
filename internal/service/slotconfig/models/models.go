package models

import (
	"time"

	"github.com/m04kA/SMC-BookingEngine/internal/domain"
)

// UpsertConfigRequest запрос на создание или обновление параметров услуги.
// При обновлении меняются только переданные поля
type UpsertConfigRequest struct {
	ServiceID          int64    `json:"-"`
	ServiceName        *string  `json:"serviceName,omitempty"`
	Price              *float64 `json:"price,omitempty"`
	DurationMinutes    *int     `json:"durationMinutes,omitempty"`
	MaxBookingsPerSlot *int     `json:"maxBookingsPerSlot,omitempty"` // вместимость слота
}

// ConfigResponse ответ с параметрами слотов услуги
type ConfigResponse struct {
	ServiceID          int64     `json:"serviceId"`
	ProviderID         int64     `json:"providerId"`
	ServiceName        string    `json:"serviceName"`
	Price              float64   `json:"price"`
	DurationMinutes    int       `json:"durationMinutes"`
	MaxBookingsPerSlot int       `json:"maxBookingsPerSlot"`
	CreatedAt          time.Time `json:"createdAt"`
	UpdatedAt          time.Time `json:"updatedAt"`
}

// FromDomainConfig конвертирует доменную модель в response
func FromDomainConfig(c *domain.ServiceSlotConfig) *ConfigResponse {
	return &ConfigResponse{
		ServiceID:          c.ServiceID,
		ProviderID:         c.ProviderID,
		ServiceName:        c.ServiceName,
		Price:              c.Price,
		DurationMinutes:    c.DurationMinutes,
		MaxBookingsPerSlot: c.MaxBookingsPerSlot,
		CreatedAt:          c.CreatedAt,
		UpdatedAt:          c.UpdatedAt,
	}
}

// ApplyTo переносит переданные поля в конфигурацию
func (r *UpsertConfigRequest) ApplyTo(c *domain.ServiceSlotConfig) {
	if r.ServiceName != nil {
		c.ServiceName = *r.ServiceName
	}
	if r.Price != nil {
		c.Price = *r.Price
	}
	if r.DurationMinutes != nil {
		c.DurationMinutes = *r.DurationMinutes
	}
	if r.MaxBookingsPerSlot != nil {
		c.MaxBookingsPerSlot = *r.MaxBookingsPerSlot
	}
}
