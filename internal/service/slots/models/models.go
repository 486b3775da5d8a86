package models

import (
	"time"

	"github.com/m04kA/SMC-BookingEngine/internal/domain"
)

// ReserveRequest запрос на занятие места в слоте
type ReserveRequest struct {
	ServiceID  int64
	CustomerID int64
	Date       time.Time
	Label      string
	Location   domain.GeoPoint
	Comments   *string
}

// WaitlistRequest запрос на запись в лист ожидания
type WaitlistRequest struct {
	ServiceID  int64
	CustomerID int64
	Date       time.Time
	Label      string
	Location   domain.GeoPoint
}

// WaitlistResponse запись в листе ожидания и позиция в очереди (голова имеет позицию 0)
type WaitlistResponse struct {
	EntryID       int64     `json:"entryId"`
	ServiceID     int64     `json:"serviceId"`
	Date          string    `json:"date"`
	TimeSlotLabel string    `json:"timeSlotLabel"`
	Position      int       `json:"position"`
	JoinedAt      time.Time `json:"joinedAt"`
}

// FromDomainEntry конвертирует запись листа ожидания в ответ
func FromDomainEntry(entry *domain.WaitlistEntry, position int) *WaitlistResponse {
	return &WaitlistResponse{
		EntryID:       entry.ID,
		ServiceID:     entry.ServiceID,
		Date:          entry.PreferredDate.Format(domain.DateFormat),
		TimeSlotLabel: entry.TimeSlotLabel,
		Position:      position,
		JoinedAt:      entry.JoinedAt,
	}
}
