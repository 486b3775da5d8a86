package domain

import (
	"fmt"
	"time"
)

// SlotKey сигнатура слота: (услуга, дата, метка времени)
type SlotKey struct {
	ServiceID int64
	Date      time.Time
	Label     string
}

// String возвращает стабильное представление, используемое как ключ блокировки и кэша
func (k SlotKey) String() string {
	return fmt.Sprintf("%d:%s:%s", k.ServiceID, k.Date.Format(DateFormat), k.Label)
}

// SlotOccupancy занятость слота
type SlotOccupancy struct {
	Slot     SlotKey
	Occupied int
	Capacity int
}

// IsFull returns true if the slot has no available spots
func (o SlotOccupancy) IsFull() bool {
	return o.Occupied >= o.Capacity
}

// Available returns the number of free spots
func (o SlotOccupancy) Available() int {
	if o.Occupied >= o.Capacity {
		return 0
	}
	return o.Capacity - o.Occupied
}

// OccupancyRate returns the occupancy rate as a percentage (0-100)
func (o SlotOccupancy) OccupancyRate() float64 {
	if o.Capacity == 0 {
		return 0
	}
	rate := float64(o.Occupied) / float64(o.Capacity) * 100
	if rate > 100 {
		return 100
	}
	return rate
}

// ServiceSlotConfig параметры слотов услуги
type ServiceSlotConfig struct {
	ServiceID          int64
	ProviderID         int64
	ServiceName        string
	Price              float64
	DurationMinutes    int
	MaxBookingsPerSlot int
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// Snapshot возвращает копию параметров услуги для бронирования
func (c *ServiceSlotConfig) Snapshot() ServiceSnapshot {
	return ServiceSnapshot{
		ServiceName:     c.ServiceName,
		Price:           c.Price,
		DurationMinutes: c.DurationMinutes,
	}
}

// SupportsParallelBookings returns true if multiple concurrent bookings are supported
func (c *ServiceSlotConfig) SupportsParallelBookings() bool {
	return c.MaxBookingsPerSlot > 1
}

// NormalizeDate обнуляет время, оставляя только дату в UTC
func NormalizeDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
