package domain

import "time"

// WaitlistEntry запись в листе ожидания на конкретный слот
// Порядок строго FIFO по JoinedAt
type WaitlistEntry struct {
	ID              int64
	CustomerID      int64
	ServiceID       int64
	PreferredDate   time.Time
	TimeSlotLabel   string
	ServiceLocation GeoPoint
	JoinedAt        time.Time
}

// Slot возвращает слот, на который записан клиент
func (e *WaitlistEntry) Slot() SlotKey {
	return SlotKey{ServiceID: e.ServiceID, Date: e.PreferredDate, Label: e.TimeSlotLabel}
}
