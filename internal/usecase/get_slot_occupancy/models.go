package get_slot_occupancy

import "time"

// Request модель запроса занятости слотов
type Request struct {
	ServiceID int64     // ID услуги
	Date      time.Time // Дата (без времени)
	Labels    []string  // Метки слотов; пусто - сгенерировать по окну дня
}

// Response модель ответа с занятостью слотов
type Response struct {
	ServiceID int64
	Date      time.Time
	Slots     []Slot
}

// Slot занятость одного слота
type Slot struct {
	Label           string // Метка слота (например, "10:00")
	DurationMinutes int
	Occupied        int
	AvailableSpots  int
	TotalSpots      int
}
