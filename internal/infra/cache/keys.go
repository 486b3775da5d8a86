package cache

import (
	"fmt"
	"time"

	"github.com/m04kA/SMC-BookingEngine/internal/domain"
)

// OccupancyKey ключ занятости слота
func OccupancyKey(slot domain.SlotKey) string {
	return "occupancy:" + slot.String()
}

// OccupancyGenerationKey ключ поколения занятости слота.
// Поколение меняется после каждой фиксации, изменившей занятость
func OccupancyGenerationKey(slot domain.SlotKey) string {
	return "occupancy-gen:" + slot.String()
}

// ScheduleKey ключ расписания исполнителя на дату
func ScheduleKey(providerID int64, date time.Time) string {
	return fmt.Sprintf("schedule:%d:%s", providerID, date.Format(domain.DateFormat))
}

// ServiceOccupancyPattern шаблон всех слотов услуги
func ServiceOccupancyPattern(serviceID int64) string {
	return fmt.Sprintf("occupancy:%d:*", serviceID)
}
