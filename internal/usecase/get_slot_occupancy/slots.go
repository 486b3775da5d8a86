package get_slot_occupancy

import (
	"time"

	"github.com/m04kA/SMC-BookingEngine/internal/domain"
)

const labelLayout = "15:04"

// Window окно дня, внутри которого генерируются метки слотов
type Window struct {
	Start time.Duration // смещение от полуночи
	End   time.Duration
}

// ParseWindow разбирает границы окна в формате HH:MM
func ParseWindow(start, end string) (Window, error) {
	s, err := time.Parse(labelLayout, start)
	if err != nil {
		return Window{}, err
	}
	e, err := time.Parse(labelLayout, end)
	if err != nil {
		return Window{}, err
	}
	return Window{Start: sinceMidnight(s), End: sinceMidnight(e)}, nil
}

// generateLabels генерирует метки слотов от начала окна с шагом длительности услуги.
// Слот, который не успевает закончиться до конца окна, не генерируется.
// Для сегодняшней даты уже начавшиеся слоты отбрасываются
func generateLabels(window Window, durationMinutes int, date, now time.Time) []string {
	if durationMinutes <= 0 || isDateInPast(date, now) {
		return []string{}
	}
	step := time.Duration(durationMinutes) * time.Minute

	var notBefore time.Duration
	if isSameDay(date, now) {
		notBefore = sinceMidnight(now)
	}

	labels := make([]string, 0)
	for start := window.Start; start+step <= window.End; start += step {
		if start < notBefore {
			continue
		}
		labels = append(labels, formatLabel(start))
	}
	return labels
}

// toSlots переводит занятость в модели ответа
func toSlots(occupancies []domain.SlotOccupancy, durationMinutes int) []Slot {
	result := make([]Slot, len(occupancies))
	for i, occ := range occupancies {
		result[i] = Slot{
			Label:           occ.Slot.Label,
			DurationMinutes: durationMinutes,
			Occupied:        occ.Occupied,
			AvailableSpots:  occ.Available(),
			TotalSpots:      occ.Capacity,
		}
	}
	return result
}

func sinceMidnight(t time.Time) time.Duration {
	return time.Duration(t.Hour())*time.Hour + time.Duration(t.Minute())*time.Minute
}

func formatLabel(d time.Duration) string {
	return time.Date(0, 1, 1, 0, 0, 0, 0, time.UTC).Add(d).Format(labelLayout)
}

// isSameDay проверяет, что две даты относятся к одному и тому же дню
func isSameDay(date1, date2 time.Time) bool {
	y1, m1, d1 := date1.Date()
	y2, m2, d2 := date2.Date()
	return y1 == y2 && m1 == m2 && d1 == d2
}

// isDateInPast проверяет, что дата в прошлом (раньше сегодняшнего дня)
func isDateInPast(date, now time.Time) bool {
	return domain.NormalizeDate(date).Before(domain.NormalizeDate(now))
}
