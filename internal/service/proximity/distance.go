package proximity

import (
	"fmt"
	"math"

	"github.com/m04kA/SMC-BookingEngine/internal/domain"
)

// earthRadiusKm средний радиус Земли
const earthRadiusKm = 6371.0

// DistanceKm расстояние по большой окружности (формула гаверсинусов)
func DistanceKm(a, b domain.GeoPoint) float64 {
	dLat := (b.Lat - a.Lat) * math.Pi / 180
	dLng := (b.Lng - a.Lng) * math.Pi / 180

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(a.Lat*math.Pi/180)*math.Cos(b.Lat*math.Pi/180)*
			math.Sin(dLng/2)*math.Sin(dLng/2)

	return earthRadiusKm * 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
}

// Advisory рекомендация исполнителю: рядом есть другое бронирование на ту же дату.
// Не сохраняется и ни на что не влияет
type Advisory struct {
	ReservationID int64   `json:"reservationId"`
	TimeSlotLabel string  `json:"timeSlotLabel"`
	DistanceKm    float64 `json:"distanceKm"`
	Message       string  `json:"message"`
}

// NearestConflict ищет ближайшее к кандидату бронирование строго ближе thresholdKm
// среди соседних по времени: в том же слоте и в ближайших занятых слотах до и после.
// Бронирования без координат, неактивные и сам кандидат не учитываются
func NearestConflict(candidate *domain.Reservation, others []*domain.Reservation, thresholdKm float64) *Advisory {
	if candidate == nil || candidate.ServiceLocation.IsZero() {
		return nil
	}

	var nearest *domain.Reservation
	best := math.Inf(1)
	for _, other := range adjacent(candidate, others) {
		d := DistanceKm(candidate.ServiceLocation, other.ServiceLocation)
		if d < thresholdKm && d < best {
			best = d
			nearest = other
		}
	}

	if nearest == nil {
		return nil
	}

	distance := math.Round(best*100) / 100
	return &Advisory{
		ReservationID: nearest.ID,
		TimeSlotLabel: nearest.TimeSlotLabel,
		DistanceKm:    distance,
		Message:       fmt.Sprintf("booking #%d at %s is %.2f km away", nearest.ID, nearest.TimeSlotLabel, distance),
	}
}

// adjacent оставляет бронирования, идущие в расписании вплотную к кандидату.
// Метки слотов сравниваются как строки ("09:00" < "10:00")
func adjacent(candidate *domain.Reservation, others []*domain.Reservation) []*domain.Reservation {
	label := candidate.TimeSlotLabel

	eligible := make([]*domain.Reservation, 0, len(others))
	var prev, next string
	var hasPrev, hasNext bool
	for _, other := range others {
		if other.ID == candidate.ID || other.ServiceLocation.IsZero() || !other.Status.OccupiesSlot() {
			continue
		}
		eligible = append(eligible, other)

		switch l := other.TimeSlotLabel; {
		case l < label && (!hasPrev || l > prev):
			prev, hasPrev = l, true
		case l > label && (!hasNext || l < next):
			next, hasNext = l, true
		}
	}

	result := eligible[:0]
	for _, other := range eligible {
		l := other.TimeSlotLabel
		if l == label || (hasPrev && l == prev) || (hasNext && l == next) {
			result = append(result, other)
		}
	}
	return result
}
