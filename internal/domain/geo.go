package domain

// GeoPoint координаты места оказания услуги
type GeoPoint struct {
	Lat float64
	Lng float64
}

// IsZero возвращает true, если координаты не заданы
func (p GeoPoint) IsZero() bool {
	return p.Lat == 0 && p.Lng == 0
}

// IsValid проверяет диапазоны широты и долготы
func (p GeoPoint) IsValid() bool {
	return p.Lat >= -90 && p.Lat <= 90 && p.Lng >= -180 && p.Lng <= 180
}
