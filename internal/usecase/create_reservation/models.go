package create_reservation

import (
	"time"

	"github.com/m04kA/SMC-BookingEngine/internal/domain"
)

// Request модель запроса на создание бронирования
type Request struct {
	Actor         domain.Actor    // Инициатор (только клиент)
	ServiceID     int64           // ID услуги
	Date          time.Time       // Дата бронирования (без времени)
	TimeSlotLabel string          // Метка слота (например, "10:00")
	Location      domain.GeoPoint // Место оказания услуги
	Comments      *string         // Комментарий клиента (опционально)
}

// Response созданное бронирование
type Response struct {
	Reservation *domain.Reservation
}
