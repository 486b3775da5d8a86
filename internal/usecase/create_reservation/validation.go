package create_reservation

import (
	"fmt"
	"strings"
	"time"

	"github.com/m04kA/SMC-BookingEngine/internal/domain"
)

// validateRequest валидирует входные данные запроса
func validateRequest(req *Request) error {
	if req.Actor.ID <= 0 {
		return fmt.Errorf("%w: customerID must be positive", ErrInvalidInput)
	}

	if req.ServiceID <= 0 {
		return fmt.Errorf("%w: serviceID must be positive", ErrInvalidInput)
	}

	if req.Date.IsZero() {
		return fmt.Errorf("%w: date is required", ErrInvalidInput)
	}

	label := strings.TrimSpace(req.TimeSlotLabel)
	if label == "" {
		return fmt.Errorf("%w: timeSlotLabel is required", ErrInvalidInput)
	}
	if len(label) > domain.MaxTimeSlotLabelLen {
		return fmt.Errorf("%w: timeSlotLabel exceeds %d characters", ErrInvalidInput, domain.MaxTimeSlotLabelLen)
	}

	if !req.Location.IsValid() {
		return fmt.Errorf("%w: location out of range", ErrInvalidInput)
	}

	if req.Comments != nil && len(*req.Comments) > domain.MaxCommentsLength {
		return fmt.Errorf("%w: comments exceed %d characters", ErrInvalidInput, domain.MaxCommentsLength)
	}

	return nil
}

// isDateInPast проверяет, что дата в прошлом (раньше сегодняшнего дня)
func isDateInPast(date, now time.Time) bool {
	return domain.NormalizeDate(date).Before(domain.NormalizeDate(now))
}
