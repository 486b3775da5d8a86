package get_slot_occupancy

import (
	"fmt"
	"strings"

	"github.com/m04kA/SMC-BookingEngine/internal/domain"
)

const maxLabelsPerRequest = 96

// validateRequest валидирует входные данные запроса
func validateRequest(req *Request) error {
	if req.ServiceID <= 0 {
		return fmt.Errorf("%w: serviceID must be positive", ErrInvalidInput)
	}

	if req.Date.IsZero() {
		return fmt.Errorf("%w: date is required", ErrInvalidInput)
	}

	if len(req.Labels) > maxLabelsPerRequest {
		return fmt.Errorf("%w: at most %d slots per request", ErrInvalidInput, maxLabelsPerRequest)
	}

	for _, label := range req.Labels {
		if strings.TrimSpace(label) == "" || len(label) > domain.MaxTimeSlotLabelLen {
			return fmt.Errorf("%w: invalid slot label %q", ErrInvalidInput, label)
		}
	}

	return nil
}
