package get_slot_occupancy

import (
	"strings"
	"time"

	"github.com/m04kA/SMC-BookingEngine/internal/domain"
	getSlotOccupancy "github.com/m04kA/SMC-BookingEngine/internal/usecase/get_slot_occupancy"
)

// OccupancyResponse HTTP response model
type OccupancyResponse struct {
	ServiceID int64           `json:"serviceId"`
	Date      string          `json:"date"`
	Slots     []SlotOccupancy `json:"slots"`
}

// SlotOccupancy занятость одного слота
type SlotOccupancy struct {
	TimeSlotLabel   string `json:"timeSlotLabel"`
	DurationMinutes int    `json:"durationMinutes"`
	Occupied        int    `json:"occupied"`
	AvailableSpots  int    `json:"availableSpots"`
	TotalSpots      int    `json:"totalSpots"`
	IsFull          bool   `json:"isFull"`
}

// FromUseCaseResponse конвертирует ответ use case в HTTP response
func FromUseCaseResponse(resp *getSlotOccupancy.Response) *OccupancyResponse {
	slots := make([]SlotOccupancy, len(resp.Slots))
	for i, slot := range resp.Slots {
		slots[i] = SlotOccupancy{
			TimeSlotLabel:   slot.Label,
			DurationMinutes: slot.DurationMinutes,
			Occupied:        slot.Occupied,
			AvailableSpots:  slot.AvailableSpots,
			TotalSpots:      slot.TotalSpots,
			IsFull:          slot.AvailableSpots == 0,
		}
	}

	return &OccupancyResponse{
		ServiceID: resp.ServiceID,
		Date:      resp.Date.Format(domain.DateFormat),
		Slots:     slots,
	}
}

// ToUseCaseRequest создает запрос use case из параметров пути и query.
// slots - метки через запятую
func ToUseCaseRequest(serviceID int64, dateStr, slotsParam string) (*getSlotOccupancy.Request, error) {
	date, err := time.Parse(domain.DateFormat, dateStr)
	if err != nil {
		return nil, err
	}

	var labels []string
	for _, label := range strings.Split(slotsParam, ",") {
		if label = strings.TrimSpace(label); label != "" {
			labels = append(labels, label)
		}
	}

	return &getSlotOccupancy.Request{
		ServiceID: serviceID,
		Date:      date,
		Labels:    labels,
	}, nil
}
