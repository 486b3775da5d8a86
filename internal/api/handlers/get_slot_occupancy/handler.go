package get_slot_occupancy

import (
	"errors"
	"net/http"

	"github.com/m04kA/SMC-BookingEngine/internal/api/handlers"
	getSlotOccupancy "github.com/m04kA/SMC-BookingEngine/internal/usecase/get_slot_occupancy"
)

const (
	msgInvalidServiceID = "некорректный ID услуги"
	msgInvalidDate      = "некорректный формат даты, ожидается YYYY-MM-DD"
	msgInvalidInput     = "некорректные параметры запроса"
	msgPastDate         = "дата в прошлом"
)

type Handler struct {
	useCase GetSlotOccupancyUseCase
	logger  Logger
}

func NewHandler(useCase GetSlotOccupancyUseCase, logger Logger) *Handler {
	return &Handler{
		useCase: useCase,
		logger:  logger,
	}
}

// Handle GET /api/v1/services/{serviceId}/occupancy?date=2026-03-12&slots=10:00,11:00
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	serviceID, err := handlers.PathInt64(r, "serviceId")
	if err != nil {
		h.logger.Warn("GET /services/{id}/occupancy - Invalid service ID: %v", err)
		handlers.RespondBadRequest(w, msgInvalidServiceID)
		return
	}

	query := r.URL.Query()
	useCaseReq, err := ToUseCaseRequest(serviceID, query.Get("date"), query.Get("slots"))
	if err != nil {
		h.logger.Warn("GET /services/{id}/occupancy - Invalid date: %v", err)
		handlers.RespondBadRequest(w, msgInvalidDate)
		return
	}

	result, err := h.useCase.Execute(r.Context(), useCaseReq)
	if err != nil {
		switch {
		case errors.Is(err, getSlotOccupancy.ErrInvalidInput):
			handlers.RespondBadRequest(w, msgInvalidInput)

		case errors.Is(err, getSlotOccupancy.ErrInvalidDate):
			handlers.RespondBadRequest(w, msgPastDate)

		case handlers.RespondDomainError(w, err):
			h.logger.Warn("GET /services/{id}/occupancy - service_id=%d: %v", serviceID, err)

		default:
			h.logger.Error("GET /services/{id}/occupancy - Failed to get occupancy: service_id=%d, error=%v", serviceID, err)
			handlers.RespondInternalError(w)
		}
		return
	}

	handlers.RespondJSON(w, http.StatusOK, FromUseCaseResponse(result))
}
