package get_slot_config

import (
	"net/http"

	"github.com/m04kA/SMC-BookingEngine/internal/api/handlers"
)

const msgInvalidServiceID = "некорректный ID услуги"

type Handler struct {
	service SlotConfigService
	logger  Logger
}

func NewHandler(service SlotConfigService, logger Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// Handle GET /api/v1/services/{serviceId}/slot-config
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	serviceID, err := handlers.PathInt64(r, "serviceId")
	if err != nil {
		h.logger.Warn("GET /services/{id}/slot-config - Invalid service ID: %v", err)
		handlers.RespondBadRequest(w, msgInvalidServiceID)
		return
	}

	config, err := h.service.Get(r.Context(), serviceID)
	if err != nil {
		if handlers.RespondDomainError(w, err) {
			return
		}
		h.logger.Error("GET /services/{id}/slot-config - Failed to get config: service_id=%d, error=%v", serviceID, err)
		handlers.RespondInternalError(w)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, config)
}
