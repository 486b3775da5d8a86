package update_slot_config

import (
	"errors"
	"net/http"

	"github.com/m04kA/SMC-BookingEngine/internal/api/handlers"
	"github.com/m04kA/SMC-BookingEngine/internal/api/middleware"
	"github.com/m04kA/SMC-BookingEngine/internal/service/slotconfig"
	"github.com/m04kA/SMC-BookingEngine/internal/service/slotconfig/models"
)

const (
	msgInvalidServiceID   = "некорректный ID услуги"
	msgInvalidRequestBody = "некорректное тело запроса"
	msgMissingActor       = "отсутствует участник запроса"
	msgInvalidData        = "некорректные данные конфигурации"
)

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

// Handle PUT /api/v1/services/{serviceId}/slot-config
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	serviceID, err := handlers.PathInt64(r, "serviceId")
	if err != nil {
		h.logger.Warn("PUT /services/{id}/slot-config - Invalid service ID: %v", err)
		handlers.RespondBadRequest(w, msgInvalidServiceID)
		return
	}

	actor, ok := middleware.GetActor(r.Context())
	if !ok {
		handlers.RespondUnauthorized(w, msgMissingActor)
		return
	}

	var req models.UpsertConfigRequest
	if err := handlers.DecodeJSON(r, &req); err != nil {
		h.logger.Warn("PUT /services/{id}/slot-config - Invalid request body: %v", err)
		handlers.RespondBadRequest(w, msgInvalidRequestBody)
		return
	}
	req.ServiceID = serviceID

	result, err := h.service.Upsert(r.Context(), actor, &req)
	if err != nil {
		switch {
		case errors.Is(err, slotconfig.ErrInvalidInput):
			h.logger.Warn("PUT /services/{id}/slot-config - Invalid data: service_id=%d, error=%v", serviceID, err)
			handlers.RespondBadRequest(w, msgInvalidData)

		case handlers.RespondDomainError(w, err):
			h.logger.Warn("PUT /services/{id}/slot-config - Rejected: service_id=%d, user_id=%d, error=%v",
				serviceID, actor.ID, err)

		default:
			h.logger.Error("PUT /services/{id}/slot-config - Failed to update config: service_id=%d, error=%v",
				serviceID, err)
			handlers.RespondInternalError(w)
		}
		return
	}

	h.logger.Info("PUT /services/{id}/slot-config - Config updated successfully: service_id=%d, capacity=%d",
		serviceID, result.MaxBookingsPerSlot)
	handlers.RespondJSON(w, http.StatusOK, result)
}
