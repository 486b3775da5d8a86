package get_timeline

import (
	"net/http"

	"github.com/m04kA/SMC-BookingEngine/internal/api/handlers"
	"github.com/m04kA/SMC-BookingEngine/internal/api/middleware"
	"github.com/m04kA/SMC-BookingEngine/internal/domain"
)

const (
	msgInvalidID    = "некорректный ID"
	msgMissingActor = "отсутствует участник запроса"
)

// Handler таймлайн бронирования или заказа. Тип сущности задается при регистрации маршрута
type Handler struct {
	service    TimelineReader
	entityType domain.EntityType
	idVar      string
	logger     Logger
}

func NewHandler(service TimelineReader, entityType domain.EntityType, idVar string, logger Logger) *Handler {
	return &Handler{
		service:    service,
		entityType: entityType,
		idVar:      idVar,
		logger:     logger,
	}
}

// Handle GET /api/v1/reservations/{reservationId}/timeline, GET /api/v1/orders/{orderId}/timeline
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	id, err := handlers.PathInt64(r, h.idVar)
	if err != nil {
		h.logger.Warn("GET /%s/{id}/timeline - Invalid ID: %v", h.entityType, err)
		handlers.RespondBadRequest(w, msgInvalidID)
		return
	}

	actor, ok := middleware.GetActor(r.Context())
	if !ok {
		handlers.RespondUnauthorized(w, msgMissingActor)
		return
	}

	timeline, err := h.service.Timeline(r.Context(), h.entityType, id, actor)
	if err != nil {
		if handlers.RespondDomainError(w, err) {
			h.logger.Warn("GET /%s/{id}/timeline - id=%d, user_id=%d: %v", h.entityType, id, actor.ID, err)
			return
		}
		h.logger.Error("GET /%s/{id}/timeline - Failed to get timeline: id=%d, error=%v", h.entityType, id, err)
		handlers.RespondInternalError(w)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, timeline)
}
