package get_order

import (
	"net/http"

	"github.com/m04kA/SMC-BookingEngine/internal/api/handlers"
	"github.com/m04kA/SMC-BookingEngine/internal/api/middleware"
)

const (
	msgInvalidOrderID = "некорректный ID заказа"
	msgMissingActor   = "отсутствует участник запроса"
)

type Handler struct {
	service OrderReader
	logger  Logger
}

func NewHandler(service OrderReader, logger Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// Handle GET /api/v1/orders/{orderId}
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	orderID, err := handlers.PathInt64(r, "orderId")
	if err != nil {
		h.logger.Warn("GET /orders/{id} - Invalid order ID: %v", err)
		handlers.RespondBadRequest(w, msgInvalidOrderID)
		return
	}

	actor, ok := middleware.GetActor(r.Context())
	if !ok {
		handlers.RespondUnauthorized(w, msgMissingActor)
		return
	}

	order, err := h.service.GetOrder(r.Context(), orderID, actor)
	if err != nil {
		if handlers.RespondDomainError(w, err) {
			h.logger.Warn("GET /orders/{id} - order_id=%d, user_id=%d: %v", orderID, actor.ID, err)
			return
		}
		h.logger.Error("GET /orders/{id} - Failed to get order: order_id=%d, error=%v", orderID, err)
		handlers.RespondInternalError(w)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, order)
}
