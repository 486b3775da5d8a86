package update_order_status

import (
	"net/http"

	"github.com/m04kA/SMC-BookingEngine/internal/api/handlers"
	"github.com/m04kA/SMC-BookingEngine/internal/api/middleware"
)

const (
	msgInvalidOrderID     = "некорректный ID заказа"
	msgInvalidRequestBody = "некорректное тело запроса"
	msgMissingActor       = "отсутствует участник запроса"
)

type Handler struct {
	engine TransitionEngine
	logger Logger
}

func NewHandler(engine TransitionEngine, logger Logger) *Handler {
	return &Handler{
		engine: engine,
		logger: logger,
	}
}

// Handle PATCH /api/v1/orders/{orderId}/status
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	orderID, err := handlers.PathInt64(r, "orderId")
	if err != nil {
		h.logger.Warn("PATCH /orders/{id}/status - Invalid order ID: %v", err)
		handlers.RespondBadRequest(w, msgInvalidOrderID)
		return
	}

	actor, ok := middleware.GetActor(r.Context())
	if !ok {
		handlers.RespondUnauthorized(w, msgMissingActor)
		return
	}

	var req UpdateStatusRequest
	if err := handlers.DecodeJSON(r, &req); err != nil {
		h.logger.Warn("PATCH /orders/{id}/status - Invalid request body: %v", err)
		handlers.RespondBadRequest(w, msgInvalidRequestBody)
		return
	}

	cmd, err := req.ToCommand()
	if err != nil {
		h.logger.Warn("PATCH /orders/{id}/status - Invalid command: order_id=%d, status=%q, error=%v",
			orderID, req.Status, err)
		handlers.RespondDomainError(w, err)
		return
	}

	order, err := h.engine.ApplyOrder(r.Context(), orderID, actor, cmd)
	if err != nil {
		if handlers.RespondDomainError(w, err) {
			h.logger.Warn("PATCH /orders/{id}/status - Rejected: order_id=%d, role=%s, command=%s, error=%v",
				orderID, actor.Role, cmd.Name(), err)
			return
		}
		h.logger.Error("PATCH /orders/{id}/status - Failed to apply %s: order_id=%d, error=%v",
			cmd.Name(), orderID, err)
		handlers.RespondInternalError(w)
		return
	}

	h.logger.Info("PATCH /orders/{id}/status - Applied %s: order_id=%d, status=%s, role=%s",
		cmd.Name(), orderID, order.Status, actor.Role)
	handlers.RespondJSON(w, http.StatusOK, order)
}
