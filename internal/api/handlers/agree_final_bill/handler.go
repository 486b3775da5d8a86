package agree_final_bill

import (
	"net/http"

	"github.com/m04kA/SMC-BookingEngine/internal/api/handlers"
	"github.com/m04kA/SMC-BookingEngine/internal/api/middleware"
	"github.com/m04kA/SMC-BookingEngine/internal/domain"
)

const (
	msgInvalidOrderID = "некорректный ID заказа"
	msgMissingActor   = "отсутствует участник запроса"
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

// Handle POST /api/v1/orders/{orderId}/agree-final-bill
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	orderID, err := handlers.PathInt64(r, "orderId")
	if err != nil {
		h.logger.Warn("POST /orders/{id}/agree-final-bill - Invalid order ID: %v", err)
		handlers.RespondBadRequest(w, msgInvalidOrderID)
		return
	}

	actor, ok := middleware.GetActor(r.Context())
	if !ok {
		handlers.RespondUnauthorized(w, msgMissingActor)
		return
	}

	order, err := h.engine.ApplyOrder(r.Context(), orderID, actor, domain.AgreeFinalBillPayload{})
	if err != nil {
		if handlers.RespondDomainError(w, err) {
			h.logger.Warn("POST /orders/{id}/agree-final-bill - Rejected: order_id=%d, user_id=%d, error=%v", orderID, actor.ID, err)
			return
		}
		h.logger.Error("POST /orders/{id}/agree-final-bill - Failed to agree final bill: order_id=%d, error=%v", orderID, err)
		handlers.RespondInternalError(w)
		return
	}

	h.logger.Info("POST /orders/{id}/agree-final-bill - Final bill agreed: order_id=%d, total=%.2f", orderID, order.Total)
	handlers.RespondJSON(w, http.StatusOK, order)
}
