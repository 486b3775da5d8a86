package approve_pay_later

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
	service PaymentService
	logger  Logger
}

func NewHandler(service PaymentService, logger Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// Handle POST /api/v1/orders/{orderId}/payment/approve-pay-later
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	orderID, err := handlers.PathInt64(r, "orderId")
	if err != nil {
		h.logger.Warn("POST /orders/{id}/payment/approve-pay-later - Invalid order ID: %v", err)
		handlers.RespondBadRequest(w, msgInvalidOrderID)
		return
	}

	actor, ok := middleware.GetActor(r.Context())
	if !ok {
		handlers.RespondUnauthorized(w, msgMissingActor)
		return
	}

	order, err := h.service.ApprovePayLater(r.Context(), orderID, actor)
	if err != nil {
		if handlers.RespondDomainError(w, err) {
			h.logger.Warn("POST /orders/{id}/payment/approve-pay-later - Rejected: order_id=%d, user_id=%d, error=%v", orderID, actor.ID, err)
			return
		}
		h.logger.Error("POST /orders/{id}/payment/approve-pay-later - Failed to approve pay later: order_id=%d, error=%v", orderID, err)
		handlers.RespondInternalError(w)
		return
	}

	h.logger.Info("POST /orders/{id}/payment/approve-pay-later - Pay later approved: order_id=%d, payment_status=%s", orderID, order.PaymentStatus)
	handlers.RespondJSON(w, http.StatusOK, order)
}
