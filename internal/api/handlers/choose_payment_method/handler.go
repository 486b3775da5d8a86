package choose_payment_method

import (
	"net/http"

	"github.com/m04kA/SMC-BookingEngine/internal/api/handlers"
	"github.com/m04kA/SMC-BookingEngine/internal/api/middleware"
	"github.com/m04kA/SMC-BookingEngine/internal/domain"
)

const (
	msgInvalidOrderID     = "некорректный ID заказа"
	msgInvalidRequestBody = "некорректное тело запроса"
	msgMissingActor       = "отсутствует участник запроса"
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

// Handle POST /api/v1/orders/{orderId}/payment-method
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	orderID, err := handlers.PathInt64(r, "orderId")
	if err != nil {
		h.logger.Warn("POST /orders/{id}/payment-method - Invalid order ID: %v", err)
		handlers.RespondBadRequest(w, msgInvalidOrderID)
		return
	}

	actor, ok := middleware.GetActor(r.Context())
	if !ok {
		handlers.RespondUnauthorized(w, msgMissingActor)
		return
	}

	var req ChooseMethodRequest
	if err := handlers.DecodeJSON(r, &req); err != nil {
		h.logger.Warn("POST /orders/{id}/payment-method - Invalid request body: %v", err)
		handlers.RespondBadRequest(w, msgInvalidRequestBody)
		return
	}

	order, err := h.service.ChooseMethod(r.Context(), orderID, actor, domain.PaymentMethod(req.PaymentMethod))
	if err != nil {
		if handlers.RespondDomainError(w, err) {
			h.logger.Warn("POST /orders/{id}/payment-method - Rejected: order_id=%d, method=%q, error=%v",
				orderID, req.PaymentMethod, err)
			return
		}
		h.logger.Error("POST /orders/{id}/payment-method - Failed to choose method: order_id=%d, error=%v", orderID, err)
		handlers.RespondInternalError(w)
		return
	}

	h.logger.Info("POST /orders/{id}/payment-method - Method chosen: order_id=%d, method=%s", orderID, req.PaymentMethod)
	handlers.RespondJSON(w, http.StatusOK, order)
}
