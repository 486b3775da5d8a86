package submit_payment_reference

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
	service PaymentService
	logger  Logger
}

func NewHandler(service PaymentService, logger Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// Handle POST /api/v1/orders/{orderId}/payment-reference
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	orderID, err := handlers.PathInt64(r, "orderId")
	if err != nil {
		h.logger.Warn("POST /orders/{id}/payment-reference - Invalid order ID: %v", err)
		handlers.RespondBadRequest(w, msgInvalidOrderID)
		return
	}

	actor, ok := middleware.GetActor(r.Context())
	if !ok {
		handlers.RespondUnauthorized(w, msgMissingActor)
		return
	}

	var req SubmitReferenceRequest
	if err := handlers.DecodeJSON(r, &req); err != nil {
		h.logger.Warn("POST /orders/{id}/payment-reference - Invalid request body: %v", err)
		handlers.RespondBadRequest(w, msgInvalidRequestBody)
		return
	}

	order, err := h.service.SubmitReference(r.Context(), orderID, actor, req.PaymentReference)
	if err != nil {
		if handlers.RespondDomainError(w, err) {
			h.logger.Warn("POST /orders/{id}/payment-reference - Rejected: order_id=%d, error=%v", orderID, err)
			return
		}
		h.logger.Error("POST /orders/{id}/payment-reference - Failed to submit reference: order_id=%d, error=%v", orderID, err)
		handlers.RespondInternalError(w)
		return
	}

	h.logger.Info("POST /orders/{id}/payment-reference - Reference submitted: order_id=%d, payment_status=%s",
		orderID, order.PaymentStatus)
	handlers.RespondJSON(w, http.StatusOK, order)
}
