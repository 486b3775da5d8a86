package create_order

import (
	"errors"
	"net/http"

	"github.com/m04kA/SMC-BookingEngine/internal/api/handlers"
	"github.com/m04kA/SMC-BookingEngine/internal/api/middleware"
	"github.com/m04kA/SMC-BookingEngine/internal/service/transitions/models"
	createOrder "github.com/m04kA/SMC-BookingEngine/internal/usecase/create_order"
)

const (
	msgInvalidRequestBody = "некорректное тело запроса"
	msgMissingActor       = "отсутствует участник запроса"
	msgInvalidData        = "некорректные данные заказа"
)

type Handler struct {
	useCase CreateOrderUseCase
	logger  Logger
}

func NewHandler(useCase CreateOrderUseCase, logger Logger) *Handler {
	return &Handler{
		useCase: useCase,
		logger:  logger,
	}
}

// Handle POST /api/v1/orders
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.GetActor(r.Context())
	if !ok {
		handlers.RespondUnauthorized(w, msgMissingActor)
		return
	}

	var req CreateOrderRequest
	if err := handlers.DecodeJSON(r, &req); err != nil {
		h.logger.Warn("POST /orders - Invalid request body: %v", err)
		handlers.RespondBadRequest(w, msgInvalidRequestBody)
		return
	}

	order, err := h.useCase.Execute(r.Context(), req.ToUseCaseRequest(actor))
	if err != nil {
		switch {
		case errors.Is(err, createOrder.ErrInvalidInput):
			h.logger.Warn("POST /orders - Invalid data: user_id=%d, error=%v", actor.ID, err)
			handlers.RespondBadRequest(w, msgInvalidData)

		case handlers.RespondDomainError(w, err):
			h.logger.Warn("POST /orders - Rejected: user_id=%d, shop_id=%d, error=%v", actor.ID, req.ShopID, err)

		default:
			h.logger.Error("POST /orders - Failed to create order: user_id=%d, shop_id=%d, error=%v", actor.ID, req.ShopID, err)
			handlers.RespondInternalError(w)
		}
		return
	}

	h.logger.Info("POST /orders - Order created successfully: order_id=%d, user_id=%d, shop_id=%d",
		order.ID, actor.ID, order.ShopID)
	handlers.RespondJSON(w, http.StatusCreated, models.FromDomainOrder(order))
}
