package join_waitlist

import (
	"errors"
	"net/http"
	"strings"

	"github.com/m04kA/SMC-BookingEngine/internal/api/handlers"
	"github.com/m04kA/SMC-BookingEngine/internal/api/middleware"
	"github.com/m04kA/SMC-BookingEngine/internal/domain"
	"github.com/m04kA/SMC-BookingEngine/internal/service/slots"
)

const (
	msgInvalidRequestBody = "некорректное тело запроса"
	msgInvalidDate        = "некорректный формат даты, ожидается YYYY-MM-DD"
	msgInvalidSlot        = "не указаны услуга или слот"
	msgMissingActor       = "отсутствует участник запроса"
	msgSlotAvailable      = "в слоте есть свободные места, бронируйте напрямую"
	msgAlreadyWaitlisted  = "вы уже в листе ожидания на этот слот"
)

type Handler struct {
	service WaitlistService
	logger  Logger
}

func NewHandler(service WaitlistService, logger Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// Handle POST /api/v1/waitlist
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.GetActor(r.Context())
	if !ok {
		handlers.RespondUnauthorized(w, msgMissingActor)
		return
	}
	if actor.Role != domain.RoleCustomer {
		handlers.RespondDomainError(w, domain.UnauthorizedError(actor.Role, "join waitlist"))
		return
	}

	var req JoinWaitlistRequest
	if err := handlers.DecodeJSON(r, &req); err != nil {
		h.logger.Warn("POST /waitlist - Invalid request body: %v", err)
		handlers.RespondBadRequest(w, msgInvalidRequestBody)
		return
	}
	if req.ServiceID <= 0 || strings.TrimSpace(req.TimeSlotLabel) == "" {
		handlers.RespondBadRequest(w, msgInvalidSlot)
		return
	}

	serviceReq, err := req.ToServiceRequest(actor.ID)
	if err != nil {
		h.logger.Warn("POST /waitlist - Invalid date %q: %v", req.PreferredDate, err)
		handlers.RespondBadRequest(w, msgInvalidDate)
		return
	}

	entry, err := h.service.JoinWaitlist(r.Context(), serviceReq)
	if err != nil {
		switch {
		case errors.Is(err, slots.ErrSlotAvailable):
			h.logger.Warn("POST /waitlist - Slot has free capacity: customer_id=%d, service_id=%d", actor.ID, req.ServiceID)
			handlers.RespondError(w, http.StatusConflict, msgSlotAvailable)

		case errors.Is(err, slots.ErrAlreadyWaitlisted):
			h.logger.Warn("POST /waitlist - Already waitlisted: customer_id=%d, service_id=%d", actor.ID, req.ServiceID)
			handlers.RespondError(w, http.StatusConflict, msgAlreadyWaitlisted)

		case handlers.RespondDomainError(w, err):
			h.logger.Warn("POST /waitlist - Rejected: customer_id=%d, error=%v", actor.ID, err)

		default:
			h.logger.Error("POST /waitlist - Failed to join waitlist: customer_id=%d, error=%v", actor.ID, err)
			handlers.RespondInternalError(w)
		}
		return
	}

	h.logger.Info("POST /waitlist - Customer waitlisted: customer_id=%d, entry_id=%d, position=%d",
		actor.ID, entry.EntryID, entry.Position)
	handlers.RespondJSON(w, http.StatusCreated, entry)
}
