package update_reservation_status

import (
	"errors"
	"net/http"

	"github.com/m04kA/SMC-BookingEngine/internal/api/handlers"
	"github.com/m04kA/SMC-BookingEngine/internal/api/middleware"
	"github.com/m04kA/SMC-BookingEngine/internal/domain"
)

const (
	msgInvalidReservationID = "некорректный ID бронирования"
	msgInvalidRequestBody   = "некорректное тело запроса"
	msgInvalidDate          = "некорректный формат даты переноса, ожидается YYYY-MM-DD"
	msgMissingActor         = "отсутствует участник запроса"
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

// Handle PATCH /api/v1/reservations/{reservationId}/status
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	reservationID, err := handlers.PathInt64(r, "reservationId")
	if err != nil {
		h.logger.Warn("PATCH /reservations/{id}/status - Invalid reservation ID: %v", err)
		handlers.RespondBadRequest(w, msgInvalidReservationID)
		return
	}

	actor, ok := middleware.GetActor(r.Context())
	if !ok {
		handlers.RespondUnauthorized(w, msgMissingActor)
		return
	}

	var req UpdateStatusRequest
	if err := handlers.DecodeJSON(r, &req); err != nil {
		h.logger.Warn("PATCH /reservations/{id}/status - Invalid request body: %v", err)
		handlers.RespondBadRequest(w, msgInvalidRequestBody)
		return
	}

	cmd, err := req.ToCommand()
	if err != nil {
		h.logger.Warn("PATCH /reservations/{id}/status - Invalid command: reservation_id=%d, status=%q, error=%v",
			reservationID, req.Status, err)
		if errors.Is(err, domain.ErrInvalidCommand) {
			handlers.RespondDomainError(w, err)
		} else {
			handlers.RespondBadRequest(w, msgInvalidDate)
		}
		return
	}

	reservation, err := h.engine.ApplyReservation(r.Context(), reservationID, actor, cmd)
	if err != nil {
		if handlers.RespondDomainError(w, err) {
			h.logger.Warn("PATCH /reservations/{id}/status - Rejected: reservation_id=%d, role=%s, command=%s, error=%v",
				reservationID, actor.Role, cmd.Name(), err)
			return
		}
		h.logger.Error("PATCH /reservations/{id}/status - Failed to apply %s: reservation_id=%d, error=%v",
			cmd.Name(), reservationID, err)
		handlers.RespondInternalError(w)
		return
	}

	h.logger.Info("PATCH /reservations/{id}/status - Applied %s: reservation_id=%d, status=%s, role=%s",
		cmd.Name(), reservationID, reservation.Status, actor.Role)
	handlers.RespondJSON(w, http.StatusOK, reservation)
}
