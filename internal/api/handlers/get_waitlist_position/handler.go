package get_waitlist_position

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/m04kA/SMC-BookingEngine/internal/api/handlers"
	"github.com/m04kA/SMC-BookingEngine/internal/api/middleware"
	"github.com/m04kA/SMC-BookingEngine/internal/domain"
)

const (
	msgInvalidQuery = "ожидаются параметры serviceId, date (YYYY-MM-DD) и slot"
	msgMissingActor = "отсутствует участник запроса"
)

// PositionResponse позиция клиента в очереди на слот, голова очереди 0
type PositionResponse struct {
	ServiceID     int64  `json:"serviceId"`
	Date          string `json:"date"`
	TimeSlotLabel string `json:"timeSlotLabel"`
	Position      int    `json:"position"`
}

type Handler struct {
	service WaitlistReader
	logger  Logger
}

func NewHandler(service WaitlistReader, logger Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// Handle GET /api/v1/waitlist/position?serviceId=&date=&slot=
// Только чтение: позиция в очереди не меняется
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.GetActor(r.Context())
	if !ok {
		handlers.RespondUnauthorized(w, msgMissingActor)
		return
	}

	query := r.URL.Query()
	serviceID, errID := strconv.ParseInt(query.Get("serviceId"), 10, 64)
	date, errDate := time.Parse(domain.DateFormat, query.Get("date"))
	label := strings.TrimSpace(query.Get("slot"))
	if errID != nil || errDate != nil || label == "" {
		h.logger.Warn("GET /waitlist/position - Invalid query: %s", r.URL.RawQuery)
		handlers.RespondBadRequest(w, msgInvalidQuery)
		return
	}

	slot := domain.SlotKey{ServiceID: serviceID, Date: date, Label: label}
	position, err := h.service.WaitlistPosition(r.Context(), actor.ID, slot)
	if err != nil {
		if handlers.RespondDomainError(w, err) {
			return
		}
		h.logger.Error("GET /waitlist/position - Failed to read position: customer_id=%d, slot=%s, error=%v",
			actor.ID, slot, err)
		handlers.RespondInternalError(w)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, PositionResponse{
		ServiceID:     serviceID,
		Date:          date.Format(domain.DateFormat),
		TimeSlotLabel: label,
		Position:      position,
	})
}
