package flush_cache

import (
	"net/http"

	"github.com/m04kA/SMC-BookingEngine/internal/api/handlers"
	"github.com/m04kA/SMC-BookingEngine/internal/api/middleware"
	"github.com/m04kA/SMC-BookingEngine/internal/domain"
)

const (
	msgMissingActor = "отсутствует участник запроса"
	msgForbidden    = "очистка кэша доступна только системе"
)

// FlushResponse HTTP response model
type FlushResponse struct {
	Backend string `json:"backend"`
	Flushed bool   `json:"flushed"`
}

type Handler struct {
	cache  Cache
	logger Logger
}

func NewHandler(cache Cache, logger Logger) *Handler {
	return &Handler{
		cache:  cache,
		logger: logger,
	}
}

// Handle POST /api/v1/admin/cache/flush
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.GetActor(r.Context())
	if !ok {
		handlers.RespondUnauthorized(w, msgMissingActor)
		return
	}
	if actor.Role != domain.RoleSystem {
		h.logger.Warn("POST /admin/cache/flush - Forbidden: role=%s, user_id=%d", actor.Role, actor.ID)
		handlers.RespondForbidden(w, msgForbidden)
		return
	}

	if err := h.cache.Flush(r.Context()); err != nil {
		h.logger.Error("POST /admin/cache/flush - Failed to flush cache: %v", err)
		handlers.RespondInternalError(w)
		return
	}

	backend := h.cache.Backend()
	h.logger.Info("POST /admin/cache/flush - Cache flushed: backend=%s", backend)
	handlers.RespondJSON(w, http.StatusOK, FlushResponse{Backend: backend, Flushed: true})
}
