package httpapi

import (
	"database/sql"
	"net/http"

	"github.com/rs/zerolog"

	"hackhub-engine/internal/events"
	"hackhub-engine/internal/ratelimit"
	"hackhub-engine/internal/store"
)

type AdminHandler struct {
	DB      *sql.DB
	Hub     *events.Hub
	Limiter *ratelimit.KeyLimiter
	Logger  *zerolog.Logger
}

func (h AdminHandler) Stats(w http.ResponseWriter, r *http.Request) {
	out := map[string]any{"hub": h.Hub.Stats()}
	if h.Limiter != nil {
		out["ingestClients"] = h.Limiter.Len()
	}
	writeJSON(w, out)
}

func (h AdminHandler) Checkpoint(w http.ResponseWriter, r *http.Request) {
	if err := store.Checkpoint(r.Context(), h.DB); err != nil {
		h.Logger.Error().Err(err).Msg("wal checkpoint")
		WriteError(w, r, http.StatusInternalServerError, "internal_error", err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
