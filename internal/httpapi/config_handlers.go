package httpapi

import (
	"database/sql"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"hackhub-engine/internal/events"
	"hackhub-engine/internal/settings"
	"hackhub-engine/internal/store"
)

const (
	maxConfigBody   = 64 << 10
	deadlineMessage = "The submission deadline has been updated"
)

// ConfigHandler edits the event settings and tells connected clients
// about the changes that matter to them.
type ConfigHandler struct {
	DB        *sql.DB
	Publisher events.Publisher
	Logger    *zerolog.Logger
	Now       func() time.Time
}

func (h ConfigHandler) Get(w http.ResponseWriter, r *http.Request) {
	s, err := store.GetSettings(r.Context(), h.DB)
	if err != nil {
		h.Logger.Error().Err(err).Msg("load settings")
		WriteError(w, r, http.StatusInternalServerError, "internal_error", "internal server error")
		return
	}
	writeJSON(w, s)
}

func (h ConfigHandler) Post(w http.ResponseWriter, r *http.Request) {
	b, err := io.ReadAll(io.LimitReader(r.Body, maxConfigBody))
	if err != nil {
		WriteError(w, r, http.StatusBadRequest, "invalid_body", "could not read body")
		return
	}
	patch, err := settings.DecodePatch(b)
	if err != nil {
		WriteError(w, r, http.StatusBadRequest, "invalid_json", err.Error())
		return
	}

	now := time.Now
	if h.Now != nil {
		now = h.Now
	}

	var warnings []string
	prev, next, err := store.UpdateSettings(r.Context(), h.DB, func(cur settings.Settings) (settings.Settings, error) {
		vr := settings.ValidatePatch(patch, cur, now())
		if !vr.OK() {
			return cur, &settings.ValidationError{Validation: vr}
		}
		warnings = vr.Warnings
		return patch.Apply(cur), nil
	})
	var verr *settings.ValidationError
	if errors.As(err, &verr) {
		// structured errors so the UI can show them next to the fields
		WriteJSON(w, http.StatusBadRequest, verr.Validation)
		return
	}
	if err != nil {
		h.Logger.Error().Err(err).Msg("update settings")
		WriteError(w, r, http.StatusInternalServerError, "internal_error", "internal server error")
		return
	}
	for _, warn := range warnings {
		h.Logger.Warn().Str("admin", AdminFrom(r.Context())).Msg(warn)
	}

	if patch.Deadline.Set {
		h.publish(events.TypeDeadlineUpdated, map[string]any{
			"deadline": next.Deadline,
			"message":  deadlineMessage,
		})
	}
	if patch.StatusChanged(prev) {
		h.publish(events.TypeEventStatusUpdated, map[string]any{
			"eventStarted": next.EventStarted,
			"eventEnded":   next.EventEnded,
		})
	}

	writeJSON(w, next)
}

func (h ConfigHandler) publish(typ string, data map[string]any) {
	env, err := events.NewEnvelope(typ, data)
	if err != nil {
		h.Logger.Error().Err(err).Str("type", typ).Msg("build event")
		return
	}
	h.Publisher.Publish(env)
}
