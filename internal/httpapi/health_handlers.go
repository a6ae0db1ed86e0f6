package httpapi

import (
	"net/http"
	"time"

	"hackhub-engine/internal/events"
)

type HealthHandler struct {
	Hub *events.Hub
}

func (h HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]any{
		"ok":          true,
		"time":        time.Now().UTC().Format(time.RFC3339),
		"subscribers": h.Hub.Stats().Subscribers,
	})
}
