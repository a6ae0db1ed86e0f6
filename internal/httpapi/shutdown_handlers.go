package httpapi

import (
	"crypto/subtle"
	"net/http"
)

type ShutdownHandler struct {
	Token   string
	Trigger func()
}

// Shutdown stops the engine on request from the local machine. It is
// disabled when no token is configured.
func (h ShutdownHandler) Shutdown(w http.ResponseWriter, r *http.Request) {
	if h.Token == "" || h.Trigger == nil {
		http.NotFound(w, r)
		return
	}
	if !isLoopback(r) {
		WriteError(w, r, http.StatusForbidden, "forbidden", "forbidden")
		return
	}

	got := r.Header.Get("X-Shutdown-Token")
	if got == "" || subtle.ConstantTimeCompare([]byte(got), []byte(h.Token)) != 1 {
		WriteError(w, r, http.StatusUnauthorized, "unauthorized", "unauthorized")
		return
	}

	// Respond first; the trigger tears down every stream and the server.
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("shutting down\n"))
	go h.Trigger()
}
