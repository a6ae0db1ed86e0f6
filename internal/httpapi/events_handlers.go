package httpapi

import (
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"hackhub-engine/internal/events"
)

const keepAliveFrame = ": keep-alive\n\n"

type EventsHandler struct {
	Hub       *events.Hub
	KeepAlive time.Duration // 0 disables keep-alive comments
}

// ServeSSE holds the connection open and relays hub frames until either
// side ends the stream.
func (h EventsHandler) ServeSSE(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		WriteError(w, r, http.StatusInternalServerError, "stream_unsupported", "Streaming unsupported")
		return
	}

	sub := h.Hub.Subscribe()
	defer h.Hub.Unsubscribe(sub)

	hdr := w.Header()
	hdr.Set("Content-Type", "text/event-stream")
	hdr.Set("Cache-Control", "no-cache, no-transform")
	hdr.Set("Connection", "keep-alive")
	hdr.Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	var keepAlive <-chan time.Time
	if h.KeepAlive > 0 {
		t := time.NewTicker(h.KeepAlive)
		defer t.Stop()
		keepAlive = t.C
	}

	for {
		select {
		case <-r.Context().Done():
			return
		case <-sub.Done():
			writePending(w, flusher, sub)
			return
		case frame := <-sub.Frames():
			if _, err := w.Write(frame); err != nil {
				return
			}
			flusher.Flush()
		case <-keepAlive:
			if _, err := io.WriteString(w, keepAliveFrame); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}

// writePending relays whatever was queued before the subscriber closed,
// so a stream ended by the hub still sees its handshake.
func writePending(w http.ResponseWriter, flusher http.Flusher, sub *events.Subscriber) {
	for {
		select {
		case frame := <-sub.Frames():
			if _, err := w.Write(frame); err != nil {
				return
			}
		default:
			flusher.Flush()
			return
		}
	}
}

type IngestHandler struct {
	Publisher    events.Publisher
	MaxBodyBytes int64
	Logger       *zerolog.Logger
}

// Ingest validates an externally submitted envelope and broadcasts it.
func (h IngestHandler) Ingest(w http.ResponseWriter, r *http.Request) {
	body := r.Body
	if h.MaxBodyBytes > 0 {
		body = http.MaxBytesReader(w, r.Body, h.MaxBodyBytes)
	}

	env, err := events.DecodeEnvelope(body)
	if err != nil {
		var tooBig *http.MaxBytesError
		switch {
		case errors.As(err, &tooBig):
			WriteError(w, r, http.StatusRequestEntityTooLarge, "payload_too_large", "event body is too large")
		case errors.Is(err, events.ErrMalformedEnvelope):
			WriteError(w, r, http.StatusBadRequest, "invalid_event", err.Error())
		default:
			h.Logger.Error().Err(err).Str("request_id", RequestIDFrom(r.Context())).Msg("ingest failed")
			WriteError(w, r, http.StatusInternalServerError, "internal_error", "failed to broadcast event")
		}
		return
	}

	h.Publisher.Publish(env)
	WriteJSON(w, http.StatusAccepted, map[string]any{"status": "accepted", "type": env.Type})
}
