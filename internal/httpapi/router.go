package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

func NewRouter(d Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(RequestID, AccessLog(d.Logger), Recover(d.Logger), Cors(d.CorsOrigins))

	hh := HealthHandler{Hub: d.Hub}
	r.Get("/health", hh.Health)

	sh := ShutdownHandler{Token: d.ShutdownToken, Trigger: d.Shutdown}
	r.Post("/shutdown", sh.Shutdown)

	r.Route("/api", func(r chi.Router) {
		// Event stream + ingestion
		eh := EventsHandler{Hub: d.Hub, KeepAlive: d.KeepAlive}
		r.Get("/events", eh.ServeSSE)

		ih := IngestHandler{Publisher: d.Hub, MaxBodyBytes: d.MaxBodyBytes, Logger: d.Logger}
		ingest := []func(http.Handler) http.Handler{RequireJSON}
		if d.IngestLimiter != nil {
			ingest = append(ingest, RateLimit(d.IngestLimiter))
		}
		if d.IngestRequireAuth {
			ingest = append(ingest, RequireAdmin(d.Auth))
		}
		r.With(ingest...).Post("/events", ih.Ingest)

		// Sessions
		ah := AuthHandler{Auth: d.Auth, Logger: d.Logger}
		r.Post("/auth/login", ah.Login)

		// Admin
		r.Route("/admin", func(r chi.Router) {
			r.Use(RequireAdmin(d.Auth))

			ch := ConfigHandler{DB: d.DB, Publisher: d.Hub, Logger: d.Logger}
			r.Get("/config", ch.Get)
			r.With(RequireJSON).Post("/config", ch.Post)

			adm := AdminHandler{DB: d.DB, Hub: d.Hub, Limiter: d.IngestLimiter, Logger: d.Logger}
			r.Get("/stats", adm.Stats)
			r.Post("/db/checkpoint", adm.Checkpoint)
		})
	})

	return r
}
