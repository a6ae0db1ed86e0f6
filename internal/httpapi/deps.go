package httpapi

import (
	"database/sql"
	"time"

	"github.com/rs/zerolog"

	"hackhub-engine/internal/auth"
	"hackhub-engine/internal/events"
	"hackhub-engine/internal/ratelimit"
)

type Deps struct {
	DB     *sql.DB
	Hub    *events.Hub
	Auth   *auth.Service
	Logger *zerolog.Logger

	// Origins allowed to call the API from a browser.
	CorsOrigins []string

	// Ingestion
	IngestLimiter     *ratelimit.KeyLimiter // nil disables rate limiting
	IngestRequireAuth bool
	MaxBodyBytes      int64

	// Streams
	KeepAlive time.Duration

	// Shutdown is triggered by POST /shutdown when ShutdownToken is set.
	ShutdownToken string
	Shutdown      func()
}
