package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/rs/zerolog"

	"hackhub-engine/internal/auth"
)

type AuthHandler struct {
	Auth   *auth.Service
	Logger *zerolog.Logger
}

type loginReq struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (h AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginReq
	if err := json.NewDecoder(io.LimitReader(r.Body, 4<<10)).Decode(&req); err != nil {
		WriteError(w, r, http.StatusBadRequest, "invalid_json", "invalid json")
		return
	}

	token, exp, err := h.Auth.Login(req.Username, req.Password)
	if errors.Is(err, auth.ErrInvalidCredentials) {
		h.Logger.Warn().Str("username", req.Username).Str("remote", clientIP(r)).Msg("login failed")
		WriteError(w, r, http.StatusUnauthorized, "unauthorized", "invalid username or password")
		return
	}
	if err != nil {
		h.Logger.Error().Err(err).Msg("login")
		WriteError(w, r, http.StatusInternalServerError, "internal_error", "internal server error")
		return
	}

	writeJSON(w, map[string]any{"token": token, "expiresAt": exp.UTC()})
}

func AdminFrom(ctx context.Context) string {
	v, _ := ctx.Value(adminKey).(string)
	return v
}

func bearerToken(r *http.Request) string {
	if h := r.Header.Get("Authorization"); h != "" {
		if tok, ok := strings.CutPrefix(h, "Bearer "); ok {
			return strings.TrimSpace(tok)
		}
	}
	return ""
}

// RequireAdmin lets a request through only with a valid admin bearer
// token.
func RequireAdmin(svc *auth.Service) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tok := bearerToken(r)
			if tok == "" {
				WriteError(w, r, http.StatusUnauthorized, "unauthorized", "Unauthorized")
				return
			}
			who, err := svc.Verify(tok)
			if err != nil {
				WriteError(w, r, http.StatusUnauthorized, "unauthorized", "Unauthorized")
				return
			}
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), adminKey, who)))
		})
	}
}
