package httpapi

import (
	"encoding/json"
	"net/http"
)

type APIError struct {
	Status string `json:"status"`
	Error  struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
	RequestID string `json:"request_id,omitempty"`
}

func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteError writes the structured error body. Client errors are
// "rejected", server errors "error".
func WriteError(w http.ResponseWriter, r *http.Request, status int, code, message string) {
	var e APIError
	e.Status = "rejected"
	if status >= http.StatusInternalServerError {
		e.Status = "error"
	}
	e.Error.Code = code
	e.Error.Message = message
	e.RequestID = RequestIDFrom(r.Context())
	WriteJSON(w, status, e)
}
