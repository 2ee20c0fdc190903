package kit

import (
	"encoding/json"
	"net/http"

	chimw "github.com/go-chi/chi/v5/middleware"
)

const msgServerError = "Something went wrong!"

// ErrorResponse is the JSON body of every non-2xx response. Error carries the
// internal cause and is only filled in verbose (development) mode.
type ErrorResponse struct {
	Message   string `json:"message"`
	Error     string `json:"error,omitempty"`
	Details   any    `json:"details,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}

func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func WriteError(w http.ResponseWriter, r *http.Request, status int, msg string, details any) {
	WriteJSON(w, status, ErrorResponse{
		Message:   msg,
		Details:   details,
		RequestID: chimw.GetReqID(r.Context()),
	})
}

// WriteServerError answers 500. The cause is exposed only when verbose is set.
func WriteServerError(w http.ResponseWriter, r *http.Request, err error, verbose bool) {
	resp := ErrorResponse{
		Message:   msgServerError,
		RequestID: chimw.GetReqID(r.Context()),
	}
	if verbose && err != nil {
		resp.Error = err.Error()
	}
	WriteJSON(w, http.StatusInternalServerError, resp)
}
