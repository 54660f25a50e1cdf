package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/relaychat/server/internal/validate"
)

// MessageResponse is the generic single-message response body.
type MessageResponse struct {
	Message string `json:"message"`
}

// FieldErrorsResponse carries per-field validation failures.
type FieldErrorsResponse struct {
	Errors []validate.FieldError `json:"errors"`
}

func writeJSON(w http.ResponseWriter, status int, value any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(value)
}

func writeMessage(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, MessageResponse{Message: message})
}

func writeFieldErrors(w http.ResponseWriter, errs []validate.FieldError) {
	writeJSON(w, http.StatusBadRequest, FieldErrorsResponse{Errors: errs})
}

// Healthz reports that the server is up.
func Healthz(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	_, _ = fmt.Fprint(w, "ok")
}
