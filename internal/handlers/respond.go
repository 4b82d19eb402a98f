package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
)

type ErrorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, ErrorResponse{Error: message})
}

// writeInternalError logs the real error and hides it behind a generic
// message, distinguishing only exhausted storage deadlines.
func writeInternalError(w http.ResponseWriter, op string, err error) {
	log.Printf("Error %s: %v", op, err)
	if errors.Is(err, context.DeadlineExceeded) {
		writeError(w, http.StatusInternalServerError, "Storage timeout")
		return
	}
	writeError(w, http.StatusInternalServerError, "Internal server error")
}
