package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("json encode failed", slog.String("error", err.Error()))
	}
}

type errResponse struct {
	Success   bool       `json:"success"`
	Error     string     `json:"error"`
	Retryable bool       `json:"retryable,omitempty"`
	Timestamp *time.Time `json:"timestamp,omitempty"`
}

func errorBody(msg string) errResponse {
	return errResponse{Error: msg}
}

func timedError(msg string, now time.Time) errResponse {
	return errResponse{Error: msg, Timestamp: &now}
}
