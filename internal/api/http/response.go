package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"leasing-backoffice/internal/domain"
	"leasing-backoffice/internal/logger"
)

type errorResponse struct {
	Error     string `json:"error"`
	Kind      string `json:"kind,omitempty"`
	Retryable bool   `json:"retryable,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error("Failed to encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

// writeDomainError maps the error kind onto a status code. Unclassified
// errors are internal and their text is not exposed.
func writeDomainError(w http.ResponseWriter, err error) {
	kind := domain.KindOf(err)
	resp := errorResponse{Error: err.Error(), Kind: string(kind)}
	status := http.StatusInternalServerError
	switch kind {
	case domain.KindValidation:
		status = http.StatusBadRequest
	case domain.KindNotFound:
		status = http.StatusNotFound
	case domain.KindConflict:
		status = http.StatusConflict
	case domain.KindUnavailable:
		status = http.StatusServiceUnavailable
		resp.Retryable = true
	default:
		logger.Error("Request failed", "error", err)
		resp.Error = "internal error"
	}
	var de *domain.Error
	if errors.As(err, &de) && de.Msg != "" && kind != domain.KindUnavailable {
		resp.Error = de.Msg
	}
	writeJSON(w, status, resp)
}
