package api

import (
	"errors"
	"net/http"

	"casino/domain/entities"
	"casino/domain/policy"

	log "github.com/sirupsen/logrus"
)

// writeError maps domain errors to HTTP statuses. Anything unrecognised is
// logged and returned as a bare 500.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	var ve *entities.ValidationError
	switch {
	case errors.As(err, &ve):
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: ve.Reason, Field: ve.Field})
	case errors.Is(err, entities.ErrInsufficientBalance):
		writeJSON(w, http.StatusConflict, ErrorResponse{Error: "insufficient balance"})
	case errors.Is(err, entities.ErrAccountNotFound):
		writeJSON(w, http.StatusNotFound, ErrorResponse{Error: "account not found"})
	case errors.Is(err, entities.ErrAccountBanned):
		writeJSON(w, http.StatusForbidden, ErrorResponse{Error: "account is banned"})
	case errors.Is(err, entities.ErrSessionNotFound):
		writeJSON(w, http.StatusNotFound, ErrorResponse{Error: "session not found"})
	case errors.Is(err, entities.ErrSessionAlreadyClosed):
		writeJSON(w, http.StatusConflict, ErrorResponse{Error: "session already closed"})
	case errors.Is(err, entities.ErrDuplicateSettlement):
		writeJSON(w, http.StatusConflict, ErrorResponse{Error: "settlement already recorded"})
	case errors.Is(err, policy.ErrNoSnapshot):
		writeJSON(w, http.StatusServiceUnavailable, ErrorResponse{Error: "service unavailable"})
	default:
		log.WithError(err).WithFields(log.Fields{
			"method": r.Method,
			"path":   r.URL.Path,
		}).Error("Request failed")
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: "internal error"})
	}
}

func writeBadRequest(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: msg})
}
