package api

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/ksyq12/vhostctl/internal/errors"
)

// respondWithJSON sends a JSON response
func respondWithJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func respondWithMessage(w http.ResponseWriter, status int, message string) {
	respondWithJSON(w, status, map[string]string{"message": message})
}

func respondWithErrors(w http.ResponseWriter, status int, messages ...string) {
	respondWithJSON(w, status, map[string][]string{"errors": messages})
}

// respondWithError maps err onto a status and a client-safe body.
// Validation failures are listed under "errors", everything else is a
// single "message".
func respondWithError(w http.ResponseWriter, log *zap.Logger, err error) {
	status := errors.HTTPStatus(err)
	msg := errors.PublicMessage(err)

	if status >= http.StatusInternalServerError {
		log.Error("request failed", zap.String("code", string(errors.CodeOf(err))), zap.Error(err))
	}
	if status == http.StatusUnprocessableEntity {
		respondWithErrors(w, status, msg)
		return
	}
	respondWithMessage(w, status, msg)
}
