package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/datafortress/lakehouse/internal/ierr"
)

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func respondError(logger *zap.Logger, w http.ResponseWriter, err error) {
	var handlerErr ierr.Error
	if errors.As(err, &handlerErr) {
		respondJSON(w, handlerErr.HTTPStatus(), map[string]string{
			"error": handlerErr.Message,
		})

		return
	}

	logger.Error("unhandled error in request handler", zap.Error(err))
	respondJSON(w, http.StatusInternalServerError, map[string]string{
		"error": "internal error",
	})
}
