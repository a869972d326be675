package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/greenroom-dev/greenroom/domain/model"
	"github.com/greenroom-dev/greenroom/internal/logging"
)

type envelope struct {
	Data  any    `json:"data,omitempty"`
	Error string `json:"error,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(envelope{Data: data})
}

func writeError(ctx context.Context, w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	msg := "internal server error"

	switch {
	case errors.Is(err, model.ErrAppNotFound),
		errors.Is(err, model.ErrServiceNotFound),
		errors.Is(err, model.ErrDeploymentNotFound):
		status = http.StatusNotFound
		msg = err.Error()
	case errors.Is(err, model.ErrConfigInvalid):
		status = http.StatusBadRequest
		msg = err.Error()
	default:
		logging.FromContext(ctx).Errorf(ctx, "internal error: %v", err)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(envelope{Error: msg})
}
