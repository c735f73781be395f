package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/AlexZinkM/wallet-guard/internal/model"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError answers with model.ErrorResponse. The status follows the error kind.
func writeError(w http.ResponseWriter, err error) {
	writeJSON(w, statusOf(err), model.NewErrorResponse(err))
}

// badRequest answers 400 regardless of the error kind.
func badRequest(w http.ResponseWriter, err error) {
	writeJSON(w, http.StatusBadRequest, model.NewErrorResponse(err))
}

func statusOf(err error) int {
	switch {
	case errors.Is(err, model.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, model.ErrAlreadyExists):
		return http.StatusConflict
	case errors.Is(err, model.ErrInvalidNetwork), errors.Is(err, model.ErrInvalidParams):
		return http.StatusBadRequest
	case errors.Is(err, model.ErrDecryptionFailed), errors.Is(err, model.ErrInvalidPassword):
		return http.StatusUnauthorized
	case errors.Is(err, model.ErrRejectedByUser):
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

func decodeBody(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return errors.Join(model.ErrInvalidParams, err)
	}
	return nil
}
