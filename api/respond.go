package api

import (
	"encoding/json"
	"net/http"

	"gosplit/domain/core"
	apperrors "gosplit/internal/errors"
)

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		// headers are gone at this point, nothing sensible left to do
		return
	}
}

// writeError maps domain errors onto HTTP status codes. Validation and
// state errors carry the domain message; everything else is reported as
// an internal error without leaking detail.
func writeError(w http.ResponseWriter, err error) {
	switch {
	case core.IsValidationError(err):
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{
			Code:    apperrors.CodeValidationError,
			Message: err.Error(),
		})
	case core.IsNotFoundError(err):
		writeJSON(w, http.StatusNotFound, errorResponse{
			Code:    apperrors.CodeNotFound,
			Message: err.Error(),
		})
	case core.IsInvalidStateError(err):
		writeJSON(w, http.StatusConflict, errorResponse{
			Code:    apperrors.CodeInvalidState,
			Message: err.Error(),
		})
	case apperrors.GetCode(err) == apperrors.CodeInvalidInput:
		writeJSON(w, http.StatusBadRequest, errorResponse{
			Code:    apperrors.CodeInvalidInput,
			Message: err.Error(),
		})
	default:
		writeJSON(w, http.StatusInternalServerError, errorResponse{
			Code:    apperrors.CodeInternalError,
			Message: "internal error",
		})
	}
}
