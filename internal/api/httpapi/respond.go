package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog"

	apperrors "github.com/louisbranch/concord.quest/internal/errors"
	"github.com/louisbranch/concord.quest/internal/storage"
)

type errorBody struct {
	Code     string            `json:"code"`
	Message  string            `json:"message"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

type errorResponse struct {
	Error errorBody `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// writeError maps an error to an HTTP response. Structured errors carry their
// own code; storage sentinels and everything else fall back to generic codes.
func writeError(w http.ResponseWriter, logger zerolog.Logger, err error) {
	code := apperrors.GetCode(err)
	if code == apperrors.CodeUnknown {
		switch {
		case errors.Is(err, storage.ErrNotFound):
			code = apperrors.CodeNotFound
		case errors.Is(err, storage.ErrAlreadyExists):
			code = apperrors.CodeAlreadyExists
		}
	}

	status := code.HTTPStatus()
	if status >= http.StatusInternalServerError {
		logger.Error().Err(err).Str("code", string(code)).Msg("request failed")
	} else {
		logger.Debug().Err(err).Str("code", string(code)).Msg("request rejected")
	}

	writeJSON(w, status, errorResponse{Error: errorBody{
		Code:     string(code),
		Message:  err.Error(),
		Metadata: apperrors.GetMetadata(err),
	}})
}

// writeBadRequest reports a malformed request body or path parameter.
func writeBadRequest(w http.ResponseWriter, logger zerolog.Logger, message string) {
	logger.Debug().Str("reason", message).Msg("bad request")
	writeJSON(w, http.StatusBadRequest, errorResponse{Error: errorBody{
		Code:    string(apperrors.CodeActionInvalid),
		Message: message,
	}})
}
