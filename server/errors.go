package server

import (
	"encoding/json"
	"errors"
	"net/http"

	apperrors "github.com/jrsteele09/go-botlist-server/internal/errors"
)

const contentTypeJSON = "application/json"

// Error codes for failures without an apperrors.Kind
const (
	errorBadRequest = "BadRequest"
	errorInternal   = "InternalError"
)

type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// statusFor maps an error kind to its HTTP status.
func statusFor(kind apperrors.Kind) int {
	switch kind {
	case apperrors.KindTokenRequired, apperrors.KindRefreshTokenRequired, apperrors.KindAPIKeyRequired,
		apperrors.KindInvalidToken, apperrors.KindInvalidRefreshToken, apperrors.KindInvalidAPIKey,
		apperrors.KindExpiredToken, apperrors.KindUnknownToken:
		return http.StatusUnauthorized
	case apperrors.KindForbidden:
		return http.StatusForbidden
	case apperrors.KindNoSessionsFound, apperrors.KindSessionNotFound, apperrors.KindUnableToReachProvider,
		apperrors.KindBotNotFound, apperrors.KindBotNotApproved:
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

// writeError renders err as {"error","message"}. Errors without a kind are
// logged and rendered as an opaque 500.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	var appErr *apperrors.Error
	if !errors.As(err, &appErr) {
		logError(r.Method, r.URL.Path, err.Error())
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: errorInternal, Message: "internal error"})
		return
	}
	writeJSON(w, statusFor(appErr.Kind), errorResponse{Error: string(appErr.Kind), Message: appErr.Message})
}

func writeBadRequest(w http.ResponseWriter, message string) {
	writeJSON(w, http.StatusBadRequest, errorResponse{Error: errorBadRequest, Message: message})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", contentTypeJSON)
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
