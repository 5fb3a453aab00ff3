package httpx

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/kirangajul/e-commerce-microservices/pkg/apperr"
	"github.com/kirangajul/e-commerce-microservices/pkg/logger"
	"go.uber.org/zap"
)

type ErrorResponse struct {
	Message   string    `json:"message"`
	Status    int       `json:"status"`
	Code      string    `json:"code"`
	Timestamp time.Time `json:"timestamp"`
}

func RespondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		zap.L().Warn("failed to encode response", zap.Error(err))
	}
}

func RespondStatus(w http.ResponseWriter, status int, code, message string) {
	RespondJSON(w, status, ErrorResponse{
		Message:   message,
		Status:    status,
		Code:      code,
		Timestamp: time.Now().UTC(),
	})
}

// RespondError maps err onto a status code through the apperr kinds.
func RespondError(ctx context.Context, w http.ResponseWriter, err error) {
	status, code := Classify(err)
	if status >= http.StatusInternalServerError {
		logger.FromContext(ctx).Error("request failed", zap.Error(err))
		RespondStatus(w, status, code, http.StatusText(status))
		return
	}
	RespondStatus(w, status, code, err.Error())
}

func Classify(err error) (int, string) {
	switch {
	case errors.Is(err, apperr.ErrValidation):
		return http.StatusBadRequest, "invalid_argument"
	case errors.Is(err, apperr.ErrUnauthorized):
		return http.StatusUnauthorized, "unauthenticated"
	case errors.Is(err, apperr.ErrForbidden):
		return http.StatusForbidden, "permission_denied"
	case errors.Is(err, apperr.ErrNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, apperr.ErrConflict):
		return http.StatusConflict, "conflict"
	case errors.Is(err, apperr.ErrUpstreamUnavailable):
		return http.StatusBadGateway, "upstream_unavailable"
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, "timeout"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}

// DecodeJSON reads a JSON body into dst. An empty or malformed body is a validation error.
func DecodeJSON(r *http.Request, dst any) error {
	if r.Body == nil || r.Body == http.NoBody {
		return apperr.Validation("request body must not be empty")
	}
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return apperr.Validation("invalid JSON body")
	}
	return nil
}
