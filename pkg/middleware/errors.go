package middleware

import (
	"net/http"
	apperrors "roombook/pkg/errors"
	httputil "roombook/pkg/http"
	"roombook/pkg/logger"
)

func writeError(w http.ResponseWriter, r *http.Request, log *logger.Logger, err error) {
	if writeErr := httputil.WriteError(w, err); writeErr != nil {
		log.WithContext(r.Context()).Error("failed to write error response", "operation", "WriteError", "error", writeErr)
	}
}

const codeUnsupportedMediaType = "UNSUPPORTED_MEDIA_TYPE"

func unsupportedMediaType() *apperrors.AppError {
	return apperrors.New(codeUnsupportedMediaType, "Content-Type must be application/json", http.StatusUnsupportedMediaType)
}

const codeRateLimited = "RATE_LIMITED"

func rateLimited() *apperrors.AppError {
	return apperrors.New(codeRateLimited, "Rate limit exceeded", http.StatusTooManyRequests)
}
