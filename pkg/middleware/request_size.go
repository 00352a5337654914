package middleware

import (
	"net/http"
	apperrors "roombook/pkg/errors"
	"roombook/pkg/logger"
)

// MaxRequestSize rejects declared oversize bodies up front and caps the
// reader for chunked ones.
func MaxRequestSize(limit int64, log *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.ContentLength > limit {
				log.WithContext(r.Context()).Warn("Request body too large",
					"content_length", r.ContentLength,
					"limit", limit,
					"path", r.URL.Path,
				)
				writeError(w, r, log, apperrors.New(apperrors.CodeInvalidInput, "Request body too large", http.StatusRequestEntityTooLarge).
					WithDetail("limit_bytes", limit))
				return
			}

			if r.Body != nil {
				r.Body = http.MaxBytesReader(w, r.Body, limit)
			}
			next.ServeHTTP(w, r)
		})
	}
}
