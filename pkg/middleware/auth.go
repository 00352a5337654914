package middleware

import (
	"net/http"
	"roombook/pkg/auth"
	apperrors "roombook/pkg/errors"
	"roombook/pkg/logger"
	"strings"
)

// Authenticate resolves the bearer token into an actor on the request
// context. Paths in public skip authentication.
func Authenticate(verifier *auth.Verifier, log *logger.Logger, public ...string) func(http.Handler) http.Handler {
	skip := make(map[string]struct{}, len(public))
	for _, p := range public {
		skip[p] = struct{}{}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, ok := skip[r.URL.Path]; ok {
				next.ServeHTTP(w, r)
				return
			}

			token, ok := bearerToken(r.Header.Get("Authorization"))
			if !ok {
				writeError(w, r, log, apperrors.Unauthorized("Missing bearer token"))
				return
			}

			actor, err := verifier.Parse(token)
			if err != nil {
				log.WithContext(r.Context()).Warn("Rejected bearer token",
					"path", r.URL.Path,
					"error", err,
				)
				writeError(w, r, log, apperrors.Unauthorized("Invalid bearer token"))
				return
			}

			next.ServeHTTP(w, r.WithContext(auth.WithActor(r.Context(), actor)))
		})
	}
}

func bearerToken(header string) (string, bool) {
	scheme, token, found := strings.Cut(strings.TrimSpace(header), " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}
