package api

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/gardengod/gardengod/internal/log"
)

// HeaderAPIToken carries the API token for write endpoints.
const HeaderAPIToken = "X-API-Token"

// requireToken guards the saved-garden write surface. With no token
// configured the surface is open, which suits single-user local
// deployments; once a token is set, requests must carry it in the
// X-API-Token header or as a bearer token.
func (s *Server) requireToken(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := s.cfg.APIToken
		if token == "" {
			next.ServeHTTP(w, r)
			return
		}

		logger := log.WithComponentFromContext(r.Context(), "auth")

		reqToken := extractToken(r)
		if reqToken == "" {
			logger.Warn().
				Str(log.FieldEvent, "auth.missing_token").
				Str(log.FieldPath, r.URL.Path).
				Msg("api token missing")
			writeUnauthorized(w)
			return
		}

		if subtle.ConstantTimeCompare([]byte(reqToken), []byte(token)) != 1 {
			logger.Warn().
				Str(log.FieldEvent, "auth.invalid_token").
				Str(log.FieldPath, r.URL.Path).
				Msg("invalid api token")
			writeUnauthorized(w)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func extractToken(r *http.Request) string {
	if t := r.Header.Get(HeaderAPIToken); t != "" {
		return t
	}
	auth := r.Header.Get("Authorization")
	if strings.HasPrefix(auth, "Bearer ") {
		return strings.TrimPrefix(auth, "Bearer ")
	}
	return ""
}
