package middleware

import (
	"net/http"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/woox/commerce-relay-go/internal/util"
)

// ServiceAuthMiddleware guards the dashboard API with a single bearer
// token, checked against its bcrypt hash.
type ServiceAuthMiddleware struct {
	tokenHash string
}

func NewServiceAuthMiddleware(tokenHash string) *ServiceAuthMiddleware {
	return &ServiceAuthMiddleware{tokenHash: tokenHash}
}

func (m *ServiceAuthMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if m.tokenHash == "" {
			log.Warn().Msg("service auth bypassed: SERVICE_TOKEN_HASH is not configured")
			next.ServeHTTP(w, r)
			return
		}

		header := r.Header.Get("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			writeJSON(w, http.StatusUnauthorized, map[string]string{
				"error": "Missing bearer token",
			})
			return
		}

		if !util.CheckPasswordHash(token, m.tokenHash) {
			log.Warn().Str("remoteAddr", r.RemoteAddr).Msg("service auth: invalid token")
			writeJSON(w, http.StatusUnauthorized, map[string]string{
				"error": "Invalid token",
			})
			return
		}

		next.ServeHTTP(w, r)
	})
}
