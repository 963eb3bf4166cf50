package middleware

import (
	"net/http"
	"strings"

	"pos-cloud-sync/internal/domain"
	"pos-cloud-sync/internal/identity"

	"github.com/rs/zerolog"
)

// IdentityMiddleware resolves the bearer token into a domain.Identity and
// stores it in the request context. Requests without a token pass through
// with only the default project set; handlers decide what that means.
func IdentityMiddleware(resolver identity.Resolver, defaultProject string, logger zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := domain.Identity{ProjectID: defaultProject}

			if token := BearerToken(r); token != "" {
				id = resolver.WithToken(id, token)
				if id.TenantID == "" {
					logger.Debug().Str("path", r.URL.Path).Msg("Bearer token carries no tenant claim")
				}
			}

			next.ServeHTTP(w, r.WithContext(domain.WithIdentity(r.Context(), id)))
		})
	}
}

// BearerToken returns the token of an "Authorization: Bearer" header
func BearerToken(r *http.Request) string {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	if len(header) < 7 || !strings.EqualFold(header[:7], "bearer ") {
		return ""
	}
	return strings.TrimSpace(header[7:])
}
