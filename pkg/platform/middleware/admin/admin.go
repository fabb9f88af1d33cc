package admin

import (
	"crypto/subtle"
	"log/slog"
	"net/http"

	"cloakswap/pkg/requestcontext"
)

// HeaderAdminToken carries the shared secret for privileged routes
// (credential issuance, revocation, pool rules, faucet credits).
const HeaderAdminToken = "X-Admin-Token"

// RequireAdminToken rejects requests whose admin token does not match.
// An empty expected token disables every privileged route.
func RequireAdminToken(expectedToken string, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := r.Header.Get(HeaderAdminToken)
			if expectedToken == "" || subtle.ConstantTimeCompare([]byte(token), []byte(expectedToken)) != 1 {
				ctx := r.Context()
				logger.WarnContext(ctx, "admin token mismatch",
					"request_id", requestcontext.RequestID(ctx),
					"path", r.URL.Path,
				)
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusUnauthorized)
				_, _ = w.Write([]byte(`{"error":"unauthorized","error_description":"admin token required"}`))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
