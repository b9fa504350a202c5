package middleware

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/lineagehub/graphd/internal/auth"
	"github.com/lineagehub/graphd/pkg/contracts"
)

// AuthMiddleware authenticates requests using the pluggable
// AuthProviderChain and stores the resulting Identity in context. Every
// path except the public allowlist requires a valid identity.
type AuthMiddleware struct {
	chain contracts.AuthProviderChain
}

// NewAuthMiddleware creates the auth middleware.
func NewAuthMiddleware(chain contracts.AuthProviderChain) *AuthMiddleware {
	return &AuthMiddleware{chain: chain}
}

// Handler returns the HTTP handler middleware that authenticates requests.
func (am *AuthMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if isAuthPublicPath(r.URL.Path) {
			next.ServeHTTP(w, r)
			return
		}

		identity, err := am.chain.Authenticate(r.Context(), r)
		if err != nil {
			log.Debug().Err(err).Str("path", r.URL.Path).Msg("authentication failed")
			if errors.Is(err, auth.ErrMissingToken) {
				writeAuthError(w, http.StatusUnauthorized, "Missing authentication token")
			} else {
				writeAuthError(w, http.StatusUnauthorized, "Invalid authentication token")
			}
			return
		}

		if identity == nil {
			writeAuthError(w, http.StatusUnauthorized, "Missing authentication token")
			return
		}

		next.ServeHTTP(w, r.WithContext(SetIdentity(r.Context(), identity)))
	})
}

func writeAuthError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("WWW-Authenticate", `Bearer realm="graphd"`)
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}

// isAuthPublicPath returns true for paths that skip authentication:
// health/version probes and the OIDC callback itself.
func isAuthPublicPath(path string) bool {
	switch path {
	case "/health", "/version":
		return true
	}
	return strings.HasPrefix(path, "/auth/callback")
}
