package api

import (
	"encoding/json"
	"net/http"

	"github.com/lineagehub/graphd/internal/auth"
	"github.com/lineagehub/graphd/internal/api/middleware"
)

// RequireLevel builds middleware enforcing the authorization rule for
// a route that needs at least `level` on the org bound to the request
// path. It must run after OrgFromPath and the auth gate so both the
// org_id and the Identity are already in context.
func RequireLevel(level auth.Level) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			org := middleware.GetOrg(r.Context())
			identity := middleware.GetIdentity(r.Context())
			if identity == nil || !auth.Satisfies(identity.Permissions, org, level) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusForbidden)
				json.NewEncoder(w).Encode(map[string]string{"error": "Insufficient permissions"})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
