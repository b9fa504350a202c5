// Package middleware holds the HTTP middleware chain: request logging,
// telemetry, org-path extraction, and authentication. Per-route
// authorization (RequireLevel) lives in package api.
// org_id is inferred from the URL path only, never from a header, query
// string, or body.
package middleware

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/lineagehub/graphd/internal/graph"
	"github.com/lineagehub/graphd/pkg/contracts"
)

type contextKey string

const (
	identityKey contextKey = "identity"
	orgKey   contextKey = "org_id"
)

// SetIdentity stores the authenticated Identity in the context.
func SetIdentity(ctx context.Context, identity *contracts.Identity) context.Context {
	if identity == nil {
		return ctx
	}
	return context.WithValue(ctx, identityKey, identity)
}

// GetIdentity retrieves the authenticated Identity from the context.
// Returns nil for an anonymous request.
func GetIdentity(ctx context.Context) *contracts.Identity {
	if v, ok := ctx.Value(identityKey).(*contracts.Identity); ok {
		return v
	}
	return nil
}

// OrgFromPath extracts the `:org` chi URL parameter and stores it in the
// context ahead of authorization and handlers. This is the ONLY source
// of org_id for a request — never a header or query parameter.
func OrgFromPath(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		org := chi.URLParam(r, "org")
		ctx := context.WithValue(r.Context(), orgKey, org)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// GetOrg retrieves the org_id extracted by OrgFromPath.
func GetOrg(ctx context.Context) string {
	if v, ok := ctx.Value(orgKey).(string); ok {
		return v
	}
	return ""
}

// PrincipalFromRequest builds a graph.Principal from the authenticated
// Identity plus request metadata, for the audit fields every mutating
// operation stamps.
func PrincipalFromRequest(r *http.Request) graph.Principal {
	p := graph.Principal{
		UserAgent: r.Header.Get("User-Agent"),
		ClientIP: clientIP(r),
	}
	if id := GetIdentity(r.Context()); id != nil {
		p.ID = id.Subject
		p.Email = id.Email
	}
	return p
}

func clientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		return xff
	}
	return r.RemoteAddr
}
