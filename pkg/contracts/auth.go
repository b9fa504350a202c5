// Package contracts — authentication interfaces for the pluggable auth layer.
//
// graphd ships a single provider (OIDC, see internal/auth/oidc.go) but the
// chain interface stays open so a deployment can register additional
// providers (service tokens, mTLS) ahead of it without touching handlers.
package contracts

import (
	"context"
	"net/http"
	"time"
)

// ── Identity ────────────────────────────────────────────────

// Identity represents an authenticated principal. Produced by an
// AuthProvider, consumed by authz middleware and handlers.
//
// This is the contract boundary between authn (pluggable) and authz (fixed).
// No handler ever knows whether the caller came from an OIDC token or a
// future provider.
type Identity struct {
	// Subject is the unique identifier (the token's `sub` claim).
	Subject string `json:"subject"`

	// Email is the principal's email address.
	Email string `json:"email,omitempty"`

	// Provider identifies which auth provider authenticated this identity.
	Provider string `json:"provider"`

	// Permissions holds the raw "<orgScope>:<level>" scope strings from the
	// token's `permissions` claim.
	Permissions []string `json:"permissions,omitempty"`

	// ExpiresAt is when this identity's token expires.
	ExpiresAt time.Time `json:"expires_at,omitempty"`
}

// ── AuthProvider ────────────────────────────────────────────

// AuthProvider authenticates an HTTP request and returns an Identity.
// Each provider implements one authentication strategy (OIDC, service
// tokens, mTLS, etc.).
//
// The chain pattern:
//  - Return (*Identity, nil) → authenticated, stop chain
//  - Return (nil, nil) → this provider doesn't handle this request, try next
//  - Return (nil, error) → authentication was attempted but failed, reject
type AuthProvider interface {
	// Name returns the provider identifier (e.g. "oidc", "mtls").
	Name() string

	// Authenticate inspects the request and returns an Identity.
	Authenticate(ctx context.Context, r *http.Request) (*Identity, error)

	// Enabled returns whether this provider is configured and active.
	Enabled() bool
}

// ── AuthProviderChain ───────────────────────────────────────

// AuthProviderChain tries providers in priority order until one returns an
// Identity. This lets a deployment register additional providers ahead of
// or behind OIDC without touching handlers.
type AuthProviderChain interface {
	// Authenticate walks the chain of providers in order.
	// Returns the first successful Identity, or (nil, nil) if no provider matched.
	Authenticate(ctx context.Context, r *http.Request) (*Identity, error)

	// RegisterProvider adds a provider to the end of the chain.
	// Providers are tried in registration order.
	RegisterProvider(provider AuthProvider)
}
