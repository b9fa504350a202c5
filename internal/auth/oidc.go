package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/MicahParks/keyfunc/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog/log"

	"github.com/lineagehub/graphd/pkg/contracts"
)

// discoveryDoc is the subset of an OIDC discovery document graphd needs.
type discoveryDoc struct {
	Issuer string `json:"issuer"`
	JWKSURI string `json:"jwks_uri"`
	TokenEndpoint string `json:"token_endpoint"`
}

// OIDCProvider implements contracts.AuthProvider: it extracts a bearer
// token (header or session cookie), verifies it against a cached JWKS,
// and maps the verified claims to an Identity. It is registered into the
// provider chain via the AuthProvider interface.
type OIDCProvider struct {
	discoveryURL string
	clientID   string
	clockSkew  time.Duration

	mu    sync.RWMutex
	doc    *discoveryDoc
	jwks   *keyfunc.JWKS
	docLoaded time.Time

	httpClient *http.Client
}

// NewOIDCProvider creates the provider. The discovery document and JWKS
// are fetched lazily on first Authenticate call and then kept warm by
// keyfunc's background refresh (~10 minutes).
func NewOIDCProvider(discoveryURL, clientID string) *OIDCProvider {
	return &OIDCProvider{
		discoveryURL: discoveryURL,
		clientID:   clientID,
		clockSkew:  5 * time.Second,
		httpClient:  &http.Client{Timeout: 10 * time.Second},
	}
}

func (p *OIDCProvider) Name() string  { return "oidc" }
func (p *OIDCProvider) Enabled() bool  { return p.discoveryURL != "" }

func (p *OIDCProvider) ensureJWKS(ctx context.Context) (*keyfunc.JWKS, string, error) {
	p.mu.RLock()
	jwks := p.jwks
	doc := p.doc
	p.mu.RUnlock()
	if jwks != nil && doc != nil {
		return jwks, doc.Issuer, nil
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.jwks != nil && p.doc != nil {
		return p.jwks, p.doc.Issuer, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.discoveryURL, nil)
	if err != nil {
		return nil, "", fmt.Errorf("build discovery request: %w", err)
	}
	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("fetch discovery document: %w", err)
	}
	defer resp.Body.Close()

	var doc discoveryDoc
	if err := json.NewDecoder(resp.Body).Decode(&doc); err != nil {
		return nil, "", fmt.Errorf("decode discovery document: %w", err)
	}

	// The background refresh outlives the request that triggered the first
	// fetch, so it is not bound to that request's context.
	jwks, err = keyfunc.Get(doc.JWKSURI, keyfunc.Options{
		Ctx:       context.Background(),
		RefreshInterval: 10 * time.Minute,
		RefreshErrorHandler: func(err error) {
			log.Warn().Err(err).Msg("jwks refresh failed")
		},
	})
	if err != nil {
		return nil, "", fmt.Errorf("fetch jwks: %w", err)
	}

	p.doc = &doc
	p.jwks = jwks
	p.docLoaded = time.Now()
	return jwks, doc.Issuer, nil
}

// claims carries the token fields graphd reads.
type claims struct {
	Email    string   `json:"email"`
	Permissions interface{} `json:"permissions"`
	jwt.RegisteredClaims
}

func (c claims) permissionList() []string {
	switch v := c.Permissions.(type) {
	case []interface{}:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	case string:
		parts := strings.Split(v, ",")
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			p = strings.TrimSpace(p)
			if p != "" {
				out = append(out, p)
			}
		}
		return out
	default:
		return nil
	}
}

// Authenticate extracts and verifies the bearer token or session cookie.
func (p *OIDCProvider) Authenticate(ctx context.Context, r *http.Request) (*contracts.Identity, error) {
	token := extractToken(r)
	if token == "" {
		return nil, ErrMissingToken
	}

	jwks, issuer, err := p.ensureJWKS(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	var tc claims
	parsed, err := jwt.ParseWithClaims(token, &tc, jwks.Keyfunc,
		jwt.WithIssuer(issuer),
		jwt.WithAudience(p.clientID),
		jwt.WithLeeway(p.clockSkew),
	)
	if err != nil || !parsed.Valid {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if tc.Subject == "" || tc.Email == "" {
		return nil, fmt.Errorf("%w: token missing sub or email", ErrInvalidToken)
	}

	var expiresAt time.Time
	if tc.ExpiresAt != nil {
		expiresAt = tc.ExpiresAt.Time
	}

	return &contracts.Identity{
		Subject:   tc.Subject,
		Email:    tc.Email,
		Provider:  p.Name(),
		Permissions: tc.permissionList(),
		ExpiresAt:  expiresAt,
	}, nil
}

// extractToken reads Authorization: Bearer <token>, falling back to the
// session cookie set by the OIDC callback. GET /orgs is session-cookie
// only: it lists the scopes behind the caller's browser session, not a
// machine-to-machine credential, so bearer headers are ignored on that
// one path.
func extractToken(r *http.Request) string {
	if r.URL.Path != "/orgs" {
		if h := r.Header.Get("Authorization"); strings.HasPrefix(h, "Bearer ") {
			return strings.TrimPrefix(h, "Bearer ")
		}
	}
	if c, err := r.Cookie("session"); err == nil {
		return c.Value
	}
	return ""
}

// ErrMissingToken and ErrInvalidToken are the two auth failure modes the
// gate middleware distinguishes: no token presented vs. a token presented
// but unverifiable.
var (
	ErrMissingToken = fmt.Errorf("missing authentication token")
	ErrInvalidToken = fmt.Errorf("invalid authentication token")
)
