package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/lineagehub/graphd/internal/api/middleware"
)

// AuthHandlers serves the session-facing auth surface: the /orgs listing
// and the OIDC authorization-code callback.
type AuthHandlers struct {
	DiscoveryURL string
	ClientID   string
	ClientSecret string
	RedirectURL string
	httpClient  *http.Client
}

func NewAuthHandlers(discoveryURL, clientID, clientSecret, redirectURL string) *AuthHandlers {
	return &AuthHandlers{
		DiscoveryURL: discoveryURL,
		ClientID:   clientID,
		ClientSecret: clientSecret,
		RedirectURL: redirectURL,
		httpClient:  http.DefaultClient,
	}
}

// ListOrgs returns the distinct orgScope values held by the caller's
// permissions claim, derived from the session cookie.
func (h *AuthHandlers) ListOrgs(w http.ResponseWriter, r *http.Request) {
	identity := middleware.GetIdentity(r.Context())
	if identity == nil {
		respondJSON(w, http.StatusUnauthorized, map[string]string{"error": "Missing authentication token"})
		return
	}

	seen := make(map[string]struct{})
	var orgs []string
	for _, perm := range identity.Permissions {
		org, _, ok := strings.Cut(perm, ":")
		if !ok || org == "" {
			continue
		}
		if _, dup := seen[org]; dup {
			continue
		}
		seen[org] = struct{}{}
		orgs = append(orgs, org)
	}
	respondJSON(w, http.StatusOK, map[string][]string{"orgs": orgs})
}

type discoveryDoc struct {
	TokenEndpoint string `json:"token_endpoint"`
}

type tokenResponse struct {
	IDToken string `json:"id_token"`
}

// Callback implements the OIDC authorization-code exchange: load
// the discovery document, exchange the code for an id_token, and set it
// as the session cookie.
func (h *AuthHandlers) Callback(w http.ResponseWriter, r *http.Request) {
	code := r.URL.Query().Get("code")
	if code == "" {
		respondJSON(w, http.StatusBadRequest, map[string]string{"error": "missing code parameter"})
		return
	}

	doc, err := h.fetchDiscovery(r.Context())
	if err != nil {
		respondError(w, r, fmt.Errorf("oidc discovery: %w", err))
		return
	}

	form := url.Values{
		"grant_type":  {"authorization_code"},
		"code":     {code},
		"client_id":  {h.ClientID},
		"redirect_uri": {h.RedirectURL},
	}
	if h.ClientSecret != "" {
		form.Set("client_secret", h.ClientSecret)
	}

	req, err := http.NewRequestWithContext(r.Context(), http.MethodPost, doc.TokenEndpoint, strings.NewReader(form.Encode()))
	if err != nil {
		respondError(w, r, err)
		return
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := h.httpClient.Do(req)
	if err != nil {
		respondError(w, r, fmt.Errorf("token exchange: %w", err))
		return
	}
	defer resp.Body.Close()

	var tok tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tok); err != nil || tok.IDToken == "" {
		respondJSON(w, http.StatusUnauthorized, map[string]string{"error": "Invalid authentication token"})
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:   "session",
		Value:  tok.IDToken,
		Path:   "/",
		HttpOnly: true,
		Secure:  true,
		SameSite: http.SameSiteLaxMode,
	})
	http.Redirect(w, r, "/", http.StatusFound)
}

func (h *AuthHandlers) fetchDiscovery(ctx context.Context) (*discoveryDoc, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, h.DiscoveryURL, nil)
	if err != nil {
		return nil, err
	}
	resp, err := h.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var doc discoveryDoc
	if err := json.NewDecoder(resp.Body).Decode(&doc); err != nil {
		return nil, err
	}
	return &doc, nil
}
