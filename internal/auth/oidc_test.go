package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestExtractToken_OrgsPathIgnoresBearerHeader(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/orgs", nil)
	r.Header.Set("Authorization", "Bearer some-jwt")

	if got := extractToken(r); got != "" {
		t.Errorf("expected /orgs with only a bearer header to yield no token, got %q", got)
	}
}

func TestExtractToken_OrgsPathAcceptsSessionCookie(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/orgs", nil)
	r.Header.Set("Authorization", "Bearer some-jwt")
	r.AddCookie(&http.Cookie{Name: "session", Value: "session-value"})

	if got := extractToken(r); got != "session-value" {
		t.Errorf("expected /orgs with a session cookie to yield the cookie value, got %q", got)
	}
}

func TestExtractToken_OrgsPathNoCredentials(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/orgs", nil)

	if got := extractToken(r); got != "" {
		t.Errorf("expected /orgs with no credentials to yield no token, got %q", got)
	}
}

func TestExtractToken_OtherPathAcceptsBearerHeader(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/acme/nodes", nil)
	r.Header.Set("Authorization", "Bearer some-jwt")

	if got := extractToken(r); got != "some-jwt" {
		t.Errorf("expected a non-/orgs path to honor the bearer header, got %q", got)
	}
}

func TestExtractToken_OtherPathFallsBackToCookie(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/acme/nodes", nil)
	r.AddCookie(&http.Cookie{Name: "session", Value: "session-value"})

	if got := extractToken(r); got != "session-value" {
		t.Errorf("expected a non-/orgs path with no bearer header to fall back to the session cookie, got %q", got)
	}
}
