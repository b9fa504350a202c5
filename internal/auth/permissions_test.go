package auth_test

import (
	"testing"

	"github.com/lineagehub/graphd/internal/auth"
)

func TestSatisfies_ExactOrgMatch(t *testing.T) {
	perms := []string{"acme:read"}

	if !auth.Satisfies(perms, "acme", auth.LevelRead) {
		t.Error("expected acme:read to satisfy acme/read")
	}
	if auth.Satisfies(perms, "other-org", auth.LevelRead) {
		t.Error("acme:read must not satisfy a different org")
	}
}

func TestSatisfies_WildcardOrg(t *testing.T) {
	perms := []string{"*:read"}

	if !auth.Satisfies(perms, "acme", auth.LevelRead) {
		t.Error("expected *:read to satisfy any org at read")
	}
	if !auth.Satisfies(perms, "other-org", auth.LevelRead) {
		t.Error("expected *:read to satisfy other-org at read")
	}
}

func TestSatisfies_WildcardLevel(t *testing.T) {
	perms := []string{"acme:*"}

	if !auth.Satisfies(perms, "acme", auth.LevelRead) {
		t.Error("expected acme:* to satisfy acme/read")
	}
	if !auth.Satisfies(perms, "acme", auth.LevelAudit) {
		t.Error("expected acme:* to satisfy acme/audit")
	}
}

func TestSatisfies_LevelRankOrdering(t *testing.T) {
	perms := []string{"acme:write"}

	if !auth.Satisfies(perms, "acme", auth.LevelRead) {
		t.Error("write must satisfy a read requirement (higher rank covers lower)")
	}
	if !auth.Satisfies(perms, "acme", auth.LevelWrite) {
		t.Error("write must satisfy a write requirement")
	}
	if auth.Satisfies(perms, "acme", auth.LevelAudit) {
		t.Error("write must not satisfy an audit requirement (lower rank does not cover higher)")
	}
}

func TestSatisfies_ReadDoesNotSatisfyWrite(t *testing.T) {
	perms := []string{"acme:read"}

	if auth.Satisfies(perms, "acme", auth.LevelWrite) {
		t.Error("read must not satisfy a write requirement")
	}
}

func TestSatisfies_NoMatchingScope(t *testing.T) {
	perms := []string{"acme:read", "beta:write"}

	if auth.Satisfies(perms, "gamma", auth.LevelRead) {
		t.Error("expected no scope to satisfy an org with no matching entry")
	}
}

func TestSatisfies_EmptyPermissions(t *testing.T) {
	if auth.Satisfies(nil, "acme", auth.LevelRead) {
		t.Error("expected nil permissions to satisfy nothing")
	}
	if auth.Satisfies([]string{}, "acme", auth.LevelRead) {
		t.Error("expected empty permissions to satisfy nothing")
	}
}

func TestSatisfies_MalformedScopesAreIgnored(t *testing.T) {
	perms := []string{"malformed-no-colon", "acme:read"}

	if !auth.Satisfies(perms, "acme", auth.LevelRead) {
		t.Error("a malformed entry must not prevent a later valid entry from matching")
	}
	if auth.Satisfies([]string{"nocolon"}, "acme", auth.LevelRead) {
		t.Error("a scope with no colon must never match")
	}
}

func TestSatisfies_MultipleScopesFirstNonMatching(t *testing.T) {
	perms := []string{"beta:audit", "acme:write"}

	if !auth.Satisfies(perms, "acme", auth.LevelWrite) {
		t.Error("expected the matching later scope to still authorize the request")
	}
}
