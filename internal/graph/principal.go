package graph

// Principal carries the authenticated actor and request provenance, derived
// by the Auth Gate and threaded through every Graph Engine call so audit
// fields (created_by/updated_by/user_agent/client_ip) can be derived per
// invariant without handlers reaching back into the HTTP request.
type Principal struct {
	ID    string
	Email   string
	UserAgent string
	ClientIP string
}
