package domain

// Identity headers injected by the campus SSO proxy. They are stripped from
// requests arriving from outside the trusted network hop before any handler
// runs, so their presence implies a trusted upstream.
const (
	AuthEmailHeader = "x-insa-auth-email"
	AuthUIDHeader   = "x-insa-auth-uid"
)

const (
	// SessionCookie carries the signed session token. HTTP-only.
	SessionCookie = "session-token"
	// EmailHintCookie is the legacy client-readable copy of the email used
	// by the settling page's retry path. Never authoritative.
	EmailHintCookie = "auth-email-hint"
)

type ctxKey string

// SessionCtxKey holds the verified *Session on the request context.
const SessionCtxKey ctxKey = "sg-session"
