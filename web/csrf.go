package web

import (
	"crypto/subtle"

	"github.com/marciopocebon/bolt-1/random"
	"github.com/marciopocebon/bolt-1/sessions"
)

// csrfSessionKey is where the active token lives in the session.
const csrfSessionKey = "csrf"

// csrfTokenBytes sizes generated tokens.
const csrfTokenBytes = 16

// CSRFProvider issues and checks form tokens. Tests install a stub with
// a fixed token.
type CSRFProvider interface {
	Token() string
	Valid(token string) bool
}

// CSRFManager binds tokens to the session: one token per session,
// created on first use and dropped with the session.
type CSRFManager struct {
	session *sessions.Session
	random  *random.Generator
}

var _ CSRFProvider = (*CSRFManager)(nil)

// NewCSRFManager creates a manager for the given session.
func NewCSRFManager(session *sessions.Session, gen *random.Generator) *CSRFManager {
	if gen == nil {
		gen = random.NewGenerator()
	}
	return &CSRFManager{session: session, random: gen}
}

// Token returns the session's token, creating it on first call.
func (m *CSRFManager) Token() string {
	if v, ok := m.session.Get(csrfSessionKey); ok {
		if tok, ok := v.(string); ok && tok != "" {
			return tok
		}
	}
	tok := m.random.MustHex(csrfTokenBytes)
	m.session.Set(csrfSessionKey, tok)
	return tok
}

// Valid reports whether token matches the session's token. A session
// without a token accepts nothing.
func (m *CSRFManager) Valid(token string) bool {
	v, ok := m.session.Get(csrfSessionKey)
	if !ok {
		return false
	}
	current, ok := v.(string)
	if !ok || current == "" || token == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(current), []byte(token)) == 1
}
