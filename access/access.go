// Package access implements session-based access control: the
// "access_control" service that validates authenticated sessions, the
// "access_control.login" flow that authenticates credentials, and the
// persisted auth tokens both work with.
package access

import (
	"net/http"
	"sync"
	"time"

	"github.com/marciopocebon/bolt-1/logger"
	"github.com/marciopocebon/bolt-1/permissions"
	"github.com/marciopocebon/bolt-1/random"
	"github.com/marciopocebon/bolt-1/sessions"
	"github.com/marciopocebon/bolt-1/storage"
	"github.com/marciopocebon/bolt-1/users"
)

// RequestSource yields the request currently being handled, if any.
// The web layer's request stack implements it.
type RequestSource interface {
	Current() *http.Request
}

// Service is the session-validation contract consumed by the web layer.
// AccessControl implements it; test doubles wrap it.
type Service interface {
	IsValidSession(token string) bool
	StartSession(u *users.User) (*Token, error)
	Logout() error
}

// Deps are the collaborators AccessControl is built from. In container
// terms: storage.lazy, request_stack, session, logger.flash,
// logger.system, permissions, randomgenerator,
// access_control.cookie.options, and users.
type Deps struct {
	Storage     *storage.Lazy
	Requests    RequestSource
	Session     *sessions.Session
	Flash       *logger.FlashLogger
	SystemLog   *logger.Logger
	Permissions permissions.Service
	Random      *random.Generator
	Cookies     CookieOptions
	Users       users.Service
}

// AccessControl validates and manages authenticated sessions.
type AccessControl struct {
	deps Deps
	log  *logger.Logger

	mu     sync.Mutex
	tokens *TokenStore
}

var _ Service = (*AccessControl)(nil)

// New creates the access-control service from its container deps.
func New(deps Deps) *AccessControl {
	log := deps.SystemLog
	if log == nil {
		log = logger.GetGlobalLogger()
	}
	return &AccessControl{deps: deps, log: log.WithComponent("access")}
}

// tokenStore opens the database-backed token store on first use, going
// through the lazy storage handle so construction never forces a
// connection.
func (a *AccessControl) tokenStore() (*TokenStore, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.tokens != nil {
		return a.tokens, nil
	}
	db, err := a.deps.Storage.DB()
	if err != nil {
		return nil, err
	}
	a.tokens = NewTokenStore(db, a.log)
	return a.tokens, nil
}

// SessionToken returns the token bound into the session, if any.
func (a *AccessControl) SessionToken() (*Token, bool) {
	raw, ok := a.deps.Session.Get(sessions.AuthKey)
	if !ok {
		return nil, false
	}
	tok, ok := raw.(*Token)
	return tok, ok && tok != nil
}

// IsValidSession reports whether token names a live authenticated
// session: it must match the session's bound token, exist in the token
// store, be unexpired, and belong to an enabled account.
func (a *AccessControl) IsValidSession(token string) bool {
	if token == "" {
		return false
	}

	sessTok, ok := a.SessionToken()
	if !ok || sessTok.String() != token {
		a.log.Debug("Session token mismatch")
		return false
	}

	store, err := a.tokenStore()
	if err != nil {
		a.log.Error("Token store unavailable", map[string]interface{}{"error": err.Error()})
		return false
	}

	rec, err := store.Get(token)
	if err != nil {
		a.deps.Session.Remove(sessions.AuthKey)
		a.deps.Flash.Info("You have been logged out.")
		return false
	}
	if rec.Expired() {
		_ = store.Delete(token)
		a.deps.Session.Remove(sessions.AuthKey)
		a.deps.Flash.Info("Your session expired, please log in again.")
		return false
	}

	if sessTok.User != nil {
		enabled, err := a.deps.Users.IsEnabled(sessTok.User.Username)
		if err != nil || !enabled {
			a.deps.Session.Remove(sessions.AuthKey)
			return false
		}
	}

	rec.Lastseen = time.Now()
	_ = store.Save(rec)
	return true
}

// IsAllowed checks what against the permission service for the user
// bound into the session.
func (a *AccessControl) IsAllowed(what string) bool {
	var u *users.User
	if tok, ok := a.SessionToken(); ok {
		u = tok.User
	}
	return a.deps.Permissions.IsAllowed(what, u, "")
}

// StartSession issues a fresh auth token for u, persists it, and binds
// the user/token pair into the session.
func (a *AccessControl) StartSession(u *users.User) (*Token, error) {
	store, err := a.tokenStore()
	if err != nil {
		return nil, err
	}

	raw, err := a.deps.Random.Hex(32)
	if err != nil {
		return nil, err
	}

	lifetime := a.deps.Cookies.Lifetime
	if lifetime <= 0 {
		lifetime = DefaultCookieOptions().Lifetime
	}

	rec := &AuthToken{
		Token:    raw,
		Username: u.Username,
		Validity: time.Now().Add(lifetime),
		Lastseen: time.Now(),
	}
	if req := a.currentRequest(); req != nil {
		rec.IP = req.RemoteAddr
		rec.UserAgent = req.UserAgent()
	}
	if err := store.Save(rec); err != nil {
		return nil, err
	}

	tok := &Token{User: u, AuthToken: rec}
	a.deps.Session.Set(sessions.AuthKey, tok)
	a.log.Info("Session started", map[string]interface{}{"username": u.Username})
	return tok, nil
}

// Logout revokes the session's token, clears the session, and leaves a
// flash notice.
func (a *AccessControl) Logout() error {
	if tok, ok := a.SessionToken(); ok && tok.AuthToken != nil {
		if store, err := a.tokenStore(); err == nil {
			_ = store.Delete(tok.AuthToken.Token)
		}
	}
	a.deps.Session.Remove(sessions.AuthKey)
	a.deps.Session.Invalidate()
	a.deps.Flash.Info("You have been logged out.")
	return nil
}

func (a *AccessControl) currentRequest() *http.Request {
	if a.deps.Requests == nil {
		return nil
	}
	return a.deps.Requests.Current()
}
