package testutil

import (
	"net/http"

	"github.com/marciopocebon/bolt-1/access"
	"github.com/marciopocebon/bolt-1/app"
	"github.com/marciopocebon/bolt-1/auth/password"
	"github.com/marciopocebon/bolt-1/cache"
	"github.com/marciopocebon/bolt-1/permissions"
	"github.com/marciopocebon/bolt-1/render"
	"github.com/marciopocebon/bolt-1/resources"
	"github.com/marciopocebon/bolt-1/users"
	"github.com/marciopocebon/bolt-1/web"
)

// Doubles embed the real implementation built with its production
// constructor arguments. A script field replaces exactly one method;
// a nil script field falls through to the embedded implementation, so
// everything a test does not script behaves as production would.

// RenderStub wraps the real renderer. Render records every call and is
// scriptable through RenderFunc; FetchCachedRequest always misses so a
// cached response can never short-circuit a scripted render.
type RenderStub struct {
	*render.Renderer
	RenderFunc func(name string, vars render.Vars) (*render.Response, error)

	rendered []string
}

func (s *RenderStub) Render(name string, vars render.Vars) (*render.Response, error) {
	s.rendered = append(s.rendered, name)
	if s.RenderFunc != nil {
		return s.RenderFunc(name, vars)
	}
	return s.Renderer.Render(name, vars)
}

func (s *RenderStub) FetchCachedRequest(*http.Request) (*render.Response, bool) {
	return nil, false
}

// Rendered returns the template names Render was called with, in order.
func (s *RenderStub) Rendered() []string {
	return append([]string(nil), s.rendered...)
}

// UsersStub wraps the real user store. IsEnabledFunc comes pre-scripted
// to report every account enabled, bypassing account-status checks in
// login tests.
type UsersStub struct {
	*users.Store
	IsEnabledFunc func(username string) (bool, error)
}

func (s *UsersStub) IsEnabled(username string) (bool, error) {
	if s.IsEnabledFunc != nil {
		return s.IsEnabledFunc(username)
	}
	return s.Store.IsEnabled(username)
}

// PermissionsStub wraps the real checker. IsAllowedFunc comes
// pre-scripted to authorize everything.
type PermissionsStub struct {
	*permissions.Checker
	IsAllowedFunc func(what string, u *users.User, contenttype string) bool
}

func (s *PermissionsStub) IsAllowed(what string, u *users.User, contenttype string) bool {
	if s.IsAllowedFunc != nil {
		return s.IsAllowedFunc(what, u, contenttype)
	}
	return s.Checker.IsAllowed(what, u, contenttype)
}

// AccessStub wraps the real access control, built with the full
// production dependency set. IsValidSessionFunc replaces session
// validation when set.
type AccessStub struct {
	*access.AccessControl
	IsValidSessionFunc func(token string) bool
}

func (s *AccessStub) IsValidSession(token string) bool {
	if s.IsValidSessionFunc != nil {
		return s.IsValidSessionFunc(token)
	}
	return s.AccessControl.IsValidSession(token)
}

// LoginStub wraps the real login flow. The field is named rather than
// embedded because the flow's method carries the same name as its type.
type LoginStub struct {
	Real      *access.Login
	LoginFunc func(username, pwd string) (bool, error)
}

func (s *LoginStub) Login(username, pwd string) (bool, error) {
	if s.LoginFunc != nil {
		return s.LoginFunc(username, pwd)
	}
	return s.Real.Login(username, pwd)
}

// CacheStub wraps a real cache on the application's cache directory, so
// reads and writes hit the real backing store. FlushAllFunc replaces
// the flush operation when set.
type CacheStub struct {
	*cache.Cache
	FlushAllFunc func() error
}

func (s *CacheStub) FlushAll() error {
	if s.FlushAllFunc != nil {
		return s.FlushAllFunc()
	}
	return s.Cache.FlushAll()
}

// CSRFStub accepts every token and hands out a fixed one.
type CSRFStub struct {
	FixedToken string
}

func (s *CSRFStub) Token() string     { return s.FixedToken }
func (s *CSRFStub) Valid(string) bool { return true }

var (
	_ render.Service      = (*RenderStub)(nil)
	_ users.Service       = (*UsersStub)(nil)
	_ permissions.Service = (*PermissionsStub)(nil)
	_ access.Service      = (*AccessStub)(nil)
	_ access.LoginService = (*LoginStub)(nil)
	_ cache.Store         = (*CacheStub)(nil)
	_ web.CSRFProvider    = (*CSRFStub)(nil)
)

// RenderDouble builds a render stub around a real renderer constructed
// from the application's config, paths, cache and filesystem.
func (h *Harness) RenderDouble() *RenderStub {
	h.tb.Helper()
	a := h.App(true)
	return &RenderStub{
		Renderer: render.New(a.Config(), a.Resources(), a.Cache(), a.Filesystem(), a.Log()),
	}
}

// ExpectRender installs a render double whose Render returns a fixed
// successful response, and fails the test at teardown unless template
// was rendered at least once.
func (h *Harness) ExpectRender(template string) *RenderStub {
	h.tb.Helper()
	stub := h.RenderDouble()
	stub.RenderFunc = func(string, render.Vars) (*render.Response, error) {
		return &render.Response{Code: http.StatusOK, Body: []byte("Rendered")}, nil
	}
	h.SetService(app.Names.Render, stub)

	h.tb.Cleanup(func() {
		for _, name := range stub.rendered {
			if name == template {
				return
			}
		}
		h.tb.Errorf("expected template %s to be rendered, got %v", template, stub.rendered)
	})
	return stub
}

// UsersDouble builds a users stub around a real store on the
// application's database.
func (h *Harness) UsersDouble() *UsersStub {
	h.tb.Helper()
	a := h.App(true)
	db, err := a.StorageLazy().DB()
	if err != nil {
		h.tb.Fatalf("open database for users double: %v", err)
	}
	return &UsersStub{
		Store:         users.NewStore(db, password.NewHasher(password.Config{}), a.Log()),
		IsEnabledFunc: func(string) (bool, error) { return true, nil },
	}
}

// PermissionsDouble builds a permissions stub around a real checker on
// the application's configuration.
func (h *Harness) PermissionsDouble() *PermissionsStub {
	h.tb.Helper()
	a := h.App(true)
	return &PermissionsStub{
		Checker:       permissions.NewChecker(a.Config(), a.Log()),
		IsAllowedFunc: func(string, *users.User, string) bool { return true },
	}
}

// AccessControlDouble builds an access stub around the real service
// with the application's full dependency set. Nothing is scripted until
// the caller sets a script field.
func (h *Harness) AccessControlDouble() *AccessStub {
	h.tb.Helper()
	deps, err := h.App(true).AccessDeps()
	if err != nil {
		h.tb.Fatalf("assemble access dependencies: %v", err)
	}
	return &AccessStub{AccessControl: access.New(deps)}
}

// LoginDouble builds a login stub around the real flow constructed from
// the application's dependency set.
func (h *Harness) LoginDouble() *LoginStub {
	h.tb.Helper()
	deps, err := h.App(true).LoginDeps()
	if err != nil {
		h.tb.Fatalf("assemble login dependencies: %v", err)
	}
	return &LoginStub{Real: access.NewLogin(deps)}
}

// CacheDouble builds a cache stub around a real cache rooted at the
// application's cache directory.
func (h *Harness) CacheDouble() *CacheStub {
	h.tb.Helper()
	a := h.App(true)
	real, err := cache.New(a.Resources().MustPath(resources.AliasCache), cache.Extension, 0, a.Filesystem())
	if err != nil {
		h.tb.Fatalf("build cache for double: %v", err)
	}
	return &CacheStub{Cache: real}
}

// DisableCSRF installs a token provider that accepts everything, so
// form posts in tests skip the token ceremony. The fixed token is
// CSRFToken.
func (h *Harness) DisableCSRF() *CSRFStub {
	h.tb.Helper()
	stub := &CSRFStub{FixedToken: CSRFToken}
	h.SetService(app.Names.CSRF, stub)
	return stub
}

// AllowLogin wires an authenticated, authorized context without the
// real authentication pipeline: the default user exists, every account
// reports enabled, every permission check authorizes, and every session
// token validates. The stubs install before the access double is built,
// so its real dependency set picks them up.
func (h *Harness) AllowLogin() {
	h.tb.Helper()
	a := h.App(true)
	h.AddDefaultUser(a)

	h.SetService(app.Names.Users, h.UsersDouble())
	h.SetService(app.Names.Permissions, h.PermissionsDouble())

	acc := h.AccessControlDouble()
	acc.IsValidSessionFunc = func(string) bool { return true }
	h.SetService(app.Names.Access, acc)
}
