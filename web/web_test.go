package web

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/spf13/afero"

	"github.com/marciopocebon/bolt-1/cache"
	"github.com/marciopocebon/bolt-1/config"
	"github.com/marciopocebon/bolt-1/database"
	"github.com/marciopocebon/bolt-1/dispatcher"
	apperrors "github.com/marciopocebon/bolt-1/errors"
	"github.com/marciopocebon/bolt-1/logger"
	"github.com/marciopocebon/bolt-1/observability"
	"github.com/marciopocebon/bolt-1/render"
	"github.com/marciopocebon/bolt-1/resources"
	"github.com/marciopocebon/bolt-1/sessions"
	"github.com/marciopocebon/bolt-1/storage"
)

type routerFixture struct {
	router  *Router
	storage *storage.Storage
	store   *cache.Cache
	handler *ExceptionHandler
	stack   *RequestStack
	cfg     *config.Config
}

func newRouterFixture(t *testing.T) *routerFixture {
	t.Helper()

	fsys := afero.NewMemMapFs()
	cfg := config.NewConfig()
	res := resources.New("/bolt", nil)

	db, err := database.Open(config.Database{
		Driver:       "sqlite",
		Databasename: "bolt",
		Prefix:       "bolt_",
		Path:         ":memory:",
		Wrapper:      config.WrapperStandard,
	}, logger.Discard())
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	st := storage.NewStorage(db, cfg, dispatcher.New(logger.Discard()), logger.Discard())
	if err := st.Migrate(); err != nil {
		t.Fatalf("Migrate failed: %v", err)
	}

	store, err := cache.New(filepath.Join("/bolt", "app", "cache"), cache.Extension, 0o644, fsys)
	if err != nil {
		t.Fatalf("cache.New failed: %v", err)
	}
	renderer := render.New(cfg, res, store, fsys, logger.Discard())

	themeDir := filepath.Join("/bolt", "public", "theme", cfg.GetString("general/theme"))
	templates := map[string]string{
		cfg.GetString("general/homepage_template"): "<h1>{{.Sitename}}</h1>{{range $ct, $records := .Listing}}<section>{{$ct}}</section>{{end}}",
		cfg.GetString("general/record_template"):   "<h2>{{.Record.Title}}</h2>{{.Record.Body}}",
	}
	for name, body := range templates {
		if err := afero.WriteFile(fsys, filepath.Join(themeDir, name), []byte(body), 0o644); err != nil {
			t.Fatalf("WriteFile failed: %v", err)
		}
	}

	handler := NewExceptionHandler(logger.Discard())
	stack := NewRequestStack()
	router := NewRouter(RouterDeps{
		Config:    cfg,
		Stack:     stack,
		Exception: handler,
		Log:       logger.Discard(),
		Storage:   func() (*storage.Storage, error) { return st, nil },
		Render:    func() (render.Service, error) { return renderer, nil },
	})

	return &routerFixture{
		router:  router,
		storage: st,
		store:   store,
		handler: handler,
		stack:   stack,
		cfg:     cfg,
	}
}

func (f *routerFixture) savePage(t *testing.T, title, slug, status string) {
	t.Helper()
	rec := storage.Record{Title: title, Slug: slug, Status: status, Body: "<p>body</p>"}
	if _, err := f.storage.SaveContent("pages", &rec); err != nil {
		t.Fatalf("SaveContent failed: %v", err)
	}
}

func (f *routerFixture) get(path string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	f.router.ServeHTTP(rec, req)
	return rec
}

func TestRouter_FrontPage(t *testing.T) {
	f := newRouterFixture(t)
	f.savePage(t, "Welcome", "welcome", storage.StatusPublished)

	rec := f.get("/")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	body := rec.Body.String()
	if !strings.Contains(body, "A sample site") {
		t.Errorf("expected sitename in body, got %q", body)
	}
	if !strings.Contains(body, "pages") {
		t.Errorf("expected contenttype section in body, got %q", body)
	}
}

func TestRouter_PageView(t *testing.T) {
	f := newRouterFixture(t)
	f.savePage(t, "About Us", "about", storage.StatusPublished)

	rec := f.get("/page/about")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), "About Us") {
		t.Errorf("expected title in body, got %q", rec.Body.String())
	}
}

func TestRouter_PageNotFound(t *testing.T) {
	f := newRouterFixture(t)

	rec := f.get("/page/missing")
	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", rec.Code)
	}
	if f.handler.Last() == nil {
		t.Error("expected the miss to be reported")
	}
}

func TestRouter_UnpublishedPageHidden(t *testing.T) {
	f := newRouterFixture(t)
	f.savePage(t, "Secret", "secret", storage.StatusDraft)

	rec := f.get("/page/secret")
	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404 for a draft, got %d", rec.Code)
	}
}

func TestRouter_RequestCaching(t *testing.T) {
	f := newRouterFixture(t)
	f.cfg.Set("general/caching/request", true)
	f.savePage(t, "About Us", "about", storage.StatusPublished)

	first := f.get("/page/about")
	second := f.get("/page/about")
	if first.Code != http.StatusOK || second.Code != http.StatusOK {
		t.Fatalf("expected both requests to succeed, got %d and %d", first.Code, second.Code)
	}
	if first.Body.String() != second.Body.String() {
		t.Error("expected identical cached body")
	}
	if f.store.Stats().Hits == 0 {
		t.Error("expected the second request to hit the response cache")
	}
}

func TestRouter_RecoversFromPanics(t *testing.T) {
	f := newRouterFixture(t)
	f.router.Engine().GET("/boom", func(c *gin.Context) {
		panic("kaboom")
	})

	rec := f.get("/boom")
	if rec.Code != http.StatusInternalServerError {
		t.Errorf("expected 500, got %d", rec.Code)
	}
	if err := f.handler.Last(); err == nil || !strings.Contains(err.Error(), "kaboom") {
		t.Errorf("expected the panic to be reported, got %v", err)
	}
}

func TestRouter_SetsRequestID(t *testing.T) {
	f := newRouterFixture(t)
	f.savePage(t, "Welcome", "welcome", storage.StatusPublished)

	rec := f.get("/")
	if rec.Header().Get("X-Request-Id") == "" {
		t.Error("expected an X-Request-Id response header")
	}
}

func TestRouter_TracksActiveRequest(t *testing.T) {
	f := newRouterFixture(t)

	var seen *http.Request
	f.router.Engine().GET("/peek", func(c *gin.Context) {
		seen = f.stack.Current()
		c.Status(http.StatusNoContent)
	})

	f.get("/peek")
	if seen == nil {
		t.Fatal("expected the active request on the stack during handling")
	}
	if f.stack.Depth() != 0 {
		t.Errorf("expected an empty stack after handling, depth %d", f.stack.Depth())
	}
}

func TestRouter_HealthEndpoint(t *testing.T) {
	handler := NewExceptionHandler(logger.Discard())
	router := NewRouter(RouterDeps{
		Config:    config.NewConfig(),
		Exception: handler,
		Log:       logger.Discard(),
		Health: func(ctx context.Context) *observability.ServiceHealth {
			sh := observability.NewServiceHealth("bolt", "1.0.0")
			sh.AddComponent(observability.Health{Name: "database", Status: observability.HealthStatusDown})
			return sh
		},
	})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("expected 503 when a component is down, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "database") {
		t.Errorf("expected component detail in body, got %q", rec.Body.String())
	}
}

func TestRequestStack_PushPopCurrent(t *testing.T) {
	s := NewRequestStack()
	if s.Current() != nil || s.Pop() != nil {
		t.Error("expected empty stack to return nil")
	}

	outer := httptest.NewRequest(http.MethodGet, "/outer", nil)
	inner := httptest.NewRequest(http.MethodGet, "/inner", nil)

	s.Push(outer)
	s.Push(inner)
	if s.Current() != inner {
		t.Error("expected the inner request on top")
	}
	if s.Pop() != inner || s.Current() != outer {
		t.Error("expected pop to reveal the outer request")
	}
	if s.Depth() != 1 {
		t.Errorf("expected depth 1, got %d", s.Depth())
	}
}

func TestExceptionHandler_CollectsErrors(t *testing.T) {
	h := NewExceptionHandler(logger.Discard())
	if h.Last() != nil {
		t.Error("expected no errors initially")
	}

	h.Report(nil)
	if len(h.Errors()) != 0 {
		t.Error("expected nil reports to be ignored")
	}

	first := errors.New("first")
	second := errors.New("second")
	h.Report(first)
	h.Report(second)

	if got := h.Errors(); len(got) != 2 || got[0] != first {
		t.Errorf("unexpected errors: %v", got)
	}
	if h.Last() != second {
		t.Error("expected the latest error from Last")
	}

	h.Clear()
	if len(h.Errors()) != 0 {
		t.Error("expected Clear to drop errors")
	}
}

func TestExceptionHandler_WritesAppErrorStatus(t *testing.T) {
	h := NewExceptionHandler(logger.Discard())
	gin.SetMode(gin.TestMode)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)

	h.Handle(c, apperrors.NotFound("page", "nope"))
	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", rec.Code)
	}
}

func TestCSRFManager(t *testing.T) {
	sess := sessions.New()
	m := NewCSRFManager(sess, nil)

	tok := m.Token()
	if tok == "" {
		t.Fatal("expected a token")
	}
	if m.Token() != tok {
		t.Error("expected a stable token per session")
	}
	if !m.Valid(tok) {
		t.Error("expected the issued token to validate")
	}
	if m.Valid("forged") {
		t.Error("expected a forged token to fail")
	}
	if m.Valid("") {
		t.Error("expected an empty token to fail")
	}

	sess.Invalidate()
	if m.Valid(tok) {
		t.Error("expected invalidation to revoke the token")
	}
	if m.Token() == tok {
		t.Error("expected a fresh token after invalidation")
	}
}
