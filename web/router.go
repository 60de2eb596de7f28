package web

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/marciopocebon/bolt-1/config"
	apperrors "github.com/marciopocebon/bolt-1/errors"
	"github.com/marciopocebon/bolt-1/logger"
	"github.com/marciopocebon/bolt-1/observability"
	"github.com/marciopocebon/bolt-1/render"
	"github.com/marciopocebon/bolt-1/storage"
)

// frontPageLimit caps how many records per contenttype the listing shows.
const frontPageLimit = 5

// RouterDeps holds what the routes need. Storage and Render are
// resolved per request so route mounting never touches the database.
type RouterDeps struct {
	Config    *config.Config
	Stack     *RequestStack
	Exception *ExceptionHandler
	Log       *logger.Logger
	Storage   func() (*storage.Storage, error)
	Render    func() (render.Service, error)
	// Metrics, when set, records request counts and durations.
	Metrics *observability.Metrics
	// Health, when set, backs the /health endpoint.
	Health func(ctx context.Context) *observability.ServiceHealth
}

// Router owns the gin engine and the public routes.
type Router struct {
	engine *gin.Engine
	deps   RouterDeps
	log    *logger.Logger
}

// NewRouter builds the engine with the standard middleware chain and
// mounts the public routes. Gin runs in release mode unless debug
// logging is on.
func NewRouter(deps RouterDeps) *Router {
	if zerolog.GlobalLevel() <= zerolog.DebugLevel {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	log := deps.Log
	if log == nil {
		log = logger.GetGlobalLogger()
	}
	log = log.WithComponent("web")

	engine := gin.New()
	engine.Use(Recovery(deps.Exception))
	engine.Use(RequestID())
	engine.Use(AccessLog(log))
	if deps.Metrics != nil {
		engine.Use(Observe(deps.Metrics))
	}
	if deps.Stack != nil {
		engine.Use(TrackRequests(deps.Stack))
	}

	r := &Router{engine: engine, deps: deps, log: log}
	r.mount()
	return r
}

// Engine exposes the gin engine, primarily for tests and the server.
func (r *Router) Engine() *gin.Engine {
	return r.engine
}

func (r *Router) mount() {
	r.engine.GET("/", r.frontPage)
	r.engine.GET("/page/:slug", r.pageView)
	if r.deps.Health != nil {
		r.engine.GET("/health", r.health)
	}
}

// health reports application health as JSON, 503 when any component is
// down.
func (r *Router) health(c *gin.Context) {
	sh := r.deps.Health(c.Request.Context())
	status := http.StatusOK
	if sh.Status == observability.HealthStatusDown {
		status = http.StatusServiceUnavailable
	}
	c.JSON(status, sh)
}

// frontPage lists recent records of every contenttype.
func (r *Router) frontPage(c *gin.Context) {
	rnd, err := r.deps.Render()
	if err != nil {
		r.deps.Exception.Handle(c, err)
		return
	}

	if resp, ok := rnd.FetchCachedRequest(c.Request); ok {
		_ = resp.Write(c.Writer)
		return
	}

	st, err := r.deps.Storage()
	if err != nil {
		r.deps.Exception.Handle(c, err)
		return
	}

	listing := make(map[string][]storage.Record)
	for _, ct := range st.ContentTypes() {
		records, err := st.GetContent(ct, storage.Query{
			Status: storage.StatusPublished,
			Limit:  frontPageLimit,
		})
		if err != nil {
			r.deps.Exception.Handle(c, err)
			return
		}
		if len(records) > 0 {
			listing[ct] = records
		}
	}

	resp, err := rnd.Render(r.deps.Config.GetString("general/homepage_template"), render.Vars{
		"Sitename": r.deps.Config.GetString("general/sitename"),
		"Listing":  listing,
	})
	if err != nil {
		r.deps.Exception.Handle(c, err)
		return
	}

	_ = rnd.CacheRequest(c.Request, resp)
	_ = resp.Write(c.Writer)
}

// pageView shows a single published page by slug.
func (r *Router) pageView(c *gin.Context) {
	slug := c.Param("slug")

	rnd, err := r.deps.Render()
	if err != nil {
		r.deps.Exception.Handle(c, err)
		return
	}

	if resp, ok := rnd.FetchCachedRequest(c.Request); ok {
		_ = resp.Write(c.Writer)
		return
	}

	st, err := r.deps.Storage()
	if err != nil {
		r.deps.Exception.Handle(c, err)
		return
	}

	record, err := st.GetSingle("pages", slug)
	if err != nil {
		r.deps.Exception.Handle(c, err)
		return
	}
	if !record.Published() {
		r.deps.Exception.Handle(c, apperrors.NotFound("page", slug))
		return
	}

	resp, err := rnd.Render(r.deps.Config.GetString("general/record_template"), render.Vars{
		"Record": record,
		"Title":  record.Title,
	})
	if err != nil {
		r.deps.Exception.Handle(c, err)
		return
	}

	_ = rnd.CacheRequest(c.Request, resp)
	_ = resp.Write(c.Writer)
}

// ServeHTTP lets the router act as a plain http.Handler.
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.engine.ServeHTTP(w, req)
}
