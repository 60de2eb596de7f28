// Package render executes theme templates into response values and
// keeps a per-request response cache for anonymous page views.
package render

import (
	"bytes"
	"context"
	"encoding/json"
	"html/template"
	"net/http"
	"path/filepath"
	"time"

	"github.com/spf13/afero"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/marciopocebon/bolt-1/cache"
	"github.com/marciopocebon/bolt-1/config"
	apperrors "github.com/marciopocebon/bolt-1/errors"
	"github.com/marciopocebon/bolt-1/logger"
	"github.com/marciopocebon/bolt-1/resources"
)

// Vars carries the data a template is executed with.
type Vars map[string]interface{}

// Response is a rendered result ready to be written to a client.
type Response struct {
	Code    int         `json:"code"`
	Body    []byte      `json:"body"`
	Headers http.Header `json:"headers"`
}

// NewResponse wraps an HTML body in an OK response.
func NewResponse(code int, body string) *Response {
	h := http.Header{}
	h.Set("Content-Type", "text/html; charset=utf-8")
	return &Response{Code: code, Body: []byte(body), Headers: h}
}

// String returns the response body as text.
func (r *Response) String() string {
	return string(r.Body)
}

// Write sends the response over w.
func (r *Response) Write(w http.ResponseWriter) error {
	for key, values := range r.Headers {
		for _, v := range values {
			w.Header().Add(key, v)
		}
	}
	w.WriteHeader(r.Code)
	_, err := w.Write(r.Body)
	return err
}

// Service renders templates and caches whole responses. The real
// implementation is Renderer; tests install partial doubles.
type Service interface {
	Render(name string, vars Vars) (*Response, error)
	FetchCachedRequest(req *http.Request) (*Response, bool)
	CacheRequest(req *http.Request, resp *Response) error
}

// Renderer loads templates from the active theme directory.
type Renderer struct {
	cfg   *config.Config
	res   *resources.Resolver
	store cache.Store
	fs    afero.Fs
	log   *logger.Logger
}

var _ Service = (*Renderer)(nil)

// New creates the render service. A nil fsys reads templates from the
// host filesystem.
func New(cfg *config.Config, res *resources.Resolver, store cache.Store, fsys afero.Fs, log *logger.Logger) *Renderer {
	if fsys == nil {
		fsys = afero.NewOsFs()
	}
	if log == nil {
		log = logger.GetGlobalLogger()
	}
	return &Renderer{
		cfg:   cfg,
		res:   res,
		store: store,
		fs:    fsys,
		log:   log.WithComponent("render"),
	}
}

// templatePath locates name inside the active theme.
func (r *Renderer) templatePath(name string) string {
	themes := r.res.MustPath(resources.AliasThemes)
	return filepath.Join(themes, r.cfg.GetString("general/theme"), name)
}

// Render parses and executes the named template with vars.
func (r *Renderer) Render(name string, vars Vars) (*Response, error) {
	_, span := otel.Tracer("render").Start(context.Background(), "render.render",
		trace.WithAttributes(attribute.String("template", name)))
	defer span.End()

	path := r.templatePath(name)
	raw, err := afero.ReadFile(r.fs, path)
	if err != nil {
		return nil, apperrors.NotFound("template", name).WithCause(err)
	}

	tmpl, err := template.New(name).Parse(string(raw))
	if err != nil {
		return nil, apperrors.Internal(err)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, vars); err != nil {
		return nil, apperrors.Internal(err)
	}

	r.log.Debug("Template rendered", map[string]interface{}{
		"template": name,
		"bytes":    buf.Len(),
	})
	return &Response{
		Code:    http.StatusOK,
		Body:    buf.Bytes(),
		Headers: htmlHeaders(),
	}, nil
}

// cachingEnabled reports whether whole-request caching is switched on.
func (r *Renderer) cachingEnabled() bool {
	return r.store != nil && r.cfg.GetBool("general/caching/request")
}

// cacheDuration returns how long cached responses stay valid.
func (r *Renderer) cacheDuration() time.Duration {
	minutes := r.cfg.GetInt("general/caching/duration")
	if minutes <= 0 {
		minutes = 10
	}
	return time.Duration(minutes) * time.Minute
}

// FetchCachedRequest looks up a previously cached response for req.
// It reports false when caching is off, the entry is missing or it no
// longer decodes.
func (r *Renderer) FetchCachedRequest(req *http.Request) (*Response, bool) {
	if !r.cachingEnabled() {
		return nil, false
	}

	data, ok := r.store.Fetch(requestKey(req))
	if !ok {
		return nil, false
	}

	resp, err := decodeResponse(data)
	if err != nil {
		r.log.Warn("Dropping undecodable cached response", map[string]interface{}{
			"uri":   req.URL.RequestURI(),
			"error": err.Error(),
		})
		_ = r.store.Delete(requestKey(req))
		return nil, false
	}
	return resp, true
}

// CacheRequest stores resp for req. A no-op when caching is off.
func (r *Renderer) CacheRequest(req *http.Request, resp *Response) error {
	if !r.cachingEnabled() {
		return nil
	}

	data, err := encodeResponse(resp)
	if err != nil {
		return apperrors.Internal(err)
	}
	return r.store.Save(requestKey(req), data, r.cacheDuration())
}

func htmlHeaders() http.Header {
	h := http.Header{}
	h.Set("Content-Type", "text/html; charset=utf-8")
	return h
}

// requestKey identifies a request in the response cache.
func requestKey(req *http.Request) string {
	return req.Method + " " + req.URL.RequestURI()
}

func encodeResponse(resp *Response) ([]byte, error) {
	return json.Marshal(resp)
}

func decodeResponse(data []byte) (*Response, error) {
	var resp Response
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}
