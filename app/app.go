package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/spf13/afero"

	"github.com/marciopocebon/bolt-1/access"
	"github.com/marciopocebon/bolt-1/auth/password"
	"github.com/marciopocebon/bolt-1/cache"
	"github.com/marciopocebon/bolt-1/config"
	"github.com/marciopocebon/bolt-1/database"
	"github.com/marciopocebon/bolt-1/di"
	"github.com/marciopocebon/bolt-1/dispatcher"
	"github.com/marciopocebon/bolt-1/logger"
	"github.com/marciopocebon/bolt-1/observability"
	"github.com/marciopocebon/bolt-1/permissions"
	"github.com/marciopocebon/bolt-1/random"
	"github.com/marciopocebon/bolt-1/render"
	"github.com/marciopocebon/bolt-1/resources"
	"github.com/marciopocebon/bolt-1/sessions"
	"github.com/marciopocebon/bolt-1/storage"
	"github.com/marciopocebon/bolt-1/users"
	"github.com/marciopocebon/bolt-1/version"
	"github.com/marciopocebon/bolt-1/web"
)

// ServiceName identifies the application in logs and telemetry.
const ServiceName = "bolt"

// Application owns the service container and the lifecycle around it.
// Construction loads paths and configuration only; Initialize registers
// services; Boot mounts routes and event listeners.
type Application struct {
	container *di.Container
	cfg       *config.Config
	paths     *resources.Resolver
	fs        afero.Fs
	log       *logger.Logger
	debug     bool

	providers []Provider

	mu          sync.Mutex
	initialized bool
	booted      bool

	router      *web.Router
	obsShutdown func(context.Context) error
}

// New builds an application rooted at the configured root path. It
// resolves paths, loads the configuration files that exist under the
// config path (absent files fall back to compiled defaults), and sets
// up logging. It registers no services: the application is neither
// initialized nor booted.
func New(opts ...Option) (*Application, error) {
	o := resolveOptions(opts)

	fs := o.fs
	if fs == nil {
		fs = afero.NewOsFs()
	}

	root := o.root
	if root == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("app: resolve working directory: %w", err)
		}
		root = wd
	}
	paths := resources.New(root, o.pathOverrides)

	cfg, err := config.NewLoader(fs).Load(paths.MustPath(resources.AliasConfig))
	if err != nil {
		return nil, err
	}
	if o.debug {
		cfg.Set("general/debug", true)
	}

	log := o.logger
	if log == nil {
		level := "info"
		if o.debug {
			level = "debug"
		}
		logger.Init(logger.Config{Level: level})
		log = logger.GetGlobalLogger()
	}

	return &Application{
		container: di.NewContainer(),
		cfg:       cfg,
		paths:     paths,
		fs:        fs,
		log:       log,
		debug:     o.debug,
		providers: append(defaultProviders(), o.providers...),
	}, nil
}

// Initialize registers every provider's services into the container, in
// provider order. It runs at most once; repeat calls return nil without
// re-registering.
func (a *Application) Initialize() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.initialized {
		return nil
	}

	for _, p := range a.providers {
		if err := p.Register(a); err != nil {
			return fmt.Errorf("app: register provider %s: %w", p.Name(), err)
		}
	}

	a.initialized = true
	a.log.Debug("Application initialized", map[string]interface{}{
		"root":     a.paths.Root(),
		"services": len(a.container.Registrations()),
	})
	return nil
}

// Boot runs every provider's boot phase: routes are mounted and event
// listeners subscribed. Initialize must have run first. Boot runs at
// most once; repeat calls return nil.
func (a *Application) Boot() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.booted {
		return nil
	}
	if !a.initialized {
		return errors.New("app: boot before initialize")
	}

	for _, p := range a.providers {
		if err := p.Boot(a); err != nil {
			return fmt.Errorf("app: boot provider %s: %w", p.Name(), err)
		}
	}

	a.booted = true
	a.log.Info("Application booted", map[string]interface{}{
		"canonical": a.cfg.GetString("general/canonical"),
	})
	return nil
}

// Initialized reports whether the service registry has been populated.
func (a *Application) Initialized() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.initialized
}

// Booted reports whether the boot phase has completed.
func (a *Application) Booted() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.booted
}

// Close releases container-held resources, the database handle
// included, and shuts down the telemetry pipeline when one was
// installed.
func (a *Application) Close() error {
	a.mu.Lock()
	shutdown := a.obsShutdown
	a.obsShutdown = nil
	a.mu.Unlock()

	var errs []error
	if shutdown != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		errs = append(errs, shutdown(ctx))
		cancel()
	}
	errs = append(errs, a.container.Close())
	return errors.Join(errs...)
}

// Service resolves the named service from the container.
func (a *Application) Service(name string) (interface{}, error) {
	return a.container.Resolve(name)
}

// MustService resolves the named service, panicking on failure.
func (a *Application) MustService(name string) interface{} {
	return a.container.MustResolve(name)
}

// SetService installs value under name, displacing whatever the
// registered constructor would build. This is the seam tests use to
// substitute doubles.
func (a *Application) SetService(name string, value interface{}) {
	a.container.Set(name, value)
}

// InvalidateService drops the memoized instance for name so the next
// resolve reconstructs it.
func (a *Application) InvalidateService(name string) error {
	return a.container.Invalidate(name)
}

// Container exposes the service container.
func (a *Application) Container() *di.Container { return a.container }

// Config returns the configuration service.
func (a *Application) Config() *config.Config { return a.cfg }

// Resources returns the path resolver.
func (a *Application) Resources() *resources.Resolver { return a.paths }

// Filesystem returns the filesystem all file access goes through.
func (a *Application) Filesystem() afero.Fs { return a.fs }

// Log returns the system logger.
func (a *Application) Log() *logger.Logger { return a.log }

// Debug reports whether debug mode is on.
func (a *Application) Debug() bool { return a.debug }

// Router returns the mounted router, or nil before boot.
func (a *Application) Router() *web.Router {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.router
}

// Typed accessors resolve a service and assert its capability
// interface. They panic when resolution fails, which in practice means
// the application was not initialized or a constructor reported an
// error.

// Users returns the user store.
func (a *Application) Users() users.Service {
	return di.MustResolve[users.Service](a.container, Names.Users)
}

// Permissions returns the permission checker.
func (a *Application) Permissions() permissions.Service {
	return di.MustResolve[permissions.Service](a.container, Names.Permissions)
}

// Access returns the session-validation service.
func (a *Application) Access() access.Service {
	return di.MustResolve[access.Service](a.container, Names.Access)
}

// LoginFlow returns the credential login flow.
func (a *Application) LoginFlow() access.LoginService {
	return di.MustResolve[access.LoginService](a.container, Names.Login)
}

// Render returns the template renderer.
func (a *Application) Render() render.Service {
	return di.MustResolve[render.Service](a.container, Names.Render)
}

// Session returns the session service.
func (a *Application) Session() *sessions.Session {
	return di.MustResolve[*sessions.Session](a.container, Names.Session)
}

// Dispatcher returns the event dispatcher.
func (a *Application) Dispatcher() *dispatcher.Dispatcher {
	return di.MustResolve[*dispatcher.Dispatcher](a.container, Names.Dispatcher)
}

// Flash returns the flash message logger.
func (a *Application) Flash() *logger.FlashLogger {
	return di.MustResolve[*logger.FlashLogger](a.container, Names.FlashLog)
}

// Random returns the random value generator.
func (a *Application) Random() *random.Generator {
	return di.MustResolve[*random.Generator](a.container, Names.Random)
}

// RequestStack returns the per-request stack the web layer maintains.
func (a *Application) RequestStack() *web.RequestStack {
	return di.MustResolve[*web.RequestStack](a.container, Names.RequestStack)
}

// Exception returns the exception handler.
func (a *Application) Exception() *web.ExceptionHandler {
	return di.MustResolve[*web.ExceptionHandler](a.container, Names.Exception)
}

// CSRF returns the form token provider.
func (a *Application) CSRF() web.CSRFProvider {
	return di.MustResolve[web.CSRFProvider](a.container, Names.CSRF)
}

// Cache returns the content cache, filesystem or redis backed per the
// caching configuration.
func (a *Application) Cache() cache.Store {
	return di.MustResolve[cache.Store](a.container, Names.Cache)
}

// Storage returns the content store, opening the database on first use.
func (a *Application) Storage() (*storage.Storage, error) {
	return di.Resolve[*storage.Storage](a.container, Names.Storage)
}

// StorageLazy returns the deferred database handle.
func (a *Application) StorageLazy() *storage.Lazy {
	return di.MustResolve[*storage.Lazy](a.container, Names.StorageLazy)
}

// CookieOptions returns the authentication cookie settings.
func (a *Application) CookieOptions() access.CookieOptions {
	return di.MustResolve[access.CookieOptions](a.container, Names.CookieOptions)
}

// AccessDeps assembles the full dependency set the access-control
// service is constructed from. Tests reuse it to build partially
// scripted doubles around the real implementation.
func (a *Application) AccessDeps() (access.Deps, error) {
	lazy, err := di.Resolve[*storage.Lazy](a.container, Names.StorageLazy)
	if err != nil {
		return access.Deps{}, err
	}
	stack, err := di.Resolve[*web.RequestStack](a.container, Names.RequestStack)
	if err != nil {
		return access.Deps{}, err
	}
	sess, err := di.Resolve[*sessions.Session](a.container, Names.Session)
	if err != nil {
		return access.Deps{}, err
	}
	flash, err := di.Resolve[*logger.FlashLogger](a.container, Names.FlashLog)
	if err != nil {
		return access.Deps{}, err
	}
	perms, err := di.Resolve[permissions.Service](a.container, Names.Permissions)
	if err != nil {
		return access.Deps{}, err
	}
	rng, err := di.Resolve[*random.Generator](a.container, Names.Random)
	if err != nil {
		return access.Deps{}, err
	}
	cookies, err := di.Resolve[access.CookieOptions](a.container, Names.CookieOptions)
	if err != nil {
		return access.Deps{}, err
	}
	svc, err := di.Resolve[users.Service](a.container, Names.Users)
	if err != nil {
		return access.Deps{}, err
	}

	return access.Deps{
		Storage:     lazy,
		Requests:    stack,
		Session:     sess,
		Flash:       flash,
		SystemLog:   a.log,
		Permissions: perms,
		Random:      rng,
		Cookies:     cookies,
		Users:       svc,
	}, nil
}

// LoginDeps assembles the dependency set the login flow is constructed
// from.
func (a *Application) LoginDeps() (access.LoginDeps, error) {
	svc, err := di.Resolve[users.Service](a.container, Names.Users)
	if err != nil {
		return access.LoginDeps{}, err
	}
	acc, err := di.Resolve[access.Service](a.container, Names.Access)
	if err != nil {
		return access.LoginDeps{}, err
	}
	disp, err := di.Resolve[*dispatcher.Dispatcher](a.container, Names.Dispatcher)
	if err != nil {
		return access.LoginDeps{}, err
	}
	stack, err := di.Resolve[*web.RequestStack](a.container, Names.RequestStack)
	if err != nil {
		return access.LoginDeps{}, err
	}
	flash, err := di.Resolve[*logger.FlashLogger](a.container, Names.FlashLog)
	if err != nil {
		return access.LoginDeps{}, err
	}

	return access.LoginDeps{
		Users:      svc,
		Access:     acc,
		Hasher:     password.NewHasher(password.Config{}),
		Dispatcher: disp,
		Requests:   stack,
		Flash:      flash,
		Log:        a.log,
	}, nil
}

// MigrateDatabase creates the full schema on an open handle: user,
// token and change-log tables plus one content table per registered
// contenttype.
func MigrateDatabase(db *database.DB, cfg *config.Config, log *logger.Logger) error {
	if err := db.AutoMigrate(&users.User{}, &access.AuthToken{}); err != nil {
		return err
	}
	if err := db.AutoMigrateTable(db.TableName(storage.LogTable), &storage.ChangeLogEntry{}); err != nil {
		return err
	}
	return storage.NewStorage(db, cfg, nil, log).Migrate()
}

// Migrate builds the schema on the application's database, opening it
// if needed.
func (a *Application) Migrate() error {
	db, err := di.Resolve[*database.DB](a.container, Names.Database)
	if err != nil {
		return err
	}
	return MigrateDatabase(db, a.cfg, a.log)
}

// health reports component health for the /health endpoint. The
// database probe resolves and pings the handle, opening it on first
// use.
func (a *Application) health(ctx context.Context) *observability.ServiceHealth {
	h := observability.NewServiceHealth(ServiceName, version.Version)
	checker := observability.PingChecker{
		Name: "database",
		Ping: func(ctx context.Context) error {
			db, err := di.Resolve[*database.DB](a.container, Names.Database)
			if err != nil {
				return err
			}
			return db.PingContext(ctx)
		},
	}
	h.AddComponent(checker.CheckHealth(ctx))
	return h
}
