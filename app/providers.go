package app

import (
	"context"
	"errors"
	"time"

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
	"github.com/marciopocebon/bolt-1/prefill"
	"github.com/marciopocebon/bolt-1/random"
	"github.com/marciopocebon/bolt-1/render"
	"github.com/marciopocebon/bolt-1/resources"
	"github.com/marciopocebon/bolt-1/sessions"
	"github.com/marciopocebon/bolt-1/storage"
	"github.com/marciopocebon/bolt-1/users"
	"github.com/marciopocebon/bolt-1/web"
)

// coreProvider registers the value services and the light collaborators
// everything else is built from.
type coreProvider struct{}

func (coreProvider) Name() string { return "core" }

func (coreProvider) Register(a *Application) error {
	c := a.container
	c.Set(Names.Config, a.cfg)
	c.Set(Names.Resources, a.paths)
	c.Set(Names.Filesystem, a.fs)
	c.Set(Names.SystemLog, a.log)

	return errors.Join(
		c.Register(Names.FlashLog, func() *logger.FlashLogger {
			return logger.NewFlash(a.log)
		}),
		c.Register(Names.Random, func() *random.Generator {
			return random.NewGenerator()
		}),
		c.Register(Names.Dispatcher, func() *dispatcher.Dispatcher {
			return dispatcher.New(a.log)
		}),
		c.Register(Names.Session, func() *sessions.Session {
			s := sessions.New()
			s.Start()
			return s
		}),
		c.Register(Names.RequestStack, func() *web.RequestStack {
			return web.NewRequestStack()
		}),
		c.Register(Names.Exception, func() *web.ExceptionHandler {
			return web.NewExceptionHandler(a.log)
		}),
	)
}

func (coreProvider) Boot(*Application) error { return nil }

// databaseProvider registers the database handle and everything built
// directly on it. All constructors are lazy: nothing here touches the
// database file until a service is first resolved.
type databaseProvider struct{}

func (databaseProvider) Name() string { return "database" }

func (databaseProvider) Register(a *Application) error {
	c := a.container
	return errors.Join(
		c.Register(Names.Database, func() (*database.DB, error) {
			dbcfg, err := a.cfg.DatabaseConfig()
			if err != nil {
				return nil, err
			}
			return database.Open(dbcfg, a.log)
		}),
		c.Register(Names.StorageLazy, func(c *di.Container) *storage.Lazy {
			return storage.NewLazy(func() (*database.DB, error) {
				return di.Resolve[*database.DB](c, Names.Database)
			})
		}),
		c.Register(Names.Storage, func(c *di.Container) (*storage.Storage, error) {
			db, err := lazyDB(c)
			if err != nil {
				return nil, err
			}
			disp, err := di.Resolve[*dispatcher.Dispatcher](c, Names.Dispatcher)
			if err != nil {
				return nil, err
			}
			return storage.NewStorage(db, a.cfg, disp, a.log), nil
		}),
		c.Register(Names.ChangeLog, func(c *di.Container) (*storage.ChangeLog, error) {
			db, err := lazyDB(c)
			if err != nil {
				return nil, err
			}
			return storage.NewChangeLog(db, a.log), nil
		}),
		c.Register(Names.Prefill, func() prefill.Source {
			return prefill.NewRemoteSource("", nil, a.log)
		}),
	)
}

// Boot subscribes the change log to content mutations. The listener
// resolves the change log on first event, not at subscription time, so
// mounting it never opens the database.
func (databaseProvider) Boot(a *Application) error {
	disp, err := di.Resolve[*dispatcher.Dispatcher](a.container, Names.Dispatcher)
	if err != nil {
		return err
	}

	record := func(ev *dispatcher.Event) {
		if cl, ok := di.TryResolve[*storage.ChangeLog](a.container, Names.ChangeLog); ok {
			cl.RecordEvent(ev)
		}
	}
	disp.On(dispatcher.PostSave, record)
	disp.On(dispatcher.PostDelete, record)
	return nil
}

// lazyDB resolves the deferred database handle and opens it.
func lazyDB(c *di.Container) (*database.DB, error) {
	lazy, err := di.Resolve[*storage.Lazy](c, Names.StorageLazy)
	if err != nil {
		return nil, err
	}
	return lazy.DB()
}

type usersProvider struct{}

func (usersProvider) Name() string { return "users" }

func (usersProvider) Register(a *Application) error {
	return a.container.Register(Names.Users, func(c *di.Container) (*users.Store, error) {
		db, err := lazyDB(c)
		if err != nil {
			return nil, err
		}
		return users.NewStore(db, password.NewHasher(password.Config{}), a.log), nil
	})
}

func (usersProvider) Boot(*Application) error { return nil }

type permissionsProvider struct{}

func (permissionsProvider) Name() string { return "permissions" }

func (permissionsProvider) Register(a *Application) error {
	return a.container.Register(Names.Permissions, func() *permissions.Checker {
		return permissions.NewChecker(a.cfg, a.log)
	})
}

func (permissionsProvider) Boot(*Application) error { return nil }

// accessProvider registers session validation, the login flow, and the
// CSRF token provider.
type accessProvider struct{}

func (accessProvider) Name() string { return "access" }

func (accessProvider) Register(a *Application) error {
	c := a.container
	c.Set(Names.CookieOptions, access.CookieOptionsFromConfig(a.cfg))

	return errors.Join(
		c.Register(Names.Access, func() (*access.AccessControl, error) {
			deps, err := a.AccessDeps()
			if err != nil {
				return nil, err
			}
			return access.New(deps), nil
		}),
		c.Register(Names.Login, func() (*access.Login, error) {
			deps, err := a.LoginDeps()
			if err != nil {
				return nil, err
			}
			return access.NewLogin(deps), nil
		}),
		c.Register(Names.CSRF, func(c *di.Container) (*web.CSRFManager, error) {
			sess, err := di.Resolve[*sessions.Session](c, Names.Session)
			if err != nil {
				return nil, err
			}
			gen, err := di.Resolve[*random.Generator](c, Names.Random)
			if err != nil {
				return nil, err
			}
			return web.NewCSRFManager(sess, gen), nil
		}),
	)
}

func (accessProvider) Boot(a *Application) error {
	disp, err := di.Resolve[*dispatcher.Dispatcher](a.container, Names.Dispatcher)
	if err != nil {
		return err
	}
	disp.On(dispatcher.Login, func(ev *dispatcher.Event) {
		if u, ok := ev.Subject.(*users.User); ok {
			a.log.Info("User logged in", map[string]interface{}{"username": u.Username})
		}
	})
	return nil
}

type renderProvider struct{}

func (renderProvider) Name() string { return "render" }

func (renderProvider) Register(a *Application) error {
	c := a.container
	return errors.Join(
		c.Register(Names.Cache, func() (cache.Store, error) {
			caching, err := a.cfg.CachingConfig()
			if err != nil {
				return nil, err
			}
			if err := caching.Validate(); err != nil {
				return nil, err
			}
			if caching.Backend == config.CacheBackendRedis {
				return cache.NewRedis(redisCacheOptions(caching.Redis), a.log)
			}
			return cache.New(a.paths.MustPath(resources.AliasCache), cache.Extension, 0, a.fs)
		}),
		c.Register(Names.Render, func(c *di.Container) (*render.Renderer, error) {
			store, err := di.Resolve[cache.Store](c, Names.Cache)
			if err != nil {
				return nil, err
			}
			return render.New(a.cfg, a.paths, store, a.fs, a.log), nil
		}),
	)
}

func (renderProvider) Boot(*Application) error { return nil }

// redisCacheOptions maps the validated descriptor onto backend options.
// Duration strings were parse-checked by Caching.Validate.
func redisCacheOptions(r config.CachingRedis) cache.RedisOptions {
	dial, _ := time.ParseDuration(r.DialTimeout)
	read, _ := time.ParseDuration(r.ReadTimeout)
	write, _ := time.ParseDuration(r.WriteTimeout)
	return cache.RedisOptions{
		Addr:         r.Addr,
		Password:     r.Password,
		DB:           r.DB,
		PoolSize:     r.PoolSize,
		DialTimeout:  dial,
		ReadTimeout:  read,
		WriteTimeout: write,
	}
}

// observabilityProvider installs the OTLP trace and metric pipeline when
// general/observability/enabled is on; otherwise spans and instruments
// fall through to the global no-op providers.
type observabilityProvider struct{}

func (observabilityProvider) Name() string { return "observability" }

func (observabilityProvider) Register(*Application) error { return nil }

func (observabilityProvider) Boot(a *Application) error {
	shutdown, err := observability.Init(context.Background(), observability.FromConfig(a.cfg), a.log)
	if err != nil {
		return err
	}
	a.obsShutdown = shutdown
	return nil
}

// webProvider mounts the router at boot. Handlers receive resolvers, not
// services, so mounting never constructs storage or render.
type webProvider struct{}

func (webProvider) Name() string { return "web" }

func (webProvider) Register(*Application) error { return nil }

func (webProvider) Boot(a *Application) error {
	stack, err := di.Resolve[*web.RequestStack](a.container, Names.RequestStack)
	if err != nil {
		return err
	}
	handler, err := di.Resolve[*web.ExceptionHandler](a.container, Names.Exception)
	if err != nil {
		return err
	}

	deps := web.RouterDeps{
		Config:    a.cfg,
		Stack:     stack,
		Exception: handler,
		Log:       a.log,
		Storage:   di.GetTypedResolver[*storage.Storage](a.container, Names.Storage),
		Render: func() (render.Service, error) {
			return di.Resolve[render.Service](a.container, Names.Render)
		},
		Health: a.health,
	}
	if a.cfg.GetBool("general/observability/enabled") {
		metrics, err := observability.NewMetrics(observability.Meter("web"))
		if err != nil {
			return err
		}
		deps.Metrics = metrics
	}

	a.router = web.NewRouter(deps)
	return nil
}
