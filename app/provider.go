package app

// Provider contributes services to the application. Register binds
// constructors and values into the container during Initialize; Boot
// runs once the full registry is in place. Both phases run in provider
// order.
type Provider interface {
	Name() string
	Register(a *Application) error
	Boot(a *Application) error
}

// defaultProviders returns the built-in provider set. Order matters:
// core values come first so later providers can resolve them, and the
// web provider boots last so every service it mounts routes over is
// registered.
func defaultProviders() []Provider {
	return []Provider{
		coreProvider{},
		databaseProvider{},
		usersProvider{},
		permissionsProvider{},
		accessProvider{},
		renderProvider{},
		observabilityProvider{},
		webProvider{},
	}
}
