package testutil

import (
	"path/filepath"

	"github.com/marciopocebon/bolt-1/app"
	"github.com/marciopocebon/bolt-1/config"
	"github.com/marciopocebon/bolt-1/logger"
	"github.com/marciopocebon/bolt-1/resources"
)

// pathOverrides remaps the web-facing aliases under the test root: the
// fixture tree keeps templates under web/theme instead of the
// production public/ layout.
func pathOverrides() map[string]string {
	return map[string]string{
		resources.AliasWeb:    "web",
		resources.AliasThemes: filepath.Join("web", "theme"),
	}
}

// resolverFor returns a path resolver matching the one the factory
// builds into applications, usable before any application exists.
func resolverFor(root string) *resources.Resolver {
	return resources.New(root, pathOverrides())
}

// BuildApplication constructs an unbooted application rooted at root:
// debug off, discarded logging, test path overrides, and configuration
// seeded with a working sqlite descriptor and the canonical test
// hostname. It neither initializes nor boots; given the same root it
// always yields an equivalent configuration.
func BuildApplication(root string) (*app.Application, error) {
	a, err := app.New(
		app.WithRoot(root),
		app.WithPathOverrides(pathOverrides()),
		app.WithDebug(false),
		app.WithLogger(logger.Discard()),
	)
	if err != nil {
		return nil, err
	}

	cfg := a.Config()
	cfg.Set("general/database", map[string]any{
		"driver":       "sqlite",
		"databasename": "bolt",
		"username":     "test",
		"password":     "test",
		"prefix":       "bolt_",
		"path":         filepath.Join(a.Resources().MustPath(resources.AliasDatabase), DatabaseFile),
		"wrapper":      config.WrapperStandard,
	})
	cfg.Set("general/canonical", CanonicalHost)
	return a, nil
}

func (h *Harness) buildApplication() (*app.Application, error) {
	return BuildApplication(h.root)
}
