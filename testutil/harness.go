package testutil

import (
	"embed"
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"github.com/marciopocebon/bolt-1/app"
	"github.com/marciopocebon/bolt-1/config"
	"github.com/marciopocebon/bolt-1/resources"
)

// Fixed values seeded into every harness application. Tests assert
// against these rather than repeating the literals.
const (
	// DefaultUsername and friends describe the default seeded account.
	DefaultUsername    = "admin"
	DefaultPassword    = "password"
	DefaultEmail       = "admin@example.com"
	DefaultDisplayname = "Admin"

	// SessionToken is the token string SetSessionUser stores.
	SessionToken = "testtoken"

	// CSRFToken is the fixed token DisableCSRF hands out.
	CSRFToken = "xyz"

	// CanonicalHost is the hostname seeded into general/canonical.
	CanonicalHost = "bolt.test"

	// DatabaseFile names both the working database and its baseline.
	DatabaseFile = "bolt.db"
)

//go:embed all:testdata/root
var rootFixture embed.FS

// Harness drives one application through a test: build, initialize,
// validate, boot, then overrides and fixtures. One harness owns at most
// one application, torn down when the test ends.
type Harness struct {
	tb   testing.TB
	root string
	app  *app.Application
}

// Option configures the harness during creation.
type Option func(*options)

type options struct {
	root string
}

// WithRoot pins the harness to an existing installation root instead of
// a fresh temp root. The caller owns the root's layout.
func WithRoot(root string) Option {
	return func(o *options) {
		o.root = root
	}
}

// New creates a harness for tb. Without WithRoot it lays out a per-test
// temp root primed from testdata/root, so parallel tests never share
// state.
func New(tb testing.TB, opts ...Option) *Harness {
	tb.Helper()

	var o options
	for _, opt := range opts {
		opt(&o)
	}

	root := o.root
	if root == "" {
		root = tb.TempDir()
		if err := primeRoot(root); err != nil {
			tb.Fatalf("prime test root: %v", err)
		}
	}
	return &Harness{tb: tb, root: root}
}

// Root returns the harness installation root.
func (h *Harness) Root() string {
	return h.root
}

// App returns the harness application, building it on first call:
// build, install the working database, initialize, validate the
// configuration, and boot when asked. Any failure is fatal to the test.
//
// The application is memoized: later calls return the same instance and
// IGNORE the boot argument. Callers must not expect App(false) followed
// by App(true) to boot; request boot on the first call or boot the
// returned application themselves.
func (h *Harness) App(boot bool) *app.Application {
	h.tb.Helper()

	if h.app != nil {
		return h.app
	}

	a, err := h.buildApplication()
	if err != nil {
		h.tb.Fatalf("build application: %v", err)
	}
	if err := h.EnsureDatabase(); err != nil {
		h.tb.Fatalf("install working database: %v", err)
	}
	if err := a.Initialize(); err != nil {
		h.tb.Fatalf("initialize application: %v", err)
	}

	checker := config.NewChecker(a.Exception(), a.Config(), a.Resources(), a.Filesystem())
	if err := checker.Check(); err != nil {
		h.tb.Fatalf("configuration check failed: %v", err)
	}

	if boot {
		if err := a.Boot(); err != nil {
			h.tb.Fatalf("boot application: %v", err)
		}
	}

	h.app = a
	h.tb.Cleanup(func() {
		if err := a.Close(); err != nil {
			h.tb.Errorf("close application: %v", err)
		}
	})
	return h.app
}

// Service resolves a service from the harness application, building and
// booting the application first when needed. Unknown names fail the
// test.
func (h *Harness) Service(name string) interface{} {
	h.tb.Helper()
	v, err := h.App(true).Service(name)
	if err != nil {
		h.tb.Fatalf("resolve service %s: %v", name, err)
	}
	return v
}

// SetService replaces a service in the harness application, building
// and booting the application first when needed.
func (h *Harness) SetService(name string, value interface{}) {
	h.tb.Helper()
	h.App(true).SetService(name, value)
}

// primeRoot lays out a fresh installation root: the embedded fixture
// tree plus the writable directories the application expects.
func primeRoot(root string) error {
	err := fs.WalkDir(rootFixture, "testdata/root", func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel("testdata/root", path)
		if err != nil {
			return err
		}
		target := filepath.Join(root, rel)
		if d.IsDir() {
			return os.MkdirAll(target, 0o750)
		}
		data, err := rootFixture.ReadFile(path)
		if err != nil {
			return err
		}
		return os.WriteFile(target, data, 0o644)
	})
	if err != nil {
		return err
	}

	for _, alias := range []string{
		resources.AliasConfig,
		resources.AliasCache,
		resources.AliasDatabase,
		resources.AliasResources,
		resources.AliasWeb,
		resources.AliasThemes,
	} {
		if err := os.MkdirAll(resolverFor(root).MustPath(alias), 0o750); err != nil {
			return err
		}
	}
	return nil
}
