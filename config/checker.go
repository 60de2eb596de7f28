package config

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/afero"

	"github.com/marciopocebon/bolt-1/resources"
)

// ExceptionReporter receives configuration failures before they abort
// the lifecycle. The web exception handler implements it.
type ExceptionReporter interface {
	Report(err error)
}

// Checker verifies that the loaded configuration describes a runnable
// installation. Checks run in order and the first failure aborts; the
// failure is handed to the reporter before being returned.
type Checker struct {
	reporter ExceptionReporter
	cfg      *Config
	paths    *resources.Resolver
	fs       afero.Fs
}

// NewChecker creates a Checker. A nil fsys falls back to the OS
// filesystem.
func NewChecker(reporter ExceptionReporter, cfg *Config, paths *resources.Resolver, fsys afero.Fs) *Checker {
	if fsys == nil {
		fsys = afero.NewOsFs()
	}
	return &Checker{reporter: reporter, cfg: cfg, paths: paths, fs: fsys}
}

// Check runs all configuration checks.
func (c *Checker) Check() error {
	checks := []func() error{
		c.checkDatabase,
		c.checkCanonical,
		c.checkConfigPath,
		c.checkDatabasePath,
	}
	for _, check := range checks {
		if err := check(); err != nil {
			if c.reporter != nil {
				c.reporter.Report(err)
			}
			return err
		}
	}
	return nil
}

// checkDatabase verifies the connection descriptor decodes and validates.
func (c *Checker) checkDatabase() error {
	d, err := c.cfg.DatabaseConfig()
	if err != nil {
		return err
	}
	if err := d.Validate(); err != nil {
		return fmt.Errorf("config: general/database: %w", err)
	}
	return nil
}

// checkCanonical verifies a canonical hostname is configured. URL
// generation in rendered pages depends on it.
func (c *Checker) checkCanonical() error {
	if c.cfg.GetString("general/canonical") == "" {
		return fmt.Errorf("config: general/canonical must be set")
	}
	return nil
}

// checkConfigPath verifies the configuration directory exists.
func (c *Checker) checkConfigPath() error {
	dir, err := c.paths.Path(resources.AliasConfig)
	if err != nil {
		return err
	}
	ok, err := afero.DirExists(c.fs, dir)
	if err != nil {
		return fmt.Errorf("config: stat config path: %w", err)
	}
	if !ok {
		return fmt.Errorf("config: config path %s does not exist", dir)
	}
	return nil
}

// checkDatabasePath verifies the database directory exists or can be
// created, and that the configured database file location is usable.
func (c *Checker) checkDatabasePath() error {
	d, err := c.cfg.DatabaseConfig()
	if err != nil {
		return err
	}
	if d.InMemory() {
		return nil
	}

	dir := filepath.Dir(d.Path)
	if err := c.fs.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("config: database path %s is not creatable: %w", dir, err)
	}

	probe := filepath.Join(dir, ".probe")
	f, err := c.fs.Create(probe)
	if err != nil {
		return fmt.Errorf("config: database path %s is not writable: %w", dir, err)
	}
	f.Close()
	if err := c.fs.Remove(probe); err != nil {
		return fmt.Errorf("config: database path %s cleanup failed: %w", dir, err)
	}
	return nil
}
