package config

import (
	"fmt"
	"strings"

	"github.com/marciopocebon/bolt-1/validation"
)

// WrapperStandard is the only connection wrapper wired in this build.
const WrapperStandard = "standard"

// Database is the connection descriptor decoded from general/database.
type Database struct {
	// Driver selects the database backend.
	Driver string `mapstructure:"driver" json:"driver" validate:"required,oneof=sqlite"`
	// Databasename is the logical database name.
	Databasename string `mapstructure:"databasename" json:"databasename" validate:"required"`
	// Username and Password are connection credentials. The sqlite
	// driver ignores them but the descriptor carries them regardless.
	Username string `mapstructure:"username" json:"username"`
	Password string `mapstructure:"password" json:"-"`
	// Path is the database file location, or ":memory:".
	Path string `mapstructure:"path" json:"path"`
	// Prefix is prepended to every table name.
	Prefix string `mapstructure:"prefix" json:"prefix" validate:"required"`
	// Wrapper names the connection wrapper implementation.
	Wrapper string `mapstructure:"wrapper" json:"wrapper"`
	// MaxOpenConns caps the connection pool.
	MaxOpenConns int `mapstructure:"max_open_conns" json:"max_open_conns"`
}

// ApplyDefaults applies default values to the descriptor.
func (d *Database) ApplyDefaults() {
	if d.Driver == "" {
		d.Driver = "sqlite"
	}
	if d.Databasename == "" {
		d.Databasename = "bolt"
	}
	if d.Prefix == "" {
		d.Prefix = "bolt_"
	}
	if !strings.HasSuffix(d.Prefix, "_") {
		d.Prefix += "_"
	}
	if d.Wrapper == "" {
		d.Wrapper = WrapperStandard
	}
	if d.MaxOpenConns == 0 {
		// sqlite serializes writers; a single connection avoids
		// SQLITE_BUSY under concurrent resolves.
		d.MaxOpenConns = 1
	}
}

// Validate validates the descriptor.
func (d *Database) Validate() error {
	if err := validation.Validate(d); err != nil {
		return err
	}
	if d.Wrapper != WrapperStandard {
		return fmt.Errorf("database.wrapper %q is not available (use %q)", d.Wrapper, WrapperStandard)
	}
	if d.Path == "" {
		return fmt.Errorf("database.path is required for driver %s", d.Driver)
	}
	return nil
}

// InMemory reports whether the descriptor points at an in-memory database.
func (d *Database) InMemory() bool {
	return d.Path == ":memory:"
}

// DSN returns the driver connection string.
func (d *Database) DSN() string {
	return d.Path
}

// DatabaseConfig decodes general/database into a descriptor with
// defaults applied. The caller validates.
func (c *Config) DatabaseConfig() (Database, error) {
	var d Database
	if err := c.UnmarshalKey("general/database", &d); err != nil {
		return Database{}, fmt.Errorf("config: decode general/database: %w", err)
	}
	d.ApplyDefaults()
	return d, nil
}
