package database

import (
	"context"
	"fmt"
	"sync"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/schema"

	"github.com/marciopocebon/bolt-1/config"
	"github.com/marciopocebon/bolt-1/logger"
)

// DB wraps a GORM connection opened from a database descriptor.
type DB struct {
	GormDB *gorm.DB
	log    *logger.Logger
	cfg    config.Database
	closed bool
	mu     sync.Mutex
}

// Open connects to the SQLite database described by cfg. The descriptor's
// table prefix is applied to every model-derived table name through GORM's
// naming strategy, so a prefix change never requires touching the models.
func Open(cfg config.Database, log *logger.Logger) (*DB, error) {
	return OpenContext(context.Background(), cfg, log)
}

// OpenContext connects like Open, honoring ctx for the initial ping.
func OpenContext(ctx context.Context, cfg config.Database, log *logger.Logger) (*DB, error) {
	cfg.ApplyDefaults()
	if log == nil {
		log = logger.GetGlobalLogger()
	}
	log = log.WithComponent("database")

	gormCfg := &gorm.Config{
		Logger: newGormLogger(log),
		NamingStrategy: schema.NamingStrategy{
			TablePrefix: cfg.Prefix,
		},
	}

	db, err := gorm.Open(sqlite.Open(cfg.DSN()), gormCfg)
	if err != nil {
		return nil, fmt.Errorf("open %s database at %s: %w", cfg.Driver, cfg.Path, err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}

	// A single connection serializes SQLite writes and keeps an
	// in-memory database alive for the lifetime of the pool.
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxOpenConns)

	if err := sqlDB.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}

	log.Debug("Database connection established", map[string]interface{}{
		"driver": cfg.Driver,
		"path":   cfg.Path,
		"prefix": cfg.Prefix,
	})

	return &DB{GormDB: db, log: log, cfg: cfg}, nil
}

// Close closes the underlying connection pool. Safe to call multiple times.
func (d *DB) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return nil
	}

	sqlDB, err := d.GormDB.DB()
	if err != nil {
		return err
	}
	d.closed = true
	return sqlDB.Close()
}

// Ping verifies the database connection is alive.
func (d *DB) Ping() error {
	sqlDB, err := d.GormDB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Ping()
}

// PingContext verifies the database connection is alive, respecting the context.
func (d *DB) PingContext(ctx context.Context) error {
	sqlDB, err := d.GormDB.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// WithContext returns a GORM session scoped to the given context.
func (d *DB) WithContext(ctx context.Context) *gorm.DB {
	return d.GormDB.WithContext(ctx)
}

// Prefix returns the table prefix from the descriptor this connection
// was opened with.
func (d *DB) Prefix() string {
	return d.cfg.Prefix
}

// TableName prepends the descriptor's table prefix to name. Queries that
// address tables literally, such as per-contenttype content tables, must
// go through this because gorm.DB.Table bypasses the naming strategy.
func (d *DB) TableName(name string) string {
	return d.cfg.Prefix + name
}

// AutoMigrate creates or updates the schema for the given models. Table
// names are derived from the model names plus the descriptor prefix.
func (d *DB) AutoMigrate(models ...interface{}) error {
	for _, model := range models {
		if err := d.GormDB.AutoMigrate(model); err != nil {
			return fmt.Errorf("migrate %T: %w", model, err)
		}
	}
	return nil
}

// AutoMigrateTable creates or updates the schema for model under an
// explicit table name. Used for content tables, where several tables
// share one model.
func (d *DB) AutoMigrateTable(table string, model interface{}) error {
	if err := d.GormDB.Table(table).AutoMigrate(model); err != nil {
		return fmt.Errorf("migrate table %s: %w", table, err)
	}
	return nil
}

// HasTable reports whether the named table exists.
func (d *DB) HasTable(table string) bool {
	return d.GormDB.Migrator().HasTable(table)
}

// Tables returns the names of all non-internal tables in the database.
func (d *DB) Tables() ([]string, error) {
	var tables []string
	err := d.GormDB.
		Raw("SELECT name FROM sqlite_master WHERE type='table' AND name NOT LIKE 'sqlite_%' ORDER BY name").
		Scan(&tables).Error
	return tables, err
}

// Truncate removes all rows from the named table.
func (d *DB) Truncate(table string) error {
	return d.GormDB.Exec(fmt.Sprintf("DELETE FROM %s", table)).Error
}

// Count returns the number of rows in the named table.
func (d *DB) Count(table string) (int64, error) {
	var count int64
	err := d.GormDB.Raw(fmt.Sprintf("SELECT COUNT(*) FROM %s", table)).Scan(&count).Error
	return count, err
}

// Transaction executes fn inside a database transaction.
func (d *DB) Transaction(fn func(*gorm.DB) error) error {
	return d.GormDB.Transaction(fn)
}
