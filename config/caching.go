package config

import (
	"fmt"
	"time"

	"github.com/marciopocebon/bolt-1/validation"
)

// Cache backends selectable through general/caching/backend.
const (
	CacheBackendFilesystem = "filesystem"
	CacheBackendRedis      = "redis"
)

// Caching is the cache descriptor decoded from general/caching.
type Caching struct {
	// Request toggles caching of rendered responses.
	Request bool `mapstructure:"request" json:"request"`
	// Duration is the cache lifetime in minutes.
	Duration int `mapstructure:"duration" json:"duration"`
	// Backend selects where cached entries live.
	Backend string `mapstructure:"backend" json:"backend" validate:"required,oneof=filesystem redis"`
	// Redis configures the redis backend. Ignored for filesystem.
	Redis CachingRedis `mapstructure:"redis" json:"redis"`
}

// CachingRedis is the connection descriptor for the redis cache backend.
type CachingRedis struct {
	// Addr is the server address as host:port.
	Addr string `mapstructure:"addr" json:"addr"`
	// Password is the server password, empty for none.
	Password string `mapstructure:"password" json:"-"`
	// DB is the database number.
	DB int `mapstructure:"db" json:"db"`
	// PoolSize caps the connection pool.
	PoolSize int `mapstructure:"pool_size" json:"pool_size"`
	// DialTimeout, ReadTimeout and WriteTimeout are duration strings
	// such as "5s".
	DialTimeout  string `mapstructure:"dial_timeout" json:"dial_timeout"`
	ReadTimeout  string `mapstructure:"read_timeout" json:"read_timeout"`
	WriteTimeout string `mapstructure:"write_timeout" json:"write_timeout"`
}

// ApplyDefaults applies default values to the descriptor.
func (c *Caching) ApplyDefaults() {
	if c.Backend == "" {
		c.Backend = CacheBackendFilesystem
	}
	if c.Duration == 0 {
		c.Duration = 10
	}
	if c.Backend == CacheBackendRedis {
		c.Redis.applyDefaults()
	}
}

func (r *CachingRedis) applyDefaults() {
	if r.PoolSize <= 0 {
		r.PoolSize = 10
	}
	if r.DialTimeout == "" {
		r.DialTimeout = "5s"
	}
	if r.ReadTimeout == "" {
		r.ReadTimeout = "3s"
	}
	if r.WriteTimeout == "" {
		r.WriteTimeout = "3s"
	}
}

// Validate validates the descriptor.
func (c *Caching) Validate() error {
	if err := validation.Validate(c); err != nil {
		return err
	}
	if c.Backend != CacheBackendRedis {
		return nil
	}
	if c.Redis.Addr == "" {
		return fmt.Errorf("caching.redis.addr is required for the redis backend")
	}
	for _, d := range []struct{ name, value string }{
		{"dial_timeout", c.Redis.DialTimeout},
		{"read_timeout", c.Redis.ReadTimeout},
		{"write_timeout", c.Redis.WriteTimeout},
	} {
		if _, err := time.ParseDuration(d.value); err != nil {
			return fmt.Errorf("caching.redis.%s %q: %w", d.name, d.value, err)
		}
	}
	return nil
}

// TTL returns the configured cache lifetime.
func (c *Caching) TTL() time.Duration {
	return time.Duration(c.Duration) * time.Minute
}

// CachingConfig decodes general/caching into a descriptor with defaults
// applied. The caller validates.
func (c *Config) CachingConfig() (Caching, error) {
	var out Caching
	if err := c.UnmarshalKey("general/caching", &out); err != nil {
		return Caching{}, fmt.Errorf("config: decode general/caching: %w", err)
	}
	out.ApplyDefaults()
	return out, nil
}
