package config

import (
	"strings"
	"sync"

	"github.com/spf13/viper"
)

// Config is the runtime configuration service. Values live in a single
// key-path tree; segments separate with slashes or dots interchangeably
// (general/database ≡ general.database). Setting a path never requires
// the path to exist beforehand.
type Config struct {
	mu sync.RWMutex
	v  *viper.Viper
}

// NewConfig creates an empty Config carrying only compiled defaults.
func NewConfig() *Config {
	c := &Config{v: viper.New()}
	applyDefaults(c.v)
	return c
}

// normalizeKey converts slash-segmented paths to viper's dot notation.
func normalizeKey(path string) string {
	return strings.ReplaceAll(strings.Trim(path, "/"), "/", ".")
}

// Get returns the value at path, or nil when unset.
func (c *Config) Get(path string) any {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.v.Get(normalizeKey(path))
}

// GetString returns the string value at path.
func (c *Config) GetString(path string) string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.v.GetString(normalizeKey(path))
}

// GetBool returns the boolean value at path.
func (c *Config) GetBool(path string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.v.GetBool(normalizeKey(path))
}

// GetInt returns the integer value at path.
func (c *Config) GetInt(path string) int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.v.GetInt(normalizeKey(path))
}

// GetStringSlice returns the string slice value at path.
func (c *Config) GetStringSlice(path string) []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.v.GetStringSlice(normalizeKey(path))
}

// GetStringMap returns the map value at path.
func (c *Config) GetStringMap(path string) map[string]any {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.v.GetStringMap(normalizeKey(path))
}

// IsSet reports whether path carries a value (default or explicit).
func (c *Config) IsSet(path string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.v.IsSet(normalizeKey(path))
}

// Set writes value at path, creating intermediate segments as needed.
// Set values take precedence over file-loaded values and defaults.
func (c *Config) Set(path string, value any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.v.Set(normalizeKey(path), value)
}

// UnmarshalKey decodes the subtree at path into out.
func (c *Config) UnmarshalKey(path string, out any) error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.v.UnmarshalKey(normalizeKey(path), out)
}

// All returns a copy of the full settings tree.
func (c *Config) All() map[string]any {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.v.AllSettings()
}
