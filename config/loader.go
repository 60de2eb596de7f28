package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/afero"
	"github.com/spf13/viper"

	"github.com/marciopocebon/bolt-1/logger"
)

// EnvPrefix marks environment variables that override configuration,
// e.g. BOLT_GENERAL_CANONICAL=example.org.
const EnvPrefix = "BOLT_"

// Loader reads the configuration file set from a directory. All file
// access goes through the provided filesystem so tests can run against
// an in-memory tree.
type Loader struct {
	fs  afero.Fs
	log *logger.Logger
}

// NewLoader creates a Loader reading through fsys. A nil fsys falls
// back to the OS filesystem.
func NewLoader(fsys afero.Fs) *Loader {
	if fsys == nil {
		fsys = afero.NewOsFs()
	}
	return &Loader{
		fs:  fsys,
		log: logger.WithComponent("config"),
	}
}

// Load builds a Config from the files present in dir. Absent files fall
// back to compiled defaults; a file that exists but fails to parse is an
// error. Environment variables with the BOLT_ prefix, plus entries from
// an optional .env file in dir, override file values.
func (l *Loader) Load(dir string) (*Config, error) {
	c := NewConfig()

	for _, f := range configFiles {
		path := filepath.Join(dir, f.Name)
		ok, err := afero.Exists(l.fs, path)
		if err != nil {
			return nil, fmt.Errorf("config: stat %s: %w", path, err)
		}
		if !ok {
			l.log.Debug("config file absent, using defaults", logger.Fields("file", f.Name))
			continue
		}

		data, err := afero.ReadFile(l.fs, path)
		if err != nil {
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}

		sub := viper.New()
		sub.SetConfigType("yaml")
		if err := sub.ReadConfig(bytes.NewReader(data)); err != nil {
			return nil, fmt.Errorf("config: parse %s: %w", f.Name, err)
		}

		if settings := sub.AllSettings(); len(settings) > 0 {
			if err := c.v.MergeConfigMap(map[string]any{f.Prefix: settings}); err != nil {
				return nil, fmt.Errorf("config: merge %s: %w", f.Name, err)
			}
		}
		l.log.Debug("config file loaded", logger.Fields("file", f.Name, "prefix", f.Prefix))
	}

	overrides := environOverrides()
	extra, err := l.loadEnvFile(filepath.Join(dir, ".env"))
	if err != nil {
		return nil, err
	}
	for k, v := range extra {
		overrides[k] = v
	}
	bindOverrides(c, overrides)

	return c, nil
}

// loadEnvFile parses KEY=value pairs from an optional .env file.
func (l *Loader) loadEnvFile(path string) (map[string]string, error) {
	ok, err := afero.Exists(l.fs, path)
	if err != nil {
		return nil, fmt.Errorf("config: stat %s: %w", path, err)
	}
	if !ok {
		return nil, nil
	}

	data, err := afero.ReadFile(l.fs, path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	entries, err := godotenv.Parse(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}

	out := make(map[string]string, len(entries))
	for k, v := range entries {
		if strings.HasPrefix(k, EnvPrefix) {
			out[k] = v
		}
	}
	return out, nil
}

// environOverrides collects BOLT_-prefixed variables from the process
// environment.
func environOverrides() map[string]string {
	out := make(map[string]string)
	for _, env := range os.Environ() {
		pair := strings.SplitN(env, "=", 2)
		if len(pair) != 2 || !strings.HasPrefix(pair[0], EnvPrefix) {
			continue
		}
		out[pair[0]] = pair[1]
	}
	return out
}

// bindOverrides applies environment overrides to the config. Each
// variable binds under every plausible nesting so that both
// BOLT_GENERAL_CANONICAL and BOLT_GENERAL_DATABASE_PREFIX land on the
// intended key despite multi-word segment names.
func bindOverrides(c *Config, overrides map[string]string) {
	for key, value := range overrides {
		for _, variant := range envKeyVariants(strings.TrimPrefix(key, EnvPrefix)) {
			c.Set(variant, value)
		}
	}
}

// envKeyVariants generates candidate key paths for an environment
// variable name. Examples:
//
//	GENERAL_CANONICAL        -> [general_canonical, general.canonical]
//	GENERAL_DATABASE_PREFIX  -> [general_database_prefix, general.database.prefix, general.database_prefix]
func envKeyVariants(envKey string) []string {
	lowerKey := strings.ToLower(envKey)
	parts := strings.Split(lowerKey, "_")

	if len(parts) <= 1 {
		return []string{lowerKey}
	}

	variants := []string{
		lowerKey,
		strings.ReplaceAll(lowerKey, "_", "."),
	}

	// Progressive nesting: first i segments dotted, remainder joined
	// with underscores.
	for i := 1; i < len(parts); i++ {
		prefix := strings.Join(parts[:i], ".")
		suffix := strings.Join(parts[i:], "_")
		variants = append(variants, prefix+"."+suffix)
	}

	return dedupe(variants)
}

func dedupe(items []string) []string {
	seen := make(map[string]bool, len(items))
	result := make([]string, 0, len(items))
	for _, item := range items {
		if !seen[item] {
			seen[item] = true
			result = append(result, item)
		}
	}
	return result
}
