// Package resources resolves filesystem locations for the application:
// where configuration, cache, database files and web assets live
// relative to the installation root.
package resources

import (
	"fmt"
	"path/filepath"
	"sort"
	"sync"
)

// Well-known path aliases.
const (
	AliasRoot      = "root"
	AliasApp       = "app"
	AliasConfig    = "config"
	AliasCache     = "cache"
	AliasDatabase  = "database"
	AliasResources = "resources"
	AliasWeb       = "web"
	AliasThemes    = "themes"
)

// Resolver maps path aliases to locations under the installation root.
type Resolver struct {
	mu    sync.RWMutex
	root  string
	paths map[string]string
}

// New creates a Resolver rooted at root. Overrides replace the default
// relative location for an alias; absolute override values are used as-is.
func New(root string, overrides map[string]string) *Resolver {
	r := &Resolver{
		root: filepath.Clean(root),
		paths: map[string]string{
			AliasApp:       "app",
			AliasConfig:    filepath.Join("app", "config"),
			AliasCache:     filepath.Join("app", "cache"),
			AliasDatabase:  filepath.Join("app", "database"),
			AliasResources: filepath.Join("app", "resources"),
			AliasWeb:       "public",
			AliasThemes:    filepath.Join("public", "theme"),
		},
	}
	for alias, path := range overrides {
		r.paths[alias] = path
	}
	return r
}

// Root returns the installation root.
func (r *Resolver) Root() string {
	return r.root
}

// Path returns the absolute location for alias.
func (r *Resolver) Path(alias string) (string, error) {
	if alias == AliasRoot {
		return r.root, nil
	}

	r.mu.RLock()
	rel, ok := r.paths[alias]
	r.mu.RUnlock()
	if !ok {
		return "", fmt.Errorf("resources: unknown path alias %q", alias)
	}
	if filepath.IsAbs(rel) {
		return rel, nil
	}
	return filepath.Join(r.root, rel), nil
}

// MustPath is Path for aliases known to exist. It panics on unknown
// aliases, which indicates a programming error.
func (r *Resolver) MustPath(alias string) string {
	p, err := r.Path(alias)
	if err != nil {
		panic(err)
	}
	return p
}

// SetPath replaces the location for alias. Relative values resolve
// against the root.
func (r *Resolver) SetPath(alias, path string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.paths[alias] = path
}

// Aliases returns the known aliases in sorted order.
func (r *Resolver) Aliases() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.paths)+1)
	out = append(out, AliasRoot)
	for alias := range r.paths {
		out = append(out, alias)
	}
	sort.Strings(out)
	return out
}
