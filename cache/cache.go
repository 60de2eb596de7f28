// Package cache implements the filesystem cache behind the "cache"
// service. Entries are stored one file per id under a sharded directory
// layout, with an expiry stamp serialized alongside the payload.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/spf13/afero"

	"github.com/marciopocebon/bolt-1/logger"
)

// Extension is the suffix given to every cache file.
const Extension = ".data"

// Store is the cache contract consumed by the render layer and the
// backend. Cache implements it; test doubles wrap it.
type Store interface {
	Fetch(id string) ([]byte, bool)
	Contains(id string) bool
	Save(id string, data []byte, ttl time.Duration) error
	Delete(id string) error
	FlushAll() error
}

// Stats reports cache activity since construction.
type Stats struct {
	Hits    int64
	Misses  int64
	Entries int
}

type entry struct {
	ExpiresAt int64  `json:"expires_at"`
	Data      []byte `json:"data"`
}

// Cache is a file-per-entry cache rooted at a single directory.
type Cache struct {
	mu   sync.Mutex
	fs   afero.Fs
	dir  string
	ext  string
	mode os.FileMode
	log  *logger.Logger

	hits   atomic.Int64
	misses atomic.Int64

	now func() time.Time
}

var _ Store = (*Cache)(nil)

// New creates a cache rooted at dir. An empty ext falls back to
// Extension, a zero mode to 0o644, and a nil fsys to the OS filesystem.
func New(dir, ext string, mode os.FileMode, fsys afero.Fs) (*Cache, error) {
	if ext == "" {
		ext = Extension
	}
	if mode == 0 {
		mode = 0o644
	}
	if fsys == nil {
		fsys = afero.NewOsFs()
	}
	if err := fsys.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("cache: create directory: %w", err)
	}
	return &Cache{
		fs:   fsys,
		dir:  dir,
		ext:  ext,
		mode: mode,
		log:  logger.WithComponent("cache"),
		now:  time.Now,
	}, nil
}

// Dir returns the cache root directory.
func (c *Cache) Dir() string { return c.dir }

// Fetch returns the payload stored under id. The second return is false
// on a miss; expired entries count as misses and are removed.
func (c *Cache) Fetch(id string) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.read(id)
	if !ok {
		c.misses.Add(1)
		return nil, false
	}
	if c.expired(e) {
		_ = c.fs.Remove(c.filename(id))
		c.misses.Add(1)
		return nil, false
	}
	c.hits.Add(1)
	return e.Data, true
}

// Contains reports whether a live entry exists under id.
func (c *Cache) Contains(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.read(id)
	return ok && !c.expired(e)
}

// Save stores data under id. A zero ttl keeps the entry until flushed.
func (c *Cache) Save(id string, data []byte, ttl time.Duration) error {
	var expires int64
	if ttl > 0 {
		expires = c.now().Add(ttl).UnixNano()
	}
	raw, err := json.Marshal(entry{ExpiresAt: expires, Data: data})
	if err != nil {
		return fmt.Errorf("cache: encode entry: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	name := c.filename(id)
	if err := c.fs.MkdirAll(path.Dir(name), 0o750); err != nil {
		return fmt.Errorf("cache: create shard directory: %w", err)
	}
	if err := afero.WriteFile(c.fs, name, raw, c.mode); err != nil {
		return fmt.Errorf("cache: write entry: %w", err)
	}
	return nil
}

// Delete removes the entry stored under id. Absent entries are not an error.
func (c *Cache) Delete(id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.fs.Remove(c.filename(id)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("cache: delete entry: %w", err)
	}
	return nil
}

// FlushAll removes every cache file under the root directory.
func (c *Cache) FlushAll() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	names, err := c.entryFiles()
	if err != nil {
		return err
	}
	for _, name := range names {
		if err := c.fs.Remove(name); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("cache: flush %s: %w", name, err)
		}
	}
	c.log.Debug("Cache flushed", map[string]interface{}{"entries": len(names)})
	return nil
}

// Stats returns hit and miss counters plus the current entry count.
func (c *Cache) Stats() Stats {
	c.mu.Lock()
	names, _ := c.entryFiles()
	c.mu.Unlock()

	return Stats{
		Hits:    c.hits.Load(),
		Misses:  c.misses.Load(),
		Entries: len(names),
	}
}

func (c *Cache) read(id string) (entry, bool) {
	raw, err := afero.ReadFile(c.fs, c.filename(id))
	if err != nil {
		return entry{}, false
	}
	var e entry
	if err := json.Unmarshal(raw, &e); err != nil {
		return entry{}, false
	}
	return e, true
}

func (c *Cache) expired(e entry) bool {
	return e.ExpiresAt != 0 && c.now().UnixNano() > e.ExpiresAt
}

// filename shards entries into two-character subdirectories so a large
// cache never piles every file into one directory.
func (c *Cache) filename(id string) string {
	sum := sha256.Sum256([]byte(id))
	name := hex.EncodeToString(sum[:])
	return path.Join(c.dir, name[:2], name+c.ext)
}

func (c *Cache) entryFiles() ([]string, error) {
	var names []string
	err := afero.Walk(c.fs, c.dir, func(p string, info os.FileInfo, err error) error {
		if err != nil {
			if os.IsNotExist(err) {
				return nil
			}
			return err
		}
		if !info.IsDir() && strings.HasSuffix(p, c.ext) {
			names = append(names, p)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("cache: walk %s: %w", c.dir, err)
	}
	return names, nil
}
