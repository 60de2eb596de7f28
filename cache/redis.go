package cache

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/marciopocebon/bolt-1/logger"
)

// RedisOptions configures the redis cache backend. Socket deadlines
// come from the timeout fields; zero values fall back to the same
// defaults the descriptor applies.
type RedisOptions struct {
	Addr         string
	Password     string
	DB           int
	PoolSize     int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration

	// Prefix namespaces every key so FlushAll never touches entries
	// written by anything else sharing the server.
	Prefix string
}

// RedisStore is a Store backed by a redis server. Expiry is delegated
// to redis key TTLs instead of the envelope the filesystem cache uses.
type RedisStore struct {
	rdb    *goredis.Client
	prefix string
	log    *logger.Logger

	hits   atomic.Int64
	misses atomic.Int64

	mu     sync.Mutex
	closed bool
}

var _ Store = (*RedisStore)(nil)

// NewRedis connects to the server in opts and verifies it answers a
// ping before returning.
func NewRedis(opts RedisOptions, log *logger.Logger) (*RedisStore, error) {
	if opts.Addr == "" {
		return nil, fmt.Errorf("cache: redis address is required")
	}
	if opts.PoolSize <= 0 {
		opts.PoolSize = 10
	}
	if opts.DialTimeout == 0 {
		opts.DialTimeout = 5 * time.Second
	}
	if opts.ReadTimeout == 0 {
		opts.ReadTimeout = 3 * time.Second
	}
	if opts.WriteTimeout == 0 {
		opts.WriteTimeout = 3 * time.Second
	}
	if opts.Prefix == "" {
		opts.Prefix = "bolt"
	}
	if log == nil {
		log = logger.GetGlobalLogger()
	}

	rdb := goredis.NewClient(&goredis.Options{
		Addr:         opts.Addr,
		Password:     opts.Password,
		DB:           opts.DB,
		PoolSize:     opts.PoolSize,
		DialTimeout:  opts.DialTimeout,
		ReadTimeout:  opts.ReadTimeout,
		WriteTimeout: opts.WriteTimeout,
	})

	ctx, cancel := context.WithTimeout(context.Background(), opts.DialTimeout)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("cache: redis ping %s: %w", opts.Addr, err)
	}

	log.Info("Redis cache connected", map[string]interface{}{
		"addr":   opts.Addr,
		"db":     opts.DB,
		"prefix": opts.Prefix,
	})

	return &RedisStore{
		rdb:    rdb,
		prefix: opts.Prefix,
		log:    log.WithComponent("cache"),
	}, nil
}

// Fetch returns the payload stored under id. The second return is false
// on a miss; read failures count as misses.
func (s *RedisStore) Fetch(id string) ([]byte, bool) {
	data, err := s.rdb.Get(context.Background(), s.key(id)).Bytes()
	if err != nil {
		if !errors.Is(err, goredis.Nil) {
			s.log.Debug("Redis fetch failed", map[string]interface{}{
				"id":    id,
				"error": err.Error(),
			})
		}
		s.misses.Add(1)
		return nil, false
	}
	s.hits.Add(1)
	return data, true
}

// Contains reports whether a live entry exists under id.
func (s *RedisStore) Contains(id string) bool {
	n, err := s.rdb.Exists(context.Background(), s.key(id)).Result()
	return err == nil && n > 0
}

// Save stores data under id. A zero ttl keeps the entry until flushed.
func (s *RedisStore) Save(id string, data []byte, ttl time.Duration) error {
	if err := s.rdb.Set(context.Background(), s.key(id), data, ttl).Err(); err != nil {
		return fmt.Errorf("cache: redis save %s: %w", id, err)
	}
	return nil
}

// Delete removes the entry stored under id. Absent entries are not an error.
func (s *RedisStore) Delete(id string) error {
	if err := s.rdb.Del(context.Background(), s.key(id)).Err(); err != nil {
		return fmt.Errorf("cache: redis delete %s: %w", id, err)
	}
	return nil
}

// FlushAll removes every key under the store's prefix. Keys outside the
// prefix survive, so a shared server is never wiped.
func (s *RedisStore) FlushAll() error {
	ctx := context.Background()
	var flushed int
	iter := s.rdb.Scan(ctx, 0, s.prefix+":*", 100).Iterator()
	for iter.Next(ctx) {
		if err := s.rdb.Del(ctx, iter.Val()).Err(); err != nil {
			return fmt.Errorf("cache: redis flush %s: %w", iter.Val(), err)
		}
		flushed++
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("cache: redis scan: %w", err)
	}
	s.log.Debug("Cache flushed", map[string]interface{}{"entries": flushed})
	return nil
}

// Stats returns hit and miss counters plus the current entry count.
func (s *RedisStore) Stats() Stats {
	ctx := context.Background()
	var entries int
	iter := s.rdb.Scan(ctx, 0, s.prefix+":*", 100).Iterator()
	for iter.Next(ctx) {
		entries++
	}
	return Stats{
		Hits:    s.hits.Load(),
		Misses:  s.misses.Load(),
		Entries: entries,
	}
}

// Close releases the connection pool. Safe to call multiple times.
func (s *RedisStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	return s.rdb.Close()
}

func (s *RedisStore) key(id string) string {
	return s.prefix + ":" + id
}
