package config

import (
	"testing"
	"time"
)

func TestCachingConfigDefaults(t *testing.T) {
	c := NewConfig()

	caching, err := c.CachingConfig()
	if err != nil {
		t.Fatalf("CachingConfig: %v", err)
	}
	if caching.Backend != CacheBackendFilesystem {
		t.Errorf("expected filesystem backend, got %q", caching.Backend)
	}
	if caching.Request {
		t.Error("request caching should default to off")
	}
	if caching.TTL() != 10*time.Minute {
		t.Errorf("expected 10m ttl, got %s", caching.TTL())
	}
	if err := caching.Validate(); err != nil {
		t.Errorf("defaults should validate: %v", err)
	}
}

func TestCachingConfigRedisBackend(t *testing.T) {
	c := NewConfig()
	c.Set("general/caching", map[string]any{
		"request": true,
		"backend": "redis",
		"redis":   map[string]any{"addr": "127.0.0.1:6379"},
	})

	caching, err := c.CachingConfig()
	if err != nil {
		t.Fatalf("CachingConfig: %v", err)
	}
	if err := caching.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if caching.Redis.PoolSize != 10 {
		t.Errorf("expected default pool size 10, got %d", caching.Redis.PoolSize)
	}
	if caching.Redis.DialTimeout != "5s" {
		t.Errorf("expected default dial timeout, got %q", caching.Redis.DialTimeout)
	}
}

func TestCachingValidateRejectsBadDescriptors(t *testing.T) {
	cases := []struct {
		name    string
		caching Caching
	}{
		{"unknown backend", Caching{Backend: "memcache"}},
		{"redis without addr", Caching{Backend: CacheBackendRedis}},
		{"redis with bad timeout", Caching{
			Backend: CacheBackendRedis,
			Redis:   CachingRedis{Addr: "127.0.0.1:6379", DialTimeout: "soon"},
		}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			tc.caching.ApplyDefaults()
			if err := tc.caching.Validate(); err == nil {
				t.Error("expected a validation error")
			}
		})
	}
}
