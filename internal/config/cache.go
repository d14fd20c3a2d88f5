package config

import (
	"slices"
	"time"
)

// Listings whose contents only change through this API's own writes.  The
// booking list is absent because ?active= is evaluated against the clock.
var cacheableLists = map[string]bool{"devices": true, "auditories": true}

// CacheConfig controls the Redis response cache placed in front of the
// list routes.  Writes purge every key under Prefix, so TTL only bounds how
// long an entry outlives a change made behind the API's back.
type CacheConfig struct {
	Enabled      bool
	TTL          time.Duration
	Prefix       string
	MaxBodyBytes int64
	// Lists names the list routes served through the cache.
	Lists []string
}

// LoadCacheConfig reads CACHE_ENABLED, CACHE_TTL, CACHE_PREFIX,
// CACHE_MAX_BODY_BYTES and CACHE_LISTS.  Names in CACHE_LISTS that are not
// cacheable listings are dropped.
func LoadCacheConfig() CacheConfig {
	c := CacheConfig{
		Enabled:      envBool("CACHE_ENABLED", true),
		TTL:          envDur("CACHE_TTL", 30*time.Second),
		Prefix:       envStr("CACHE_PREFIX", "booking:cache"),
		MaxBodyBytes: int64(envInt("CACHE_MAX_BODY_BYTES", 1<<20)),
	}
	if c.TTL <= 0 {
		c.TTL = 30 * time.Second
	}
	for _, name := range splitList(envStr("CACHE_LISTS", "devices,auditories")) {
		if cacheableLists[name] && !slices.Contains(c.Lists, name) {
			c.Lists = append(c.Lists, name)
		}
	}
	return c
}

// Caches reports whether the list route for resource goes through the cache.
func (c CacheConfig) Caches(resource string) bool {
	return c.Enabled && slices.Contains(c.Lists, resource)
}
