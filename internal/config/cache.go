package config

import "time"

// CacheConfig drives the Redis response cache in front of the public event
// page.  Organizer routes are never cached.
type CacheConfig struct {
    Enabled      bool
    Methods      map[string]bool
    TTL          time.Duration
    KeyStrategy  string // route | method_route | route_query | method_route_query
    Prefix       string
    MaxBodyBytes int
}

// LoadCacheConfig reads CACHE_* variables.  A non-positive TTL or body limit
// falls back to the defaults.
func LoadCacheConfig() CacheConfig {
    c := CacheConfig{
        Enabled:      envBool("CACHE_ENABLED", true),
        Methods:      envSet("CACHE_METHODS", "GET"),
        TTL:          envDur("CACHE_TTL", 15*time.Second),
        KeyStrategy:  envStr("CACHE_KEY_STRATEGY", "route_query"),
        Prefix:       envStr("CACHE_PREFIX", "evcache"),
        MaxBodyBytes: envInt("CACHE_MAX_BODY_BYTES", 256<<10),
    }
    if c.TTL <= 0 {
        c.TTL = 15 * time.Second
    }
    if c.MaxBodyBytes <= 0 {
        c.MaxBodyBytes = 256 << 10
    }
    return c
}
