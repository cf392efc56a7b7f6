package config

import (
	"strings"
	"time"
)

// CacheConfig defines settings for the response cache middleware.
// When Enabled is false or no Redis client is configured, caching is
// disabled.  KeyStrategy determines which parts of the request contribute
// to the cache key.  The TTL bounds how stale a cached availability read
// may be.
type CacheConfig struct {
	Enabled      bool          `envconfig:"ENABLED" default:"true"`
	Methods      []string      `envconfig:"METHODS" default:"GET"`
	TTL          time.Duration `envconfig:"TTL" default:"30s"`
	KeyStrategy  string        `envconfig:"KEY_STRATEGY" default:"route_query"`
	Prefix       string        `envconfig:"PREFIX" default:"cache"`
	MaxBodyBytes int           `envconfig:"MAX_BODY_BYTES" default:"1048576"`
}

func (c *CacheConfig) normalize() {
	methods := c.Methods[:0]
	for _, m := range c.Methods {
		if m = strings.ToUpper(strings.TrimSpace(m)); m != "" {
			methods = append(methods, m)
		}
	}
	c.Methods = methods
	if c.TTL <= 0 {
		c.TTL = time.Second
	}
}

// Caches reports whether responses to method are cached.
func (c CacheConfig) Caches(method string) bool {
	method = strings.ToUpper(method)
	for _, m := range c.Methods {
		if m == method {
			return true
		}
	}
	return false
}
