package registry

import "time"

// Config holds configuration for the Registry.
type Config struct {
	// Namespace is the multi-tenant partitioning prefix for every physical
	// table name. Default: "captify"
	Namespace string

	// CacheTTL bounds how long type metadata may be served from the
	// read-through cache. Registry writes invalidate eagerly; the TTL covers
	// writes made by other processes. Default: 30s
	CacheTTL time.Duration
}

// DefaultConfig returns sensible defaults for a single-tenant deployment.
func DefaultConfig() Config {
	return Config{
		Namespace: "captify",
		CacheTTL:  30 * time.Second,
	}
}

// validate ensures config values are within acceptable bounds.
func (c *Config) validate() {
	if c.Namespace == "" {
		c.Namespace = "captify"
	}
	if c.CacheTTL <= 0 {
		c.CacheTTL = 30 * time.Second
	}
}
