package tierinfra

import "time"

// Config holds the shared settings for the built-in tier backends.
type Config struct {
	// Capacity defines the maximum number of recency records a tier can
	// hold before the backend starts evicting. Must be greater than 0.
	Capacity int

	// NumShards determines the number of cache shards for concurrent
	// access in the sturdyc-backed tier. Must be greater than 0.
	// Default: 256. Ignored by the LRU tier.
	NumShards int

	// BackstopTTL is the backend-level eviction TTL. Both backends only
	// support a single cache-wide TTL, while entity types configure their
	// own cache_time; the authoritative per-record deadline is therefore
	// stored inside each record and enforced at read time, with
	// BackstopTTL reclaiming memory behind it. It must be at least as
	// long as the largest configured cache_time or records disappear
	// early. Default: 15 minutes.
	BackstopTTL time.Duration

	// EvictionPercentage specifies what percentage of entries the
	// sturdyc backend evicts when it reaches capacity. Must be between
	// 1-100. Default: 10. Ignored by the LRU tier.
	EvictionPercentage int
}

// DefaultConfig returns a Config with sensible defaults for most use cases.
func DefaultConfig() Config {
	return Config{
		Capacity:           10000,
		NumShards:          256,
		BackstopTTL:        15 * time.Minute,
		EvictionPercentage: 10,
	}
}

// Validate checks if the configuration values are valid.
// Returns an error if any configuration parameter is invalid.
func (c Config) Validate() error {
	if c.Capacity <= 0 {
		return &ConfigError{Field: "Capacity", Message: "must be greater than 0"}
	}
	if c.NumShards <= 0 {
		return &ConfigError{Field: "NumShards", Message: "must be greater than 0"}
	}
	if c.BackstopTTL <= 0 {
		return &ConfigError{Field: "BackstopTTL", Message: "must be greater than 0"}
	}
	if c.EvictionPercentage < 1 || c.EvictionPercentage > 100 {
		return &ConfigError{Field: "EvictionPercentage", Message: "must be between 1 and 100"}
	}
	return nil
}

// ConfigError represents a configuration validation error.
type ConfigError struct {
	Field   string
	Message string
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	return "config error in field " + e.Field + ": " + e.Message
}
