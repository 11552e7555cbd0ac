package cache

import "time"

// Config holds configuration for the durable content cache.
type Config struct {
	// Path is the cache file location.
	Path string `mapstructure:"path" default:"guide-cache.jsonl" validate:"required"`
	// Retention is how long an entry survives without being seen in a manifest.
	Retention time.Duration `mapstructure:"retention" default:"720h"`
}
