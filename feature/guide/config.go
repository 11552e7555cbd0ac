package guide

import (
	"guide-builder/core/config"
	"guide-builder/feature/guide/artwork"
	"guide-builder/feature/guide/cache"
	"guide-builder/feature/guide/catalog"
	"guide-builder/feature/guide/fetch"
	"guide-builder/feature/guide/pipeline"
)

// Config holds the guide pipeline sections of the application configuration.
type Config struct {
	// Catalog holds the remote catalog API endpoints and credentials.
	Catalog catalog.Config `mapstructure:"catalog"`
	// Cache holds the durable content cache location and retention.
	Cache cache.Config `mapstructure:"cache"`
	// Fetch holds batch size and concurrency limits for remote fetches.
	Fetch fetch.Config `mapstructure:"fetch"`
	// Artwork holds artwork resolution and logo mirroring settings.
	Artwork artwork.Config `mapstructure:"artwork"`
	// Pipeline holds run-level settings (safety check, export).
	Pipeline pipeline.Config `mapstructure:"pipeline"`
}

// LoadConfig loads the guide sections from the same sources as the core configuration.
func LoadConfig(path string) (*Config, error) {
	var cfg Config
	if err := config.Load(path, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the guide sections against their validation tags.
func (c *Config) Validate() error {
	return config.ValidateStruct(c)
}
