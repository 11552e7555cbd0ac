package catalog

import "time"

// Config holds configuration for the remote catalog API.
type Config struct {
	// BaseURL is the root of the catalog JSON API.
	BaseURL string `mapstructure:"base_url" default:"https://json.schedulesdirect.org/20141201" validate:"required,url"`
	// ArtworkBaseURL is the root for image downloads. Empty means BaseURL.
	ArtworkBaseURL string `mapstructure:"artwork_base_url" default:""`
	// Username is used by the password token source.
	Username string `mapstructure:"username" default:""`
	// Password is used by the password token source.
	Password string `mapstructure:"password" default:""`
	// Token is a pre-issued bearer credential. When set, no login is attempted.
	Token string `mapstructure:"token" default:""`
	// ManifestScope selects the hash manifest scope.
	ManifestScope string `mapstructure:"manifest_scope" default:"lineup"`
	// Timeout bounds every HTTP call.
	Timeout time.Duration `mapstructure:"timeout" default:"30s"`
	// UserAgent is sent with every request.
	UserAgent string `mapstructure:"user_agent" default:"guide-builder/1.0"`
}
